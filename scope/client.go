package scope

import (
	"context"
	"fmt"
	"log"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client allows to connect to a scope server and receive frames.
type Client struct {
	address string

	conn *grpc.ClientConn
}

// NewClient creates a new client for the given address.
func NewClient(address string) *Client {
	return &Client{
		address: address,
	}
}

// Open the connection to the scope server.
func (c *Client) Open() error {
	if c.conn != nil {
		return fmt.Errorf("already connected")
	}

	conn, err := grpc.NewClient(c.address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("cannot connect to scope server: %w", err)
	}
	c.conn = conn

	return nil
}

// Close the connection to the scope server.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// GetFrames provides a channel to receive frames from the scope server. The channel is
// closed when the stream ends.
func (c *Client) GetFrames(ctx context.Context) (<-chan Message, error) {
	if c.conn == nil {
		return nil, fmt.Errorf("not connected")
	}

	stream, err := c.conn.NewStream(ctx, &scopeServiceDesc.Streams[0], getFramesMethod)
	if err != nil {
		return nil, fmt.Errorf("cannot open frame stream: %w", err)
	}
	if err := stream.SendMsg(&emptypb.Empty{}); err != nil {
		return nil, fmt.Errorf("cannot request frames: %w", err)
	}
	if err := stream.CloseSend(); err != nil {
		return nil, fmt.Errorf("cannot request frames: %w", err)
	}

	messages := make(chan Message, 1)
	go func() {
		defer close(messages)
		for {
			raw := new(structpb.Struct)
			err := stream.RecvMsg(raw)
			if err != nil {
				return
			}

			msg, err := decodeMessage(raw)
			if err != nil {
				log.Print(err)
				continue
			}
			select {
			case messages <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()

	return messages, nil
}
