package rx

import (
	"context"
	"fmt"
	"log"
	"net/url"

	"github.com/gorilla/websocket"
)

type feedConn interface {
	Close() error
	ReadMessage() (messageType int, p []byte, err error)
}

// Feed receives payloads from a websocket. Every text or binary message is one payload.
type Feed struct {
	url     string
	handler PayloadHandler

	conn   feedConn
	closed chan struct{}
}

// DialFeed connects to the websocket at the given URL.
func DialFeed(ctx context.Context, rawURL string, handler PayloadHandler) (*Feed, error) {
	feedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid feed URL: %w", err)
	}
	switch feedURL.Scheme {
	case "ws", "wss":
	case "http":
		feedURL.Scheme = "ws"
	case "https":
		feedURL.Scheme = "wss"
	default:
		return nil, fmt.Errorf("unsupported feed URL scheme: %s", feedURL.Scheme)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, feedURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("cannot dial feed websocket: %w", err)
	}
	log.Printf("connected to feed %s", feedURL)

	return newFeed(feedURL.String(), conn, handler), nil
}

func newFeed(url string, conn feedConn, handler PayloadHandler) *Feed {
	return &Feed{
		url:     url,
		handler: handler,
		conn:    conn,
		closed:  make(chan struct{}),
	}
}

func (f *Feed) URL() string {
	return f.url
}

// Run reads messages until the context is done or the connection fails.
func (f *Feed) Run(ctx context.Context) error {
	defer close(f.closed)

	go func() {
		select {
		case <-ctx.Done():
			f.conn.Close()
		case <-f.closed:
		}
	}()
	defer f.conn.Close()

	for {
		msgType, msgBytes, err := f.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("feed %s closed", f.url)
				return nil
			}
			return fmt.Errorf("cannot read next message from feed: %w", err)
		}
		if msgType != websocket.TextMessage && msgType != websocket.BinaryMessage {
			log.Printf("received wrong message type from feed: %d", msgType)
			continue
		}
		if len(msgBytes) == 0 {
			continue
		}

		f.handler.Payload(msgBytes)
	}
}

// Closed is closed when Run returns.
func (f *Feed) Closed() <-chan struct{} {
	return f.closed
}
