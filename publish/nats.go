package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/nats-io/nats.go"

	"github.com/ftl/radarview/frame"
)

const DefaultSubject = "radarview.snapshot"

// NATSConn defines the NATS operations used by the publisher.
type NATSConn interface {
	Publish(subject string, data []byte) error
	Close()
}

// NATSPublisher publishes every snapshot as a JSON document on a NATS subject.
type NATSPublisher struct {
	conn    NATSConn
	subject string
}

// ConnectNATS connects to the NATS server at the given URL.
func ConnectNATS(url string, subject string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("radarview"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Printf("disconnected from NATS: %v", err)
			}
		}),
		nats.ReconnectHandler(func(conn *nats.Conn) {
			log.Printf("reconnected to NATS at %s", conn.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return NewNATSPublisher(conn, subject), nil
}

// NewNATSPublisher creates a publisher that uses the given connection.
func NewNATSPublisher(conn NATSConn, subject string) *NATSPublisher {
	if subject == "" {
		subject = DefaultSubject
	}
	return &NATSPublisher{
		conn:    conn,
		subject: subject,
	}
}

func (p *NATSPublisher) Subject() string {
	return p.subject
}

func (p *NATSPublisher) Publish(_ context.Context, snapshot frame.Snapshot) error {
	data, err := json.Marshal(NewDocument(snapshot))
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	err = p.conn.Publish(p.subject, data)
	if err != nil {
		return fmt.Errorf("failed to publish snapshot: %w", err)
	}
	return nil
}

func (p *NATSPublisher) Close() {
	if p.conn != nil {
		p.conn.Close()
	}
}

// SubscribeNATS calls the handler for every document that arrives on the given subject.
// Messages that cannot be decoded are logged and dropped.
func SubscribeNATS(conn *nats.Conn, subject string, handler func(Document)) (*nats.Subscription, error) {
	if subject == "" {
		subject = DefaultSubject
	}
	subscription, err := conn.Subscribe(subject, func(msg *nats.Msg) {
		var document Document
		if err := json.Unmarshal(msg.Data, &document); err != nil {
			log.Printf("cannot decode snapshot document: %v", err)
			return
		}
		handler(document)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}
	return subscription, nil
}
