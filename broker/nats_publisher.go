package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"venuematch_server/models"

	"github.com/nats-io/nats.go"
)

// SubjectPrefix roots every event subject: venuematch.events.<type>.<userId>
const SubjectPrefix = "venuematch.events"

// Conn is the part of *nats.Conn the publisher needs.
type Conn interface {
	Publish(subject string, data []byte) error
}

// Publisher forwards engine events to NATS for other services (mobile push,
// analytics) to consume.
type Publisher struct {
	conn Conn
}

func NewPublisher(conn Conn) *Publisher {
	return &Publisher{conn: conn}
}

// Connect dials NATS with reconnects enabled.
func Connect(url string) (*nats.Conn, error) {
	log.Printf("📡 Connecting to NATS at %s...", url)
	conn, err := nats.Connect(url,
		nats.Name("venuematch-server"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Printf("⚠️ NATS disconnected: %v", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Printf("✅ NATS reconnected to %s", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return conn, nil
}

// Subject names the subject an event is published on.
func Subject(event models.Event) string {
	return fmt.Sprintf("%s.%s.%s", SubjectPrefix, event.Type, event.UserID)
}

func (p *Publisher) Publish(ctx context.Context, event models.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event.Type, err)
	}
	if err := p.conn.Publish(Subject(event), data); err != nil {
		return fmt.Errorf("publish %s event: %w", event.Type, err)
	}
	return nil
}
