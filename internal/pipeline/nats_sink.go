package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

// NATSSink publishes stream alerts to a NATS JetStream subject so other
// tooling can consume opportunities without scraping CLI output.
type NATSSink struct {
	conn    *nats.Conn
	js      nats.JetStreamContext
	subject string
	log     *logrus.Entry
}

// NewNATSSink connects to NATS and ensures the alert stream exists.
func NewNATSSink(url, stream, subject string) (*NATSSink, error) {
	if url == "" {
		url = nats.DefaultURL
	}

	conn, err := nats.Connect(url, nats.RetryOnFailedConnect(true), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("connect to NATS %s: %w", url, err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream context: %w", err)
	}

	if _, err := js.StreamInfo(stream); err != nil {
		_, err = js.AddStream(&nats.StreamConfig{
			Name:      stream,
			Subjects:  []string{subject},
			Retention: nats.InterestPolicy,
			Storage:   nats.FileStorage,
			MaxAge:    24 * time.Hour,
			Replicas:  1,
		})
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("create stream %s: %w", stream, err)
		}
	}

	return &NATSSink{
		conn:    conn,
		js:      js,
		subject: subject,
		log:     logrus.WithField("component", "nats-sink"),
	}, nil
}

// Publish sends one stream event as JSON.
func (s *NATSSink) Publish(ctx context.Context, event StreamEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if _, err := s.js.Publish(s.subject, data, nats.Context(ctx)); err != nil {
		return fmt.Errorf("publish to %s: %w", s.subject, err)
	}
	return nil
}

// Close closes the NATS connection.
func (s *NATSSink) Close() {
	if s.conn != nil {
		s.conn.Close()
	}
}
