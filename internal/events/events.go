// Package events publishes gateway usage events to NATS JetStream for
// offline accounting. Publishing is fire-and-forget from the request path.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Stream and subject names.
const (
	StreamUsage = "GATEWAY_USAGE"

	SubjectChatUsage   = "gateway.usage.chat"
	SubjectQuotaDenied = "gateway.usage.quota_denied"
)

// ChatUsage is published once per successful completion.
type ChatUsage struct {
	RequestID        string    `json:"request_id"`
	UserID           string    `json:"user_id"`
	Trust            string    `json:"trust"`
	Model            string    `json:"model"`
	PromptTokens     int       `json:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens"`
	TotalTokens      int       `json:"total_tokens"`
	Timestamp        time.Time `json:"timestamp"`
}

// QuotaDenied is published when a principal hits its daily cap.
type QuotaDenied struct {
	UserID    string    `json:"user_id"`
	Scope     string    `json:"scope"`
	Timestamp time.Time `json:"timestamp"`
}

// Client wraps a NATS connection with JetStream support.
type Client struct {
	conn *nats.Conn
	js   jetstream.JetStream
}

// NewClient connects to NATS and ensures the usage stream exists.
func NewClient(ctx context.Context, url string) (*Client, error) {
	nc, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(10),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("NATS disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			slog.Info("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("creating JetStream context: %w", err)
	}

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      StreamUsage,
		Subjects:  []string{"gateway.usage.>"},
		Retention: jetstream.LimitsPolicy,
		MaxAge:    7 * 24 * time.Hour,
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("ensuring usage stream: %w", err)
	}

	slog.Info("connected to NATS", "url", url)
	return &Client{conn: nc, js: js}, nil
}

// PublishChatUsage publishes a completion usage event.
func (c *Client) PublishChatUsage(ctx context.Context, u ChatUsage) error {
	return c.publish(ctx, SubjectChatUsage, u)
}

// PublishQuotaDenied publishes a daily-cap denial event.
func (c *Client) PublishQuotaDenied(ctx context.Context, d QuotaDenied) error {
	return c.publish(ctx, SubjectQuotaDenied, d)
}

func (c *Client) publish(ctx context.Context, subject string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling %s event: %w", subject, err)
	}
	if _, err := c.js.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("publishing to %s: %w", subject, err)
	}
	return nil
}

// Healthy returns true if the NATS connection is active.
func (c *Client) Healthy() bool {
	return c.conn.IsConnected()
}

// Close drains and closes the NATS connection.
func (c *Client) Close() {
	if err := c.conn.Drain(); err != nil {
		slog.Warn("draining NATS connection", "error", err)
	}
}
