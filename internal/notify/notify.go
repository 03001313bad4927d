// Package notify publishes build completion events to NATS so downstream
// consumers (deploy hooks, chat bots) can react to finished builds. It is
// disabled unless a NATS URL is configured.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/alescoulie/sitegen/internal/config"
	"github.com/alescoulie/sitegen/internal/logfields"
)

// BuildEvent is the payload published after every completed build.
type BuildEvent struct {
	BuildID    string    `json:"build_id"`
	Outcome    string    `json:"outcome"` // success|warning|failed|canceled
	Signature  string    `json:"signature,omitempty"`
	Skipped    bool      `json:"skipped,omitempty"` // true when unchanged inputs short-circuited the build
	Started    time.Time `json:"started"`
	Finished   time.Time `json:"finished"`
	DurationMS int64     `json:"duration_ms"`
	Posts      int       `json:"posts"`
	Projects   int       `json:"projects"`
	Pages      int       `json:"pages"`
	Errors     int       `json:"errors"`
	Warnings   int       `json:"warnings"`
}

// Publisher publishes build events to a NATS subject.
type Publisher struct {
	conn    *nats.Conn
	subject string
}

// NewPublisher connects to the configured NATS server. The config must carry
// a URL; use Enabled to decide whether to construct a publisher at all.
func NewPublisher(cfg config.NotifyConfig) (*Publisher, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("notify URL is required")
	}

	conn, err := nats.Connect(cfg.URL,
		nats.Name("sitegen"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(2),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	slog.Info("NATS publisher initialized", logfields.URL(cfg.URL), logfields.Subject(cfg.Subject))
	return &Publisher{conn: conn, subject: cfg.Subject}, nil
}

// Enabled reports whether the config activates build notifications.
func Enabled(cfg config.NotifyConfig) bool {
	return cfg.URL != ""
}

// Publish sends one build event. Publishing is best effort; the build outcome
// never depends on it.
func (p *Publisher) Publish(ctx context.Context, event BuildEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	deadline := 2 * time.Second
	if d, ok := ctx.Deadline(); ok {
		if until := time.Until(d); until < deadline {
			deadline = until
		}
	}
	if err := p.conn.FlushTimeout(deadline); err != nil {
		return fmt.Errorf("failed to flush connection: %w", err)
	}

	slog.Debug("Published build event",
		logfields.BuildID(event.BuildID),
		logfields.Outcome(event.Outcome),
		logfields.Subject(p.subject))
	return nil
}

// Close closes the NATS connection.
func (p *Publisher) Close() {
	if p != nil && p.conn != nil {
		p.conn.Close()
	}
}
