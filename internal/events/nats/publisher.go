// Package nats publishes ingestion lifecycle events to a NATS subject so
// downstream consumers (indexers, notifiers) can react without the engine
// knowing about them.
package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sony/gobreaker/v2"

	"arkiv/internal/domain/models"
	"arkiv/internal/domain/services"
)

type Publisher struct {
	conn    *nats.Conn
	subject string
	breaker *gobreaker.CircuitBreaker[struct{}]
	logger  *slog.Logger
}

type Options struct {
	ConnectTimeout time.Duration
	ReconnectWait  time.Duration
	MaxReconnects  int
}

// Event is the wire shape of one lifecycle event.
type Event struct {
	Type       string    `json:"type"` // document.committed | document.resolved
	DocumentID string    `json:"document_id"`
	FolderID   *string   `json:"folder_id,omitempty"`
	Category   string    `json:"category"`
	Resolution string    `json:"resolution,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func New(url, subject string, logger *slog.Logger) (*Publisher, error) {
	return NewWithOptions(url, subject, logger, Options{})
}

func NewWithOptions(url, subject string, logger *slog.Logger, options Options) (*Publisher, error) {
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}

	conn, err := nats.Connect(
		url,
		nats.Name("arkiv"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(true),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	breaker := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:    "nats-publisher",
		Timeout: 15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return &Publisher{
		conn:    conn,
		subject: subject,
		breaker: breaker,
		logger:  logger,
	}, nil
}

func (p *Publisher) Close() {
	if p.conn != nil {
		p.conn.Close()
	}
}

func (p *Publisher) publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	_, err = p.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, p.conn.Publish(p.subject, payload)
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	return nil
}

// DocumentCommitted implements services.EventPublisher
func (p *Publisher) DocumentCommitted(ctx context.Context, doc *models.Document) error {
	return p.publish(ctx, Event{
		Type:       "document.committed",
		DocumentID: doc.ID,
		FolderID:   doc.FolderID,
		Category:   string(doc.Category),
		OccurredAt: time.Now().UTC(),
	})
}

// DuplicateResolved implements services.EventPublisher
func (p *Publisher) DuplicateResolved(ctx context.Context, doc *models.Document, resolution models.Resolution) error {
	return p.publish(ctx, Event{
		Type:       "document.resolved",
		DocumentID: doc.ID,
		FolderID:   doc.FolderID,
		Category:   string(doc.Category),
		Resolution: string(resolution),
		OccurredAt: time.Now().UTC(),
	})
}

var _ services.EventPublisher = (*Publisher)(nil)
