// Package events publishes per-document completion events to NATS. The
// publisher is an optional collaborator: a nil *Publisher is a no-op, and a
// failed publish is logged, never propagated into the encoding pipeline.
package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// SubjectDocumentEncoded carries one event per completed document.
const SubjectDocumentEncoded = "encoding.document.encoded"

// DocumentEncoded is the payload published after a document finishes.
type DocumentEncoded struct {
	EventID   string    `json:"event_id"`
	RunID     string    `json:"run_id"`
	DocID     string    `json:"doc_id"`
	Model     string    `json:"model"`
	Instances int       `json:"instances"`
	Timestamp time.Time `json:"timestamp"`
}

type Publisher struct {
	conn   *nats.Conn
	logger *slog.Logger
}

// Connect opens a NATS connection for event publishing.
func Connect(url string, logger *slog.Logger) (*Publisher, error) {
	opts := []nats.Option{
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &Publisher{conn: nc, logger: logger}, nil
}

// PublishDocumentEncoded emits a completion event. Safe on a nil publisher.
func (p *Publisher) PublishDocumentEncoded(runID, docID, model string, instances int) {
	if p == nil {
		return
	}

	event := DocumentEncoded{
		EventID:   uuid.NewString(),
		RunID:     runID,
		DocID:     docID,
		Model:     model,
		Instances: instances,
		Timestamp: time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Warn("marshal event failed", "doc_id", docID, "error", err)
		return
	}
	if err := p.conn.Publish(SubjectDocumentEncoded, payload); err != nil {
		p.logger.Warn("publish event failed", "doc_id", docID, "error", err)
	}
}

// Close drains the connection.
func (p *Publisher) Close() {
	if p == nil {
		return
	}
	p.conn.Close()
}
