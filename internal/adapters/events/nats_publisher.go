// Package events publishes analysis outcomes to NATS for downstream
// consumers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/mikey/scamguard/internal/core"
)

// DefaultSubject is the subject prefix used when none is configured
const DefaultSubject = "scamguard.analyses"

// AnalysisEvent is the message body. Message content is not included.
type AnalysisEvent struct {
	ID               string              `json:"id"`
	UserID           string              `json:"userId,omitempty"`
	Type             core.MessageType    `json:"type"`
	IsScam           bool                `json:"isScam"`
	Confidence       float64             `json:"confidence"`
	DetectedKeywords []core.KeywordMatch `json:"detectedKeywords"`
	RiskIndicators   core.RiskIndicators `json:"riskIndicators"`
	CreatedAt        time.Time           `json:"createdAt"`
}

// NewAnalysisEvent builds the event for a record
func NewAnalysisEvent(record *core.AnalysisRecord) *AnalysisEvent {
	return &AnalysisEvent{
		ID:               record.ID,
		UserID:           record.UserID,
		Type:             record.Type,
		IsScam:           record.IsScam,
		Confidence:       record.Confidence,
		DetectedKeywords: record.DetectedKeywords,
		RiskIndicators:   record.RiskIndicators,
		CreatedAt:        record.CreatedAt,
	}
}

type publisher interface {
	Publish(subject string, data []byte) error
}

// NATSPublisher implements core.EventPublisher
type NATSPublisher struct {
	conn    *nats.Conn
	pub     publisher
	subject string
	logger  *zap.Logger

	mu     sync.Mutex
	closed bool
}

// NewNATSPublisher connects to NATS and returns a publisher for subject
func NewNATSPublisher(url, subject string, logger *zap.Logger) (*NATSPublisher, error) {
	logger = logger.Named("nats")
	if url == "" {
		url = nats.DefaultURL
	}

	logger.Info("Connecting to NATS", zap.String("url", url))

	conn, err := nats.Connect(url,
		nats.Name("scamguard"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	p := newPublisher(conn, subject, logger)
	p.conn = conn
	return p, nil
}

func newPublisher(pub publisher, subject string, logger *zap.Logger) *NATSPublisher {
	if subject == "" {
		subject = DefaultSubject
	}
	return &NATSPublisher{
		pub:     pub,
		subject: subject,
		logger:  logger,
	}
}

// Subject returns the subject an event is published on:
// <prefix>.<type>.<scam|safe>
func (p *NATSPublisher) Subject(record *core.AnalysisRecord) string {
	verdict := "safe"
	if record.IsScam {
		verdict = "scam"
	}
	return fmt.Sprintf("%s.%s.%s", p.subject, record.Type, verdict)
}

// PublishAnalysis publishes the event for a record
func (p *NATSPublisher) PublishAnalysis(ctx context.Context, record *core.AnalysisRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return fmt.Errorf("NATS publisher closed")
	}

	data, err := json.Marshal(NewAnalysisEvent(record))
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	subject := p.Subject(record)
	if err := p.pub.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Debug("Published analysis event",
		zap.String("subject", subject),
		zap.String("id", record.ID))
	return nil
}

// Close drains and closes the connection
func (p *NATSPublisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	if p.conn != nil {
		if err := p.conn.Drain(); err != nil {
			p.logger.Warn("Failed to drain NATS connection", zap.Error(err))
			p.conn.Close()
		}
	}
}
