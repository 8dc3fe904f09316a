package publisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/kstbyev/investflow/internal/metrics"
	"github.com/kstbyev/investflow/pkg/model"
)

// EventCatalogChanged is the event type of catalog invalidation envelopes.
const EventCatalogChanged = "catalog.views.invalidated"

// jetStream is the part of nats.JetStreamContext the publisher uses.
type jetStream interface {
	PublishMsg(m *nats.Msg, opts ...nats.PubOpt) (*nats.PubAck, error)
}

// Publisher wraps a NATS connection and publishes canonical event envelopes.
type Publisher struct {
	nc      *nats.Conn
	js      jetStream
	subject string
	service string
	logger  *zap.Logger
}

// New creates a Publisher with JetStream enabled.
func New(nc *nats.Conn, subject, service string, logger *zap.Logger) (*Publisher, error) {
	js, err := nc.JetStream()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{
		nc:      nc,
		js:      js,
		subject: subject,
		service: service,
		logger:  logger,
	}, nil
}

// Connect dials url and builds a Publisher on the connection.
func Connect(url, subject, service string, logger *zap.Logger) (*Publisher, error) {
	nc, err := nats.Connect(url,
		nats.Name(service),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second))
	if err != nil {
		return nil, err
	}
	p, err := New(nc, subject, service, logger)
	if err != nil {
		nc.Close()
		return nil, err
	}
	return p, nil
}

// PublishEnvelope serializes env and publishes it. An empty subject uses the default one.
func (p *Publisher) PublishEnvelope(ctx context.Context, subject string, env *model.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		p.logger.Error("publisher.marshal_failed",
			zap.String("subject", subject),
			zap.String("event_type", env.EventType),
			zap.Error(err))
		metrics.IncError("publisher", "marshal_failed")
		return err
	}

	if subject == "" {
		subject = p.subject
	}

	msg := &nats.Msg{
		Subject: subject,
		Data:    data,
		Header: nats.Header{
			"event_type":   []string{env.EventType},
			"event_id":     []string{env.ID.String()},
			"service":      []string{p.service},
			"content_type": []string{"application/json"},
		},
	}

	if _, err := p.js.PublishMsg(msg, nats.Context(ctx)); err != nil {
		p.logger.Error("publisher.publish_failed",
			zap.String("subject", subject),
			zap.String("event_type", env.EventType),
			zap.Error(err))
		metrics.IncNATSMessage(subject, "error")
		return err
	}

	p.logger.Debug("publisher.publish_success",
		zap.String("subject", subject),
		zap.String("event_type", env.EventType))
	metrics.IncNATSMessage(subject, "ok")
	return nil
}

// PublishCatalogChanged emits a catalog.views.invalidated envelope.
func (p *Publisher) PublishCatalogChanged(ctx context.Context, ev model.CatalogChanged) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	env := &model.Envelope{
		ID:        uuid.New(),
		Topic:     p.subject,
		EventType: EventCatalogChanged,
		Version:   "1.0.0",
		Source:    p.service,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
	return p.PublishEnvelope(ctx, "", env)
}

func (p *Publisher) Close() {
	if p.nc != nil && p.nc.IsConnected() {
		p.nc.Close()
	}
}

// Conn returns the underlying connection, nil for test publishers.
func (p *Publisher) Conn() *nats.Conn { return p.nc }
