// Package kafka publishes audit events to a Kafka topic so downstream
// compliance and SIEM consumers can subscribe without touching the service's
// database.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "firledger/pkg/platform/audit"
)

// Publisher produces audit events to a single topic, keyed by actor so all
// events for one participant land in the same partition, in order.
type Publisher struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// New connects to the brokers and ensures the topic exists.
func New(ctx context.Context, brokers []string, topic string, logger *slog.Logger) (*Publisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}

	// Best-effort topic ensure. Brokers with auto-creation enabled make this
	// a no-op; elsewhere it saves the first produce from failing.
	adm := kadm.NewClient(client)
	if resp, err := adm.CreateTopic(ctx, 1, 1, nil, topic); err != nil || resp.Err != nil {
		logger.Warn("audit topic ensure returned error, continuing",
			"topic", topic,
			"create_err", err,
			"topic_err", resp.Err,
		)
	}

	return &Publisher{client: client, topic: topic, logger: logger}, nil
}

// Emit produces one event synchronously. Callers sit behind the async
// recorder, so the produce latency never lands on a request path.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.Actor.String()),
		Value: payload,
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

// Close flushes and releases the underlying client.
func (p *Publisher) Close() {
	p.client.Close()
}

var _ audit.Publisher = (*Publisher)(nil)
