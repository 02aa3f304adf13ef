// Package broadcast mirrors system activity onto a Kafka topic so surfaces
// outside this service (mail digests, live dashboards) can react without
// polling the record store.
package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"confreg/internal/activity"
)

// Publisher produces system-activity records to a Kafka topic. The record
// store remains the source of truth; this channel is advisory.
type Publisher struct {
	client *kgo.Client
	topic  string
}

// New connects a producer to the given brokers. ProducerLinger keeps
// announcement latency low; these are rare, small messages.
func New(brokers []string, topic string) (*Publisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerLinger(50*time.Millisecond),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &Publisher{client: client, topic: topic}, nil
}

// payload is the wire form of a broadcast. Field names are part of the topic
// contract with downstream consumers.
type payload struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Icon        string         `json:"icon,omitempty"`
	Type        string         `json:"type"`
	CreatedAt   string         `json:"created_at"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// Publish produces one record synchronously. Callers treat failure as
// best-effort (the activity logger logs and moves on).
func (p *Publisher) Publish(ctx context.Context, rec activity.Record) error {
	value, err := json.Marshal(payload{
		ID:          rec.ID.String(),
		Title:       rec.Title,
		Description: rec.Description,
		Icon:        rec.Icon,
		Type:        rec.Type,
		CreatedAt:   rec.CreatedAt.Format(time.RFC3339Nano),
		Metadata:    rec.Metadata,
	})
	if err != nil {
		return fmt.Errorf("marshal broadcast payload: %w", err)
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(rec.Type),
		Value: value,
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce broadcast: %w", err)
	}
	return nil
}

// Close flushes pending produces and releases the client.
func (p *Publisher) Close() {
	p.client.Close()
}
