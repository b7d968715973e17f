// Package redpanda provides Redpanda/Kafka event publishing.
//
// The engine emits re-evaluation completion events so downstream consumers
// (notifications, analytics) can react. Delivery to end users is not this
// package's concern.
package redpanda

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kotel"
	"go.opentelemetry.io/otel"

	"github.com/talentbridge/match-engine/internal/domain"
)

const (
	// TopicReEvaluations carries re-evaluation completion events.
	TopicReEvaluations = "match-reevaluations"
)

// Producer wraps a Kafka client and implements domain.EventPublisher.
type Producer struct {
	client *kgo.Client
}

// NewProducer constructs a Producer and ensures the completion topic exists.
func NewProducer(brokers []string) (*Producer, error) {
	slog.Info("creating redpanda producer", slog.Any("brokers", brokers))
	if len(brokers) == 0 {
		return nil, fmt.Errorf("no seed brokers provided")
	}

	kotelTracer := kotel.NewTracer(
		kotel.TracerProvider(otel.GetTracerProvider()),
	)
	kotelService := kotel.NewKotel(
		kotel.WithTracer(kotelTracer),
	)

	opts := []kgo.Opt{
		kgo.SeedBrokers(brokers...),
		kgo.RequestRetries(10),
		kgo.ProducerBatchMaxBytes(1000000),
		kgo.WithHooks(kotelService.Hooks()...),
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		slog.Error("failed to create redpanda client", slog.Any("error", err))
		return nil, fmt.Errorf("redpanda client: %w", err)
	}

	if err := createTopicIfNotExists(context.Background(), client, TopicReEvaluations, 1, 1); err != nil {
		// The broker may have auto-created it or another instance won the race.
		slog.Warn("failed to create topic, it may already exist",
			slog.String("topic", TopicReEvaluations),
			slog.Any("error", err))
	}

	return &Producer{client: client}, nil
}

// PublishReEvaluationCompleted publishes one completion event, keyed by
// subject so per-subject ordering holds.
func (p *Producer) PublishReEvaluationCompleted(ctx domain.Context, ev domain.ReEvaluationCompleted) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("op=event.marshal: %w", err)
	}
	rec := &kgo.Record{
		Topic: TopicReEvaluations,
		Key:   []byte(string(ev.Domain) + ":" + ev.SubjectID),
		Value: b,
	}
	if err := p.client.ProduceSync(ctx, rec).FirstErr(); err != nil {
		return fmt.Errorf("op=event.publish: %w", err)
	}
	slog.Info("re-evaluation event published",
		slog.String("topic", TopicReEvaluations),
		slog.String("task_id", ev.TaskID),
		slog.String("subject_id", ev.SubjectID))
	return nil
}

// Ping verifies broker connectivity for readiness probes.
func (p *Producer) Ping(ctx context.Context) error {
	return p.client.Ping(ctx)
}

// Close flushes and releases the underlying client.
func (p *Producer) Close() {
	p.client.Close()
}
