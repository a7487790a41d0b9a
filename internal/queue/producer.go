package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// Enqueuer is the narrow surface the services see: enqueue a named job with a
// partition key and payload. Key should be the order id so all jobs for one
// order keep their order.
type Enqueuer interface {
	Enqueue(ctx context.Context, job, key string, payload any) error
}

type Producer struct {
	w *kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	return &Producer{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		},
	}
}

func (p *Producer) Enqueue(ctx context.Context, job, key string, payload any) error {
	topic, err := topicFor(job)
	if err != nil {
		return err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal job payload: %w", err)
	}

	value, err := json.Marshal(Envelope{
		JobID:      uuid.NewString(),
		Job:        job,
		OccurredAt: time.Now().UTC(),
		Payload:    body,
	})
	if err != nil {
		return fmt.Errorf("marshal job envelope: %w", err)
	}

	err = p.w.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
		Headers: []kafka.Header{
			{Key: "x-job", Value: []byte(job)},
		},
	})
	if err != nil {
		return fmt.Errorf("write job message: %w", err)
	}
	return nil
}

func (p *Producer) Close() error { return p.w.Close() }
