package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Handler must return nil only when the job succeeded and the offset may be
// committed. A non-nil error leaves the message uncommitted for redelivery.
type Handler func(ctx context.Context, env Envelope) error

// messageSource is the slice of kafka.Reader the consumer relies on. Fetch
// must not advance the group offset; only CommitMessages does. Reader's
// ReadMessage is deliberately absent: with a GroupID set it commits at fetch
// time, which would turn delivery into at-most-once.
type messageSource interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	r       messageSource
	workers int
	logger  *zap.Logger
}

func NewConsumer(brokers []string, group string, topics []string, workers int, logger *zap.Logger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        group,
		GroupTopics:    topics,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // synchronous commits
	})
	if workers <= 0 {
		workers = 1
	}
	return &Consumer{r: r, workers: workers, logger: logger}
}

func (c *Consumer) Start(ctx context.Context, h Handler) error {
	defer c.r.Close()

	jobs := make(chan kafka.Message, 256)
	errs := make(chan error, c.workers)

	for i := 0; i < c.workers; i++ {
		go func() {
			for m := range jobs {
				var env Envelope
				if err := json.Unmarshal(m.Value, &env); err != nil {
					// Poison message: log and commit so it doesn't wedge the partition.
					c.logger.Error("drop undecodable job message",
						zap.String("topic", m.Topic),
						zap.Error(err))
					_ = c.r.CommitMessages(ctx, m)
					continue
				}

				if err := h(ctx, env); err != nil {
					// Uncommitted: the group redelivers it.
					errs <- err
					continue
				}
				if err := c.r.CommitMessages(ctx, m); err != nil {
					errs <- err
				}
			}
		}()
	}

	for {
		m, err := c.r.FetchMessage(ctx)
		if err != nil {
			close(jobs)
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}

		select {
		case jobs <- m:
		case <-ctx.Done():
			close(jobs)
			return nil
		}

		// Drain worker errors without blocking the dispatch loop.
		select {
		case err := <-errs:
			c.logger.Error("job handler error", zap.Error(err))
			time.Sleep(200 * time.Millisecond)
		default:
		}
	}
}
