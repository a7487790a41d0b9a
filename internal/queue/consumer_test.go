package queue

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type fakeSource struct {
	mu        sync.Mutex
	msgs      chan kafka.Message
	committed []string
}

func (f *fakeSource) FetchMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case m := <-f.msgs:
		return m, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (f *fakeSource) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range msgs {
		f.committed = append(f.committed, string(m.Key))
	}
	return nil
}

func (f *fakeSource) Close() error { return nil }

func (f *fakeSource) hasCommitted(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range f.committed {
		if k == key {
			return true
		}
	}
	return false
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func jobMessage(t *testing.T, key, jobID string) kafka.Message {
	t.Helper()
	payload, err := json.Marshal(SettleStockPayload{OrderID: 42})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	value, err := json.Marshal(Envelope{JobID: jobID, Job: JobSettleStock, Payload: payload})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return kafka.Message{Key: []byte(key), Value: value}
}

// A failed handler must leave the offset uncommitted so the group redelivers
// the job; only successful (or undecodable) messages move the offset.
func TestConsumerCommitsOnlyOnSuccess(t *testing.T) {
	src := &fakeSource{msgs: make(chan kafka.Message, 16)}
	c := &Consumer{r: src, workers: 1, logger: zap.NewNop()}

	handled := make(chan string, 16)
	handler := func(ctx context.Context, env Envelope) error {
		handled <- env.JobID
		if env.JobID == "job-fail" {
			return errors.New("transient db error")
		}
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Start(ctx, handler) }()

	// Undecodable message: committed so it cannot wedge the partition.
	src.msgs <- kafka.Message{Key: []byte("poison"), Value: []byte("{broken")}
	waitFor(t, "poison commit", func() bool { return src.hasCommitted("poison") })

	src.msgs <- jobMessage(t, "fail", "job-fail")
	waitFor(t, "failing job handled", func() bool {
		select {
		case id := <-handled:
			return id == "job-fail"
		default:
			return false
		}
	})

	src.msgs <- jobMessage(t, "ok", "job-ok")
	waitFor(t, "successful commit", func() bool { return src.hasCommitted("ok") })

	// The failed job's offset was never committed.
	if src.hasCommitted("fail") {
		t.Error("failed job committed; it can never be redelivered")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start returned %v on shutdown", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop on context cancel")
	}
}
