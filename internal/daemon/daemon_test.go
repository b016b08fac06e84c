package daemon

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"reelforge/internal/logging"
	"reelforge/internal/queue"
	"reelforge/internal/services"
	"reelforge/internal/testsupport"
)

type fakeProcessor struct {
	jobIDs      []int64
	hadDeadline bool
	err         error
	delay       time.Duration
}

func (p *fakeProcessor) Process(ctx context.Context, jobID int64) error {
	p.jobIDs = append(p.jobIDs, jobID)
	_, p.hadDeadline = ctx.Deadline()
	if p.delay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.delay):
		}
	}
	return p.err
}

type scriptedConsumer struct {
	envelopes []queue.Envelope
	handled   []error
}

func (c *scriptedConsumer) Consume(ctx context.Context, maxAttempts int, handler queue.Handler) error {
	for _, env := range c.envelopes {
		c.handled = append(c.handled, handler(ctx, env))
	}
	return context.Canceled
}

func TestRunProcessesEnvelopesWithDeadline(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	processor := &fakeProcessor{}
	consumer := &scriptedConsumer{envelopes: []queue.Envelope{{JobID: 7, Topic: "t"}}}

	d, err := New(cfg, processor, consumer, nil, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := d.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(processor.jobIDs) != 1 || processor.jobIDs[0] != 7 {
		t.Fatalf("unexpected processed jobs: %v", processor.jobIDs)
	}
	if !processor.hadDeadline {
		t.Fatal("expected a per-job deadline on the context")
	}
	if consumer.handled[0] != nil {
		t.Fatalf("unexpected handler error: %v", consumer.handled[0])
	}
	if d.Running() {
		t.Fatal("daemon should not report running after Run returns")
	}
}

func TestHandleEnvelopeWrapsTimeoutAsTransient(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.JobTimeoutSeconds = 1
	processor := &fakeProcessor{delay: 2 * time.Second}
	consumer := &scriptedConsumer{envelopes: []queue.Envelope{{JobID: 1, Topic: "t"}}}

	d, err := New(cfg, processor, consumer, nil, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := d.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	handled := consumer.handled[0]
	if handled == nil {
		t.Fatal("expected handler error for timed out job")
	}
	if !services.IsRetriable(handled) {
		t.Fatalf("timeout should be retriable: %v", handled)
	}
	if !strings.Contains(handled.Error(), "timed out") {
		t.Fatalf("unexpected error: %v", handled)
	}
}

func TestRunRefusesSecondInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	processor := &fakeProcessor{}

	var firstStarted atomic.Bool
	blockingConsumer := consumerFunc(func(ctx context.Context, maxAttempts int, handler queue.Handler) error {
		firstStarted.Store(true)
		<-ctx.Done()
		return ctx.Err()
	})

	first, err := New(cfg, processor, blockingConsumer, nil, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- first.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for !firstStarted.Load() {
		if time.Now().After(deadline) {
			t.Fatal("first daemon never started consuming")
		}
		time.Sleep(10 * time.Millisecond)
	}

	second, err := New(cfg, processor, &scriptedConsumer{}, nil, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := second.Run(context.Background()); err == nil {
		t.Fatal("expected second instance to fail on the lock")
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("first Run: %v", err)
	}
}

func TestNewValidatesDependencies(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if _, err := New(cfg, nil, &scriptedConsumer{}, nil, logging.NewNop()); err == nil {
		t.Fatal("expected error for nil processor")
	}
	if _, err := New(nil, &fakeProcessor{}, &scriptedConsumer{}, nil, logging.NewNop()); err == nil {
		t.Fatal("expected error for nil config")
	}
}

type consumerFunc func(ctx context.Context, maxAttempts int, handler queue.Handler) error

func (f consumerFunc) Consume(ctx context.Context, maxAttempts int, handler queue.Handler) error {
	return f(ctx, maxAttempts, handler)
}
