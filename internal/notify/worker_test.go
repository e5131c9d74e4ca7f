// README: Delivery retry tests with a scripted sink.
package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"chauffeur/internal/logging"
)

type scriptedSink struct {
	failures int
	calls    int
}

func (s *scriptedSink) Deliver(_ context.Context, _ Event) error {
	s.calls++
	if s.calls <= s.failures {
		return errors.New("push channel down")
	}
	return nil
}

func newTestWorker(sink Sink, maxAttempts int) *Worker {
	w := NewWorker(nil, sink, logging.Nop(), maxAttempts)
	w.baseBackoff = time.Millisecond
	return w
}

func TestDeliverFirstTry(t *testing.T) {
	sink := &scriptedSink{}
	w := newTestWorker(sink, 3)
	w.deliver(context.Background(), Event{Type: EventOrderStatus})
	if sink.calls != 1 {
		t.Fatalf("expected 1 delivery attempt, got %d", sink.calls)
	}
}

func TestDeliverRetriesThenSucceeds(t *testing.T) {
	sink := &scriptedSink{failures: 2}
	w := newTestWorker(sink, 3)
	w.deliver(context.Background(), Event{Type: EventOrderStatus})
	if sink.calls != 3 {
		t.Fatalf("expected 3 delivery attempts, got %d", sink.calls)
	}
}

func TestDeliverDropsAfterMaxAttempts(t *testing.T) {
	sink := &scriptedSink{failures: 10}
	w := newTestWorker(sink, 3)
	w.deliver(context.Background(), Event{Type: EventOrderStatus})
	if sink.calls != 3 {
		t.Fatalf("expected delivery to stop at 3 attempts, got %d", sink.calls)
	}
}

func TestDeliverStopsOnCancelledContext(t *testing.T) {
	sink := &scriptedSink{failures: 10}
	w := newTestWorker(sink, 5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w.deliver(ctx, Event{Type: EventOrderStatus})
	if sink.calls != 1 {
		t.Fatalf("expected 1 attempt under cancelled context, got %d", sink.calls)
	}
}
