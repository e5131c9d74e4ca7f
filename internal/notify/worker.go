// README: Queue consumer delivering events to the push channel with retries.
package notify

import (
	"context"
	"time"

	"chauffeur/internal/logging"
)

// Sink is the external push channel (WebSocket fan-out, Telegram, ...). The
// core only guarantees at-least-once delivery attempts with backoff.
type Sink interface {
	Deliver(ctx context.Context, e Event) error
}

type Worker struct {
	queue       *Queue
	sink        Sink
	log         logging.Logger
	maxAttempts int
	baseBackoff time.Duration
}

func NewWorker(queue *Queue, sink Sink, log logging.Logger, maxAttempts int) *Worker {
	if maxAttempts < 1 {
		maxAttempts = 3
	}
	return &Worker{
		queue:       queue,
		sink:        sink,
		log:         log,
		maxAttempts: maxAttempts,
		baseBackoff: time.Second,
	}
}

func (w *Worker) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		e, ok, err := w.queue.Dequeue(ctx, 5*time.Second)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.log.Error("notification dequeue failed", logging.Error(err))
			time.Sleep(w.baseBackoff)
			continue
		}
		if !ok {
			continue
		}
		w.deliver(ctx, e)
	}
}

// deliver retries with exponential backoff. A message that exhausts its
// attempts is logged and dropped, never re-queued ahead of newer events.
func (w *Worker) deliver(ctx context.Context, e Event) {
	backoff := w.baseBackoff
	for attempt := 1; attempt <= w.maxAttempts; attempt++ {
		err := w.sink.Deliver(ctx, e)
		if err == nil {
			return
		}
		w.log.Warn("notification delivery failed",
			logging.String("order_id", e.Payload.OrderID),
			logging.Int("attempt", attempt),
			logging.Error(err))
		if attempt == w.maxAttempts || ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	w.log.Error("notification dropped after retries",
		logging.String("order_id", e.Payload.OrderID),
		logging.String("status", e.Payload.Status))
}

// LogSink is the default sink when no push channel is wired: it just logs the
// event.
type LogSink struct {
	Log logging.Logger
}

func (s LogSink) Deliver(_ context.Context, e Event) error {
	s.Log.Info("notification",
		logging.String("type", string(e.Type)),
		logging.String("order_id", e.Payload.OrderID),
		logging.String("status", e.Payload.Status))
	return nil
}
