package speech

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tommy200519/cognitive-services-speech-sdk/internal/observe"
)

// lifecycle is the shared teardown state of a recognizer: an atomic closing
// flag read by callback trampolines and asynchronous operations, and the
// once/err pair backing an idempotent Close.
type lifecycle struct {
	closing   atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// runAsync is the single seam every asynchronous recognizer operation goes
// through. It schedules the blocking engine call on its own goroutine,
// records latency and failure metrics, and converts engine errors into
// wrapped operation errors delivered through the returned channel. The
// channel always yields exactly one value (nil on success) and is then
// closed.
func (l *lifecycle) runAsync(ctx context.Context, op string, metrics *observe.Metrics, call func(context.Context) error) <-chan error {
	out := make(chan error, 1)
	if l.closing.Load() {
		out <- fmt.Errorf("speech: %s: %w", op, ErrRecognizerClosed)
		close(out)
		return out
	}
	go func() {
		defer close(out)
		start := time.Now()
		err := call(ctx)
		metrics.RecordOperation(ctx, op, time.Since(start).Seconds(), err != nil)
		if err != nil {
			err = fmt.Errorf("speech: %s: %w", op, err)
		}
		out <- err
	}()
	return out
}
