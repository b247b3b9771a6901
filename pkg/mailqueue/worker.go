package mailqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/mailer"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

// deferredPollInterval caps the pause after popping a not-yet-due envelope so
// other messages behind it are not held up for the whole backoff.
const deferredPollInterval = time.Second

type popper interface {
	PopBlocking(ctx context.Context, key string, timeout time.Duration) ([]byte, error)
}

// WorkerParams wires the mail worker.
type WorkerParams struct {
	Source      popper
	Requeue     *Queue
	Sender      mailer.Sender
	Logger      *logger.Logger
	PollTimeout time.Duration
	MaxAttempts int

	// RetryBackoff and MaxRetryBackoff shape the delay between attempts.
	RetryBackoff    time.Duration
	MaxRetryBackoff time.Duration

	// Clock defaults to time.Now.
	Clock func() time.Time
}

// Worker drains the queue and delivers each message through the Sender.
type Worker struct {
	source      popper
	requeue     *Queue
	sender      mailer.Sender
	logg        *logger.Logger
	pollTimeout time.Duration
	maxAttempts int
	backoff     time.Duration
	maxBackoff  time.Duration
	now         func() time.Time

	// deferred is set when the last pop returned an envelope that was not due.
	deferred time.Duration
}

func NewWorker(p WorkerParams) (*Worker, error) {
	if p.Source == nil {
		return nil, fmt.Errorf("queue source required")
	}
	if p.Requeue == nil {
		return nil, fmt.Errorf("requeue target required")
	}
	if p.Sender == nil {
		return nil, fmt.Errorf("mail sender required")
	}
	if p.Logger == nil {
		p.Logger = logger.Nop()
	}
	if p.PollTimeout <= 0 {
		p.PollTimeout = 5 * time.Second
	}
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.RetryBackoff <= 0 {
		p.RetryBackoff = DefaultRetryBackoff
	}
	if p.MaxRetryBackoff < p.RetryBackoff {
		p.MaxRetryBackoff = DefaultMaxRetryBackoff
		if p.MaxRetryBackoff < p.RetryBackoff {
			p.MaxRetryBackoff = p.RetryBackoff
		}
	}
	if p.Clock == nil {
		p.Clock = time.Now
	}
	return &Worker{
		source:      p.Source,
		requeue:     p.Requeue,
		sender:      p.Sender,
		logg:        p.Logger,
		pollTimeout: p.PollTimeout,
		maxAttempts: p.MaxAttempts,
		backoff:     p.RetryBackoff,
		maxBackoff:  p.MaxRetryBackoff,
		now:         p.Clock,
	}, nil
}

// Run processes messages until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	w.logg.Info(ctx, "mail worker started")
	for {
		if err := ctx.Err(); err != nil {
			w.logg.Info(ctx, "mail worker stopping")
			return nil
		}
		took, err := w.ProcessOne(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			w.logg.Error(ctx, "mail worker iteration failed", err)
			if !w.sleep(ctx, time.Second) {
				return nil
			}
			continue
		}
		if !took && w.deferred > 0 {
			if !w.sleep(ctx, min(w.deferred, deferredPollInterval)) {
				return nil
			}
		}
	}
}

func (w *Worker) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// ProcessOne pops and handles at most one message. It reports whether a
// message was consumed. An envelope still waiting out its retry backoff is
// pushed back untouched and reported as not consumed. Send failures are
// requeued with a growing backoff until the attempt budget runs out and are
// not returned as errors.
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	w.deferred = 0
	payload, err := w.source.PopBlocking(ctx, w.requeue.key, w.pollTimeout)
	if errors.Is(err, redis.ErrQueueEmpty) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("pop mail envelope: %w", err)
	}

	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		w.logg.Error(ctx, "dropping undecodable mail envelope", err)
		return true, nil
	}

	now := w.now()
	if !env.due(now) {
		if err := w.requeue.store.Push(ctx, w.requeue.key, payload); err != nil {
			return false, fmt.Errorf("defer mail envelope: %w", err)
		}
		w.deferred = env.NextAttemptAt.Sub(now)
		return false, nil
	}

	env.Attempts++
	ctx = w.logg.WithFields(ctx, map[string]any{
		"mail_kind": env.Message.Kind,
		"attempt":   env.Attempts,
	})

	if err := w.sender.Send(ctx, env.Message); err != nil {
		if env.Attempts >= w.maxAttempts {
			w.logg.Error(ctx, "giving up on email after max attempts", err)
			return true, nil
		}
		env.NextAttemptAt = now.Add(retryBackoff(env.Attempts, w.backoff, w.maxBackoff)).UTC()
		if rqErr := w.requeue.push(ctx, env); rqErr != nil {
			return true, fmt.Errorf("requeue mail envelope: %w", rqErr)
		}
		w.logg.Warn(ctx, "email send failed; requeued")
		return true, nil
	}
	return true, nil
}
