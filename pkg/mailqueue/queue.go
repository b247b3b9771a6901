package mailqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/mailer"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
)

const (
	// DefaultMaxAttempts bounds redelivery of a message whose send failed.
	DefaultMaxAttempts = 6
	// DefaultRetryBackoff is the wait after the first failed send. It doubles
	// per attempt up to DefaultMaxRetryBackoff.
	DefaultRetryBackoff    = 30 * time.Second
	DefaultMaxRetryBackoff = 10 * time.Minute
)

// Envelope is the JSON document stored on the list.
type Envelope struct {
	Message    mailer.Message `json:"message"`
	Attempts   int            `json:"attempts"`
	EnqueuedAt time.Time      `json:"enqueuedAt"`

	// NextAttemptAt is zero until a send fails. The worker skips the
	// envelope until this time has passed.
	NextAttemptAt time.Time `json:"nextAttemptAt"`
}

// due reports whether env may be sent at now.
func (e Envelope) due(now time.Time) bool {
	return e.NextAttemptAt.IsZero() || !now.Before(e.NextAttemptAt)
}

// retryBackoff returns the wait after the given failed attempt.
func retryBackoff(attempt int, base, max time.Duration) time.Duration {
	wait := base
	for i := 1; i < attempt; i++ {
		wait *= 2
		if wait >= max {
			return max
		}
	}
	if wait > max {
		return max
	}
	return wait
}

type pusher interface {
	Push(ctx context.Context, key string, payload []byte) error
}

// Queue hands messages to the background mail worker.
type Queue struct {
	store   pusher
	key     string
	metrics *metrics.MailMetrics
	now     func() time.Time
}

func NewQueue(store pusher, key string, m *metrics.MailMetrics) (*Queue, error) {
	if store == nil {
		return nil, fmt.Errorf("queue store required")
	}
	if key == "" {
		return nil, fmt.Errorf("queue key required")
	}
	return &Queue{store: store, key: key, metrics: m, now: time.Now}, nil
}

// Enqueue validates msg and pushes it for asynchronous delivery.
func (q *Queue) Enqueue(ctx context.Context, msg mailer.Message) error {
	if err := msg.Validate(); err != nil {
		return fmt.Errorf("invalid message: %w", err)
	}
	return q.push(ctx, Envelope{Message: msg, EnqueuedAt: q.now().UTC()})
}

func (q *Queue) push(ctx context.Context, env Envelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	if err := q.store.Push(ctx, q.key, payload); err != nil {
		return fmt.Errorf("push mail envelope: %w", err)
	}
	q.metrics.IncEnqueued(env.Message.Kind)
	return nil
}
