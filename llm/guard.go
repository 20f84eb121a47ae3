package llm

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/omeshsingh/bnsp/metrics"
)

const defaultInitialBackoff = 500 * time.Millisecond

// Guard applies rate limiting, a per-call timeout and bounded retries to model calls
type Guard struct {
	limiter        *rate.Limiter
	timeout        time.Duration
	maxRetries     int
	initialBackoff time.Duration
	logger         *zap.Logger
}

// GuardOption configures a Guard
type GuardOption func(*Guard)

// WithRateLimit caps outbound calls; rps <= 0 leaves calls unlimited
func WithRateLimit(rps float64, burst int) GuardOption {
	return func(g *Guard) {
		if rps <= 0 {
			g.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		if burst < 1 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithCallTimeout bounds each individual attempt
func WithCallTimeout(d time.Duration) GuardOption {
	return func(g *Guard) {
		g.timeout = d
	}
}

// WithMaxRetries sets how many times a transient failure is retried
func WithMaxRetries(n int) GuardOption {
	return func(g *Guard) {
		if n < 0 {
			n = 0
		}
		g.maxRetries = n
	}
}

// WithBackoff sets the delay before the first retry; it doubles afterwards
func WithBackoff(d time.Duration) GuardOption {
	return func(g *Guard) {
		g.initialBackoff = d
	}
}

// WithGuardLogger sets the logger used for retry warnings
func WithGuardLogger(l *zap.Logger) GuardOption {
	return func(g *Guard) {
		g.logger = l
	}
}

// NewGuard creates a Guard. Without options calls are unlimited, untimed and not retried.
func NewGuard(opts ...GuardOption) *Guard {
	g := &Guard{
		limiter:        rate.NewLimiter(rate.Inf, 0),
		initialBackoff: defaultInitialBackoff,
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Do runs fn under the guard's policy
func (g *Guard) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	backoff := g.initialBackoff
	for attempt := 0; ; attempt++ {
		if err := g.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%s: rate limiter: %w", op, err)
		}

		err := g.attempt(ctx, fn)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil || !IsTransient(err) || attempt >= g.maxRetries {
			return err
		}

		metrics.LLMRetriesTotal.WithLabelValues(op).Inc()
		g.logger.Warn("Retrying model call",
			zap.String("op", op),
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", backoff),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return err
		case <-time.After(backoff):
		}
		backoff *= 2
	}
}

func (g *Guard) attempt(ctx context.Context, fn func(ctx context.Context) error) error {
	if g.timeout <= 0 {
		return fn(ctx)
	}
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	return fn(callCtx)
}

// GuardedEmbedder applies a Guard to every call of an Embedder
type GuardedEmbedder struct {
	inner Embedder
	guard *Guard
}

// NewGuardedEmbedder wraps inner
func NewGuardedEmbedder(inner Embedder, guard *Guard) *GuardedEmbedder {
	return &GuardedEmbedder{inner: inner, guard: guard}
}

// EmbedQuery implements Embedder
func (e *GuardedEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	var out []float32
	err := e.guard.Do(ctx, "embed", func(ctx context.Context) error {
		v, err := e.inner.EmbedQuery(ctx, text)
		out = v
		return err
	})
	return out, err
}

// EmbedDocuments implements Embedder
func (e *GuardedEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	var out [][]float32
	err := e.guard.Do(ctx, "embed_batch", func(ctx context.Context) error {
		v, err := e.inner.EmbedDocuments(ctx, texts)
		out = v
		return err
	})
	return out, err
}

// GuardedGenerator applies a Guard to every call of a Generator
type GuardedGenerator struct {
	inner Generator
	guard *Guard
}

// NewGuardedGenerator wraps inner
func NewGuardedGenerator(inner Generator, guard *Guard) *GuardedGenerator {
	return &GuardedGenerator{inner: inner, guard: guard}
}

// Generate implements Generator
func (g *GuardedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	var out string
	err := g.guard.Do(ctx, "generate", func(ctx context.Context) error {
		s, err := g.inner.Generate(ctx, prompt)
		out = s
		return err
	})
	return out, err
}
