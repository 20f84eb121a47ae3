package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGenerator struct {
	errs  []error
	calls int
}

func (s *stubGenerator) Generate(ctx context.Context, _ string) (string, error) {
	s.calls++
	if len(s.errs) >= s.calls {
		if err := s.errs[s.calls-1]; err != nil {
			return "", err
		}
	}
	return "ok", nil
}

func fastGuard(opts ...GuardOption) *Guard {
	return NewGuard(append([]GuardOption{WithBackoff(time.Millisecond)}, opts...)...)
}

func TestGuard_RetriesTransientOnce(t *testing.T) {
	inner := &stubGenerator{errs: []error{markTransient(errors.New("503"))}}
	g := NewGuardedGenerator(inner, fastGuard(WithMaxRetries(1)))

	out, err := g.Generate(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, 2, inner.calls)
}

func TestGuard_GivesUpAfterMaxRetries(t *testing.T) {
	transient := markTransient(errors.New("429"))
	inner := &stubGenerator{errs: []error{transient, transient, transient}}
	g := NewGuardedGenerator(inner, fastGuard(WithMaxRetries(1)))

	_, err := g.Generate(context.Background(), "p")
	assert.ErrorIs(t, err, ErrTransient)
	assert.Equal(t, 2, inner.calls)
}

func TestGuard_DoesNotRetryPermanentErrors(t *testing.T) {
	inner := &stubGenerator{errs: []error{errors.New("invalid api key")}}
	g := NewGuardedGenerator(inner, fastGuard(WithMaxRetries(3)))

	_, err := g.Generate(context.Background(), "p")
	assert.EqualError(t, err, "invalid api key")
	assert.Equal(t, 1, inner.calls)
}

func TestGuard_NoRetriesByDefault(t *testing.T) {
	inner := &stubGenerator{errs: []error{markTransient(errors.New("503"))}}
	g := NewGuardedGenerator(inner, NewGuard())

	_, err := g.Generate(context.Background(), "p")
	assert.Error(t, err)
	assert.Equal(t, 1, inner.calls)
}

func TestGuard_CallTimeout(t *testing.T) {
	g := fastGuard(WithCallTimeout(10 * time.Millisecond))

	err := g.Do(context.Background(), "generate", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGuard_StopsWhenParentCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := fastGuard(WithMaxRetries(5)).Do(ctx, "embed", func(context.Context) error {
		calls++
		cancel()
		return markTransient(errors.New("503"))
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestGuard_RateLimitRespectsContext(t *testing.T) {
	g := NewGuard(WithRateLimit(0.001, 1))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	require.NoError(t, g.Do(ctx, "embed", func(context.Context) error { return nil }))
	err := g.Do(ctx, "embed", func(context.Context) error { return nil })
	assert.ErrorContains(t, err, "rate limiter")
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(markTransient(errors.New("x"))))
	assert.True(t, IsTransient(context.DeadlineExceeded))
	assert.False(t, IsTransient(errors.New("x")))
	assert.False(t, IsTransient(context.Canceled))
}
