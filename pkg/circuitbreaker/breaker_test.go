package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBackend = errors.New("backend down")

func newTestBreaker(timeout time.Duration) *Breaker {
	return New("test", Config{
		MaxRequests:      1,
		Timeout:          timeout,
		FailureThreshold: 3,
		SuccessThreshold: 2,
	})
}

func trip(t *testing.T, b *Breaker) {
	t.Helper()
	for i := 0; i < 3; i++ {
		err := b.Execute(context.Background(), func() error { return errBackend })
		require.ErrorIs(t, err, errBackend)
	}
}

func TestBreakerStaysClosedOnSuccess(t *testing.T) {
	b := newTestBreaker(time.Minute)

	for i := 0; i < 10; i++ {
		require.NoError(t, b.Execute(context.Background(), func() error { return nil }))
	}
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerOpensAfterThreshold(t *testing.T) {
	b := newTestBreaker(time.Minute)
	trip(t, b)

	assert.Equal(t, StateOpen, b.State())

	called := false
	err := b.Execute(context.Background(), func() error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called, "open breaker must shed the call")
}

func TestBreakerRecoversThroughHalfOpen(t *testing.T) {
	b := newTestBreaker(10 * time.Millisecond)
	trip(t, b)

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, StateHalfOpen, b.State())

	require.NoError(t, b.Execute(context.Background(), func() error { return nil }))
	require.NoError(t, b.Execute(context.Background(), func() error { return nil }))

	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerReopensOnHalfOpenFailure(t *testing.T) {
	b := newTestBreaker(10 * time.Millisecond)
	trip(t, b)

	time.Sleep(20 * time.Millisecond)
	err := b.Execute(context.Background(), func() error { return errBackend })
	require.ErrorIs(t, err, errBackend)

	assert.Equal(t, StateOpen, b.State())
}

func TestBreakerLimitsHalfOpenProbes(t *testing.T) {
	b := newTestBreaker(10 * time.Millisecond)
	trip(t, b)

	time.Sleep(20 * time.Millisecond)

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error)
	go func() {
		done <- b.Execute(context.Background(), func() error {
			close(started)
			<-release
			return nil
		})
	}()

	// One probe is in flight; a second must be rejected.
	<-started
	err := b.Execute(context.Background(), func() error { return nil })
	assert.ErrorIs(t, err, ErrTooManyRequests)

	close(release)
	require.NoError(t, <-done)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
	assert.Equal(t, "open", StateOpen.String())
}
