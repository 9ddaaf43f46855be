package resilience

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

// fakeClock lets tests move the breaker through its timeouts
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestBreaker(settings Settings) (*Breaker, *fakeClock) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	b := New("test", settings)
	b.now = clock.Now
	b.newGeneration(clock.Now())
	return b, clock
}

func call(b *Breaker, err error) error {
	return b.Do(context.Background(), func(context.Context) error { return err })
}

func TestBreakerStateTransitions(t *testing.T) {
	tests := []struct {
		name          string
		settings      Settings
		requests      []error
		expectedState State
	}{
		{
			name:          "stays closed on successes",
			requests:      []error{nil, nil, nil},
			expectedState: StateClosed,
		},
		{
			name: "opens after consecutive failures",
			settings: Settings{
				ReadyToTrip: func(counts Counts) bool { return counts.ConsecutiveFailures >= 3 },
			},
			requests:      []error{errBoom, errBoom, errBoom},
			expectedState: StateOpen,
		},
		{
			name: "success resets the streak",
			settings: Settings{
				ReadyToTrip: func(counts Counts) bool { return counts.ConsecutiveFailures >= 2 },
			},
			requests:      []error{errBoom, nil, errBoom},
			expectedState: StateClosed,
		},
		{
			name: "cancelled calls do not trip",
			settings: Settings{
				ReadyToTrip: func(counts Counts) bool { return counts.ConsecutiveFailures >= 1 },
			},
			requests:      []error{context.Canceled, context.Canceled},
			expectedState: StateClosed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, _ := newTestBreaker(tt.settings)
			for _, err := range tt.requests {
				_ = call(b, err)
			}
			assert.Equal(t, tt.expectedState, b.State())
		})
	}
}

func TestBreakerRejectsWhileOpen(t *testing.T) {
	b, _ := newTestBreaker(Settings{
		ReadyToTrip: func(counts Counts) bool { return counts.ConsecutiveFailures >= 1 },
	})

	require.ErrorIs(t, call(b, errBoom), errBoom)

	ran := false
	err := b.Do(context.Background(), func(context.Context) error {
		ran = true
		return nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, ran)
}

func TestBreakerHalfOpenRecovery(t *testing.T) {
	var transitions []string
	b, clock := newTestBreaker(Settings{
		Timeout:     time.Second,
		MaxRequests: 2,
		ReadyToTrip: func(counts Counts) bool { return counts.ConsecutiveFailures >= 1 },
		OnStateChange: func(name string, from, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})

	_ = call(b, errBoom)
	assert.Equal(t, StateOpen, b.State())

	clock.Advance(2 * time.Second)
	assert.Equal(t, StateHalfOpen, b.State())

	require.NoError(t, call(b, nil))
	assert.Equal(t, StateHalfOpen, b.State())
	require.NoError(t, call(b, nil))
	assert.Equal(t, StateClosed, b.State())

	assert.Equal(t, []string{"closed->open", "open->half-open", "half-open->closed"}, transitions)
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	b, clock := newTestBreaker(Settings{
		Timeout:     time.Second,
		ReadyToTrip: func(counts Counts) bool { return counts.ConsecutiveFailures >= 1 },
	})

	_ = call(b, errBoom)
	clock.Advance(2 * time.Second)
	_ = call(b, errBoom)
	assert.Equal(t, StateOpen, b.State())
}

func TestBreakerHalfOpenLimitsTrials(t *testing.T) {
	b, clock := newTestBreaker(Settings{
		Timeout:     time.Second,
		MaxRequests: 1,
		ReadyToTrip: func(counts Counts) bool { return counts.ConsecutiveFailures >= 1 },
	})

	_ = call(b, errBoom)
	clock.Advance(2 * time.Second)

	release := make(chan struct{})
	started := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- b.Do(context.Background(), func(context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	assert.ErrorIs(t, call(b, nil), ErrTooManyRequests)
	close(release)
	assert.NoError(t, <-done)
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerIntervalClearsCounts(t *testing.T) {
	b, clock := newTestBreaker(Settings{
		Interval:    time.Minute,
		ReadyToTrip: func(counts Counts) bool { return counts.ConsecutiveFailures >= 3 },
	})

	_ = call(b, errBoom)
	_ = call(b, errBoom)
	assert.Equal(t, uint32(2), b.Counts().ConsecutiveFailures)

	clock.Advance(2 * time.Minute)
	_ = call(b, errBoom)
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, uint32(1), b.Counts().ConsecutiveFailures)
}

func TestBreakerCustomClassifier(t *testing.T) {
	errBadInput := errors.New("bad input")
	b, _ := newTestBreaker(Settings{
		ReadyToTrip:  func(counts Counts) bool { return counts.ConsecutiveFailures >= 1 },
		IsSuccessful: func(err error) bool { return err == nil || errors.Is(err, errBadInput) },
	})

	assert.ErrorIs(t, call(b, errBadInput), errBadInput)
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, uint32(1), b.Counts().TotalSuccesses)
}

func TestBreakerPanicCountsAsFailure(t *testing.T) {
	b, _ := newTestBreaker(Settings{
		ReadyToTrip: func(counts Counts) bool { return counts.ConsecutiveFailures >= 1 },
	})

	assert.Panics(t, func() {
		_ = b.Do(context.Background(), func(context.Context) error { panic("boom") })
	})
	assert.Equal(t, StateOpen, b.State())
}

func TestBreakerConcurrent(t *testing.T) {
	b := New("concurrent", Settings{})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = call(b, nil)
		}()
	}
	wg.Wait()

	assert.Equal(t, uint32(50), b.Counts().TotalSuccesses)
	assert.Equal(t, "concurrent", b.Name())
}
