package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeReleaser records sweep calls and returns canned answers.
type fakeReleaser struct {
	mu       sync.Mutex
	calls    int
	released int
	err      error
	swept    chan struct{}
}

func newFakeReleaser(released int, err error) *fakeReleaser {
	return &fakeReleaser{
		released: released,
		err:      err,
		swept:    make(chan struct{}, 16),
	}
}

func (f *fakeReleaser) ReleaseStaleClaims(_ context.Context, _ time.Duration) (int, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	select {
	case f.swept <- struct{}{}:
	default:
	}
	return f.released, f.err
}

func (f *fakeReleaser) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestReaper_SweepsAfterInitialDelay(t *testing.T) {
	t.Parallel()

	releaser := newFakeReleaser(2, nil)
	reaper := NewReaper(releaser, ReaperConfig{
		InitialDelay: 10 * time.Millisecond,
		Interval:     10 * time.Millisecond,
		ClaimAge:     time.Minute,
	}, testLogger())

	reaper.Start()
	defer reaper.Stop()

	select {
	case <-releaser.swept:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the first sweep")
	}
}

func TestReaper_SweepErrorIsNotFatal(t *testing.T) {
	t.Parallel()

	releaser := newFakeReleaser(0, errors.New("db gone"))
	reaper := NewReaper(releaser, ReaperConfig{
		InitialDelay: time.Millisecond,
		Interval:     5 * time.Millisecond,
		ClaimAge:     time.Minute,
	}, testLogger())

	reaper.Start()

	// Wait for several sweeps; each fails, the loop keeps going.
	deadline := time.After(2 * time.Second)
	for i := 0; i < 3; i++ {
		select {
		case <-releaser.swept:
		case <-deadline:
			t.Fatal("reaper stopped sweeping after an error")
		}
	}
	reaper.Stop()

	assert.GreaterOrEqual(t, releaser.callCount(), 3)
}

func TestReaper_StopBeforeInitialDelay(t *testing.T) {
	t.Parallel()

	releaser := newFakeReleaser(0, nil)
	reaper := NewReaper(releaser, ReaperConfig{
		InitialDelay: time.Hour,
		Interval:     time.Hour,
		ClaimAge:     time.Minute,
	}, testLogger())

	reaper.Start()
	reaper.Stop()

	assert.Zero(t, releaser.callCount())
}
