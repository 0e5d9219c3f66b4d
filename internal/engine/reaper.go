package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// StaleClaimReleaser releases claims whose worker died before finalizing.
// The durable queue implements it; released tasks reappear in the pending
// set for any worker to claim again.
type StaleClaimReleaser interface {
	// ReleaseStaleClaims returns tasks claimed longer ago than olderThan
	// to the pending set and reports how many were released.
	ReleaseStaleClaims(ctx context.Context, olderThan time.Duration) (int, error)
}

// ReaperConfig holds configuration for the claim reaper.
type ReaperConfig struct {
	// InitialDelay is how long after Start the first sweep runs.
	InitialDelay time.Duration

	// Interval is the delay between sweeps.
	Interval time.Duration

	// ClaimAge is how old a claim must be before a sweep releases it.
	// It should comfortably exceed the longest expected task runtime.
	ClaimAge time.Duration
}

// DefaultReaperConfig returns a ReaperConfig with reasonable defaults.
func DefaultReaperConfig() ReaperConfig {
	return ReaperConfig{
		InitialDelay: time.Minute,
		Interval:     5 * time.Minute,
		ClaimAge:     30 * time.Minute,
	}
}

// Reaper periodically releases stale claims so tasks orphaned by a crashed
// worker are not stuck forever.
type Reaper struct {
	releaser StaleClaimReleaser
	cfg      ReaperConfig

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger *slog.Logger

	startOnce sync.Once
	stopOnce  sync.Once
}

// NewReaper creates a reaper sweeping the given releaser.
func NewReaper(releaser StaleClaimReleaser, cfg ReaperConfig, log *slog.Logger) *Reaper {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultReaperConfig().Interval
	}
	if cfg.ClaimAge <= 0 {
		cfg.ClaimAge = DefaultReaperConfig().ClaimAge
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Reaper{
		releaser: releaser,
		cfg:      cfg,
		ctx:      ctx,
		cancel:   cancel,
		logger:   log.With("component", "claim_reaper"),
	}
}

// Start launches the sweep loop.
func (r *Reaper) Start() {
	r.startOnce.Do(func() {
		r.logger.Info("starting claim reaper",
			"initial_delay", r.cfg.InitialDelay,
			"interval", r.cfg.Interval,
			"claim_age", r.cfg.ClaimAge)

		r.wg.Add(1)
		go r.loop()
	})
}

// Stop halts the sweep loop and waits for an in-flight sweep to finish.
func (r *Reaper) Stop() {
	r.stopOnce.Do(func() {
		r.cancel()
		r.wg.Wait()
	})
}

func (r *Reaper) loop() {
	defer r.wg.Done()

	initial := time.NewTimer(r.cfg.InitialDelay)
	defer initial.Stop()

	select {
	case <-r.ctx.Done():
		return
	case <-initial.C:
		r.sweep()
	}

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.sweep()
		}
	}
}

// sweep runs one release pass. Failures are logged and never fatal; the next
// tick retries.
func (r *Reaper) sweep() {
	ctx := context.Background()

	released, err := r.releaser.ReleaseStaleClaims(ctx, r.cfg.ClaimAge)
	if err != nil {
		r.logger.Error("failed to release stale claims", "error", err)
		return
	}

	if released > 0 {
		r.logger.Info("released stale claims", "count", released)
	}
}
