// Package backoff spaces out reconnection attempts with jittered exponential delays.
package backoff

import (
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"go.uber.org/zap"
)

// JitterRatio is the symmetric jitter applied to every delay.
const JitterRatio = 0.25

// Config tunes the delay curve. All values must be positive.
type Config struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Factor       float64
}

// DefaultConfig returns 1s initial delay, 30s ceiling, doubling each attempt.
func DefaultConfig() Config {
	return Config{InitialDelay: time.Second, MaxDelay: 30 * time.Second, Factor: 2}
}

// Scheduler invokes callbacks after increasing delays.
type Scheduler struct {
	cfg    Config
	logger *zap.Logger

	mu      sync.Mutex
	attempt int
	timer   *time.Timer
	stopped bool

	// jitter returns a value in [-1, 1).
	jitter func() float64
}

// New builds a scheduler. Non-positive config values fall back to the defaults.
func New(cfg Config, logger *zap.Logger) *Scheduler {
	def := DefaultConfig()
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = def.InitialDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = def.MaxDelay
	}
	if cfg.Factor <= 0 {
		cfg.Factor = def.Factor
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cfg:    cfg,
		logger: logger,
		jitter: func() float64 { return rand.Float64()*2 - 1 },
	}
}

// BaseDelay returns min(initial * factor^attempt, max) before jitter.
func (s *Scheduler) BaseDelay(attempt int) time.Duration {
	raw := float64(s.cfg.InitialDelay) * math.Pow(s.cfg.Factor, float64(attempt))
	if math.IsInf(raw, 0) || math.IsNaN(raw) || raw > float64(s.cfg.MaxDelay) {
		return s.cfg.MaxDelay
	}
	return time.Duration(raw)
}

func (s *Scheduler) nextDelay() time.Duration {
	base := float64(s.BaseDelay(s.attempt))
	return time.Duration(math.Round(base + base*JitterRatio*s.jitter()))
}

// ScheduleRetry arranges for fn to run after the next jittered delay and
// returns that delay. It never blocks; fn runs on its own goroutine.
func (s *Scheduler) ScheduleRetry(fn func()) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	delay := s.nextDelay()
	s.attempt++
	s.logger.Info("scheduling retry with backoff",
		zap.Int("attempt", s.attempt),
		zap.Int64("delay_ms", delay.Milliseconds()))

	if s.stopped {
		return delay
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(delay, fn)
	return delay
}

// Reset zeroes the attempt counter so the next failure starts from the initial delay.
func (s *Scheduler) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempt = 0
}

// Attempt returns the number of retries scheduled since the last reset.
func (s *Scheduler) Attempt() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempt
}

// Stop cancels any pending callback and ignores future schedules.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
