package resilience

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned without touching the network while the
// breaker is open. It is retryable: the circuit may close between
// attempts.
var ErrCircuitOpen = errors.New("circuit breaker is open")

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// BreakerConfig controls when the circuit trips and recovers.
type BreakerConfig struct {
	// FailureThreshold is the failure ratio that opens the circuit,
	// evaluated only once MinThroughput samples sit in the window.
	FailureThreshold float64       `mapstructure:"failure_threshold"`
	MinThroughput    int           `mapstructure:"min_throughput"`
	SamplingWindow   time.Duration `mapstructure:"sampling_window"`
	BreakDuration    time.Duration `mapstructure:"break_duration"`
}

func (c *BreakerConfig) normalize() {
	if c.FailureThreshold <= 0 || c.FailureThreshold > 1 {
		c.FailureThreshold = 0.5
	}
	if c.MinThroughput <= 0 {
		c.MinThroughput = 10
	}
	if c.SamplingWindow <= 0 {
		c.SamplingWindow = 30 * time.Second
	}
	if c.BreakDuration <= 0 {
		c.BreakDuration = 30 * time.Second
	}
}

type sample struct {
	at      time.Time
	failure bool
}

// Breaker is a rolling-window circuit breaker. Closed admits all
// calls; Open rejects everything until the break elapses; HalfOpen
// admits exactly one trial call whose outcome decides the next state.
type Breaker struct {
	cfg      BreakerConfig
	listener Listener

	mu            sync.Mutex
	state         State
	samples       []sample
	openedAt      time.Time
	trialInFlight bool

	now func() time.Time
}

func NewBreaker(cfg BreakerConfig, listener Listener) *Breaker {
	cfg.normalize()
	if listener == nil {
		listener = NopListener{}
	}
	return &Breaker{
		cfg:      cfg,
		listener: listener,
		state:    StateClosed,
		now:      time.Now,
	}
}

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) Execute(ctx context.Context, op Operation) error {
	if err := b.allow(); err != nil {
		return err
	}
	err := op(ctx)
	b.record(Classify(err) == RetryableFailure)
	return err
}

func (b *Breaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return nil
	case StateOpen:
		if b.now().Sub(b.openedAt) < b.cfg.BreakDuration {
			return ErrCircuitOpen
		}
		b.transition(StateHalfOpen)
		b.trialInFlight = true
		return nil
	case StateHalfOpen:
		if b.trialInFlight {
			return ErrCircuitOpen
		}
		b.trialInFlight = true
		return nil
	}
	return nil
}

// record feeds an outcome back into the window. Permanent failures
// count as successes here: the relay answered, it is not down.
func (b *Breaker) record(failure bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()

	if b.state == StateHalfOpen {
		b.trialInFlight = false
		if failure {
			b.openedAt = now
			b.transition(StateOpen)
		} else {
			b.samples = b.samples[:0]
			b.transition(StateClosed)
		}
		return
	}

	if b.state != StateClosed {
		return
	}

	b.samples = append(b.samples, sample{at: now, failure: failure})
	b.prune(now)

	total := len(b.samples)
	if total < b.cfg.MinThroughput {
		return
	}
	failures := 0
	for _, s := range b.samples {
		if s.failure {
			failures++
		}
	}
	if float64(failures)/float64(total) >= b.cfg.FailureThreshold {
		b.openedAt = now
		b.transition(StateOpen)
	}
}

func (b *Breaker) prune(now time.Time) {
	cutoff := now.Add(-b.cfg.SamplingWindow)
	i := 0
	for i < len(b.samples) && b.samples[i].at.Before(cutoff) {
		i++
	}
	if i > 0 {
		b.samples = append(b.samples[:0], b.samples[i:]...)
	}
}

// transition must be called with the lock held.
func (b *Breaker) transition(to State) {
	from := b.state
	b.state = to
	b.listener.OnStateChange(from, to)
}
