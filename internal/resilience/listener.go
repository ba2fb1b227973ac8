package resilience

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/alecbaum/wagl-backend-sub002/pkg/log"
)

// Listener observes pipeline events. The default implementation logs
// them; tests plug in their own to assert on transitions.
type Listener interface {
	OnRetry(attempt int, delay time.Duration, err error)
	OnStateChange(from, to State)
}

type NopListener struct{}

func (NopListener) OnRetry(int, time.Duration, error) {}
func (NopListener) OnStateChange(State, State)        {}

// LogListener emits pipeline events through zerolog.
type LogListener struct {
	Logger zerolog.Logger
	Name   string
}

func NewLogListener(logger zerolog.Logger, name string) *LogListener {
	return &LogListener{Logger: logger, Name: name}
}

func (l *LogListener) OnRetry(attempt int, delay time.Duration, err error) {
	l.Logger.Warn().
		Str(log.FieldCircuit, l.Name).
		Int(log.FieldAttempt, attempt).
		Dur("delay", delay).
		Err(err).
		Msg("retrying relay call")
}

func (l *LogListener) OnStateChange(from, to State) {
	evt := l.Logger.Warn()
	if to == StateClosed {
		evt = l.Logger.Info()
	}
	evt.
		Str(log.FieldCircuit, l.Name).
		Str("from", from.String()).
		Str("to", to.String()).
		Msg("circuit breaker state change")
}
