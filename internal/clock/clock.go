// Package clock provides an injectable wall clock and ticker so timer-driven
// code (session watchdog, OTP countdown, ballot timers) can run on virtual
// time in tests.
package clock

import "time"

// Ticker delivers ticks on C until Stop is called.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Clock supplies the current time and periodic tickers. Whoever starts a
// ticker owns stopping it.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

type realTicker struct {
	t *time.Ticker
}

func (r *realTicker) C() <-chan time.Time { return r.t.C }
func (r *realTicker) Stop()               { r.t.Stop() }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

func (realClock) NewTicker(d time.Duration) Ticker {
	return &realTicker{t: time.NewTicker(d)}
}

// New returns a Clock backed by the system clock. Now is always UTC.
func New() Clock { return realClock{} }
