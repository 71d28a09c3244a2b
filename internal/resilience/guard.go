// Package resilience wraps failure-prone systems in a circuit breaker with
// exponential cooldown pacing. The scheduler itself never retries a failing
// system; this wrapper is the opt-in layer for systems that talk to flaky
// collaborators and should back off instead of failing every tick.
package resilience

import (
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

// Config tunes a Guard. Zero fields fall back to defaults.
type Config struct {
	ConsecutiveFailures uint32        // failures before the breaker trips (default 5)
	OpenTimeout         time.Duration // how long the breaker stays open (default 30s)
	HalfOpenRequests    uint32        // test attempts allowed half-open (default 3)

	InitialInterval     time.Duration // first cooldown after a failure (default 100ms)
	MaxInterval         time.Duration // cooldown ceiling (default 10s)
	Multiplier          float64       // cooldown growth factor (default 2.0)
	RandomizationFactor float64       // jitter factor (default 0.5)

	Logger zerolog.Logger
}

// DefaultConfig returns the default guard configuration.
func DefaultConfig() Config {
	return Config{
		ConsecutiveFailures: 5,
		OpenTimeout:         30 * time.Second,
		HalfOpenRequests:    3,
		InitialInterval:     100 * time.Millisecond,
		MaxInterval:         10 * time.Second,
		Multiplier:          2.0,
		RandomizationFactor: 0.5,
		Logger:              zerolog.Nop(),
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.ConsecutiveFailures == 0 {
		c.ConsecutiveFailures = def.ConsecutiveFailures
	}
	if c.OpenTimeout == 0 {
		c.OpenTimeout = def.OpenTimeout
	}
	if c.HalfOpenRequests == 0 {
		c.HalfOpenRequests = def.HalfOpenRequests
	}
	if c.InitialInterval == 0 {
		c.InitialInterval = def.InitialInterval
	}
	if c.MaxInterval == 0 {
		c.MaxInterval = def.MaxInterval
	}
	if c.Multiplier == 0 {
		c.Multiplier = def.Multiplier
	}
	if c.RandomizationFactor == 0 {
		c.RandomizationFactor = def.RandomizationFactor
	}
	return c
}

// Guard wraps fn so that a panic is absorbed and counted instead of
// reaching the scheduler's error path. After a failure the system stays
// quiet for an exponentially growing cooldown; after enough consecutive
// failures the breaker opens and the system is skipped until OpenTimeout
// passes. A successful run resets both.
//
// The returned callable registers like any plain system.
func Guard[T any](name string, fn func(T), cfg Config) func(T) {
	cfg = cfg.withDefaults()
	log := cfg.Logger.With().Str("guard", name).Logger()

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.HalfOpenRequests,
		Interval:    0, // never clear counts automatically
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
		},
	})

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = cfg.InitialInterval
	bo.MaxInterval = cfg.MaxInterval
	bo.Multiplier = cfg.Multiplier
	bo.RandomizationFactor = cfg.RandomizationFactor
	bo.MaxElapsedTime = 0 // the cooldown never gives up, only the breaker does
	bo.Reset()

	var notBefore time.Time

	return func(args T) {
		if !notBefore.IsZero() && time.Now().Before(notBefore) {
			return // cooling down after a failure
		}

		_, err := cb.Execute(func() (interface{}, error) {
			return nil, capture(fn, args)
		})
		if err == nil {
			bo.Reset()
			notBefore = time.Time{}
			return
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return
		}

		cooldown := bo.NextBackOff()
		notBefore = time.Now().Add(cooldown)
		log.Warn().Err(err).Dur("cooldown", cooldown).Msg("guarded system failed")
	}
}

// capture converts a panic in fn into an error the breaker can count.
func capture[T any](fn func(T), args T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	fn(args)
	return nil
}
