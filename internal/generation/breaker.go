package generation

import (
	"context"
	"log"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
)

// BreakerConfig tunes the circuit breaker around the generation call.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failures that opens
	// the circuit.
	FailureThreshold uint32
	// Cooldown is how long the circuit stays open before a probe call is
	// allowed through.
	Cooldown time.Duration
}

// WithBreaker wraps a Generator with a circuit breaker so a flapping model
// endpoint fails fast instead of holding every worker delivery for the full
// call timeout. An open circuit surfaces as an ordinary generation error,
// which the worker already answers with fallback content.
func WithBreaker(inner Generator, cfg BreakerConfig, logger *log.Logger) Generator {
	if logger == nil {
		logger = log.New(log.Writer(), "[generation] ", log.LstdFlags)
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.Cooldown == 0 {
		cfg.Cooldown = time.Minute
	}

	cb := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:    "generation",
		Timeout: cfg.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Printf("circuit %s: %s -> %s", name, from, to)
		},
	})

	return Func(func(ctx context.Context, prompt string) (string, error) {
		return cb.Execute(func() (string, error) {
			return inner.Generate(ctx, prompt)
		})
	})
}
