package identity

import "github.com/prometheus/client_golang/prometheus"

const (
	outcomeNoToken     = "no_token"
	outcomeMalformed   = "malformed"
	outcomeExisting    = "existing"
	outcomeRegistered  = "registered"
	outcomeUnavailable = "unavailable"
)

var (
	reconciliationCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fittrack",
		Subsystem: "identity",
		Name:      "reconciliations_total",
		Help:      "Number of identity reconciliations grouped by outcome.",
	}, []string{"outcome"})

	registrationAttempts = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "fittrack",
		Subsystem: "identity",
		Name:      "registration_attempts_total",
		Help:      "Number of user registration attempts issued by the filter.",
	})

	registrationFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "fittrack",
		Subsystem: "identity",
		Name:      "registration_failures_total",
		Help:      "Number of user registration attempts that failed.",
	})
)

func init() {
	prometheus.MustRegister(reconciliationCounter, registrationAttempts, registrationFailures)
}

func recordReconciliation(outcome string) {
	reconciliationCounter.WithLabelValues(outcome).Inc()
}

func recordRegistrationAttempt() {
	registrationAttempts.Inc()
}

func recordRegistrationFailure() {
	registrationFailures.Inc()
}
