package worker

import "github.com/prometheus/client_golang/prometheus"

var (
	processedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "fittrack",
		Subsystem: "worker",
		Name:      "facts_processed_total",
		Help:      "Number of activity facts that produced a stored recommendation.",
	})

	generationFailureCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "fittrack",
		Subsystem: "worker",
		Name:      "generation_failures_total",
		Help:      "Number of generation calls that failed or timed out.",
	})

	parseFallbackCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "fittrack",
		Subsystem: "worker",
		Name:      "parse_fallbacks_total",
		Help:      "Number of model responses that could not be parsed.",
	})

	persistFailureCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "fittrack",
		Subsystem: "worker",
		Name:      "persist_failures_total",
		Help:      "Number of recommendations dropped because persistence failed.",
	})

	decodeErrorCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fittrack",
		Subsystem: "worker",
		Name:      "decode_errors_total",
		Help:      "Number of undecodable messages per topic.",
	}, []string{"topic"})

	handlerErrorCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fittrack",
		Subsystem: "worker",
		Name:      "handler_errors_total",
		Help:      "Number of handler errors per topic.",
	}, []string{"topic"})
)

func init() {
	prometheus.MustRegister(
		processedCounter,
		generationFailureCounter,
		parseFallbackCounter,
		persistFailureCounter,
		decodeErrorCounter,
		handlerErrorCounter,
	)
}

func recordProcessed() {
	processedCounter.Inc()
}

func recordGenerationFailure() {
	generationFailureCounter.Inc()
}

func recordParseFallback() {
	parseFallbackCounter.Inc()
}

func recordPersistFailure() {
	persistFailureCounter.Inc()
}

func recordDecodeError(topic string) {
	decodeErrorCounter.WithLabelValues(topic).Inc()
}

func recordHandlerError(topic string) {
	handlerErrorCounter.WithLabelValues(topic).Inc()
}
