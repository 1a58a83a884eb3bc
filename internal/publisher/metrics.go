package publisher

import "github.com/prometheus/client_golang/prometheus"

var (
	publishedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "fittrack",
		Subsystem: "publisher",
		Name:      "facts_published_total",
		Help:      "Number of activity facts successfully published.",
	})

	publishFailureCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "fittrack",
		Subsystem: "publisher",
		Name:      "publish_failures_total",
		Help:      "Number of activity fact publish attempts that failed.",
	})
)

func init() {
	prometheus.MustRegister(publishedCounter, publishFailureCounter)
}

func recordPublished() {
	publishedCounter.Inc()
}

func recordPublishFailure() {
	publishFailureCounter.Inc()
}
