// Package domain defines the business model for activities and the
// recommendations derived from them.
package domain

import "time"

// ActivityKind enumerates the supported session types. The set is open:
// unknown kinds are stored and processed verbatim so new client versions
// do not require a backend release.
type ActivityKind string

const (
	KindRunning ActivityKind = "running"
	KindWalking ActivityKind = "walking"
	KindCycling ActivityKind = "cycling"
)

// Activity is the canonical workout record.
type Activity struct {
	ID          string
	UserID      string
	Kind        ActivityKind
	DurationMin int
	Calories    int
	StartedAt   time.Time
	Metrics     map[string]float64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
