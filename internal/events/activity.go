// Package events defines shared cross-service event payloads.
package events

import "time"

// ActivityRecorded is the fact emitted after an activity has been durably
// stored. It is immutable once published; consumers must not assume any
// ordering across activity ids or even within a single user.
type ActivityRecorded struct {
	ActivityID  string             `json:"activity_id"`
	UserID      string             `json:"user_id"`
	Kind        string             `json:"kind"`
	DurationMin int                `json:"duration_min"`
	Calories    int                `json:"calories"`
	StartedAt   time.Time          `json:"started_at"`
	Metrics     map[string]float64 `json:"metrics,omitempty"`
	Version     string             `json:"version"`
}
