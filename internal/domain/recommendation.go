package domain

import "time"

// Recommendation is the structured advice produced for a single activity.
// Keyed by activity id; reprocessing replaces the previous value rather
// than mutating it (last write wins).
type Recommendation struct {
	ActivityID   string
	UserID       string
	Kind         ActivityKind
	Analysis     string
	Improvements []string
	Suggestions  []string
	Safety       []string
	CreatedAt    time.Time
}
