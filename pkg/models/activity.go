package models

import "time"

// ActivityInterval is a single timed work session logged against a
// client. DurationSeconds is authoritative even when it disagrees with
// EndedAt-StartedAt, to tolerate clock skew in upstream loggers.
type ActivityInterval struct {
	ID              string    `json:"id"`
	StartedAt       time.Time `json:"started_at"`
	EndedAt         time.Time `json:"ended_at"`
	DurationSeconds int64     `json:"duration_seconds"`
	ClientID        string    `json:"client_id"` // empty means unassigned
	GroupID         string    `json:"group_id,omitempty"`
	Hidden          bool      `json:"is_hidden"`
}

// GroupActivity is a lightweight member entry of an ActivityGroup.
type GroupActivity struct {
	StartedAt       time.Time `json:"started_at"`
	EndedAt         time.Time `json:"ended_at"`
	DurationSeconds int64     `json:"duration_seconds"`
}

// ActivityGroup owns an ordered set of member activities. Visibility is
// decided at the group level: member activity counts toward totals even
// when the underlying interval is hidden, while the interval itself must
// be excluded from ungrouped totals to avoid double counting.
type ActivityGroup struct {
	ID         string          `json:"id"`
	ClientID   string          `json:"client_id"` // empty means unassigned
	Activities []GroupActivity `json:"activities"`
}

// TimeRange is a closed interval used for activity fetches.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the range.
func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// DaysBetween returns the number of whole days from a to b, truncated
// toward zero. The result is negative when b precedes a.
func DaysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
