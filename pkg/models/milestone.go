package models

import "time"

// MilestoneStatus represents the state of an implementation milestone
type MilestoneStatus string

const (
	MilestonePending    MilestoneStatus = "pending"
	MilestoneInProgress MilestoneStatus = "in_progress"
	MilestoneCompleted  MilestoneStatus = "completed"
	MilestoneBlocked    MilestoneStatus = "blocked"
)

// MilestoneRecord is one step of a client's implementation plan.
// OrderIndex defines the sequence used for current-step derivation.
type MilestoneRecord struct {
	ID            string          `json:"id"`
	ClientID      string          `json:"client_id"`
	OrderIndex    int             `json:"order_index"`
	Status        MilestoneStatus `json:"status"`
	Category      string          `json:"category"`
	EstimatedDays int             `json:"estimated_days"`
	CompletedAt   *time.Time      `json:"completed_at,omitempty"`
}
