// Package milestones derives completion progress from a client's
// implementation milestone records.
package milestones

import (
	"math"
	"sort"

	"github.com/clientpulse/pkg/models"
)

// Progress is the derived completion state for one client's milestone
// plan. A zero Total means the client has no milestones at all, which
// callers render differently from 0% complete.
type Progress struct {
	ClientID    string                  `json:"client_id"`
	Total       int                     `json:"total"`
	Completed   int                     `json:"completed"`
	Percentage  int                     `json:"percentage"`
	CurrentStep *models.MilestoneRecord `json:"current_step,omitempty"`
}

// CompletionPercentage returns the rounded percentage of completed
// milestones. The percentage is order-independent; an empty list yields
// zero and the no-milestones distinction is the caller's concern.
func CompletionPercentage(records []models.MilestoneRecord) int {
	if len(records) == 0 {
		return 0
	}

	completed := 0
	for _, m := range records {
		if m.Status == models.MilestoneCompleted {
			completed++
		}
	}

	return int(math.Round(100 * float64(completed) / float64(len(records))))
}

// Ordered returns a copy of the records sorted by OrderIndex.
func Ordered(records []models.MilestoneRecord) []models.MilestoneRecord {
	out := make([]models.MilestoneRecord, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OrderIndex < out[j].OrderIndex
	})
	return out
}

// CurrentStep returns the first non-completed milestone in sequence
// order, or ok=false when every milestone is completed or none exist.
func CurrentStep(records []models.MilestoneRecord) (models.MilestoneRecord, bool) {
	for _, m := range Ordered(records) {
		if m.Status != models.MilestoneCompleted {
			return m, true
		}
	}
	return models.MilestoneRecord{}, false
}

// Build assembles the full progress view for one client.
func Build(clientID string, records []models.MilestoneRecord) Progress {
	p := Progress{
		ClientID:   clientID,
		Total:      len(records),
		Percentage: CompletionPercentage(records),
	}
	for _, m := range records {
		if m.Status == models.MilestoneCompleted {
			p.Completed++
		}
	}
	if step, ok := CurrentStep(records); ok {
		p.CurrentStep = &step
	}
	return p
}
