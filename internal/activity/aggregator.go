// Package activity buckets logged work time per client and supports
// week-over-week comparison of adjacent aggregation windows.
package activity

import (
	"sort"
	"time"

	"github.com/clientpulse/internal/workhours"
	"github.com/clientpulse/pkg/models"
)

// Unassigned is the bucket key for activity with no client attached.
const Unassigned = ""

// ClientUsage accumulates total and business-hours seconds for one
// client bucket. OutsideSeconds is always TotalSeconds-WorkSeconds and
// never negative given the overlap calculator's contract.
type ClientUsage struct {
	ClientID       string `json:"client_id"`
	TotalSeconds   int64  `json:"total_seconds"`
	WorkSeconds    int64  `json:"work_seconds"`
	OutsideSeconds int64  `json:"outside_seconds"`
}

// UsageDelta is the exact numeric change between two aggregation runs.
// Rounding, if any, belongs to the presentation layer.
type UsageDelta struct {
	ClientID     string `json:"client_id"`
	TotalSeconds int64  `json:"total_seconds"`
	WorkSeconds  int64  `json:"work_seconds"`
}

// Aggregator is a pure function over its inputs; instances hold only
// the business-hours window configuration and no mutable state.
type Aggregator struct {
	window workhours.Window
}

func NewAggregator(window workhours.Window) *Aggregator {
	return &Aggregator{window: window}
}

// AggregateByClient buckets total and work-hours seconds per client.
//
// An ungrouped interval contributes only when it has no group and is not
// hidden. Groups contribute all of their member activities regardless of
// member visibility; the group owns its members' visibility semantics.
// An interval that belongs to a group is never counted from the
// ungrouped side, so nothing is double counted.
func (a *Aggregator) AggregateByClient(intervals []models.ActivityInterval, groups []models.ActivityGroup) map[string]*ClientUsage {
	usage := make(map[string]*ClientUsage)

	add := func(clientID string, duration, work int64) {
		u, ok := usage[clientID]
		if !ok {
			u = &ClientUsage{ClientID: clientID}
			usage[clientID] = u
		}
		u.TotalSeconds += duration
		u.WorkSeconds += work
	}

	for _, iv := range intervals {
		if iv.GroupID != "" || iv.Hidden {
			continue
		}
		add(iv.ClientID, iv.DurationSeconds, a.window.WorkSeconds(iv.StartedAt, iv.EndedAt))
	}

	for _, g := range groups {
		for _, member := range g.Activities {
			add(g.ClientID, member.DurationSeconds, a.window.WorkSeconds(member.StartedAt, member.EndedAt))
		}
	}

	for _, u := range usage {
		u.OutsideSeconds = u.TotalSeconds - u.WorkSeconds
	}

	return usage
}

// Ranked flattens a usage map into a slice ordered by total seconds
// descending. The unassigned bucket always sorts last; ties break on
// client id so output is deterministic.
func Ranked(usage map[string]*ClientUsage) []*ClientUsage {
	out := make([]*ClientUsage, 0, len(usage))
	for _, u := range usage {
		out = append(out, u)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].ClientID == Unassigned {
			return false
		}
		if out[j].ClientID == Unassigned {
			return true
		}
		if out[i].TotalSeconds != out[j].TotalSeconds {
			return out[i].TotalSeconds > out[j].TotalSeconds
		}
		return out[i].ClientID < out[j].ClientID
	})

	return out
}

// Totals sums every bucket into one aggregate row.
func Totals(usage map[string]*ClientUsage) ClientUsage {
	var total ClientUsage
	for _, u := range usage {
		total.TotalSeconds += u.TotalSeconds
		total.WorkSeconds += u.WorkSeconds
	}
	total.OutsideSeconds = total.TotalSeconds - total.WorkSeconds
	return total
}

// WeekRange returns the calendar week [Mon 00:00:00, Sun 23:59:59.999]
// for the given week start, which callers are expected to pass as a
// Monday in local time.
func WeekRange(weekStart time.Time) models.TimeRange {
	start := time.Date(weekStart.Year(), weekStart.Month(), weekStart.Day(), 0, 0, 0, 0, weekStart.Location())
	return models.TimeRange{
		Start: start,
		End:   start.AddDate(0, 0, 7).Add(-time.Millisecond),
	}
}

// PreviousWeekStart returns the Monday one week before weekStart.
func PreviousWeekStart(weekStart time.Time) time.Time {
	return weekStart.AddDate(0, 0, -7)
}

// Compare yields the exact per-client deltas between two independent
// aggregation runs (current minus previous). Buckets missing on one side
// count as zero on that side.
func Compare(current, previous map[string]*ClientUsage) map[string]UsageDelta {
	deltas := make(map[string]UsageDelta)

	for id, cur := range current {
		delta := UsageDelta{ClientID: id, TotalSeconds: cur.TotalSeconds, WorkSeconds: cur.WorkSeconds}
		if prev, ok := previous[id]; ok {
			delta.TotalSeconds -= prev.TotalSeconds
			delta.WorkSeconds -= prev.WorkSeconds
		}
		deltas[id] = delta
	}

	for id, prev := range previous {
		if _, ok := current[id]; ok {
			continue
		}
		deltas[id] = UsageDelta{ClientID: id, TotalSeconds: -prev.TotalSeconds, WorkSeconds: -prev.WorkSeconds}
	}

	return deltas
}
