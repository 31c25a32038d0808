package activity

import (
	"math/rand"
	"reflect"
	"testing"
	"time"

	"github.com/clientpulse/internal/workhours"
	"github.com/clientpulse/pkg/models"
)

// monday is 2024-03-04 00:00 UTC, a Monday.
var monday = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

func interval(id, clientID, groupID string, hidden bool, start time.Time, duration time.Duration) models.ActivityInterval {
	return models.ActivityInterval{
		ID:              id,
		StartedAt:       start,
		EndedAt:         start.Add(duration),
		DurationSeconds: int64(duration / time.Second),
		ClientID:        clientID,
		GroupID:         groupID,
		Hidden:          hidden,
	}
}

func TestAggregateByClient(t *testing.T) {
	agg := NewAggregator(workhours.DefaultWindow())

	inWindow := monday.Add(10 * time.Hour)  // Monday 10:00
	offHours := monday.Add(20 * time.Hour)  // Monday 20:00

	intervals := []models.ActivityInterval{
		interval("a1", "c1", "", false, inWindow, time.Hour),
		interval("a2", "c1", "", false, offHours, 30*time.Minute),
		interval("a3", "c2", "", false, inWindow, 2*time.Hour),
		interval("a4", "", "", false, inWindow, time.Hour), // unassigned
	}

	usage := agg.AggregateByClient(intervals, nil)

	c1 := usage["c1"]
	if c1 == nil {
		t.Fatal("expected bucket for c1")
	}
	if c1.TotalSeconds != 5400 {
		t.Errorf("c1 total = %d, want 5400", c1.TotalSeconds)
	}
	if c1.WorkSeconds != 3600 {
		t.Errorf("c1 work = %d, want 3600", c1.WorkSeconds)
	}
	if c1.OutsideSeconds != 1800 {
		t.Errorf("c1 outside = %d, want 1800", c1.OutsideSeconds)
	}

	if usage[Unassigned] == nil || usage[Unassigned].TotalSeconds != 3600 {
		t.Errorf("unassigned bucket = %+v, want total 3600", usage[Unassigned])
	}

	for id, u := range usage {
		if u.OutsideSeconds < 0 {
			t.Errorf("bucket %q has negative outside seconds: %d", id, u.OutsideSeconds)
		}
	}
}

func TestAggregateHiddenAndGroupAsymmetry(t *testing.T) {
	agg := NewAggregator(workhours.DefaultWindow())
	start := monday.Add(10 * time.Hour)

	// Hidden ungrouped interval: never counts.
	hidden := interval("a1", "c1", "", true, start, time.Hour)
	usage := agg.AggregateByClient([]models.ActivityInterval{hidden}, nil)
	if len(usage) != 0 {
		t.Fatalf("hidden ungrouped interval produced buckets: %+v", usage)
	}

	// The same time span referenced through a group does count, because
	// groups own their members' visibility.
	group := models.ActivityGroup{
		ID:       "g1",
		ClientID: "c1",
		Activities: []models.GroupActivity{
			{StartedAt: start, EndedAt: start.Add(time.Hour), DurationSeconds: 3600},
		},
	}
	usage = agg.AggregateByClient([]models.ActivityInterval{hidden}, []models.ActivityGroup{group})
	if usage["c1"] == nil || usage["c1"].TotalSeconds != 3600 {
		t.Errorf("grouped activity bucket = %+v, want total 3600", usage["c1"])
	}
}

func TestAggregateExcludesGroupedIntervals(t *testing.T) {
	agg := NewAggregator(workhours.DefaultWindow())
	start := monday.Add(10 * time.Hour)

	// An interval owned by a group must not be counted from the
	// ungrouped side even when visible.
	grouped := interval("a1", "c1", "g1", false, start, time.Hour)
	group := models.ActivityGroup{
		ID:       "g1",
		ClientID: "c1",
		Activities: []models.GroupActivity{
			{StartedAt: start, EndedAt: start.Add(time.Hour), DurationSeconds: 3600},
		},
	}

	usage := agg.AggregateByClient([]models.ActivityInterval{grouped}, []models.ActivityGroup{group})
	if usage["c1"].TotalSeconds != 3600 {
		t.Errorf("c1 total = %d, want 3600 (no double counting)", usage["c1"].TotalSeconds)
	}
}

func TestAggregateOrderIndependent(t *testing.T) {
	agg := NewAggregator(workhours.DefaultWindow())

	intervals := make([]models.ActivityInterval, 0, 20)
	for i := 0; i < 20; i++ {
		client := "c1"
		if i%3 == 0 {
			client = "c2"
		}
		intervals = append(intervals, interval("", client, "", false, monday.Add(time.Duration(i)*time.Hour), 30*time.Minute))
	}

	want := agg.AggregateByClient(intervals, nil)

	shuffled := make([]models.ActivityInterval, len(intervals))
	copy(shuffled, intervals)
	rand.New(rand.NewSource(1)).Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	got := agg.AggregateByClient(shuffled, nil)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("shuffled input changed result:\ngot  %+v\nwant %+v", got, want)
	}
}

func TestRankedUnassignedLast(t *testing.T) {
	usage := map[string]*ClientUsage{
		Unassigned: {ClientID: Unassigned, TotalSeconds: 9999},
		"c1":       {ClientID: "c1", TotalSeconds: 100},
		"c2":       {ClientID: "c2", TotalSeconds: 500},
	}

	ranked := Ranked(usage)
	if len(ranked) != 3 {
		t.Fatalf("ranked len = %d, want 3", len(ranked))
	}
	if ranked[0].ClientID != "c2" || ranked[1].ClientID != "c1" {
		t.Errorf("ranked order = [%s %s %s], want c2 first", ranked[0].ClientID, ranked[1].ClientID, ranked[2].ClientID)
	}
	if ranked[2].ClientID != Unassigned {
		t.Errorf("unassigned should sort last even with the largest total, got %q", ranked[2].ClientID)
	}
}

func TestWeekRange(t *testing.T) {
	r := WeekRange(monday)

	if !r.Start.Equal(monday) {
		t.Errorf("week start = %v, want %v", r.Start, monday)
	}
	wantEnd := time.Date(2024, 3, 10, 23, 59, 59, 999000000, time.UTC)
	if !r.End.Equal(wantEnd) {
		t.Errorf("week end = %v, want %v", r.End, wantEnd)
	}

	prev := WeekRange(PreviousWeekStart(monday))
	if !prev.Start.Equal(monday.AddDate(0, 0, -7)) {
		t.Errorf("previous week start = %v, want %v", prev.Start, monday.AddDate(0, 0, -7))
	}
}

func TestCompare(t *testing.T) {
	current := map[string]*ClientUsage{
		"c1": {ClientID: "c1", TotalSeconds: 7200, WorkSeconds: 3600},
		"c3": {ClientID: "c3", TotalSeconds: 100, WorkSeconds: 100},
	}
	previous := map[string]*ClientUsage{
		"c1": {ClientID: "c1", TotalSeconds: 3600, WorkSeconds: 3600},
		"c2": {ClientID: "c2", TotalSeconds: 50, WorkSeconds: 0},
	}

	deltas := Compare(current, previous)

	if d := deltas["c1"]; d.TotalSeconds != 3600 || d.WorkSeconds != 0 {
		t.Errorf("c1 delta = %+v, want total +3600 work 0", d)
	}
	if d := deltas["c2"]; d.TotalSeconds != -50 {
		t.Errorf("c2 delta = %+v, want total -50", d)
	}
	if d := deltas["c3"]; d.TotalSeconds != 100 {
		t.Errorf("c3 delta = %+v, want total +100", d)
	}
}
