package analytics

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/clientpulse/internal/workhours"
	"github.com/clientpulse/pkg/models"
)

var now = time.Date(2024, 3, 8, 12, 0, 0, 0, time.UTC) // a Friday

type fakeStore struct {
	clients    []models.ClientRecord
	activities map[models.TimeRange][]models.ActivityInterval
	groups     map[models.TimeRange][]models.ActivityGroup
	milestones map[string][]models.MilestoneRecord

	clientsErr    error
	activitiesErr error

	mu            sync.Mutex
	fetchedRanges []models.TimeRange
}

func (f *fakeStore) FetchClients(ctx context.Context) ([]models.ClientRecord, error) {
	return f.clients, f.clientsErr
}

func (f *fakeStore) FetchActivities(ctx context.Context, r models.TimeRange) ([]models.ActivityInterval, error) {
	f.mu.Lock()
	f.fetchedRanges = append(f.fetchedRanges, r)
	f.mu.Unlock()
	return f.activities[r], f.activitiesErr
}

func (f *fakeStore) FetchGroups(ctx context.Context, r models.TimeRange) ([]models.ActivityGroup, error) {
	return f.groups[r], nil
}

func (f *fakeStore) FetchMilestones(ctx context.Context, clientID string) ([]models.MilestoneRecord, error) {
	return f.milestones[clientID], nil
}

func (f *fakeStore) Ping(ctx context.Context) error { return nil }

type capturingPublisher struct {
	events []models.AnalyticsEvent
}

func (p *capturingPublisher) Publish(ctx context.Context, event models.AnalyticsEvent) error {
	p.events = append(p.events, event)
	return nil
}

func testEngine(store Store, publisher Publisher) *Engine {
	e := NewEngine(store, publisher, nil, workhours.DefaultWindow())
	e.clock = func() time.Time { return now }
	return e
}

func weekRangeOf(t *testing.T) models.TimeRange {
	t.Helper()
	start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	return models.TimeRange{Start: start, End: start.AddDate(0, 0, 7).Add(-time.Millisecond)}
}

func TestSummary(t *testing.T) {
	r := weekRangeOf(t)
	monday10 := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

	store := &fakeStore{
		clients: []models.ClientRecord{
			{
				ID:                          "c1",
				Status:                      models.ClientStatusActive,
				SuccessPackage:              models.PackagePremium,
				BillingType:                 models.BillingAnnually,
				RevenueAmount:               12000,
				CallsCompleted:              2,
				CallsScheduled:              2,
				FormsSetup:                  5,
				ZapierIntegrationsSetup:     3,
				ProjectCompletionPercentage: 100,
				CreatedAt:                   now.AddDate(0, 0, -335),
			},
			{
				ID:             "c2",
				Status:         models.ClientStatusActive,
				SuccessPackage: models.PackageGold,
				CreatedAt:      now.AddDate(0, 0, -20),
			},
		},
		activities: map[models.TimeRange][]models.ActivityInterval{
			r: {
				{ID: "a1", ClientID: "c1", StartedAt: monday10, EndedAt: monday10.Add(time.Hour), DurationSeconds: 3600},
			},
		},
	}
	publisher := &capturingPublisher{}
	engine := testEngine(store, publisher)

	summary, err := engine.Summary(context.Background(), r, Filters{})
	if err != nil {
		t.Fatalf("Summary() error: %v", err)
	}

	if len(summary.Clients) != 1 || summary.Clients[0].ClientID != "c1" {
		t.Errorf("clients = %+v, want single c1 bucket", summary.Clients)
	}
	if summary.Totals.TotalSeconds != 3600 || summary.Totals.WorkSeconds != 3600 {
		t.Errorf("totals = %+v", summary.Totals)
	}

	if len(summary.Engagement) != 2 {
		t.Fatalf("engagement len = %d, want 2", len(summary.Engagement))
	}
	if summary.Engagement[0].Score != 100 {
		t.Errorf("c1 score = %d, want 100", summary.Engagement[0].Score)
	}
	if summary.Distribution["80-100"] != 1 || summary.Distribution["0-19"] != 1 {
		t.Errorf("distribution = %v", summary.Distribution)
	}
	if !reflect.DeepEqual(summary.LowEngagement, []string{"c2"}) {
		t.Errorf("low engagement = %v, want [c2]", summary.LowEngagement)
	}

	// c1's contract start defaults from created_at: 335 days ago + 1y
	// is within the wider renewal horizon.
	if summary.Renewals.RevenueAtRisk != 12000 {
		t.Errorf("revenueAtRisk = %v, want 12000", summary.Renewals.RevenueAtRisk)
	}

	if len(publisher.events) != 1 || publisher.events[0].Type != models.EventSummaryComputed {
		t.Errorf("published events = %+v", publisher.events)
	}
}

func TestSummaryFilters(t *testing.T) {
	store := &fakeStore{
		clients: []models.ClientRecord{
			{ID: "c1", Status: models.ClientStatusActive, SuccessPackage: models.PackageGold, ImplementationManager: "ana", CreatedAt: now},
			{ID: "c2", Status: models.ClientStatusInactive, SuccessPackage: models.PackageGold, ImplementationManager: "ana", CreatedAt: now},
			{ID: "c3", Status: models.ClientStatusActive, SuccessPackage: models.PackageLight, ImplementationManager: "joe", CreatedAt: now},
		},
	}
	engine := testEngine(store, nil)

	summary, err := engine.Summary(context.Background(), weekRangeOf(t), Filters{
		Status:         "active",
		SuccessPackage: "gold",
	})
	if err != nil {
		t.Fatalf("Summary() error: %v", err)
	}

	if len(summary.Engagement) != 1 || summary.Engagement[0].ClientID != "c1" {
		t.Errorf("filtered engagement = %+v, want only c1", summary.Engagement)
	}
}

func TestSummaryStoreFailure(t *testing.T) {
	wantErr := errors.New("store unreachable")
	engine := testEngine(&fakeStore{clientsErr: wantErr}, nil)

	_, err := engine.Summary(context.Background(), weekRangeOf(t), Filters{})
	if !errors.Is(err, wantErr) {
		t.Errorf("Summary() error = %v, want wrapped %v", err, wantErr)
	}
}

func TestSummaryIdempotent(t *testing.T) {
	r := weekRangeOf(t)
	store := &fakeStore{
		clients: []models.ClientRecord{
			{ID: "c1", SuccessPackage: models.PackagePremium, CallsCompleted: 1, CallsScheduled: 3, CreatedAt: now.AddDate(0, 0, -5)},
		},
	}
	engine := testEngine(store, nil)

	first, err := engine.Summary(context.Background(), r, Filters{})
	if err != nil {
		t.Fatalf("first Summary() error: %v", err)
	}
	second, err := engine.Summary(context.Background(), r, Filters{})
	if err != nil {
		t.Fatalf("second Summary() error: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated calls over the same snapshot differ:\nfirst  %+v\nsecond %+v", first, second)
	}
}

func TestWeekOverWeek(t *testing.T) {
	weekStart := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	current := weekRangeOf(t)
	prevStart := weekStart.AddDate(0, 0, -7)
	previous := models.TimeRange{Start: prevStart, End: prevStart.AddDate(0, 0, 7).Add(-time.Millisecond)}

	monday10 := weekStart.Add(10 * time.Hour)
	prevMonday10 := prevStart.Add(10 * time.Hour)

	store := &fakeStore{
		activities: map[models.TimeRange][]models.ActivityInterval{
			current: {
				{ClientID: "c1", StartedAt: monday10, EndedAt: monday10.Add(2 * time.Hour), DurationSeconds: 7200},
			},
			previous: {
				{ClientID: "c1", StartedAt: prevMonday10, EndedAt: prevMonday10.Add(time.Hour), DurationSeconds: 3600},
			},
		},
	}
	engine := testEngine(store, nil)

	cmp, err := engine.WeekOverWeek(context.Background(), weekStart)
	if err != nil {
		t.Fatalf("WeekOverWeek() error: %v", err)
	}

	if cmp.Current.Totals.TotalSeconds != 7200 {
		t.Errorf("current totals = %+v", cmp.Current.Totals)
	}
	if cmp.Previous.Totals.TotalSeconds != 3600 {
		t.Errorf("previous totals = %+v", cmp.Previous.Totals)
	}
	if d := cmp.Deltas["c1"]; d.TotalSeconds != 3600 {
		t.Errorf("c1 delta = %+v, want +3600", d)
	}

	if len(store.fetchedRanges) != 2 {
		t.Errorf("fetched ranges = %v, want both weeks", store.fetchedRanges)
	}
}

func TestClientProgress(t *testing.T) {
	store := &fakeStore{
		milestones: map[string][]models.MilestoneRecord{
			"c1": {
				{ID: "m1", ClientID: "c1", OrderIndex: 1, Status: models.MilestoneCompleted},
				{ID: "m2", ClientID: "c1", OrderIndex: 2, Status: models.MilestonePending},
			},
		},
	}
	engine := testEngine(store, nil)

	progress, err := engine.ClientProgress(context.Background(), "c1")
	if err != nil {
		t.Fatalf("ClientProgress() error: %v", err)
	}
	if progress.Percentage != 50 {
		t.Errorf("percentage = %d, want 50", progress.Percentage)
	}

	empty, err := engine.ClientProgress(context.Background(), "missing")
	if err != nil {
		t.Fatalf("ClientProgress() error: %v", err)
	}
	if empty.Total != 0 {
		t.Errorf("missing client progress = %+v, want zero total", empty)
	}
}
