// Package analytics assembles the client-success analytics engine: it
// fetches read-only snapshots from a collaborator store and derives
// activity, engagement, renewal-risk and milestone metrics through pure
// component functions.
package analytics

import (
	"context"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/clientpulse/internal/activity"
	"github.com/clientpulse/internal/engagement"
	"github.com/clientpulse/internal/milestones"
	"github.com/clientpulse/internal/renewals"
	"github.com/clientpulse/internal/workhours"
	"github.com/clientpulse/pkg/models"
)

// Store is the read-only data access required by the engine. How the
// records are fetched or cached behind this interface is not the
// engine's concern.
type Store interface {
	FetchClients(ctx context.Context) ([]models.ClientRecord, error)
	FetchActivities(ctx context.Context, r models.TimeRange) ([]models.ActivityInterval, error)
	FetchGroups(ctx context.Context, r models.TimeRange) ([]models.ActivityGroup, error)
	FetchMilestones(ctx context.Context, clientID string) ([]models.MilestoneRecord, error)
	Ping(ctx context.Context) error
}

// Publisher emits analytics events to the event bus. A nil publisher
// disables publishing.
type Publisher interface {
	Publish(ctx context.Context, event models.AnalyticsEvent) error
}

// ContractResolver fills in contract end dates from the billing
// provider for clients that lack an explicit one. A nil resolver leaves
// the snapshot untouched.
type ContractResolver interface {
	Resolve(ctx context.Context, clients []models.ClientRecord) []models.ClientRecord
}

// Filters is the exact-match pre-filter applied to the client snapshot
// before any scoring or aggregation runs. Empty fields match anything.
type Filters struct {
	PlanType              string
	SuccessPackage        string
	ImplementationManager string
	Status                string
}

// Match reports whether a client passes every set filter field.
func (f Filters) Match(c models.ClientRecord) bool {
	if f.PlanType != "" && c.PlanType != f.PlanType {
		return false
	}
	if f.SuccessPackage != "" && string(c.SuccessPackage) != f.SuccessPackage {
		return false
	}
	if f.ImplementationManager != "" && c.ImplementationManager != f.ImplementationManager {
		return false
	}
	if f.Status != "" && string(c.Status) != f.Status {
		return false
	}
	return true
}

// Summary is the merged response object produced for the summary
// endpoint. Health averages are rounded to one decimal here, at the
// response boundary; everything upstream keeps full precision.
type Summary struct {
	Range         models.TimeRange         `json:"range"`
	Clients       []*activity.ClientUsage  `json:"clients"`
	Totals        activity.ClientUsage     `json:"totals"`
	Engagement    []engagement.Score       `json:"engagement"`
	Distribution  map[string]int           `json:"distribution"`
	LowEngagement []string                 `json:"low_engagement"`
	Renewals      renewals.Windows         `json:"renewals"`
	Health        engagement.HealthMetrics `json:"health"`
	GeneratedAt   time.Time                `json:"generated_at"`
}

// ActivityReport is the per-range activity breakdown.
type ActivityReport struct {
	Range   models.TimeRange        `json:"range"`
	Clients []*activity.ClientUsage `json:"clients"`
	Totals  activity.ClientUsage    `json:"totals"`
}

// WeekComparison holds two adjacent weekly reports and their exact
// numeric deltas.
type WeekComparison struct {
	Current  ActivityReport                 `json:"current"`
	Previous ActivityReport                 `json:"previous"`
	Deltas   map[string]activity.UsageDelta `json:"deltas"`
}

// Engine derives analytics from store snapshots. Every computation is a
// pure function of the snapshot passed in; the engine itself holds no
// mutable state beyond its collaborators.
type Engine struct {
	store      Store
	publisher  Publisher
	resolver   ContractResolver
	aggregator *activity.Aggregator
	clock      func() time.Time
}

// NewEngine wires the engine with its collaborators. publisher and
// resolver may be nil.
func NewEngine(store Store, publisher Publisher, resolver ContractResolver, window workhours.Window) *Engine {
	return &Engine{
		store:      store,
		publisher:  publisher,
		resolver:   resolver,
		aggregator: activity.NewAggregator(window),
		clock:      time.Now,
	}
}

// Summary fetches the snapshot for the requested range and merges every
// analytics component into one response. Store failures fail the whole
// request; partial analytics with silently missing clients would be
// worse than an explicit error.
func (e *Engine) Summary(ctx context.Context, r models.TimeRange, filters Filters) (*Summary, error) {
	now := e.clock()

	clients, err := e.store.FetchClients(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch clients: %w", err)
	}
	clients = applyFilters(clients, filters)

	if e.resolver != nil {
		clients = e.resolver.Resolve(ctx, clients)
	}

	intervals, err := e.store.FetchActivities(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("fetch activities: %w", err)
	}
	groups, err := e.store.FetchGroups(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("fetch activity groups: %w", err)
	}

	usage := e.aggregator.AggregateByClient(intervals, groups)
	scores := engagement.ScoreAll(clients)
	health := engagement.Health(clients, now)
	health.TimeToFirstValue = round1(health.TimeToFirstValue)
	health.AvgOnboardingDuration = round1(health.AvgOnboardingDuration)

	low := []string{}
	for _, s := range scores {
		if s.LowEngagement() {
			low = append(low, s.ClientID)
		}
	}

	summary := &Summary{
		Range:         r,
		Clients:       activity.Ranked(usage),
		Totals:        activity.Totals(usage),
		Engagement:    scores,
		Distribution:  engagement.Distribution(scores),
		LowEngagement: low,
		Renewals:      renewals.Build(clients, now),
		Health:        health,
		GeneratedAt:   now,
	}

	e.publish(ctx, models.NewAnalyticsEvent(models.EventSummaryComputed, "", map[string]interface{}{
		"clients":         len(clients),
		"at_risk":         len(summary.Health.AtRiskClients),
		"low_engagement":  len(low),
		"revenue_at_risk": summary.Renewals.RevenueAtRisk,
	}))

	return summary, nil
}

// Activity aggregates logged time for one range.
func (e *Engine) Activity(ctx context.Context, r models.TimeRange) (*ActivityReport, error) {
	intervals, err := e.store.FetchActivities(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("fetch activities: %w", err)
	}
	groups, err := e.store.FetchGroups(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("fetch activity groups: %w", err)
	}

	usage := e.aggregator.AggregateByClient(intervals, groups)
	return &ActivityReport{
		Range:   r,
		Clients: activity.Ranked(usage),
		Totals:  activity.Totals(usage),
	}, nil
}

// WeekOverWeek compares the calendar week starting at weekStart (a
// Monday) against the week before it. The two fetches run concurrently;
// the aggregation itself is pure, so the comparison is just two
// independent invocations plus exact deltas.
func (e *Engine) WeekOverWeek(ctx context.Context, weekStart time.Time) (*WeekComparison, error) {
	ranges := [2]models.TimeRange{
		activity.WeekRange(weekStart),
		activity.WeekRange(activity.PreviousWeekStart(weekStart)),
	}

	var reports [2]*ActivityReport
	var errs [2]error
	var wg sync.WaitGroup

	for i, r := range ranges {
		wg.Add(1)
		go func(i int, r models.TimeRange) {
			defer wg.Done()
			reports[i], errs[i] = e.Activity(ctx, r)
		}(i, r)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return &WeekComparison{
		Current:  *reports[0],
		Previous: *reports[1],
		Deltas:   activity.Compare(usageMap(reports[0]), usageMap(reports[1])),
	}, nil
}

// ClientProgress derives milestone completion for one client.
func (e *Engine) ClientProgress(ctx context.Context, clientID string) (*milestones.Progress, error) {
	records, err := e.store.FetchMilestones(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("fetch milestones: %w", err)
	}
	progress := milestones.Build(clientID, records)
	return &progress, nil
}

func (e *Engine) publish(ctx context.Context, event models.AnalyticsEvent) {
	if e.publisher == nil {
		return
	}
	if err := e.publisher.Publish(ctx, event); err != nil {
		log.Printf("Failed to publish %s event: %v", event.Type, err)
	}
}

func applyFilters(clients []models.ClientRecord, filters Filters) []models.ClientRecord {
	filtered := make([]models.ClientRecord, 0, len(clients))
	for _, c := range clients {
		if filters.Match(c) {
			filtered = append(filtered, c)
		}
	}
	return filtered
}

func usageMap(report *ActivityReport) map[string]*activity.ClientUsage {
	m := make(map[string]*activity.ClientUsage, len(report.Clients))
	for _, u := range report.Clients {
		m[u.ClientID] = u
	}
	return m
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
