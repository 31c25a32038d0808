// Package monitor runs the background at-risk scan that surfaces
// clients stalled in onboarding.
package monitor

import (
	"context"
	"log"
	"time"

	"github.com/clientpulse/internal/engagement"
	"github.com/clientpulse/pkg/models"
)

// ClientSource provides the client snapshot the scan runs over.
type ClientSource interface {
	FetchClients(ctx context.Context) ([]models.ClientRecord, error)
}

// Publisher emits at-risk and low-engagement events.
type Publisher interface {
	Publish(ctx context.Context, event models.AnalyticsEvent) error
}

// Monitor periodically scans the client base and publishes an event for
// every client that trips an at-risk or low-engagement rule. The scan is
// stateless, so a client stays on the event stream until its data moves
// out of the risk window.
type Monitor struct {
	source    ClientSource
	publisher Publisher
	interval  time.Duration
	clock     func() time.Time
}

// NewMonitor creates an at-risk monitor
func NewMonitor(source ClientSource, publisher Publisher, interval time.Duration) *Monitor {
	return &Monitor{
		source:    source,
		publisher: publisher,
		interval:  interval,
		clock:     time.Now,
	}
}

// Run scans on a fixed interval until the context is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	log.Printf("At-risk monitor started (interval %s)", m.interval)

	for {
		select {
		case <-ctx.Done():
			log.Printf("At-risk monitor stopping: %v", ctx.Err())
			return
		case <-ticker.C:
			if err := m.Scan(ctx); err != nil {
				log.Printf("At-risk scan failed: %v", err)
			}
		}
	}
}

// Scan runs a single pass over the client base.
func (m *Monitor) Scan(ctx context.Context) error {
	clients, err := m.source.FetchClients(ctx)
	if err != nil {
		return err
	}

	now := m.clock()

	for _, client := range clients {
		if engagement.AtRisk(client, now) {
			event := models.NewAnalyticsEvent(models.EventClientAtRisk, client.ID, map[string]interface{}{
				"name":            client.Name,
				"success_package": string(client.SuccessPackage),
				"manager":         client.ImplementationManager,
			})
			if err := m.publisher.Publish(ctx, event); err != nil {
				log.Printf("Failed to publish at-risk event for %s: %v", client.ID, err)
			}
		}

		score := engagement.ScoreClient(client)
		if score.Score < engagement.LowScoreThreshold {
			event := models.NewAnalyticsEvent(models.EventLowEngagement, client.ID, map[string]interface{}{
				"name":  client.Name,
				"score": score.Score,
			})
			if err := m.publisher.Publish(ctx, event); err != nil {
				log.Printf("Failed to publish low-engagement event for %s: %v", client.ID, err)
			}
		}
	}

	return nil
}
