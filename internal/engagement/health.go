package engagement

import (
	"time"

	"github.com/clientpulse/pkg/models"
)

const (
	firstCallRiskDays  = 10
	graduationRiskDays = 45
)

// HealthMetrics aggregates implementation health across a set of
// clients. Averages use full precision internally; rounding for display
// happens only at the response boundary.
type HealthMetrics struct {
	TimeToFirstValue      float64  `json:"time_to_first_value"`
	AvgOnboardingDuration float64  `json:"avg_onboarding_duration"`
	ActiveImplementations int      `json:"active_implementations"`
	AtRiskClients         []string `json:"at_risk_clients"`
}

// AtRisk reports whether a client's onboarding has stalled: no first
// call recorded more than 10 days after creation, or no graduation more
// than 45 days after creation. Packages without a first-call concept are
// only subject to the graduation rule.
func AtRisk(c models.ClientRecord, now time.Time) bool {
	age := models.DaysBetween(c.CreatedAt, now)

	if date, tracked := c.FirstCallDate(); tracked && date == nil && age > firstCallRiskDays {
		return true
	}
	if !c.Graduated() && age > graduationRiskDays {
		return true
	}
	return false
}

// Health computes implementation-health metrics over a client snapshot.
// Missing or negative date deltas are skipped from the averages rather
// than coerced to zero, which would silently bias the mean.
func Health(clients []models.ClientRecord, now time.Time) HealthMetrics {
	metrics := HealthMetrics{AtRiskClients: []string{}}

	var firstCallSum float64
	var firstCallCount int
	var onboardingSum float64
	var onboardingCount int

	for _, c := range clients {
		if date, tracked := c.FirstCallDate(); tracked && date != nil {
			if days := models.DaysBetween(c.CreatedAt, *date); days >= 0 {
				firstCallSum += float64(days)
				firstCallCount++
			}
		}

		if c.Graduated() {
			if days := models.DaysBetween(c.CreatedAt, *c.GraduationDate); days >= 0 {
				onboardingSum += float64(days)
				onboardingCount++
			}
		} else {
			metrics.ActiveImplementations++
		}

		if AtRisk(c, now) {
			metrics.AtRiskClients = append(metrics.AtRiskClients, c.ID)
		}
	}

	if firstCallCount > 0 {
		metrics.TimeToFirstValue = firstCallSum / float64(firstCallCount)
	}
	if onboardingCount > 0 {
		metrics.AvgOnboardingDuration = onboardingSum / float64(onboardingCount)
	}

	return metrics
}
