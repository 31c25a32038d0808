// Package engagement turns raw per-client progress counters into a
// normalized engagement score and implementation-health metrics.
package engagement

import (
	"math"

	"github.com/clientpulse/pkg/models"
)

const (
	formsTarget = 5
	zapsTarget  = 3

	// LowScoreThreshold is the score below which a client counts as
	// low-engagement.
	LowScoreThreshold = 40
)

// Score is the normalized 0-100 engagement composite for one client,
// with its contributing component ratios.
type Score struct {
	ClientID      string  `json:"client_id"`
	Score         int     `json:"score"`
	CallsRatio    float64 `json:"calls_ratio"`
	FormsRatio    float64 `json:"forms_ratio"`
	ZapsRatio     float64 `json:"integrations_ratio"`
	ProgressRatio float64 `json:"progress_ratio"`
}

// LowEngagement reports whether the score falls below the threshold.
func (s Score) LowEngagement() bool {
	return s.Score < LowScoreThreshold
}

// ScoreClient combines four normalized sub-scores into a single 0-100
// value. The composite is an unweighted mean of heterogeneous proxies, a
// deliberate simplification rather than a fitted model. A client with no
// scheduled calls gets a zero calls ratio instead of a division error.
func ScoreClient(c models.ClientRecord) Score {
	var calls float64
	if c.CallsScheduled > 0 {
		calls = clamp01(float64(c.CallsCompleted) / float64(c.CallsScheduled))
	}
	forms := clamp01(float64(c.FormsSetup) / formsTarget)
	zaps := clamp01(float64(c.ZapierIntegrationsSetup) / zapsTarget)
	progress := clamp01(c.ProjectCompletionPercentage / 100)

	return Score{
		ClientID:      c.ID,
		Score:         int(math.Round(100 * (calls + forms + zaps + progress) / 4)),
		CallsRatio:    calls,
		FormsRatio:    forms,
		ZapsRatio:     zaps,
		ProgressRatio: progress,
	}
}

// ScoreAll scores every client in input order.
func ScoreAll(clients []models.ClientRecord) []Score {
	scores := make([]Score, len(clients))
	for i, c := range clients {
		scores[i] = ScoreClient(c)
	}
	return scores
}

// DistributionBuckets are the five score bands, in ascending order. The
// last band is closed on both ends so a perfect 100 lands in it.
var DistributionBuckets = []string{"0-19", "20-39", "40-59", "60-79", "80-100"}

// Distribution counts scores per 20-point band.
func Distribution(scores []Score) map[string]int {
	dist := make(map[string]int, len(DistributionBuckets))
	for _, bucket := range DistributionBuckets {
		dist[bucket] = 0
	}
	for _, s := range scores {
		idx := s.Score / 20
		if idx >= len(DistributionBuckets) {
			idx = len(DistributionBuckets) - 1
		}
		dist[DistributionBuckets[idx]]++
	}
	return dist
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
