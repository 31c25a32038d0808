package renewals

import (
	"testing"
	"time"

	"github.com/clientpulse/pkg/models"
)

var now = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func timePtr(t time.Time) *time.Time {
	return &t
}

func annualClient(id string, revenue float64) models.ClientRecord {
	return models.ClientRecord{
		ID:            id,
		Name:          id,
		BillingType:   models.BillingAnnually,
		RevenueAmount: revenue,
	}
}

func TestContractEndResolutionOrder(t *testing.T) {
	explicit := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	start := time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)
	created := time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)

	c := models.ClientRecord{
		ContractEndDate:   timePtr(explicit),
		ContractStartDate: timePtr(start),
		CreatedAt:         created,
	}
	if end, ok := ContractEnd(c); !ok || !end.Equal(explicit) {
		t.Errorf("explicit end ignored: got %v, %v", end, ok)
	}

	c.ContractEndDate = nil
	if end, ok := ContractEnd(c); !ok || !end.Equal(start.AddDate(1, 0, 0)) {
		t.Errorf("start+1y fallback: got %v, %v", end, ok)
	}

	c.ContractStartDate = nil
	if end, ok := ContractEnd(c); !ok || !end.Equal(created.AddDate(1, 0, 0)) {
		t.Errorf("created+1y fallback: got %v, %v", end, ok)
	}

	if _, ok := ContractEnd(models.ClientRecord{}); ok {
		t.Error("unresolvable contract end should report ok=false")
	}
}

func TestBuildThirtyDayExample(t *testing.T) {
	// Contract started exactly 335 days before now, so the implied end
	// is 30 days out.
	c := annualClient("c1", 12000)
	c.ContractStartDate = timePtr(now.AddDate(0, 0, -335))

	w := Build([]models.ClientRecord{c}, now)

	if len(w.Expiring30) != 1 {
		t.Fatalf("expiring30 len = %d, want 1", len(w.Expiring30))
	}
	if w.Expiring30[0].DaysToEnd != 30 {
		t.Errorf("daysToEnd = %d, want 30", w.Expiring30[0].DaysToEnd)
	}
	if len(w.Expiring60) != 0 || len(w.Expiring90) != 0 {
		t.Errorf("client should land in exactly one bucket: %+v", w)
	}
	if w.RevenueAtRisk != 12000 {
		t.Errorf("revenueAtRisk = %v, want 12000", w.RevenueAtRisk)
	}
}

func TestBuildBucketBoundaries(t *testing.T) {
	tests := []struct {
		days   int
		bucket string
	}{
		{0, "30"},
		{30, "30"},
		{31, "60"},
		{60, "60"},
		{61, "90"},
		{90, "90"},
	}

	for _, tt := range tests {
		c := annualClient("c1", 1000)
		c.ContractEndDate = timePtr(now.AddDate(0, 0, tt.days))

		w := Build([]models.ClientRecord{c}, now)

		var got string
		switch {
		case len(w.Expiring30) == 1:
			got = "30"
		case len(w.Expiring60) == 1:
			got = "60"
		case len(w.Expiring90) == 1:
			got = "90"
		default:
			got = "none"
		}
		if got != tt.bucket {
			t.Errorf("days=%d landed in bucket %s, want %s", tt.days, got, tt.bucket)
		}
		if w.RevenueAtRisk != 1000 {
			t.Errorf("days=%d revenueAtRisk = %v, want 1000", tt.days, w.RevenueAtRisk)
		}
	}
}

func TestBuildExclusions(t *testing.T) {
	pastDue := annualClient("past", 5000)
	pastDue.ContractEndDate = timePtr(now.AddDate(0, 0, -1))

	farOut := annualClient("far", 5000)
	farOut.ContractEndDate = timePtr(now.AddDate(0, 0, 91))

	monthly := models.ClientRecord{
		ID:              "monthly",
		BillingType:     models.BillingMonthly,
		RevenueAmount:   5000,
		ContractEndDate: timePtr(now.AddDate(0, 0, 15)),
	}

	w := Build([]models.ClientRecord{pastDue, farOut, monthly}, now)

	if len(w.Expiring30)+len(w.Expiring60)+len(w.Expiring90) != 0 {
		t.Errorf("expected empty buckets, got %+v", w)
	}
	if w.RevenueAtRisk != 0 {
		t.Errorf("revenueAtRisk = %v, want 0", w.RevenueAtRisk)
	}
}

func TestBuildYearlyAlias(t *testing.T) {
	c := annualClient("c1", 800)
	c.BillingType = models.BillingYearly
	c.ContractEndDate = timePtr(now.AddDate(0, 0, 45))

	w := Build([]models.ClientRecord{c}, now)
	if len(w.Expiring60) != 1 {
		t.Errorf("yearly billing should participate, got %+v", w)
	}
}
