// Package renewals classifies annually billed clients into 30/60/90-day
// contract expiration windows and sums the revenue exposed in them.
package renewals

import (
	"time"

	"github.com/clientpulse/pkg/models"
)

// Expiration is one client's upcoming contract end.
type Expiration struct {
	ClientID      string    `json:"client_id"`
	Name          string    `json:"name"`
	ContractEnd   time.Time `json:"contract_end"`
	DaysToEnd     int       `json:"days_to_end"`
	RevenueAmount float64   `json:"revenue_amount"`
}

// Windows holds the three expiration buckets and the total revenue at
// risk across the 90-day horizon. A client lands in exactly one bucket
// but always contributes to RevenueAtRisk when within 90 days.
type Windows struct {
	Expiring30    []Expiration `json:"expiring_30"`
	Expiring60    []Expiration `json:"expiring_60"`
	Expiring90    []Expiration `json:"expiring_90"`
	RevenueAtRisk float64      `json:"revenue_at_risk"`
}

// ContractEnd resolves a client's effective contract end: the explicit
// end date when present, otherwise one year after the contract start,
// otherwise one year after record creation. ok is false when nothing is
// resolvable.
func ContractEnd(c models.ClientRecord) (end time.Time, ok bool) {
	switch {
	case c.ContractEndDate != nil:
		return *c.ContractEndDate, true
	case c.ContractStartDate != nil:
		return c.ContractStartDate.AddDate(1, 0, 0), true
	case !c.CreatedAt.IsZero():
		return c.CreatedAt.AddDate(1, 0, 0), true
	}
	return time.Time{}, false
}

// Build classifies clients relative to now. Only annually billed clients
// participate; past-due contracts are treated as already lapsed or
// renewed and excluded from every bucket and from revenue at risk.
func Build(clients []models.ClientRecord, now time.Time) Windows {
	w := Windows{
		Expiring30: []Expiration{},
		Expiring60: []Expiration{},
		Expiring90: []Expiration{},
	}

	for _, c := range clients {
		if !c.AnnualBilling() {
			continue
		}

		end, ok := ContractEnd(c)
		if !ok {
			continue
		}

		days := models.DaysBetween(now, end)
		if days < 0 || days > 90 {
			continue
		}

		exp := Expiration{
			ClientID:      c.ID,
			Name:          c.Name,
			ContractEnd:   end,
			DaysToEnd:     days,
			RevenueAmount: c.RevenueAmount,
		}

		switch {
		case days <= 30:
			w.Expiring30 = append(w.Expiring30, exp)
		case days <= 60:
			w.Expiring60 = append(w.Expiring60, exp)
		default:
			w.Expiring90 = append(w.Expiring90, exp)
		}

		w.RevenueAtRisk += c.RevenueAmount
	}

	return w
}
