// Package billing fills contract end dates from Stripe subscriptions so
// renewal analytics can run on billing truth rather than CRM guesses.
package billing

import (
	"context"
	"log"
	"time"

	"github.com/stripe/stripe-go/v74"
	sub "github.com/stripe/stripe-go/v74/subscription"

	"github.com/clientpulse/pkg/models"
)

// RenewalService resolves missing contract end dates against Stripe.
// Clients with an explicit end date are left alone; annually billed
// clients with a subscription id get the current period end instead.
type RenewalService struct {
	fetch func(id string) (*stripe.Subscription, error)
}

// NewRenewalService creates a renewal service using the given API key
func NewRenewalService(apiKey string) *RenewalService {
	stripe.Key = apiKey

	return &RenewalService{
		fetch: func(id string) (*stripe.Subscription, error) {
			return sub.Get(id, nil)
		},
	}
}

// Resolve returns a copy of the snapshot with contract end dates filled
// in from Stripe where the record lacks one. Stripe failures are logged
// and the client is passed through unchanged.
func (rs *RenewalService) Resolve(ctx context.Context, clients []models.ClientRecord) []models.ClientRecord {
	resolved := make([]models.ClientRecord, len(clients))
	copy(resolved, clients)

	for i := range resolved {
		c := &resolved[i]
		if c.ContractEndDate != nil || c.StripeSubscriptionID == "" || !c.AnnualBilling() {
			continue
		}

		subscription, err := rs.fetch(c.StripeSubscriptionID)
		if err != nil {
			log.Printf("Failed to fetch subscription %s for client %s: %v", c.StripeSubscriptionID, c.ID, err)
			continue
		}

		if subscription.CurrentPeriodEnd > 0 {
			end := time.Unix(subscription.CurrentPeriodEnd, 0).UTC()
			c.ContractEndDate = &end
		}
	}

	return resolved
}
