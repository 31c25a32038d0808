package models

import "time"

// ClientStatus represents the lifecycle state of a client record
type ClientStatus string

const (
	ClientStatusActive    ClientStatus = "active"
	ClientStatusInactive  ClientStatus = "inactive"
	ClientStatusPending   ClientStatus = "pending"
	ClientStatusDraft     ClientStatus = "draft"
	ClientStatusCompleted ClientStatus = "completed"
)

// SuccessPackage determines which onboarding call-date fields are
// meaningful for a client; fields belonging to other packages are ignored.
type SuccessPackage string

const (
	PackageLight   SuccessPackage = "light"
	PackagePremium SuccessPackage = "premium"
	PackageGold    SuccessPackage = "gold"
	PackageElite   SuccessPackage = "elite"
)

// BillingType represents how a client is invoiced
type BillingType string

const (
	BillingMonthly  BillingType = "monthly"
	BillingAnnually BillingType = "annually"
	BillingYearly   BillingType = "yearly"
)

// ClientRecord represents an onboarding client as stored by the CRUD
// layer. The analytics engine only reads snapshots of these records.
type ClientRecord struct {
	ID                    string         `json:"id"`
	Name                  string         `json:"name"`
	Status                ClientStatus   `json:"status"`
	SuccessPackage        SuccessPackage `json:"success_package"`
	PlanType              string         `json:"plan_type"`
	BillingType           BillingType    `json:"billing_type"`
	RevenueAmount         float64        `json:"revenue_amount"`
	ImplementationManager string         `json:"implementation_manager"`

	// Progress counters maintained by the onboarding workflow
	CallsCompleted              int     `json:"calls_completed"`
	CallsScheduled              int     `json:"calls_scheduled"`
	FormsSetup                  int     `json:"forms_setup"`
	ZapierIntegrationsSetup     int     `json:"zapier_integrations_setup"`
	ProjectCompletionPercentage float64 `json:"project_completion_percentage"`

	// Package-specific milestone call dates
	LightOnboardingCallDate        *time.Time `json:"light_onboarding_call_date,omitempty"`
	PremiumFirstCallDate           *time.Time `json:"premium_first_call_date,omitempty"`
	PremiumSecondCallDate          *time.Time `json:"premium_second_call_date,omitempty"`
	GoldFirstCallDate              *time.Time `json:"gold_first_call_date,omitempty"`
	GoldSecondCallDate             *time.Time `json:"gold_second_call_date,omitempty"`
	GoldThirdCallDate              *time.Time `json:"gold_third_call_date,omitempty"`
	EliteConfigurationsStartedDate *time.Time `json:"elite_configurations_started_date,omitempty"`
	EliteVerificationCompletedDate *time.Time `json:"elite_verification_completed_date,omitempty"`

	GraduationDate    *time.Time `json:"graduation_date,omitempty"`
	ContractStartDate *time.Time `json:"contract_start_date,omitempty"`
	ContractEndDate   *time.Time `json:"contract_end_date,omitempty"`
	Churned           bool       `json:"churned"`

	StripeSubscriptionID string `json:"stripe_subscription_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FirstCallDate returns the onboarding first-call date for the client's
// package. tracked reports whether the package has a first-call concept
// at all; elite packages do not, so they never contribute to
// time-to-first-value. A nil date with tracked=true means the call has
// not happened yet.
func (c *ClientRecord) FirstCallDate() (date *time.Time, tracked bool) {
	switch c.SuccessPackage {
	case PackageLight:
		return c.LightOnboardingCallDate, true
	case PackagePremium:
		return c.PremiumFirstCallDate, true
	case PackageGold:
		return c.GoldFirstCallDate, true
	default:
		return nil, false
	}
}

// Graduated reports whether the client finished onboarding.
func (c *ClientRecord) Graduated() bool {
	return c.GraduationDate != nil
}

// AnnualBilling reports whether the client is invoiced on an annual
// contract and therefore participates in renewal risk windows.
func (c *ClientRecord) AnnualBilling() bool {
	return c.BillingType == BillingAnnually || c.BillingType == BillingYearly
}
