package models

import (
	"time"

	"github.com/google/uuid"
)

// AnalyticsEventType identifies the kind of analytics event published on
// the event bus.
type AnalyticsEventType string

const (
	EventSummaryComputed AnalyticsEventType = "cs.summary_computed"
	EventClientAtRisk    AnalyticsEventType = "cs.client_at_risk"
	EventLowEngagement   AnalyticsEventType = "cs.low_engagement"
	EventRenewalWindow   AnalyticsEventType = "cs.renewal_window"
)

// AnalyticsEvent is the envelope for events emitted by the analytics
// engine and the at-risk monitor.
type AnalyticsEvent struct {
	ID        string                 `json:"id"`
	Type      AnalyticsEventType     `json:"type"`
	ClientID  string                 `json:"client_id,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
}

// NewAnalyticsEvent creates an event envelope with a fresh id and the
// current timestamp.
func NewAnalyticsEvent(eventType AnalyticsEventType, clientID string, payload map[string]interface{}) AnalyticsEvent {
	return AnalyticsEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		ClientID:  clientID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}
