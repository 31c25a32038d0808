// Package store provides the Neo4j-backed read side of the client data
// set consumed by the analytics engine.
package store

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/clientpulse/pkg/models"
)

// Config represents Neo4j store configuration
type Config struct {
	URI         string
	Database    string
	Username    string
	Password    string
	MaxPoolSize int
	ConnTimeout time.Duration
}

// Neo4jStore implements the analytics Store interface over a Neo4j
// database populated by the CRUD layer.
type Neo4jStore struct {
	driver neo4j.DriverWithContext
	config Config
}

// NewNeo4jStore creates a new Neo4j client store
func NewNeo4jStore(config Config) (*Neo4jStore, error) {
	driver, err := neo4j.NewDriverWithContext(
		config.URI,
		neo4j.BasicAuth(config.Username, config.Password, ""),
		func(c *neo4j.Config) {
			c.MaxConnectionPoolSize = config.MaxPoolSize
			c.MaxConnectionLifetime = time.Hour
			c.ConnectionAcquisitionTimeout = config.ConnTimeout
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Neo4j driver: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("failed to verify Neo4j connectivity: %w", err)
	}

	s := &Neo4jStore{driver: driver, config: config}

	if err := s.initializeSchema(ctx); err != nil {
		log.Printf("Warning: failed to initialize schema: %v", err)
	}

	return s, nil
}

// initializeSchema creates constraints and indexes for the labels the
// store reads. Creation is idempotent.
func (s *Neo4jStore) initializeSchema(ctx context.Context) error {
	session := s.newSession(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	statements := []string{
		"CREATE CONSTRAINT client_id IF NOT EXISTS FOR (c:Client) REQUIRE c.id IS UNIQUE",
		"CREATE CONSTRAINT activity_id IF NOT EXISTS FOR (a:Activity) REQUIRE a.id IS UNIQUE",
		"CREATE CONSTRAINT group_id IF NOT EXISTS FOR (g:ActivityGroup) REQUIRE g.id IS UNIQUE",
		"CREATE CONSTRAINT milestone_id IF NOT EXISTS FOR (m:Milestone) REQUIRE m.id IS UNIQUE",
		"CREATE INDEX activity_started_at IF NOT EXISTS FOR (a:Activity) ON (a.started_at)",
		"CREATE INDEX milestone_client IF NOT EXISTS FOR (m:Milestone) ON (m.client_id)",
	}

	for _, stmt := range statements {
		if _, err := session.Run(ctx, stmt, nil); err != nil {
			return fmt.Errorf("failed to run %q: %w", stmt, err)
		}
	}

	return nil
}

func (s *Neo4jStore) newSession(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   mode,
		DatabaseName: s.config.Database,
	})
}

// FetchClients returns the full client snapshot.
func (s *Neo4jStore) FetchClients(ctx context.Context) ([]models.ClientRecord, error) {
	session := s.newSession(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	result, err := session.Run(ctx, "MATCH (c:Client) RETURN c ORDER BY c.created_at", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query clients: %w", err)
	}

	records, err := result.Collect(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to collect clients: %w", err)
	}

	clients := make([]models.ClientRecord, 0, len(records))
	for _, record := range records {
		node, ok := record.Values[0].(neo4j.Node)
		if !ok {
			continue
		}
		clients = append(clients, clientFromNode(node))
	}

	return clients, nil
}

// FetchActivities returns activity intervals starting inside the range.
func (s *Neo4jStore) FetchActivities(ctx context.Context, r models.TimeRange) ([]models.ActivityInterval, error) {
	session := s.newSession(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	result, err := session.Run(ctx,
		`MATCH (a:Activity)
		 WHERE a.started_at >= $start AND a.started_at <= $end
		 RETURN a ORDER BY a.started_at`,
		map[string]any{"start": r.Start, "end": r.End})
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}

	records, err := result.Collect(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to collect activities: %w", err)
	}

	intervals := make([]models.ActivityInterval, 0, len(records))
	for _, record := range records {
		node, ok := record.Values[0].(neo4j.Node)
		if !ok {
			continue
		}
		intervals = append(intervals, activityFromNode(node))
	}

	return intervals, nil
}

// FetchGroups returns activity groups whose members start inside the
// range, with their member activities in order.
func (s *Neo4jStore) FetchGroups(ctx context.Context, r models.TimeRange) ([]models.ActivityGroup, error) {
	session := s.newSession(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	result, err := session.Run(ctx,
		`MATCH (g:ActivityGroup)-[:CONTAINS]->(a:Activity)
		 WHERE a.started_at >= $start AND a.started_at <= $end
		 WITH g, a ORDER BY a.started_at
		 RETURN g, collect(a) AS members`,
		map[string]any{"start": r.Start, "end": r.End})
	if err != nil {
		return nil, fmt.Errorf("failed to query activity groups: %w", err)
	}

	records, err := result.Collect(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to collect activity groups: %w", err)
	}

	groups := make([]models.ActivityGroup, 0, len(records))
	for _, record := range records {
		node, ok := record.Values[0].(neo4j.Node)
		if !ok {
			continue
		}

		group := models.ActivityGroup{
			ID:       stringProp(node.Props, "id"),
			ClientID: stringProp(node.Props, "client_id"),
		}

		if members, ok := record.Values[1].([]any); ok {
			for _, member := range members {
				memberNode, ok := member.(neo4j.Node)
				if !ok {
					continue
				}
				group.Activities = append(group.Activities, models.GroupActivity{
					StartedAt:       timeValue(memberNode.Props, "started_at"),
					EndedAt:         timeValue(memberNode.Props, "ended_at"),
					DurationSeconds: intProp(memberNode.Props, "duration_seconds"),
				})
			}
		}

		groups = append(groups, group)
	}

	return groups, nil
}

// FetchMilestones returns one client's milestones in sequence order.
func (s *Neo4jStore) FetchMilestones(ctx context.Context, clientID string) ([]models.MilestoneRecord, error) {
	session := s.newSession(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	result, err := session.Run(ctx,
		`MATCH (m:Milestone {client_id: $client_id})
		 RETURN m ORDER BY m.order_index`,
		map[string]any{"client_id": clientID})
	if err != nil {
		return nil, fmt.Errorf("failed to query milestones: %w", err)
	}

	records, err := result.Collect(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to collect milestones: %w", err)
	}

	milestones := make([]models.MilestoneRecord, 0, len(records))
	for _, record := range records {
		node, ok := record.Values[0].(neo4j.Node)
		if !ok {
			continue
		}
		milestones = append(milestones, models.MilestoneRecord{
			ID:            stringProp(node.Props, "id"),
			ClientID:      stringProp(node.Props, "client_id"),
			OrderIndex:    int(intProp(node.Props, "order_index")),
			Status:        models.MilestoneStatus(stringProp(node.Props, "status")),
			Category:      stringProp(node.Props, "category"),
			EstimatedDays: int(intProp(node.Props, "estimated_days")),
			CompletedAt:   timeProp(node.Props, "completed_at"),
		})
	}

	return milestones, nil
}

// Ping verifies store connectivity.
func (s *Neo4jStore) Ping(ctx context.Context) error {
	return s.driver.VerifyConnectivity(ctx)
}

// Close releases the underlying driver.
func (s *Neo4jStore) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

func clientFromNode(node neo4j.Node) models.ClientRecord {
	props := node.Props
	return models.ClientRecord{
		ID:                    stringProp(props, "id"),
		Name:                  stringProp(props, "name"),
		Status:                models.ClientStatus(stringProp(props, "status")),
		SuccessPackage:        models.SuccessPackage(stringProp(props, "success_package")),
		PlanType:              stringProp(props, "plan_type"),
		BillingType:           models.BillingType(stringProp(props, "billing_type")),
		RevenueAmount:         floatProp(props, "revenue_amount"),
		ImplementationManager: stringProp(props, "implementation_manager"),

		CallsCompleted:              int(intProp(props, "calls_completed")),
		CallsScheduled:              int(intProp(props, "calls_scheduled")),
		FormsSetup:                  int(intProp(props, "forms_setup")),
		ZapierIntegrationsSetup:     int(intProp(props, "zapier_integrations_setup")),
		ProjectCompletionPercentage: floatProp(props, "project_completion_percentage"),

		LightOnboardingCallDate:        timeProp(props, "light_onboarding_call_date"),
		PremiumFirstCallDate:           timeProp(props, "premium_first_call_date"),
		PremiumSecondCallDate:          timeProp(props, "premium_second_call_date"),
		GoldFirstCallDate:              timeProp(props, "gold_first_call_date"),
		GoldSecondCallDate:             timeProp(props, "gold_second_call_date"),
		GoldThirdCallDate:              timeProp(props, "gold_third_call_date"),
		EliteConfigurationsStartedDate: timeProp(props, "elite_configurations_started_date"),
		EliteVerificationCompletedDate: timeProp(props, "elite_verification_completed_date"),

		GraduationDate:    timeProp(props, "graduation_date"),
		ContractStartDate: timeProp(props, "contract_start_date"),
		ContractEndDate:   timeProp(props, "contract_end_date"),
		Churned:           boolProp(props, "churned"),

		StripeSubscriptionID: stringProp(props, "stripe_subscription_id"),

		CreatedAt: timeValue(props, "created_at"),
		UpdatedAt: timeValue(props, "updated_at"),
	}
}

func activityFromNode(node neo4j.Node) models.ActivityInterval {
	props := node.Props
	return models.ActivityInterval{
		ID:              stringProp(props, "id"),
		StartedAt:       timeValue(props, "started_at"),
		EndedAt:         timeValue(props, "ended_at"),
		DurationSeconds: intProp(props, "duration_seconds"),
		ClientID:        stringProp(props, "client_id"),
		GroupID:         stringProp(props, "group_id"),
		Hidden:          boolProp(props, "is_hidden"),
	}
}

func stringProp(props map[string]any, key string) string {
	if v, ok := props[key].(string); ok {
		return v
	}
	return ""
}

func intProp(props map[string]any, key string) int64 {
	switch v := props[key].(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	}
	return 0
}

func floatProp(props map[string]any, key string) float64 {
	switch v := props[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	}
	return 0
}

func boolProp(props map[string]any, key string) bool {
	if v, ok := props[key].(bool); ok {
		return v
	}
	return false
}

func timeValue(props map[string]any, key string) time.Time {
	if v, ok := props[key].(time.Time); ok {
		return v
	}
	return time.Time{}
}

func timeProp(props map[string]any, key string) *time.Time {
	if v, ok := props[key].(time.Time); ok {
		return &v
	}
	return nil
}
