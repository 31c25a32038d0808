package kafka

import (
	"fmt"
	"log"
	"net"
	"strconv"

	"github.com/segmentio/kafka-go"
)

// TopicConfig defines Kafka topic configuration
type TopicConfig struct {
	Name              string
	Partitions        int
	ReplicationFactor int
	RetentionMs       int64
	CleanupPolicy     string
	KeyField          string
}

// Topics defines all Kafka topics published by the analytics service
var Topics = map[string]TopicConfig{
	"cs.summary_computed": {
		Name:              "cs.summary_computed",
		Partitions:        4,
		ReplicationFactor: 3,
		RetentionMs:       604800000, // 7 days
		CleanupPolicy:     "delete",
	},
	"cs.client_at_risk": {
		Name:              "cs.client_at_risk",
		Partitions:        8,
		ReplicationFactor: 3,
		RetentionMs:       2592000000, // 30 days
		CleanupPolicy:     "delete",
		KeyField:          "client_id",
	},
	"cs.low_engagement": {
		Name:              "cs.low_engagement",
		Partitions:        8,
		ReplicationFactor: 3,
		RetentionMs:       2592000000, // 30 days
		CleanupPolicy:     "delete",
		KeyField:          "client_id",
	},
	"cs.renewal_window": {
		Name:              "cs.renewal_window",
		Partitions:        4,
		ReplicationFactor: 3,
		RetentionMs:       7776000000, // 90 days
		CleanupPolicy:     "delete",
		KeyField:          "client_id",
	},

	// Dead letter queue
	"cs.events.dlq": {
		Name:              "cs.events.dlq",
		Partitions:        4,
		ReplicationFactor: 3,
		RetentionMs:       2592000000, // 30 days
		CleanupPolicy:     "delete",
	},
}

// TopicManager handles Kafka topic creation and management
type TopicManager struct {
	brokers []string
}

// NewTopicManager creates a new topic manager
func NewTopicManager(brokers []string) *TopicManager {
	return &TopicManager{
		brokers: brokers,
	}
}

// CreateTopics creates all Kafka topics if they don't exist
func (tm *TopicManager) CreateTopics() error {
	conn, err := kafka.Dial("tcp", tm.brokers[0])
	if err != nil {
		return fmt.Errorf("failed to connect to Kafka broker: %v", err)
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("failed to get controller: %v", err)
	}

	controllerConn, err := kafka.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return fmt.Errorf("failed to connect to controller: %v", err)
	}
	defer controllerConn.Close()

	for topicName, config := range Topics {
		topicConfigs := []kafka.TopicConfig{
			{
				Topic:             config.Name,
				NumPartitions:     config.Partitions,
				ReplicationFactor: config.ReplicationFactor,
				ConfigEntries: []kafka.ConfigEntry{
					{
						ConfigName:  "retention.ms",
						ConfigValue: fmt.Sprintf("%d", config.RetentionMs),
					},
					{
						ConfigName:  "cleanup.policy",
						ConfigValue: config.CleanupPolicy,
					},
				},
			},
		}

		err := controllerConn.CreateTopics(topicConfigs...)
		if err != nil {
			// Topic might already exist, log warning but continue
			log.Printf("Warning creating topic %s: %v", topicName, err)
		} else {
			log.Printf("Created topic: %s", topicName)
		}
	}

	return nil
}
