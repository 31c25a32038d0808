package playbooks

import (
	"time"
)

// Playbook is a reusable success-team runbook for a recurring client
// situation (stalled onboarding, low engagement, renewal at risk).
type Playbook struct {
	ID             string                 `json:"id"`
	Title          string                 `json:"title"`
	Content        string                 `json:"content"`
	Category       string                 `json:"category"`
	SuccessPackage string                 `json:"success_package,omitempty"`
	Tags           []string               `json:"tags"`
	TimesApplied   int64                  `json:"times_applied"`
	Published      bool                   `json:"published"`
	Metadata       map[string]interface{} `json:"metadata"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
	Embedding      []float32              `json:"-"`
}

// Suggestion pairs a playbook with its similarity to the query.
type Suggestion struct {
	Playbook  *Playbook `json:"playbook"`
	Score     float64   `json:"score"`
	Relevance string    `json:"relevance"` // exact, high, medium, low
}

// Config holds the playbook suggestion settings.
type Config struct {
	OpenAIAPIKey        string  `yaml:"openai_api_key"`
	EmbeddingModel      string  `yaml:"embedding_model"`
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	MaxResults          int     `yaml:"max_results"`
}
