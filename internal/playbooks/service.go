// Package playbooks suggests success-team runbooks for a client
// situation using embedding similarity over the playbook library.
package playbooks

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai"

	"github.com/clientpulse/pkg/models"
)

type embeddingClient interface {
	CreateEmbeddings(ctx context.Context, req openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error)
}

type Service struct {
	vectorStore   VectorStore
	playbookStore PlaybookStore
	openaiClient  embeddingClient
	config        Config
	model         openai.EmbeddingModel
}

func NewService(vectorStore VectorStore, playbookStore PlaybookStore, config Config) *Service {
	return &Service{
		vectorStore:   vectorStore,
		playbookStore: playbookStore,
		openaiClient:  openai.NewClient(config.OpenAIAPIKey),
		config:        config,
		model:         resolveEmbeddingModel(config.EmbeddingModel),
	}
}

// resolveEmbeddingModel maps a configured model name onto the client's
// model type, falling back to ada-002 for unknown names.
func resolveEmbeddingModel(name string) openai.EmbeddingModel {
	if name == "" {
		return openai.AdaEmbeddingV2
	}
	var model openai.EmbeddingModel
	if err := model.UnmarshalText([]byte(name)); err != nil || model == openai.Unknown {
		log.Printf("Unknown embedding model %q, using %s", name, openai.AdaEmbeddingV2)
		return openai.AdaEmbeddingV2
	}
	return model
}

// Suggest returns playbooks relevant to a free-text situation, best
// match first.
func (s *Service) Suggest(ctx context.Context, query string) ([]Suggestion, error) {
	embedding, err := s.generateEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %v", err)
	}

	vectorResults, err := s.vectorStore.Search(ctx, embedding, s.config.MaxResults, s.config.SimilarityThreshold)
	if err != nil {
		return nil, fmt.Errorf("failed to search vectors: %v", err)
	}

	suggestions := make([]Suggestion, 0, len(vectorResults))
	for _, vr := range vectorResults {
		playbook, err := s.playbookStore.GetPlaybook(ctx, vr.PlaybookID)
		if err != nil {
			log.Printf("Failed to get playbook %s: %v", vr.PlaybookID, err)
			continue
		}

		if !playbook.Published {
			continue
		}

		suggestions = append(suggestions, Suggestion{
			Playbook:  playbook,
			Score:     vr.Score,
			Relevance: relevanceLevel(vr.Score),
		})
	}

	sort.Slice(suggestions, func(i, j int) bool {
		return suggestions[i].Score > suggestions[j].Score
	})

	return suggestions, nil
}

// SuggestForClient builds a situation query from the client's package,
// engagement state and the given reason, then suggests playbooks.
func (s *Service) SuggestForClient(ctx context.Context, client models.ClientRecord, reason string) ([]Suggestion, error) {
	var parts []string
	parts = append(parts, fmt.Sprintf("success package %s", client.SuccessPackage))
	if client.PlanType != "" {
		parts = append(parts, fmt.Sprintf("plan %s", client.PlanType))
	}
	if !client.Graduated() {
		parts = append(parts, "not graduated")
	}
	if reason != "" {
		parts = append(parts, reason)
	}

	suggestions, err := s.Suggest(ctx, strings.Join(parts, ", "))
	if err != nil {
		return nil, err
	}

	// Prefer playbooks written for this package tier.
	filtered := suggestions[:0]
	for _, sg := range suggestions {
		if sg.Playbook.SuccessPackage == "" || sg.Playbook.SuccessPackage == string(client.SuccessPackage) {
			filtered = append(filtered, sg)
		}
	}

	return filtered, nil
}

// AddPlaybook stores a playbook and its embedding.
func (s *Service) AddPlaybook(ctx context.Context, playbook *Playbook) error {
	if playbook.ID == "" {
		playbook.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if playbook.CreatedAt.IsZero() {
		playbook.CreatedAt = now
	}
	playbook.UpdatedAt = now

	embedding, err := s.generateEmbedding(ctx, fmt.Sprintf("%s\n\n%s", playbook.Title, playbook.Content))
	if err != nil {
		return fmt.Errorf("failed to generate embedding for playbook %s: %v", playbook.ID, err)
	}
	playbook.Embedding = embedding

	if err := s.playbookStore.CreatePlaybook(ctx, playbook); err != nil {
		return fmt.Errorf("failed to create playbook %s: %v", playbook.ID, err)
	}

	if err := s.vectorStore.StoreEmbedding(ctx, playbook.ID, embedding); err != nil {
		return fmt.Errorf("failed to store embedding for playbook %s: %v", playbook.ID, err)
	}

	return nil
}

// TrackApplication counts a playbook being applied to a client.
func (s *Service) TrackApplication(ctx context.Context, playbookID string) error {
	playbook, err := s.playbookStore.GetPlaybook(ctx, playbookID)
	if err != nil {
		return err
	}

	playbook.TimesApplied++
	playbook.UpdatedAt = time.Now().UTC()

	return s.playbookStore.UpdatePlaybook(ctx, playbook)
}

func (s *Service) generateEmbedding(ctx context.Context, text string) ([]float32, error) {
	resp, err := s.openaiClient.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: s.model,
	})
	if err != nil {
		return nil, err
	}
	return resp.Data[0].Embedding, nil
}

func relevanceLevel(score float64) string {
	if score > 0.9 {
		return "exact"
	}
	if score > 0.7 {
		return "high"
	}
	if score > 0.5 {
		return "medium"
	}
	return "low"
}
