package playbooks

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/sashabaranov/go-openai"

	"github.com/clientpulse/pkg/models"
)

type fakeEmbedder struct {
	queries []string
	models  []openai.EmbeddingModel
}

func (f *fakeEmbedder) CreateEmbeddings(ctx context.Context, req openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error) {
	if r, ok := req.(openai.EmbeddingRequest); ok {
		f.models = append(f.models, r.Model)
		if inputs, ok := r.Input.([]string); ok && len(inputs) > 0 {
			f.queries = append(f.queries, inputs[0])
		}
	}
	return openai.EmbeddingResponse{
		Data: []openai.Embedding{{Embedding: []float32{0.1, 0.2, 0.3}}},
	}, nil
}

type fakeVectorStore struct {
	results []VectorResult
}

func (f *fakeVectorStore) Search(ctx context.Context, embedding []float32, limit int, threshold float64) ([]VectorResult, error) {
	return f.results, nil
}

func (f *fakeVectorStore) StoreEmbedding(ctx context.Context, playbookID string, embedding []float32) error {
	return nil
}

type fakePlaybookStore struct {
	playbooks map[string]*Playbook
}

func (f *fakePlaybookStore) GetPlaybook(ctx context.Context, id string) (*Playbook, error) {
	p, ok := f.playbooks[id]
	if !ok {
		return nil, fmt.Errorf("playbook %s not found", id)
	}
	return p, nil
}

func (f *fakePlaybookStore) CreatePlaybook(ctx context.Context, playbook *Playbook) error {
	f.playbooks[playbook.ID] = playbook
	return nil
}

func (f *fakePlaybookStore) UpdatePlaybook(ctx context.Context, playbook *Playbook) error {
	f.playbooks[playbook.ID] = playbook
	return nil
}

func newTestService(vectors *fakeVectorStore, store *fakePlaybookStore) (*Service, *fakeEmbedder) {
	embedder := &fakeEmbedder{}
	config := Config{
		EmbeddingModel:      "text-embedding-ada-002",
		MaxResults:          5,
		SimilarityThreshold: 0.5,
	}
	svc := &Service{
		vectorStore:   vectors,
		playbookStore: store,
		openaiClient:  embedder,
		config:        config,
		model:         resolveEmbeddingModel(config.EmbeddingModel),
	}
	return svc, embedder
}

func TestResolveEmbeddingModel(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  openai.EmbeddingModel
	}{
		{"configured ada-002", "text-embedding-ada-002", openai.AdaEmbeddingV2},
		{"empty falls back", "", openai.AdaEmbeddingV2},
		{"unknown falls back", "not-a-model", openai.AdaEmbeddingV2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolveEmbeddingModel(tt.input); got != tt.want {
				t.Errorf("resolveEmbeddingModel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestGenerateEmbeddingUsesConfiguredModel(t *testing.T) {
	svc, embedder := newTestService(&fakeVectorStore{}, &fakePlaybookStore{playbooks: map[string]*Playbook{}})

	if _, err := svc.Suggest(context.Background(), "renewal at risk"); err != nil {
		t.Fatalf("Suggest returned error: %v", err)
	}

	if len(embedder.models) != 1 {
		t.Fatalf("embedded %d requests, want 1", len(embedder.models))
	}
	if embedder.models[0] != openai.AdaEmbeddingV2 {
		t.Errorf("request model = %v, want %v", embedder.models[0], openai.AdaEmbeddingV2)
	}
}

func TestSuggestOrdersByScoreAndSkipsUnpublished(t *testing.T) {
	vectors := &fakeVectorStore{results: []VectorResult{
		{PlaybookID: "p1", Score: 0.6},
		{PlaybookID: "p2", Score: 0.95},
		{PlaybookID: "p3", Score: 0.8},
	}}
	store := &fakePlaybookStore{playbooks: map[string]*Playbook{
		"p1": {ID: "p1", Title: "Re-engage", Published: true},
		"p2": {ID: "p2", Title: "Draft", Published: false},
		"p3": {ID: "p3", Title: "Renewal save", Published: true},
	}}

	svc, _ := newTestService(vectors, store)

	suggestions, err := svc.Suggest(context.Background(), "client stopped responding")
	if err != nil {
		t.Fatalf("Suggest returned error: %v", err)
	}

	if len(suggestions) != 2 {
		t.Fatalf("got %d suggestions, want 2", len(suggestions))
	}
	if suggestions[0].Playbook.ID != "p3" || suggestions[1].Playbook.ID != "p1" {
		t.Errorf("suggestion order = [%s %s], want [p3 p1]",
			suggestions[0].Playbook.ID, suggestions[1].Playbook.ID)
	}
	if suggestions[0].Relevance != "high" {
		t.Errorf("relevance = %s, want high", suggestions[0].Relevance)
	}
}

func TestSuggestForClientFiltersByPackage(t *testing.T) {
	vectors := &fakeVectorStore{results: []VectorResult{
		{PlaybookID: "generic", Score: 0.7},
		{PlaybookID: "gold-only", Score: 0.9},
	}}
	store := &fakePlaybookStore{playbooks: map[string]*Playbook{
		"generic":   {ID: "generic", Published: true},
		"gold-only": {ID: "gold-only", SuccessPackage: "gold", Published: true},
	}}

	svc, embedder := newTestService(vectors, store)

	client := models.ClientRecord{
		ID:             "c1",
		SuccessPackage: models.PackagePremium,
		PlanType:       "pro",
	}

	suggestions, err := svc.SuggestForClient(context.Background(), client, "no calls scheduled")
	if err != nil {
		t.Fatalf("SuggestForClient returned error: %v", err)
	}

	if len(suggestions) != 1 || suggestions[0].Playbook.ID != "generic" {
		t.Fatalf("got %v, want only the generic playbook", suggestions)
	}
	if len(embedder.queries) != 1 {
		t.Fatalf("embedded %d queries, want 1", len(embedder.queries))
	}
	query := embedder.queries[0]
	for _, want := range []string{"premium", "pro", "no calls scheduled"} {
		if !strings.Contains(query, want) {
			t.Errorf("query %q missing %q", query, want)
		}
	}
}

func TestTrackApplication(t *testing.T) {
	store := &fakePlaybookStore{playbooks: map[string]*Playbook{
		"p1": {ID: "p1", Published: true, TimesApplied: 2},
	}}
	svc, _ := newTestService(&fakeVectorStore{}, store)

	if err := svc.TrackApplication(context.Background(), "p1"); err != nil {
		t.Fatalf("TrackApplication returned error: %v", err)
	}
	if got := store.playbooks["p1"].TimesApplied; got != 3 {
		t.Errorf("times applied = %d, want 3", got)
	}
}
