package playbooks

import (
	"context"
)

type VectorStore interface {
	Search(ctx context.Context, embedding []float32, limit int, threshold float64) ([]VectorResult, error)
	StoreEmbedding(ctx context.Context, playbookID string, embedding []float32) error
}

type VectorResult struct {
	PlaybookID string
	Score      float64
}

type PlaybookStore interface {
	GetPlaybook(ctx context.Context, id string) (*Playbook, error)
	CreatePlaybook(ctx context.Context, playbook *Playbook) error
	UpdatePlaybook(ctx context.Context, playbook *Playbook) error
}
