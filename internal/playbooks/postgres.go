package playbooks

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
)

// PostgresStore persists playbooks and their embeddings in Postgres
// with the pgvector extension. It backs both store interfaces.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens the playbook database and ensures its schema.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open playbook database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping playbook database: %w", err)
	}

	store := &PostgresStore{db: db}
	if err := store.initializeSchema(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to initialize playbook schema: %w", err)
	}

	return store, nil
}

func (ps *PostgresStore) initializeSchema(ctx context.Context) error {
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS playbooks (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			content TEXT NOT NULL,
			category TEXT NOT NULL DEFAULT '',
			success_package TEXT NOT NULL DEFAULT '',
			tags JSONB NOT NULL DEFAULT '[]',
			times_applied BIGINT NOT NULL DEFAULT 0,
			published BOOLEAN NOT NULL DEFAULT false,
			metadata JSONB NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS playbook_embeddings (
			playbook_id TEXT PRIMARY KEY REFERENCES playbooks(id) ON DELETE CASCADE,
			embedding vector(1536) NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := ps.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	return nil
}

// Search returns the closest stored embeddings by cosine distance.
func (ps *PostgresStore) Search(ctx context.Context, embedding []float32, limit int, threshold float64) ([]VectorResult, error) {
	rows, err := ps.db.QueryContext(ctx,
		`SELECT playbook_id, 1 - (embedding <=> $1) AS score
		 FROM playbook_embeddings
		 ORDER BY embedding <=> $1
		 LIMIT $2`,
		pgvector.NewVector(embedding), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search embeddings: %w", err)
	}
	defer rows.Close()

	var results []VectorResult
	for rows.Next() {
		var r VectorResult
		if err := rows.Scan(&r.PlaybookID, &r.Score); err != nil {
			return nil, fmt.Errorf("failed to scan embedding row: %w", err)
		}
		if r.Score < threshold {
			continue
		}
		results = append(results, r)
	}

	return results, rows.Err()
}

// StoreEmbedding upserts a playbook's embedding.
func (ps *PostgresStore) StoreEmbedding(ctx context.Context, playbookID string, embedding []float32) error {
	_, err := ps.db.ExecContext(ctx,
		`INSERT INTO playbook_embeddings (playbook_id, embedding)
		 VALUES ($1, $2)
		 ON CONFLICT (playbook_id) DO UPDATE SET embedding = EXCLUDED.embedding`,
		playbookID, pgvector.NewVector(embedding))
	if err != nil {
		return fmt.Errorf("failed to store embedding for %s: %w", playbookID, err)
	}
	return nil
}

// GetPlaybook loads a single playbook by id.
func (ps *PostgresStore) GetPlaybook(ctx context.Context, id string) (*Playbook, error) {
	row := ps.db.QueryRowContext(ctx,
		`SELECT id, title, content, category, success_package, tags,
		        times_applied, published, metadata, created_at, updated_at
		 FROM playbooks WHERE id = $1`, id)

	var p Playbook
	var tags, metadata []byte
	err := row.Scan(&p.ID, &p.Title, &p.Content, &p.Category, &p.SuccessPackage,
		&tags, &p.TimesApplied, &p.Published, &metadata, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("playbook %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load playbook %s: %w", id, err)
	}

	if err := json.Unmarshal(tags, &p.Tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags for %s: %w", id, err)
	}
	if err := json.Unmarshal(metadata, &p.Metadata); err != nil {
		return nil, fmt.Errorf("failed to decode metadata for %s: %w", id, err)
	}

	return &p, nil
}

// CreatePlaybook inserts a playbook row.
func (ps *PostgresStore) CreatePlaybook(ctx context.Context, playbook *Playbook) error {
	tags, err := json.Marshal(playbook.Tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}
	metadata, err := json.Marshal(playbook.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	if playbook.Tags == nil {
		tags = []byte("[]")
	}
	if playbook.Metadata == nil {
		metadata = []byte("{}")
	}

	_, err = ps.db.ExecContext(ctx,
		`INSERT INTO playbooks (id, title, content, category, success_package,
		                        tags, times_applied, published, metadata, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		playbook.ID, playbook.Title, playbook.Content, playbook.Category, playbook.SuccessPackage,
		tags, playbook.TimesApplied, playbook.Published, metadata, playbook.CreatedAt, playbook.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert playbook %s: %w", playbook.ID, err)
	}
	return nil
}

// UpdatePlaybook rewrites a playbook row.
func (ps *PostgresStore) UpdatePlaybook(ctx context.Context, playbook *Playbook) error {
	tags, err := json.Marshal(playbook.Tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}
	metadata, err := json.Marshal(playbook.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}

	_, err = ps.db.ExecContext(ctx,
		`UPDATE playbooks
		 SET title = $2, content = $3, category = $4, success_package = $5,
		     tags = $6, times_applied = $7, published = $8, metadata = $9, updated_at = $10
		 WHERE id = $1`,
		playbook.ID, playbook.Title, playbook.Content, playbook.Category, playbook.SuccessPackage,
		tags, playbook.TimesApplied, playbook.Published, metadata, playbook.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update playbook %s: %w", playbook.ID, err)
	}
	return nil
}

// Close closes the database handle.
func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}
