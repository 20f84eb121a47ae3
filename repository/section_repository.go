package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/omeshsingh/bnsp/models"
)

// ErrSectionNotFound is returned when no section has the requested number
var ErrSectionNotFound = errors.New("section not found")

const sectionColumns = `
	bns_section_number,
	COALESCE(bns_section_title, ''),
	COALESCE(bns_section_text, ''),
	COALESCE(keywords, '{}'),
	COALESCE(crime_category, '')`

// SectionRepository handles database operations for BNS sections
type SectionRepository struct {
	db           *pgxpool.Pool
	queryTimeout time.Duration
}

// SectionRepositoryOption configures a SectionRepository
type SectionRepositoryOption func(*SectionRepository)

// WithQueryTimeout bounds every query issued by the repository
func WithQueryTimeout(d time.Duration) SectionRepositoryOption {
	return func(r *SectionRepository) {
		r.queryTimeout = d
	}
}

// NewSectionRepository creates a new section repository
func NewSectionRepository(db *pgxpool.Pool, opts ...SectionRepositoryOption) *SectionRepository {
	r := &SectionRepository{db: db}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *SectionRepository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.queryTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.queryTimeout)
}

// formatVector formats an embedding vector as a pgvector literal
func formatVector(embedding []float32) string {
	if len(embedding) == 0 {
		return "[]"
	}
	parts := make([]string, len(embedding))
	for i, v := range embedding {
		parts[i] = strconv.FormatFloat(float64(v), 'f', -1, 32)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// GetByNumber returns the section with exactly this number
func (r *SectionRepository) GetByNumber(ctx context.Context, number string) (*models.Section, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `SELECT` + sectionColumns + `
		FROM crime_sections
		WHERE bns_section_number = $1`

	var s models.Section
	err := r.db.QueryRow(ctx, query, number).Scan(
		&s.Number,
		&s.Title,
		&s.Text,
		&s.Keywords,
		&s.CrimeCategory,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSectionNotFound
		}
		return nil, fmt.Errorf("failed to get section: %w", err)
	}
	return &s, nil
}

// ListAll returns every section ordered by section number
func (r *SectionRepository) ListAll(ctx context.Context) ([]models.Section, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `SELECT` + sectionColumns + `
		FROM crime_sections
		ORDER BY bns_section_number`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query sections: %w", err)
	}
	defer rows.Close()

	var sections []models.Section
	for rows.Next() {
		var s models.Section
		if err := rows.Scan(&s.Number, &s.Title, &s.Text, &s.Keywords, &s.CrimeCategory); err != nil {
			return nil, fmt.Errorf("failed to scan section: %w", err)
		}
		sections = append(sections, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sections: %w", err)
	}

	return sections, nil
}

// SearchSimilar returns the limit sections closest to embedding by cosine distance
func (r *SectionRepository) SearchSimilar(
	ctx context.Context,
	embedding []float32,
	limit int,
) ([]models.SectionMetadata, error) {
	if len(embedding) == 0 {
		return nil, errors.New("embedding is empty")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `
		SELECT
			bns_section_number,
			COALESCE(bns_section_title, ''),
			COALESCE(crime_category, ''),
			page_content,
			embedding <=> $1::vector AS distance
		FROM crime_sections
		WHERE embedding IS NOT NULL
		ORDER BY embedding <=> $1::vector
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, formatVector(embedding), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search sections: %w", err)
	}
	defer rows.Close()

	var results []models.SectionMetadata
	for rows.Next() {
		var m models.SectionMetadata
		if err := rows.Scan(&m.Number, &m.Title, &m.CrimeCategory, &m.PageContent, &m.Distance); err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}
		results = append(results, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating search results: %w", err)
	}

	return results, nil
}

// Count returns the number of stored sections
func (r *SectionRepository) Count(ctx context.Context) (int, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM crime_sections`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count sections: %w", err)
	}
	return n, nil
}

// UpsertBatch inserts or replaces sections together with their document embeddings.
// embeddings[i] belongs to sections[i]; the whole batch commits or none of it does.
func (r *SectionRepository) UpsertBatch(ctx context.Context, sections []models.Section, embeddings [][]float32) error {
	if len(sections) != len(embeddings) {
		return fmt.Errorf("got %d embeddings for %d sections", len(embeddings), len(sections))
	}
	if len(sections) == 0 {
		return nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	query := `
		INSERT INTO crime_sections (
			bns_section_number, bns_section_title, bns_section_text,
			keywords, crime_category, page_content, embedding
		) VALUES ($1, $2, $3, $4, $5, $6, $7::vector)
		ON CONFLICT (bns_section_number) DO UPDATE SET
			bns_section_title = EXCLUDED.bns_section_title,
			bns_section_text = EXCLUDED.bns_section_text,
			keywords = EXCLUDED.keywords,
			crime_category = EXCLUDED.crime_category,
			page_content = EXCLUDED.page_content,
			embedding = EXCLUDED.embedding`

	batch := &pgx.Batch{}
	for i := range sections {
		s := &sections[i]
		keywords := s.Keywords
		if keywords == nil {
			keywords = []string{}
		}
		batch.Queue(query, s.Number, s.Title, s.Text, keywords, s.CrimeCategory, s.PageContent(), formatVector(embeddings[i]))
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to upsert sections: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit sections: %w", err)
	}
	return nil
}

// Ping checks database connectivity
func (r *SectionRepository) Ping(ctx context.Context) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	return r.db.Ping(ctx)
}
