package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SchemaStatement is one named DDL step
type SchemaStatement struct {
	Name string
	SQL  string
}

// SectionSchema returns the DDL for the crime_sections table, in execution order.
// With drop set, an existing table is removed first.
func SectionSchema(dimensions int, drop bool) []SchemaStatement {
	var stmts []SchemaStatement
	stmts = append(stmts, SchemaStatement{
		Name: "pgvector extension",
		SQL:  "CREATE EXTENSION IF NOT EXISTS vector",
	})
	if drop {
		stmts = append(stmts, SchemaStatement{
			Name: "drop crime_sections",
			SQL:  "DROP TABLE IF EXISTS crime_sections CASCADE",
		})
	}
	stmts = append(stmts,
		SchemaStatement{
			Name: "crime_sections table",
			SQL: fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS crime_sections (
    bns_section_number TEXT PRIMARY KEY,
    bns_section_title TEXT NOT NULL DEFAULT '',
    bns_section_text TEXT NOT NULL DEFAULT '',
    keywords TEXT[] NOT NULL DEFAULT '{}',
    crime_category TEXT NOT NULL DEFAULT '',
    page_content TEXT NOT NULL,
    embedding vector(%d),
    created_at TIMESTAMP DEFAULT NOW()
)`, dimensions),
		},
		SchemaStatement{
			Name: "vector similarity search (HNSW)",
			SQL: `CREATE INDEX IF NOT EXISTS idx_crime_sections_embedding_hnsw ON crime_sections
USING hnsw (embedding vector_cosine_ops)
WITH (m = 16, ef_construction = 64)`,
		},
		SchemaStatement{
			Name: "keyword lookup (GIN)",
			SQL:  "CREATE INDEX IF NOT EXISTS idx_crime_sections_keywords ON crime_sections USING gin (keywords)",
		},
	)
	return stmts
}

// ApplySchema executes the statements in order and stops at the first failure
func ApplySchema(ctx context.Context, db *pgxpool.Pool, stmts []SchemaStatement) error {
	for _, st := range stmts {
		if _, err := db.Exec(ctx, st.SQL); err != nil {
			return fmt.Errorf("failed to apply %s: %w", st.Name, err)
		}
	}
	return nil
}
