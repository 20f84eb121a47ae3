package service

import (
	"context"
	"fmt"

	"github.com/omeshsingh/bnsp/llm"
	"github.com/omeshsingh/bnsp/models"
)

// DefaultTopK is the number of sections retrieved per query
const DefaultTopK = 5

// VectorSearcher finds the sections nearest to an embedding
type VectorSearcher interface {
	SearchSimilar(ctx context.Context, embedding []float32, limit int) ([]models.SectionMetadata, error)
}

// SemanticRetriever embeds free text and returns the closest sections
type SemanticRetriever struct {
	embedder llm.Embedder
	searcher VectorSearcher
	topK     int
}

// NewSemanticRetriever creates a retriever; topK <= 0 uses DefaultTopK
func NewSemanticRetriever(embedder llm.Embedder, searcher VectorSearcher, topK int) *SemanticRetriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &SemanticRetriever{embedder: embedder, searcher: searcher, topK: topK}
}

// Retrieve returns up to topK sections ordered by similarity to query
func (r *SemanticRetriever) Retrieve(ctx context.Context, query string) ([]models.SectionMetadata, error) {
	vec, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	docs, err := r.searcher.SearchSimilar(ctx, vec, r.topK)
	if err != nil {
		return nil, fmt.Errorf("failed to search sections: %w", err)
	}
	return docs, nil
}
