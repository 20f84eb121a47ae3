package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/omeshsingh/bnsp/models"
)

type mockSectionStore struct {
	mock.Mock
}

func (m *mockSectionStore) GetByNumber(ctx context.Context, number string) (*models.Section, error) {
	args := m.Called(ctx, number)
	if s, ok := args.Get(0).(*models.Section); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSectionStore) ListAll(ctx context.Context) ([]models.Section, error) {
	args := m.Called(ctx)
	if s, ok := args.Get(0).([]models.Section); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockRetriever struct {
	mock.Mock
}

func (m *mockRetriever) Retrieve(ctx context.Context, query string) ([]models.SectionMetadata, error) {
	args := m.Called(ctx, query)
	if d, ok := args.Get(0).([]models.SectionMetadata); ok {
		return d, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

type mockEmbedder struct {
	mock.Mock
}

func (m *mockEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if v, ok := args.Get(0).([]float32); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	args := m.Called(ctx, texts)
	switch v := args.Get(0).(type) {
	case func(context.Context, []string) [][]float32:
		return v(ctx, texts), args.Error(1)
	case [][]float32:
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockSearcher struct {
	mock.Mock
}

func (m *mockSearcher) SearchSimilar(ctx context.Context, embedding []float32, limit int) ([]models.SectionMetadata, error) {
	args := m.Called(ctx, embedding, limit)
	if d, ok := args.Get(0).([]models.SectionMetadata); ok {
		return d, args.Error(1)
	}
	return nil, args.Error(1)
}
