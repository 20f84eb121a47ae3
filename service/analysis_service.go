package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/omeshsingh/bnsp/llm"
	"github.com/omeshsingh/bnsp/logger"
	"github.com/omeshsingh/bnsp/models"
)

// Retriever returns the sections most relevant to a free-text query
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]models.SectionMetadata, error)
}

// AnalysisService runs the retrieval-augmented analysis and IPC mapping pipelines
type AnalysisService struct {
	retriever Retriever
	generator llm.Generator
}

// AnalysisServiceOption is a functional option for AnalysisService
type AnalysisServiceOption func(*AnalysisService)

// WithRetriever sets the context retriever
func WithRetriever(r Retriever) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.retriever = r
	}
}

// WithGenerator sets the text generator
func WithGenerator(g llm.Generator) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.generator = g
	}
}

// NewAnalysisService creates a new analysis service
func NewAnalysisService(opts ...AnalysisServiceOption) *AnalysisService {
	s := &AnalysisService{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AnalyseDescriptionRequest represents a crime description to analyse
type AnalyseDescriptionRequest struct {
	Description string
}

// ConvertIPCRequest represents an IPC section to map onto BNS
type ConvertIPCRequest struct {
	IPCSection  string
	Description string // optional; synthesised from the IPC section when blank
}

// AnalysisResult holds the generated analysis and the sections it was grounded on
type AnalysisResult struct {
	Analysis models.Analysis
}

// AnalyseDescription suggests BNS sections for a free-text crime description
func (s *AnalysisService) AnalyseDescription(ctx context.Context, req AnalyseDescriptionRequest) (*AnalysisResult, error) {
	if strings.TrimSpace(req.Description) == "" {
		return nil, validationError("description is required")
	}
	if err := s.ready(); err != nil {
		return nil, err
	}
	log := logger.FromContext(ctx)

	docs, err := s.retriever.Retrieve(ctx, req.Description)
	if err != nil {
		log.Error("Failed to retrieve context", zap.Error(err))
		return nil, upstream("retrieve context", err)
	}

	text, err := s.generator.Generate(ctx, renderAnalysisPrompt(req.Description, docs))
	if err != nil {
		log.Error("Failed to generate analysis", zap.Error(err))
		return nil, upstream("generate analysis", err)
	}

	log.Info("Analysed description", zap.Int("context_sections", len(docs)))
	return newAnalysisResult(text, docs), nil
}

// ConvertIPCToBNS maps an IPC section to the most relevant BNS sections.
// Without a description the search query is first synthesised by the generator.
func (s *AnalysisService) ConvertIPCToBNS(ctx context.Context, req ConvertIPCRequest) (*AnalysisResult, error) {
	if strings.TrimSpace(req.IPCSection) == "" {
		return nil, validationError("ipc_section is required")
	}
	if err := s.ready(); err != nil {
		return nil, err
	}
	log := logger.FromContext(ctx).With(zap.String("ipc_section", req.IPCSection))

	query := req.Description
	if strings.TrimSpace(query) == "" {
		synthesised, err := s.generator.Generate(ctx, renderSynthesisPrompt(req.IPCSection))
		if err != nil {
			log.Error("Failed to synthesise IPC description", zap.Error(err))
			return nil, upstream("synthesise description", err)
		}
		query = strings.TrimSpace(synthesised)
		log.Debug("Synthesised IPC description", zap.String("description", query))
	}

	docs, err := s.retriever.Retrieve(ctx, query)
	if err != nil {
		log.Error("Failed to retrieve context", zap.Error(err))
		return nil, upstream("retrieve context", err)
	}

	text, err := s.generator.Generate(ctx, renderMappingPrompt(req.IPCSection, query, docs))
	if err != nil {
		log.Error("Failed to generate mapping", zap.Error(err))
		return nil, upstream("generate mapping", err)
	}

	log.Info("Mapped IPC section", zap.Int("context_sections", len(docs)))
	return newAnalysisResult(text, docs), nil
}

func (s *AnalysisService) ready() error {
	if s.retriever == nil {
		return errors.New("retriever not set")
	}
	if s.generator == nil {
		return errors.New("generator not set")
	}
	return nil
}

func newAnalysisResult(text string, docs []models.SectionMetadata) *AnalysisResult {
	suggested := make([]models.SectionMetadata, len(docs))
	copy(suggested, docs)
	return &AnalysisResult{Analysis: models.Analysis{Text: text, SuggestedSections: suggested}}
}
