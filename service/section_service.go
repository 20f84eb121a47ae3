package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/omeshsingh/bnsp/logger"
	"github.com/omeshsingh/bnsp/models"
	"github.com/omeshsingh/bnsp/repository"
)

// SectionStore is the read side of the section collection
type SectionStore interface {
	GetByNumber(ctx context.Context, number string) (*models.Section, error)
	ListAll(ctx context.Context) ([]models.Section, error)
}

// SectionService handles keyword suggestions and section lookups
type SectionService struct {
	store SectionStore
}

// SectionServiceOption is a functional option for SectionService
type SectionServiceOption func(*SectionService)

// WithSectionStore sets the section store
func WithSectionStore(store SectionStore) SectionServiceOption {
	return func(s *SectionService) {
		s.store = store
	}
}

// NewSectionService creates a new section service
func NewSectionService(opts ...SectionServiceOption) *SectionService {
	s := &SectionService{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SuggestSectionsRequest represents a keyword suggestion request
type SuggestSectionsRequest struct {
	Keywords []string
}

// SuggestSectionsResult holds the ranked matches, best first
type SuggestSectionsResult struct {
	Sections []models.RankedSection
}

// SuggestSections ranks all sections by keyword overlap with the request.
// A request without usable keywords returns an empty result without reading the store.
func (s *SectionService) SuggestSections(ctx context.Context, req SuggestSectionsRequest) (*SuggestSectionsResult, error) {
	if len(keywordSet(req.Keywords)) == 0 {
		return &SuggestSectionsResult{Sections: []models.RankedSection{}}, nil
	}
	if s.store == nil {
		return nil, errors.New("section store not set")
	}

	sections, err := s.store.ListAll(ctx)
	if err != nil {
		logger.FromContext(ctx).Error("Failed to load sections", zap.Error(err))
		return nil, upstream("list sections", err)
	}

	ranked := RankSections(req.Keywords, sections)
	logger.FromContext(ctx).Debug("Ranked sections by keyword",
		zap.Int("keywords", len(req.Keywords)),
		zap.Int("scanned", len(sections)),
		zap.Int("matched", len(ranked)))

	return &SuggestSectionsResult{Sections: ranked}, nil
}

// GetSection returns the section with exactly this number
func (s *SectionService) GetSection(ctx context.Context, number string) (*models.Section, error) {
	if number == "" {
		return nil, validationError("section number is required")
	}
	if s.store == nil {
		return nil, errors.New("section store not set")
	}

	section, err := s.store.GetByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, repository.ErrSectionNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrSectionNotFound, number)
		}
		logger.FromContext(ctx).Error("Failed to get section", zap.String("section", number), zap.Error(err))
		return nil, upstream("get section", err)
	}
	return section, nil
}
