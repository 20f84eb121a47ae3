package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/omeshsingh/bnsp/llm"
	"github.com/omeshsingh/bnsp/logger"
	"github.com/omeshsingh/bnsp/models"
)

const (
	// DefaultImportBatchSize is the number of sections written per transaction
	DefaultImportBatchSize = 499
	// embedChunkSize caps the inputs of one batch embedding request
	embedChunkSize = 100
)

// ErrStoreNotEmpty is returned when importing into a populated store without force
var ErrStoreNotEmpty = errors.New("section store already has data")

var requiredColumns = []string{
	"bns_section_number",
	"bns_section_title",
	"bns_section_text",
	"keywords",
	"crime_category",
}

// SectionWriter is the write side of the section collection
type SectionWriter interface {
	Count(ctx context.Context) (int, error)
	UpsertBatch(ctx context.Context, sections []models.Section, embeddings [][]float32) error
}

// ImportService loads sections from a CSV export into the store together with their embeddings
type ImportService struct {
	writer    SectionWriter
	embedder  llm.Embedder
	batchSize int
}

// ImportServiceOption is a functional option for ImportService
type ImportServiceOption func(*ImportService)

// WithSectionWriter sets the section writer
func WithSectionWriter(w SectionWriter) ImportServiceOption {
	return func(s *ImportService) {
		s.writer = w
	}
}

// WithDocumentEmbedder sets the embedder used for section page content
func WithDocumentEmbedder(e llm.Embedder) ImportServiceOption {
	return func(s *ImportService) {
		s.embedder = e
	}
}

// WithBatchSize sets the number of sections written per transaction
func WithBatchSize(n int) ImportServiceOption {
	return func(s *ImportService) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// NewImportService creates a new import service
func NewImportService(opts ...ImportServiceOption) *ImportService {
	s := &ImportService{batchSize: DefaultImportBatchSize}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ImportSectionsRequest represents an import run
type ImportSectionsRequest struct {
	Source io.Reader
	Force  bool // import even when the store already has sections
}

// ImportSectionsResult summarises an import run
type ImportSectionsResult struct {
	Imported int
	Batches  int
}

// ImportSections parses the CSV, embeds every section's page content and upserts in batches.
// A populated store is left untouched unless Force is set.
func (s *ImportService) ImportSections(ctx context.Context, req ImportSectionsRequest) (*ImportSectionsResult, error) {
	if s.writer == nil || s.embedder == nil {
		return nil, errors.New("section writer and embedder must be set")
	}
	log := logger.FromContext(ctx)

	if !req.Force {
		n, err := s.writer.Count(ctx)
		if err != nil {
			return nil, upstream("count sections", err)
		}
		if n > 0 {
			return nil, fmt.Errorf("%w: %d sections present, re-run with force to overwrite", ErrStoreNotEmpty, n)
		}
	}

	sections, err := ParseSectionsCSV(req.Source)
	if err != nil {
		return nil, err
	}
	log.Info("Parsed sections", zap.Int("count", len(sections)))

	result := &ImportSectionsResult{}
	for start := 0; start < len(sections); start += s.batchSize {
		end := min(start+s.batchSize, len(sections))
		batch := sections[start:end]

		embeddings, err := s.embedBatch(ctx, batch)
		if err != nil {
			return result, upstream("embed sections", err)
		}
		if err := s.writer.UpsertBatch(ctx, batch, embeddings); err != nil {
			return result, upstream("upsert sections", err)
		}

		result.Imported += len(batch)
		result.Batches++
		log.Info("Committed batch",
			zap.Int("batch", result.Batches),
			zap.Int("size", len(batch)),
			zap.Int("imported", result.Imported))
	}

	return result, nil
}

func (s *ImportService) embedBatch(ctx context.Context, batch []models.Section) ([][]float32, error) {
	out := make([][]float32, 0, len(batch))
	for start := 0; start < len(batch); start += embedChunkSize {
		end := min(start+embedChunkSize, len(batch))

		texts := make([]string, 0, end-start)
		for i := start; i < end; i++ {
			texts = append(texts, batch[i].PageContent())
		}

		vecs, err := s.embedder.EmbedDocuments(ctx, texts)
		if err != nil {
			return nil, err
		}
		if len(vecs) != len(texts) {
			return nil, fmt.Errorf("got %d embeddings for %d sections", len(vecs), len(texts))
		}
		out = append(out, vecs...)
	}
	return out, nil
}

// ParseSectionsCSV reads the cleaned section export. Columns are located by header name;
// keywords are a comma-separated list within one cell.
func ParseSectionsCSV(r io.Reader) ([]models.Section, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, validationError("csv is empty")
		}
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF"))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			return nil, validationError(fmt.Sprintf("csv is missing column %q", col))
		}
	}

	var sections []models.Section
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv line %d: %w", line, err)
		}

		field := func(col string) string {
			if i := idx[col]; i < len(record) {
				return strings.TrimSpace(record[i])
			}
			return ""
		}

		number := field("bns_section_number")
		if number == "" {
			return nil, validationError(fmt.Sprintf("line %d: bns_section_number is empty", line))
		}

		sections = append(sections, models.Section{
			Number:        number,
			Title:         field("bns_section_title"),
			Text:          field("bns_section_text"),
			Keywords:      splitKeywords(field("keywords")),
			CrimeCategory: field("crime_category"),
		})
	}

	return sections, nil
}

func splitKeywords(cell string) []string {
	keywords := []string{}
	for _, k := range strings.Split(cell, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keywords = append(keywords, k)
		}
	}
	return keywords
}
