package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/omeshsingh/bnsp/metrics"
)

const providerGemini = "gemini"

// GeminiConfig holds the Gemini client settings
type GeminiConfig struct {
	APIKey         string
	ChatModel      string
	EmbeddingModel string
	Dimensions     int // expected vector length; 0 skips the check
	Temperature    float32
}

// GeminiClient implements Embedder and Generator on the Gemini API
type GeminiClient struct {
	client         *genai.Client
	chatModel      string
	embeddingModel string
	dimensions     int
	temperature    float32
}

// NewGeminiClient creates a Gemini client
func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiClient{
		client:         client,
		chatModel:      cfg.ChatModel,
		embeddingModel: cfg.EmbeddingModel,
		dimensions:     cfg.Dimensions,
		temperature:    cfg.Temperature,
	}, nil
}

// Close releases the underlying connection
func (g *GeminiClient) Close() error {
	return g.client.Close()
}

// Generate runs a single-turn completion
func (g *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	model := g.client.GenerativeModel(g.chatModel)
	model.SetTemperature(g.temperature)

	start := time.Now()
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	observe(providerGemini, g.chatModel, "generate", start, err)
	if err != nil {
		return "", classifyGeminiError("generate content", err)
	}

	return responseText(resp)
}

// EmbedQuery embeds a retrieval query
func (g *GeminiClient) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	em := g.client.EmbeddingModel(g.embeddingModel)
	em.TaskType = genai.TaskTypeRetrievalQuery

	start := time.Now()
	res, err := em.EmbedContent(ctx, genai.Text(text))
	observe(providerGemini, g.embeddingModel, "embed", start, err)
	if err != nil {
		return nil, classifyGeminiError("embed content", err)
	}
	if res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, fmt.Errorf("embed content: %w", ErrEmptyResponse)
	}
	if err := checkDimensions(res.Embedding.Values, g.dimensions); err != nil {
		return nil, err
	}
	return res.Embedding.Values, nil
}

// EmbedDocuments embeds indexed documents in one batch request
func (g *GeminiClient) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	em := g.client.EmbeddingModel(g.embeddingModel)
	em.TaskType = genai.TaskTypeRetrievalDocument

	batch := em.NewBatch()
	for _, t := range texts {
		batch.AddContent(genai.Text(t))
	}

	start := time.Now()
	res, err := em.BatchEmbedContents(ctx, batch)
	observe(providerGemini, g.embeddingModel, "embed_batch", start, err)
	if err != nil {
		return nil, classifyGeminiError("batch embed contents", err)
	}
	if len(res.Embeddings) != len(texts) {
		return nil, fmt.Errorf("mismatch: got %d embeddings for %d texts", len(res.Embeddings), len(texts))
	}

	out := make([][]float32, len(res.Embeddings))
	for i, e := range res.Embeddings {
		if e == nil || len(e.Values) == 0 {
			return nil, fmt.Errorf("embedding %d: %w", i, ErrEmptyResponse)
		}
		if err := checkDimensions(e.Values, g.dimensions); err != nil {
			return nil, err
		}
		out[i] = e.Values
	}
	return out, nil
}

// GenerationModels lists the models that support generateContent
func (g *GeminiClient) GenerationModels(ctx context.Context) ([]*genai.ModelInfo, error) {
	var models []*genai.ModelInfo
	it := g.client.ListModels(ctx)
	for {
		m, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list models: %w", err)
		}
		for _, method := range m.SupportedGenerationMethods {
			if method == "generateContent" {
				models = append(models, m)
				break
			}
		}
	}
	return models, nil
}

// responseText concatenates the text parts of all candidates
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", fmt.Errorf("generate content: %w", ErrEmptyResponse)
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockReasonUnspecified {
		return "", fmt.Errorf("prompt blocked: %v", resp.PromptFeedback.BlockReason)
	}

	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if txt, ok := part.(genai.Text); ok {
				sb.WriteString(string(txt))
			}
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("generate content: %w", ErrEmptyResponse)
	}
	return sb.String(), nil
}

func classifyGeminiError(op string, err error) error {
	var gErr *googleapi.Error
	if errors.As(err, &gErr) && isRetryableStatus(gErr.Code) {
		return fmt.Errorf("%s: %w", op, markTransient(err))
	}
	return fmt.Errorf("%s: %w", op, err)
}

func checkDimensions(v []float32, want int) error {
	if want > 0 && len(v) != want {
		return fmt.Errorf("embedding has %d dimensions, expected %d", len(v), want)
	}
	return nil
}

func observe(provider, model, op string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.LLMRequestsTotal.WithLabelValues(provider, model, op, status).Inc()
	metrics.LLMRequestDuration.WithLabelValues(provider, model, op).Observe(time.Since(start).Seconds())
}
