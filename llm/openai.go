package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const providerOpenAI = "openai"

// OpenAIConfig holds the settings for an OpenAI-compatible endpoint
type OpenAIConfig struct {
	APIKey         string
	BaseURL        string // empty uses the public OpenAI endpoint
	ChatModel      string
	EmbeddingModel string
	Dimensions     int
	Temperature    float32
}

// OpenAIClient implements Embedder and Generator on an OpenAI-compatible API
type OpenAIClient struct {
	client         *openai.Client
	chatModel      string
	embeddingModel openai.EmbeddingModel
	dimensions     int
	temperature    float32
}

// NewOpenAIClient creates an OpenAI-compatible client
func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAIClient{
		client:         openai.NewClientWithConfig(clientCfg),
		chatModel:      cfg.ChatModel,
		embeddingModel: openai.EmbeddingModel(cfg.EmbeddingModel),
		dimensions:     cfg.Dimensions,
		temperature:    cfg.Temperature,
	}
}

// Generate runs a single-turn chat completion
func (o *OpenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	temperature := o.temperature
	if temperature == 0 {
		// the request field is omitempty, so a literal zero would fall back to the server default
		temperature = math.SmallestNonzeroFloat32
	}

	start := time.Now()
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.chatModel,
		Temperature: temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	observe(providerOpenAI, o.chatModel, "generate", start, err)
	if err != nil {
		return "", classifyOpenAIError("chat completion", err)
	}

	var sb strings.Builder
	for _, choice := range resp.Choices {
		sb.WriteString(choice.Message.Content)
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("chat completion: %w", ErrEmptyResponse)
	}
	return sb.String(), nil
}

// EmbedQuery embeds a retrieval query
func (o *OpenAIClient) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vecs, err := o.embed(ctx, []string{text}, "embed")
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedDocuments embeds indexed documents in one request
func (o *OpenAIClient) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	return o.embed(ctx, texts, "embed_batch")
}

func (o *OpenAIClient) embed(ctx context.Context, texts []string, op string) ([][]float32, error) {
	req := openai.EmbeddingRequest{
		Input:          texts,
		Model:          o.embeddingModel,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
	}
	if o.dimensions > 0 {
		req.Dimensions = o.dimensions
	}

	start := time.Now()
	resp, err := o.client.CreateEmbeddings(ctx, req)
	observe(providerOpenAI, string(o.embeddingModel), op, start, err)
	if err != nil {
		return nil, classifyOpenAIError("create embeddings", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("mismatch: got %d embeddings for %d texts: %w", len(resp.Data), len(texts), ErrEmptyResponse)
	}

	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return nil, fmt.Errorf("embedding index %d out of range", d.Index)
		}
		if err := checkDimensions(d.Embedding, o.dimensions); err != nil {
			return nil, err
		}
		out[d.Index] = d.Embedding
	}
	return out, nil
}

func classifyOpenAIError(op string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if isRetryableStatus(apiErr.HTTPStatusCode) {
			err = markTransient(err)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && isRetryableStatus(reqErr.HTTPStatusCode) {
		err = markTransient(err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
