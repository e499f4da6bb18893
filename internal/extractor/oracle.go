package extractor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// ChatClient is the slice of the OpenAI client the oracle extractor uses.
// *openai.Client satisfies it; tests inject fakes.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OracleExtractor delegates field extraction to an external text-understanding
// model. Every call is bounded by a timeout and a single retry on transient
// failure; malformed responses are never retried.
type OracleExtractor struct {
	client      ChatClient
	model       string
	temperature float32
	maxTokens   int
	timeout     time.Duration
	logger      *zap.Logger
}

// OracleConfig holds oracle invocation settings.
type OracleConfig struct {
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// NewOracleExtractor creates a semantic extractor backed by the given client.
func NewOracleExtractor(client ChatClient, cfg OracleConfig, logger *zap.Logger) *OracleExtractor {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 500
	}
	return &OracleExtractor{
		client:      client,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		timeout:     cfg.Timeout,
		logger:      logger,
	}
}

// Extract asks the oracle for the field set of one line. All failure modes
// are folded into ErrOracleUnavailable for the fallback wrapper to inspect.
func (e *OracleExtractor) Extract(ctx context.Context, line string) (*RawFieldSet, error) {
	content, err := e.call(ctx, line)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
	}

	cleaned, err := sanitizeResponse(content)
	if err != nil {
		e.logger.Warn("Oracle returned malformed JSON",
			zap.String("content", content),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
	}
	if err := validateFieldSetJSON(cleaned); err != nil {
		e.logger.Warn("Oracle response failed schema validation", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
	}

	var fields RawFieldSet
	if err := json.Unmarshal(cleaned, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
	}
	return &fields, nil
}

// call performs the completion request with one retry on transient errors.
// Each attempt gets its own timeout so the retry is not charged for the
// first attempt's wait.
func (e *OracleExtractor) call(ctx context.Context, line string) (string, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		attemptCtx, cancel := context.WithTimeout(ctx, e.timeout)
		resp, err := e.client.CreateChatCompletion(attemptCtx, openai.ChatCompletionRequest{
			Model:       e.model,
			Temperature: e.temperature,
			MaxTokens:   e.maxTokens,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: fieldSetSystemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: line},
			},
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
		})
		cancel()

		if err == nil {
			if len(resp.Choices) == 0 {
				return "", errors.New("empty completion response")
			}
			return resp.Choices[0].Message.Content, nil
		}

		lastErr = err
		if !isTransient(err) {
			break
		}
		e.logger.Warn("Transient oracle failure, retrying once",
			zap.Int("attempt", attempt+1),
			zap.Error(err))
	}
	return "", lastErr
}

// isTransient reports whether an API error is worth a single retry. Rate
// limiting and server-side failures are; request-shape errors are not.
func isTransient(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == 429 || apiErr.HTTPStatusCode >= 500
	}
	// Network-level failures and timeouts arrive as plain errors.
	return true
}
