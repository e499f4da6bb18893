package extractor

import (
	"context"
	"errors"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeChatClient scripts a sequence of completion responses.
type fakeChatClient struct {
	responses []fakeResponse
	calls     int
}

type fakeResponse struct {
	content string
	err     error
}

func (f *fakeChatClient) CreateChatCompletion(_ context.Context, _ openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	if f.calls >= len(f.responses) {
		return openai.ChatCompletionResponse{}, errors.New("unexpected call")
	}
	r := f.responses[f.calls]
	f.calls++
	if r.err != nil {
		return openai.ChatCompletionResponse{}, r.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: r.content}},
		},
	}, nil
}

func newTestOracle(client ChatClient) *OracleExtractor {
	return NewOracleExtractor(client, OracleConfig{
		Model:   "gpt-4",
		Timeout: time.Second,
	}, zap.NewNop())
}

func TestOracleExtractor_ExtractValidResponse(t *testing.T) {
	client := &fakeChatClient{responses: []fakeResponse{
		{content: `{"product_name_zh":"地板","quantity_spec":"1托","unit_price":"30$","courier":"中通","tracking_number":"202242834846","warehouse_date":"2025-07-05"}`},
	}}

	fields, err := newTestOracle(client).Extract(context.Background(), "地板1托30$，快递中通")
	require.NoError(t, err)
	assert.Equal(t, "地板", fields.ProductNameZH)
	assert.Equal(t, "30$", fields.UnitPrice)
	assert.Equal(t, "2025-07-05", fields.WarehouseDate)
	assert.Equal(t, 1, client.calls)
}

func TestOracleExtractor_StripsMarkdownFences(t *testing.T) {
	client := &fakeChatClient{responses: []fakeResponse{
		{content: "```json\n{\"product_name_zh\":\"地板\"}\n```"},
	}}

	fields, err := newTestOracle(client).Extract(context.Background(), "地板")
	require.NoError(t, err)
	assert.Equal(t, "地板", fields.ProductNameZH)
}

func TestOracleExtractor_DropsUnknownKeys(t *testing.T) {
	client := &fakeChatClient{responses: []fakeResponse{
		{content: `{"product_name_zh":"地板","confidence":0.9,"note":"extra"}`},
	}}

	fields, err := newTestOracle(client).Extract(context.Background(), "地板")
	require.NoError(t, err)
	assert.Equal(t, "地板", fields.ProductNameZH)
}

func TestOracleExtractor_RetriesTransientFailureOnce(t *testing.T) {
	client := &fakeChatClient{responses: []fakeResponse{
		{err: &openai.APIError{HTTPStatusCode: 500}},
		{content: `{"unit_price":"30$"}`},
	}}

	fields, err := newTestOracle(client).Extract(context.Background(), "地板30$")
	require.NoError(t, err)
	assert.Equal(t, "30$", fields.UnitPrice)
	assert.Equal(t, 2, client.calls)
}

func TestOracleExtractor_NoRetryOnRequestError(t *testing.T) {
	client := &fakeChatClient{responses: []fakeResponse{
		{err: &openai.APIError{HTTPStatusCode: 401}},
	}}

	_, err := newTestOracle(client).Extract(context.Background(), "地板30$")
	assert.ErrorIs(t, err, ErrOracleUnavailable)
	assert.Equal(t, 1, client.calls)
}

func TestOracleExtractor_NoRetryOnMalformedResponse(t *testing.T) {
	client := &fakeChatClient{responses: []fakeResponse{
		{content: "not json at all"},
	}}

	_, err := newTestOracle(client).Extract(context.Background(), "地板30$")
	assert.ErrorIs(t, err, ErrOracleUnavailable)
	assert.Equal(t, 1, client.calls)
}

func TestOracleExtractor_SchemaRejectsNonStringField(t *testing.T) {
	client := &fakeChatClient{responses: []fakeResponse{
		{content: `{"product_name_zh":["地板"]}`},
	}}

	_, err := newTestOracle(client).Extract(context.Background(), "地板30$")
	assert.ErrorIs(t, err, ErrOracleUnavailable)
}

func TestOracleExtractor_ExhaustedRetries(t *testing.T) {
	client := &fakeChatClient{responses: []fakeResponse{
		{err: &openai.APIError{HTTPStatusCode: 503}},
		{err: &openai.APIError{HTTPStatusCode: 503}},
	}}

	_, err := newTestOracle(client).Extract(context.Background(), "地板30$")
	assert.ErrorIs(t, err, ErrOracleUnavailable)
	assert.Equal(t, 2, client.calls)
}
