package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/shipment-entry/internal/history"
	"github.com/garyjia/shipment-entry/internal/service"
	"github.com/garyjia/shipment-entry/internal/sheet"
)

type stubProcessor struct {
	result  *service.BatchResult
	err     error
	gotText string
}

func (s *stubProcessor) ProcessBatch(_ context.Context, text string) (*service.BatchResult, error) {
	s.gotText = text
	return s.result, s.err
}

type stubHistory struct {
	batches  []*history.Batch
	err      error
	gotLimit int
}

func (s *stubHistory) Recent(_ context.Context, limit int) ([]*history.Batch, error) {
	s.gotLimit = limit
	return s.batches, s.err
}

func newTestServer(t *testing.T, processor BatchProcessor, hist HistoryReader, docPath string) *Server {
	t.Helper()
	handlers := NewHandlers(processor, hist, docPath, zap.NewNop())
	return NewServer(DefaultConfig(), handlers, zap.NewNop())
}

func doRequest(srv *Server, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	srv := newTestServer(t, &stubProcessor{}, &stubHistory{}, "")

	w := doRequest(srv, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
}

func TestProcessBatch(t *testing.T) {
	processor := &stubProcessor{result: &service.BatchResult{
		BatchID:   "b-1",
		Mode:      service.ModeRule,
		Succeeded: 1,
		StartRow:  9,
		EndRow:    9,
	}}
	srv := newTestServer(t, processor, &stubHistory{}, "")

	w := doRequest(srv, http.MethodPost, "/api/batches",
		`{"text":"地板1托30$，快递中通，202242834846"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "地板1托30$，快递中通，202242834846", processor.gotText)

	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
}

func TestProcessBatch_MissingText(t *testing.T) {
	srv := newTestServer(t, &stubProcessor{}, &stubHistory{}, "")

	w := doRequest(srv, http.MethodPost, "/api/batches", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProcessBatch_RowConflict(t *testing.T) {
	processor := &stubProcessor{err: fmt.Errorf("append: %w", sheet.ErrRowConflict)}
	srv := newTestServer(t, processor, &stubHistory{}, "")

	w := doRequest(srv, http.MethodPost, "/api/batches", `{"text":"地板1托30$"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestProcessBatch_TemplateMissing(t *testing.T) {
	processor := &stubProcessor{err: sheet.ErrTemplateNotFound}
	srv := newTestServer(t, processor, &stubHistory{}, "")

	w := doRequest(srv, http.MethodPost, "/api/batches", `{"text":"地板1托30$"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListBatches(t *testing.T) {
	hist := &stubHistory{batches: []*history.Batch{{
		ID:        "b-1",
		CreatedAt: time.Date(2025, 7, 5, 10, 0, 0, 0, time.UTC),
		Mode:      service.ModeSemantic,
	}}}
	srv := newTestServer(t, &stubProcessor{}, hist, "")

	w := doRequest(srv, http.MethodGet, "/api/batches?limit=5", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, hist.gotLimit)
}

func TestListBatches_DefaultLimit(t *testing.T) {
	hist := &stubHistory{}
	srv := newTestServer(t, &stubProcessor{}, hist, "")

	w := doRequest(srv, http.MethodGet, "/api/batches", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 20, hist.gotLimit)
}

func TestListBatches_NotConfigured(t *testing.T) {
	srv := newTestServer(t, &stubProcessor{}, nil, "")

	w := doRequest(srv, http.MethodGet, "/api/batches", "")
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestDownloadDocument(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "declaration.xlsx")
	require.NoError(t, os.WriteFile(doc, []byte("workbook"), 0644))

	srv := newTestServer(t, &stubProcessor{}, &stubHistory{}, doc)

	w := doRequest(srv, http.MethodGet, "/api/document", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "declaration.xlsx")
}

func TestDownloadDocument_Missing(t *testing.T) {
	srv := newTestServer(t, &stubProcessor{}, &stubHistory{}, "/nonexistent/declaration.xlsx")

	w := doRequest(srv, http.MethodGet, "/api/document", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
