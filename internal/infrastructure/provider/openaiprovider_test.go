package provider

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docsphere/docsphere/internal/domain/retrieval"
	"github.com/docsphere/docsphere/internal/infrastructure/metrics"
	"github.com/docsphere/docsphere/internal/shared/config"
	"github.com/docsphere/docsphere/internal/shared/errors"
	"github.com/docsphere/docsphere/internal/shared/logger"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestProvider(t *testing.T, mux *http.ServeMux) (*OpenAIProvider, *metrics.Metrics) {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	m := metrics.New()
	p := NewOpenAIProvider(config.OpenAIConfig{
		APIKey:            "sk-test",
		BaseURL:           srv.URL + "/v1/",
		BatchPollInterval: 5 * time.Millisecond,
		BatchPollTimeout:  2 * time.Second,
		UploadConcurrency: 2,
	}, m, logger.NewNopLogger())
	return p, m
}

func TestOpenAIProvider_CreateStore(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/vector_stores", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "proj_1", body["name"])
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]any{"id": "vs_123", "object": "vector_store", "name": "proj_1"})
	})
	p, _ := newTestProvider(t, mux)

	id, err := p.CreateStore(t.Context(), "proj_1")
	require.NoError(t, err)
	assert.Equal(t, "vs_123", id)
}

func TestOpenAIProvider_UploadFiles(t *testing.T) {
	var deleted sync.Map
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/files", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "assistants", r.FormValue("purpose"))
		_, header, err := r.FormFile("file")
		require.NoError(t, err)
		if header.Filename == "bad.txt" {
			time.Sleep(50 * time.Millisecond)
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": map[string]any{"message": "unsupported file"}})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"id": "file-" + header.Filename, "object": "file"})
	})
	mux.HandleFunc("DELETE /v1/files/{id}", func(w http.ResponseWriter, r *http.Request) {
		deleted.Store(r.PathValue("id"), true)
		writeJSON(w, http.StatusOK, map[string]any{"id": r.PathValue("id"), "deleted": true})
	})
	p, _ := newTestProvider(t, mux)

	t.Run("ids follow input order", func(t *testing.T) {
		files := []retrieval.File{
			{Name: "a.txt", Data: []byte("alpha")},
			{Name: "b.txt", Data: []byte("beta")},
			{Name: "c.txt", Data: []byte("gamma")},
		}
		ids, err := p.UploadFiles(t.Context(), files)
		require.NoError(t, err)
		assert.Equal(t, []string{"file-a.txt", "file-b.txt", "file-c.txt"}, ids)
	})

	t.Run("failure discards successful uploads", func(t *testing.T) {
		files := []retrieval.File{
			{Name: "ok.txt", Data: []byte("fine")},
			{Name: "bad.txt", Data: []byte("nope")},
		}
		ids, err := p.UploadFiles(t.Context(), files)
		require.Error(t, err)
		assert.True(t, errors.IsUpstreamError(err))
		assert.Nil(t, ids)

		_, ok := deleted.Load("file-ok.txt")
		assert.True(t, ok)
	})
}

func TestOpenAIProvider_AttachFilesPollsUntilDone(t *testing.T) {
	var polls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/vector_stores/{store}/file_batches", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			FileIDs []string `json:"file_ids"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []string{"file-1", "file-2"}, body.FileIDs)
		writeJSON(w, http.StatusOK, map[string]any{
			"id": "vsfb_1", "vector_store_id": r.PathValue("store"), "status": "in_progress",
			"file_counts": map[string]int{"in_progress": 2, "total": 2},
		})
	})
	mux.HandleFunc("GET /v1/vector_stores/{store}/file_batches/{batch}", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "vsfb_1", r.PathValue("batch"))
		if polls.Add(1) < 2 {
			writeJSON(w, http.StatusOK, map[string]any{
				"id": "vsfb_1", "status": "in_progress",
				"file_counts": map[string]int{"in_progress": 1, "completed": 1, "total": 2},
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"id": "vsfb_1", "status": "completed",
			"file_counts": map[string]int{"completed": 2, "total": 2},
		})
	})
	p, _ := newTestProvider(t, mux)

	batch, err := p.AttachFiles(t.Context(), "vs_1", []string{"file-1", "file-2"})
	require.NoError(t, err)
	assert.Equal(t, "completed", batch.Status)
	assert.Equal(t, 2, batch.FileCounts.Completed)
	assert.Equal(t, 2, batch.FileCounts.Total)
	assert.Equal(t, int32(2), polls.Load())
}

func TestOpenAIProvider_AttachFilesTimesOut(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/vector_stores/{store}/file_batches", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"id": "vsfb_1", "status": "in_progress"})
	})
	mux.HandleFunc("GET /v1/vector_stores/{store}/file_batches/{batch}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"id": "vsfb_1", "status": "in_progress"})
	})
	p, _ := newTestProvider(t, mux)
	p.pollTimeout = 30 * time.Millisecond

	_, err := p.AttachFiles(t.Context(), "vs_1", []string{"file-1"})
	require.Error(t, err)
	assert.True(t, errors.IsUpstreamError(err))
}

func TestOpenAIProvider_ListFilesPaginates(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/vector_stores/{store}/files", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "100", r.URL.Query().Get("limit"))
		if r.URL.Query().Get("after") == "" {
			writeJSON(w, http.StatusOK, map[string]any{
				"data": []map[string]any{
					{"id": "file-1", "status": "completed", "usage_bytes": 10, "created_at": 1700000000},
					{"id": "file-2", "status": "completed", "usage_bytes": 20, "created_at": 1700000001},
				},
				"first_id": "file-1", "last_id": "file-2", "has_more": true,
			})
			return
		}
		assert.Equal(t, "file-2", r.URL.Query().Get("after"))
		writeJSON(w, http.StatusOK, map[string]any{
			"data":     []map[string]any{{"id": "file-3", "status": "failed"}},
			"first_id": "file-3", "last_id": "file-3", "has_more": false,
		})
	})
	p, _ := newTestProvider(t, mux)

	files, err := p.ListFiles(t.Context(), "vs_1")
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, "file-1", files[0].ID)
	assert.Equal(t, int64(20), files[1].UsageBytes)
	assert.Equal(t, "failed", files[2].Status)
}

func TestOpenAIProvider_RemoveFile(t *testing.T) {
	var detached, rawDeleted atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("DELETE /v1/vector_stores/{store}/files/{id}", func(w http.ResponseWriter, r *http.Request) {
		detached.Add(1)
		writeJSON(w, http.StatusOK, map[string]any{"id": r.PathValue("id"), "deleted": true})
	})
	mux.HandleFunc("DELETE /v1/files/{id}", func(w http.ResponseWriter, r *http.Request) {
		rawDeleted.Add(1)
		writeJSON(w, http.StatusOK, map[string]any{"id": r.PathValue("id"), "deleted": true})
	})
	p, _ := newTestProvider(t, mux)

	require.NoError(t, p.RemoveFile(t.Context(), "vs_1", "file-1", false))
	assert.Equal(t, int32(1), detached.Load())
	assert.Equal(t, int32(0), rawDeleted.Load())

	require.NoError(t, p.RemoveFile(t.Context(), "vs_1", "file-1", true))
	assert.Equal(t, int32(2), detached.Load())
	assert.Equal(t, int32(1), rawDeleted.Load())
}

func TestOpenAIProvider_Query(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/responses", func(w http.ResponseWriter, r *http.Request) {
		var body responseRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-test", body.Model)
		assert.Equal(t, "What is the refund window?", body.Input)
		require.Len(t, body.Tools, 1)
		assert.Equal(t, "file_search", body.Tools[0].Type)
		assert.Equal(t, []string{"vs_1"}, body.Tools[0].VectorStoreIDs)

		writeJSON(w, http.StatusOK, map[string]any{
			"id": "resp_1",
			"output": []map[string]any{
				{"type": "file_search_call", "status": "completed"},
				{"type": "message", "role": "assistant", "content": []map[string]any{{
					"type": "output_text",
					"text": "Refunds are accepted within 30 days.",
					"annotations": []map[string]any{
						{"type": "file_citation", "file_id": "file-1", "filename": "policy.md", "index": 35},
					},
				}}},
			},
			"usage": map[string]any{"input_tokens": 120, "output_tokens": 14, "total_tokens": 134},
		})
	})
	p, m := newTestProvider(t, mux)

	answer, err := p.Query(t.Context(), []string{"vs_1"}, "What is the refund window?", "gpt-test")
	require.NoError(t, err)
	assert.Equal(t, "Refunds are accepted within 30 days.", answer.Text)
	assert.Equal(t, int64(120), answer.TokensIn)
	assert.Equal(t, int64(14), answer.TokensOut)
	assert.Equal(t, []retrieval.Citation{{FileID: "file-1", Filename: "policy.md", Index: 35}}, answer.Citations)

	assert.Equal(t, 1, testutil.CollectAndCount(m.Registry(), "docsphere_provider_request_duration_seconds"))
}

func TestOpenAIProvider_QueryUpstreamError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/responses", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"error": map[string]any{"message": "overloaded"}})
	})
	p, _ := newTestProvider(t, mux)

	_, err := p.Query(t.Context(), []string{"vs_1"}, "hi", "")
	require.Error(t, err)
	assert.True(t, errors.IsUpstreamError(err))
	assert.Contains(t, errors.GetAppError(err).Details, "overloaded")
}

func TestNormalize(t *testing.T) {
	t.Run("nil response", func(t *testing.T) {
		a := normalize(nil)
		assert.Empty(t, a.Text)
		assert.NotNil(t, a.Citations)
	})

	t.Run("missing usage counts as zero", func(t *testing.T) {
		a := normalize(&response{Output: []responseOutput{{
			Type:    "message",
			Content: []responseContent{{Type: "output_text", Text: "Hello "}, {Type: "refusal", Text: "x"}, {Type: "output_text", Text: "world"}},
		}}})
		assert.Equal(t, "Hello world", a.Text)
		assert.Zero(t, a.TokensIn)
		assert.Zero(t, a.TokensOut)
		assert.Empty(t, a.Citations)
	})

	t.Run("non-file annotations are skipped", func(t *testing.T) {
		a := normalize(&response{Output: []responseOutput{{
			Type: "message",
			Content: []responseContent{{Type: "output_text", Text: "see link", Annotations: []responseAnnotation{
				{Type: "url_citation"},
				{Type: "file_citation", FileID: "file-9"},
			}}},
		}}})
		require.Len(t, a.Citations, 1)
		assert.Equal(t, "file-9", a.Citations[0].FileID)
	})
}
