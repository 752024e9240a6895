package handler_test

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/json"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askdoc-io/askdoc/internal/askdoc/biz"
	"github.com/askdoc-io/askdoc/internal/askdoc/handler"
	"github.com/askdoc-io/askdoc/internal/askdoc/registry"
	"github.com/askdoc-io/askdoc/internal/askdoc/router"
	"github.com/askdoc-io/askdoc/internal/askdoc/store"
	"github.com/askdoc-io/askdoc/pkg/llm"
)

// hashEmbedder derives a deterministic unit vector from the text, so
// identical texts always have similarity 1.
type hashEmbedder struct{}

func (hashEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = hashVector(t)
	}
	return out, nil
}

func (hashEmbedder) EmbedSingle(_ context.Context, text string) ([]float32, error) {
	return hashVector(text), nil
}

func (hashEmbedder) Name() string { return "hash" }

func hashVector(text string) []float32 {
	sum := md5.Sum([]byte(text))
	vec := make([]float32, 8)
	var norm float64
	for i := range vec {
		vec[i] = float32(sum[i]) + 1
		norm += float64(vec[i]) * float64(vec[i])
	}
	n := float32(math.Sqrt(norm))
	for i := range vec {
		vec[i] /= n
	}
	return vec
}

type cannedChat struct {
	answer string
}

func (c cannedChat) Chat(context.Context, []llm.Message) (string, error) { return c.answer, nil }

func (c cannedChat) Generate(context.Context, string, string) (string, error) {
	return c.answer, nil
}

func (cannedChat) Name() string { return "canned" }

func newTestEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	index := biz.NewIndex(store.NewMemoryStore(), hashEmbedder{}, &biz.IndexConfig{
		Collection:   "test_chunks",
		EmbeddingDim: 8,
	})
	require.NoError(t, index.Ready(context.Background()))

	manager := biz.NewManager(
		registry.New(filepath.Join(dir, "registry.json")),
		index,
		&biz.ManagerConfig{
			UploadDir:    filepath.Join(dir, "uploads"),
			Splitter:     "characters",
			ChunkSize:    1000,
			ChunkOverlap: 100,
		},
	)

	service := biz.NewQueryService(
		index,
		biz.NewRetriever(index, &biz.RetrieverConfig{TopK: 3, ScoreThreshold: 0.3}),
		biz.NewAssembler(&biz.AssemblerConfig{HistoryWindow: 6}),
		biz.NewGenerator(cannedChat{answer: "It lives in the sea [1]."}, &biz.GeneratorConfig{SystemPrompt: "cite sources"}),
		biz.NewSessionStore(),
		&biz.QueryConfig{CarryoverThreshold: 0.7},
	)

	engine := gin.New()
	router.Register(engine,
		handler.NewKnowledgeHandler(manager, 32<<20),
		handler.NewQueryHandler(service, time.Hour),
	)
	return engine
}

func uploadFile(t *testing.T, engine *gin.Engine, name string, content []byte) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/documents", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func doJSON(t *testing.T, engine *gin.Engine, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var envelope map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

// uploadResult extracts the single per-file result from an upload
// response.
func uploadResult(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	results := decodeEnvelope(t, rec)["data"].([]any)
	require.Len(t, results, 1)
	return results[0].(map[string]any)
}

func TestHealthz(t *testing.T) {
	engine := newTestEngine(t)

	rec := doJSON(t, engine, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestUploadAndList(t *testing.T) {
	engine := newTestEngine(t)

	rec := uploadFile(t, engine, "whales.txt", []byte("Whales are marine mammals."))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, "added", uploadResult(t, rec)["status"])

	rec = doJSON(t, engine, http.MethodGet, "/v1/documents", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	docs := decodeEnvelope(t, rec)["data"].([]any)
	require.Len(t, docs, 1)
	assert.Equal(t, "whales.txt", docs[0].(map[string]any)["name"])
}

func TestUploadDuplicate(t *testing.T) {
	engine := newTestEngine(t)
	content := []byte("same bytes, different name")

	rec := uploadFile(t, engine, "a.txt", content)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = uploadFile(t, engine, "b.txt", content)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "duplicate", uploadResult(t, rec)["status"])
}

func TestUploadBatch(t *testing.T) {
	engine := newTestEngine(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for name, content := range map[string]string{
		"whales.txt": "Whales are marine mammals.",
		"image.png":  "not a document",
	} {
		part, err := mw.CreateFormFile("file", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/documents", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	results := decodeEnvelope(t, rec)["data"].([]any)
	require.Len(t, results, 2)

	byName := map[string]map[string]any{}
	for _, r := range results {
		m := r.(map[string]any)
		byName[m["name"].(string)] = m
	}
	assert.Equal(t, "added", byName["whales.txt"]["status"])
	assert.Contains(t, byName["image.png"]["error"], "unsupported file format")
}

func TestUploadUnsupportedFormat(t *testing.T) {
	engine := newTestEngine(t)

	rec := uploadFile(t, engine, "image.png", []byte{0x89, 0x50, 0x4e, 0x47})
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestUploadMissingFile(t *testing.T) {
	engine := newTestEngine(t)

	rec := doJSON(t, engine, http.MethodPost, "/v1/documents", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQuery(t *testing.T) {
	engine := newTestEngine(t)
	content := "Whales are marine mammals."

	rec := uploadFile(t, engine, "whales.txt", []byte(content))
	require.Equal(t, http.StatusOK, rec.Code)

	// The hash embedder gives an identical question similarity 1.
	rec = doJSON(t, engine, http.MethodPost, "/v1/query", gin.H{"question": content})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	data := decodeEnvelope(t, rec)["data"].(map[string]any)
	assert.Equal(t, "It lives in the sea [1].", data["answer"])
	assert.NotEmpty(t, data["session_id"])
	sources := data["sources"].([]any)
	require.Len(t, sources, 1)
	assert.Equal(t, "whales.txt", sources[0].(map[string]any)["name"])
}

func TestQueryValidation(t *testing.T) {
	engine := newTestEngine(t)

	rec := doJSON(t, engine, http.MethodPost, "/v1/query", gin.H{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteRestorePurge(t *testing.T) {
	engine := newTestEngine(t)

	rec := uploadFile(t, engine, "whales.txt", []byte("Whales are marine mammals."))
	require.Equal(t, http.StatusOK, rec.Code)
	id := uploadResult(t, rec)["id"].(string)

	rec = doJSON(t, engine, http.MethodDelete, "/v1/documents/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, engine, http.MethodDelete, "/v1/documents/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, engine, http.MethodGet, "/v1/documents/deleted", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decodeEnvelope(t, rec)["data"].([]any), 1)

	rec = doJSON(t, engine, http.MethodPost, "/v1/documents/"+id+"/restore", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, engine, http.MethodDelete, "/v1/documents/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(t, engine, http.MethodDelete, "/v1/documents/deleted", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, engine, http.MethodPost, "/v1/documents/"+id+"/restore", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestToggleTag(t *testing.T) {
	engine := newTestEngine(t)

	rec := uploadFile(t, engine, "whales.txt", []byte("Whales are marine mammals."))
	require.Equal(t, http.StatusOK, rec.Code)
	id := uploadResult(t, rec)["id"].(string)

	rec = doJSON(t, engine, http.MethodPost, "/v1/documents/"+id+"/tags", gin.H{"tag": "biology"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, engine, http.MethodGet, "/v1/documents", nil)
	docs := decodeEnvelope(t, rec)["data"].([]any)
	tags := docs[0].(map[string]any)["tags"].([]any)
	assert.Equal(t, []any{"biology"}, tags)

	rec = doJSON(t, engine, http.MethodPost, "/v1/documents/unknown/tags", gin.H{"tag": "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatsAndReset(t *testing.T) {
	engine := newTestEngine(t)

	rec := uploadFile(t, engine, "whales.txt", []byte("Whales are marine mammals."))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, engine, http.MethodGet, "/v1/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decodeEnvelope(t, rec)["data"].(map[string]any)
	assert.Equal(t, float64(1), stats["active_documents"])

	rec = doJSON(t, engine, http.MethodPost, "/v1/reset", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, engine, http.MethodGet, "/v1/stats", nil)
	stats = decodeEnvelope(t, rec)["data"].(map[string]any)
	assert.Equal(t, float64(0), stats["active_documents"])
}
