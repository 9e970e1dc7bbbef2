package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cliprally/cliprally/internal/db/models"
	"github.com/cliprally/cliprally/internal/media"
	"github.com/cliprally/cliprally/internal/storage"
)

func newTestPipeline(t *testing.T) (*media.Pipeline, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore("https://media.test")
	database := newHandlerDB(t)
	return media.NewPipeline(media.NewResolver(), media.NewDownloader(), store, database), store
}

func TestSubmitHandler_Success(t *testing.T) {
	payload := bytes.Repeat([]byte("v"), 1024)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		w.Write(payload)
	}))
	defer srv.Close()

	pipeline, store := newTestPipeline(t)
	handler := SubmitHandler(pipeline)

	body, _ := json.Marshal(map[string]string{
		"source_url": srv.URL + "/clip.mp4",
		"contest_id": "contest-1",
		"user_id":    "user-1",
	})
	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, "/api/submissions", bytes.NewReader(body)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		PublicURL string        `json:"public_url"`
		Key       string        `json:"key"`
		Log       []media.Entry `json:"log"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.HasPrefix(resp.PublicURL, "https://media.test/media/user-1/") {
		t.Fatalf("public url = %q", resp.PublicURL)
	}
	if len(resp.Log) == 0 {
		t.Fatal("response must include the operation log")
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 stored object, got %d", store.Len())
	}
}

func TestSubmitHandler_FailureReturnsCodeAndLog(t *testing.T) {
	pipeline, store := newTestPipeline(t)
	handler := SubmitHandler(pipeline)

	body, _ := json.Marshal(map[string]string{"source_url": "ftp://bad.example.com/x"})
	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, "/api/submissions", bytes.NewReader(body)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp struct {
		Error string        `json:"error"`
		Code  string        `json:"code"`
		Log   []media.Entry `json:"log"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Code != "submission_failed" || resp.Error == "" {
		t.Fatalf("unexpected error payload: %+v", resp)
	}
	if len(resp.Log) == 0 {
		t.Fatal("failures must still return the operation log")
	}
	if store.Len() != 0 {
		t.Fatal("nothing may be stored on failure")
	}
}

func TestSubmitHandler_ValidatesInput(t *testing.T) {
	pipeline, _ := newTestPipeline(t)
	handler := SubmitHandler(pipeline)

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, "/api/submissions", strings.NewReader("{not json")))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid json status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, "/api/submissions", strings.NewReader(`{"contest_id":"c"}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing source_url status = %d", rec.Code)
	}
}

func TestSubmissionStatsHandler(t *testing.T) {
	database := newHandlerDB(t)
	seed := []models.Submission{
		{ID: "s1", Outcome: "success"},
		{ID: "s2", Outcome: "success"},
		{ID: "s3", Outcome: "extraction_failed"},
		{ID: "s4", Outcome: "size_exceeded"},
	}
	for i := range seed {
		if err := database.Create(&seed[i]).Error; err != nil {
			t.Fatalf("seed submission: %v", err)
		}
	}

	rec := httptest.NewRecorder()
	SubmissionStatsHandler(database)(rec, httptest.NewRequest(http.MethodGet, "/api/submissions/stats", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var stats models.SubmissionStats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats.Total != 4 || stats.SuccessCount != 2 || stats.ErrorCount != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestStatusForCode(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{"extraction_failed", http.StatusUnprocessableEntity},
		{"size_exceeded", http.StatusRequestEntityTooLarge},
		{"timeout", http.StatusGatewayTimeout},
		{"storage_failed", http.StatusBadGateway},
		{"submission_failed", http.StatusBadRequest},
	}
	for _, tt := range tests {
		if got := statusForCode(tt.code); got != tt.want {
			t.Fatalf("statusForCode(%s) = %d, want %d", tt.code, got, tt.want)
		}
	}
}
