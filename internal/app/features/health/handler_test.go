package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/kilntrack/internal/app/features/health"
	piecestore "github.com/dalemusser/kilntrack/internal/app/store/pieces"
	"github.com/dalemusser/kilntrack/internal/testutil"
	"go.uber.org/zap"
)

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("connection refused") }

type response struct {
	Status        string `json:"status"`
	Store         string `json:"store"`
	Backend       string `json:"backend"`
	StagedActions *int   `json:"staged_actions"`
	Message       string `json:"message"`
	Error         string `json:"error"`
}

func serve(t *testing.T, h *health.Handler) (*httptest.ResponseRecorder, response) {
	t.Helper()
	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	h.Serve(rec, req)

	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want %q", ct, "application/json")
	}
	var resp response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	return rec, resp
}

func TestServe_MemoryStore(t *testing.T) {
	h := health.NewHandler(piecestore.NewMemory(), "memory", func() int { return 3 }, zap.NewNop())

	rec, resp := serve(t, h)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if resp.Status != "ok" || resp.Store != "connected" || resp.Backend != "memory" {
		t.Errorf("unexpected response %+v", resp)
	}
	if resp.StagedActions == nil || *resp.StagedActions != 3 {
		t.Errorf("staged_actions = %v, want 3", resp.StagedActions)
	}
}

func TestServe_StoreDown(t *testing.T) {
	h := health.NewHandler(failingPinger{}, "sqlite", nil, zap.NewNop())

	rec, resp := serve(t, h)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status %d, got %d", http.StatusServiceUnavailable, rec.Code)
	}
	if resp.Status != "error" || resp.Store != "disconnected" {
		t.Errorf("unexpected response %+v", resp)
	}
	if resp.Error != "connection refused" {
		t.Errorf("error: got %q", resp.Error)
	}
	if resp.StagedActions != nil {
		t.Error("staged_actions should be omitted on failure")
	}
}

func TestServe_MongoStore(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := health.NewHandler(piecestore.NewMongo(db), "mongo", nil, zap.NewNop())

	rec, resp := serve(t, h)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if resp.Backend != "mongo" {
		t.Errorf("backend: got %q", resp.Backend)
	}
}
