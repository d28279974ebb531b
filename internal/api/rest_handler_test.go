package api

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"capital_ledger/internal/domain"
	"capital_ledger/internal/reconcile"
	"capital_ledger/internal/replay"
	"capital_ledger/internal/repository/memory"
	"capital_ledger/internal/timeline"
)

func newTestHandler(t *testing.T, batch *domain.Batch) *APIHandler {
	t.Helper()
	tl, err := timeline.NewBuilder().Build(batch)
	if err != nil {
		t.Fatalf("build timeline failed: %v", err)
	}
	playerRepo := memory.NewPlayerRepository()
	plotRepo := memory.NewPlotRepository()
	engine := replay.NewEngine(playerRepo, plotRepo, tl)
	matcher := reconcile.NewMatcher(playerRepo, nil)
	return NewAPIHandler(engine, playerRepo, plotRepo, matcher, nil)
}

func TestGetPlayerHandler_NotFound(t *testing.T) {
	handler := newTestHandler(t, &domain.Batch{})
	server := httptest.NewServer(handler.Router())
	defer server.Close()

	resp, err := server.Client().Get(server.URL + "/api/v1/players/ghost")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	var errResp ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error response failed: %v", err)
	}
	if errResp.Code != "NOT_FOUND" {
		t.Errorf("expected NOT_FOUND code, got %q", errResp.Code)
	}
}

func TestGetStepHandler_EmptyTimeline(t *testing.T) {
	handler := newTestHandler(t, &domain.Batch{})
	server := httptest.NewServer(handler.Router())
	defer server.Close()

	resp, err := server.Client().Get(server.URL + "/api/v1/replay/step")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var state StepStateResponse
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !state.Done || state.Next != nil {
		t.Errorf("expected done with no next event, got %+v", state)
	}
}

func TestAdvanceStepHandler_PastEnd(t *testing.T) {
	joined := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	batch := &domain.Batch{
		Players: []*domain.Player{domain.NewPlayer("solo", "Solo", joined)},
	}
	handler := newTestHandler(t, batch)
	server := httptest.NewServer(handler.Router())
	defer server.Close()

	resp, err := server.Client().Post(server.URL+"/api/v1/replay/step", "application/json", nil)
	if err != nil {
		t.Fatalf("first step failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200 for the only event, got %d", resp.StatusCode)
	}

	resp, err = server.Client().Post(server.URL+"/api/v1/replay/step", "application/json", nil)
	if err != nil {
		t.Fatalf("second step failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 409 {
		t.Fatalf("expected 409 past the end, got %d", resp.StatusCode)
	}
	var errResp ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error response failed: %v", err)
	}
	if errResp.Code != "REPLAY_DONE" {
		t.Errorf("expected REPLAY_DONE code, got %q", errResp.Code)
	}
}
