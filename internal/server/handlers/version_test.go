package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestVersionHandlerReportsInjectedBuildInfo(t *testing.T) {
	SetVersionInfo("0.1.0", "abc1234", "2026-08-24")
	defer SetVersionInfo("dev", "unknown", "unknown")

	req := httptest.NewRequest(http.MethodGet, "/version", nil)
	rec := httptest.NewRecorder()

	VersionHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var resp VersionResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp.App.Name != "sblpd" {
		t.Fatalf("expected app name sblpd, got %s", resp.App.Name)
	}
	if resp.App.Version != "0.1.0" {
		t.Fatalf("expected version 0.1.0, got %s", resp.App.Version)
	}
	if resp.App.Commit != "abc1234" {
		t.Fatalf("expected commit abc1234, got %s", resp.App.Commit)
	}
	if resp.Runtime.NumCPU <= 0 {
		t.Fatalf("expected positive CPU count, got %d", resp.Runtime.NumCPU)
	}
}
