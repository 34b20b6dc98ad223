package cmd

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sblp/sblpd/internal/server/handlers"
)

func TestRenderStatusTable(t *testing.T) {
	out := renderStatusTable("http://localhost:8080/sblp/status", handlers.StatusResponse{
		State:            "running",
		CooldownSeconds:  3600,
		LastAccepted:     "2026-08-24T10:00:00Z",
		RemainingSeconds: 1200,
		BusHandlers:      2,
	})

	require.True(t, strings.Contains(out, "running"))
	require.True(t, strings.Contains(out, "1h0m0s"))
	require.True(t, strings.Contains(out, "20m0s"))
	require.True(t, strings.Contains(out, "2026-08-24T10:00:00Z"))
}

func TestRenderStatusTableBeforeFirstBump(t *testing.T) {
	out := renderStatusTable("http://localhost:8080/sblp/status", handlers.StatusResponse{
		State:           "running",
		CooldownSeconds: 3600,
	})

	require.True(t, strings.Contains(out, "never"))
	require.True(t, strings.Contains(out, "ready now"))
}
