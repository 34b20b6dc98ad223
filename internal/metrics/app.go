// Package metrics records application counters for the bump pipeline
// following Prometheus naming conventions. All helpers are no-ops until the
// telemetry system is initialized, so library use stays metrics-free.
package metrics

import (
	"github.com/sblp/sblpd/internal/observability"
)

var (
	RequestsTotal           = "sblp_requests_total"
	CooldownRejectionsTotal = "sblp_cooldown_rejections_total"
	HandlerFailuresTotal    = "sblp_handler_failures_total"
	EventsEmittedTotal      = "sblp_events_emitted_total"
	PanicsTotal             = "sblp_http_panics_total"
)

// Bump request outcomes.
const (
	OutcomeAccepted = "accepted"
	OutcomeCooldown = "cooldown"
	OutcomeInvalid  = "invalid"
	OutcomeFailed   = "failed"
)

// RecordBump records one inbound bump request with its outcome.
func RecordBump(outcome string) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			RequestsTotal,
			1,
			map[string]string{"outcome": outcome},
		)
	}
}

// RecordCooldownRejection records a bump rejected by the cooldown gate.
func RecordCooldownRejection() {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(CooldownRejectionsTotal, 1, nil)
	}
}

// RecordHandlerFailure records a registered handler erroring or panicking.
func RecordHandlerFailure() {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(HandlerFailuresTotal, 1, nil)
	}
}

// RecordEventEmitted records an event published on the bus.
func RecordEventEmitted(name string) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			EventsEmittedTotal,
			1,
			map[string]string{"event": name},
		)
	}
}

// RecordPanic records a panic recovered by the HTTP middleware.
func RecordPanic() {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(PanicsTotal, 1, nil)
	}
}
