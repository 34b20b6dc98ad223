package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/sblp/sblpd/internal/bump"
	"github.com/sblp/sblpd/internal/bus"
	apperrors "github.com/sblp/sblpd/internal/errors"
	"github.com/sblp/sblpd/internal/metrics"
	"github.com/sblp/sblpd/internal/observability"
)

// FinishedResponse is the SBLP wire shape acknowledging an accepted bump.
type FinishedResponse struct {
	Type     string      `json:"type"`
	Message  string      `json:"message"`
	NextBump int64       `json:"nextBump"`
	Response interface{} `json:"response,omitempty"`
}

// BumpService glues the pipeline together for the HTTP surface: decode the
// body, map it, pass the cooldown gate, then dispatch.
type BumpService struct {
	Mapper   *bump.Mapper
	Gate     *bump.Gate
	Notifier bump.Notifier

	// Bus carries diagnostic events for invalid requests. Optional.
	Bus *bus.Bus

	// BotName is quoted in acknowledgement messages.
	BotName string
}

// HandleRequest serves POST /sblp/request.
func (s *BumpService) HandleRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var payload map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, r, apperrors.WrapInvalidInput(ctx, err, "request body is not a JSON object"))
		return
	}
	if len(payload) == 0 {
		respondWithError(w, r, apperrors.NewInvalidInputError("empty bump payload"))
		return
	}

	mapped := s.Mapper.Map(ctx, bump.FromPayload(payload))

	if !mapped.Valid {
		// Invalid requests never reach a registered handler. They are still
		// surfaced on the bus so diagnostic listeners can observe them.
		if s.Bus != nil {
			s.Bus.Publish(bus.New(bump.EventRequestInvalid, "sblpd", mapped))
			metrics.RecordEventEmitted(bump.EventRequestInvalid)
		}
		metrics.RecordBump(metrics.OutcomeInvalid)
		respondWithError(w, r, apperrors.NewValidationError("bump request is missing or has malformed required fields"))
		return
	}

	accepted, wait := s.Gate.Accept()
	if !accepted {
		metrics.RecordBump(metrics.OutcomeCooldown)
		metrics.RecordCooldownRejection()

		if observability.ServerLogger != nil {
			// Expected outcome, informational only.
			observability.ServerLogger.Info("Bump rejected by cooldown gate",
				zap.Int64("guild", mapped.Guild),
				zap.Duration("retry_after", wait))
		}

		retryAfter := int((wait + time.Second - 1) / time.Second)
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		envelope := apperrors.NewCooldownActiveError("bump cooldown is active")
		envelope, _ = envelope.WithContext(map[string]interface{}{
			"retry_after_seconds": retryAfter,
			"next_bump_ms":        wait.Milliseconds(),
		})
		respondWithError(w, r, envelope)
		return
	}

	result, err := s.Notifier.Notify(ctx, mapped)
	if err != nil {
		metrics.RecordBump(metrics.OutcomeFailed)
		metrics.RecordHandlerFailure()

		if observability.ServerLogger != nil {
			observability.ServerLogger.Error("Bump handler failed",
				zap.Int64("guild", mapped.Guild),
				zap.Error(err))
		}

		respondWithError(w, r, apperrors.WrapHandlerFailed(ctx, err, "internal error while running bump handler"))
		return
	}

	metrics.RecordBump(metrics.OutcomeAccepted)
	if _, viaBus := s.Notifier.(*bump.BusNotifier); viaBus {
		metrics.RecordEventEmitted(bump.EventRequestStart)
	}

	writeJSON(w, http.StatusOK, FinishedResponse{
		Type:     "FINISHED",
		Message:  fmt.Sprintf("%s has successfully bumped.", s.botName()),
		NextBump: s.Gate.Interval().Milliseconds(),
		Response: result,
	})
}

// StatusResponse is the snapshot served by /sblp/status.
type StatusResponse struct {
	State            string `json:"state"`
	CooldownSeconds  int64  `json:"cooldown_seconds"`
	LastAccepted     string `json:"last_accepted,omitempty"`
	RemainingSeconds int64  `json:"remaining_seconds"`
	BusHandlers      int    `json:"bus_handlers"`
}

// StateReporter exposes the lifecycle state without binding handlers to the
// concrete client type.
type StateReporter interface {
	State() bump.State
}

// HandleStatus serves GET /sblp/status: a cooldown and lifecycle snapshot.
func (s *BumpService) HandleStatus(reporter StateReporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := StatusResponse{
			State:            "running",
			CooldownSeconds:  int64(s.Gate.Interval() / time.Second),
			RemainingSeconds: int64((s.Gate.Remaining() + time.Second - 1) / time.Second),
		}
		if reporter != nil {
			resp.State = reporter.State().String()
		}
		if last := s.Gate.LastAccepted(); !last.IsZero() {
			resp.LastAccepted = last.UTC().Format(time.RFC3339)
		}
		if s.Bus != nil {
			resp.BusHandlers = s.Bus.HandlerCount()
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func (s *BumpService) botName() string {
	if s.BotName != "" {
		return s.BotName
	}
	return "sblpd"
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
