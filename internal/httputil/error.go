package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/AdamBeresnev/ultimate-tournaments/internal/service"
)

type errorResponse struct {
	Error    string `json:"error"`
	Recorded *int   `json:"recorded,omitempty"`
	Expected *int   `json:"expected,omitempty"`
}

func InternalServerError(w http.ResponseWriter, msg string, err error) {
	slog.Error(msg, "error", err)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

func BadRequest(w http.ResponseWriter, msg string, err error) {
	if err != nil {
		slog.Warn("bad request", "message", msg, "error", err)
	} else {
		slog.Warn("bad request", "message", msg)
	}
	http.Error(w, msg, http.StatusBadRequest)
}

func NotFound(w http.ResponseWriter, msg string, err error) {
	if err != nil {
		slog.Warn("not found", "message", msg, "error", err)
	} else {
		slog.Warn("not found", "message", msg)
	}
	http.Error(w, msg, http.StatusNotFound)
}

// StatusFor maps an engine error to the HTTP status a client should see.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrInsufficientTeams),
		errors.Is(err, service.ErrUnsupportedFormat),
		errors.Is(err, service.ErrInvalidPoolCount),
		errors.Is(err, service.ErrInvalidAdvancement),
		errors.Is(err, service.ErrInvalidScore),
		errors.Is(err, service.ErrInvalidAttendanceStatus),
		errors.Is(err, service.ErrInvalidRole),
		errors.Is(err, service.ErrNameRequired):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrConcurrentModification),
		errors.Is(err, service.ErrAttendanceIncomplete),
		errors.Is(err, service.ErrMatchNotOngoing),
		errors.Is(err, service.ErrMatchClosed),
		errors.Is(err, service.ErrTiedScore),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrTeamsNotSet),
		errors.Is(err, service.ErrSlotOccupied),
		errors.Is(err, service.ErrBracketLocked),
		errors.Is(err, service.ErrRoundsExhausted),
		errors.Is(err, service.ErrRoundInProgress):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// WriteError answers a JSON request with the status and message of err.
// Unexpected errors are logged and hidden from the client.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	body := errorResponse{Error: err.Error()}

	switch {
	case status == http.StatusInternalServerError:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		body.Error = http.StatusText(status)
	default:
		slog.Warn("request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}

	var incomplete *service.AttendanceIncompleteError
	if errors.As(err, &incomplete) {
		body.Recorded = &incomplete.Recorded
		body.Expected = &incomplete.Expected
	}
	if errors.Is(err, service.ErrConcurrentModification) {
		w.Header().Set("Retry-After", "1")
	}

	WriteJSON(w, status, body)
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

const maxBodyBytes = 1 << 20

// DecodeJSON reads a single JSON value from the request body into v,
// rejecting unknown fields.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("body must not be empty")
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}
	return nil
}
