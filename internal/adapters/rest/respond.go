package rest

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"github.com/ewilliams-labs/chordlens/internal/core/domain"
	"github.com/ewilliams-labs/chordlens/internal/worker"
)

const (
	errCodeBadRequest = "BAD_REQUEST"
	errCodeNotFound   = "NOT_FOUND"
	errCodeBusy       = "BUSY"
	errCodeLimit      = "PRESET_LIMIT"
	errCodeTooLarge   = "PAYLOAD_TOO_LARGE"
	errCodeInternal   = "INTERNAL"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func isJSONContentType(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(ct)
	return err == nil && mediaType == "application/json"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeErrorWithCode(w http.ResponseWriter, status int, msg, code string) {
	writeJSON(w, status, errorResponse{Error: msg, Code: code})
}

// writeServiceError maps core errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	var aerr *domain.AnalysisError
	switch {
	case errors.As(err, &aerr):
		writeErrorWithCode(w, http.StatusUnprocessableEntity, aerr.Error(), string(aerr.Kind))
	case errors.Is(err, worker.ErrQueueFull), errors.Is(err, worker.ErrStopped):
		writeErrorWithCode(w, http.StatusServiceUnavailable, err.Error(), errCodeBusy)
	case errors.Is(err, domain.ErrNotFound):
		writeErrorWithCode(w, http.StatusNotFound, err.Error(), errCodeNotFound)
	case errors.Is(err, domain.ErrPresetLimit):
		writeErrorWithCode(w, http.StatusConflict, err.Error(), errCodeLimit)
	case errors.Is(err, domain.ErrInvalidPreset),
		errors.Is(err, domain.ErrDuplicatePitch),
		errors.Is(err, domain.ErrUnknownPitch),
		errors.Is(err, domain.ErrInvalidFrequency):
		writeErrorWithCode(w, http.StatusBadRequest, err.Error(), errCodeBadRequest)
	case errors.Is(err, context.DeadlineExceeded):
		writeErrorWithCode(w, http.StatusGatewayTimeout, err.Error(), errCodeBusy)
	case errors.Is(err, context.Canceled):
		writeErrorWithCode(w, http.StatusServiceUnavailable, err.Error(), errCodeBusy)
	default:
		writeErrorWithCode(w, http.StatusInternalServerError, err.Error(), errCodeInternal)
	}
}

// decodeJSON reads a JSON body no larger than limit. The returned status is
// the one to answer with when err is non-nil.
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, v any) (int, error) {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return http.StatusRequestEntityTooLarge, err
		}
		return http.StatusBadRequest, err
	}
	return http.StatusOK, nil
}

