package rest

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ewilliams-labs/chordlens/internal/core/domain"
)

type createPresetRequest struct {
	Name    string   `json:"name"`
	Pitches []string `json:"pitches"`
	Root    string   `json:"root,omitempty"`
}

type presetResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Pitches   []string  `json:"pitches"`
	Root      string    `json:"root,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type presetListResponse struct {
	Presets []presetResponse `json:"presets"`
}

func toPresetResponse(p domain.Preset) presetResponse {
	pitches := p.Pitches
	if pitches == nil {
		pitches = []string{}
	}
	return presetResponse{ID: p.ID, Name: p.Name, Pitches: pitches, Root: p.Root, CreatedAt: p.CreatedAt}
}

// ListPresets handles GET /presets
func (h *Handler) ListPresets(w http.ResponseWriter, r *http.Request) {
	presets, err := h.svc.ListPresets(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	resp := presetListResponse{Presets: make([]presetResponse, 0, len(presets))}
	for _, p := range presets {
		resp.Presets = append(resp.Presets, toPresetResponse(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreatePreset handles POST /presets
func (h *Handler) CreatePreset(w http.ResponseWriter, r *http.Request) {
	if !isJSONContentType(r) {
		writeError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return
	}
	var req createPresetRequest
	if status, err := decodeJSON(w, r, h.maxBodyBytes, &req); err != nil {
		writeErrorWithCode(w, status, "Invalid request body", errCodeBadRequest)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeErrorWithCode(w, http.StatusBadRequest, "name is required", errCodeBadRequest)
		return
	}

	p, err := h.svc.CreatePreset(r.Context(), req.Name, req.Pitches, req.Root)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Location", "/presets/"+p.ID)
	writeJSON(w, http.StatusCreated, toPresetResponse(p))
}

// GetPreset handles GET /presets/{id}
func (h *Handler) GetPreset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeErrorWithCode(w, http.StatusBadRequest, "preset id is required", errCodeBadRequest)
		return
	}
	p, err := h.svc.GetPreset(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPresetResponse(p))
}

// DeletePreset handles DELETE /presets/{id}
func (h *Handler) DeletePreset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeErrorWithCode(w, http.StatusBadRequest, "preset id is required", errCodeBadRequest)
		return
	}
	if err := h.svc.DeletePreset(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
