package rest

import (
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/ewilliams-labs/chordlens/internal/core/domain"
	"github.com/ewilliams-labs/chordlens/internal/core/services"
)

// analyzeRequest is the wire shape of POST /analyze.
type analyzeRequest struct {
	AudioBase64 string   `json:"audio_base64"`
	SampleRate  int      `json:"sample_rate"`
	PitchList   []string `json:"pitch_list"`
	Root        string   `json:"root,omitempty"`
	A4          *float64 `json:"a4,omitempty"`
	PresetID    string   `json:"preset_id,omitempty"`
}

type entryResponse struct {
	Pitch            string   `json:"pitch"`
	Status           string   `json:"status"`
	ReferenceHz      *float64 `json:"reference_hz"`
	EqualOffsetCents *float64 `json:"equal_offset_cents"`
	ObservedHz       *float64 `json:"observed_hz"`
	Cents            *float64 `json:"cents"`
}

type analyzeResponse struct {
	EstList            []*float64      `json:"est_list"`
	Entries            []entryResponse `json:"entries"`
	SampleRate         int             `json:"sample_rate"`
	DeclaredSampleRate int             `json:"declared_sample_rate"`
	Root               string          `json:"root"`
	Diagnostics        []string        `json:"diagnostics"`
}

// Analyze handles POST /analyze
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	if !isJSONContentType(r) {
		writeError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return
	}

	// 1. Decode the Request Body
	var req analyzeRequest
	if status, err := decodeJSON(w, r, h.maxBodyBytes, &req); err != nil {
		if status == http.StatusRequestEntityTooLarge {
			writeErrorWithCode(w, status, "request body too large", errCodeTooLarge)
			return
		}
		writeErrorWithCode(w, status, "Invalid request body", errCodeBadRequest)
		return
	}

	// 2. Validate Input
	if req.SampleRate <= 0 {
		writeErrorWithCode(w, http.StatusBadRequest, "sample_rate must be positive", errCodeBadRequest)
		return
	}
	if req.PitchList == nil && req.PresetID == "" {
		writeErrorWithCode(w, http.StatusBadRequest, "pitch_list or preset_id is required", errCodeBadRequest)
		return
	}
	audio, err := base64.StdEncoding.DecodeString(strings.TrimSpace(req.AudioBase64))
	if err != nil {
		writeErrorWithCode(w, http.StatusBadRequest, "audio_base64 is not valid base64", errCodeBadRequest)
		return
	}

	// 3. Run the analysis, through the pool when one is configured
	svcReq := services.AnalyzeRequest{
		Audio:      audio,
		SampleRate: req.SampleRate,
		Pitches:    req.PitchList,
		Root:       req.Root,
		PresetID:   req.PresetID,
	}
	if req.A4 != nil {
		if *req.A4 <= 0 {
			writeErrorWithCode(w, http.StatusBadRequest, "a4 must be positive", errCodeBadRequest)
			return
		}
		svcReq.A4 = *req.A4
	}

	var report domain.Report
	if h.runner != nil {
		report, err = h.runner.Do(r.Context(), svcReq)
	} else {
		report, err = h.svc.Analyze(r.Context(), svcReq)
	}
	if err != nil {
		h.logger.Warn("analysis rejected", "error", err)
		writeServiceError(w, err)
		return
	}

	// 4. Return the Response
	writeJSON(w, http.StatusOK, toAnalyzeResponse(report))
}

func toAnalyzeResponse(report domain.Report) analyzeResponse {
	resp := analyzeResponse{
		EstList:            make([]*float64, len(report.Deviations)),
		Entries:            make([]entryResponse, len(report.Entries)),
		SampleRate:         report.SampleRate,
		DeclaredSampleRate: report.DeclaredSampleRate,
		Root:               report.Root,
		Diagnostics:        report.Diagnostics,
	}
	if resp.Diagnostics == nil {
		resp.Diagnostics = []string{}
	}
	for i, d := range report.Deviations {
		resp.EstList[i] = domain.Nullable(d)
	}
	for i, e := range report.Entries {
		resp.Entries[i] = entryResponse{
			Pitch:            e.Pitch,
			Status:           string(e.Status),
			ReferenceHz:      domain.Nullable(e.ReferenceHz),
			EqualOffsetCents: domain.Nullable(e.EqualOffsetCents),
			ObservedHz:       domain.Nullable(e.ObservedHz),
			Cents:            domain.Nullable(e.Cents),
		}
	}
	return resp
}
