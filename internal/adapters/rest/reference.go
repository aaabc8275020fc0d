package rest

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/ewilliams-labs/chordlens/internal/core/domain"
)

type referenceRowResponse struct {
	Pitch       string   `json:"pitch"`
	Status      string   `json:"status"`
	JustHz      *float64 `json:"just_hz"`
	EqualHz     *float64 `json:"equal_hz"`
	OffsetCents *float64 `json:"offset_cents"`
}

type referenceResponse struct {
	Root        string                 `json:"root"`
	TonicSource string                 `json:"tonic_source"`
	A4Hz        float64                `json:"a4_hz"`
	Rows        []referenceRowResponse `json:"rows"`
}

// Reference handles GET /tuning/reference?pitch=C4&pitch=E4&root=C4&a4=440.
// pitches=C4,E4 is accepted as a shorthand.
func (h *Handler) Reference(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var names []string
	for _, p := range q["pitch"] {
		names = append(names, strings.TrimSpace(p))
	}
	if list := q.Get("pitches"); list != "" {
		for _, p := range strings.Split(list, ",") {
			names = append(names, strings.TrimSpace(p))
		}
	}
	if len(names) == 0 {
		writeErrorWithCode(w, http.StatusBadRequest, "at least one pitch is required", errCodeBadRequest)
		return
	}

	var a4 float64
	if raw := q.Get("a4"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v <= 0 {
			writeErrorWithCode(w, http.StatusBadRequest, "a4 must be a positive number", errCodeBadRequest)
			return
		}
		a4 = v
	}

	table, err := h.svc.Reference(names, q.Get("root"), a4)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := referenceResponse{
		Root:        table.Root,
		TonicSource: string(table.TonicSource),
		A4Hz:        table.A4,
		Rows:        make([]referenceRowResponse, len(table.Rows)),
	}
	for i, row := range table.Rows {
		resp.Rows[i] = referenceRowResponse{
			Pitch:       row.Pitch,
			Status:      string(row.Status),
			JustHz:      domain.Nullable(row.JustHz),
			EqualHz:     domain.Nullable(row.EqualHz),
			OffsetCents: domain.Nullable(row.OffsetCents),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
