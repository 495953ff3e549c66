package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/sells-group/bankfacts/internal/estimate"
	"github.com/sells-group/bankfacts/internal/ingest"
	"github.com/sells-group/bankfacts/internal/model"
)

type candidatesRequest struct {
	// SourceFile names the upload; it supplies bank and document defaults.
	SourceFile string          `json:"source_file"`
	Candidates []ingest.Record `json:"candidates"`
}

func (s *Server) postCandidates(w http.ResponseWriter, r *http.Request) {
	var req candidatesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Candidates) == 0 {
		writeError(w, http.StatusBadRequest, "candidates are required")
		return
	}

	norm := ingest.Normalizer{Rules: s.eng.Rules()}
	cs := make([]model.Candidate, 0, len(req.Candidates))
	for i, rec := range req.Candidates {
		c, err := norm.Candidate(req.SourceFile, rec)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("candidate %d: %v", i, err))
			return
		}
		cs = append(cs, c)
	}

	if err := s.eng.IngestCandidates(r.Context(), cs); err != nil {
		zap.L().Error("api: ingest not persisted", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "candidates ingested but not persisted")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"ingested": len(cs), "total": len(s.eng.Candidates())})
}

// estimatesRequest carries either explicit estimate candidates or an
// allocation model to derive them from.
type estimatesRequest struct {
	Candidates []model.Candidate `json:"candidates,omitempty"`

	Allocation *estimate.AllocationModel `json:"allocation,omitempty"`
	Bank       model.Bank                `json:"bank,omitempty"`
	Currency   model.Currency            `json:"currency,omitempty"`
	Periods    []string                  `json:"periods,omitempty"`
}

func (req estimatesRequest) batch() ([]model.Candidate, error) {
	if req.Allocation == nil {
		return req.Candidates, nil
	}
	ccy := req.Currency
	if ccy == "" {
		ccy = model.CurrencyHKD
	}
	return req.Allocation.Candidates(req.Bank, ccy, req.Periods)
}

func (s *Server) postEstimates(w http.ResponseWriter, r *http.Request) {
	var req estimatesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	batch, err := req.batch()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(batch) == 0 {
		writeError(w, http.StatusBadRequest, "estimate batch is empty")
		return
	}

	keys, err := s.eng.SaveEstimate(r.Context(), batch)
	switch {
	case err != nil && len(keys) == 0:
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		zap.L().Error("api: estimate not persisted", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "estimate applied but not persisted")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"keys": keys})
}

func (s *Server) postReset(w http.ResponseWriter, r *http.Request) {
	if err := s.eng.Reset(r.Context()); err != nil {
		zap.L().Error("api: reset not persisted", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "reset not persisted")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}
