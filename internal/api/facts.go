package api

import (
	"net/http"
	"strings"

	"github.com/sells-group/bankfacts/internal/export"
	"github.com/sells-group/bankfacts/internal/model"
	"github.com/sells-group/bankfacts/internal/monitoring"
)

func (s *Server) listFacts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.FactFilter{
		Bank:    model.Bank(q.Get("bank")),
		Period:  q.Get("period"),
		Segment: model.Segment(q.Get("segment")),
	}
	facts := s.eng.GetResolvedFacts(filter)
	if facts == nil {
		facts = []model.Candidate{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"facts": facts, "count": len(facts)})
}

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	st, ok := s.eng.GetValidationStatus(keyParam(r))
	if !ok {
		writeError(w, http.StatusNotFound, "no validation status")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) getAudit(w http.ResponseWriter, r *http.Request) {
	a := s.eng.Audit(keyParam(r))
	if !a.Resolved && a.Status == nil {
		writeError(w, http.StatusNotFound, "unknown fact")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) getDisplay(w http.ResponseWriter, r *http.Request) {
	ccy, ok := currencyParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "unsupported currency")
		return
	}
	cell := s.eng.Display(keyParam(r), ccy)
	writeJSON(w, http.StatusOK, map[string]any{"cell": cell, "label": cell.Label()})
}

// table renders the bank-by-metric review grid for one period and segment.
func (s *Server) table(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	if period == "" {
		writeError(w, http.StatusBadRequest, "period is required")
		return
	}
	ccy, ok := currencyParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "unsupported currency")
		return
	}
	var banks []model.Bank
	if raw := r.URL.Query().Get("banks"); raw != "" {
		for _, b := range strings.Split(raw, ",") {
			banks = append(banks, model.Bank(strings.TrimSpace(b)))
		}
	}
	seg := model.Segment(r.URL.Query().Get("segment"))
	writeJSON(w, http.StatusOK, export.Build(s.eng, period, seg, banks, ccy))
}

func (s *Server) progress(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	writeJSON(w, http.StatusOK, monitoring.Collect(s.eng, model.FactFilter{
		Bank:    model.Bank(q.Get("bank")),
		Period:  q.Get("period"),
		Segment: model.Segment(q.Get("segment")),
	}))
}

func currencyParam(r *http.Request) (model.Currency, bool) {
	switch c := model.Currency(strings.ToUpper(r.URL.Query().Get("currency"))); c {
	case "":
		return model.CurrencyHKD, true
	case model.CurrencyHKD, model.CurrencyUSD, model.CurrencyGBP:
		return c, true
	default:
		return "", false
	}
}
