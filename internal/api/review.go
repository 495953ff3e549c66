package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/bankfacts/internal/model"
	"github.com/sells-group/bankfacts/internal/overlay"
)

type mutationResponse struct {
	Key     model.FactKey          `json:"logical_id"`
	Outcome string                 `json:"outcome"`
	Status  model.ValidationStatus `json:"status"`
}

// respond maps an overlay outcome to a status code. A rejected mutation
// answers 409 with the unchanged status.
func respond(w http.ResponseWriter, key model.FactKey, out overlay.Outcome, st model.ValidationStatus, err error) {
	if err != nil {
		zap.L().Error("api: mutation not persisted", zap.String("key", string(key)), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "change applied but not persisted")
		return
	}
	code := http.StatusOK
	if out == overlay.RejectedLocked {
		code = http.StatusConflict
	}
	writeJSON(w, code, mutationResponse{Key: key, Outcome: out.String(), Status: st})
}

// valueRequest accepts the value as a JSON number or as free text.
type valueRequest struct {
	Value    json.RawMessage `json:"value"`
	Currency model.Currency  `json:"currency,omitempty"`
}

func (v valueRequest) parse() (float64, error) {
	raw := bytes.TrimSpace(v.Value)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, eris.New("value is required")
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, eris.Wrap(err, "value")
		}
		return overlay.ParseValue(s), nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, eris.Wrap(err, "value must be a number or string")
	}
	return f, nil
}

func (s *Server) putValue(w http.ResponseWriter, r *http.Request) {
	var req valueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	v, err := req.parse()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	key := keyParam(r)
	var (
		out overlay.Outcome
		st  model.ValidationStatus
	)
	if req.Currency != "" {
		out, st, err = s.eng.SetValueIn(r.Context(), key, v, req.Currency)
	} else {
		out, st, err = s.eng.SetValue(r.Context(), key, v)
	}
	respond(w, key, out, st, err)
}

func (s *Server) putComment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Comment string `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	key := keyParam(r)
	out, st, err := s.eng.SetComment(r.Context(), key, req.Comment)
	respond(w, key, out, st, err)
}

type toggleFunc func(context.Context, model.FactKey) (overlay.Outcome, model.ValidationStatus, error)

func (s *Server) toggle(fn toggleFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := keyParam(r)
		out, st, err := fn(r.Context(), key)
		respond(w, key, out, st, err)
	}
}
