package store

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"

	"github.com/sells-group/bankfacts/internal/model"
)

// ExportJSON writes the overlay as one flat object keyed by fact key.
func ExportJSON(w io.Writer, m model.StatusMap) error {
	if m == nil {
		m = model.StatusMap{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(m), "store: export json")
}

// ImportJSON reads a flat key→status object written by ExportJSON.
func ImportJSON(r io.Reader) (model.StatusMap, error) {
	var m model.StatusMap
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, eris.Wrap(err, "store: import json")
	}
	for k := range m {
		if k == "" {
			return nil, eris.New("store: import json: empty fact key")
		}
	}
	if m == nil {
		m = model.StatusMap{}
	}
	return m, nil
}
