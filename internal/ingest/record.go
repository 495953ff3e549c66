package ingest

import (
	"path/filepath"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/rotisserie/eris"

	"github.com/sells-group/bankfacts/internal/identity"
	"github.com/sells-group/bankfacts/internal/model"
	"github.com/sells-group/bankfacts/internal/waterfall"
)

// Record is one extracted figure as it appears in a batch file. Empty
// fields are filled from the file name and the priority configuration.
type Record struct {
	model.Candidate `yaml:",inline"`

	// DocType selects the priority rule when doc_type_priority is absent.
	DocType string `json:"doc_type,omitempty" yaml:"doc_type,omitempty"`
}

// Batch is the top-level layout of YAML and JSON batch files.
type Batch struct {
	Candidates []Record `json:"candidates" yaml:"candidates"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("knownbank", func(fl validator.FieldLevel) bool {
		b := model.Bank(fl.Field().String())
		for _, known := range model.AllBanks() {
			if b == known {
				return true
			}
		}
		return false
	})
	_ = validate.RegisterValidation("knownsegment", func(fl validator.FieldLevel) bool {
		s := model.Segment(fl.Field().String())
		for _, known := range model.AllSegments() {
			if s == known {
				return true
			}
		}
		return false
	})
}

// checked adds the registry checks that only make sense at ingestion.
type checked struct {
	Bank    model.Bank    `validate:"knownbank"`
	Segment model.Segment `validate:"knownsegment"`
}

// Normalizer fills defaults, ranks, validates, and stamps records.
type Normalizer struct {
	Rules *waterfall.Config
}

// Candidate converts r into a stamped candidate. file is the batch file the
// record came from and supplies the bank and source document defaults.
func (n Normalizer) Candidate(file string, r Record) (model.Candidate, error) {
	c := r.Candidate
	if c.Bank == "" {
		c.Bank = DetectBank(file)
	}
	if c.SourceDoc == "" {
		c.SourceDoc = filepath.Base(file)
	}
	if c.Segment == "" {
		c.Segment = model.SegmentGroup
	}
	if c.Unit == "" {
		c.Unit = model.UnitMillions
		if spec, ok := model.LookupMetric(c.Metric); ok {
			c.Unit = spec.Unit
		}
	}
	if c.Currency == "" && !c.Unit.IsPercent() {
		c.Currency = model.CurrencyHKD
	}
	if c.Year == 0 && len(c.Period) >= 4 {
		if y, err := strconv.Atoi(c.Period[:4]); err == nil {
			c.Year = y
		}
	}
	if c.Frequency == "" {
		c.Frequency = InferFrequency(c.Period)
	}
	if c.Priority == 0 {
		docType := r.DocType
		if docType == "" {
			docType = DocTypeFor(c.SourceDoc)
		}
		c.Priority = n.Rules.RankFor(c.Bank, docType)
	}

	if err := validate.Struct(c); err != nil {
		return model.Candidate{}, eris.Wrapf(err, "ingest: invalid candidate %q", c.Metric)
	}
	if err := validate.Struct(checked{Bank: c.Bank, Segment: c.Segment}); err != nil {
		return model.Candidate{}, eris.Wrapf(err, "ingest: invalid candidate %q", c.Metric)
	}

	identity.Stamp(&c)
	return c, nil
}
