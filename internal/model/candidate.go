package model

// Severity is the outcome of a normalization step.
type Severity string

const (
	SeverityOK      Severity = "ok"
	SeverityWarning Severity = "warning"
)

// NormalizationStep records one transformation applied to an extracted value.
type NormalizationStep struct {
	Name              string   `json:"step_name" yaml:"step_name" validate:"required"`
	Description       string   `json:"description" yaml:"description"`
	RawInput          string   `json:"raw_input,omitempty" yaml:"raw_input,omitempty"`
	TransformedOutput string   `json:"transformed_output,omitempty" yaml:"transformed_output,omitempty"`
	Severity          Severity `json:"status" yaml:"status" validate:"omitempty,oneof=ok warning"`
}

// Candidate is one extraction of a logical fact from one source document.
// Candidates are immutable once appended to a store.
type Candidate struct {
	ID                string              `json:"id" yaml:"id"`
	Key               FactKey             `json:"logical_id" yaml:"logical_id"`
	Metric            string              `json:"metric" yaml:"metric" validate:"required"`
	Value             float64             `json:"value" yaml:"value"`
	Unit              Unit                `json:"unit" yaml:"unit" validate:"omitempty,oneof=m %"`
	Currency          Currency            `json:"currency" yaml:"currency" validate:"omitempty,oneof=HKD USD GBP"`
	Period            string              `json:"period" yaml:"period" validate:"required"`
	Year              int                 `json:"year" yaml:"year"`
	Frequency         Frequency           `json:"frequency" yaml:"frequency"`
	Bank              Bank                `json:"bank" yaml:"bank" validate:"required"`
	SourceDoc         string              `json:"source_doc" yaml:"source_doc" validate:"required"`
	Priority          int                 `json:"doc_type_priority" yaml:"doc_type_priority" validate:"gte=0,lte=4"`
	Page              int                 `json:"page_number" yaml:"page_number"`
	ExtractionContext string              `json:"extraction_context,omitempty" yaml:"extraction_context,omitempty"`
	OriginalSegment   string              `json:"original_segment,omitempty" yaml:"original_segment,omitempty"`
	Segment           Segment             `json:"standardized_segment" yaml:"standardized_segment" validate:"required"`
	RawSnippet        string              `json:"raw_extract_snippet,omitempty" yaml:"raw_extract_snippet,omitempty"`
	Trace             []NormalizationStep `json:"normalization_trace,omitempty" yaml:"normalization_trace,omitempty" validate:"dive"`
}

// IsEstimate reports whether the candidate is an internally modelled figure.
func (c Candidate) IsEstimate() bool { return c.Priority == PriorityEstimate }
