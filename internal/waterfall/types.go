package waterfall

import "github.com/sells-group/bankfacts/internal/model"

// Rule ranks one document type for a bank.
type Rule struct {
	Priority    int    `yaml:"priority" json:"priority"`
	DocType     string `yaml:"doc_type" json:"doc_type"`
	Description string `yaml:"description" json:"description"`
}

// Attempt is one candidate considered for a logical fact.
type Attempt struct {
	Candidate model.Candidate `json:"candidate"`
	Arrival   int             `json:"arrival"` // position in append order
	Winner    bool            `json:"winner"`
}

// Resolution is the audit view of waterfall evaluation for one fact.
type Resolution struct {
	Key      model.FactKey    `json:"logical_id"`
	Resolved bool             `json:"resolved"`
	Winner   *model.Candidate `json:"winner,omitempty"`
	Attempts []Attempt        `json:"attempts"`
}
