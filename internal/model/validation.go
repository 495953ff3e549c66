package model

import "time"

// ValidationStatus is the reviewer-authored overlay for one logical fact.
// JSON names match the persisted flat map layout.
type ValidationStatus struct {
	IsOverride    bool      `json:"isOverride"`
	IsValidated   bool      `json:"isValidated"`
	IsNA          bool      `json:"isNA"`
	IsFlagged     bool      `json:"isFlagged"`
	Comments      string    `json:"comments,omitempty"`
	OriginalValue float64   `json:"originalValue"`
	CurrentValue  float64   `json:"currentValue"`
	LastModified  time.Time `json:"lastModified"`
}

// Locked reports whether the value has been validated and locked.
func (s ValidationStatus) Locked() bool { return s.IsValidated }

// StatusMap is the persisted overlay: one record per logical fact key.
type StatusMap map[FactKey]ValidationStatus
