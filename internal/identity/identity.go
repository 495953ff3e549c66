// Package identity derives stable, content-addressed identifiers for logical
// facts and for individual extractions of those facts.
package identity

import (
	"strings"

	"github.com/google/uuid"

	"github.com/sells-group/bankfacts/internal/model"
)

const (
	factPrefix     = "LID-"
	instancePrefix = "DP-"
	sep            = "|"
)

// Fixed namespaces keep ids stable across processes and releases.
var (
	factNamespace     = uuid.MustParse("6f1c2a7e-3b0d-5a8e-9c41-0d2b7e5f8a10")
	instanceNamespace = uuid.MustParse("b3e8d915-7c24-5f60-8a1d-4e9c0f2b6d73")
)

// LogicalFactKey hashes the (bank, period, metric, segment) tuple. The same
// tuple always yields the same key regardless of which document or in which
// order the fact was extracted.
func LogicalFactKey(bank model.Bank, period, metric string, segment model.Segment) model.FactKey {
	name := strings.Join([]string{string(bank), period, metric, string(segment)}, sep)
	return model.FactKey(factPrefix + uuid.NewSHA1(factNamespace, []byte(name)).String())
}

// InstanceID identifies one extraction of a fact from one source document.
// Re-extracting the same fact from the same document yields the same id.
func InstanceID(key model.FactKey, sourceDoc string) string {
	name := string(key) + sep + sourceDoc
	return instancePrefix + uuid.NewSHA1(instanceNamespace, []byte(name)).String()
}

// Stamp fills the candidate's logical key and instance id from its own fields.
func Stamp(c *model.Candidate) {
	c.Key = LogicalFactKey(c.Bank, c.Period, c.Metric, c.Segment)
	c.ID = InstanceID(c.Key, c.SourceDoc)
}

// IsFactKey reports whether s looks like a key produced by LogicalFactKey.
func IsFactKey(s string) bool {
	if !strings.HasPrefix(s, factPrefix) {
		return false
	}
	_, err := uuid.Parse(strings.TrimPrefix(s, factPrefix))
	return err == nil
}
