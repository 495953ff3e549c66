package waterfall

import (
	"sort"

	"github.com/sells-group/bankfacts/internal/model"
)

// Resolve picks one winning candidate per logical fact key: the lowest
// priority rank wins, and on a tie the earliest appended candidate wins.
// Keys appear in the output in the order they were first seen. Resolve
// never fails; empty input yields empty output.
func Resolve(candidates []model.Candidate) []model.Candidate {
	best := make(map[model.FactKey]int, len(candidates))
	var order []model.FactKey

	for i, c := range candidates {
		j, seen := best[c.Key]
		if !seen {
			best[c.Key] = i
			order = append(order, c.Key)
			continue
		}
		// Strictly lower rank only: ties keep the earlier arrival.
		if c.Priority < candidates[j].Priority {
			best[c.Key] = i
		}
	}

	out := make([]model.Candidate, 0, len(order))
	for _, k := range order {
		out = append(out, candidates[best[k]])
	}
	return out
}

// ResolveIndex is Resolve keyed by logical fact.
func ResolveIndex(candidates []model.Candidate) map[model.FactKey]model.Candidate {
	resolved := Resolve(candidates)
	idx := make(map[model.FactKey]model.Candidate, len(resolved))
	for _, c := range resolved {
		idx[c.Key] = c
	}
	return idx
}

// Explain returns every candidate competing for key, ordered by rank then
// arrival, with the winner marked.
func Explain(candidates []model.Candidate, key model.FactKey) Resolution {
	res := Resolution{Key: key}
	for i, c := range candidates {
		if c.Key == key {
			res.Attempts = append(res.Attempts, Attempt{Candidate: c, Arrival: i})
		}
	}
	if len(res.Attempts) == 0 {
		return res
	}

	sort.SliceStable(res.Attempts, func(i, j int) bool {
		a, b := res.Attempts[i], res.Attempts[j]
		if a.Candidate.Priority != b.Candidate.Priority {
			return a.Candidate.Priority < b.Candidate.Priority
		}
		return a.Arrival < b.Arrival
	})
	res.Attempts[0].Winner = true
	w := res.Attempts[0].Candidate
	res.Winner = &w
	res.Resolved = true
	return res
}
