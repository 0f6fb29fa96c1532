package integrity

import (
	"time"

	"audiocheck/internal/decision"
	"audiocheck/internal/ledger"
)

// Summary aggregates outcome counts for a run.
type Summary struct {
	Total    int `json:"total"`
	Passed   int `json:"passed"`
	Failed   int `json:"failed"`
	NotFound int `json:"not_found"`
	Errors   int `json:"errors"`
}

// Add counts one outcome.
func (s *Summary) Add(out decision.Outcome) {
	switch out.Action {
	case decision.FileNotFound:
		s.NotFound++
	case decision.Error:
		s.Errors++
	default:
		if out.Status == ledger.StatusPassed {
			s.Passed++
		} else {
			s.Failed++
		}
	}
}

// Processed reports how many outcomes were counted.
func (s Summary) Processed() int {
	return s.Passed + s.Failed + s.NotFound + s.Errors
}

// Report is the result of a run.
type Report struct {
	Results  []decision.Outcome
	Summary  Summary
	Verified int
	Flushes  int
	Unsaved  int
	Duration time.Duration
}

func (r *Report) add(out decision.Outcome) {
	r.Results = append(r.Results, out)
	r.Summary.Add(out)
	if out.Action == decision.RunVerifier {
		r.Verified++
	}
}
