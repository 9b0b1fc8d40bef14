package coverage

import (
	"fmt"
	"time"

	"github.com/sells-group/coverage-cli/internal/model"
)

// Result is the outcome of probing a single city.
type Result struct {
	City     model.City
	Covered  bool
	Features int
	Err      error
}

// Report collects the per-city results of one probe run.
type Report struct {
	RunID       string
	StartedAt   time.Time
	FinishedAt  time.Time
	Interrupted bool
	Results     []Result
}

// Candidates is the number of cities selected for probing.
func (r *Report) Candidates() int { return len(r.Results) }

// Covered returns the cities whose lookup found imagery, in probe order.
func (r *Report) Covered() []model.City {
	var out []model.City
	for _, res := range r.Results {
		if res.Err == nil && res.Covered {
			out = append(out, res.City)
		}
	}
	return out
}

// Failed returns the results whose lookup returned an error.
func (r *Report) Failed() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Err != nil {
			out = append(out, res)
		}
	}
	return out
}

func (r *Report) counts() (covered, failed int) {
	for _, res := range r.Results {
		switch {
		case res.Err != nil:
			failed++
		case res.Covered:
			covered++
		}
	}
	return covered, failed
}

// Summary is a one-line description of the run.
func (r *Report) Summary() string {
	covered, failed := r.counts()
	s := fmt.Sprintf("probed %d cities: %d covered, %d without coverage, %d failed",
		len(r.Results), covered, len(r.Results)-covered-failed, failed)
	if r.Interrupted {
		s += " (interrupted)"
	}
	return s
}
