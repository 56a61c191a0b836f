package domain

import (
	"fmt"
	"time"
)

type CategoryResult struct {
	Category Category
	Status   CategoryStatus
	Groups   int
	Options  int
	Err      error
}

type Tally struct {
	Succeeded int
	Failed    int
	Pending   int
	Total     int
}

func (t Tally) String() string {
	return fmt.Sprintf("%d succeeded / %d failed / %d total", t.Succeeded, t.Failed, t.Total)
}

// RunReport is the outcome of one run over a site's categories.
type RunReport struct {
	Site       string
	Version    string
	Results    []CategoryResult
	Stopped    bool // a stop request ended the run at a category boundary
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
}

func (r *RunReport) Tally() Tally {
	t := Tally{Total: len(r.Results)}
	for _, res := range r.Results {
		switch res.Status {
		case StatusSucceeded:
			t.Succeeded++
		case StatusFailed:
			t.Failed++
		default:
			t.Pending++
		}
	}
	return t
}
