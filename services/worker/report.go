package worker

import "time"

// CategoryReport summarizes one category pass
type CategoryReport struct {
	Category   string        `json:"category"`
	ListingURL string        `json:"listing_url"`
	Discovered int           `json:"discovered"`
	Skipped    int           `json:"skipped"`
	Persisted  int           `json:"persisted"`
	Failed     int           `json:"failed"`
	Elapsed    time.Duration `json:"elapsed"`
	Error      string        `json:"error,omitempty"`
	Err        error         `json:"-"`
}

func (r *CategoryReport) setErr(err error) {
	r.Err = err
	r.Error = err.Error()
}

// RunReport summarizes a full pass over all categories
type RunReport struct {
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Limit      int              `json:"limit"`
	Cancelled  bool             `json:"cancelled"`
	Categories []CategoryReport `json:"categories"`
}

// Persisted is the number of new articles stored during the run
func (r RunReport) Persisted() int {
	n := 0
	for _, c := range r.Categories {
		n += c.Persisted
	}
	return n
}

// Failed counts failed articles plus categories whose listing failed
func (r RunReport) Failed() int {
	n := 0
	for _, c := range r.Categories {
		n += c.Failed
		if c.Err != nil {
			n++
		}
	}
	return n
}
