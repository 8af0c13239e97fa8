package importer

import (
	"time"

	"github.com/google/uuid"
)

// Status is the per-signature processing result.
type Status string

const (
	StatusImported Status = "imported"
	StatusFailed   Status = "failed"
)

// Outcome records the result of processing one signature. Failures are
// collected here instead of aborting the run.
type Outcome struct {
	ID          uuid.UUID `json:"id"`
	Rule        string    `json:"rule"`
	Status      Status    `json:"status"`
	Reason      string    `json:"reason,omitempty"`
	IndicatorID string    `json:"indicator_id,omitempty"`
	ProcessedAt time.Time `json:"processed_at"`
}

// Summary aggregates the outcomes of a single import run.
type Summary struct {
	RunID           uuid.UUID `json:"run_id"`
	StartedAt       time.Time `json:"started_at"`
	FinishedAt      time.Time `json:"finished_at"`
	TaxonomyEntries int       `json:"taxonomy_entries"`
	FeedFetched     bool      `json:"feed_fetched"`
	Outcomes        []Outcome `json:"outcomes"`
}

// Imported returns the number of successfully imported signatures.
func (s *Summary) Imported() int {
	return s.count(StatusImported)
}

// Failed returns the number of signatures that failed to import.
func (s *Summary) Failed() int {
	return s.count(StatusFailed)
}

func (s *Summary) count(status Status) int {
	n := 0
	for _, o := range s.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}
