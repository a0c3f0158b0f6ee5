package pipeline

import (
	"fmt"
	"strings"
)

// Status is the outcome of one section.
type Status string

const (
	StatusUpserted     Status = "upserted"
	StatusSkipped      Status = "skipped"
	StatusEmbedFailed  Status = "embed_failed"
	StatusUpsertFailed Status = "upsert_failed"
)

// Outcome records what happened to one section.
type Outcome struct {
	Sequence  uint64
	PointID   uint64
	Status    Status
	Chars     int
	Truncated bool
	Err       error
}

// Result contains statistics from an ingest run.
type Result struct {
	Sections     int
	Upserted     int
	Skipped      int
	EmbedFailed  int
	UpsertFailed int
	Truncated    int

	// FirstID and LastID are the lowest and highest persisted point ids.
	// Both are zero when nothing was upserted.
	FirstID uint64
	LastID  uint64

	Outcomes []Outcome
}

func (r *Result) record(o Outcome) {
	r.Sections++
	if o.Truncated {
		r.Truncated++
	}

	switch o.Status {
	case StatusUpserted:
		if r.Upserted == 0 || o.PointID < r.FirstID {
			r.FirstID = o.PointID
		}
		if r.Upserted == 0 || o.PointID > r.LastID {
			r.LastID = o.PointID
		}
		r.Upserted++
	case StatusSkipped:
		r.Skipped++
	case StatusEmbedFailed:
		r.EmbedFailed++
	case StatusUpsertFailed:
		r.UpsertFailed++
	}

	r.Outcomes = append(r.Outcomes, o)
}

// Failed returns the outcomes that did not produce a point.
func (r *Result) Failed() []Outcome {
	var failed []Outcome
	for _, o := range r.Outcomes {
		if o.Status != StatusUpserted {
			failed = append(failed, o)
		}
	}
	return failed
}

// Summary returns a human-readable summary of the ingest result.
func (r *Result) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b,
		"Ingest complete: %d sections, %d upserted, %d skipped (engine context), %d embed failures, %d upsert failures\n",
		r.Sections, r.Upserted, r.Skipped, r.EmbedFailed, r.UpsertFailed,
	)
	fmt.Fprintf(&b, "Truncated sections: %d", r.Truncated)
	if r.Upserted > 0 {
		fmt.Fprintf(&b, "\nPoint ids: %d..%d", r.FirstID, r.LastID)
	}
	return b.String()
}
