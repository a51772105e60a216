package batch

import (
	"context"
	"fmt"

	"github.com/emptyOVO/calllog-go/calls"
)

// Report is what a run hands to its report writers.
type Report struct {
	RunID   string
	Ranking []calls.RankedEntry
	Redials []calls.AreaReport
}

// ReportWriter persists a report.
type ReportWriter interface {
	WriteReport(ctx context.Context, r Report) error
}

// SinkError names the output artifact that could not be written.
type SinkError struct {
	Sink     string
	Artifact string
	Err      error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("%s sink: write %s: %v", e.Sink, e.Artifact, e.Err)
}

func (e *SinkError) Unwrap() error {
	return e.Err
}
