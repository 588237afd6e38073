package reconciler

import (
	"fmt"
	"time"

	"github.com/agentstation/leadrecon/pkg/leads"
)

// Action is what happened to one input lead.
type Action string

const (
	// ActionCreated means the lead started a new record.
	ActionCreated Action = "created"
	// ActionMerged means the lead replaced a record's current state.
	ActionMerged Action = "merged"
	// ActionStale means the lead was older than its record and was discarded.
	ActionStale Action = "stale"
	// ActionUnparsable means an entryDate could not be compared and the lead was discarded.
	ActionUnparsable Action = "unparsable-date"
)

// Outcome reports the effect of applying one input lead.
type Outcome struct {
	Action      Action
	InputIndex  int
	RecordIndex int
	Match       Match
	Changeset   leads.Changeset
	Reason      string
}

// Result represents the outcome of a reconciliation run.
type Result struct {
	// Records is the deduplicated result set with change histories.
	Records leads.Records

	// Metadata
	Metadata ResultMetadata

	// Warnings about inputs that were discarded without a comparable date.
	Warnings []string
}

// ResultMetadata contains metadata about the reconciliation process.
type ResultMetadata struct {
	StartTime   time.Time
	EndTime     time.Time
	Duration    time.Duration
	Strategy    StrategyType
	MatchPolicy MatchPolicy
	Stats       ResultStatistics
}

// ResultStatistics contains statistics about the reconciliation.
type ResultStatistics struct {
	InputsProcessed int   `json:"inputs_processed" yaml:"inputs_processed"`
	RecordsCreated  int   `json:"records_created" yaml:"records_created"`
	Merges          int   `json:"merges" yaml:"merges"`
	StaleDiscarded  int   `json:"stale_discarded" yaml:"stale_discarded"`
	UnparsableDates int   `json:"unparsable_dates" yaml:"unparsable_dates"`
	FieldChanges    int   `json:"field_changes" yaml:"field_changes"`
	TotalTimeMs     int64 `json:"total_time_ms" yaml:"total_time_ms"`
}

// NewResult creates a new result with defaults.
func NewResult() *Result {
	return &Result{
		Records:  leads.Records{},
		Warnings: []string{},
		Metadata: ResultMetadata{
			StartTime: time.Now(),
		},
	}
}

// Deduplicated returns the current field maps with history stripped.
func (r *Result) Deduplicated() []leads.Lead {
	return r.Records.Current()
}

// HasChanges returns true if any duplicate was merged.
func (r *Result) HasChanges() bool {
	return r.Metadata.Stats.Merges > 0
}

// Summary returns a human-readable summary of the result.
func (r *Result) Summary() string {
	s := r.Metadata.Stats
	return fmt.Sprintf("%d leads reconciled into %d records (%d merged, %d stale, %d unparsable dates)",
		s.InputsProcessed, len(r.Records), s.Merges, s.StaleDiscarded, s.UnparsableDates)
}

// record accounts for one outcome.
func (r *Result) record(o Outcome) {
	stats := &r.Metadata.Stats
	stats.InputsProcessed++
	switch o.Action {
	case ActionCreated:
		stats.RecordsCreated++
	case ActionMerged:
		stats.Merges++
		stats.FieldChanges += o.Changeset.Previous.Len()
	case ActionStale:
		stats.StaleDiscarded++
	case ActionUnparsable:
		stats.UnparsableDates++
		r.Warnings = append(r.Warnings, fmt.Sprintf("input %d: %s", o.InputIndex, o.Reason))
	}
}

// Finalize calculates duration and marks completion.
func (r *Result) Finalize() {
	r.Metadata.EndTime = time.Now()
	r.Metadata.Duration = r.Metadata.EndTime.Sub(r.Metadata.StartTime)
	r.Metadata.Stats.TotalTimeMs = r.Metadata.Duration.Milliseconds()
}
