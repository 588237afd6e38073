// Package reconciler folds an ordered stream of lead records into a
// deduplicated result set. Duplicates are detected by either identity key
// (id or email) and resolved by a Strategy; every accepted merge prepends a
// change-set to the surviving record's history.
package reconciler

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/agentstation/leadrecon/pkg/differ"
	"github.com/agentstation/leadrecon/pkg/leads"
	"github.com/agentstation/leadrecon/pkg/logging"
)

// Reconciler is the main interface for reconciling lead records.
type Reconciler interface {
	// Reconcile processes inputs strictly in order and returns the result set
	Reconcile(ctx context.Context, inputs []leads.Lead) (*Result, error)

	// Apply folds a single lead into set and returns the updated set. Like
	// append, it may reuse set's backing array.
	Apply(set leads.Records, incoming leads.Lead) (leads.Records, Outcome)
}

// reconciler is the default implementation of Reconciler.
type reconciler struct {
	strategy Strategy
	policy   MatchPolicy
}

// New creates a new Reconciler with options.
func New(opts ...Option) (Reconciler, error) {
	options, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}

	return &reconciler{
		strategy: options.strategy,
		policy:   options.policy,
	}, nil
}

// Reconcile folds every input into an initially empty result set.
func (r *reconciler) Reconcile(ctx context.Context, inputs []leads.Lead) (*Result, error) {
	logger := logging.FromContext(ctx)

	result := NewResult()
	result.Metadata.Strategy = r.strategy.Type()
	result.Metadata.MatchPolicy = r.policy

	set := make(leads.Records, 0, len(inputs))
	for i, incoming := range inputs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var outcome Outcome
		set, outcome = r.Apply(set, incoming)
		outcome.InputIndex = i

		result.record(outcome)
		logOutcome(logger, outcome)
	}

	result.Records = set
	result.Finalize()

	logger.Info().
		Int("inputs", result.Metadata.Stats.InputsProcessed).
		Int("records", len(set)).
		Int("merges", result.Metadata.Stats.Merges).
		Int("stale", result.Metadata.Stats.StaleDiscarded).
		Int("unparsable_dates", result.Metadata.Stats.UnparsableDates).
		Dur("duration", result.Metadata.Duration).
		Msg("Reconciliation complete")

	return result, nil
}

// Apply folds one lead into the result set.
func (r *reconciler) Apply(set leads.Records, incoming leads.Lead) (leads.Records, Outcome) {
	match := r.policy.find(set, incoming)
	if !match.Found() {
		set = append(set, leads.NewRecord(incoming))
		return set, Outcome{
			Action:      ActionCreated,
			RecordIndex: len(set) - 1,
			Match:       match,
			Reason:      "no existing record shares an identity key",
		}
	}

	record := &set[match.Index]
	resolution := r.strategy.Resolve(record.Current, incoming, match)
	if !resolution.Accepted {
		action := ActionStale
		if !resolution.Comparable {
			action = ActionUnparsable
		}
		return set, Outcome{
			Action:      action,
			RecordIndex: match.Index,
			Match:       match,
			Reason:      resolution.Reason,
		}
	}

	changeset := differ.Diff(record.Current, resolution.Merged)
	record.Changes = append([]leads.Changeset{changeset}, record.Changes...)
	record.Current = resolution.Merged

	return set, Outcome{
		Action:      ActionMerged,
		RecordIndex: match.Index,
		Match:       match,
		Changeset:   changeset,
		Reason:      resolution.Reason,
	}
}

// logOutcome writes one event per input.
func logOutcome(logger *zerolog.Logger, o Outcome) {
	var event *zerolog.Event
	switch o.Action {
	case ActionUnparsable:
		event = logger.Warn()
	default:
		event = logger.Debug()
	}

	event = event.
		Str("action", string(o.Action)).
		Int("input_index", o.InputIndex).
		Int("record_index", o.RecordIndex).
		Str("matched_on", o.Match.String())
	if o.Action == ActionMerged {
		event = event.Strs("changed_fields", o.Changeset.Previous.Keys())
	}
	event.Msg(o.Reason)
}
