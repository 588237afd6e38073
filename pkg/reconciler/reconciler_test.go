package reconciler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/leadrecon/pkg/differ"
	"github.com/agentstation/leadrecon/pkg/errors"
	"github.com/agentstation/leadrecon/pkg/leads"
	"github.com/agentstation/leadrecon/pkg/logging"
	"github.com/agentstation/leadrecon/pkg/reconciler"
)

// lead builds a lead from alternating key/value arguments.
func lead(kv ...any) leads.Lead {
	var l leads.Lead
	for i := 0; i+1 < len(kv); i += 2 {
		l.Set(kv[i].(string), kv[i+1])
	}
	return l
}

func mustReconcile(t *testing.T, inputs ...leads.Lead) *reconciler.Result {
	t.Helper()
	r, err := reconciler.New()
	require.NoError(t, err)

	ctx := logging.WithLogger(context.Background(), logging.NewNopLogger())
	result, err := r.Reconcile(ctx, inputs)
	require.NoError(t, err)
	return result
}

func assertLead(t *testing.T, want, got leads.Lead) {
	t.Helper()
	assert.Equal(t, want.String(), got.String())
}

func TestReconcileExampleScenario(t *testing.T) {
	result := mustReconcile(t,
		lead("id", json.Number("1"), "email", "a@x.com", "entryDate", "2020-01-01", "name", "Al"),
		lead("id", json.Number("1"), "email", "b@x.com", "entryDate", "2020-01-02", "name", "Bob"),
		lead("id", json.Number("1"), "email", "c@x.com", "entryDate", "2019-12-01", "name", "Old"),
	)

	require.Len(t, result.Records, 1)
	record := result.Records[0]

	assertLead(t,
		lead("id", json.Number("1"), "email", "b@x.com", "entryDate", "2020-01-02", "name", "Bob"),
		record.Current)

	require.Len(t, record.Changes, 1)
	assertLead(t,
		lead("email", "a@x.com", "entryDate", "2020-01-01", "name", "Al"),
		record.Changes[0].Previous)

	stats := result.Metadata.Stats
	assert.Equal(t, 3, stats.InputsProcessed)
	assert.Equal(t, 1, stats.RecordsCreated)
	assert.Equal(t, 1, stats.Merges)
	assert.Equal(t, 1, stats.StaleDiscarded)
	assert.Equal(t, 3, stats.FieldChanges)
	assert.True(t, result.HasChanges())
	assert.Equal(t, reconciler.StrategyTypeMostRecent, result.Metadata.Strategy)
	assert.Equal(t, reconciler.MatchPolicyFirst, result.Metadata.MatchPolicy)
}

func TestReconcileMatchedKeyCarriesForward(t *testing.T) {
	tests := []struct {
		name     string
		existing leads.Lead
		incoming leads.Lead
		want     leads.Lead
	}{
		{
			name:     "matched on id adopts incoming email",
			existing: lead("id", "A", "email", "old@x.com", "entryDate", "2020-01-01"),
			incoming: lead("id", "A", "email", "new@x.com", "entryDate", "2020-02-01"),
			want:     lead("id", "A", "email", "new@x.com", "entryDate", "2020-02-01"),
		},
		{
			name:     "matched on email adopts incoming id",
			existing: lead("id", "A", "email", "same@x.com", "entryDate", "2020-01-01"),
			incoming: lead("id", "B", "email", "same@x.com", "entryDate", "2020-02-01"),
			want:     lead("id", "B", "email", "same@x.com", "entryDate", "2020-02-01"),
		},
		{
			name:     "matched key keeps existing representation",
			existing: lead("id", json.Number("7"), "email", "a@x.com", "entryDate", "2020-01-01"),
			incoming: lead("id", json.Number("7.0"), "email", "b@x.com", "entryDate", "2020-02-01"),
			want:     lead("id", json.Number("7"), "email", "b@x.com", "entryDate", "2020-02-01"),
		},
		{
			name:     "field order follows the incoming lead",
			existing: lead("id", "A", "email", "a@x.com", "entryDate", "2020-01-01", "name", "Al"),
			incoming: lead("name", "Al", "entryDate", "2020-02-01", "email", "a@x.com", "id", "A"),
			want:     lead("name", "Al", "entryDate", "2020-02-01", "email", "a@x.com", "id", "A"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := mustReconcile(t, tt.existing, tt.incoming)
			require.Len(t, result.Records, 1)
			assertLead(t, tt.want, result.Records[0].Current)
		})
	}
}

func TestReconcileTieFavorsIncoming(t *testing.T) {
	result := mustReconcile(t,
		lead("id", "A", "email", "a@x.com", "entryDate", "2020-01-01T00:00:00Z", "name", "first"),
		lead("id", "A", "email", "a@x.com", "entryDate", "2020-01-01T00:00:00+00:00", "name", "second"),
	)

	require.Len(t, result.Records, 1)
	name, _ := result.Records[0].Current.Get("name")
	assert.Equal(t, "second", name)
	assert.Equal(t, 1, result.Metadata.Stats.Merges)
}

func TestReconcileStaleLeavesRecordUntouched(t *testing.T) {
	first := lead("id", "A", "email", "a@x.com", "entryDate", "2020-05-01", "name", "Al")
	result := mustReconcile(t,
		first,
		lead("id", "A", "email", "z@x.com", "entryDate", "2020-04-30", "name", "Stale"),
	)

	require.Len(t, result.Records, 1)
	assertLead(t, first, result.Records[0].Current)
	assert.Empty(t, result.Records[0].Changes)
	assert.Equal(t, 1, result.Metadata.Stats.StaleDiscarded)
	assert.False(t, result.HasChanges())
}

func TestReconcileUnparsableDatesNeverOverwrite(t *testing.T) {
	tl := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), tl.Logger)

	r, err := reconciler.New()
	require.NoError(t, err)

	first := lead("id", "A", "email", "a@x.com", "entryDate", "2020-01-01", "name", "Al")
	result, err := r.Reconcile(ctx, []leads.Lead{
		first,
		lead("id", "A", "entryDate", "someday", "name", "Bad"),
		lead("id", "A", "name", "NoDate"),
	})
	require.NoError(t, err)

	require.Len(t, result.Records, 1)
	assertLead(t, first, result.Records[0].Current)
	assert.Equal(t, 2, result.Metadata.Stats.UnparsableDates)
	assert.Len(t, result.Warnings, 2)
	assert.Contains(t, result.Warnings[0], "input 1")

	tl.AssertContains(t, `"level":"warn"`)
	tl.AssertContains(t, `"action":"unparsable-date"`)
}

func TestReconcileExistingUnparsableDateIsNeverReplaced(t *testing.T) {
	first := lead("id", "A", "entryDate", "garbage", "name", "Al")
	result := mustReconcile(t,
		first,
		lead("id", "A", "entryDate", "2030-01-01", "name", "Future"),
	)

	assertLead(t, first, result.Records[0].Current)
	assert.Equal(t, 1, result.Metadata.Stats.UnparsableDates)
}

func TestReconcileMissingKeysNeverMatch(t *testing.T) {
	result := mustReconcile(t,
		lead("name", "no keys", "entryDate", "2020-01-01"),
		lead("name", "also no keys", "entryDate", "2020-01-02"),
		lead("id", nil, "email", nil, "entryDate", "2020-01-03"),
		lead("id", nil, "email", nil, "entryDate", "2020-01-04"),
	)

	assert.Len(t, result.Records, 4)
	assert.Equal(t, 0, result.Metadata.Stats.Merges)
}

func TestReconcileKeyEqualityIsTypeStrict(t *testing.T) {
	result := mustReconcile(t,
		lead("id", "1", "entryDate", "2020-01-01"),
		lead("id", json.Number("1"), "entryDate", "2020-01-02"),
	)
	assert.Len(t, result.Records, 2)
}

func TestReconcileFirstMatchWins(t *testing.T) {
	// The third lead shares its id with record 0 and its email with record 1.
	result := mustReconcile(t,
		lead("id", "A", "email", "a@x.com", "entryDate", "2020-01-01"),
		lead("id", "B", "email", "b@x.com", "entryDate", "2020-01-01"),
		lead("id", "B", "email", "a@x.com", "entryDate", "2020-02-01", "name", "Both"),
	)

	require.Len(t, result.Records, 2)

	// Record 0 matched on email first and adopted the incoming id.
	assertLead(t,
		lead("id", "B", "email", "a@x.com", "entryDate", "2020-02-01", "name", "Both"),
		result.Records[0].Current)
	assertLead(t,
		lead("id", "B", "email", "b@x.com", "entryDate", "2020-01-01"),
		result.Records[1].Current)
}

func TestReconcileChangesAreMostRecentFirst(t *testing.T) {
	v1 := lead("id", "A", "email", "a@x.com", "entryDate", "2020-01-01", "name", "Al")
	v2 := lead("id", "A", "email", "b@x.com", "entryDate", "2020-01-02", "name", "Bob")
	v3 := lead("id", "X", "email", "b@x.com", "entryDate", "2020-01-03", "name", "Cy", "title", "CTO")

	result := mustReconcile(t, v1, v2, v3)
	require.Len(t, result.Records, 1)
	record := result.Records[0]

	require.Len(t, record.Changes, 2)
	assertLead(t, lead("id", "A", "entryDate", "2020-01-02", "name", "Bob"), record.Changes[0].Previous)
	assert.Equal(t, []string{"title"}, record.Changes[0].Added)
	assertLead(t, lead("email", "a@x.com", "entryDate", "2020-01-01", "name", "Al"), record.Changes[1].Previous)

	assert.Equal(t, []any{"Al", "Bob"}, record.History("name"))

	// The third merge matched on email only, so the incoming id wins.
	id, _ := record.Current.Get("id")
	assert.Equal(t, "X", id)
	assert.Equal(t, v1.String(), differ.Original(record).String())
}

func TestReconcilePreservesFirstAppearanceOrder(t *testing.T) {
	result := mustReconcile(t,
		lead("id", "C", "entryDate", "2020-01-01"),
		lead("id", "A", "entryDate", "2020-01-01"),
		lead("id", "B", "entryDate", "2020-01-01"),
		lead("id", "A", "entryDate", "2020-03-01"),
		lead("id", "C", "entryDate", "2020-02-01"),
	)

	var ids []any
	for _, l := range result.Deduplicated() {
		id, _ := l.Get("id")
		ids = append(ids, id)
	}
	assert.Equal(t, []any{"C", "A", "B"}, ids)
}

func TestApplyIsAnExplicitFold(t *testing.T) {
	r, err := reconciler.New()
	require.NoError(t, err)

	var set leads.Records
	var outcome reconciler.Outcome

	set, outcome = r.Apply(set, lead("id", "A", "entryDate", "2020-01-01"))
	assert.Equal(t, reconciler.ActionCreated, outcome.Action)
	assert.False(t, outcome.Match.Found())

	set, outcome = r.Apply(set, lead("id", "A", "email", "a@x.com", "entryDate", "2020-01-02"))
	assert.Equal(t, reconciler.ActionMerged, outcome.Action)
	assert.Equal(t, 0, outcome.RecordIndex)
	assert.Equal(t, []string{"id"}, outcome.Match.Keys())
	assert.Equal(t, "id", outcome.Match.String())

	set, outcome = r.Apply(set, lead("id", "A", "entryDate", "2019-01-01"))
	assert.Equal(t, reconciler.ActionStale, outcome.Action)
	assert.Len(t, set, 1)
}

func TestReconcileDoesNotMutateInputs(t *testing.T) {
	first := lead("id", "A", "entryDate", "2020-01-01", "name", "Al")
	second := lead("id", "A", "entryDate", "2020-01-02", "name", "Bob")

	result := mustReconcile(t, first, second)
	result.Records[0].Current.Set("name", "changed")

	name, _ := second.Get("name")
	assert.Equal(t, "Bob", name)
	name, _ = first.Get("name")
	assert.Equal(t, "Al", name)
}

func TestReconcileCanceledContext(t *testing.T) {
	r, err := reconciler.New()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = r.Reconcile(ctx, []leads.Lead{lead("id", "A")})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOptions(t *testing.T) {
	_, err := reconciler.New(reconciler.WithStrategy(nil))
	assert.True(t, errors.IsValidationError(err))

	_, err = reconciler.New(reconciler.WithMatchPolicy("best"))
	assert.True(t, errors.IsValidationError(err))

	r, err := reconciler.New(
		reconciler.WithStrategy(reconciler.NewMostRecentStrategy()),
		reconciler.WithMatchPolicy(reconciler.MatchPolicyFirst),
	)
	require.NoError(t, err)
	assert.NotNil(t, r)
}

func TestStrategyType(t *testing.T) {
	s := reconciler.NewMostRecentStrategy()
	assert.Equal(t, "most-recent", s.Type().String())
	assert.Equal(t, "Most Recent", s.Type().Name())
	assert.NotEmpty(t, s.Description())
}

// sampleLeads is a mixed batch with duplicates on both keys, stale entries
// and an out-of-order late arrival.
func sampleLeads() []leads.Lead {
	return []leads.Lead{
		lead("id", "jkj238238jdsnfsj23", "email", "foo@bar.com", "firstName", "John", "entryDate", "2014-05-07T17:30:20+00:00"),
		lead("id", "jkj238238jdsnfsj23", "email", "coo@bar.com", "firstName", "Ted", "entryDate", "2014-05-07T17:31:20+00:00"),
		lead("id", "edu45238jdsnfsj23", "email", "mae@bar.com", "firstName", "Ted", "entryDate", "2014-05-07T17:32:20+00:00"),
		lead("id", "wabaj238238jdsnfsj23", "email", "bog@bar.com", "firstName", "Fran", "entryDate", "2014-05-07T17:32:20+00:00"),
		lead("id", "jkj238238jdsnfsj23", "email", "bill@bar.com", "firstName", "John", "entryDate", "2014-05-07T17:33:20+00:00"),
		lead("id", "sel045238jdsnfsj23", "email", "foo@bar.com", "firstName", "John", "entryDate", "2014-05-07T17:32:20+00:00"),
		lead("id", "qest38238jdsnfsj23", "email", "foo@bar.com", "firstName", "John", "entryDate", "2014-05-07T17:32:20+00:00"),
		lead("id", "vug789238jdsnfsj23", "email", "foo1@bar.com", "firstName", "Blah", "entryDate", "2014-05-07T17:33:20+00:00"),
		lead("id", "wuj08238jdsnfsj23", "email", "foo@bar.com", "firstName", "Micah", "entryDate", "2014-05-07T17:33:20+00:00"),
		lead("id", "belr28238jdsnfsj23", "email", "mae@bar.com", "firstName", "Tallulah", "entryDate", "2014-05-07T17:33:20+00:00"),
		lead("id", "wabaj238238jdsnfsj23", "email", "bog@bar.com", "firstName", "Fran", "entryDate", "2014-05-07T17:30:20+00:00"),
	}
}

func TestPropertyIdempotence(t *testing.T) {
	first := mustReconcile(t, sampleLeads()...)
	second := mustReconcile(t, first.Deduplicated()...)

	require.Len(t, second.Records, len(first.Records))
	for i := range first.Records {
		assertLead(t, first.Records[i].Current, second.Records[i].Current)
		assert.Empty(t, second.Records[i].Changes)
	}
}

func TestPropertyKeyMatchCompleteness(t *testing.T) {
	result := mustReconcile(t, sampleLeads()...)

	for _, key := range []string{leads.FieldID, leads.FieldEmail} {
		seen := map[string]int{}
		for _, l := range result.Deduplicated() {
			if v, ok := l.Get(key); ok {
				seen[fmt.Sprint(v)]++
			}
		}
		for value, count := range seen {
			assert.Equal(t, 1, count, "%s %q carried by %d records", key, value, count)
		}
	}
}

func TestPropertyChangesetReversibility(t *testing.T) {
	inputs := sampleLeads()
	result := mustReconcile(t, inputs...)

	// Each record's creating input is the first input that created it.
	r, err := reconciler.New()
	require.NoError(t, err)
	creators := map[int]leads.Lead{}
	var set leads.Records
	for _, in := range inputs {
		var o reconciler.Outcome
		set, o = r.Apply(set, in)
		if o.Action == reconciler.ActionCreated {
			creators[o.RecordIndex] = in
		}
	}

	require.Len(t, creators, len(result.Records))
	for i, record := range result.Records {
		assertLead(t, creators[i], differ.Original(record))
	}
}

func TestPropertyRecencyMonotonicity(t *testing.T) {
	chronological := []leads.Lead{
		lead("id", "A", "email", "a@x.com", "entryDate", "2020-01-01", "stage", "new"),
		lead("id", "A", "email", "a@x.com", "entryDate", "2020-02-01", "stage", "contacted"),
		lead("id", "A", "email", "a@x.com", "entryDate", "2020-03-01", "stage", "won"),
	}
	shuffled := []leads.Lead{chronological[0], chronological[2], chronological[1]}

	inOrder := mustReconcile(t, chronological...)
	outOfOrder := mustReconcile(t, shuffled...)

	assertLead(t, inOrder.Records[0].Current, outOfOrder.Records[0].Current)
	assert.Equal(t, 1, outOfOrder.Metadata.Stats.StaleDiscarded)
}
