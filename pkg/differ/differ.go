// Package differ computes the change-set produced when one lead replaces
// another, and reverses change-sets to recover earlier states.
package differ

import (
	"github.com/agentstation/leadrecon/pkg/leads"
)

// Diff returns the change-set recorded when next replaces prev.
//
// Every field of prev whose value differs in next, or that next drops, is
// recorded with its previous value. Fields that only next has are listed in
// Added and are not changes.
func Diff(prev, next leads.Lead) leads.Changeset {
	changeset := leads.Changeset{}

	for _, field := range prev.Fields() {
		value, ok := next.Get(field.Key)
		if ok && leads.Equal(value, field.Value) {
			continue
		}
		changeset.Previous.Set(field.Key, field.Value)
	}

	for _, key := range next.Keys() {
		if !prev.Has(key) {
			changeset.Added = append(changeset.Added, key)
		}
	}

	return changeset
}

// Revert undoes one change-set, returning the state before the merge.
func Revert(current leads.Lead, changeset leads.Changeset) leads.Lead {
	state := current.Clone()
	for _, key := range changeset.Added {
		state.Delete(key)
	}
	for _, field := range changeset.Previous.Fields() {
		state.Set(field.Key, field.Value)
	}
	return state
}

// Original walks a record's change-sets from most recent to oldest and
// returns the field map the record was created with.
func Original(record leads.Record) leads.Lead {
	state := record.Current.Clone()
	for _, changeset := range record.Changes {
		state = Revert(state, changeset)
	}
	return state
}

// Snapshots returns every state the record passed through, oldest first,
// ending with the current field map.
func Snapshots(record leads.Record) []leads.Lead {
	states := make([]leads.Lead, len(record.Changes)+1)
	state := record.Current.Clone()
	states[len(record.Changes)] = state
	for i, changeset := range record.Changes {
		state = Revert(state, changeset)
		states[len(record.Changes)-1-i] = state
	}
	return states
}
