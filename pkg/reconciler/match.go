package reconciler

import (
	"github.com/agentstation/leadrecon/pkg/leads"
)

// MatchPolicy selects which existing record an incoming lead belongs to.
type MatchPolicy string

// MatchPolicyFirst picks the first record, in result-set order, that shares
// either identity key with the incoming lead. There is no scoring: a lead
// whose id matches one record and whose email matches a later one merges
// into the earlier record only.
const MatchPolicyFirst MatchPolicy = "first"

// Match describes the record an incoming lead paired with.
type Match struct {
	// Index into the result set, or -1 when nothing matched.
	Index int

	// ID is true when the id fields are equal.
	ID bool

	// Email is true when the email fields are equal.
	Email bool
}

// noMatch is the Match for a lead that starts a new record.
var noMatch = Match{Index: -1}

// Found reports whether a record matched.
func (m Match) Found() bool {
	return m.Index >= 0
}

// Keys returns the identity fields that produced the match.
func (m Match) Keys() []string {
	var keys []string
	if m.ID {
		keys = append(keys, leads.FieldID)
	}
	if m.Email {
		keys = append(keys, leads.FieldEmail)
	}
	return keys
}

// String returns a short description for logs.
func (m Match) String() string {
	switch {
	case m.ID && m.Email:
		return "id+email"
	case m.ID:
		return "id"
	case m.Email:
		return "email"
	default:
		return "none"
	}
}

// find scans set for the record incoming belongs to.
func (p MatchPolicy) find(set leads.Records, incoming leads.Lead) Match {
	id, hasID := incoming.Get(leads.FieldID)
	email, hasEmail := incoming.Get(leads.FieldEmail)

	for i := range set {
		current := set[i].Current
		currentID, currentHasID := current.Get(leads.FieldID)
		currentEmail, currentHasEmail := current.Get(leads.FieldEmail)

		m := Match{
			Index: i,
			ID:    leads.KeyEqual(id, hasID, currentID, currentHasID),
			Email: leads.KeyEqual(email, hasEmail, currentEmail, currentHasEmail),
		}
		if m.ID || m.Email {
			return m
		}
	}
	return noMatch
}
