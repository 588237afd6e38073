package reconciler

import (
	"strings"

	"github.com/agentstation/leadrecon/pkg/leads"
)

// StrategyType represents the type of conflict-resolution strategy.
type StrategyType string

// String returns the string representation of a strategy type.
func (s StrategyType) String() string {
	return string(s)
}

// Name returns the name of the strategy type.
func (s StrategyType) Name() string {
	words := strings.Split(s.String(), "-")
	for i, word := range words {
		if len(word) > 0 {
			words[i] = strings.ToUpper(word[:1]) + word[1:]
		}
	}
	return strings.Join(words, " ")
}

// StrategyTypeMostRecent lets the entry with the latest entryDate win.
const StrategyTypeMostRecent StrategyType = "most-recent"

// Resolution is a strategy's verdict on one incoming duplicate.
type Resolution struct {
	// Accepted is true when the incoming lead replaces the current one.
	Accepted bool

	// Comparable is false when either entryDate could not be parsed.
	Comparable bool

	// Merged is the new current field map when Accepted.
	Merged leads.Lead

	// Reason is a human-readable explanation of the verdict.
	Reason string
}

// Strategy decides how an incoming duplicate affects an existing record.
type Strategy interface {
	// Type returns the strategy type
	Type() StrategyType

	// Description returns a human-readable description
	Description() string

	// Resolve compares the incoming lead against the current one. match
	// reports which identity keys produced the pairing.
	Resolve(current, incoming leads.Lead, match Match) Resolution
}

// MostRecentStrategy resolves duplicates by entryDate. An incoming lead at or
// after the current one wins; an older one is stale and discarded. Identity
// keys that produced the match always carry over from the current lead.
type MostRecentStrategy struct{}

// NewMostRecentStrategy creates the most-recent-entry-wins strategy.
func NewMostRecentStrategy() Strategy {
	return &MostRecentStrategy{}
}

// Type returns the strategy type.
func (s *MostRecentStrategy) Type() StrategyType {
	return StrategyTypeMostRecent
}

// Description returns a human-readable description.
func (s *MostRecentStrategy) Description() string {
	return "Most recent entryDate wins; ties favor the incoming entry"
}

// Resolve applies the most-recent-wins rule.
func (s *MostRecentStrategy) Resolve(current, incoming leads.Lead, match Match) Resolution {
	incomingDate, _ := incoming.Get(leads.FieldEntryDate)
	currentDate, _ := current.Get(leads.FieldEntryDate)

	newer, comparable := leads.NotBefore(incomingDate, currentDate)
	if !comparable {
		return Resolution{Reason: "entryDate could not be compared; incoming entry discarded"}
	}
	if !newer {
		return Resolution{Comparable: true, Reason: "incoming entry is older than the current one"}
	}

	merged := incoming.Clone()
	for _, key := range match.Keys() {
		if v, ok := current.Get(key); ok {
			merged.Set(key, v)
		}
	}

	return Resolution{
		Accepted:   true,
		Comparable: true,
		Merged:     merged,
		Reason:     "incoming entry is at least as recent as the current one",
	}
}
