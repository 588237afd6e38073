package leads

// Changeset captures one merge event: the previous value of every field the
// merge overwrote or dropped. Fields the merge left untouched are absent.
type Changeset struct {
	// Previous maps each changed field to the value it held before the merge.
	Previous Lead `json:"previous" yaml:"previous"`

	// Added lists fields the merge introduced. They are not changes, but
	// reverting the merge removes them.
	Added []string `json:"added,omitempty" yaml:"added,omitempty"`
}

// IsEmpty reports whether the merge changed nothing.
func (c Changeset) IsEmpty() bool {
	return c.Previous.Len() == 0 && len(c.Added) == 0
}

// Record is the reconciliation state of one logical entity.
type Record struct {
	// Current is the field map chosen by the most recent accepted merge.
	Current Lead `json:"current" yaml:"current"`

	// Changes are the merge events applied to this record, most recent first.
	Changes []Changeset `json:"changes" yaml:"changes"`
}

// NewRecord starts a record for a lead seen for the first time.
func NewRecord(lead Lead) Record {
	return Record{Current: lead.Clone(), Changes: []Changeset{}}
}

// History returns the recorded previous values of field, oldest first.
func (r Record) History(field string) []any {
	var values []any
	for i := len(r.Changes) - 1; i >= 0; i-- {
		if v, ok := r.Changes[i].Previous.Get(field); ok {
			values = append(values, v)
		}
	}
	return values
}

// Records is an ordered result set.
type Records []Record

// Current returns the current field maps with history stripped.
func (rs Records) Current() []Lead {
	out := make([]Lead, len(rs))
	for i, r := range rs {
		out[i] = r.Current
	}
	return out
}

// Document is the on-disk shape of a lead collection.
type Document struct {
	Leads []Lead `json:"leads" yaml:"leads"`
}
