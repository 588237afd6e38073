package changelog_test

import (
	"encoding/json"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/leadrecon/pkg/changelog"
	"github.com/agentstation/leadrecon/pkg/differ"
	"github.com/agentstation/leadrecon/pkg/leads"
)

func lead(kv ...any) leads.Lead {
	var l leads.Lead
	for i := 0; i+1 < len(kv); i += 2 {
		l.Set(kv[i].(string), kv[i+1])
	}
	return l
}

// merged builds a record by replaying states oldest first.
func merged(states ...leads.Lead) leads.Record {
	record := leads.NewRecord(states[0])
	for _, next := range states[1:] {
		cs := differ.Diff(record.Current, next)
		record.Changes = append([]leads.Changeset{cs}, record.Changes...)
		record.Current = next
	}
	return record
}

func TestRenderExample(t *testing.T) {
	record := merged(
		lead("id", json.Number("1"), "email", "a@x.com", "entryDate", "2020-01-01", "name", "Al"),
		lead("id", json.Number("1"), "email", "b@x.com", "entryDate", "2020-01-02", "name", "Bob"),
	)

	want := "" +
		"       id: 1\n" +
		"    email: a@x.com ==> b@x.com\n" +
		"entryDate: 2020-01-01 ==> 2020-01-02\n" +
		"     name: Al ==> Bob\n"

	assert.Equal(t, want, changelog.Render([]leads.Record{record}))
}

func TestRenderChainIsOldestFirst(t *testing.T) {
	record := merged(
		lead("stage", "new"),
		lead("stage", "contacted"),
		lead("stage", "contacted"),
		lead("stage", "won"),
	)

	assert.Equal(t, "stage: new ==> contacted ==> won\n", changelog.Render([]leads.Record{record}))
}

func TestRenderOmitsDroppedField(t *testing.T) {
	// A field the latest merge dropped is not in the current map.
	record := merged(
		lead("id", "A", "phone", "555"),
		lead("id", "A"),
	)

	assert.Equal(t, "id: A\n", changelog.Render([]leads.Record{record}))
}

func TestRenderBlocksSeparatedByBlankLine(t *testing.T) {
	records := []leads.Record{
		leads.NewRecord(lead("id", "A")),
		leads.NewRecord(lead("id", "B", "company", "Acme")),
	}

	want := "id: A\n" +
		"\n" +
		"     id: B\n" +
		"company: Acme\n"
	assert.Equal(t, want, changelog.Render(records))
}

func TestRenderEmptyInputs(t *testing.T) {
	assert.Equal(t, "", changelog.Render(nil))

	block := changelog.NewBlock(leads.NewRecord(leads.Lead{}))
	assert.Equal(t, 0, block.Width)
	assert.Empty(t, block.Lines)

	records := []leads.Record{
		leads.NewRecord(lead("id", "A")),
		leads.NewRecord(leads.Lead{}),
		leads.NewRecord(lead("id", "B")),
	}
	assert.Equal(t, "id: A\n\n\nid: B\n", changelog.Render(records))
}

func TestRenderNonStringValues(t *testing.T) {
	record := merged(
		lead("score", json.Number("10"), "active", true, "tags", []any{"a"}, "note", nil),
		lead("score", json.Number("12.5"), "active", false, "tags", []any{"a", "b"}, "note", nil),
	)

	want := "" +
		" score: 10 ==> 12.5\n" +
		"active: true ==> false\n" +
		"  tags: [\"a\"] ==> [\"a\",\"b\"]\n" +
		"  note: null\n"
	assert.Equal(t, want, changelog.Render([]leads.Record{record}))
}

func TestRenderColonsAlign(t *testing.T) {
	records := []leads.Record{
		merged(
			lead("id", "A", "émail", "a@x.com", "x", "1", "entryDate", "2020-01-01"),
			lead("id", "A", "émail", "b@x.com", "x", "2", "entryDate", "2020-01-02"),
		),
		leads.NewRecord(lead("longerFieldName", "v", "k", "w")),
	}

	report := changelog.Render(records)
	for _, block := range strings.Split(strings.TrimSuffix(report, "\n"), "\n\n") {
		lines := strings.Split(block, "\n")
		require.NotEmpty(t, lines)

		column := -1
		for _, line := range lines {
			idx := strings.Index(line, ": ")
			require.GreaterOrEqual(t, idx, 0, "line %q", line)
			col := utf8.RuneCountInString(line[:idx])
			if column == -1 {
				column = col
			}
			assert.Equal(t, column, col, "line %q", line)
		}
	}
}

func TestRenderIsPure(t *testing.T) {
	record := merged(lead("id", "A", "n", "1"), lead("id", "A", "n", "2"))
	records := []leads.Record{record}

	first := changelog.Render(records)
	second := changelog.Render(records)
	assert.Equal(t, first, second)
	assert.Equal(t, `{"id":"A","n":"2"}`, record.Current.String())
}
