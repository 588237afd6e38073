// Package changelog renders the merge history of reconciled records as a
// plain-text report.
//
// Each record becomes a block of "key: value" lines with the keys
// right-aligned to the longest key in the block. A field that changed shows
// every value it held, oldest first, joined by " ==> " and ending with the
// current value. Blocks are separated by a single blank line.
package changelog

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/agentstation/leadrecon/pkg/constants"
	"github.com/agentstation/leadrecon/pkg/leads"
)

// Line is one rendered field of a record block.
type Line struct {
	Key   string
	Value string
}

// Block is the display form of one record.
type Block struct {
	Lines []Line
	Width int
}

// NewBlock builds the display map for a record. Keys follow the current
// field map's order.
func NewBlock(record leads.Record) Block {
	fields := record.Current.Fields()
	block := Block{Lines: make([]Line, 0, len(fields))}

	for _, field := range fields {
		block.Lines = append(block.Lines, Line{
			Key:   field.Key,
			Value: chain(record.History(field.Key), field.Value),
		})
		if n := utf8.RuneCountInString(field.Key); n > block.Width {
			block.Width = n
		}
	}

	return block
}

// chain joins a field's previous values and its current value.
func chain(history []any, current any) string {
	if len(history) == 0 {
		return leads.FormatValue(current)
	}

	parts := make([]string, 0, len(history)+1)
	for _, v := range history {
		parts = append(parts, leads.FormatValue(v))
	}
	parts = append(parts, leads.FormatValue(current))
	return strings.Join(parts, constants.ChangeMarker)
}

// WriteTo writes the block, one newline-terminated line per field.
func (b Block) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, line := range b.Lines {
		pad := b.Width - utf8.RuneCountInString(line.Key)
		n, err := fmt.Fprintf(w, "%s%s%s%s\n", strings.Repeat(" ", pad), line.Key, constants.FieldSeparator, line.Value)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Write renders records to w.
func Write(w io.Writer, records []leads.Record) error {
	for i, record := range records {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if _, err := NewBlock(record).WriteTo(w); err != nil {
			return err
		}
	}
	return nil
}

// Render returns the full report for records. It is a pure function of its
// input; an empty slice renders as the empty string.
func Render(records []leads.Record) string {
	var sb strings.Builder
	_ = Write(&sb, records)
	return sb.String()
}
