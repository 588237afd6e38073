package output

import (
	"io"
	"strconv"

	"github.com/agentstation/leadrecon/pkg/leads"
	"github.com/agentstation/leadrecon/pkg/reconciler"
)

// Summary is the machine-readable view of a finished run.
type Summary struct {
	Input    string                      `json:"input" yaml:"input"`
	Outputs  []string                    `json:"outputs" yaml:"outputs"`
	Records  int                         `json:"records" yaml:"records"`
	Stats    reconciler.ResultStatistics `json:"stats" yaml:"stats"`
	Warnings []string                    `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Strategy string                      `json:"strategy" yaml:"strategy"`
	Policy   string                      `json:"match_policy" yaml:"match_policy"`
}

// NewSummary builds the summary for result.
func NewSummary(input string, outputs []string, result *reconciler.Result) Summary {
	return Summary{
		Input:    input,
		Outputs:  outputs,
		Records:  len(result.Records),
		Stats:    result.Metadata.Stats,
		Warnings: result.Warnings,
		Strategy: result.Metadata.Strategy.String(),
		Policy:   string(result.Metadata.MatchPolicy),
	}
}

// RecordsToTableData lists each record with its identity keys and how many
// merges it absorbed.
func RecordsToTableData(records leads.Records) Data {
	data := Data{
		Headers:         []string{"#", "ID", "Email", "Merges", "Changed Fields"},
		ColumnAlignment: []Align{AlignRight, AlignLeft, AlignLeft, AlignRight, AlignRight},
	}
	for i, r := range records {
		changed := 0
		for _, cs := range r.Changes {
			changed += cs.Previous.Len()
		}
		data.Rows = append(data.Rows, []string{
			strconv.Itoa(i + 1),
			keyCell(r.Current, leads.FieldID),
			keyCell(r.Current, leads.FieldEmail),
			strconv.Itoa(len(r.Changes)),
			strconv.Itoa(changed),
		})
	}
	return data
}

func keyCell(l leads.Lead, key string) string {
	v, ok := l.Get(key)
	if !ok {
		return "-"
	}
	return leads.FormatValue(v)
}

// WriteSummary renders a run summary. Tables show the statistics and the
// per-record breakdown; json and yaml emit the Summary document.
func WriteSummary(w io.Writer, format Format, summary Summary, records leads.Records) error {
	formatter := NewFormatter(format)
	switch format {
	case FormatJSON, FormatYAML:
		return formatter.Format(w, summary)
	default:
		if err := formatter.Format(w, summary.Stats); err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}
		return formatter.Format(w, RecordsToTableData(records))
	}
}
