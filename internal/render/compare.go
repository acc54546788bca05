package render

import (
	"fmt"
	"html/template"
	"sort"

	"ProcureAI/internal/domain"
)

const (
	recommendedScore = 90
	pendingCell      = "Pending..."
	pendingAnalysis  = "Waiting for vendor response to generate analysis..."
	unknownVendor    = "Unknown"
)

// ComparisonRow is one proposal in the comparison table.
type ComparisonRow struct {
	ProposalID  int64
	Vendor      string
	Pending     bool
	Recommended bool
	Cells       []template.HTML
	Score       string
	Analysis    string
}

// Comparison lines proposals up against the union of their extracted fields.
type Comparison struct {
	Columns []Column
	Rows    []ComparisonRow
}

// Empty reports whether no vendor was invited.
func (c Comparison) Empty() bool {
	return len(c.Rows) == 0
}

// Compare builds the side-by-side proposal table. Columns are sorted
// alphabetically; pending proposals show placeholders.
func Compare(proposals []domain.Proposal) Comparison {
	keys := map[string]bool{}
	for _, p := range proposals {
		for _, k := range p.ExtractedData.Keys() {
			keys[k] = true
		}
	}

	sorted := make([]string, 0, len(keys))
	for k := range keys {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	var cmp Comparison
	for _, k := range sorted {
		cmp.Columns = append(cmp.Columns, Column{Key: k, Label: FormatKey(k)})
	}

	for _, p := range proposals {
		row := ComparisonRow{
			ProposalID:  p.ID,
			Vendor:      unknownVendor,
			Pending:     p.Status == domain.ProposalStatusSent,
			Recommended: p.AIScore != nil && *p.AIScore > recommendedScore,
			Score:       emptyValue,
			Analysis:    emptyValue,
		}
		if p.Vendor != nil && p.Vendor.Name != "" {
			row.Vendor = p.Vendor.Name
		}

		for _, col := range cmp.Columns {
			if row.Pending {
				row.Cells = append(row.Cells, pendingCell)
				continue
			}
			v, _ := p.ExtractedData.Get(col.Key)
			row.Cells = append(row.Cells, FormatValue(v))
		}

		if row.Pending {
			row.Analysis = pendingAnalysis
		} else {
			if p.AIScore != nil {
				row.Score = fmt.Sprintf("%d/100", *p.AIScore)
			}
			if p.AISummary != nil && *p.AISummary != "" {
				row.Analysis = *p.AISummary
			}
		}
		cmp.Rows = append(cmp.Rows, row)
	}
	return cmp
}
