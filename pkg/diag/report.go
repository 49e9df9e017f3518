package diag

import (
	"encoding/json"
	"time"

	"golang.org/x/exp/slices"
)

// CategoryCount is the number of diagnostics in one category.
type CategoryCount struct {
	Category Category `json:"category"`
	Severity string   `json:"severity"`
	Count    int      `json:"count"`
}

// Summary aggregates a diagnostic stream.
type Summary struct {
	Total      int             `json:"total"`
	Errors     int             `json:"errors"`
	Info       int             `json:"info"`
	Categories []CategoryCount `json:"categories"`
}

// Summarize counts diagnostics per category, sorted by category name.
func Summarize(diags []Diagnostic) Summary {
	counts := make(map[Category]int)
	var s Summary
	for _, d := range diags {
		counts[d.Category]++
		s.Total++
		if d.Category.Severity() == SeverityInfo {
			s.Info++
		} else {
			s.Errors++
		}
	}
	for cat, n := range counts {
		s.Categories = append(s.Categories, CategoryCount{
			Category: cat,
			Severity: cat.Severity().String(),
			Count:    n,
		})
	}
	slices.SortFunc(s.Categories, func(a, b CategoryCount) int {
		switch {
		case a.Category < b.Category:
			return -1
		case a.Category > b.Category:
			return 1
		}
		return 0
	})
	return s
}

// Count returns the number of diagnostics in cat.
func (s Summary) Count(cat Category) int {
	for _, c := range s.Categories {
		if c.Category == cat {
			return c.Count
		}
	}
	return 0
}

// Report is the exported result of one verification run.
type Report struct {
	RunID       string       `json:"run_id"`
	Part        string       `json:"part"`
	Generated   time.Time    `json:"generated"`
	Summary     Summary      `json:"summary"`
	Diagnostics []Diagnostic `json:"diagnostics"`
}

// NewReport builds a report for a finished run.
func NewReport(runID, part string, diags []Diagnostic) *Report {
	if diags == nil {
		diags = []Diagnostic{}
	}
	return &Report{
		RunID:       runID,
		Part:        part,
		Generated:   time.Now().UTC(),
		Summary:     Summarize(diags),
		Diagnostics: diags,
	}
}

// ExportJSON renders the report as indented JSON.
func (r *Report) ExportJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
