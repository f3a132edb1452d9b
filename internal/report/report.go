package report

import (
	"encoding/json"
	"fmt"
	"io"
	"text/template"
	"time"

	"github.com/FranksOps/jast/internal/results"
)

// Summary contains aggregated figures about one batch search run.
type Summary struct {
	RunID        string
	Query        string
	Planned      int
	Completed    int
	Succeeded    int
	Failed       int
	RateLimited  int
	TotalResults int64
	StartTime    time.Time
	EndTime      time.Time
	Duration     time.Duration
	Interrupted  bool
}

// GenerateSummary aggregates the rows produced by a run that planned `planned` searches.
func GenerateSummary(runID, query string, planned int, rows []results.Row, start, end time.Time) Summary {
	s := Summary{
		RunID:     runID,
		Query:     query,
		Planned:   planned,
		Completed: len(rows),
		StartTime: start,
		EndTime:   end,
		Duration:  end.Sub(start),
	}
	for _, r := range rows {
		if r.Failed {
			s.Failed++
			if r.RateLimited {
				s.RateLimited++
			}
			continue
		}
		s.Succeeded++
		s.TotalResults += r.TotalResults
	}
	s.Interrupted = s.Completed < s.Planned
	return s
}

// WriteJSON writes the summary to the provided writer in JSON format.
func WriteJSON(w io.Writer, summary Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	return nil
}

const textTmpl = `Jast Search Summary
-------------------
Run:           {{.RunID}}
Query:         {{.Query}}
Time:          {{.StartTime.Format "2006-01-02 15:04:05"}} - {{.EndTime.Format "2006-01-02 15:04:05"}}
Duration:      {{.Duration}}
Searched:      {{.Completed}} / {{.Planned}}{{if .Interrupted}} (interrupted){{end}}
Succeeded:     {{.Succeeded}}
Failed:        {{.Failed}}{{if .RateLimited}} ({{.RateLimited}} rate limited){{end}}
Total Results: {{.TotalResults}}
`

var textReport = template.Must(template.New("textReport").Parse(textTmpl))

// WriteText writes a human-readable text summary to the provided writer.
func WriteText(w io.Writer, summary Summary) error {
	if err := textReport.Execute(w, summary); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	return nil
}
