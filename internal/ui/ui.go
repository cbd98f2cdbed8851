// Package ui renders the server's job list and job detail pages.
//
// No templ generator was available to produce the usual *_templ.go files,
// so these components are written directly against templ.Component, the
// same runtime interface the generator would otherwise target: anything
// with a Render(ctx, io.Writer) method, with templ.ComponentFunc adapting
// a plain function to that interface the same way http.HandlerFunc adapts
// a function to http.Handler.
package ui

import (
	"context"
	"fmt"
	"html"
	"io"
	"time"

	"github.com/a-h/templ"
)

// Component is the templ runtime contract: anything that can render itself
// into an io.Writer given a context.
type Component = templ.Component

// ComponentFunc adapts a plain render function to Component.
type ComponentFunc = templ.ComponentFunc

// JobListItem is the job summary shown in the job list page.
type JobListItem struct {
	ID         string
	State      string
	MatrixPath string
	Kernel     string
	Done       int64
	Total      int64
	StartTime  time.Time
	EndTime    *time.Time
	Error      string
}

// JobDetail is the full job view shown on the job detail page.
type JobDetail struct {
	ID         string
	State      string
	MatrixPath string
	Kernel     string
	ElementType string
	Radius     int64
	Done       int64
	Total      int64
	Min        float64
	Max        float64
	Mean       float64
	HasResult  bool
	StartTime  time.Time
	EndTime    *time.Time
	ElapsedSec float64
	Error      string
}

func pageHeader(w io.Writer, title string) error {
	_, err := fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { font-family: sans-serif; margin: 2rem; color: #222; }
table { border-collapse: collapse; width: 100%%; }
th, td { border: 1px solid #ccc; padding: 0.4rem 0.6rem; text-align: left; }
th { background: #f4f4f4; }
.state-running { color: #b8860b; }
.state-completed { color: #2e7d32; }
.state-failed, .state-cancelled { color: #c62828; }
.error { color: #c62828; font-weight: bold; }
nav a { margin-right: 1rem; }
</style>
</head>
<body>
<nav><a href="/">Jobs</a><a href="/create">New job</a></nav>
`, html.EscapeString(title))
	return err
}

func pageFooter(w io.Writer) error {
	_, err := io.WriteString(w, "</body>\n</html>\n")
	return err
}

// JobList renders the job list page.
func JobList(jobs []JobListItem) Component {
	return ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := pageHeader(w, "rankmorph jobs"); err != nil {
			return err
		}
		if _, err := io.WriteString(w, "<h1>Jobs</h1>\n"); err != nil {
			return err
		}
		if len(jobs) == 0 {
			if _, err := io.WriteString(w, "<p>No jobs yet.</p>\n"); err != nil {
				return err
			}
		} else {
			if _, err := io.WriteString(w, "<table>\n<tr><th>ID</th><th>State</th><th>Matrix</th><th>Kernel</th><th>Progress</th><th>Started</th></tr>\n"); err != nil {
				return err
			}
			for _, j := range jobs {
				progress := "-"
				if j.Total > 0 {
					progress = fmt.Sprintf("%d / %d", j.Done, j.Total)
				}
				_, err := fmt.Fprintf(w,
					`<tr><td><a href="/jobs/%s">%s</a></td><td class="state-%s">%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>`+"\n",
					html.EscapeString(j.ID), html.EscapeString(j.ID),
					html.EscapeString(j.State), html.EscapeString(j.State),
					html.EscapeString(j.MatrixPath), html.EscapeString(j.Kernel),
					html.EscapeString(progress), j.StartTime.Format(time.RFC3339),
				)
				if err != nil {
					return err
				}
			}
			if _, err := io.WriteString(w, "</table>\n"); err != nil {
				return err
			}
		}
		return pageFooter(w)
	})
}

// JobDetailPage renders the detail page for a single job.
func JobDetailPage(j JobDetail) Component {
	return ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := pageHeader(w, "job "+j.ID); err != nil {
			return err
		}
		_, err := fmt.Fprintf(w, `<h1>Job %s</h1>
<p>State: <span class="state-%s">%s</span></p>
<table>
<tr><th>Matrix path</th><td>%s</td></tr>
<tr><th>Element type</th><td>%s</td></tr>
<tr><th>Kernel</th><td>%s</td></tr>
<tr><th>Radius</th><td>%d</td></tr>
<tr><th>Progress</th><td>%d / %d</td></tr>
<tr><th>Elapsed</th><td>%.2fs</td></tr>
`,
			html.EscapeString(j.ID),
			html.EscapeString(j.State), html.EscapeString(j.State),
			html.EscapeString(j.MatrixPath),
			html.EscapeString(j.ElementType),
			html.EscapeString(j.Kernel),
			j.Radius,
			j.Done, j.Total,
			j.ElapsedSec,
		)
		if err != nil {
			return err
		}
		if j.HasResult {
			if _, err := fmt.Fprintf(w, "<tr><th>Min</th><td>%g</td></tr>\n<tr><th>Max</th><td>%g</td></tr>\n<tr><th>Mean</th><td>%g</td></tr>\n", j.Min, j.Max, j.Mean); err != nil {
				return err
			}
		}
		if j.Error != "" {
			if _, err := fmt.Fprintf(w, "<tr><th>Error</th><td class=\"error\">%s</td></tr>\n", html.EscapeString(j.Error)); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, "</table>\n"); err != nil {
			return err
		}
		return pageFooter(w)
	})
}

// JobNotFound renders a 404-style page for an unknown job ID.
func JobNotFound(jobID string) Component {
	return ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := pageHeader(w, "job not found"); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "<h1>Job not found</h1>\n<p>No job with ID %s.</p>\n", html.EscapeString(jobID)); err != nil {
			return err
		}
		return pageFooter(w)
	})
}

// CreateJobPage renders the job submission form, optionally with an error
// message from a previous submission attempt.
func CreateJobPage(errMsg string) Component {
	return ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := pageHeader(w, "new job"); err != nil {
			return err
		}
		if _, err := io.WriteString(w, "<h1>New job</h1>\n"); err != nil {
			return err
		}
		if errMsg != "" {
			if _, err := fmt.Fprintf(w, "<p class=\"error\">%s</p>\n", html.EscapeString(errMsg)); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `<form method="post" action="/create">
<p><label>Matrix path <input type="text" name="matrixPath" required></label></p>
<p><label>Element type
<select name="elementType">
<option value="u8">u8</option>
<option value="u16">u16</option>
<option value="i32">i32</option>
<option value="i64">i64</option>
<option value="f32">f32</option>
<option value="f64">f64</option>
<option value="bit">bit</option>
</select>
</label></p>
<p><label>Kernel
<select name="kernel">
<option value="averager">averager</option>
<option value="summator">summator</option>
</select>
</label></p>
<p><label>Radius <input type="number" name="radius" value="1" min="0"></label></p>
<p><label>Number of analysed bits <input type="number" name="numberOfAnalysedBits" value="8" min="1"></label></p>
<p><button type="submit">Create job</button></p>
</form>
`)
		if err != nil {
			return err
		}
		return pageFooter(w)
	})
}
