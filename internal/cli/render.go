package cli

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/xraph/steward/audit"
	"github.com/xraph/steward/catalog"
	"github.com/xraph/steward/change"
	"github.com/xraph/steward/effective"
	"github.com/xraph/steward/statement"
)

// Renderer prints review output for the terminal.
type Renderer struct {
	w io.Writer

	heading lipgloss.Style
	muted   lipgloss.Style
	ok      lipgloss.Style
	failed  lipgloss.Style
	grant   lipgloss.Style
	revoke  lipgloss.Style
}

// NewRenderer returns a renderer writing to w.
func NewRenderer(w io.Writer) *Renderer {
	return &Renderer{
		w:       w,
		heading: lipgloss.NewStyle().Bold(true),
		muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		ok:      lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
		failed:  lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		grant:   lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		revoke:  lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
	}
}

func (r *Renderer) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.w, format, args...)
}

// Catalog prints the privilege hierarchy as an indented tree.
func (r *Renderer) Catalog(cat *catalog.Catalog) {
	cat.Walk(func(n *catalog.Node, depth int) bool {
		scopes := make([]string, len(n.Scopes))
		for i, s := range n.Scopes {
			scopes[i] = string(s)
		}
		r.printf("%s%s %s\n",
			strings.Repeat("  ", depth),
			r.heading.Render(n.ID),
			r.muted.Render("["+strings.Join(scopes, ",")+"]"))
		return true
	})
}

// Effective prints the effective grants of identity with their sources.
func (r *Renderer) Effective(identity string, entries []effective.Entry) {
	r.printf("%s\n", r.heading.Render("Effective grants of "+identity))
	if len(entries) == 0 {
		r.printf("  %s\n", r.muted.Render("(none)"))
		return
	}
	for _, e := range entries {
		sources := make([]string, len(e.Sources))
		for i, s := range e.Sources {
			sources[i] = s.Provenance()
		}
		r.printf("  %-40s %s\n", e.Grant.Key(), r.muted.Render(strings.Join(sources, ", ")))
	}
}

// Changes prints staged or planned changes for review.
func (r *Renderer) Changes(changes []*change.Change) {
	if len(changes) == 0 {
		r.printf("%s\n", r.muted.Render("No changes."))
		return
	}
	for i, c := range changes {
		r.printf("%s %s\n",
			r.heading.Render(fmt.Sprintf("%d. %s %s %s", i+1, c.Type, c.EntityType, c.EntityName)),
			r.muted.Render(c.Description))
		for _, stmt := range c.Statements {
			r.printf("     %s\n", r.statement(statement.Redact(stmt)))
		}
	}
}

func (r *Renderer) statement(stmt string) string {
	switch {
	case strings.HasPrefix(stmt, "REVOKE"):
		return r.revoke.Render(stmt)
	case strings.HasPrefix(stmt, "GRANT"):
		return r.grant.Render(stmt)
	}
	return stmt
}

// Report prints the outcome of an execution pass.
func (r *Renderer) Report(rep *change.Report) {
	for _, res := range rep.Results {
		mark := r.ok.Render("ok")
		if !res.Success {
			mark = r.failed.Render("FAILED")
		}
		r.printf("  %-6s %s %s\n", mark, res.ChangeID, r.muted.Render(res.Duration.String()))
		if res.Error != "" {
			r.printf("         %s\n", res.Error)
		}
	}
	style := r.ok
	if !rep.OK() {
		style = r.failed
	}
	r.printf("%s\n", style.Render(rep.Summary()))
}

// AuditEntries prints audit entries, most recent first.
func (r *Renderer) AuditEntries(entries []*audit.Entry) {
	if len(entries) == 0 {
		r.printf("%s\n", r.muted.Render("No audit entries."))
		return
	}
	for _, e := range entries {
		mark := r.ok.Render("ok")
		if !e.Success {
			mark = r.failed.Render("FAILED")
		}
		r.printf("%s  %-6s %-10s %-7s %s %s\n",
			r.muted.Render(e.Timestamp.Format("2006-01-02 15:04:05")),
			mark, e.Actor, e.ChangeType, e.EntityType, e.EntityName)
		if e.ErrorMessage != "" {
			r.printf("    %s\n", e.ErrorMessage)
		}
	}
}

// Stats prints audit statistics.
func (r *Renderer) Stats(st *audit.Stats) {
	r.printf("%s %d (%s, %s)\n",
		r.heading.Render("Total:"), st.Total,
		r.ok.Render(fmt.Sprintf("%d succeeded", st.Succeeded)),
		r.failed.Render(fmt.Sprintf("%d failed", st.Failed)))
	r.counts("By actor", st.ByActor)
	r.counts("By change type", st.ByChangeType)
	r.counts("Recent days", st.RecentByDay)
}

func (r *Renderer) counts(title string, m map[string]int64) {
	r.printf("%s\n", r.heading.Render(title))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		r.printf("  %-20s %d\n", k, m[k])
	}
}
