// Package report renders issue bodies, audit comments, and run summaries.
package report

import (
	"encoding/json"
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/juparave/tfgitsec/internal/domain"
)

// IssueBody renders the markdown body for a newly created issue
func IssueBody(f domain.Finding) string {
	var sb strings.Builder

	sb.WriteString("## Security Finding\n\n")
	sb.WriteString("| | |\n|---|---|\n")
	sb.WriteString(fmt.Sprintf("| **Severity** | %s |\n", f.Severity))
	sb.WriteString(fmt.Sprintf("| **Rule** | `%s` (%s) |\n", f.RuleID, f.LongID))
	sb.WriteString(fmt.Sprintf("| **Provider** | %s |\n", f.RuleProvider))
	sb.WriteString(fmt.Sprintf("| **Service** | %s |\n", f.RuleService))
	sb.WriteString(fmt.Sprintf("| **Resource** | `%s` |\n", f.Resource))
	sb.WriteString(fmt.Sprintf("| **Location** | `%s` line %s |\n\n", f.Location.Filename, f.Location.LineRange()))

	if f.Description != "" {
		sb.WriteString("### Description\n\n")
		sb.WriteString(f.Description)
		sb.WriteString("\n\n")
	}
	if f.Impact != "" {
		sb.WriteString("### Impact\n\n")
		sb.WriteString(f.Impact)
		sb.WriteString("\n\n")
	}
	if f.Resolution != "" {
		sb.WriteString("### Resolution\n\n")
		sb.WriteString(f.Resolution)
		sb.WriteString("\n\n")
	}
	if len(f.Links) > 0 {
		sb.WriteString("### References\n\n")
		for _, link := range f.Links {
			sb.WriteString("- ")
			sb.WriteString(link)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString("---\n*This issue is managed automatically by tfgitsec. ")
	sb.WriteString("It will be closed when the finding no longer appears in the scan.*\n")

	return sb.String()
}

// ReopenComment is the audit comment left when a resolved finding reappears
func ReopenComment(scanDate string) string {
	return fmt.Sprintf("🔄 **Finding reappeared**\n\nThis security finding was detected again in the scan on %s. Reopening the issue.", scanDate)
}

// CloseComment is the audit comment left before closing a resolved issue
func CloseComment(scanDate string) string {
	return fmt.Sprintf("✅ **Finding resolved**\n\nThis security finding no longer appears in the scan on %s. Closing the issue.", scanDate)
}

// RenderJSON renders the run result as indented JSON
func RenderJSON(result *domain.RunResult) (string, error) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// RenderStats renders scan statistics as a short text block
func RenderStats(stats domain.ScanStats) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Total Findings: %d\n", stats.Total))
	if len(stats.BySeverity) > 0 {
		sb.WriteString("\nBy Severity:\n")
		for _, sev := range domain.SeverityOrder {
			if count := stats.BySeverity[string(sev)]; count > 0 {
				sb.WriteString(fmt.Sprintf("  %s: %d\n", sev, count))
			}
		}
	}
	if len(stats.ByService) > 0 {
		sb.WriteString("\nBy Service:\n")
		for _, svc := range sortedKeys(stats.ByService) {
			sb.WriteString(fmt.Sprintf("  %s: %d\n", svc, stats.ByService[svc]))
		}
	}
	if stats.Warnings > 0 {
		sb.WriteString(fmt.Sprintf("\nWarnings: %d\n", stats.Warnings))
	}
	return sb.String()
}

// RenderText renders a human-readable run summary. Verbose adds per-action
// detail and the scan statistics.
func RenderText(result *domain.RunResult, verbose bool) string {
	var sb strings.Builder

	sb.WriteString("\ntfgitsec scan results\n")
	sb.WriteString(fmt.Sprintf("Scan date: %s\n", result.ScanDate))
	if result.DryRun {
		sb.WriteString("DRY RUN - no changes were made\n")
	}
	sb.WriteString(fmt.Sprintf("Total findings: %d\n", result.TotalFindings))

	s := result.Summary
	sb.WriteString("\nAction summary:\n")
	sb.WriteString(fmt.Sprintf("  created:   %d\n", s.IssuesCreated))
	sb.WriteString(fmt.Sprintf("  reopened:  %d\n", s.IssuesReopened))
	sb.WriteString(fmt.Sprintf("  closed:    %d\n", s.IssuesClosed))
	sb.WriteString(fmt.Sprintf("  unchanged: %d\n", s.IssuesUnchanged))
	if s.Errors > 0 {
		sb.WriteString(fmt.Sprintf("  errors:    %d\n", s.Errors))
	}

	writeActions := func(heading string, records []domain.ActionRecord) {
		if len(records) == 0 {
			return
		}
		sb.WriteString("\n" + heading + ":\n")
		for _, rec := range records {
			line := "  - " + rec.Title
			if rec.Severity != "" {
				line += " (" + rec.Severity + ")"
			}
			if rec.IssueNumber > 0 {
				line += fmt.Sprintf(" #%d", rec.IssueNumber)
			}
			sb.WriteString(line + "\n")
			if rec.URL != "" {
				sb.WriteString("    " + rec.URL + "\n")
			}
		}
	}

	writeActions("Created", result.Actions.Created)
	writeActions("Reopened", result.Actions.Reopened)
	writeActions("Closed", result.Actions.Closed)
	if verbose {
		writeActions("Unchanged", result.Actions.Unchanged)
	}

	if len(result.Actions.Errors) > 0 {
		sb.WriteString("\nErrors:\n")
		for _, e := range result.Actions.Errors {
			sb.WriteString(fmt.Sprintf("  - %s %s: %s\n", e.Action, e.UniqueID, e.Message))
		}
	}

	if verbose {
		sb.WriteString("\nScan statistics:\n")
		sb.WriteString(indent(RenderStats(result.Stats), "  "))
	}

	if result.Advice != "" {
		sb.WriteString("\nRemediation advice:\n")
		sb.WriteString(indent(result.Advice, "  "))
		sb.WriteString("\n")
	}

	return sb.String()
}

// ToHTML renders the run summary as a minimal HTML email body
func ToHTML(result *domain.RunResult) string {
	var sb strings.Builder

	sb.WriteString("<html><body style=\"font-family: sans-serif;\">\n")
	sb.WriteString("<h2>tfgitsec scan results</h2>\n")
	sb.WriteString(fmt.Sprintf("<p>Scan date: %s</p>\n", html.EscapeString(result.ScanDate)))
	if result.DryRun {
		sb.WriteString("<p><strong>DRY RUN</strong> - no changes were made</p>\n")
	}

	s := result.Summary
	sb.WriteString("<table border=\"1\" cellpadding=\"6\" cellspacing=\"0\">\n")
	sb.WriteString(fmt.Sprintf("<tr><td>Total findings</td><td>%d</td></tr>\n", result.TotalFindings))
	sb.WriteString(fmt.Sprintf("<tr><td>Created</td><td>%d</td></tr>\n", s.IssuesCreated))
	sb.WriteString(fmt.Sprintf("<tr><td>Reopened</td><td>%d</td></tr>\n", s.IssuesReopened))
	sb.WriteString(fmt.Sprintf("<tr><td>Closed</td><td>%d</td></tr>\n", s.IssuesClosed))
	sb.WriteString(fmt.Sprintf("<tr><td>Unchanged</td><td>%d</td></tr>\n", s.IssuesUnchanged))
	sb.WriteString(fmt.Sprintf("<tr><td>Errors</td><td>%d</td></tr>\n", s.Errors))
	sb.WriteString("</table>\n")

	writeList := func(heading string, records []domain.ActionRecord) {
		if len(records) == 0 {
			return
		}
		sb.WriteString(fmt.Sprintf("<h3>%s</h3>\n<ul>\n", heading))
		for _, rec := range records {
			item := html.EscapeString(rec.Title)
			if rec.URL != "" {
				item = fmt.Sprintf("<a href=\"%s\">%s</a>", rec.URL, item)
			}
			if rec.Severity != "" {
				item += " (" + html.EscapeString(rec.Severity) + ")"
			}
			sb.WriteString("<li>" + item + "</li>\n")
		}
		sb.WriteString("</ul>\n")
	}

	writeList("Created", result.Actions.Created)
	writeList("Reopened", result.Actions.Reopened)
	writeList("Closed", result.Actions.Closed)

	if len(result.Actions.Errors) > 0 {
		sb.WriteString("<h3>Errors</h3>\n<ul>\n")
		for _, e := range result.Actions.Errors {
			sb.WriteString(fmt.Sprintf("<li>%s %s: %s</li>\n",
				html.EscapeString(e.Action), html.EscapeString(e.UniqueID), html.EscapeString(e.Message)))
		}
		sb.WriteString("</ul>\n")
	}

	if result.Advice != "" {
		sb.WriteString("<h3>Remediation advice</h3>\n")
		sb.WriteString("<pre>" + html.EscapeString(result.Advice) + "</pre>\n")
	}

	sb.WriteString("</body></html>\n")
	return sb.String()
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func indent(s, pad string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = pad + line
		}
	}
	return strings.Join(lines, "\n") + "\n"
}
