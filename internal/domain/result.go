package domain

// ScanStats summarizes the parsed findings of a single scan
type ScanStats struct {
	Total      int            `json:"total"`
	BySeverity map[string]int `json:"by_severity"`
	ByService  map[string]int `json:"by_service"`
	Warnings   int            `json:"warnings"`
}

// ActionRecord is one successful (or simulated) lifecycle action taken
// for a finding identity during a reconciliation run
type ActionRecord struct {
	UniqueID    string `json:"unique_id"`
	IssueNumber int    `json:"issue_number,omitempty"`
	Title       string `json:"title"`
	Severity    string `json:"severity,omitempty"`
	URL         string `json:"url,omitempty"`
	DryRun      bool   `json:"dry_run,omitempty"`
}

// ActionError records a per-item failure that did not abort the run
type ActionError struct {
	Action      string `json:"action"`
	UniqueID    string `json:"unique_id,omitempty"`
	IssueNumber int    `json:"issue_number,omitempty"`
	Message     string `json:"error"`
}

// Actions is the full action log of a reconciliation run
type Actions struct {
	Created   []ActionRecord `json:"created"`
	Reopened  []ActionRecord `json:"reopened"`
	Closed    []ActionRecord `json:"closed"`
	Unchanged []ActionRecord `json:"unchanged"`
	Errors    []ActionError  `json:"errors"`
}

// Summary holds the per-kind counts of a run
type Summary struct {
	IssuesCreated   int `json:"issues_created"`
	IssuesReopened  int `json:"issues_reopened"`
	IssuesClosed    int `json:"issues_closed"`
	IssuesUnchanged int `json:"issues_unchanged"`
	Errors          int `json:"errors"`
}

// RunResult is the aggregated outcome of one reconciliation run.
// It is built fresh each run and never persisted.
type RunResult struct {
	ScanDate      string    `json:"scan_date"`
	DryRun        bool      `json:"dry_run"`
	TotalFindings int       `json:"total_findings"`
	Stats         ScanStats `json:"scan_stats"`
	Actions       Actions   `json:"actions"`
	Summary       Summary   `json:"summary"`

	// Advice is the optional remediation plan produced by the advisor.
	// Empty when the advisor is disabled or failed.
	Advice string `json:"advice,omitempty"`
}

// Tally recomputes the summary counts from the action log
func (r *RunResult) Tally() {
	r.Summary = Summary{
		IssuesCreated:   len(r.Actions.Created),
		IssuesReopened:  len(r.Actions.Reopened),
		IssuesClosed:    len(r.Actions.Closed),
		IssuesUnchanged: len(r.Actions.Unchanged),
		Errors:          len(r.Actions.Errors),
	}
}

// HasErrors reports whether any per-item action failed
func (r *RunResult) HasErrors() bool {
	return len(r.Actions.Errors) > 0
}

// Mutated reports whether the run created, reopened, or closed any issue
func (r *RunResult) Mutated() bool {
	return len(r.Actions.Created)+len(r.Actions.Reopened)+len(r.Actions.Closed) > 0
}
