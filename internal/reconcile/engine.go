// Package reconcile aligns GitHub issues with the findings of the current
// scan: one open issue per present finding, closed issues for findings
// that are gone. Each mutation is isolated so one API failure cannot
// abort the rest of the run.
package reconcile

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/juparave/tfgitsec/internal/domain"
	"github.com/juparave/tfgitsec/internal/identity"
	"github.com/juparave/tfgitsec/internal/report"
)

// IssueStore is the mutation surface of the issue tracker. Listing is done
// by the caller before reconciliation, since a failed listing is fatal
// while a failed mutation is not.
type IssueStore interface {
	CreateIssue(ctx context.Context, title, body string, labels []string) (domain.Issue, error)
	UpdateIssueState(ctx context.Context, number int, state string) (domain.Issue, error)
	AddComment(ctx context.Context, number int, text string) error
	IssueURL(number int) string
}

// Options control engine behavior
type Options struct {
	AutoClose bool
	DryRun    bool

	// Now overrides the clock for tests; nil means time.Now
	Now func() time.Time
}

// Engine computes and applies the lifecycle actions for one run
type Engine struct {
	store    IssueStore
	codec    *identity.Codec
	opts     Options
	scanDate string
}

// NewEngine creates a reconciliation engine
func NewEngine(store IssueStore, codec *identity.Codec, opts Options) *Engine {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		store:    store,
		codec:    codec,
		opts:     opts,
		scanDate: now().UTC().Format("2006-01-02 15:04:05 UTC"),
	}
}

// ScanDate returns the timestamp stamped on this run's comments and report
func (e *Engine) ScanDate() string {
	return e.scanDate
}

// Reconcile processes the current findings against the existing issues and
// returns the action log. Stats are passed through to the result verbatim.
// Per-item failures are recorded, never returned.
func (e *Engine) Reconcile(ctx context.Context, findings []domain.Finding, existing []domain.Issue, stats domain.ScanStats) *domain.RunResult {
	// Identity -> finding. Duplicate identities within one run are not
	// expected; when they occur the last finding wins.
	findingsByID := make(map[string]domain.Finding, len(findings))
	for _, f := range findings {
		findingsByID[e.codec.UniqueID(f)] = f
	}

	// Identity -> issue. Issues whose titles do not decode are not ours.
	existingByID := make(map[string]domain.Issue, len(existing))
	for _, issue := range existing {
		if id, ok := e.codec.Decode(issue); ok {
			existingByID[id] = issue
		}
	}

	result := &domain.RunResult{
		ScanDate:      e.scanDate,
		DryRun:        e.opts.DryRun,
		TotalFindings: len(findings),
		Stats:         stats,
	}

	for _, f := range findings {
		id := e.codec.UniqueID(f)
		issue, exists := existingByID[id]
		switch {
		case !exists:
			e.create(ctx, f, id, result)
		case issue.IsClosed():
			e.reopen(ctx, issue, id, result)
		default:
			result.Actions.Unchanged = append(result.Actions.Unchanged, domain.ActionRecord{
				UniqueID:    id,
				IssueNumber: issue.Number,
				Title:       issue.Title,
			})
		}
	}

	if e.opts.AutoClose {
		e.closeResolved(ctx, findingsByID, existingByID, result)
	}

	result.Tally()
	return result
}

// create opens a new issue for a finding seen for the first time
func (e *Engine) create(ctx context.Context, f domain.Finding, id string, result *domain.RunResult) {
	title := e.codec.IssueTitle(f)

	if e.opts.DryRun {
		result.Actions.Created = append(result.Actions.Created, domain.ActionRecord{
			UniqueID: id,
			Title:    title,
			Severity: string(f.Severity),
			DryRun:   true,
		})
		return
	}

	body := report.IssueBody(f)
	issue, err := e.store.CreateIssue(ctx, title, body, e.codec.Labels(f))
	if err != nil {
		log.Warn().Err(err).Str("unique_id", id).Msg("Failed to create issue")
		result.Actions.Errors = append(result.Actions.Errors, domain.ActionError{
			Action:   "create",
			UniqueID: id,
			Message:  err.Error(),
		})
		return
	}

	result.Actions.Created = append(result.Actions.Created, domain.ActionRecord{
		UniqueID:    id,
		IssueNumber: issue.Number,
		Title:       issue.Title,
		Severity:    string(f.Severity),
		URL:         e.store.IssueURL(issue.Number),
	})
}

// reopen transitions a closed issue back to open because its finding
// reappeared. State change first, then the audit comment.
func (e *Engine) reopen(ctx context.Context, issue domain.Issue, id string, result *domain.RunResult) {
	if e.opts.DryRun {
		result.Actions.Reopened = append(result.Actions.Reopened, domain.ActionRecord{
			UniqueID:    id,
			IssueNumber: issue.Number,
			Title:       issue.Title,
			DryRun:      true,
		})
		return
	}

	reopened, err := e.store.UpdateIssueState(ctx, issue.Number, domain.IssueOpen)
	if err == nil {
		err = e.store.AddComment(ctx, issue.Number, report.ReopenComment(e.scanDate))
	}
	if err != nil {
		log.Warn().Err(err).Int("issue", issue.Number).Msg("Failed to reopen issue")
		result.Actions.Errors = append(result.Actions.Errors, domain.ActionError{
			Action:      "reopen",
			UniqueID:    id,
			IssueNumber: issue.Number,
			Message:     err.Error(),
		})
		return
	}

	result.Actions.Reopened = append(result.Actions.Reopened, domain.ActionRecord{
		UniqueID:    id,
		IssueNumber: reopened.Number,
		Title:       reopened.Title,
		URL:         e.store.IssueURL(reopened.Number),
	})
}

// closeResolved closes open issues whose identity no longer appears in the
// current findings. Audit comment first, then the state change, so the
// resolution note lands while the issue is still open.
func (e *Engine) closeResolved(ctx context.Context, findingsByID map[string]domain.Finding, existingByID map[string]domain.Issue, result *domain.RunResult) {
	for id, issue := range existingByID {
		if _, present := findingsByID[id]; present || issue.IsClosed() {
			continue
		}

		if e.opts.DryRun {
			result.Actions.Closed = append(result.Actions.Closed, domain.ActionRecord{
				UniqueID:    id,
				IssueNumber: issue.Number,
				Title:       issue.Title,
				DryRun:      true,
			})
			continue
		}

		err := e.store.AddComment(ctx, issue.Number, report.CloseComment(e.scanDate))
		var closed domain.Issue
		if err == nil {
			closed, err = e.store.UpdateIssueState(ctx, issue.Number, domain.IssueClosed)
		}
		if err != nil {
			log.Warn().Err(err).Int("issue", issue.Number).Msg("Failed to close issue")
			result.Actions.Errors = append(result.Actions.Errors, domain.ActionError{
				Action:      "close",
				UniqueID:    id,
				IssueNumber: issue.Number,
				Message:     err.Error(),
			})
			continue
		}

		result.Actions.Closed = append(result.Actions.Closed, domain.ActionRecord{
			UniqueID:    id,
			IssueNumber: closed.Number,
			Title:       closed.Title,
			URL:         e.store.IssueURL(closed.Number),
		})
	}
}
