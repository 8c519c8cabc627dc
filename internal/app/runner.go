package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/juparave/tfgitsec/internal/advisor"
	"github.com/juparave/tfgitsec/internal/config"
	"github.com/juparave/tfgitsec/internal/domain"
	"github.com/juparave/tfgitsec/internal/github"
	"github.com/juparave/tfgitsec/internal/identity"
	"github.com/juparave/tfgitsec/internal/notify"
	"github.com/juparave/tfgitsec/internal/parser"
	"github.com/juparave/tfgitsec/internal/reconcile"
)

// Runner orchestrates the full scan-and-reconcile flow
type Runner struct {
	config *config.Config
	github *github.Client
	codec  *identity.Codec
}

// NewRunner creates a Runner with a GitHub client built from the config
func NewRunner(cfg *config.Config, version string) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	owner, repo, err := github.ParseRepo(cfg.GitHub.Repo)
	if err != nil {
		return nil, err
	}

	client, err := github.NewClient(github.Config{
		Token:      cfg.GitHub.Token,
		Owner:      owner,
		Repo:       repo,
		APIBaseURL: cfg.GitHub.APIBaseURL(),
		WebBaseURL: cfg.GitHub.WebBaseURL(),
		UserAgent:  "tfgitsec/" + version,
	})
	if err != nil {
		return nil, err
	}

	return &Runner{
		config: cfg,
		github: client,
		codec:  identity.NewCodec(cfg.Labels),
	}, nil
}

// Scan processes a tfsec report and reconciles GitHub issues against it.
// Parse and listing failures are fatal; per-issue failures are collected
// into the result.
func (r *Runner) Scan(ctx context.Context, reportPath, prefix string) (*domain.RunResult, error) {
	startTime := time.Now()

	log.Info().Str("report", reportPath).Msg("Parsing tfsec report")
	findings, err := parser.ParseFile(reportPath, prefix)
	if err != nil {
		return nil, fmt.Errorf("parsing tfsec report: %w", err)
	}
	stats := parser.Stats(findings)
	log.Info().Int("findings", len(findings)).Msg("Parsed tfsec report")

	log.Info().Str("label", r.codec.BaseLabel()).Msg("Listing existing issues")
	existing, err := r.github.ListIssues(ctx, r.codec.BaseLabel())
	if err != nil {
		return nil, fmt.Errorf("listing existing issues: %w", err)
	}

	engine := reconcile.NewEngine(r.github, r.codec, reconcile.Options{
		AutoClose: r.config.Settings.AutoClose,
		DryRun:    r.config.Settings.DryRun,
	})
	result := engine.Reconcile(ctx, findings, existing, stats)

	if r.config.Advisor.Enabled && len(findings) > 0 {
		r.advise(ctx, findings, result)
	}

	if r.config.Email.Enabled && !result.DryRun {
		r.notify(ctx, result)
	}

	log.Info().
		Int("created", result.Summary.IssuesCreated).
		Int("reopened", result.Summary.IssuesReopened).
		Int("closed", result.Summary.IssuesClosed).
		Int("unchanged", result.Summary.IssuesUnchanged).
		Int("errors", result.Summary.Errors).
		Dur("elapsed", time.Since(startTime).Round(time.Millisecond)).
		Msg("Reconciliation complete")

	return result, nil
}

// advise attaches LLM remediation advice to the result; failures are
// logged and the section is simply omitted
func (r *Runner) advise(ctx context.Context, findings []domain.Finding, result *domain.RunResult) {
	adv, err := advisor.New(r.config.Advisor)
	if err != nil {
		log.Warn().Err(err).Msg("Advisor initialization failed, skipping advice")
		return
	}
	advice, err := adv.Advise(ctx, findings)
	if err != nil {
		log.Warn().Err(err).Msg("Advisor failed, skipping advice")
		return
	}
	result.Advice = advice
}

// notify emails the run summary; failures are logged, never fatal
func (r *Runner) notify(ctx context.Context, result *domain.RunResult) {
	svc, err := notify.NewService(r.config.Email)
	if err != nil {
		log.Warn().Err(err).Msg("Email service initialization failed")
		return
	}
	if err := svc.Validate(); err != nil {
		log.Warn().Err(err).Msg("Email configuration invalid, skipping notification")
		return
	}
	if err := svc.SendResult(ctx, result); err != nil {
		log.Warn().Err(err).Msg("Failed to send summary email")
		return
	}
	log.Info().Str("to", r.config.Email.ToAddress).Msg("Summary email sent")
}

// Ping verifies that the repository is reachable with the configured
// credentials
func (r *Runner) Ping(ctx context.Context) error {
	return r.github.TestConnection(ctx)
}

// TestConnection verifies GitHub access and returns the number of
// existing managed issues
func (r *Runner) TestConnection(ctx context.Context) (int, error) {
	if err := r.github.TestConnection(ctx); err != nil {
		return 0, err
	}
	issues, err := r.github.ListIssues(ctx, r.codec.BaseLabel())
	if err != nil {
		return 0, err
	}
	return len(issues), nil
}
