// Package parser reads tfsec JSON reports into findings. Parsing is
// all-or-nothing: a malformed or incomplete entry fails the whole file,
// since reconciling against a partial baseline would close issues that
// are still real.
package parser

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/juparave/tfgitsec/internal/domain"
)

// ParseError describes a failure to parse a tfsec report
type ParseError struct {
	Msg string
	Err error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *ParseError) Unwrap() error { return e.Err }

// rawReport mirrors the top level of a tfsec JSON report
type rawReport struct {
	Results []json.RawMessage `json:"results"`
}

// rawFinding uses pointer fields so that missing keys are distinguishable
// from zero values when validating required fields
type rawFinding struct {
	RuleID          *string      `json:"rule_id"`
	LongID          *string      `json:"long_id"`
	RuleDescription *string      `json:"rule_description"`
	RuleProvider    *string      `json:"rule_provider"`
	RuleService     *string      `json:"rule_service"`
	Impact          *string      `json:"impact"`
	Resolution      *string      `json:"resolution"`
	Links           *[]string    `json:"links"`
	Description     *string      `json:"description"`
	Severity        *string      `json:"severity"`
	Warning         *bool        `json:"warning"`
	Status          *int         `json:"status"`
	Resource        *string      `json:"resource"`
	Location        *rawLocation `json:"location"`
}

type rawLocation struct {
	Filename  *string `json:"filename"`
	StartLine *int    `json:"start_line"`
	EndLine   *int    `json:"end_line"`
}

// ParseFile parses tfsec findings from a JSON file. The prefix, when
// non-empty, namespaces every finding's identity.
func ParseFile(path, prefix string) ([]domain.Finding, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &ParseError{Msg: fmt.Sprintf("tfsec report not found: %s", path)}
		}
		return nil, &ParseError{Msg: "reading tfsec report", Err: err}
	}
	defer f.Close()
	return Parse(f, prefix)
}

// Parse parses tfsec findings from a reader
func Parse(r io.Reader, prefix string) ([]domain.Finding, error) {
	var report rawReport
	dec := json.NewDecoder(r)
	if err := dec.Decode(&report); err != nil {
		return nil, &ParseError{Msg: "invalid JSON in tfsec report", Err: err}
	}

	// tfsec emits "results": null for clean scans
	findings := make([]domain.Finding, 0, len(report.Results))
	for i, raw := range report.Results {
		f, err := parseFinding(raw, prefix)
		if err != nil {
			return nil, &ParseError{Msg: fmt.Sprintf("parsing finding #%d", i), Err: err}
		}
		findings = append(findings, f)
	}
	return findings, nil
}

func parseFinding(raw json.RawMessage, prefix string) (domain.Finding, error) {
	var rf rawFinding
	if err := json.Unmarshal(raw, &rf); err != nil {
		return domain.Finding{}, err
	}

	for field, ok := range map[string]bool{
		"rule_id":          rf.RuleID != nil,
		"long_id":          rf.LongID != nil,
		"rule_description": rf.RuleDescription != nil,
		"rule_provider":    rf.RuleProvider != nil,
		"rule_service":     rf.RuleService != nil,
		"impact":           rf.Impact != nil,
		"resolution":       rf.Resolution != nil,
		"links":            rf.Links != nil,
		"description":      rf.Description != nil,
		"severity":         rf.Severity != nil,
		"warning":          rf.Warning != nil,
		"status":           rf.Status != nil,
		"resource":         rf.Resource != nil,
		"location":         rf.Location != nil,
	} {
		if !ok {
			return domain.Finding{}, fmt.Errorf("missing required field: %s", field)
		}
	}
	for field, ok := range map[string]bool{
		"location.filename":   rf.Location.Filename != nil,
		"location.start_line": rf.Location.StartLine != nil,
		"location.end_line":   rf.Location.EndLine != nil,
	} {
		if !ok {
			return domain.Finding{}, fmt.Errorf("missing required field: %s", field)
		}
	}

	return domain.Finding{
		RuleID:          *rf.RuleID,
		LongID:          *rf.LongID,
		RuleDescription: *rf.RuleDescription,
		RuleProvider:    *rf.RuleProvider,
		RuleService:     *rf.RuleService,
		Impact:          *rf.Impact,
		Resolution:      *rf.Resolution,
		Links:           *rf.Links,
		Description:     *rf.Description,
		Severity:        domain.NormalizeSeverity(*rf.Severity),
		Warning:         *rf.Warning,
		Status:          *rf.Status,
		Resource:        *rf.Resource,
		Location: domain.Location{
			Filename:  *rf.Location.Filename,
			StartLine: *rf.Location.StartLine,
			EndLine:   *rf.Location.EndLine,
		},
		Prefix: prefix,
	}, nil
}

// Stats computes summary statistics over parsed findings
func Stats(findings []domain.Finding) domain.ScanStats {
	stats := domain.ScanStats{
		Total:      len(findings),
		BySeverity: make(map[string]int),
		ByService:  make(map[string]int),
	}
	for _, f := range findings {
		stats.BySeverity[string(f.Severity)]++
		stats.ByService[f.RuleService]++
		if f.Warning {
			stats.Warnings++
		}
	}
	return stats
}
