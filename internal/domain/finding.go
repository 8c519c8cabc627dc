package domain

import (
	"path/filepath"
	"strconv"
	"strings"
)

// Severity represents the normalized severity of a finding
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
)

// SeverityOrder lists severities from most to least severe, used for
// stable display ordering in reports.
var SeverityOrder = []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}

// NormalizeSeverity upper-cases a raw severity string from a scan report
func NormalizeSeverity(raw string) Severity {
	return Severity(strings.ToUpper(strings.TrimSpace(raw)))
}

// Location is where a finding was detected in the scanned source
type Location struct {
	Filename  string `json:"filename"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
}

// Basename returns the filename without its directory path
func (l Location) Basename() string {
	return filepath.Base(l.Filename)
}

// LineRange returns "7" for single-line findings or "7-12" for ranges
func (l Location) LineRange() string {
	if l.StartLine == l.EndLine {
		return strconv.Itoa(l.StartLine)
	}
	return strconv.Itoa(l.StartLine) + "-" + strconv.Itoa(l.EndLine)
}

// Finding is one normalized security finding from a tfsec scan.
// Findings are produced per run and never mutated.
type Finding struct {
	RuleID          string   `json:"rule_id"`
	LongID          string   `json:"long_id"`
	RuleDescription string   `json:"rule_description"`
	RuleProvider    string   `json:"rule_provider"`
	RuleService     string   `json:"rule_service"`
	Impact          string   `json:"impact"`
	Resolution      string   `json:"resolution"`
	Links           []string `json:"links"`
	Description     string   `json:"description"`
	Severity        Severity `json:"severity"`
	Warning         bool     `json:"warning"`
	Status          int      `json:"status"`
	Resource        string   `json:"resource"`
	Location        Location `json:"location"`

	// Prefix namespaces the finding's identity for multi-environment
	// isolation (e.g. "production-east2"). Empty means no namespace.
	Prefix string `json:"prefix,omitempty"`
}
