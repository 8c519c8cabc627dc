package report

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/juparave/tfgitsec/internal/domain"
)

func sampleFinding() domain.Finding {
	return domain.Finding{
		RuleID:          "AVD-AWS-0086",
		LongID:          "aws-s3-block-public-acls",
		RuleDescription: "S3 Access block should block public ACL",
		RuleProvider:    "aws",
		RuleService:     "s3",
		Impact:          "Objects can be made public",
		Resolution:      "Enable public ACL blocking",
		Links:           []string{"https://avd.aquasec.com/misconfig/avd-aws-0086"},
		Description:     "Bucket does not have a public access block.",
		Severity:        domain.SeverityHigh,
		Resource:        "aws_s3_bucket.data",
		Location:        domain.Location{Filename: "/infra/s3.tf", StartLine: 4, EndLine: 12},
	}
}

func sampleResult() *domain.RunResult {
	result := &domain.RunResult{
		ScanDate:      "2025-03-14 09:30:00 UTC",
		TotalFindings: 2,
		Stats: domain.ScanStats{
			Total:      2,
			BySeverity: map[string]int{"HIGH": 1, "CRITICAL": 1},
			ByService:  map[string]int{"s3": 2},
		},
		Actions: domain.Actions{
			Created: []domain.ActionRecord{{
				UniqueID:    "aws_s3_bucket.data[AVD-AWS-0086]",
				IssueNumber: 42,
				Title:       "S3 Access block should block public ACL - aws_s3_bucket.data[AVD-AWS-0086]",
				Severity:    "HIGH",
				URL:         "https://github.com/acme/infra/issues/42",
			}},
			Errors: []domain.ActionError{{
				Action:   "close",
				UniqueID: "aws_s3_bucket.old[AVD-AWS-0001]",
				Message:  "boom",
			}},
		},
	}
	result.Tally()
	return result
}

func TestIssueBody(t *testing.T) {
	body := IssueBody(sampleFinding())

	assert.Contains(t, body, "| **Severity** | HIGH |")
	assert.Contains(t, body, "`AVD-AWS-0086`")
	assert.Contains(t, body, "aws-s3-block-public-acls")
	assert.Contains(t, body, "`aws_s3_bucket.data`")
	assert.Contains(t, body, "`/infra/s3.tf` line 4-12")
	assert.Contains(t, body, "### Impact")
	assert.Contains(t, body, "### Resolution")
	assert.Contains(t, body, "https://avd.aquasec.com/misconfig/avd-aws-0086")
	assert.Contains(t, body, "managed automatically by tfgitsec")
}

func TestIssueBodySkipsEmptySections(t *testing.T) {
	f := sampleFinding()
	f.Impact = ""
	f.Links = nil

	body := IssueBody(f)
	assert.NotContains(t, body, "### Impact")
	assert.NotContains(t, body, "### References")
}

func TestComments(t *testing.T) {
	date := "2025-03-14 09:30:00 UTC"

	reopen := ReopenComment(date)
	assert.Contains(t, reopen, date)
	assert.Contains(t, reopen, "reappeared")

	closeComment := CloseComment(date)
	assert.Contains(t, closeComment, date)
	assert.Contains(t, closeComment, "resolved")
}

func TestRenderText(t *testing.T) {
	out := RenderText(sampleResult(), false)

	assert.Contains(t, out, "Scan date: 2025-03-14 09:30:00 UTC")
	assert.Contains(t, out, "created:   1")
	assert.Contains(t, out, "errors:    1")
	assert.Contains(t, out, "#42")
	assert.Contains(t, out, "https://github.com/acme/infra/issues/42")
	assert.Contains(t, out, "close aws_s3_bucket.old[AVD-AWS-0001]: boom")
	assert.NotContains(t, out, "DRY RUN")
	assert.NotContains(t, out, "Scan statistics")
}

func TestRenderTextVerbose(t *testing.T) {
	out := RenderText(sampleResult(), true)

	assert.Contains(t, out, "Scan statistics")
	assert.Contains(t, out, "CRITICAL: 1")
	assert.Contains(t, out, "s3: 2")
}

func TestRenderTextDryRun(t *testing.T) {
	result := sampleResult()
	result.DryRun = true

	out := RenderText(result, false)
	assert.Contains(t, out, "DRY RUN")
}

func TestRenderTextAdvice(t *testing.T) {
	result := sampleResult()
	result.Advice = "Fix the public bucket first."

	out := RenderText(result, false)
	assert.Contains(t, out, "Remediation advice")
	assert.Contains(t, out, "Fix the public bucket first.")
}

func TestRenderJSON(t *testing.T) {
	out, err := RenderJSON(sampleResult())
	require.NoError(t, err)

	var decoded domain.RunResult
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, 1, decoded.Summary.IssuesCreated)
	assert.Equal(t, "2025-03-14 09:30:00 UTC", decoded.ScanDate)
	require.Len(t, decoded.Actions.Created, 1)
	assert.Equal(t, 42, decoded.Actions.Created[0].IssueNumber)
}

func TestRenderStats(t *testing.T) {
	out := RenderStats(domain.ScanStats{
		Total:      3,
		BySeverity: map[string]int{"HIGH": 2, "LOW": 1},
		ByService:  map[string]int{"s3": 1, "iam": 2},
		Warnings:   1,
	})

	assert.Contains(t, out, "Total Findings: 3")
	// Severities in fixed order, services alphabetical
	assert.Less(t, strings.Index(out, "HIGH"), strings.Index(out, "LOW"))
	assert.Less(t, strings.Index(out, "iam"), strings.Index(out, "s3"))
	assert.Contains(t, out, "Warnings: 1")
}

func TestToHTML(t *testing.T) {
	result := sampleResult()
	result.Advice = "Fix <it> now."

	out := ToHTML(result)
	assert.Contains(t, out, "<html>")
	assert.Contains(t, out, "Total findings")
	assert.Contains(t, out, "href=\"https://github.com/acme/infra/issues/42\"")
	assert.Contains(t, out, "Errors")
	// Advice is escaped
	assert.Contains(t, out, "Fix &lt;it&gt; now.")
}
