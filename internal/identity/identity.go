// Package identity derives the stable identity of a finding and recovers
// it from issue titles. GitHub issues have no structured metadata fields,
// so the identity is carried in free text:
//
//	title:     [<prefix>] <rule description> - <resource>[<rule id>]
//	identity:  <prefix>:<resource>[<rule id>]
//
// Decoding splits on the last " - " so that rule descriptions containing
// the separator still round-trip. Titles that cannot be decoded belong to
// somebody else and are reported as not-ours, never as errors.
package identity

import (
	"strings"

	"github.com/juparave/tfgitsec/internal/config"
	"github.com/juparave/tfgitsec/internal/domain"
)

const (
	separator   = " - "
	warningTag  = "warning"
	prefixClose = "] "
)

// Codec encodes findings into titles/identities/labels and decodes
// identities back out of issue titles. Label names come from configuration
// rather than package globals.
type Codec struct {
	labels config.LabelConfig
}

// NewCodec creates a Codec using the given label scheme
func NewCodec(labels config.LabelConfig) *Codec {
	return &Codec{labels: labels}
}

// BaseLabel returns the marker label identifying issues managed by us
func (c *Codec) BaseLabel() string {
	return c.labels.Base
}

// UniqueID returns the canonical identity of a finding:
// resource[rule_id], namespaced as prefix:resource[rule_id] when set
func (c *Codec) UniqueID(f domain.Finding) string {
	id := f.Resource + "[" + f.RuleID + "]"
	if f.Prefix != "" {
		return f.Prefix + ":" + id
	}
	return id
}

// IssueTitle returns the issue title encoding the finding's identity
func (c *Codec) IssueTitle(f domain.Finding) string {
	title := f.RuleDescription + separator + f.Resource + "[" + f.RuleID + "]"
	if f.Prefix != "" {
		return "[" + f.Prefix + "] " + title
	}
	return title
}

// Labels returns the full label set for an issue created from a finding
func (c *Codec) Labels(f domain.Finding) []string {
	labels := []string{
		c.labels.Base,
		c.labels.SeverityPrefix + strings.ToLower(string(f.Severity)),
		c.labels.ServicePrefix + f.RuleService,
		c.labels.ProviderPrefix + f.RuleProvider,
	}
	if f.Warning {
		labels = append(labels, warningTag)
	}
	return labels
}

// Decode recovers a finding identity from an issue. It returns false when
// the issue is not one of ours (missing base label) or when the title does
// not carry a well-formed identity.
func (c *Codec) Decode(issue domain.Issue) (string, bool) {
	if !issue.HasLabel(c.labels.Base) {
		return "", false
	}
	return DecodeTitle(issue.Title)
}

// DecodeTitle recovers an identity from a bare title string
func DecodeTitle(title string) (string, bool) {
	prefix := ""
	rest := title

	// A leading "[prefix] " namespaces the identity
	if strings.HasPrefix(title, "[") {
		if end := strings.Index(title, prefixClose); end != -1 {
			prefix = title[1:end]
			rest = title[end+len(prefixClose):]
		}
	}

	// The identity is everything after the last separator. Splitting on
	// the last occurrence keeps descriptions containing " - " decodable.
	idx := strings.LastIndex(rest, separator)
	if idx == -1 {
		return "", false
	}
	candidate := rest[idx+len(separator):]

	// A well-formed identity looks like resource[rule_id]
	if !strings.Contains(candidate, "[") || !strings.HasSuffix(candidate, "]") {
		return "", false
	}

	if prefix != "" {
		return prefix + ":" + candidate, true
	}
	return candidate, true
}
