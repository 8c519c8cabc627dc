package domain

// Issue states as reported by the GitHub API
const (
	IssueOpen   = "open"
	IssueClosed = "closed"
)

// Issue represents a GitHub issue tracking one finding.
// Its identity is derived from the title, not stored as a field.
type Issue struct {
	Number    int      `json:"number"`
	Title     string   `json:"title"`
	State     string   `json:"state"`
	Labels    []string `json:"labels"`
	CreatedAt string   `json:"created_at"`
	UpdatedAt string   `json:"updated_at"`
	Body      string   `json:"body"`
}

// HasLabel reports whether the issue carries the given label
func (i Issue) HasLabel(name string) bool {
	for _, l := range i.Labels {
		if l == name {
			return true
		}
	}
	return false
}

// IsClosed reports whether the issue is in the closed state
func (i Issue) IsClosed() bool {
	return i.State == IssueClosed
}
