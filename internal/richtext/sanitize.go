package richtext

import (
	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer scrubs rendered HTML before it leaves the process.
type Sanitizer struct {
	policy *bluemonday.Policy
}

// NewSanitizer builds the policy used for documentation bodies: user
// generated content plus figures and the data attributes emitted for links.
func NewSanitizer() *Sanitizer {
	policy := bluemonday.UGCPolicy()
	policy.AllowElements("figure", "figcaption", "section", "article", "header")
	policy.AllowDataAttributes()
	policy.AllowAttrs("class").OnElements("figure", "section", "article", "header")
	return &Sanitizer{policy: policy}
}

// Sanitize returns the cleaned HTML.
func (s *Sanitizer) Sanitize(html string) string {
	if s == nil || s.policy == nil {
		return html
	}
	return s.policy.Sanitize(html)
}
