package gdocs

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

var (
	documentURLRe = regexp.MustCompile(`/document/d/([a-zA-Z0-9_-]+)`)
	documentIDRe  = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

// ParseDocumentID accepts a Google Docs URL or a bare document id and returns
// the id.
func ParseDocumentID(s string) (string, error) {
	s = strings.TrimSpace(s)
	if m := documentURLRe.FindStringSubmatch(s); m != nil {
		return m[1], nil
	}
	if documentIDRe.MatchString(s) {
		return s, nil
	}
	return "", newError(ErrInvalidTarget, "", fmt.Errorf("%q", s))
}

// DocumentURL returns the edit link for a document.
func DocumentURL(id string) string {
	return "https://docs.google.com/document/d/" + id + "/edit"
}

// Target names a document to be created.
type Target struct {
	Kind   string
	Domain string
	Date   time.Time
}

// NewTarget returns a target for a report of kind about domain.
func NewTarget(kind, domain string, date time.Time) Target {
	return Target{
		Kind:   kind,
		Domain: domain,
		Date:   date,
	}
}

// Title is "<kind> - <domain> - <YYYY-MM-DD>".
func (t Target) Title() string {
	return fmt.Sprintf("%s - %s - %s", t.Kind, t.Domain, t.Date.Format(dateLayout))
}
