// Package report assembles audit results into a Markdown report.
package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/iancoleman/strcase"

	"github.com/hashicorp-forge/siteaudit/pkg/pagespeed"
	"github.com/hashicorp-forge/siteaudit/pkg/serper"
)

const (
	maxSEOChecks      = 15
	maxAccessibility  = 12
	maxOrganicResults = 10
	maxQuestions      = 5
)

// GapSectionHeader precedes a gap analysis appended to a report.
const GapSectionHeader = "\n\n---\n\n## Gap Analysis (Gemini)\n\n"

// CoreWebVitals are the audits listed under Core Web Vitals, in order.
var CoreWebVitals = []string{
	"first-contentful-paint",
	"largest-contentful-paint",
	"cumulative-layout-shift",
	"total-blocking-time",
}

// Input is everything a report is built from. Any result may be nil.
type Input struct {
	URL       string
	Mobile    *pagespeed.Result
	Desktop   *pagespeed.Result
	SERP      *serper.Result
	SERPQuery string
}

// Build renders in as Markdown.
func Build(in Input) string {
	url := pagespeed.NormalizeURL(in.URL)

	var b strings.Builder
	b.WriteString("# SEO & Performance Report\n\n")
	fmt.Fprintf(&b, "**Site:** %s\n\n", url)
	b.WriteString("---\n\n")

	if in.Mobile != nil {
		writePageSpeed(&b, in.Mobile, url, pagespeed.Mobile)
		b.WriteString("\n---\n\n")
	}
	if in.Desktop != nil {
		writePageSpeed(&b, in.Desktop, url, pagespeed.Desktop)
		b.WriteString("\n---\n\n")
	}
	if in.SERP != nil && strings.TrimSpace(in.SERPQuery) != "" {
		writeSERP(&b, in.SERP, strings.TrimSpace(in.SERPQuery))
	}

	return strings.TrimSpace(b.String())
}

// WithGapAnalysis appends gap under its own section.
func WithGapAnalysis(report, gap string) string {
	gap = strings.TrimSpace(gap)
	if gap == "" {
		return report
	}
	return report + GapSectionHeader + gap
}

func writePageSpeed(b *strings.Builder, res *pagespeed.Result, url string, strategy pagespeed.Strategy) {
	lh := &res.LighthouseResult

	fmt.Fprintf(b, "## PageSpeed Insights (%s)\n\n", strategy.Title())
	fmt.Fprintf(b, "**URL:** %s\n\n", url)

	b.WriteString("### Scores\n\n")
	for _, id := range lh.CategoryIDs() {
		cat := lh.Categories[id]
		if cat == nil {
			continue
		}
		fmt.Fprintf(b, "- **%s:** %s\n", CategoryTitle(id, cat.Title), Percent(cat.Score))
	}

	var vitals []*pagespeed.Audit
	for _, id := range CoreWebVitals {
		if a := lh.Audits[id]; a != nil {
			if a.ID == "" {
				a.ID = id
			}
			vitals = append(vitals, a)
		}
	}
	if len(vitals) > 0 {
		b.WriteString("\n### Core Web Vitals\n\n")
		for _, a := range vitals {
			line := fmt.Sprintf("- %s **%s**", StatusMark(a.Score), auditTitle(a))
			if a.DisplayValue != "" {
				line += " " + a.DisplayValue
			}
			b.WriteString(line + "\n")
		}
	}

	if checks := lh.CategoryAudits("seo", maxSEOChecks); len(checks) > 0 {
		b.WriteString("\n### SEO checks\n\n")
		for _, a := range checks {
			line := fmt.Sprintf("- %s **%s**", StatusMark(a.Score), auditTitle(a))
			if detail := auditDetail(a); detail != "" {
				line += " — " + detail
			}
			b.WriteString(line + "\n")
		}
	}

	if checks := lh.CategoryAudits("accessibility", maxAccessibility); len(checks) > 0 {
		b.WriteString("\n### Accessibility\n\n")
		for _, a := range checks {
			fmt.Fprintf(b, "- %s **%s**\n", StatusMark(a.Score), auditTitle(a))
		}
	}
}

func writeSERP(b *strings.Builder, res *serper.Result, query string) {
	b.WriteString("## SERP context\n\n")
	fmt.Fprintf(b, "*Query:* %q\n\n", query)

	if len(res.Organic) > 0 {
		b.WriteString("### Top results\n\n")
		for i, o := range res.Organic {
			if i == maxOrganicResults {
				break
			}
			fmt.Fprintf(b, "%d. **%s**  \n   %s  \n   %s\n\n", i+1, o.Title, o.Link, o.Snippet)
		}
	}

	var questions []serper.Question
	for i, q := range res.PeopleAlsoAsk {
		if i == maxQuestions {
			break
		}
		if q.Question != "" {
			questions = append(questions, q)
		}
	}
	if len(questions) > 0 {
		b.WriteString("### People also ask\n\n")
		for _, q := range questions {
			fmt.Fprintf(b, "- **%s**  \n  %s\n\n", q.Question, q.Snippet)
		}
	}
}

// StatusMark is ✔ for scores of at least 0.9, ⚠ for at least 0.5, and ✖
// otherwise, including unscored audits.
func StatusMark(score *float64) string {
	switch {
	case score == nil:
		return "✖"
	case *score >= 0.9:
		return "✔"
	case *score >= 0.5:
		return "⚠"
	default:
		return "✖"
	}
}

// Percent renders a 0..1 score as a whole percentage, rounding halves to
// even. A missing score renders as a dash.
func Percent(score *float64) string {
	if score == nil {
		return "—"
	}
	return fmt.Sprintf("%d%%", int(math.RoundToEven(*score*100)))
}

// CategoryTitle returns title, or a title-cased form of id when title is
// empty.
func CategoryTitle(id, title string) string {
	if title != "" {
		return title
	}
	words := strings.Fields(strcase.ToDelimited(id, ' '))
	for i, w := range words {
		words[i] = strcase.ToCamel(w)
	}
	return strings.Join(words, " ")
}

func auditTitle(a *pagespeed.Audit) string {
	if a.Title != "" {
		return a.Title
	}
	return a.ID
}

func auditDetail(a *pagespeed.Audit) string {
	if a.DisplayValue != "" {
		return a.DisplayValue
	}
	return a.Description
}
