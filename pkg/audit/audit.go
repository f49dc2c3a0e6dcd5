// Package audit runs a site audit: metrics, search context and gap analysis
// are gathered, assembled into a report, and optionally exported to Google
// Docs.
package audit

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"

	"github.com/hashicorp-forge/siteaudit/pkg/gdocs"
	"github.com/hashicorp-forge/siteaudit/pkg/pagespeed"
	"github.com/hashicorp-forge/siteaudit/pkg/report"
	"github.com/hashicorp-forge/siteaudit/pkg/serper"
)

const (
	ReportKind   = "SEO Report"
	AnalysisKind = "SEO Gap Analysis"
)

var (
	ErrMissingURL = errors.New("missing URL to audit")

	// ErrUpstreamFailed wraps every collaborator failure.
	ErrUpstreamFailed = errors.New("upstream request failed")
)

// PageSpeedRunner fetches Lighthouse results.
type PageSpeedRunner interface {
	Run(ctx context.Context, url string, strategy pagespeed.Strategy) (*pagespeed.Result, error)
}

// Searcher fetches search results.
type Searcher interface {
	Search(ctx context.Context, query string) (*serper.Result, error)
}

// GapAnalyzer analyzes a finished report.
type GapAnalyzer interface {
	GapAnalysis(ctx context.Context, report string) (string, error)
}

// Exporter creates the report documents.
type Exporter interface {
	CreatePair(ctx context.Context, req gdocs.PairRequest) gdocs.PairResult
}

// UpstreamError is a failed collaborator call.
type UpstreamError struct {
	Step string
	Err  error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Step, e.Err)
}

func (e *UpstreamError) Unwrap() []error {
	return []error{ErrUpstreamFailed, e.Err}
}

// Options select what one run does.
type Options struct {
	URL string

	// SERP adds search context. SERPQuery defaults to the site's host.
	SERP      bool
	SERPQuery string

	GapAnalysis bool

	// Export creates Google Docs for the report and the analysis.
	Export bool

	// Date stamps document titles. Defaults to today.
	Date time.Time
}

// Documents are the ids of exported documents.
type Documents struct {
	ReportID   string
	AnalysisID string
}

// Result is the outcome of a run. Report is set whenever err from Run is
// nil; everything that failed along the way is in Warnings.
type Result struct {
	RunID     string
	URL       string
	Domain    string
	SERPQuery string

	Report      string
	GapAnalysis string

	Documents Documents

	// ExportErr is set when the export failed; any document that was
	// created is still in Documents.
	ExportErr error

	Warnings *multierror.Error
}

// FullReport is the report with the gap analysis appended.
func (r *Result) FullReport() string {
	return report.WithGapAnalysis(r.Report, r.GapAnalysis)
}

// Runner runs audits. Nil collaborators disable their step.
type Runner struct {
	PageSpeed PageSpeedRunner
	Search    Searcher
	Gap       GapAnalyzer
	Export    Exporter

	Logger hclog.Logger
	Now    func() time.Time
}

// Run audits opts.URL. It fails only when no metrics could be fetched.
func (r *Runner) Run(ctx context.Context, opts Options) (*Result, error) {
	logger := r.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	now := r.Now
	if now == nil {
		now = time.Now
	}

	if strings.TrimSpace(opts.URL) == "" {
		return nil, ErrMissingURL
	}
	if r.PageSpeed == nil {
		return nil, &UpstreamError{Step: "PageSpeed", Err: errors.New("no PageSpeed client configured")}
	}

	res := &Result{
		RunID:  uuid.NewString(),
		URL:    pagespeed.NormalizeURL(opts.URL),
		Domain: Domain(opts.URL),
	}
	logger = logger.With("run_id", res.RunID, "url", res.URL)
	logger.Info("audit started")

	warn := func(step string, err error) {
		logger.Warn("step failed", "step", step, "error", err)
		res.Warnings = multierror.Append(res.Warnings, &UpstreamError{Step: step, Err: err})
	}

	// Mobile and desktop are independent; either alone is enough.
	in := report.Input{URL: res.URL}
	var err error
	if in.Mobile, err = r.PageSpeed.Run(ctx, res.URL, pagespeed.Mobile); err != nil {
		warn("PageSpeed (mobile)", err)
	}
	if in.Desktop, err = r.PageSpeed.Run(ctx, res.URL, pagespeed.Desktop); err != nil {
		warn("PageSpeed (desktop)", err)
	}
	if in.Mobile == nil && in.Desktop == nil {
		return res, &UpstreamError{Step: "PageSpeed", Err: res.Warnings}
	}

	if opts.SERP && r.Search != nil {
		query := strings.TrimSpace(opts.SERPQuery)
		if query == "" {
			query = res.Domain
		}
		serp, err := r.Search.Search(ctx, query)
		if err != nil {
			warn("SERP", err)
		} else {
			in.SERP = serp
			in.SERPQuery = query
			res.SERPQuery = query
		}
	}

	res.Report = report.Build(in)

	if opts.GapAnalysis && r.Gap != nil {
		gap, err := r.Gap.GapAnalysis(ctx, res.Report)
		if err != nil {
			warn("gap analysis", err)
		} else {
			res.GapAnalysis = gap
		}
	}

	if opts.Export && r.Export != nil {
		date := opts.Date
		if date.IsZero() {
			date = now()
		}
		pair := r.Export.CreatePair(ctx, gdocs.PairRequest{
			Primary: gdocs.DocumentRequest{
				Title:    gdocs.NewTarget(ReportKind, res.Domain, date).Title(),
				Markdown: res.Report,
			},
			Secondary: gdocs.DocumentRequest{
				Title:    gdocs.NewTarget(AnalysisKind, res.Domain, date).Title(),
				Markdown: res.GapAnalysis,
			},
		})
		res.Documents = Documents{ReportID: pair.PrimaryID, AnalysisID: pair.SecondaryID}
		res.ExportErr = pair.Err
		if pair.Err != nil {
			logger.Error("export failed", "error", pair.Err, "report_id", pair.PrimaryID)
		}
	}

	logger.Info("audit complete",
		"warnings", len(res.Warnings.WrappedErrors()),
		"report_id", res.Documents.ReportID,
		"analysis_id", res.Documents.AnalysisID,
	)
	return res, nil
}

// Domain returns the host of target, falling back to the text before the
// first slash, or "report" when there is nothing to use.
func Domain(target string) string {
	u, err := url.Parse(pagespeed.NormalizeURL(target))
	if err == nil && u.Host != "" {
		return u.Host
	}
	s := strings.TrimSpace(target)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "https://"), "http://")
	if i := strings.Index(s, "/"); i >= 0 {
		s = s[:i]
	}
	if s == "" {
		return "report"
	}
	return s
}
