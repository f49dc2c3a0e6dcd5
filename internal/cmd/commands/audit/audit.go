package audit

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/spf13/afero"

	"github.com/hashicorp-forge/siteaudit/internal/cmd/base"
	"github.com/hashicorp-forge/siteaudit/internal/cmd/commands"
	"github.com/hashicorp-forge/siteaudit/internal/config"
	"github.com/hashicorp-forge/siteaudit/pkg/audit"
	"github.com/hashicorp-forge/siteaudit/pkg/gdocs"
	"github.com/hashicorp-forge/siteaudit/pkg/markdown"
)

// Runner runs one audit.
type Runner interface {
	Run(ctx context.Context, opts audit.Options) (*audit.Result, error)
}

type Command struct {
	*base.Command

	// Fs is where reports are written. Defaults to the OS filesystem.
	Fs afero.Fs

	// NewRunner defaults to commands.NewRunner.
	NewRunner func(cfg *config.Config, opts commands.RunnerOptions) (Runner, []string, error)

	flagConfig         string
	flagURL            string
	flagSERP           bool
	flagSERPQuery      string
	flagGapAnalysis    bool
	flagExport         bool
	flagNonInteractive bool
	flagDate           string
	flagOut            string
	flagHTMLOut        string
}

func (c *Command) Synopsis() string {
	return "Audit a site and export the report"
}

func (c *Command) Help() string {
	return `Usage: siteaudit audit [options] [url]

  Run PageSpeed Insights for mobile and desktop, add search results and a
  Gemini gap analysis when their API keys are set, and build a Markdown
  report. With document export enabled the report and the analysis are
  saved as two Google Docs.

  A step that fails is reported and skipped. The command fails only when
  no PageSpeed result could be fetched or the report document could not
  be created.

  Scheduled runs use -non-interactive so no browser is ever opened; run
  "siteaudit auth" once beforehand so a token file exists.` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("audit", flag.ContinueOnError))

	f.StringVar(
		&c.flagConfig, "config", "",
		"[SITEAUDIT_CONFIG] Path to the siteaudit config file",
	)
	f.StringVar(
		&c.flagURL, "url", "",
		"[SCHEDULED_AUDIT_URL] URL to audit. The environment is only used with -non-interactive",
	)
	f.BoolVar(
		&c.flagSERP, "serp", true,
		"Include search results. Skipped without a Serper API key unless set explicitly",
	)
	f.StringVar(
		&c.flagSERPQuery, "serp-query", "",
		"Search query for SERP data. Defaults to the site's domain",
	)
	f.BoolVar(
		&c.flagGapAnalysis, "gap-analysis", true,
		"Include a Gemini gap analysis. Skipped without a Gemini API key unless set explicitly",
	)
	f.BoolVar(
		&c.flagExport, "export", true,
		"Save the report to Google Docs when document export is enabled",
	)
	f.BoolVar(
		&c.flagNonInteractive, "non-interactive", false,
		"Never open a browser to authorize Google access",
	)
	f.StringVar(
		&c.flagDate, "date", "",
		"Date used in document titles, in any common format. Defaults to today",
	)
	f.StringVar(
		&c.flagOut, "out", "",
		"Write the full report as Markdown to this file",
	)
	f.StringVar(
		&c.flagHTMLOut, "html-out", "",
		"Write an HTML preview of the full report to this file",
	)

	return f
}

func (c *Command) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	set := map[string]bool{}
	f.Visit(func(fl *flag.Flag) { set[fl.Name] = true })

	cfg, err := commands.LoadConfig(c.Log, c.flagConfig)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error parsing config: %v", err))
		return 1
	}

	url := c.flagURL
	if url == "" && f.NArg() > 0 {
		url = f.Arg(0)
	}
	if url == "" && c.flagNonInteractive {
		url = cfg.Scheduled.URL
	}
	if strings.TrimSpace(url) == "" {
		c.UI.Error("URL is required (-url, an argument, or SCHEDULED_AUDIT_URL with -non-interactive)")
		return 1
	}

	var date time.Time
	if c.flagDate != "" {
		if date, err = dateparse.ParseAny(c.flagDate); err != nil {
			c.UI.Error(fmt.Sprintf("error parsing date: %v", err))
			return 1
		}
	}

	execCtx := gdocs.Interactive
	if c.flagNonInteractive {
		execCtx = gdocs.NonInteractive
	}
	ropts := commands.RunnerOptions{
		SERP:        c.flagSERP && (set["serp"] || cfg.Serper.APIKey != ""),
		GapAnalysis: c.flagGapAnalysis && (set["gap-analysis"] || cfg.Gemini.APIKey != ""),
		Export:      c.flagExport && cfg.GoogleDocs.Enabled,
		Context:     execCtx,
	}

	newRunner := c.NewRunner
	if newRunner == nil {
		newRunner = func(cfg *config.Config, opts commands.RunnerOptions) (Runner, []string, error) {
			return commands.NewRunner(c.Log, cfg, opts)
		}
	}
	runner, warnings, err := newRunner(cfg, ropts)
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	for _, w := range warnings {
		c.UI.Warn(w)
	}

	ctx, cancel := c.SignalContext()
	defer cancel()

	c.UI.Info(fmt.Sprintf("Auditing %s...", url))
	res, err := runner.Run(ctx, audit.Options{
		URL:         url,
		SERP:        ropts.SERP,
		SERPQuery:   c.flagSERPQuery,
		GapAnalysis: ropts.GapAnalysis,
		Export:      ropts.Export,
		Date:        date,
	})
	if res != nil && res.Warnings != nil {
		for _, w := range res.Warnings.Errors {
			c.UI.Warn(w.Error())
		}
	}
	if err != nil {
		c.UI.Error(fmt.Sprintf("error running audit: %v", err))
		return 1
	}

	if code := c.writeOutputs(res); code != 0 {
		return code
	}
	if c.flagOut == "" && c.flagHTMLOut == "" && !ropts.Export {
		c.UI.Output(res.FullReport())
	}

	if !ropts.Export {
		return 0
	}
	if res.Documents.ReportID != "" {
		c.UI.Info(fmt.Sprintf("Report: %s", gdocs.DocumentURL(res.Documents.ReportID)))
	}
	if res.Documents.AnalysisID != "" {
		c.UI.Info(fmt.Sprintf("Gap analysis: %s", gdocs.DocumentURL(res.Documents.AnalysisID)))
	}
	if res.ExportErr != nil {
		c.UI.Error(fmt.Sprintf("error exporting to Google Docs: %v", res.ExportErr))
	}
	if res.Documents.ReportID == "" {
		return 1
	}
	return 0
}

func (c *Command) writeOutputs(res *audit.Result) int {
	fs := c.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	full := res.FullReport()

	if c.flagOut != "" {
		if err := afero.WriteFile(fs, c.flagOut, []byte(full), 0o644); err != nil {
			c.UI.Error(fmt.Sprintf("error writing report: %v", err))
			return 1
		}
		c.UI.Info(fmt.Sprintf("Report written to %s", c.flagOut))
	}

	if c.flagHTMLOut != "" {
		body, err := markdown.RenderHTML(full)
		if err != nil {
			c.UI.Error(fmt.Sprintf("error rendering HTML preview: %v", err))
			return 1
		}
		page := markdown.PreviewPage(fmt.Sprintf("%s - %s", audit.ReportKind, res.Domain), body)
		if err := afero.WriteFile(fs, c.flagHTMLOut, []byte(page), 0o644); err != nil {
			c.UI.Error(fmt.Sprintf("error writing HTML preview: %v", err))
			return 1
		}
		c.UI.Info(fmt.Sprintf("HTML preview written to %s", c.flagHTMLOut))
	}
	return 0
}
