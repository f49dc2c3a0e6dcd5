package audit

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"github.com/mitchellh/cli"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hashicorp-forge/siteaudit/internal/cmd/base"
	"github.com/hashicorp-forge/siteaudit/internal/cmd/commands"
	"github.com/hashicorp-forge/siteaudit/internal/config"
	"github.com/hashicorp-forge/siteaudit/pkg/audit"
	"github.com/hashicorp-forge/siteaudit/pkg/gdocs"
)

type fakeRunner struct {
	opts audit.Options
	res  *audit.Result
	err  error
}

func (f *fakeRunner) Run(ctx context.Context, opts audit.Options) (*audit.Result, error) {
	f.opts = opts
	return f.res, f.err
}

type harness struct {
	cmd    *Command
	ui     *cli.MockUi
	fs     afero.Fs
	runner *fakeRunner
	ropts  commands.RunnerOptions
}

func newHarness(t *testing.T, hcl string, res *audit.Result, err error) *harness {
	t.Helper()
	for _, k := range []string{
		"SITEAUDIT_CONFIG", "SCHEDULED_AUDIT_URL", "SERPER_API_KEY", "GEMINI_API_KEY",
		"GOOGLE_PAGESPEED_API_KEY", "PAGESPEED_API_KEY", "GOOGLE_CREDENTIALS_FILE",
		"GOOGLE_CREDENTIALS_JSON", "GOOGLE_TOKEN_JSON", "GOOGLE_DRIVE_FOLDER_NAME", "SITEAUDIT_LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
	path := filepath.Join(t.TempDir(), "siteaudit.hcl")
	require.NoError(t, os.WriteFile(path, []byte(hcl), 0o644))
	t.Setenv("SITEAUDIT_CONFIG", path)

	h := &harness{
		ui:     cli.NewMockUi(),
		fs:     afero.NewMemMapFs(),
		runner: &fakeRunner{res: res, err: err},
	}
	h.cmd = &Command{
		Command: &base.Command{Log: hclog.NewNullLogger(), UI: h.ui},
		Fs:      h.fs,
		NewRunner: func(cfg *config.Config, opts commands.RunnerOptions) (Runner, []string, error) {
			h.ropts = opts
			return h.runner, nil, nil
		},
	}
	return h
}

func TestCommand_PrintsReport(t *testing.T) {
	h := newHarness(t, `serper { api_key = "s" }`, &audit.Result{
		Domain:      "example.com",
		Report:      "# SEO & Performance Report",
		GapAnalysis: "gap",
	}, nil)

	code := h.cmd.Run([]string{"example.com"})
	assert.Equal(t, 0, code, h.ui.ErrorWriter.String())

	assert.Equal(t, "example.com", h.runner.opts.URL)
	assert.True(t, h.ropts.SERP, "on by default when a key is configured")
	assert.False(t, h.ropts.GapAnalysis, "off by default without a key")
	assert.False(t, h.ropts.Export)
	assert.Contains(t, h.ui.OutputWriter.String(), "# SEO & Performance Report\n\n---\n\n## Gap Analysis (Gemini)\n\ngap")
}

func TestCommand_WritesFilesAndExports(t *testing.T) {
	h := newHarness(t, `
google_docs {
  enabled = true
  token   = "{\"token\":\"t\"}"
}
`, &audit.Result{
		Domain:    "example.com",
		Report:    "# Report",
		Documents: audit.Documents{ReportID: "doc-1", AnalysisID: "doc-2"},
	}, nil)

	code := h.cmd.Run([]string{
		"-url", "https://example.com",
		"-gap-analysis",
		"-serp-query", "brand",
		"-date", "2025-03-01",
		"-non-interactive",
		"-out", "report.md",
		"-html-out", "report.html",
	})
	assert.Equal(t, 0, code, h.ui.ErrorWriter.String())

	assert.True(t, h.ropts.Export)
	assert.True(t, h.ropts.GapAnalysis, "explicit flags win")
	assert.Equal(t, gdocs.NonInteractive, h.ropts.Context)
	assert.Equal(t, "brand", h.runner.opts.SERPQuery)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), h.runner.opts.Date)

	md, err := afero.ReadFile(h.fs, "report.md")
	require.NoError(t, err)
	assert.Equal(t, "# Report", string(md))

	page, err := afero.ReadFile(h.fs, "report.html")
	require.NoError(t, err)
	assert.Contains(t, string(page), "<title>SEO Report - example.com</title>")
	assert.Contains(t, string(page), "<h1>Report</h1>")

	out := h.ui.OutputWriter.String()
	assert.NotContains(t, out, "# Report\n", "the report is not echoed when saved")
	assert.Contains(t, out, "Report: https://docs.google.com/document/d/doc-1/edit")
	assert.Contains(t, out, "Gap analysis: https://docs.google.com/document/d/doc-2/edit")
}

func TestCommand_ScheduledURL(t *testing.T) {
	h := newHarness(t, `scheduled { url = "https://scheduled.example" }`, &audit.Result{Report: "r"}, nil)

	assert.Equal(t, 1, h.cmd.Run(nil), "interactive runs need a URL")
	assert.Contains(t, h.ui.ErrorWriter.String(), "URL is required")

	h.ui.ErrorWriter.Reset()
	assert.Equal(t, 0, h.cmd.Run([]string{"-non-interactive"}), h.ui.ErrorWriter.String())
	assert.Equal(t, "https://scheduled.example", h.runner.opts.URL)
}

func TestCommand_Warnings(t *testing.T) {
	warnings := multierror.Append(nil, &audit.UpstreamError{Step: "SERP", Err: errors.New("403")})
	h := newHarness(t, "", &audit.Result{Report: "r", Warnings: warnings}, nil)

	assert.Equal(t, 0, h.cmd.Run([]string{"example.com"}))
	assert.Contains(t, h.ui.ErrorWriter.String(), "SERP failed: 403")
}

func TestCommand_NoReport(t *testing.T) {
	h := newHarness(t, "", &audit.Result{}, &audit.UpstreamError{Step: "PageSpeed", Err: errors.New("500")})

	assert.Equal(t, 1, h.cmd.Run([]string{"example.com"}))
	assert.Contains(t, h.ui.ErrorWriter.String(), "error running audit: PageSpeed failed: 500")
}

func TestCommand_ExportFailures(t *testing.T) {
	hcl := "google_docs {\n  enabled = true\n  token_file = \"token.json\"\n}"

	t.Run("primary", func(t *testing.T) {
		h := newHarness(t, hcl, &audit.Result{
			Report:    "r",
			ExportErr: &gdocs.Error{Kind: gdocs.ErrNoCredentials},
		}, nil)
		assert.Equal(t, 1, h.cmd.Run([]string{"example.com"}))
		assert.Contains(t, h.ui.ErrorWriter.String(), "error exporting to Google Docs")
	})

	t.Run("secondary", func(t *testing.T) {
		h := newHarness(t, hcl, &audit.Result{
			Report:    "r",
			Documents: audit.Documents{ReportID: "doc-1"},
			ExportErr: &gdocs.Error{Kind: gdocs.ErrPartialSuccess, DocumentID: "doc-1", Err: errors.New("quota")},
		}, nil)
		assert.Equal(t, 0, h.cmd.Run([]string{"example.com"}))
		assert.Contains(t, h.ui.OutputWriter.String(), "Report: https://docs.google.com/document/d/doc-1/edit")
		assert.Contains(t, h.ui.ErrorWriter.String(), "quota")
	})

	t.Run("disabled by flag", func(t *testing.T) {
		h := newHarness(t, hcl, &audit.Result{Report: "r"}, nil)
		assert.Equal(t, 0, h.cmd.Run([]string{"-export=false", "example.com"}))
		assert.False(t, h.ropts.Export)
	})
}

func TestCommand_BadInput(t *testing.T) {
	h := newHarness(t, "", &audit.Result{}, nil)
	assert.Equal(t, 1, h.cmd.Run([]string{"-date", "not a date", "example.com"}))
	assert.Contains(t, h.ui.ErrorWriter.String(), "error parsing date")

	assert.Equal(t, 1, h.cmd.Run([]string{"-bogus"}))
	assert.Contains(t, h.ui.ErrorWriter.String(), "error parsing flags")
}
