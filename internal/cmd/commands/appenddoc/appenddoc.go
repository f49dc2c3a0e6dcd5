package appenddoc

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/spf13/afero"

	"github.com/hashicorp-forge/siteaudit/internal/cmd/base"
	"github.com/hashicorp-forge/siteaudit/internal/cmd/commands"
	"github.com/hashicorp-forge/siteaudit/internal/config"
	"github.com/hashicorp-forge/siteaudit/pkg/gdocs"
)

// Appender appends Markdown to an existing document.
type Appender interface {
	AppendToDocument(ctx context.Context, idOrURL, md string) error
}

type Command struct {
	*base.Command

	// Fs is where the Markdown file is read from. Defaults to the OS
	// filesystem.
	Fs afero.Fs

	// NewAppender defaults to a gdocs.Manager built from the config.
	NewAppender func(cfg *config.Config, ctx gdocs.ExecutionContext) (Appender, error)

	flagConfig         string
	flagNonInteractive bool
}

func (c *Command) Synopsis() string {
	return "Append a Markdown report to an existing Google Doc"
}

func (c *Command) Help() string {
	return `Usage: siteaudit append [options] <document-id-or-url> <file.md>

  Append the contents of a Markdown file, such as a report saved with
  "siteaudit audit -out", to the end of an existing Google Doc. The text is
  added as plain text after a horizontal rule.` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("append", flag.ContinueOnError))

	f.StringVar(
		&c.flagConfig, "config", "",
		"[SITEAUDIT_CONFIG] Path to the siteaudit config file",
	)
	f.BoolVar(
		&c.flagNonInteractive, "non-interactive", false,
		"Never open a browser to authorize Google access",
	)

	return f
}

func (c *Command) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	if f.NArg() != 2 {
		c.UI.Error("expected a document ID or URL and a Markdown file")
		return 1
	}
	target, path := f.Arg(0), f.Arg(1)

	id, err := gdocs.ParseDocumentID(target)
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}

	fs := c.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	md, err := afero.ReadFile(fs, path)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error reading Markdown file: %v", err))
		return 1
	}
	if strings.TrimSpace(string(md)) == "" {
		c.UI.Error(fmt.Sprintf("%s is empty", path))
		return 1
	}

	cfg, err := commands.LoadConfig(c.Log, c.flagConfig)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error parsing config: %v", err))
		return 1
	}

	execCtx := gdocs.Interactive
	if c.flagNonInteractive {
		execCtx = gdocs.NonInteractive
	}
	newAppender := c.NewAppender
	if newAppender == nil {
		newAppender = func(cfg *config.Config, ctx gdocs.ExecutionContext) (Appender, error) {
			return commands.NewDocsManager(c.Log, cfg, ctx)
		}
	}
	appender, err := newAppender(cfg, execCtx)
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}

	ctx, cancel := c.SignalContext()
	defer cancel()

	if err := appender.AppendToDocument(ctx, id, string(md)); err != nil {
		if errors.Is(err, gdocs.ErrNoCredentials) {
			c.UI.Error(`no usable Google credentials; run "siteaudit auth" first`)
		}
		c.UI.Error(fmt.Sprintf("error appending to document: %v", err))
		return 1
	}

	c.UI.Info(fmt.Sprintf("Appended %s to %s", path, gdocs.DocumentURL(id)))
	return 0
}
