package auth

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/hashicorp-forge/siteaudit/internal/cmd/base"
	"github.com/hashicorp-forge/siteaudit/internal/cmd/commands"
	"github.com/hashicorp-forge/siteaudit/internal/config"
	"github.com/hashicorp-forge/siteaudit/pkg/gdocs"
)

// Authenticator is the part of gdocs.Authenticator this command uses.
type Authenticator interface {
	Acquire(ctx context.Context) (*gdocs.Credential, error)
	Login(ctx context.Context) (*gdocs.Credential, error)
	TokenStore() *gdocs.TokenStore
}

type Command struct {
	*base.Command

	// NewAuthenticator defaults to commands.NewAuthenticator.
	NewAuthenticator func(cfg *config.Config, ctx gdocs.ExecutionContext) (Authenticator, error)

	flagConfig  string
	flagCheck   bool
	flagTimeout time.Duration
}

func (c *Command) Synopsis() string {
	return "Authorize access to Google Docs"
}

func (c *Command) Help() string {
	return `Usage: siteaudit auth [options]

  Open a browser to authorize siteaudit to create Google Docs and save the
  resulting token file, so later runs, including scheduled ones started
  with -non-interactive, can export without asking again.

  With -check, only report whether a usable credential exists. An expired
  token is refreshed and saved as part of the check.` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("auth", flag.ContinueOnError))

	f.StringVar(
		&c.flagConfig, "config", "",
		"[SITEAUDIT_CONFIG] Path to the siteaudit config file",
	)
	f.BoolVar(
		&c.flagCheck, "check", false,
		"Check the stored credential without opening a browser",
	)
	f.DurationVar(
		&c.flagTimeout, "timeout", 5*time.Minute,
		"How long to wait for authorization in the browser",
	)

	return f
}

func (c *Command) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	cfg, err := commands.LoadConfig(c.Log, c.flagConfig)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error parsing config: %v", err))
		return 1
	}

	execCtx := gdocs.Interactive
	if c.flagCheck {
		execCtx = gdocs.NonInteractive
	}
	newAuth := c.NewAuthenticator
	if newAuth == nil {
		newAuth = func(cfg *config.Config, ctx gdocs.ExecutionContext) (Authenticator, error) {
			return commands.NewAuthenticator(c.Log, cfg, ctx)
		}
	}
	auth, err := newAuth(cfg, execCtx)
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}

	ctx, cancel := c.SignalContext()
	defer cancel()

	if c.flagCheck {
		cred, err := auth.Acquire(ctx)
		if err != nil {
			c.UI.Error(fmt.Sprintf("no usable credential: %v", err))
			return 1
		}
		c.UI.Info(fmt.Sprintf("Credential %s (source: %s)", cred.State(), cred.Source))
		return 0
	}

	ctx, cancelTimeout := context.WithTimeout(ctx, c.flagTimeout)
	defer cancelTimeout()

	c.UI.Info("Opening a browser to authorize Google Docs access...")
	if _, err := auth.Login(ctx); err != nil {
		c.UI.Error(fmt.Sprintf("error authorizing: %v", err))
		return 1
	}
	store := auth.TokenStore()
	if !store.Exists() {
		c.UI.Warn(fmt.Sprintf("Authorized, but the token could not be saved to %s", store.Path()))
		return 1
	}
	c.UI.Info(fmt.Sprintf("Authorized. Token saved to %s", store.Path()))
	return 0
}
