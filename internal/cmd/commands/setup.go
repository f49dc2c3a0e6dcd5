// Package commands holds the setup shared by siteaudit's commands.
package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"

	"github.com/hashicorp-forge/siteaudit/internal/config"
	"github.com/hashicorp-forge/siteaudit/pkg/audit"
	"github.com/hashicorp-forge/siteaudit/pkg/gdocs"
	"github.com/hashicorp-forge/siteaudit/pkg/gemini"
	"github.com/hashicorp-forge/siteaudit/pkg/pagespeed"
	"github.com/hashicorp-forge/siteaudit/pkg/serper"
)

// ConfigEnv names the config file when -config is not given.
const ConfigEnv = "SITEAUDIT_CONFIG"

// LoadConfig loads the config file at path, or at $SITEAUDIT_CONFIG when
// path is empty, and applies its log level to log.
func LoadConfig(log hclog.Logger, path string) (*config.Config, error) {
	if val, ok := os.LookupEnv(ConfigEnv); ok && path == "" {
		path = val
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	log.SetLevel(hclog.LevelFromString(cfg.LogLevel))
	return cfg, nil
}

// RunnerOptions selects the optional audit steps.
type RunnerOptions struct {
	SERP        bool
	GapAnalysis bool
	Export      bool
	Context     gdocs.ExecutionContext
}

// NewRunner builds an audit runner from cfg. Steps whose API key is not
// configured are left out, and the returned warnings say why.
func NewRunner(log hclog.Logger, cfg *config.Config, opts RunnerOptions) (*audit.Runner, []string, error) {
	ps, err := pagespeed.NewClient(pagespeed.Config{
		APIKey: cfg.PageSpeed.APIKey,
		Logger: log.Named("pagespeed"),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("error creating PageSpeed client (set GOOGLE_PAGESPEED_API_KEY or PAGESPEED_API_KEY): %w", err)
	}

	r := &audit.Runner{
		PageSpeed: ps,
		Logger:    log.Named("audit"),
	}
	var warnings []string

	if opts.SERP {
		if cfg.Serper.APIKey == "" {
			warnings = append(warnings, "SERP data skipped: SERPER_API_KEY is not set")
		} else {
			client, err := serper.NewClient(serper.Config{
				APIKey:     cfg.Serper.APIKey,
				NumResults: cfg.Serper.NumResults,
				Logger:     log.Named("serper"),
			})
			if err != nil {
				return nil, nil, fmt.Errorf("error creating Serper client: %w", err)
			}
			r.Search = client
		}
	}

	if opts.GapAnalysis {
		if cfg.Gemini.APIKey == "" {
			warnings = append(warnings, "gap analysis skipped: GEMINI_API_KEY is not set")
		} else {
			client, err := gemini.NewClient(gemini.Config{
				APIKey: cfg.Gemini.APIKey,
				Model:  cfg.Gemini.Model,
				Logger: log.Named("gemini"),
			})
			if err != nil {
				return nil, nil, fmt.Errorf("error creating Gemini client: %w", err)
			}
			r.Gap = client
		}
	}

	if opts.Export {
		m, err := NewDocsManager(log, cfg, opts.Context)
		if err != nil {
			return nil, nil, err
		}
		r.Export = m
	}

	return r, warnings, nil
}

// NewDocsManager builds the Google Docs manager from cfg.
func NewDocsManager(log hclog.Logger, cfg *config.Config, ctx gdocs.ExecutionContext) (*gdocs.Manager, error) {
	if !cfg.GoogleDocs.Enabled {
		return nil, errors.New("document export is not enabled (set google_docs { enabled = true })")
	}
	logger := log.Named("gdocs")

	auth, err := NewAuthenticator(logger, cfg, ctx)
	if err != nil {
		return nil, err
	}
	return gdocs.NewManager(auth, nil, cfg.GoogleDocs.SessionConfig(logger)), nil
}

// NewAuthenticator builds the Google credential lookup from cfg.
func NewAuthenticator(log hclog.Logger, cfg *config.Config, ctx gdocs.ExecutionContext) (*gdocs.Authenticator, error) {
	ac, err := cfg.GoogleDocs.AuthConfig(ctx, log.Named("auth"))
	if err != nil {
		return nil, fmt.Errorf("error reading Google credentials: %w", err)
	}
	return gdocs.NewAuthenticator(ac), nil
}
