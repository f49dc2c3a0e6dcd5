package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/spf13/afero"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"

	"github.com/hashicorp-forge/siteaudit/pkg/gdocs"
)

// Config is the siteaudit configuration. Every value may also come from the
// environment, which takes precedence over the file.
//
// Example configuration file format:
//
//	log_level = "info"
//
//	pagespeed {
//	  api_key = "AIza..."
//	}
//
//	serper {
//	  api_key     = "..."
//	  num_results = 10
//	}
//
//	gemini {
//	  api_key = "AIza..."
//	  model   = "gemini-2.5-flash"
//	}
//
//	google_docs {
//	  enabled          = true
//	  credentials_file = "credentials.json"
//	  folder_name      = "SEO Health Checker"
//	}
//
//	scheduled {
//	  url = "https://example.com"
//	}
type Config struct {
	// LogLevel is one of trace, debug, info, warn, error or off.
	LogLevel string `hcl:"log_level,optional"`

	PageSpeed  *PageSpeed  `hcl:"pagespeed,block"`
	Serper     *Serper     `hcl:"serper,block"`
	Gemini     *Gemini     `hcl:"gemini,block"`
	GoogleDocs *GoogleDocs `hcl:"google_docs,block"`
	Scheduled  *Scheduled  `hcl:"scheduled,block"`
}

// PageSpeed configures the PageSpeed Insights client.
type PageSpeed struct {
	APIKey string `hcl:"api_key,optional"`
}

// Serper configures the search client.
type Serper struct {
	APIKey     string `hcl:"api_key,optional"`
	NumResults int    `hcl:"num_results,optional"`
}

// Gemini configures the gap analysis client.
type Gemini struct {
	APIKey string `hcl:"api_key,optional"`
	Model  string `hcl:"model,optional"`
}

// GoogleDocs configures document export.
type GoogleDocs struct {
	// Enabled turns document export on. It is checked once at startup.
	Enabled bool `hcl:"enabled,optional"`

	// CredentialsFile is an OAuth client secrets file.
	CredentialsFile string `hcl:"credentials_file,optional"`

	// Credentials and Token are secrets held in the configuration itself,
	// either as a JSON string or as an object.
	Credentials cty.Value `hcl:"credentials,optional"`
	Token       cty.Value `hcl:"token,optional"`

	// TokenFile defaults to token_docs.json beside CredentialsFile.
	TokenFile string `hcl:"token_file,optional"`

	// FolderName is the Drive folder documents are filed into.
	FolderName string `hcl:"folder_name,optional"`

	// KeepOnStyleFailure keeps the id of a document whose content could not
	// be written.
	KeepOnStyleFailure bool `hcl:"keep_on_style_failure,optional"`

	// credentialsSecret and tokenSecret are set from the environment.
	credentialsSecret string
	tokenSecret       string
}

// Scheduled configures non-interactive runs.
type Scheduled struct {
	URL string `hcl:"url,optional"`
}

// LookupFunc looks up an environment variable.
type LookupFunc func(key string) (string, bool)

// Load reads the configuration file at path, which may be empty, and applies
// the process environment.
func Load(path string) (*Config, error) {
	return LoadFS(afero.NewOsFs(), path, os.LookupEnv)
}

// LoadFS reads the configuration file at path from fs and applies the
// environment from lookup. An empty path yields the defaults.
func LoadFS(fs afero.Fs, path string, lookup LookupFunc) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		src, err := afero.ReadFile(fs, path)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := hclsimple.Decode(path, src, nil, cfg); err != nil {
			return nil, fmt.Errorf("error decoding config file: %w", err)
		}
	}

	cfg.init()
	if lookup != nil {
		cfg.applyEnv(lookup)
	}
	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) init() {
	if c.PageSpeed == nil {
		c.PageSpeed = &PageSpeed{}
	}
	if c.Serper == nil {
		c.Serper = &Serper{}
	}
	if c.Gemini == nil {
		c.Gemini = &Gemini{}
	}
	if c.GoogleDocs == nil {
		c.GoogleDocs = &GoogleDocs{}
	}
	if c.Scheduled == nil {
		c.Scheduled = &Scheduled{}
	}
}

// applyEnv overrides file values with the environment. The first variable
// set in each list wins.
func (c *Config) applyEnv(lookup LookupFunc) {
	env := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v, ok := lookup(k); ok && strings.TrimSpace(v) != "" {
				*dst = strings.TrimSpace(v)
				return
			}
		}
	}

	env(&c.LogLevel, "SITEAUDIT_LOG_LEVEL")
	env(&c.PageSpeed.APIKey, "GOOGLE_PAGESPEED_API_KEY", "PAGESPEED_API_KEY")
	env(&c.Serper.APIKey, "SERPER_API_KEY")
	env(&c.Gemini.APIKey, "GEMINI_API_KEY")
	env(&c.GoogleDocs.CredentialsFile, "GOOGLE_CREDENTIALS_FILE")
	env(&c.GoogleDocs.credentialsSecret, "GOOGLE_CREDENTIALS_JSON")
	env(&c.GoogleDocs.tokenSecret, "GOOGLE_TOKEN_JSON")
	env(&c.GoogleDocs.FolderName, "GOOGLE_DRIVE_FOLDER_NAME")
	env(&c.Scheduled.URL, "SCHEDULED_AUDIT_URL")
}

func (c *Config) setDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.GoogleDocs.FolderName == "" {
		c.GoogleDocs.FolderName = gdocs.DefaultFolderName
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.LogLevel, validation.By(validLogLevel)),
	); err != nil {
		return err
	}
	if err := validation.ValidateStruct(c.Serper,
		validation.Field(&c.Serper.NumResults, validation.Min(0), validation.Max(100)),
	); err != nil {
		return fmt.Errorf("serper: %w", err)
	}
	if err := c.GoogleDocs.Validate(); err != nil {
		return fmt.Errorf("google_docs: %w", err)
	}
	return nil
}

func validLogLevel(v any) error {
	s, _ := v.(string)
	if hclog.LevelFromString(s) == hclog.NoLevel {
		return fmt.Errorf("unknown log level %q", s)
	}
	return nil
}

// Validate checks that an enabled export has somewhere to find credentials.
func (g *GoogleDocs) Validate() error {
	if !g.Enabled {
		return nil
	}
	if g.CredentialsFile == "" && g.TokenFile == "" && !g.hasSecret() {
		return fmt.Errorf("enabled without credentials_file, credentials, token or token_file")
	}
	for name, v := range map[string]cty.Value{"credentials": g.Credentials, "token": g.Token} {
		if _, err := secretValue(v); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

func (g *GoogleDocs) hasSecret() bool {
	return g.credentialsSecret != "" || g.tokenSecret != "" ||
		!isNull(g.Credentials) || !isNull(g.Token)
}

// AuthConfig returns the credential lookup settings for ctx. Secrets from
// the environment take precedence over secrets in the file.
func (g *GoogleDocs) AuthConfig(ctx gdocs.ExecutionContext, logger hclog.Logger) (gdocs.AuthConfig, error) {
	creds, err := g.secret(g.credentialsSecret, g.Credentials)
	if err != nil {
		return gdocs.AuthConfig{}, fmt.Errorf("credentials: %w", err)
	}
	token, err := g.secret(g.tokenSecret, g.Token)
	if err != nil {
		return gdocs.AuthConfig{}, fmt.Errorf("token: %w", err)
	}
	return gdocs.AuthConfig{
		CredentialsFile:   g.CredentialsFile,
		CredentialsSecret: creds,
		TokenSecret:       token,
		TokenFile:         g.TokenFile,
		Context:           ctx,
		Logger:            logger,
	}, nil
}

// SessionConfig returns the document session settings.
func (g *GoogleDocs) SessionConfig(logger hclog.Logger) gdocs.SessionConfig {
	policy := gdocs.DiscardDocumentID
	if g.KeepOnStyleFailure {
		policy = gdocs.KeepDocumentID
	}
	return gdocs.SessionConfig{
		FolderName:         g.FolderName,
		StyleFailurePolicy: policy,
		Logger:             logger,
	}
}

func (g *GoogleDocs) secret(env string, v cty.Value) (any, error) {
	if env != "" {
		return env, nil
	}
	return secretValue(v)
}

// secretValue converts an HCL secret into a form gdocs.NormalizeSecret
// accepts. Strings pass through and objects become JSON.
func secretValue(v cty.Value) (any, error) {
	if isNull(v) {
		return nil, nil
	}
	if !v.IsWhollyKnown() {
		return nil, fmt.Errorf("value is not known")
	}
	if v.Type() == cty.String {
		return v.AsString(), nil
	}
	if !v.Type().IsObjectType() && !v.Type().IsMapType() {
		return nil, fmt.Errorf("must be a string or an object, got %s", v.Type().FriendlyName())
	}
	b, err := ctyjson.Marshal(v, v.Type())
	if err != nil {
		return nil, fmt.Errorf("error encoding value: %w", err)
	}
	return json.RawMessage(b), nil
}

// isNull also covers the zero Value left by an absent optional attribute.
func isNull(v cty.Value) bool {
	return v.IsNull()
}
