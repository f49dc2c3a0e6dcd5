package gdocs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"
	"golang.org/x/oauth2"
)

// ExecutionContext says whether a person is present to complete a browser
// authorization.
type ExecutionContext int

const (
	Interactive ExecutionContext = iota
	NonInteractive
)

func (c ExecutionContext) String() string {
	if c == NonInteractive {
		return "non-interactive"
	}
	return "interactive"
}

// AuthorizationFlow obtains a fresh token with a person's consent.
type AuthorizationFlow interface {
	Run(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error)
}

// AuthConfig configures where credentials are looked up.
type AuthConfig struct {
	// CredentialsFile is a client secrets JSON file. The token file defaults
	// to token_docs.json in the same directory.
	CredentialsFile string

	// CredentialsSecret is client secrets held in memory, as JSON text or as
	// a decoded object. It takes precedence over CredentialsFile.
	CredentialsSecret any

	// TokenSecret is an authorized user held in memory. It is refreshed when
	// needed but never written anywhere.
	TokenSecret any

	// TokenFile overrides the token file location.
	TokenFile string

	Context ExecutionContext

	// Scopes default to Scopes.
	Scopes []string

	// Fs defaults to the OS filesystem.
	Fs afero.Fs

	// Flow defaults to a LoopbackFlow.
	Flow AuthorizationFlow

	Logger hclog.Logger

	// Now defaults to time.Now.
	Now func() time.Time
}

// Authenticator finds, refreshes and persists the credential used for the
// document service.
type Authenticator struct {
	cfg    AuthConfig
	store  *TokenStore
	logger hclog.Logger
}

// NewAuthenticator returns an Authenticator for cfg.
func NewAuthenticator(cfg AuthConfig) *Authenticator {
	if cfg.Logger == nil {
		cfg.Logger = hclog.NewNullLogger()
	}
	if cfg.Fs == nil {
		cfg.Fs = afero.NewOsFs()
	}
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = Scopes
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Flow == nil {
		cfg.Flow = &LoopbackFlow{Logger: cfg.Logger.Named("loopback")}
	}

	tokenPath := cfg.TokenFile
	if tokenPath == "" {
		tokenPath = TokenPathFor(cfg.CredentialsFile)
	}

	return &Authenticator{
		cfg:    cfg,
		store:  NewTokenStore(cfg.Fs, tokenPath),
		logger: cfg.Logger,
	}
}

// TokenStore returns the store credentials are persisted to.
func (a *Authenticator) TokenStore() *TokenStore {
	return a.store
}

// Acquire returns a usable credential. Sources are tried in order: the
// in-memory token secret, the token file, then an interactive authorization
// when the execution context allows it.
func (a *Authenticator) Acquire(ctx context.Context) (*Credential, error) {
	var result *multierror.Error

	client, err := a.clientIdentity()
	if err != nil {
		result = multierror.Append(result, err)
	}

	if a.cfg.TokenSecret != nil {
		cred, err := a.fromSecret(ctx, client)
		if err == nil {
			return cred, nil
		}
		a.logger.Warn("token secret unusable", "error", err)
		result = multierror.Append(result, fmt.Errorf("token secret: %w", err))
	}

	cred, err := a.fromTokenFile(ctx, client)
	switch {
	case err == nil:
		return cred, nil
	case errors.Is(err, afero.ErrFileNotFound):
		a.logger.Debug("no token file", "path", a.store.Path())
	default:
		a.logger.Warn("token file unusable", "path", a.store.Path(), "error", err)
		result = multierror.Append(result, fmt.Errorf("token file: %w", err))
	}

	if a.cfg.Context != Interactive {
		result = multierror.Append(result, errors.New("interactive authorization unavailable in a non-interactive context"))
		return nil, newError(ErrNoCredentials, "", result.ErrorOrNil())
	}
	if client == nil {
		result = multierror.Append(result, errors.New("no client secrets configured"))
		return nil, newError(ErrNoCredentials, "", result.ErrorOrNil())
	}

	cred, err = a.Authorize(ctx, client)
	if err != nil {
		result = multierror.Append(result, err)
		return nil, newError(ErrNoCredentials, "", result.ErrorOrNil())
	}
	return cred, nil
}

// Login runs the interactive flow with the configured client identity and
// persists the result, replacing any stored credential. It ignores the
// execution context.
func (a *Authenticator) Login(ctx context.Context) (*Credential, error) {
	client, err := a.clientIdentity()
	if err != nil {
		return nil, newError(ErrNoCredentials, "", err)
	}
	if client == nil {
		return nil, newError(ErrNoCredentials, "", errors.New("no client secrets configured"))
	}
	cred, err := a.Authorize(ctx, client)
	if err != nil {
		return nil, newError(ErrNoCredentials, "", err)
	}
	return cred, nil
}

// Authorize runs the interactive flow for client and persists the result.
func (a *Authenticator) Authorize(ctx context.Context, client *ClientIdentity) (*Credential, error) {
	tok, err := a.cfg.Flow.Run(ctx, client.OAuthConfig(a.cfg.Scopes))
	if err != nil {
		return nil, fmt.Errorf("interactive authorization failed: %w", err)
	}

	cred := &Credential{
		Token:  tok,
		Client: *client,
		Scopes: a.cfg.Scopes,
		Source: SourceInteractive,
		state:  StateValid,
	}
	a.persist(cred)
	return cred, nil
}

// EnsureFresh refreshes cred in place when its access token has expired.
// A refreshed credential from the token file is written back.
func (a *Authenticator) EnsureFresh(ctx context.Context, cred *Credential) error {
	if cred == nil {
		return newError(ErrNoCredentials, "", nil)
	}

	if !cred.Expired(a.cfg.Now()) {
		cred.state = StateValid
		return nil
	}

	cred.state = StateExpired
	if !cred.CanRefresh() {
		cred.state = StateInvalid
		return newError(ErrRefreshFailed, "", errors.New("credential expired and cannot be refreshed"))
	}

	src := cred.Client.OAuthConfig(cred.Scopes).TokenSource(ctx, &oauth2.Token{
		RefreshToken: cred.Token.RefreshToken,
	})
	tok, err := src.Token()
	if err != nil {
		cred.state = StateInvalid
		return newError(ErrRefreshFailed, "", err)
	}
	if tok.RefreshToken == "" {
		tok.RefreshToken = cred.Token.RefreshToken
	}

	cred.Token = tok
	cred.state = StateRefreshed
	a.logger.Debug("refreshed credential", "source", cred.Source, "expiry", tok.Expiry)

	if cred.Source != SourceSecret {
		a.persist(cred)
	}
	return nil
}

func (a *Authenticator) fromSecret(ctx context.Context, client *ClientIdentity) (*Credential, error) {
	u, err := ParseAuthorizedUser(a.cfg.TokenSecret)
	if err != nil {
		return nil, err
	}
	cred, err := a.load(u, client, SourceSecret)
	if err != nil {
		return nil, err
	}
	if err := a.EnsureFresh(ctx, cred); err != nil {
		return nil, err
	}
	return cred, nil
}

func (a *Authenticator) fromTokenFile(ctx context.Context, client *ClientIdentity) (*Credential, error) {
	u, err := a.store.Load()
	if err != nil {
		return nil, err
	}
	cred, err := a.load(u, client, SourceTokenFile)
	if err != nil {
		return nil, err
	}
	if err := a.EnsureFresh(ctx, cred); err != nil {
		return nil, err
	}
	return cred, nil
}

// load builds a credential from its persisted form. Older token files may
// omit the client identity, which then comes from the client secrets.
func (a *Authenticator) load(u *AuthorizedUser, client *ClientIdentity, source Source) (*Credential, error) {
	cred, err := credentialFromAuthorizedUser(u, a.cfg.Scopes, source)
	if err != nil {
		return nil, err
	}
	if client != nil {
		if cred.Client.ClientID == "" {
			cred.Client.ClientID = client.ClientID
			cred.Client.ClientSecret = client.ClientSecret
		}
		if cred.Client.TokenURI == "" {
			cred.Client.TokenURI = client.TokenURI
		}
		cred.Client.AuthURI = client.AuthURI
	}
	return cred, nil
}

// clientIdentity returns the configured client, or nil when none is
// configured.
func (a *Authenticator) clientIdentity() (*ClientIdentity, error) {
	if a.cfg.CredentialsSecret != nil {
		id, err := ParseClientSecrets(a.cfg.CredentialsSecret)
		if err != nil {
			return nil, fmt.Errorf("client secrets: %w", err)
		}
		return id, nil
	}
	if a.cfg.CredentialsFile == "" {
		return nil, nil
	}

	data, err := afero.ReadFile(a.cfg.Fs, a.cfg.CredentialsFile)
	if err != nil {
		if errors.Is(err, afero.ErrFileNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("error reading client secrets file: %w", err)
	}
	id, err := ParseClientSecrets(data)
	if err != nil {
		return nil, fmt.Errorf("client secrets file %s: %w", a.cfg.CredentialsFile, err)
	}
	return id, nil
}

func (a *Authenticator) persist(cred *Credential) {
	if err := a.store.Save(cred.AuthorizedUser()); err != nil {
		a.logger.Warn("error persisting credential", "path", a.store.Path(), "error", err)
		return
	}
	a.logger.Debug("persisted credential", "path", a.store.Path())
}
