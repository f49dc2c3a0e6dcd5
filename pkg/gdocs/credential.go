package gdocs

import (
	"context"
	"time"

	"golang.org/x/oauth2"
)

// expiryDelta treats tokens about to expire as expired, matching oauth2.
const expiryDelta = 10 * time.Second

// State is where a credential is in its lifecycle.
type State int

const (
	StateAbsent State = iota
	StateLoaded
	StateValid
	StateExpired
	StateRefreshed
	StateInvalid
)

func (s State) String() string {
	switch s {
	case StateLoaded:
		return "loaded"
	case StateValid:
		return "valid"
	case StateExpired:
		return "expired"
	case StateRefreshed:
		return "refreshed"
	case StateInvalid:
		return "invalid"
	default:
		return "absent"
	}
}

// Source says where a credential came from.
type Source string

const (
	SourceSecret      Source = "secret"
	SourceTokenFile   Source = "token-file"
	SourceInteractive Source = "interactive"
)

// Credential authorizes calls to the Docs and Drive APIs.
type Credential struct {
	Token  *oauth2.Token
	Client ClientIdentity
	Scopes []string
	Source Source

	state State
}

// State returns the last lifecycle state recorded for c.
func (c *Credential) State() State {
	if c == nil {
		return StateAbsent
	}
	return c.state
}

// Usable reports whether c can authorize requests as-is.
func (c *Credential) Usable() bool {
	s := c.State()
	return s == StateValid || s == StateRefreshed
}

// Expired reports whether the access token is missing or past its expiry
// at now.
func (c *Credential) Expired(now time.Time) bool {
	if c == nil || c.Token == nil || c.Token.AccessToken == "" {
		return true
	}
	if c.Token.Expiry.IsZero() {
		return false
	}
	return c.Token.Expiry.Round(0).Add(-expiryDelta).Before(now)
}

// CanRefresh reports whether c carries what a refresh needs.
func (c *Credential) CanRefresh() bool {
	return c != nil && c.Token != nil && c.Token.RefreshToken != "" &&
		c.Client.ClientID != "" && c.Client.ClientSecret != ""
}

// TokenSource returns a source that refreshes the token as it expires.
func (c *Credential) TokenSource(ctx context.Context) oauth2.TokenSource {
	return c.Client.OAuthConfig(c.Scopes).TokenSource(ctx, c.Token)
}

// AuthorizedUser returns the persistable form of c.
func (c *Credential) AuthorizedUser() *AuthorizedUser {
	u := &AuthorizedUser{
		Type:         "authorized_user",
		TokenURI:     c.Client.OAuthConfig(nil).Endpoint.TokenURL,
		ClientID:     c.Client.ClientID,
		ClientSecret: c.Client.ClientSecret,
		Scopes:       c.Scopes,
	}
	if c.Token != nil {
		u.Token = c.Token.AccessToken
		u.RefreshToken = c.Token.RefreshToken
		if !c.Token.Expiry.IsZero() {
			u.Expiry = c.Token.Expiry.UTC().Format(time.RFC3339Nano)
		}
	}
	return u
}

// credentialFromAuthorizedUser builds a loaded credential from its persisted
// form.
func credentialFromAuthorizedUser(u *AuthorizedUser, scopes []string, source Source) (*Credential, error) {
	expiry, err := u.ExpiryTime()
	if err != nil {
		return nil, err
	}
	if len(u.Scopes) > 0 {
		scopes = u.Scopes
	}
	return &Credential{
		Token: &oauth2.Token{
			AccessToken:  u.Token,
			RefreshToken: u.RefreshToken,
			TokenType:    "Bearer",
			Expiry:       expiry,
		},
		Client: ClientIdentity{
			ClientID:     u.ClientID,
			ClientSecret: u.ClientSecret,
			TokenURI:     u.TokenURI,
		},
		Scopes: scopes,
		Source: source,
		state:  StateLoaded,
	}, nil
}
