package gdocs

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/mitchellh/mapstructure"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Scopes are the OAuth scopes needed to create documents and file them into
// a Drive folder.
var Scopes = []string{
	"https://www.googleapis.com/auth/documents",
	"https://www.googleapis.com/auth/drive.file",
}

var errEmptySecret = errors.New("secret is empty")

// ClientIdentity is the OAuth client an installed or web application
// authorizes as. It is the "installed"/"web" object of a client secrets file.
type ClientIdentity struct {
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	ProjectID    string   `json:"project_id,omitempty"`
	AuthURI      string   `json:"auth_uri,omitempty"`
	TokenURI     string   `json:"token_uri,omitempty"`
	RedirectURIs []string `json:"redirect_uris,omitempty"`
}

// Validate checks that the identity can be used for a token exchange.
func (c ClientIdentity) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.ClientID, validation.Required),
		validation.Field(&c.ClientSecret, validation.Required),
	)
}

// OAuthConfig returns the oauth2 configuration for this client. Missing
// endpoints default to Google's.
func (c ClientIdentity) OAuthConfig(scopes []string) *oauth2.Config {
	endpoint := google.Endpoint
	if c.AuthURI != "" {
		endpoint.AuthURL = c.AuthURI
	}
	if c.TokenURI != "" {
		endpoint.TokenURL = c.TokenURI
	}
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Endpoint:     endpoint,
		Scopes:       scopes,
	}
}

type clientSecrets struct {
	Installed *ClientIdentity `json:"installed"`
	Web       *ClientIdentity `json:"web"`
}

// AuthorizedUser is the persisted form of a credential: an access token, the
// refresh token, and the client identity needed to refresh it.
type AuthorizedUser struct {
	Type         string   `json:"type,omitempty"`
	Token        string   `json:"token"`
	RefreshToken string   `json:"refresh_token"`
	TokenURI     string   `json:"token_uri"`
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	Scopes       []string `json:"scopes,omitempty"`
	Expiry       string   `json:"expiry,omitempty"`
}

// Complete reports whether u holds enough to be worth persisting.
func (u *AuthorizedUser) Complete() bool {
	return u != nil && u.Token != "" && u.ClientID != "" && u.ClientSecret != ""
}

// ExpiryTime parses the expiry timestamp. Timestamps without a zone are UTC,
// which is how other OAuth tooling writes them.
func (u *AuthorizedUser) ExpiryTime() (time.Time, error) {
	if u.Expiry == "" {
		return time.Time{}, nil
	}
	t, err := dateparse.ParseIn(u.Expiry, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid token expiry %q: %w", u.Expiry, err)
	}
	return t.UTC(), nil
}

// NormalizeSecret converts a secret given either as JSON text or as an
// already decoded object into one canonical map. All secret parsing goes
// through it.
func NormalizeSecret(v any) (map[string]any, error) {
	var raw []byte
	switch s := v.(type) {
	case nil:
		return nil, errEmptySecret
	case map[string]any:
		if len(s) == 0 {
			return nil, errEmptySecret
		}
		return s, nil
	case map[string]string:
		if len(s) == 0 {
			return nil, errEmptySecret
		}
		m := make(map[string]any, len(s))
		for k, val := range s {
			m[k] = val
		}
		return m, nil
	case string:
		raw = []byte(s)
	case []byte:
		raw = s
	case json.RawMessage:
		raw = s
	default:
		return nil, fmt.Errorf("unsupported secret type %T", v)
	}

	if strings.TrimSpace(string(raw)) == "" {
		return nil, errEmptySecret
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("secret is not a JSON object: %w", err)
	}
	return m, nil
}

// ParseClientSecrets reads a client identity from a client secrets document
// (with an "installed" or "web" wrapper) or from a bare identity object.
func ParseClientSecrets(v any) (*ClientIdentity, error) {
	m, err := NormalizeSecret(v)
	if err != nil {
		return nil, err
	}

	var wrapped clientSecrets
	if err := decodeSecret(m, &wrapped); err != nil {
		return nil, err
	}

	var id *ClientIdentity
	switch {
	case wrapped.Installed != nil:
		id = wrapped.Installed
	case wrapped.Web != nil:
		id = wrapped.Web
	default:
		id = &ClientIdentity{}
		if err := decodeSecret(m, id); err != nil {
			return nil, err
		}
	}

	if err := id.Validate(); err != nil {
		return nil, fmt.Errorf("invalid client secrets: %w", err)
	}
	return id, nil
}

// ParseAuthorizedUser reads a persisted credential.
func ParseAuthorizedUser(v any) (*AuthorizedUser, error) {
	m, err := NormalizeSecret(v)
	if err != nil {
		return nil, err
	}

	u := &AuthorizedUser{}
	if err := decodeSecret(m, u); err != nil {
		return nil, err
	}
	if _, err := u.ExpiryTime(); err != nil {
		return nil, err
	}
	return u, nil
}

func decodeSecret(m map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(m); err != nil {
		return fmt.Errorf("error decoding secret: %w", err)
	}
	return nil
}
