package gdocs

import (
	"context"

	"github.com/hashicorp/go-hclog"
)

// ServiceFactory builds a Service authorized by cred.
type ServiceFactory func(ctx context.Context, cred *Credential) (Service, error)

// GoogleServiceFactory returns a factory for GoogleService.
func GoogleServiceFactory(logger hclog.Logger) ServiceFactory {
	return func(ctx context.Context, cred *Credential) (Service, error) {
		return NewGoogleService(ctx, cred.TokenSource(ctx), logger)
	}
}

// Manager acquires credentials and opens sessions for each export.
type Manager struct {
	auth       *Authenticator
	newService ServiceFactory
	cfg        SessionConfig
	logger     hclog.Logger
}

// NewManager returns a Manager. A nil factory uses GoogleServiceFactory.
func NewManager(auth *Authenticator, factory ServiceFactory, cfg SessionConfig) *Manager {
	if cfg.Logger == nil {
		cfg.Logger = hclog.NewNullLogger()
	}
	if factory == nil {
		factory = GoogleServiceFactory(cfg.Logger.Named("google"))
	}
	return &Manager{
		auth:       auth,
		newService: factory,
		cfg:        cfg,
		logger:     cfg.Logger,
	}
}

// Open acquires a credential and returns a session using it.
func (m *Manager) Open(ctx context.Context) (*Session, error) {
	cred, err := m.auth.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	m.logger.Debug("using credential", "source", cred.Source, "state", cred.State())

	svc, err := m.newService(ctx, cred)
	if err != nil {
		return nil, newError(ErrNoCredentials, "", err)
	}
	return NewSession(svc, m.cfg), nil
}

// CreatePair opens a session and creates the documents in req.
func (m *Manager) CreatePair(ctx context.Context, req PairRequest) PairResult {
	s, err := m.Open(ctx)
	if err != nil {
		return PairResult{Err: err}
	}
	return s.CreatePair(ctx, req)
}

// AppendToDocument appends md to an existing document. The target is
// checked before any credential is looked up.
func (m *Manager) AppendToDocument(ctx context.Context, idOrURL, md string) error {
	id, err := ParseDocumentID(idOrURL)
	if err != nil {
		return err
	}
	s, err := m.Open(ctx)
	if err != nil {
		return err
	}
	return s.AppendToDocument(ctx, id, md)
}
