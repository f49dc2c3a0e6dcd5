package gdocs

import (
	"context"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/hashicorp-forge/siteaudit/pkg/markdown"
)

// DefaultFolderName is the Drive folder new documents are filed into.
const DefaultFolderName = "SEO Health Checker"

// StyleFailurePolicy decides whether CreateDocument still returns the id of a
// document whose content could not be written.
type StyleFailurePolicy int

const (
	// DiscardDocumentID reports no document. The error still names it.
	DiscardDocumentID StyleFailurePolicy = iota

	// KeepDocumentID returns the empty document's id with the error.
	KeepDocumentID
)

// SessionConfig configures document sessions.
type SessionConfig struct {
	// FolderName is the Drive folder documents are placed in. Empty disables
	// placement.
	FolderName string

	StyleFailurePolicy StyleFailurePolicy

	Logger hclog.Logger
}

// Session creates and updates documents with one authorized service.
type Session struct {
	svc    Service
	cfg    SessionConfig
	logger hclog.Logger
}

// NewSession returns a session over svc.
func NewSession(svc Service, cfg SessionConfig) *Session {
	logger := cfg.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Session{
		svc:    svc,
		cfg:    cfg,
		logger: logger,
	}
}

// CreateDocument creates a document titled title, files it into the
// configured folder, and writes doc into it.
func (s *Session) CreateDocument(ctx context.Context, title string, doc markdown.StyledDocument) (string, error) {
	id, err := s.svc.CreateDocument(ctx, title)
	if err != nil {
		return "", newError(ErrCreateFailed, "", err)
	}
	if id == "" {
		return "", newError(ErrCreateFailed, "", nil)
	}
	s.logger.Info("created document", "id", id, "title", title)

	if s.cfg.FolderName != "" {
		if err := s.svc.PlaceInFolder(ctx, id, s.cfg.FolderName); err != nil {
			s.logger.Warn("could not place document in folder",
				"id", id, "folder", s.cfg.FolderName, "error", err)
		}
	}

	reqs := StyleRequests(doc)
	if len(reqs) == 0 {
		return id, nil
	}
	if err := s.svc.BatchUpdate(ctx, id, reqs); err != nil {
		e := newError(ErrStyleApplyFailed, id, err)
		if s.cfg.StyleFailurePolicy == KeepDocumentID {
			return id, e
		}
		return "", e
	}
	return id, nil
}

// CreateFromMarkdown formats md and creates a document from it. Markdown
// that yields no blocks is written as plain text.
func (s *Session) CreateFromMarkdown(ctx context.Context, title, md string) (string, error) {
	doc := markdown.Format(md)
	if doc.IsEmpty() {
		doc = markdown.StyledDocument{FullText: strings.TrimSpace(markdown.PlainText(md))}
	}
	return s.CreateDocument(ctx, title, doc)
}

// AppendToDocument appends the plain rendering of md, after a rule, to the
// end of an existing document given by id or URL.
func (s *Session) AppendToDocument(ctx context.Context, idOrURL, md string) error {
	id, err := ParseDocumentID(idOrURL)
	if err != nil {
		return err
	}

	doc, err := s.svc.GetDocument(ctx, id)
	if err != nil {
		return newError(ErrAppendFailed, id, err)
	}

	index := AppendIndex(lastEndIndex(doc))
	if err := s.svc.BatchUpdate(ctx, id, AppendRequests(index, md)); err != nil {
		return newError(ErrAppendFailed, id, err)
	}
	s.logger.Info("appended to document", "id", id, "index", index)
	return nil
}

// DocumentRequest is one document to create from Markdown.
type DocumentRequest struct {
	Title    string
	Markdown string
}

// PairRequest creates a primary document and an optional secondary one.
type PairRequest struct {
	Primary   DocumentRequest
	Secondary DocumentRequest
}

// PairResult reports what CreatePair created. When only the primary
// succeeded, PrimaryID is set and Err matches ErrPartialSuccess. Under
// KeepDocumentID an id is also set for a document whose styling failed.
type PairResult struct {
	PrimaryID   string
	SecondaryID string
	Err         error
}

// CreatePair creates the primary document, then the secondary one when it
// has content. The two are independent: a secondary failure leaves the
// primary in place.
func (s *Session) CreatePair(ctx context.Context, req PairRequest) PairResult {
	primaryID, err := s.CreateFromMarkdown(ctx, req.Primary.Title, req.Primary.Markdown)
	res := PairResult{PrimaryID: primaryID}
	if err != nil {
		res.Err = err
		return res
	}

	if strings.TrimSpace(req.Secondary.Markdown) == "" {
		return res
	}

	secondaryID, err := s.CreateFromMarkdown(ctx, req.Secondary.Title, strings.TrimSpace(req.Secondary.Markdown))
	res.SecondaryID = secondaryID
	if err != nil {
		res.Err = newError(ErrPartialSuccess, primaryID, err)
		return res
	}
	return res
}
