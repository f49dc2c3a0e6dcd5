package gdocs

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/oauth2"
	"google.golang.org/api/docs/v1"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

const folderMimeType = "application/vnd.google-apps.folder"

// GoogleService implements Service with the Google Docs and Drive APIs.
type GoogleService struct {
	Docs  *docs.Service
	Drive *drive.Service

	logger hclog.Logger
}

var _ Service = (*GoogleService)(nil)

// NewGoogleService returns a service authorized by ts. Extra options are
// passed to both API clients, which lets tests point them at a fake
// endpoint.
func NewGoogleService(ctx context.Context, ts oauth2.TokenSource, logger hclog.Logger, opts ...option.ClientOption) (*GoogleService, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	opts = append([]option.ClientOption{option.WithTokenSource(ts)}, opts...)

	docSrv, err := docs.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("error creating docs service: %w", err)
	}
	driveSrv, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("error creating drive service: %w", err)
	}

	return &GoogleService{
		Docs:   docSrv,
		Drive:  driveSrv,
		logger: logger,
	}, nil
}

// CreateDocument creates an empty document.
func (s *GoogleService) CreateDocument(ctx context.Context, title string) (string, error) {
	doc, err := s.Docs.Documents.
		Create(&docs.Document{Title: title}).
		Context(ctx).
		Do()
	if err != nil {
		return "", err
	}
	return doc.DocumentId, nil
}

// BatchUpdate applies reqs to a document.
func (s *GoogleService) BatchUpdate(ctx context.Context, documentID string, reqs []*docs.Request) error {
	if len(reqs) == 0 {
		return nil
	}
	_, err := s.Docs.Documents.
		BatchUpdate(documentID, &docs.BatchUpdateDocumentRequest{Requests: reqs}).
		Context(ctx).
		Do()
	return err
}

// GetDocument gets a document.
func (s *GoogleService) GetDocument(ctx context.Context, documentID string) (*docs.Document, error) {
	return s.Docs.Documents.Get(documentID).Context(ctx).Do()
}

// PlaceInFolder adds the named folder to a document's parents, creating the
// folder in the root of My Drive when no folder of that name exists.
func (s *GoogleService) PlaceInFolder(ctx context.Context, documentID, folderName string) error {
	folderID, err := s.findOrCreateFolder(ctx, folderName)
	if err != nil {
		return err
	}

	f, err := s.Drive.Files.Get(documentID).
		Fields("parents").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("error getting document parents: %w", err)
	}

	if slices.Contains(f.Parents, folderID) {
		return nil
	}

	_, err = s.Drive.Files.Update(documentID, &drive.File{}).
		AddParents(folderID).
		Fields("id, parents").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("error moving document to folder: %w", err)
	}
	return nil
}

func (s *GoogleService) findOrCreateFolder(ctx context.Context, name string) (string, error) {
	q := fmt.Sprintf("mimeType = '%s' and name = '%s' and trashed = false",
		folderMimeType, escapeQuery(name))

	resp, err := s.Drive.Files.List().
		Q(q).
		Fields("files(id, name, parents)").
		Spaces("drive").
		PageSize(10).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("error searching for folder: %w", err)
	}

	if len(resp.Files) > 0 {
		// Prefer a top-level folder over a same-named nested one.
		for _, f := range resp.Files {
			if len(f.Parents) == 0 {
				return f.Id, nil
			}
		}
		return resp.Files[0].Id, nil
	}

	f, err := s.Drive.Files.Create(&drive.File{
		Name:     name,
		MimeType: folderMimeType,
	}).
		Fields("id").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("error creating folder: %w", err)
	}
	s.logger.Info("created folder", "name", name, "id", f.Id)
	return f.Id, nil
}

func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}
