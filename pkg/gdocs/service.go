package gdocs

import (
	"context"

	"google.golang.org/api/docs/v1"
)

// Service is the remote document service. GoogleService implements it over
// the Docs and Drive APIs.
type Service interface {
	// CreateDocument creates an empty document and returns its id.
	CreateDocument(ctx context.Context, title string) (string, error)

	// BatchUpdate applies requests to a document in one call.
	BatchUpdate(ctx context.Context, documentID string, reqs []*docs.Request) error

	// GetDocument returns a document with its body structure.
	GetDocument(ctx context.Context, documentID string) (*docs.Document, error)

	// PlaceInFolder moves a document into the folder called folderName,
	// creating the folder if needed.
	PlaceInFolder(ctx context.Context, documentID, folderName string) error
}
