package gdocs

import (
	"errors"
	"fmt"
)

// Error kinds. Match them with errors.Is.
var (
	ErrNoCredentials    = errors.New("no Google credentials")
	ErrRefreshFailed    = errors.New("token refresh failed")
	ErrCreateFailed     = errors.New("document creation failed")
	ErrStyleApplyFailed = errors.New("applying document content failed")
	ErrAppendFailed     = errors.New("append to document failed")
	ErrInvalidTarget    = errors.New("invalid Google Doc ID or URL")
	ErrPartialSuccess   = errors.New("primary document created, secondary failed")
)

// Error is a document service failure. Kind is one of the Err* values above;
// DocumentID is set when a document exists despite the failure.
type Error struct {
	Kind       error
	DocumentID string
	Err        error
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.DocumentID != "" {
		msg = fmt.Sprintf("%s (document %s)", msg, e.DocumentID)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(kind error, documentID string, err error) *Error {
	return &Error{
		Kind:       kind,
		DocumentID: documentID,
		Err:        err,
	}
}
