package gdocs

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/docs/v1"

	"github.com/hashicorp-forge/siteaudit/pkg/markdown"
)

// fakeService records calls and fails on demand.
type fakeService struct {
	created   []string
	batches   map[string][][]*docs.Request
	placed    []string
	documents map[string]*docs.Document

	createErr    func(title string) error
	batchErr     error
	getErr       error
	placeErr     error
	nextID       int
	lastFolder   string
	getDocCalled int
}

func newFakeService() *fakeService {
	return &fakeService{
		batches:   map[string][][]*docs.Request{},
		documents: map[string]*docs.Document{},
	}
}

func (f *fakeService) CreateDocument(ctx context.Context, title string) (string, error) {
	if f.createErr != nil {
		if err := f.createErr(title); err != nil {
			return "", err
		}
	}
	f.nextID++
	id := fmt.Sprintf("doc-%d", f.nextID)
	f.created = append(f.created, title)
	return id, nil
}

func (f *fakeService) BatchUpdate(ctx context.Context, documentID string, reqs []*docs.Request) error {
	if f.batchErr != nil {
		return f.batchErr
	}
	f.batches[documentID] = append(f.batches[documentID], reqs)
	return nil
}

func (f *fakeService) GetDocument(ctx context.Context, documentID string) (*docs.Document, error) {
	f.getDocCalled++
	if f.getErr != nil {
		return nil, f.getErr
	}
	doc, ok := f.documents[documentID]
	if !ok {
		return nil, errors.New("not found")
	}
	return doc, nil
}

func (f *fakeService) PlaceInFolder(ctx context.Context, documentID, folderName string) error {
	f.lastFolder = folderName
	if f.placeErr != nil {
		return f.placeErr
	}
	f.placed = append(f.placed, documentID)
	return nil
}

const scoresMarkdown = "## Scores\n- ✔ **Performance** 92%\n- ⚠ **SEO** 61%\n\nSummary text."

func TestSession_CreateDocument(t *testing.T) {
	svc := newFakeService()
	s := NewSession(svc, SessionConfig{FolderName: DefaultFolderName})

	id, err := s.CreateFromMarkdown(context.Background(), "SEO Report - example.com - 2025-03-01", scoresMarkdown)
	require.NoError(t, err)
	assert.Equal(t, "doc-1", id)
	assert.Equal(t, []string{"doc-1"}, svc.placed)
	assert.Equal(t, DefaultFolderName, svc.lastFolder)

	// One batch: insert, one bold range, two bullet ranges.
	require.Len(t, svc.batches["doc-1"], 1)
	reqs := svc.batches["doc-1"][0]
	require.Len(t, reqs, 4)

	require.NotNil(t, reqs[0].InsertText)
	assert.EqualValues(t, 1, reqs[0].InsertText.Location.Index)
	assert.Equal(t, "Scores\n\n✔ Performance 92%\n⚠ SEO 61%\n\nSummary text.", reqs[0].InsertText.Text)

	require.NotNil(t, reqs[1].UpdateTextStyle)
	assert.EqualValues(t, 1, reqs[1].UpdateTextStyle.Range.StartIndex)
	assert.EqualValues(t, 7, reqs[1].UpdateTextStyle.Range.EndIndex)
	assert.True(t, reqs[1].UpdateTextStyle.TextStyle.Bold)
	assert.Equal(t, "bold", reqs[1].UpdateTextStyle.Fields)

	require.NotNil(t, reqs[2].CreateParagraphBullets)
	assert.EqualValues(t, 9, reqs[2].CreateParagraphBullets.Range.StartIndex)
	assert.EqualValues(t, 27, reqs[2].CreateParagraphBullets.Range.EndIndex)
	assert.Equal(t, "BULLET_DISC_CIRCLE_SQUARE", reqs[2].CreateParagraphBullets.BulletPreset)

	require.NotNil(t, reqs[3].CreateParagraphBullets)
	assert.EqualValues(t, 27, reqs[3].CreateParagraphBullets.Range.StartIndex)
	assert.EqualValues(t, 36, reqs[3].CreateParagraphBullets.Range.EndIndex)
}

func TestSession_CreateDocument_FolderFailureIgnored(t *testing.T) {
	svc := newFakeService()
	svc.placeErr = errors.New("drive unavailable")
	s := NewSession(svc, SessionConfig{FolderName: "Reports"})

	id, err := s.CreateFromMarkdown(context.Background(), "title", "# Hello")
	require.NoError(t, err)
	assert.Equal(t, "doc-1", id)
	assert.Empty(t, svc.placed)
	assert.Len(t, svc.batches["doc-1"], 1)
}

func TestSession_CreateDocument_NoFolder(t *testing.T) {
	svc := newFakeService()
	s := NewSession(svc, SessionConfig{})

	_, err := s.CreateFromMarkdown(context.Background(), "title", "text")
	require.NoError(t, err)
	assert.Empty(t, svc.lastFolder)
}

func TestSession_CreateDocument_CreateFails(t *testing.T) {
	svc := newFakeService()
	svc.createErr = func(string) error { return errors.New("quota exceeded") }
	s := NewSession(svc, SessionConfig{})

	id, err := s.CreateFromMarkdown(context.Background(), "title", "text")
	assert.Empty(t, id)
	assert.ErrorIs(t, err, ErrCreateFailed)
	assert.Empty(t, svc.batches)
}

func TestSession_CreateDocument_StyleFailure(t *testing.T) {
	tests := []struct {
		name   string
		policy StyleFailurePolicy
		wantID string
	}{
		{"discard", DiscardDocumentID, ""},
		{"keep", KeepDocumentID, "doc-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newFakeService()
			svc.batchErr = errors.New("invalid range")
			s := NewSession(svc, SessionConfig{StyleFailurePolicy: tt.policy})

			id, err := s.CreateFromMarkdown(context.Background(), "title", scoresMarkdown)
			assert.Equal(t, tt.wantID, id)
			assert.ErrorIs(t, err, ErrStyleApplyFailed)

			// The orphaned document is always named in the error.
			var derr *Error
			require.True(t, errors.As(err, &derr))
			assert.Equal(t, "doc-1", derr.DocumentID)
			assert.Contains(t, err.Error(), "invalid range")
		})
	}
}

func TestSession_CreateFromMarkdown_PlainFallback(t *testing.T) {
	svc := newFakeService()
	s := NewSession(svc, SessionConfig{})

	_, err := s.CreateFromMarkdown(context.Background(), "title", "   \n\n")
	require.NoError(t, err)
	assert.Empty(t, svc.batches["doc-1"], "nothing to write")
}

func TestSession_CreatePair(t *testing.T) {
	t.Run("both created", func(t *testing.T) {
		svc := newFakeService()
		s := NewSession(svc, SessionConfig{})

		res := s.CreatePair(context.Background(), PairRequest{
			Primary:   DocumentRequest{Title: "SEO Report", Markdown: scoresMarkdown},
			Secondary: DocumentRequest{Title: "SEO Gap Analysis", Markdown: "## Gaps\n- thin content"},
		})
		require.NoError(t, res.Err)
		assert.Equal(t, "doc-1", res.PrimaryID)
		assert.Equal(t, "doc-2", res.SecondaryID)
		assert.Equal(t, []string{"SEO Report", "SEO Gap Analysis"}, svc.created)
	})

	t.Run("no secondary content", func(t *testing.T) {
		svc := newFakeService()
		s := NewSession(svc, SessionConfig{})

		res := s.CreatePair(context.Background(), PairRequest{
			Primary:   DocumentRequest{Title: "SEO Report", Markdown: scoresMarkdown},
			Secondary: DocumentRequest{Title: "SEO Gap Analysis", Markdown: "  "},
		})
		require.NoError(t, res.Err)
		assert.Equal(t, "doc-1", res.PrimaryID)
		assert.Empty(t, res.SecondaryID)
		assert.Len(t, svc.created, 1)
	})

	t.Run("secondary fails", func(t *testing.T) {
		svc := newFakeService()
		svc.createErr = func(title string) error {
			if title == "SEO Gap Analysis" {
				return errors.New("rate limited")
			}
			return nil
		}
		s := NewSession(svc, SessionConfig{})

		res := s.CreatePair(context.Background(), PairRequest{
			Primary:   DocumentRequest{Title: "SEO Report", Markdown: scoresMarkdown},
			Secondary: DocumentRequest{Title: "SEO Gap Analysis", Markdown: "gap"},
		})
		assert.Equal(t, "doc-1", res.PrimaryID)
		assert.Empty(t, res.SecondaryID)
		assert.ErrorIs(t, res.Err, ErrPartialSuccess)
		assert.ErrorIs(t, res.Err, ErrCreateFailed)

		var derr *Error
		require.True(t, errors.As(res.Err, &derr))
		assert.Equal(t, "doc-1", derr.DocumentID)
	})

	t.Run("primary fails", func(t *testing.T) {
		svc := newFakeService()
		svc.createErr = func(string) error { return errors.New("down") }
		s := NewSession(svc, SessionConfig{})

		res := s.CreatePair(context.Background(), PairRequest{
			Primary:   DocumentRequest{Title: "SEO Report", Markdown: scoresMarkdown},
			Secondary: DocumentRequest{Title: "SEO Gap Analysis", Markdown: "gap"},
		})
		assert.Empty(t, res.PrimaryID)
		assert.ErrorIs(t, res.Err, ErrCreateFailed)
		assert.NotErrorIs(t, res.Err, ErrPartialSuccess)
	})

	t.Run("styling fails", func(t *testing.T) {
		tests := []struct {
			name   string
			policy StyleFailurePolicy
			wantID string
		}{
			{"discard", DiscardDocumentID, ""},
			{"keep", KeepDocumentID, "doc-1"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				svc := newFakeService()
				svc.batchErr = errors.New("invalid range")
				s := NewSession(svc, SessionConfig{StyleFailurePolicy: tt.policy})

				res := s.CreatePair(context.Background(), PairRequest{
					Primary:   DocumentRequest{Title: "SEO Report", Markdown: scoresMarkdown},
					Secondary: DocumentRequest{Title: "SEO Gap Analysis", Markdown: "gap"},
				})
				assert.Equal(t, tt.wantID, res.PrimaryID)
				assert.Empty(t, res.SecondaryID)
				assert.Equal(t, []string{"SEO Report"}, svc.created, "no secondary after a primary failure")
				assert.NotErrorIs(t, res.Err, ErrPartialSuccess)

				var derr *Error
				require.True(t, errors.As(res.Err, &derr))
				assert.Equal(t, "doc-1", derr.DocumentID)
			})
		}
	})
}

func bodyEndingAt(end int64) *docs.Document {
	return &docs.Document{
		Body: &docs.Body{
			Content: []*docs.StructuralElement{
				{StartIndex: 0, EndIndex: 1},
				{StartIndex: 1, EndIndex: end},
			},
		},
	}
}

func TestSession_AppendToDocument(t *testing.T) {
	svc := newFakeService()
	svc.documents["abc123"] = bodyEndingAt(57)
	s := NewSession(svc, SessionConfig{})

	err := s.AppendToDocument(context.Background(), "https://docs.google.com/document/d/abc123/edit", "### Gap\n**Bold** note")
	require.NoError(t, err)

	require.Len(t, svc.batches["abc123"], 1)
	reqs := svc.batches["abc123"][0]
	require.Len(t, reqs, 1)
	assert.EqualValues(t, 56, reqs[0].InsertText.Location.Index)
	assert.Equal(t, "\n\n---\n\nGap\nBold note", reqs[0].InsertText.Text)
}

func TestSession_AppendToDocument_Errors(t *testing.T) {
	t.Run("invalid target", func(t *testing.T) {
		svc := newFakeService()
		s := NewSession(svc, SessionConfig{})

		err := s.AppendToDocument(context.Background(), "not a doc id", "x")
		assert.ErrorIs(t, err, ErrInvalidTarget)
		assert.Zero(t, svc.getDocCalled)
	})

	t.Run("get fails", func(t *testing.T) {
		svc := newFakeService()
		svc.getErr = errors.New("403")
		s := NewSession(svc, SessionConfig{})

		err := s.AppendToDocument(context.Background(), "abc123", "x")
		assert.ErrorIs(t, err, ErrAppendFailed)
	})

	t.Run("update fails", func(t *testing.T) {
		svc := newFakeService()
		svc.documents["abc123"] = bodyEndingAt(10)
		svc.batchErr = errors.New("500")
		s := NewSession(svc, SessionConfig{})

		err := s.AppendToDocument(context.Background(), "abc123", "x")
		assert.ErrorIs(t, err, ErrAppendFailed)

		var derr *Error
		require.True(t, errors.As(err, &derr))
		assert.Equal(t, "abc123", derr.DocumentID)
	})
}

func TestAppendIndex(t *testing.T) {
	assert.EqualValues(t, 56, AppendIndex(57))
	assert.EqualValues(t, 1, AppendIndex(2))
	assert.EqualValues(t, 1, AppendIndex(1))
	assert.EqualValues(t, 1, AppendIndex(0))
	assert.EqualValues(t, 1, lastEndIndex(&docs.Document{}))
}

func TestStyleRequests_Empty(t *testing.T) {
	assert.Nil(t, StyleRequests(markdown.StyledDocument{}))
}
