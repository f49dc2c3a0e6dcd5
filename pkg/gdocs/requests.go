package gdocs

import (
	"google.golang.org/api/docs/v1"

	"github.com/hashicorp-forge/siteaudit/pkg/markdown"
)

const bulletPreset = "BULLET_DISC_CIRCLE_SQUARE"

// AppendSeparator precedes appended content.
const AppendSeparator = "\n\n---\n\n"

// StyleRequests returns the batch that writes doc into an empty document:
// one insert at the start, then bold and bullet styling over its ranges.
func StyleRequests(doc markdown.StyledDocument) []*docs.Request {
	if doc.IsEmpty() {
		return nil
	}

	reqs := make([]*docs.Request, 0, 1+len(doc.BoldRanges)+len(doc.BulletRanges))
	reqs = append(reqs, &docs.Request{
		InsertText: &docs.InsertTextRequest{
			Location: &docs.Location{Index: markdown.FirstIndex},
			Text:     doc.FullText,
		},
	})

	for _, r := range doc.BoldRanges {
		reqs = append(reqs, &docs.Request{
			UpdateTextStyle: &docs.UpdateTextStyleRequest{
				Range:     docsRange(r),
				TextStyle: &docs.TextStyle{Bold: true},
				Fields:    "bold",
			},
		})
	}

	for _, r := range doc.BulletRanges {
		reqs = append(reqs, &docs.Request{
			CreateParagraphBullets: &docs.CreateParagraphBulletsRequest{
				Range:        docsRange(r),
				BulletPreset: bulletPreset,
			},
		})
	}
	return reqs
}

// AppendIndex is where appended text goes: just before the final newline
// of the body, and never before the first index.
func AppendIndex(lastEndIndex int64) int64 {
	if idx := lastEndIndex - 1; idx > markdown.FirstIndex {
		return idx
	}
	return markdown.FirstIndex
}

// AppendRequests inserts the plain rendering of md at index.
func AppendRequests(index int64, md string) []*docs.Request {
	return []*docs.Request{{
		InsertText: &docs.InsertTextRequest{
			Location: &docs.Location{Index: index},
			Text:     AppendSeparator + markdown.PlainText(md),
		},
	}}
}

// lastEndIndex is the end index of the last structural element of the body.
func lastEndIndex(doc *docs.Document) int64 {
	if doc == nil || doc.Body == nil || len(doc.Body.Content) == 0 {
		return markdown.FirstIndex
	}
	return doc.Body.Content[len(doc.Body.Content)-1].EndIndex
}

func docsRange(r markdown.Range) *docs.Range {
	return &docs.Range{
		StartIndex: int64(r.Start),
		EndIndex:   int64(r.End),
	}
}
