package pagespeed

import "sort"

// Result is the part of a runPagespeed response that reports use.
type Result struct {
	ID               string           `json:"id"`
	LighthouseResult LighthouseResult `json:"lighthouseResult"`
}

// LighthouseResult holds category scores and individual audits.
type LighthouseResult struct {
	RequestedURL string               `json:"requestedUrl"`
	FinalURL     string               `json:"finalUrl"`
	FetchTime    string               `json:"fetchTime"`
	Categories   map[string]*Category `json:"categories"`
	Audits       map[string]*Audit    `json:"audits"`
}

// Category is a scored Lighthouse category. Score is nil when Lighthouse
// could not compute it.
type Category struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Score     *float64   `json:"score"`
	AuditRefs []AuditRef `json:"auditRefs"`
}

// AuditRef links a category to one of its audits.
type AuditRef struct {
	ID     string  `json:"id"`
	Weight float64 `json:"weight"`
	Group  string  `json:"group,omitempty"`
}

// Audit is a single Lighthouse check.
type Audit struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Score        *float64 `json:"score"`
	DisplayValue string   `json:"displayValue,omitempty"`
}

// CategoryIDs returns the ids of r's categories: the requested categories
// first in their usual order, then any others sorted.
func (r *LighthouseResult) CategoryIDs() []string {
	ids := make([]string, 0, len(r.Categories))
	seen := make(map[string]bool, len(r.Categories))
	for _, id := range Categories {
		if _, ok := r.Categories[id]; ok {
			ids = append(ids, id)
			seen[id] = true
		}
	}

	var extra []string
	for id := range r.Categories {
		if !seen[id] {
			extra = append(extra, id)
		}
	}
	sort.Strings(extra)
	return append(ids, extra...)
}

// CategoryAudits returns the audits referenced by a category that exist in
// r, in reference order, at most limit of them (no limit when limit <= 0).
func (r *LighthouseResult) CategoryAudits(categoryID string, limit int) []*Audit {
	cat := r.Categories[categoryID]
	if cat == nil {
		return nil
	}

	var audits []*Audit
	for _, ref := range cat.AuditRefs {
		a, ok := r.Audits[ref.ID]
		if !ok || a == nil {
			continue
		}
		if a.ID == "" {
			a.ID = ref.ID
		}
		audits = append(audits, a)
		if limit > 0 && len(audits) == limit {
			break
		}
	}
	return audits
}
