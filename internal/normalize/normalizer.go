package normalize

import (
	"regexp"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"

	"RedditPulse/internal/domain"
)

// Verdict classifies the outcome of normalizing one raw item.
type Verdict int

const (
	// OK means the item became a canonical item.
	OK Verdict = iota
	// Rejected means a required field was missing or empty after trimming.
	Rejected
	// Duplicate means the id was already normalized in this run; first seen wins.
	Duplicate
)

var urlExpr = regexp.MustCompile(`https?://\S+|www\.\S+`)

// Normalizer converts raw source records into canonical items and
// deduplicates by id across the whole run. Safe for concurrent use.
type Normalizer struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// New builds a Normalizer with an empty dedup window.
func New() *Normalizer {
	return &Normalizer{seen: map[string]struct{}{}}
}

// Normalize converts one raw item. The canonical item is only meaningful
// when the verdict is OK.
func (n *Normalizer) Normalize(community string, raw domain.RawItem) (domain.CanonicalItem, Verdict) {
	id := itemID(raw)
	if id == "" {
		return domain.CanonicalItem{}, Rejected
	}

	title := CleanText(raw.Title)
	body := CleanText(bodyText(raw))

	if title == "" && body == "" {
		return domain.CanonicalItem{}, Rejected
	}

	n.mu.Lock()
	if _, dup := n.seen[id]; dup {
		n.mu.Unlock()
		return domain.CanonicalItem{}, Duplicate
	}
	n.seen[id] = struct{}{}
	n.mu.Unlock()

	return domain.CanonicalItem{
		ID:          id,
		Community:   community,
		Title:       title,
		Body:        body,
		Score:       raw.Score,
		NumComments: raw.NumComments,
		CreatedUTC:  int64(raw.CreatedUTC),
		Author:      raw.Author,
		ParentID:    raw.ParentID,
	}, OK
}

// CleanText strips URLs and collapses whitespace to single spaces.
func CleanText(text string) string {
	text = urlExpr.ReplaceAllString(text, " ")
	return strings.Join(strings.Fields(text), " ")
}

func itemID(raw domain.RawItem) string {
	if raw.Fullname != "" {
		return raw.Fullname
	}
	return strings.TrimSpace(raw.ID)
}

// bodyText prefers the plain body; comments carry it in Body, posts in
// SelfText. Falls back to unwrapping the HTML rendering when only that is set.
func bodyText(raw domain.RawItem) string {
	if raw.SelfText != "" {
		return raw.SelfText
	}
	if raw.Body != "" {
		return raw.Body
	}
	if raw.SelfTextHTML != "" {
		return stripMarkup(raw.SelfTextHTML)
	}
	return ""
}

func stripMarkup(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	return doc.Text()
}
