package normalize

import (
	"testing"

	"RedditPulse/internal/domain"
)

func TestNormalizeBasicPost(t *testing.T) {
	t.Parallel()

	n := New()
	raw := domain.RawItem{
		Fullname:    "t3_abc",
		Title:       "  GME   to the\nmoon ",
		SelfText:    "check https://example.com/dd for the full writeup",
		Score:       42,
		NumComments: 7,
		CreatedUTC:  1700000000.0,
		Author:      "trader",
	}

	item, verdict := n.Normalize("teststocks", raw)
	if verdict != OK {
		t.Fatalf("expected OK, got %v", verdict)
	}
	if item.ID != "t3_abc" {
		t.Fatalf("unexpected id: %s", item.ID)
	}
	if item.Title != "GME to the moon" {
		t.Fatalf("whitespace not collapsed: %q", item.Title)
	}
	if item.Body != "check for the full writeup" {
		t.Fatalf("url not stripped: %q", item.Body)
	}
	if item.CreatedUTC != 1700000000 {
		t.Fatalf("timestamp not canonicalized: %d", item.CreatedUTC)
	}
	if item.Community != "teststocks" {
		t.Fatalf("unexpected community: %s", item.Community)
	}
}

func TestNormalizeRejectsEmptyText(t *testing.T) {
	t.Parallel()

	n := New()
	raw := domain.RawItem{Fullname: "t3_empty", Title: "   ", SelfText: " \n\t "}

	if _, verdict := n.Normalize("teststocks", raw); verdict != Rejected {
		t.Fatalf("expected Rejected, got %v", verdict)
	}
}

func TestNormalizeRejectsMissingID(t *testing.T) {
	t.Parallel()

	n := New()
	raw := domain.RawItem{Title: "has text but no id"}

	if _, verdict := n.Normalize("teststocks", raw); verdict != Rejected {
		t.Fatalf("expected Rejected, got %v", verdict)
	}
}

func TestNormalizeDeduplicatesFirstSeenWins(t *testing.T) {
	t.Parallel()

	n := New()
	first := domain.RawItem{Fullname: "t3_dup", Title: "original"}
	second := domain.RawItem{Fullname: "t3_dup", Title: "overlapping page copy"}

	item, verdict := n.Normalize("teststocks", first)
	if verdict != OK {
		t.Fatalf("first occurrence should normalize, got %v", verdict)
	}
	if item.Title != "original" {
		t.Fatalf("unexpected title: %s", item.Title)
	}

	if _, verdict := n.Normalize("teststocks", second); verdict != Duplicate {
		t.Fatalf("expected Duplicate, got %v", verdict)
	}
}

func TestNormalizeUnwrapsHTMLBody(t *testing.T) {
	t.Parallel()

	n := New()
	raw := domain.RawItem{
		Fullname:     "t3_html",
		SelfTextHTML: "<div><p>earnings look <strong>strong</strong> this quarter</p></div>",
	}

	item, verdict := n.Normalize("teststocks", raw)
	if verdict != OK {
		t.Fatalf("expected OK, got %v", verdict)
	}
	if item.Body != "earnings look strong this quarter" {
		t.Fatalf("markup not stripped: %q", item.Body)
	}
}

func TestNormalizeCommentBody(t *testing.T) {
	t.Parallel()

	n := New()
	raw := domain.RawItem{
		Fullname: "t1_reply",
		Body:     "totally agree with this",
		ParentID: "t3_abc",
	}

	item, verdict := n.Normalize("teststocks", raw)
	if verdict != OK {
		t.Fatalf("expected OK, got %v", verdict)
	}
	if item.Body != "totally agree with this" {
		t.Fatalf("comment body lost: %q", item.Body)
	}
	if item.ParentID != "t3_abc" {
		t.Fatalf("parent linkage lost: %q", item.ParentID)
	}
}
