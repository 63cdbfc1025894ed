package app

import (
	"testing"

	"study-portal-service/internal/domain"
)

func TestFeedDropsStaleSummariesForSlowReaders(t *testing.T) {
	feed := NewFeed(FeedKey("u1", "calculus"))
	ch, cancel := feed.subscribe(domain.ProgressSummary{Done: 0})
	defer cancel()

	for i := 1; i <= 20; i++ {
		feed.publish(domain.ProgressSummary{Done: i})
	}

	var last domain.ProgressSummary
	count := 0
	for len(ch) > 0 {
		last = <-ch
		count++
	}
	if count != cap(ch) {
		t.Fatalf("expected a full buffer of %d, got %d", cap(ch), count)
	}
	if last.Done != 20 {
		t.Fatalf("expected newest summary kept, got %d", last.Done)
	}
}

func TestFeedEmptyAfterCancel(t *testing.T) {
	feed := NewFeed("k")
	_, cancel := feed.subscribe(domain.ProgressSummary{})
	if feed.IsEmpty() {
		t.Fatalf("expected subscriber registered")
	}
	cancel()
	if !feed.IsEmpty() {
		t.Fatalf("expected feed empty after cancel")
	}
	if feed.Key() != "k" {
		t.Fatalf("unexpected key %q", feed.Key())
	}
}
