package app

import (
	"sync"

	"study-portal-service/internal/domain"
)

// Feed fans progress summaries for one (user, subject) pair out to live subscribers,
// typically one per open browser tab.
type Feed struct {
	key         string
	mu          sync.RWMutex
	subscribers map[chan domain.ProgressSummary]struct{}
}

// NewFeed is exported for infrastructure layers that keep feeds in their own maps.
func NewFeed(key string) *Feed {
	return &Feed{
		key:         key,
		subscribers: make(map[chan domain.ProgressSummary]struct{}),
	}
}

// FeedKey identifies the feed for a user's subject.
func FeedKey(userID, subject string) string {
	return domain.ScopedKey(userID, subject)
}

// Key returns the feed's identifier.
func (f *Feed) Key() string {
	return f.key
}

// IsEmpty reports whether the feed has no subscribers.
func (f *Feed) IsEmpty() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subscribers) == 0
}

func (f *Feed) subscribe(initial domain.ProgressSummary) (<-chan domain.ProgressSummary, func()) {
	ch := make(chan domain.ProgressSummary, 8)

	f.mu.Lock()
	f.subscribers[ch] = struct{}{}
	ch <- initial
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		if _, ok := f.subscribers[ch]; ok {
			delete(f.subscribers, ch)
			close(ch)
		}
		f.mu.Unlock()
	}
	return ch, cancel
}

func (f *Feed) publish(summary domain.ProgressSummary) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subscribers {
		select {
		case ch <- summary:
		default:
			// Slow reader: drop its oldest pending summary, the newest one supersedes it.
			select {
			case <-ch:
			default:
			}
			ch <- summary
		}
	}
}
