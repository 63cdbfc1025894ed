package scoring

import "study-portal-service/internal/domain"

// Summarize computes overall and per-group completion for a checklist.
// Groups keep first-seen order. The overall figure is taken over all items, not
// averaged across groups.
func Summarize(items []domain.TopicItem, state domain.CompletionState) domain.ProgressSummary {
	summary := domain.ProgressSummary{
		PerGroup:   make(map[string]domain.GroupProgress),
		GroupOrder: []string{},
	}

	for _, item := range items {
		group, seen := summary.PerGroup[item.GroupName]
		if !seen {
			summary.GroupOrder = append(summary.GroupOrder, item.GroupName)
		}
		group.Total++
		summary.Total++
		if state[item.ID] {
			group.Done++
			summary.Done++
		}
		summary.PerGroup[item.GroupName] = group
	}

	for name, group := range summary.PerGroup {
		group.Percent = Percent(group.Done, group.Total)
		summary.PerGroup[name] = group
	}
	summary.OverallPercent = Percent(summary.Done, summary.Total)
	return summary
}

// Toggle returns a copy of state with itemID flipped. The input map is not modified.
// Unmarking removes the entry, so states that only record done items round-trip exactly.
func Toggle(state domain.CompletionState, itemID string) domain.CompletionState {
	next := make(domain.CompletionState, len(state)+1)
	for id, done := range state {
		next[id] = done
	}
	if next[itemID] {
		delete(next, itemID)
	} else {
		next[itemID] = true
	}
	return next
}
