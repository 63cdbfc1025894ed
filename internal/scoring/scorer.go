// Package scoring holds the pure assessment scorer and checklist progress tracker.
// Nothing here performs I/O; callers own persistence and sequencing.
package scoring

import (
	"sort"

	"study-portal-service/internal/domain"
)

// Score tallies an answer sheet against an ordered question set.
//
// Every tier of rewards is present in the result's RewardByDifficulty. A question whose
// tier is missing from rewards yields a *domain.ConfigurationError and no result.
// Answers keyed to unknown question ids do not affect totals; they are reported in
// UnknownAnswers.
func Score(questions []domain.Question, answers domain.AnswerSheet, rewards domain.RewardTable) (domain.ScoreResult, error) {
	if err := rewards.Validate(); err != nil {
		return domain.ScoreResult{}, err
	}
	for _, q := range questions {
		if _, ok := rewards[q.Difficulty]; !ok {
			return domain.ScoreResult{}, &domain.ConfigurationError{
				QuestionID: q.ID,
				Difficulty: q.Difficulty,
				Err:        domain.ErrMissingReward,
			}
		}
	}

	result := domain.ScoreResult{
		TotalQuestions:     len(questions),
		RewardByDifficulty: make(map[domain.Difficulty]int, len(rewards)),
	}
	for tier := range rewards {
		result.RewardByDifficulty[tier] = 0
	}

	known := make(map[string]struct{}, len(questions))
	for _, q := range questions {
		known[q.ID] = struct{}{}

		selected, answered := answers[q.ID]
		switch {
		case !answered:
			result.SkippedCount++
		case selected == q.CorrectOptionIndex:
			result.CorrectCount++
			weight := rewards[q.Difficulty]
			result.TotalReward += weight
			result.RewardByDifficulty[q.Difficulty] += weight
		default:
			result.IncorrectCount++
		}
	}

	for id := range answers {
		if _, ok := known[id]; !ok {
			result.UnknownAnswers = append(result.UnknownAnswers, id)
		}
	}
	sort.Strings(result.UnknownAnswers)

	result.Applicable = result.TotalQuestions > 0
	result.PercentageCorrect = Percent(result.CorrectCount, result.TotalQuestions)
	return result, nil
}

// Percent returns round(100*part/whole) with halves rounded up, or 0 when whole is 0.
func Percent(part, whole int) int {
	if whole <= 0 || part <= 0 {
		return 0
	}
	return (200*part + whole) / (2 * whole)
}
