package domain

import (
	"strconv"
	"time"
)

// Identity carries the acting user explicitly into every use case.
type Identity struct {
	UserID string
	Email  string
}

// Question models a multiple-choice question with a single correct option.
type Question struct {
	ID                 string     `json:"id" yaml:"id"`
	Prompt             string     `json:"prompt,omitempty" yaml:"prompt,omitempty"`
	Options            []string   `json:"options,omitempty" yaml:"options,omitempty"`
	Difficulty         Difficulty `json:"difficulty" yaml:"difficulty"`
	CorrectOptionIndex int        `json:"correctOptionIndex" yaml:"correctOptionIndex"`
}

// Quiz is an ordered collection of questions.
type Quiz struct {
	ID        string     `json:"id" yaml:"id"`
	Title     string     `json:"title,omitempty" yaml:"title,omitempty"`
	Questions []Question `json:"questions" yaml:"questions"`
}

// AnswerSheet maps a question id to the selected option index. Absent ids were skipped.
type AnswerSheet map[string]int

// ScoreResult is the outcome of scoring one answer sheet.
type ScoreResult struct {
	TotalQuestions     int                `json:"totalQuestions"`
	CorrectCount       int                `json:"correctCount"`
	IncorrectCount     int                `json:"incorrectCount"`
	SkippedCount       int                `json:"skippedCount"`
	PercentageCorrect  int                `json:"percentageCorrect"`
	TotalReward        int                `json:"totalReward"`
	RewardByDifficulty map[Difficulty]int `json:"rewardByDifficulty"`
	// Applicable is false when there were no questions, so a 0 percentage means "nothing assigned".
	Applicable bool `json:"applicable"`
	// UnknownAnswers lists answer keys that matched no question, sorted.
	UnknownAnswers []string `json:"unknownAnswers,omitempty"`
}

// TopicItem is one trackable unit on a study checklist.
type TopicItem struct {
	ID        string `json:"id" yaml:"id"`
	GroupName string `json:"group" yaml:"group"`
	Label     string `json:"label" yaml:"label"`
}

// Checklist is the ordered topic list for a subject.
type Checklist struct {
	Subject string      `json:"subject" yaml:"subject"`
	Title   string      `json:"title,omitempty" yaml:"title,omitempty"`
	Items   []TopicItem `json:"items" yaml:"items"`
}

// Has reports whether itemID is on the checklist.
func (c Checklist) Has(itemID string) bool {
	for _, item := range c.Items {
		if item.ID == itemID {
			return true
		}
	}
	return false
}

// CompletionState records which topic items a user has marked done.
type CompletionState map[string]bool

// Done returns the ids marked done.
func (s CompletionState) Done() []string {
	ids := make([]string, 0, len(s))
	for id, done := range s {
		if done {
			ids = append(ids, id)
		}
	}
	return ids
}

// GroupProgress is the completion of a single checklist group.
type GroupProgress struct {
	Done    int `json:"done"`
	Total   int `json:"total"`
	Percent int `json:"percent"`
}

// ProgressSummary aggregates completion for a checklist.
type ProgressSummary struct {
	Subject        string                   `json:"subject,omitempty"`
	OverallPercent int                      `json:"overallPercent"`
	Done           int                      `json:"done"`
	Total          int                      `json:"total"`
	PerGroup       map[string]GroupProgress `json:"perGroup"`
	// GroupOrder lists group names in first-seen checklist order.
	GroupOrder []string  `json:"groupOrder"`
	UpdatedAt  time.Time `json:"updatedAt,omitempty"`
}

// ScopedKey joins a user id and a subject into one key. The user id is length-prefixed,
// so separators inside either part cannot make two pairs collide.
func ScopedKey(userID, subject string) string {
	return strconv.Itoa(len(userID)) + ":" + userID + ":" + subject
}
