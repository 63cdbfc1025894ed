package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrChecklistNotFound indicates no checklist exists for a subject.
	ErrChecklistNotFound = errors.New("checklist not found")
	// ErrTopicNotFound is returned when toggling an item that is not on the subject's checklist.
	ErrTopicNotFound = errors.New("topic item not found")
	// ErrFeedNotFound is returned when subscribing to a feed that was never opened.
	ErrFeedNotFound = errors.New("progress feed not found")
	// ErrMissingIdentity is returned when a call carries no user id.
	ErrMissingIdentity = errors.New("missing user identity")

	// ErrMissingReward marks a question whose tier has no reward table entry.
	ErrMissingReward = errors.New("no reward configured for difficulty")
	// ErrInvalidReward marks a non-positive reward weight.
	ErrInvalidReward = errors.New("reward weight must be positive")
	// ErrUnknownDifficulty marks a tier outside the enumerated set.
	ErrUnknownDifficulty = errors.New("unknown difficulty")
)

// ConfigurationError reports content or reward table misconfiguration.
// Scoring aborts on it; no partial result is produced.
type ConfigurationError struct {
	QuestionID string
	Difficulty Difficulty
	Err        error
}

func (e *ConfigurationError) Error() string {
	if e.QuestionID != "" {
		return fmt.Sprintf("configuration error: question %q (%s): %v", e.QuestionID, e.Difficulty, e.Err)
	}
	return fmt.Sprintf("configuration error: difficulty %q: %v", e.Difficulty, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// IsConfigurationError reports whether err is, or wraps, a *ConfigurationError.
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}
