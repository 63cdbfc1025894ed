// Package content loads the static study content: quizzes, topic checklists and the
// reward table. Content is read once at startup and treated as immutable.
package content

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"study-portal-service/internal/domain"
)

// Catalog is an in-memory content source keyed by quiz id and subject.
type Catalog struct {
	Rewards    domain.RewardTable `yaml:"rewards"`
	Quizzes    []domain.Quiz      `yaml:"quizzes"`
	Checklists []domain.Checklist `yaml:"checklists"`

	quizzes    map[string]domain.Quiz
	checklists map[string]domain.Checklist
}

// NewCatalog indexes already-built content. It panics on duplicate ids, so it is meant
// for tests and fixtures; use Parse for untrusted input.
func NewCatalog(rewards domain.RewardTable, quizzes []domain.Quiz, checklists []domain.Checklist) *Catalog {
	c := &Catalog{Rewards: rewards, Quizzes: quizzes, Checklists: checklists}
	if err := c.index(); err != nil {
		panic(err)
	}
	return c
}

// Load reads a YAML content file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes and validates YAML content.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode content: %w", err)
	}
	if c.Rewards == nil {
		c.Rewards = domain.DefaultRewardTable()
	}
	if err := c.Rewards.Validate(); err != nil {
		return nil, err
	}
	if err := c.index(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) index() error {
	c.quizzes = make(map[string]domain.Quiz, len(c.Quizzes))
	for _, quiz := range c.Quizzes {
		if err := validateQuiz(quiz); err != nil {
			return err
		}
		if _, dup := c.quizzes[quiz.ID]; dup {
			return fmt.Errorf("duplicate quiz id %q", quiz.ID)
		}
		c.quizzes[quiz.ID] = quiz
	}

	c.checklists = make(map[string]domain.Checklist, len(c.Checklists))
	for _, list := range c.Checklists {
		if err := validateChecklist(list); err != nil {
			return err
		}
		if _, dup := c.checklists[list.Subject]; dup {
			return fmt.Errorf("duplicate checklist subject %q", list.Subject)
		}
		c.checklists[list.Subject] = list
	}
	return nil
}

func validateQuiz(quiz domain.Quiz) error {
	if quiz.ID == "" {
		return fmt.Errorf("quiz without id")
	}
	seen := make(map[string]struct{}, len(quiz.Questions))
	for _, q := range quiz.Questions {
		if q.ID == "" {
			return fmt.Errorf("quiz %q: question without id", quiz.ID)
		}
		if _, dup := seen[q.ID]; dup {
			return fmt.Errorf("quiz %q: duplicate question id %q", quiz.ID, q.ID)
		}
		seen[q.ID] = struct{}{}
		if !q.Difficulty.Valid() {
			return fmt.Errorf("quiz %q question %q: %w: %q", quiz.ID, q.ID, domain.ErrUnknownDifficulty, q.Difficulty)
		}
		if q.CorrectOptionIndex < 0 || (len(q.Options) > 0 && q.CorrectOptionIndex >= len(q.Options)) {
			return fmt.Errorf("quiz %q question %q: correct option %d out of range", quiz.ID, q.ID, q.CorrectOptionIndex)
		}
	}
	return nil
}

func validateChecklist(list domain.Checklist) error {
	if list.Subject == "" {
		return fmt.Errorf("checklist without subject")
	}
	seen := make(map[string]struct{}, len(list.Items))
	for _, item := range list.Items {
		if item.ID == "" {
			return fmt.Errorf("checklist %q: item without id", list.Subject)
		}
		if _, dup := seen[item.ID]; dup {
			return fmt.Errorf("checklist %q: duplicate item id %q", list.Subject, item.ID)
		}
		seen[item.ID] = struct{}{}
	}
	return nil
}

// CheckRewards reports the first question whose tier has no entry in rewards.
// Running it at startup surfaces the error before any learner submits answers.
func (c *Catalog) CheckRewards(rewards domain.RewardTable) error {
	for _, quiz := range c.Quizzes {
		for _, q := range quiz.Questions {
			if _, ok := rewards[q.Difficulty]; !ok {
				return &domain.ConfigurationError{QuestionID: q.ID, Difficulty: q.Difficulty, Err: domain.ErrMissingReward}
			}
		}
	}
	return nil
}

func (c *Catalog) LoadQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	if quiz, ok := c.quizzes[quizID]; ok {
		return quiz, nil
	}
	return domain.Quiz{}, domain.ErrQuizNotFound
}

func (c *Catalog) LoadChecklist(_ context.Context, subject string) (domain.Checklist, error) {
	if list, ok := c.checklists[subject]; ok {
		return list, nil
	}
	return domain.Checklist{}, domain.ErrChecklistNotFound
}
