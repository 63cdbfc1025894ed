package domain

import (
	"fmt"
	"strings"
)

// Difficulty is the tier a question is authored at. It selects the reward weight.
type Difficulty string

const (
	DifficultyTrivial  Difficulty = "trivial"
	DifficultyEasy     Difficulty = "easy"
	DifficultyMedium   Difficulty = "medium"
	DifficultyHard     Difficulty = "hard"
	DifficultyVeryHard Difficulty = "very-hard"
	DifficultyMixed    Difficulty = "mixed"
)

// AllDifficulties returns every tier from easiest to hardest, with mixed last.
func AllDifficulties() []Difficulty {
	return []Difficulty{
		DifficultyTrivial,
		DifficultyEasy,
		DifficultyMedium,
		DifficultyHard,
		DifficultyVeryHard,
		DifficultyMixed,
	}
}

// Valid reports whether d is one of the known tiers.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyTrivial, DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyVeryHard, DifficultyMixed:
		return true
	}
	return false
}

// ParseDifficulty converts a content-file string into a tier.
func ParseDifficulty(raw string) (Difficulty, error) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(raw)))
	if !d.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownDifficulty, raw)
	}
	return d, nil
}

// UnmarshalText lets JSON and YAML decoders reject unknown tiers.
func (d *Difficulty) UnmarshalText(text []byte) error {
	parsed, err := ParseDifficulty(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalText keeps tiers as plain strings on the wire.
func (d Difficulty) MarshalText() ([]byte, error) {
	return []byte(d), nil
}

// RewardTable maps each tier to the experience points awarded per correct answer.
type RewardTable map[Difficulty]int

// DefaultRewardTable mirrors the point values used by the portal's quiz mini-app.
func DefaultRewardTable() RewardTable {
	return RewardTable{
		DifficultyTrivial:  5,
		DifficultyEasy:     10,
		DifficultyMedium:   20,
		DifficultyHard:     30,
		DifficultyVeryHard: 50,
		DifficultyMixed:    25,
	}
}

// Validate checks that every entry names a known tier with a positive weight.
func (t RewardTable) Validate() error {
	for tier, weight := range t {
		if !tier.Valid() {
			return &ConfigurationError{Difficulty: tier, Err: ErrUnknownDifficulty}
		}
		if weight <= 0 {
			return &ConfigurationError{Difficulty: tier, Err: ErrInvalidReward}
		}
	}
	return nil
}

// Tiers returns the table's tiers in AllDifficulties order.
func (t RewardTable) Tiers() []Difficulty {
	tiers := make([]Difficulty, 0, len(t))
	for _, d := range AllDifficulties() {
		if _, ok := t[d]; ok {
			tiers = append(tiers, d)
		}
	}
	return tiers
}
