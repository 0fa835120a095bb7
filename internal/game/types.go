// apps/go-server/internal/game/types.go
//
// Core type definitions for the memory game engine.
// Defines:
//   - Difficulty and DifficultyConfig: board presets.
//   - Card: one tile on the board.
//   - State: the immutable snapshot every transition produces.
//   - Outcome/FlipResult: what a flip did.

package game

import (
	"errors"
	"strings"
)

// Difficulty selects a board preset.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// ErrUnknownDifficulty is returned for a difficulty outside the preset list.
var ErrUnknownDifficulty = errors.New("unknown difficulty")

// DifficultyConfig describes the grid for one difficulty.
// Cols*Rows is always 2*Pairs.
type DifficultyConfig struct {
	Cols  int    `json:"cols"`
	Rows  int    `json:"rows"`
	Pairs int    `json:"pairs"`
	Label string `json:"label"`
}

var configs = map[Difficulty]DifficultyConfig{
	Easy:   {Cols: 4, Rows: 3, Pairs: 6, Label: "Easy"},
	Medium: {Cols: 4, Rows: 4, Pairs: 8, Label: "Medium"},
	Hard:   {Cols: 6, Rows: 4, Pairs: 12, Label: "Hard"},
}

// Difficulties lists the presets from smallest to largest board.
func Difficulties() []Difficulty {
	return []Difficulty{Easy, Medium, Hard}
}

// Config returns the preset for d.
func Config(d Difficulty) (DifficultyConfig, bool) {
	c, ok := configs[d]
	return c, ok
}

// ParseDifficulty normalizes user input ("Easy", " hard ") to a Difficulty.
func ParseDifficulty(s string) (Difficulty, error) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := configs[d]; !ok {
		return "", ErrUnknownDifficulty
	}
	return d, nil
}

// Card is one tile. ID is its grid position; PairIndex is shared by exactly
// two cards in a deck. A matched card is always flipped.
type Card struct {
	ID        int    `json:"id"`
	PairIndex int    `json:"pairIndex"`
	Character string `json:"character"`
	Meaning   string `json:"meaning"`
	Flipped   bool   `json:"isFlipped"`
	Matched   bool   `json:"isMatched"`
}

// State is a snapshot of one game. Transitions never modify a State in
// place; they return a new one with its own Cards and FlippedCards slices.
type State struct {
	Cards        []Card     `json:"cards"`
	Difficulty   Difficulty `json:"difficulty"`
	Moves        int        `json:"moves"`
	FlippedCards []int      `json:"flippedCards"` // face-up, unresolved card ids (0, 1 or 2)
	Locked       bool       `json:"isLocked"`
	MatchedPairs int        `json:"matchedPairs"`
	TotalPairs   int        `json:"totalPairs"`
	TimerRunning bool       `json:"timerRunning"`
	Won          bool       `json:"gameWon"`
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	out := s
	out.Cards = append([]Card(nil), s.Cards...)
	out.FlippedCards = append([]int{}, s.FlippedCards...)
	return out
}

// Outcome reports what an accepted flip did.
type Outcome string

const (
	OutcomeFlipped  Outcome = "flipped"  // first card of a comparison
	OutcomeMatch    Outcome = "match"    // second card matched the first
	OutcomeMismatch Outcome = "mismatch" // second card did not match; board locked
)

// FlipResult is the new state plus the annotations renderers need.
// Pair holds the two compared ids for OutcomeMatch and OutcomeMismatch.
type FlipResult struct {
	State   State   `json:"state"`
	Outcome Outcome `json:"outcome"`
	Pair    [2]int  `json:"pair"`
	Won     bool    `json:"gameWon"`
}

// IsMatch reports a match outcome.
func (r FlipResult) IsMatch() bool { return r.Outcome == OutcomeMatch }

// IsMismatch reports a mismatch outcome.
func (r FlipResult) IsMismatch() bool { return r.Outcome == OutcomeMismatch }
