// apps/go-server/internal/game/engine.go
//
// Core game engine for a single memory-game board.
// Responsibilities:
//   - Deal a shuffled deck for a difficulty.
//   - Apply flips: first card, matching second card, mismatching second card.
//   - Resolve a mismatch by flipping the pair back.
//   - Track moves, matched pairs and the won flag.
//
// Notes:
//   - Every function here is pure apart from the injected Shuffler.
//   - Rejected flips are reported with ok=false and are not errors; double
//     clicks and clicks during the mismatch window are routine.
//   - Timing (how long a mismatch stays visible) belongs to the caller.
package game

import (
	"errors"
	"math/rand/v2"

	"github.com/robalobadob/memory/apps/go-server/internal/catalog"
)

// ErrCatalogTooSmall is returned when a deck asks for more pairs than the
// catalog holds (or for none at all).
var ErrCatalogTooSmall = errors.New("pair count exceeds catalog")

// Shuffler permutes n elements through swap. *rand.Rand satisfies it.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

type globalShuffler struct{}

func (globalShuffler) Shuffle(n int, swap func(i, j int)) { rand.Shuffle(n, swap) }

// DefaultShuffler draws from the process-wide generator.
var DefaultShuffler Shuffler = globalShuffler{}

// New deals a fresh game for d.
func New(d Difficulty, sh Shuffler) (State, error) {
	cfg, ok := Config(d)
	if !ok {
		return State{}, ErrUnknownDifficulty
	}
	cards, err := Deal(cfg.Pairs, catalog.Pairs(), sh)
	if err != nil {
		return State{}, err
	}
	return State{
		Cards:        cards,
		Difficulty:   d,
		FlippedCards: []int{},
		TotalPairs:   cfg.Pairs,
	}, nil
}

// Deal builds a face-down deck of 2*pairs cards.
//
// Two independent permutations are used: the first picks which catalog
// entries are in play, the second lays the duplicated cards out on the grid.
// Card IDs are reassigned to match the final order.
func Deal(pairs int, entries []catalog.CharacterPair, sh Shuffler) ([]Card, error) {
	if pairs < 1 || pairs > len(entries) {
		return nil, ErrCatalogTooSmall
	}
	if sh == nil {
		sh = DefaultShuffler
	}

	pool := append([]catalog.CharacterPair(nil), entries...)
	sh.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	cards := make([]Card, 0, pairs*2)
	for pairIndex, p := range pool[:pairs] {
		for k := 0; k < 2; k++ {
			cards = append(cards, Card{
				PairIndex: pairIndex,
				Character: p.Character,
				Meaning:   p.Meaning,
			})
		}
	}

	sh.Shuffle(len(cards), func(i, j int) { cards[i], cards[j] = cards[j], cards[i] })
	for i := range cards {
		cards[i].ID = i
	}
	return cards, nil
}

// Flip turns card id face up.
//
// ok is false (and the state untouched) when the board is locked, the game
// is won, id is not on the board, or the card is already face up or matched.
//
// State transitions:
//   - First card of a comparison → flipped, timer should run.
//   - Second card, same pair → both matched, moves+1, won when all pairs found.
//   - Second card, other pair → both stay up, moves+1, board locked until FlipBack.
func Flip(s State, id int) (res FlipResult, ok bool) {
	if s.Locked || s.Won {
		return FlipResult{}, false
	}
	if id < 0 || id >= len(s.Cards) {
		return FlipResult{}, false
	}
	if c := s.Cards[id]; c.Flipped || c.Matched {
		return FlipResult{}, false
	}

	next := s.Clone()
	next.Cards[id].Flipped = true
	next.FlippedCards = append(next.FlippedCards, id)

	if len(next.FlippedCards) == 1 {
		next.TimerRunning = true
		return FlipResult{State: next, Outcome: OutcomeFlipped}, true
	}

	first, second := next.FlippedCards[0], next.FlippedCards[1]
	pair := [2]int{first, second}
	next.Moves++

	if next.Cards[first].PairIndex != next.Cards[second].PairIndex {
		next.Locked = true
		return FlipResult{State: next, Outcome: OutcomeMismatch, Pair: pair}, true
	}

	next.Cards[first].Matched = true
	next.Cards[second].Matched = true
	next.FlippedCards = []int{}
	next.MatchedPairs++
	next.Locked = false
	next.Won = next.MatchedPairs == next.TotalPairs
	next.TimerRunning = !next.Won
	return FlipResult{State: next, Outcome: OutcomeMatch, Pair: pair, Won: next.Won}, true
}

// FlipBack turns the given cards face down, clears the face-up list and
// unlocks the board. Unknown ids are ignored and matched cards stay up.
func FlipBack(s State, ids []int) State {
	next := s.Clone()
	for _, id := range ids {
		if id >= 0 && id < len(next.Cards) && !next.Cards[id].Matched {
			next.Cards[id].Flipped = false
		}
	}
	next.FlippedCards = []int{}
	next.Locked = false
	return next
}

// CardsByPair groups card ids by pair index. Handy for tests and hints.
func CardsByPair(s State) map[int][]int {
	out := make(map[int][]int, s.TotalPairs)
	for _, c := range s.Cards {
		out[c.PairIndex] = append(out[c.PairIndex], c.ID)
	}
	return out
}
