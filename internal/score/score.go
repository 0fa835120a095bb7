// apps/go-server/internal/score/score.go
//
// Best-score bookkeeping.
//
// All best scores live in a single key-value record (difficulty → {moves,
// time}). Storage sits behind Repository so the game can run against
// SQLite, memory, or a fake in tests.
//
// Failure policy:
//   - Unreadable or malformed data reads as "no record".
//   - Write failures are logged; they never reach the player.

package score

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/memory/apps/go-server/internal/game"
)

// Key is the name of the single persisted record.
const Key = "memory-game-best-scores"

// BestScore is the best result for one difficulty. Time is milliseconds.
type BestScore struct {
	Moves int   `json:"moves"`
	Time  int64 `json:"time"`
}

// Better reports whether a beats b: fewer moves, or equal moves and less time.
func Better(a, b BestScore) bool {
	if a.Moves != b.Moves {
		return a.Moves < b.Moves
	}
	return a.Time < b.Time
}

// BestScores maps a difficulty to its record. A missing key means no record yet.
type BestScores map[game.Difficulty]BestScore

// Repository loads and stores the whole mapping.
type Repository interface {
	Load(ctx context.Context) (BestScores, error)
	Store(ctx context.Context, scores BestScores) error
}

// Decode parses a stored record. Entries with unknown difficulties, missing
// fields or negative values are dropped; input that is not a JSON object
// yields an empty mapping.
func Decode(raw []byte) BestScores {
	out := BestScores{}
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return out
	}
	for k, v := range entries {
		d := game.Difficulty(k)
		if _, ok := game.Config(d); !ok {
			continue
		}
		var e struct {
			Moves *int   `json:"moves"`
			Time  *int64 `json:"time"`
		}
		if err := json.Unmarshal(v, &e); err != nil || e.Moves == nil || e.Time == nil {
			continue
		}
		if *e.Moves < 0 || *e.Time < 0 {
			continue
		}
		out[d] = BestScore{Moves: *e.Moves, Time: *e.Time}
	}
	return out
}

// Encode serializes scores in the stored layout.
func Encode(scores BestScores) ([]byte, error) {
	if scores == nil {
		scores = BestScores{}
	}
	return json.Marshal(scores)
}

// Book applies the best-score rule on top of a Repository.
type Book struct {
	mu   sync.Mutex // serializes read-modify-write
	repo Repository
}

// NewBook wraps repo.
func NewBook(repo Repository) *Book { return &Book{repo: repo} }

// All returns the current records; read failures yield an empty mapping.
func (b *Book) All(ctx context.Context) BestScores {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loadLocked(ctx)
}

func (b *Book) loadLocked(ctx context.Context) BestScores {
	scores, err := b.repo.Load(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("load best scores")
		return BestScores{}
	}
	if scores == nil {
		scores = BestScores{}
	}
	return scores
}

// SaveBest records a finished game. When there is no record for d yet, or
// the result is strictly better, it is stored and returned with true.
// Otherwise nothing changes and ok is false.
func (b *Book) SaveBest(ctx context.Context, d game.Difficulty, moves int, elapsed time.Duration) (BestScore, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	candidate := BestScore{Moves: moves, Time: elapsed.Milliseconds()}
	scores := b.loadLocked(ctx)
	if existing, ok := scores[d]; ok && !Better(candidate, existing) {
		return BestScore{}, false
	}

	scores[d] = candidate
	if err := b.repo.Store(ctx, scores); err != nil {
		log.Warn().Err(err).Str("difficulty", string(d)).Msg("store best score")
	}
	log.Info().Str("difficulty", string(d)).Int("moves", moves).Int64("timeMs", candidate.Time).Msg("new best score")
	return candidate, true
}
