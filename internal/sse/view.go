// apps/go-server/internal/sse/view.go
//
// Browser-facing renderer.
// View implements controller.Renderer by publishing every visual change as a
// server-sent event on the session's Feed. The page applies each event as a
// class toggle or text update.
//
// Event names:
//   grid, stats, timer, flip, unflip, matched, win
//
// Face-down cards never carry their glyph; a flip event reveals it.

package sse

import (
	"sync"
	"time"

	"github.com/robalobadob/memory/apps/go-server/internal/game"
	"github.com/robalobadob/memory/apps/go-server/internal/timer"
)

// Event names.
const (
	EventGrid    = "grid"
	EventStats   = "stats"
	EventTimer   = "timer"
	EventFlip    = "flip"
	EventUnflip  = "unflip"
	EventMatched = "matched"
	EventWin     = "win"
)

// CardView is a card as the browser may see it.
type CardView struct {
	ID        int    `json:"id"`
	Character string `json:"character,omitempty"`
	Meaning   string `json:"meaning,omitempty"`
	Flipped   bool   `json:"flipped"`
	Matched   bool   `json:"matched"`
}

// BoardView is the public projection of a game.State.
type BoardView struct {
	Difficulty   game.Difficulty `json:"difficulty"`
	Label        string          `json:"label"`
	Cols         int             `json:"cols"`
	Rows         int             `json:"rows"`
	Cards        []CardView      `json:"cards"`
	Moves        int             `json:"moves"`
	MatchedPairs int             `json:"matchedPairs"`
	TotalPairs   int             `json:"totalPairs"`
	Locked       bool            `json:"locked"`
	Won          bool            `json:"won"`
}

// Board projects s, hiding the faces of face-down cards.
func Board(s game.State) BoardView {
	cfg, _ := game.Config(s.Difficulty)
	out := BoardView{
		Difficulty:   s.Difficulty,
		Label:        cfg.Label,
		Cols:         cfg.Cols,
		Rows:         cfg.Rows,
		Cards:        make([]CardView, len(s.Cards)),
		Moves:        s.Moves,
		MatchedPairs: s.MatchedPairs,
		TotalPairs:   s.TotalPairs,
		Locked:       s.Locked,
		Won:          s.Won,
	}
	for i, c := range s.Cards {
		cv := CardView{ID: c.ID, Flipped: c.Flipped, Matched: c.Matched}
		if c.Flipped || c.Matched {
			cv.Character, cv.Meaning = c.Character, c.Meaning
		}
		out.Cards[i] = cv
	}
	return out
}

type statsPayload struct {
	Moves     int    `json:"moves"`
	Time      string `json:"time"`
	ElapsedMs int64  `json:"elapsedMs"`
}

type idsPayload struct {
	IDs []int `json:"ids"`
}

type winPayload struct {
	Moves     int    `json:"moves"`
	Time      string `json:"time"`
	ElapsedMs int64  `json:"elapsedMs"`
	NewBest   bool   `json:"newBest"`
}

// View publishes renderer calls to a Feed.
type View struct {
	feed *Feed

	mu        sync.Mutex
	faces     []game.Card // deck of the current board, for flip reveals
	lastTimer string
}

// NewView renders onto feed.
func NewView(feed *Feed) *View { return &View{feed: feed} }

// RenderGrid implements controller.Renderer.
func (v *View) RenderGrid(s game.State) {
	v.mu.Lock()
	v.faces = append([]game.Card(nil), s.Cards...)
	v.mu.Unlock()
	v.feed.Publish(EventGrid, Board(s))
}

// UpdateStats implements controller.Renderer.
func (v *View) UpdateStats(moves int, elapsed time.Duration) {
	text := timer.Format(elapsed)
	v.mu.Lock()
	v.lastTimer = text
	v.mu.Unlock()
	v.feed.Publish(EventStats, statsPayload{Moves: moves, Time: text, ElapsedMs: timer.Millis(elapsed)})
}

// UpdateTimer implements controller.Renderer. Only changes of the M:SS
// text are published; frames in between would redraw the same string.
func (v *View) UpdateTimer(elapsed time.Duration) {
	text := timer.Format(elapsed)
	v.mu.Lock()
	if text == v.lastTimer {
		v.mu.Unlock()
		return
	}
	v.lastTimer = text
	v.mu.Unlock()
	v.feed.Publish(EventTimer, statsPayload{Time: text, ElapsedMs: timer.Millis(elapsed)})
}

// FlipCard implements controller.Renderer.
func (v *View) FlipCard(id int) {
	cv := CardView{ID: id, Flipped: true}
	v.mu.Lock()
	if id >= 0 && id < len(v.faces) {
		cv.Character, cv.Meaning = v.faces[id].Character, v.faces[id].Meaning
	}
	v.mu.Unlock()
	v.feed.Publish(EventFlip, cv)
}

// UnflipCards implements controller.Renderer.
func (v *View) UnflipCards(ids []int) {
	v.feed.Publish(EventUnflip, idsPayload{IDs: ids})
}

// MarkMatched implements controller.Renderer.
func (v *View) MarkMatched(ids []int) {
	v.feed.Publish(EventMatched, idsPayload{IDs: ids})
}

// ShowWin implements controller.Renderer.
func (v *View) ShowWin(moves int, elapsed time.Duration, newBest bool) {
	v.feed.Publish(EventWin, winPayload{
		Moves:     moves,
		Time:      timer.Format(elapsed),
		ElapsedMs: timer.Millis(elapsed),
		NewBest:   newBest,
	})
}
