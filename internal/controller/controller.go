// apps/go-server/internal/controller/controller.go
//
// Controller for one player's board.
// Responsibilities:
//   - Turn front-end input (card clicked, difficulty selected, new game) into
//     game-engine transitions.
//   - Push visual updates to the Renderer.
//   - Drive the stopwatch and record best scores on a win.
//   - Schedule delayed effects: reveal a match, flip back a mismatch, show the
//     win screen.
//
// Notes:
//   - Entry points and scheduled callbacks are serialized by one mutex, so the
//     engine still sees a single-threaded sequence of actions.
//   - Starting a new game cancels every pending effect of the previous one;
//     effects also carry the game generation and drop themselves if it moved.

package controller

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/memory/apps/go-server/internal/game"
	"github.com/robalobadob/memory/apps/go-server/internal/schedule"
	"github.com/robalobadob/memory/apps/go-server/internal/score"
	"github.com/robalobadob/memory/apps/go-server/internal/timer"
)

// Renderer is the visual side of the game. Implementations must not call
// back into the Controller from these methods, and must tolerate
// UpdateTimer arriving from the scheduler's goroutine.
type Renderer interface {
	RenderGrid(s game.State)
	UpdateStats(moves int, elapsed time.Duration)
	UpdateTimer(elapsed time.Duration)
	FlipCard(id int)
	UnflipCards(ids []int)
	MarkMatched(ids []int)
	ShowWin(moves int, elapsed time.Duration, newBest bool)
}

// Default delays for the visual effects.
const (
	DefaultFlipBackDelay = 1000 * time.Millisecond
	DefaultRevealDelay   = 300 * time.Millisecond
	DefaultWinDelay      = 600 * time.Millisecond
)

// Options configures a Controller. Zero values pick defaults.
type Options struct {
	Scores        *score.Book        // nil: in-memory book
	Scheduler     schedule.Scheduler // nil: schedule.Real
	Clock         func() time.Time   // nil: time.Now
	FrameInterval time.Duration      // timer sampling period
	Shuffler      game.Shuffler      // nil: game.DefaultShuffler
	Difficulty    game.Difficulty    // first board; empty: easy
	FlipBackDelay time.Duration
	RevealDelay   time.Duration
	WinDelay      time.Duration
}

func (o *Options) defaults() {
	if o.Scores == nil {
		o.Scores = score.NewBook(score.NewMemoryRepository())
	}
	if o.Scheduler == nil {
		o.Scheduler = schedule.Real{}
	}
	if o.Shuffler == nil {
		o.Shuffler = game.DefaultShuffler
	}
	if _, ok := game.Config(o.Difficulty); !ok {
		o.Difficulty = game.Easy
	}
	if o.FlipBackDelay <= 0 {
		o.FlipBackDelay = DefaultFlipBackDelay
	}
	if o.RevealDelay <= 0 {
		o.RevealDelay = DefaultRevealDelay
	}
	if o.WinDelay <= 0 {
		o.WinDelay = DefaultWinDelay
	}
}

// Controller owns the current game state for one player.
type Controller struct {
	mu      sync.Mutex
	opts    Options
	r       Renderer
	timer   *timer.Timer
	state   game.State
	gen     uint64
	seq     uint64
	pending map[uint64]schedule.Token
	closed  bool
}

// New builds a Controller, deals the first board and renders it.
func New(r Renderer, opts Options) *Controller {
	opts.defaults()
	c := &Controller{
		opts:    opts,
		r:       r,
		pending: make(map[uint64]schedule.Token),
	}
	c.timer = timer.New(opts.Clock, opts.Scheduler, opts.FrameInterval, r.UpdateTimer)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.startLocked(opts.Difficulty, opts.Shuffler)
	return c
}

// State returns a snapshot of the current game.
func (c *Controller) State() game.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// Elapsed returns the game clock.
func (c *Controller) Elapsed() time.Duration { return c.timer.Elapsed() }

// BestScores returns the stored best scores.
func (c *Controller) BestScores(ctx context.Context) score.BestScores {
	return c.opts.Scores.All(ctx)
}

// CardClicked flips card id. It reports whether the flip was accepted;
// rejected flips change nothing.
func (c *Controller) CardClicked(id int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}

	res, ok := game.Flip(c.state, id)
	if !ok {
		return false
	}
	c.state = res.State
	c.r.FlipCard(id)
	c.r.UpdateStats(c.state.Moves, c.timer.Elapsed())
	if c.state.TimerRunning {
		c.timer.Start()
	}

	switch res.Outcome {
	case game.OutcomeMatch:
		ids := res.Pair[:]
		c.afterLocked(c.opts.RevealDelay, func() { c.r.MarkMatched(ids) })
		if res.Won {
			c.winLocked()
		}
	case game.OutcomeMismatch:
		ids := res.Pair[:]
		c.afterLocked(c.opts.FlipBackDelay, func() {
			c.state = game.FlipBack(c.state, ids)
			c.r.UnflipCards(ids)
		})
	}
	return true
}

func (c *Controller) winLocked() {
	c.timer.Stop()
	elapsed := c.timer.Elapsed()
	moves := c.state.Moves
	_, newBest := c.opts.Scores.SaveBest(context.Background(), c.state.Difficulty, moves, elapsed)
	log.Info().
		Str("difficulty", string(c.state.Difficulty)).
		Int("moves", moves).
		Str("time", timer.Format(elapsed)).
		Bool("newBest", newBest).
		Msg("game won")
	c.afterLocked(c.opts.WinDelay, func() { c.r.ShowWin(moves, elapsed, newBest) })
}

// SelectDifficulty starts a new board at d. Selecting the current
// difficulty is a no-op.
func (c *Controller) SelectDifficulty(d game.Difficulty) error {
	if _, ok := game.Config(d); !ok {
		return game.ErrUnknownDifficulty
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || d == c.state.Difficulty {
		return nil
	}
	c.startLocked(d, c.opts.Shuffler)
	return nil
}

// NewGame deals a fresh board at the current difficulty.
func (c *Controller) NewGame() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.startLocked(c.state.Difficulty, c.opts.Shuffler)
}

// NewGameWith deals a board at d using sh, e.g. a daily shuffler. A nil
// sh uses the configured one.
func (c *Controller) NewGameWith(d game.Difficulty, sh game.Shuffler) error {
	if _, ok := game.Config(d); !ok {
		return game.ErrUnknownDifficulty
	}
	if sh == nil {
		sh = c.opts.Shuffler
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.startLocked(d, sh)
	return nil
}

// Close stops the timer and cancels pending effects. The Controller ignores
// input afterwards.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.cancelPendingLocked()
	c.timer.Stop()
}

func (c *Controller) startLocked(d game.Difficulty, sh game.Shuffler) {
	c.cancelPendingLocked()
	c.timer.Reset()

	s, err := game.New(d, sh)
	if err != nil {
		// Only reachable with a broken preset table.
		log.Error().Err(err).Str("difficulty", string(d)).Msg("deal")
		return
	}
	c.state = s
	c.r.RenderGrid(s.Clone())
	c.r.UpdateStats(0, 0)
}

func (c *Controller) cancelPendingLocked() {
	c.gen++
	for _, tok := range c.pending {
		tok.Cancel()
	}
	clear(c.pending)
}

// afterLocked schedules fn for the current game. fn runs with c.mu held.
func (c *Controller) afterLocked(delay time.Duration, fn func()) {
	gen := c.gen
	c.seq++
	id := c.seq
	c.pending[id] = c.opts.Scheduler.Schedule(delay, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.pending, id)
		if c.closed || gen != c.gen {
			return
		}
		fn()
	})
}
