package term

import (
	"context"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/memory/apps/go-server/internal/controller"
	"github.com/robalobadob/memory/apps/go-server/internal/daily"
	"github.com/robalobadob/memory/apps/go-server/internal/game"
)

// RunOptions configures the input loop.
type RunOptions struct {
	DailySalt string
	Now       func() time.Time // nil: time.Now
}

// Run reads key events until the player quits or ctx is canceled.
// The caller owns the screen (Init/Fini).
func (u *UI) Run(ctx context.Context, c *controller.Controller, opts RunOptions) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	u.SetBest(c.BestScores(ctx))

	stop := context.AfterFunc(ctx, func() {
		_ = u.scr.PostEvent(tcell.NewEventInterrupt(nil))
	})
	defer stop()

	for {
		switch e := u.scr.PollEvent().(type) {
		case nil:
			return // screen finalised
		case *tcell.EventInterrupt:
			if ctx.Err() != nil {
				return
			}
		case *tcell.EventResize:
			u.Redraw()
		case *tcell.EventKey:
			if handleQuit(e) {
				return
			}
			u.handleKey(ctx, c, e, opts)
		}
	}
}

func handleQuit(e *tcell.EventKey) bool {
	if e.Key() == tcell.KeyEscape || e.Key() == tcell.KeyCtrlC {
		return true
	}
	if e.Key() != tcell.KeyRune {
		return false
	}
	r := e.Rune()
	return r == 'q' || r == 'Q'
}

func (u *UI) handleKey(ctx context.Context, c *controller.Controller, e *tcell.EventKey, opts RunOptions) {
	switch e.Key() {
	case tcell.KeyLeft:
		u.Move(-1, 0)
		return
	case tcell.KeyRight:
		u.Move(1, 0)
		return
	case tcell.KeyUp:
		u.Move(0, -1)
		return
	case tcell.KeyDown:
		u.Move(0, 1)
		return
	case tcell.KeyEnter:
		c.CardClicked(u.Cursor())
		return
	case tcell.KeyRune:
	default:
		return
	}

	switch r := e.Rune(); r {
	case 'h':
		u.Move(-1, 0)
	case 'l':
		u.Move(1, 0)
	case 'k':
		u.Move(0, -1)
	case 'j':
		u.Move(0, 1)
	case ' ':
		c.CardClicked(u.Cursor())
	case '1', '2', '3':
		d := game.Difficulties()[r-'1']
		if err := c.SelectDifficulty(d); err != nil {
			log.Warn().Err(err).Msg("select difficulty")
		}
		u.SetBest(c.BestScores(ctx))
	case 'n', 'N':
		c.NewGame()
		u.SetBest(c.BestScores(ctx))
	case 'd', 'D':
		now := opts.Now()
		if err := c.NewGameWith(c.State().Difficulty, daily.Shuffler(now, opts.DailySalt)); err != nil {
			log.Warn().Err(err).Msg("daily game")
		}
		u.SetBest(c.BestScores(ctx))
	}
}
