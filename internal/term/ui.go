// apps/go-server/internal/term/ui.go
//
// Terminal front-end.
// UI implements controller.Renderer on a tcell screen and turns key presses
// into controller actions.
//
// Layout:
//   row 0      title, difficulty, moves, time
//   row 1      best score for the current difficulty / win banner
//   rows 3..   card grid, each card cardW x cardH cells
//   last row   key help
//
// Renderer calls arrive under the controller's lock (and UpdateTimer from
// the scheduler goroutine), so all drawing goes through ui.mu.

package term

import (
	"fmt"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"github.com/robalobadob/memory/apps/go-server/internal/game"
	"github.com/robalobadob/memory/apps/go-server/internal/score"
	"github.com/robalobadob/memory/apps/go-server/internal/timer"
)

const (
	cardW  = 8
	cardH  = 3
	gapX   = 1
	gapY   = 1
	gridY  = 3
	gridX  = 1
	helpTx = "←↑↓→/hjkl move  enter/space flip  1/2/3 difficulty  n new  d daily  q quit"
)

var (
	styleText    = tcell.StyleDefault
	styleTitle   = tcell.StyleDefault.Bold(true)
	styleBack    = tcell.StyleDefault.Background(tcell.ColorSteelBlue).Foreground(tcell.ColorWhite)
	styleFace    = tcell.StyleDefault.Background(tcell.ColorWhite).Foreground(tcell.ColorBlack)
	styleMatched = tcell.StyleDefault.Background(tcell.ColorDarkOliveGreen).Foreground(tcell.ColorWhite)
	styleWin     = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	styleHelp    = tcell.StyleDefault.Foreground(tcell.ColorGray)
)

type cardCell struct {
	character string
	meaning   string
	faceUp    bool
	matched   bool
}

// UI draws the board on a tcell.Screen.
type UI struct {
	scr tcell.Screen

	mu         sync.Mutex
	difficulty game.Difficulty
	label      string
	cols       int
	cards      []cardCell
	cursor     int
	moves      int
	clock      string
	best       score.BestScores
	banner     string
}

// New wraps an initialised screen.
func New(scr tcell.Screen) *UI {
	return &UI{scr: scr, clock: timer.Format(0)}
}

// RenderGrid implements controller.Renderer.
func (u *UI) RenderGrid(s game.State) {
	cfg, _ := game.Config(s.Difficulty)
	u.mu.Lock()
	defer u.mu.Unlock()
	u.difficulty, u.label, u.cols = s.Difficulty, cfg.Label, cfg.Cols
	u.cards = make([]cardCell, len(s.Cards))
	for i, c := range s.Cards {
		u.cards[i] = cardCell{character: c.Character, meaning: c.Meaning, faceUp: c.Flipped || c.Matched, matched: c.Matched}
	}
	if u.cursor >= len(u.cards) {
		u.cursor = 0
	}
	u.banner = ""
	u.drawLocked()
}

// UpdateStats implements controller.Renderer.
func (u *UI) UpdateStats(moves int, elapsed time.Duration) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.moves, u.clock = moves, timer.Format(elapsed)
	u.drawLocked()
}

// UpdateTimer implements controller.Renderer.
func (u *UI) UpdateTimer(elapsed time.Duration) {
	text := timer.Format(elapsed)
	u.mu.Lock()
	defer u.mu.Unlock()
	if text == u.clock {
		return
	}
	u.clock = text
	u.drawLocked()
}

// FlipCard implements controller.Renderer.
func (u *UI) FlipCard(id int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if id >= 0 && id < len(u.cards) {
		u.cards[id].faceUp = true
	}
	u.drawLocked()
}

// UnflipCards implements controller.Renderer.
func (u *UI) UnflipCards(ids []int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, id := range ids {
		if id >= 0 && id < len(u.cards) && !u.cards[id].matched {
			u.cards[id].faceUp = false
		}
	}
	u.drawLocked()
}

// MarkMatched implements controller.Renderer.
func (u *UI) MarkMatched(ids []int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, id := range ids {
		if id >= 0 && id < len(u.cards) {
			u.cards[id].matched, u.cards[id].faceUp = true, true
		}
	}
	u.drawLocked()
}

// ShowWin implements controller.Renderer.
func (u *UI) ShowWin(moves int, elapsed time.Duration, newBest bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.banner = fmt.Sprintf("You won in %d moves, %s!", moves, timer.Format(elapsed))
	if newBest {
		u.banner += " New best score!"
	}
	u.banner += " Press n to play again."
	u.drawLocked()
}

// SetBest updates the best-score line.
func (u *UI) SetBest(best score.BestScores) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.best = best
	u.drawLocked()
}

// Cursor returns the selected card id.
func (u *UI) Cursor() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.cursor
}

// Move shifts the cursor by dx columns and dy rows, clamped to the grid.
func (u *UI) Move(dx, dy int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.cols == 0 || len(u.cards) == 0 {
		return
	}
	rows := len(u.cards) / u.cols
	col := clamp(u.cursor%u.cols+dx, 0, u.cols-1)
	row := clamp(u.cursor/u.cols+dy, 0, rows-1)
	u.cursor = row*u.cols + col
	u.drawLocked()
}

// Redraw repaints everything, e.g. after a resize.
func (u *UI) Redraw() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.scr.Sync()
	u.drawLocked()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (u *UI) drawLocked() {
	u.scr.Clear()

	head := fmt.Sprintf("Memory  [%s]  Moves: %d  Time: %s", u.label, u.moves, u.clock)
	drawText(u.scr, gridX, 0, head, styleTitle)

	if u.banner != "" {
		drawText(u.scr, gridX, 1, u.banner, styleWin)
	} else if b, ok := u.best[u.difficulty]; ok {
		drawText(u.scr, gridX, 1, fmt.Sprintf("Best: %d moves, %s", b.Moves, timer.Format(time.Duration(b.Time)*time.Millisecond)), styleText)
	} else {
		drawText(u.scr, gridX, 1, "Best: -", styleText)
	}

	for i, c := range u.cards {
		x, y := cardOrigin(i, u.cols)
		u.drawCard(x, y, c, i == u.cursor)
	}

	_, h := u.scr.Size()
	drawText(u.scr, gridX, h-1, helpTx, styleHelp)
	u.scr.Show()
}

// cardOrigin is the top-left cell of card id.
func cardOrigin(id, cols int) (int, int) {
	return gridX + (id%cols)*(cardW+gapX), gridY + (id/cols)*(cardH+gapY)
}

func (u *UI) drawCard(x, y int, c cardCell, selected bool) {
	st := styleBack
	switch {
	case c.matched:
		st = styleMatched
	case c.faceUp:
		st = styleFace
	}
	if selected {
		st = st.Reverse(true)
	}
	for dy := 0; dy < cardH; dy++ {
		for dx := 0; dx < cardW; dx++ {
			u.scr.SetContent(x+dx, y+dy, ' ', nil, st)
		}
	}
	if !c.faceUp {
		drawCentered(u.scr, x, y+1, "?", st)
		return
	}
	drawCentered(u.scr, x, y, c.character, st.Bold(true))
	drawCentered(u.scr, x, y+2, runewidth.Truncate(c.meaning, cardW, ""), st)
}

// drawText writes text from (x, y), advancing by each rune's cell width.
func drawText(s tcell.Screen, x, y int, text string, st tcell.Style) {
	for _, ch := range text {
		s.SetContent(x, y, ch, nil, st)
		x += runewidth.RuneWidth(ch)
	}
}

// drawCentered centres text within a card starting at column x.
func drawCentered(s tcell.Screen, x, y int, text string, st tcell.Style) {
	drawText(s, x+(cardW-runewidth.StringWidth(text))/2, y, text, st)
}
