package term

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/robalobadob/memory/apps/go-server/internal/controller"
	"github.com/robalobadob/memory/apps/go-server/internal/game"
	"github.com/robalobadob/memory/apps/go-server/internal/schedule"
	"github.com/robalobadob/memory/apps/go-server/internal/score"
)

type noShuffle struct{}

func (noShuffle) Shuffle(int, func(i, j int)) {}

func newHarness(t *testing.T) (*UI, tcell.SimulationScreen, *controller.Controller) {
	t.Helper()
	scr := tcell.NewSimulationScreen("UTF-8")
	if err := scr.Init(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(scr.Fini)
	scr.SetSize(80, 25)

	u := New(scr)
	c := controller.New(u, controller.Options{Scheduler: schedule.NewManual(), Shuffler: noShuffle{}})
	t.Cleanup(c.Close)
	return u, scr, c
}

func cell(scr tcell.SimulationScreen, x, y int) rune {
	r, _, _, _ := scr.GetContent(x, y)
	return r
}

func row(scr tcell.SimulationScreen, y int) string {
	w, _ := scr.Size()
	var b strings.Builder
	for x := 0; x < w; x++ {
		b.WriteRune(cell(scr, x, y))
	}
	return strings.TrimSpace(b.String())
}

func TestFaceDownBoard(t *testing.T) {
	_, scr, _ := newHarness(t)
	for id := 0; id < 12; id++ {
		x, y := cardOrigin(id, 4)
		if got := cell(scr, x+3, y+1); got != '?' {
			t.Fatalf("card %d shows %q, want '?'", id, got)
		}
	}
	if got := row(scr, 0); !strings.Contains(got, "[Easy]") || !strings.Contains(got, "Time: 0:00") {
		t.Fatalf("header = %q", got)
	}
}

func TestFlipShowsGlyph(t *testing.T) {
	_, scr, c := newHarness(t)
	if !c.CardClicked(0) {
		t.Fatal("flip rejected")
	}
	want := []rune(c.State().Cards[0].Character)[0]
	x, y := cardOrigin(0, 4)
	if got := cell(scr, x+3, y); got != want {
		t.Fatalf("card 0 shows %q, want %q", got, want)
	}
	if got := row(scr, 0); !strings.Contains(got, "Moves: 0") {
		t.Fatalf("header = %q", got)
	}
}

func TestKeysDriveController(t *testing.T) {
	u, scr, c := newHarness(t)

	scr.InjectKey(tcell.KeyEnter, 0, tcell.ModNone)
	scr.InjectKey(tcell.KeyRight, 0, tcell.ModNone)
	scr.InjectKey(tcell.KeyRune, ' ', tcell.ModNone)
	scr.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)
	u.Run(context.Background(), c, RunOptions{})

	s := c.State()
	if s.Moves != 1 || s.MatchedPairs != 1 {
		t.Fatalf("moves %d matched %d, want 1 1", s.Moves, s.MatchedPairs)
	}
}

func TestDifficultyAndCursorKeys(t *testing.T) {
	u, scr, c := newHarness(t)

	scr.InjectKey(tcell.KeyRune, '2', tcell.ModNone)
	for i := 0; i < 6; i++ {
		scr.InjectKey(tcell.KeyRune, 'l', tcell.ModNone)
	}
	scr.InjectKey(tcell.KeyRune, 'j', tcell.ModNone)
	scr.InjectKey(tcell.KeyEscape, 0, tcell.ModNone)
	u.Run(context.Background(), c, RunOptions{})

	if d := c.State().Difficulty; d != game.Medium {
		t.Fatalf("difficulty = %s", d)
	}
	if got := u.Cursor(); got != 7 {
		t.Fatalf("cursor = %d, want 7", got)
	}
}

func TestDailyKeyDealsDateSeededBoard(t *testing.T) {
	u, scr, c := newHarness(t)
	day := func() time.Time { return time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC) }

	scr.InjectKey(tcell.KeyRune, 'd', tcell.ModNone)
	scr.InjectKey(tcell.KeyCtrlC, 0, tcell.ModNone)
	u.Run(context.Background(), c, RunOptions{DailySalt: "salt", Now: day})
	first := c.State().Cards

	scr.InjectKey(tcell.KeyRune, 'n', tcell.ModNone)
	scr.InjectKey(tcell.KeyRune, 'd', tcell.ModNone)
	scr.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)
	u.Run(context.Background(), c, RunOptions{DailySalt: "salt", Now: day})

	for i, card := range c.State().Cards {
		if card.Character != first[i].Character {
			t.Fatalf("daily board differs at card %d", i)
		}
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	u, _, c := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		u.Run(ctx, c, RunOptions{})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestWinBannerAndBest(t *testing.T) {
	u, scr, _ := newHarness(t)

	u.SetBest(score.BestScores{game.Easy: {Moves: 7, Time: 42000}})
	if got := row(scr, 1); got != "Best: 7 moves, 0:42" {
		t.Fatalf("best line = %q", got)
	}

	u.ShowWin(6, 65*time.Second, true)
	if got := row(scr, 1); !strings.HasPrefix(got, "You won in 6 moves, 1:05! New best score!") {
		t.Fatalf("banner = %q", got)
	}
}
