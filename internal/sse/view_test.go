package sse

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/robalobadob/memory/apps/go-server/internal/game"
)

type noShuffle struct{}

func (noShuffle) Shuffle(int, func(i, j int)) {}

func drain(ch <-chan Event) []Event {
	var out []Event
	for {
		select {
		case e := <-ch:
			out = append(out, e)
		default:
			return out
		}
	}
}

func TestBoardHidesFaceDownCards(t *testing.T) {
	s, err := game.New(game.Easy, noShuffle{})
	if err != nil {
		t.Fatal(err)
	}
	res, _ := game.Flip(s, 3)
	b := Board(res.State)

	if b.Cols != 4 || b.Rows != 3 || b.Label != "Easy" || len(b.Cards) != 12 {
		t.Fatalf("board = %+v", b)
	}
	for _, c := range b.Cards {
		if c.ID == 3 {
			if c.Character == "" || !c.Flipped {
				t.Fatalf("face-up card hidden: %+v", c)
			}
			continue
		}
		if c.Character != "" || c.Meaning != "" {
			t.Fatalf("face-down card %d leaked its face", c.ID)
		}
	}
}

func TestViewPublishesEvents(t *testing.T) {
	feed := NewFeed()
	ch, cancel := feed.Subscribe()
	defer cancel()
	v := NewView(feed)

	s, _ := game.New(game.Easy, noShuffle{})
	v.RenderGrid(s)
	v.UpdateStats(0, 0)
	v.FlipCard(0)
	v.UnflipCards([]int{0, 2})
	v.MarkMatched([]int{4, 5})
	v.ShowWin(6, 65*time.Second, true)

	got := drain(ch)
	names := make([]string, len(got))
	for i, e := range got {
		names[i] = e.Name
	}
	want := []string{EventGrid, EventStats, EventFlip, EventUnflip, EventMatched, EventWin}
	if len(names) != len(want) {
		t.Fatalf("events = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("events = %v, want %v", names, want)
		}
	}

	var flip CardView
	if err := json.Unmarshal([]byte(got[2].Data), &flip); err != nil {
		t.Fatal(err)
	}
	if flip.ID != 0 || flip.Character != s.Cards[0].Character {
		t.Fatalf("flip payload = %+v", flip)
	}

	var win winPayload
	if err := json.Unmarshal([]byte(got[5].Data), &win); err != nil {
		t.Fatal(err)
	}
	if win.Moves != 6 || win.Time != "1:05" || win.ElapsedMs != 65000 || !win.NewBest {
		t.Fatalf("win payload = %+v", win)
	}
}

func TestViewThrottlesTimer(t *testing.T) {
	feed := NewFeed()
	ch, cancel := feed.Subscribe()
	defer cancel()
	v := NewView(feed)

	v.UpdateStats(0, 0)
	for ms := 0; ms <= 2100; ms += 16 {
		v.UpdateTimer(time.Duration(ms) * time.Millisecond)
	}
	var timers []string
	for _, e := range drain(ch) {
		if e.Name == EventTimer {
			var p statsPayload
			_ = json.Unmarshal([]byte(e.Data), &p)
			timers = append(timers, p.Time)
		}
	}
	if len(timers) != 2 || timers[0] != "0:01" || timers[1] != "0:02" {
		t.Fatalf("timer events = %v", timers)
	}
}

func TestFeedSubscribeCancel(t *testing.T) {
	feed := NewFeed()
	_, cancelA := feed.Subscribe()
	chB, cancelB := feed.Subscribe()
	if feed.Count() != 2 {
		t.Fatalf("Count() = %d", feed.Count())
	}
	cancelA()
	feed.Publish("ping", map[string]bool{"ok": true})
	if e := <-chB; e.Name != "ping" || e.Data != `{"ok":true}` {
		t.Fatalf("event = %+v", e)
	}
	cancelB()
	if feed.Count() != 0 {
		t.Fatalf("Count() = %d", feed.Count())
	}
	if _, open := <-chB; open {
		t.Fatal("channel not closed on cancel")
	}
}

func TestFeedSlowClientDoesNotBlock(t *testing.T) {
	feed := NewFeed()
	_, cancel := feed.Subscribe()
	defer cancel()
	start := time.Now()
	for i := 0; i < BufferSize+2; i++ {
		feed.Publish("x", i)
	}
	if time.Since(start) > 5*time.Second {
		t.Fatal("publish blocked on a full client")
	}
}

func TestEventFraming(t *testing.T) {
	var buf bytes.Buffer
	if _, err := (Event{Name: "flip", Data: `{"id":1}`}).WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "event: flip\ndata: {\"id\":1}\n\n" {
		t.Fatalf("framing = %q", got)
	}
}
