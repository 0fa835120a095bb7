package httpserver

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/robalobadob/memory/apps/go-server/internal/controller"
	"github.com/robalobadob/memory/apps/go-server/internal/game"
	"github.com/robalobadob/memory/apps/go-server/internal/schedule"
	"github.com/robalobadob/memory/apps/go-server/internal/score"
	"github.com/robalobadob/memory/apps/go-server/internal/store"
)

type noShuffle struct{}

func (noShuffle) Shuffle(int, func(i, j int)) {}

var day = time.Date(2024, 3, 9, 15, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) (*Server, *schedule.Manual) {
	t.Helper()
	sched := schedule.NewManual()
	s := New(store.NewMemoryStore(), score.NewBook(score.NewMemoryRepository()), Options{
		SessionSecret: "test-secret",
		CookieName:    "memory_session",
		DailySalt:     "salt",
		Now:           func() time.Time { return day },
		Controller: controller.Options{
			Scheduler: sched,
			Clock:     sched.Clock(day),
			Shuffler:  noShuffle{},
		},
	})
	return s, sched
}

// do sends a request, carrying cookie if non-nil, and returns the recorder.
func do(t *testing.T, s *Server, method, path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == "memory_session" {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func decodeState(t *testing.T, rec *httptest.ResponseRecorder) stateRes {
	t.Helper()
	var st stateRes
	if err := json.NewDecoder(rec.Body).Decode(&st); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return st
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK || rec.Body.String() != `{"ok":true}` {
		t.Fatalf("health = %d %q", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("Content-Type = %q", ct)
	}
}

func TestStateCreatesSession(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/game/state", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	cookie := sessionCookie(t, rec)
	if !cookie.HttpOnly {
		t.Fatal("session cookie not HttpOnly")
	}
	st := decodeState(t, rec)
	if st.Board.Difficulty != game.Easy || len(st.Board.Cards) != 12 || st.Time != "0:00" {
		t.Fatalf("state = %+v", st)
	}
	for _, c := range st.Board.Cards {
		if c.Character != "" {
			t.Fatalf("face-down card %d exposed", c.ID)
		}
	}
}

func TestFlipKeepsSessionAcrossRequests(t *testing.T) {
	s, _ := newTestServer(t)
	cookie := sessionCookie(t, do(t, s, http.MethodGet, "/game/state", "", nil))

	for _, id := range []int{0, 1} {
		rec := do(t, s, http.MethodPost, "/game/flip", `{"cardId":`+strconv.Itoa(id)+`}`, cookie)
		var res flipRes
		if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
			t.Fatal(err)
		}
		if !res.Accepted {
			t.Fatalf("flip %d rejected", id)
		}
	}

	st := decodeState(t, do(t, s, http.MethodGet, "/game/state", "", cookie))
	if st.Board.Moves != 1 || st.Board.MatchedPairs != 1 {
		t.Fatalf("state = moves %d matched %d", st.Board.Moves, st.Board.MatchedPairs)
	}
	if c := st.Board.Cards[0]; !c.Matched || c.Character == "" {
		t.Fatalf("matched card = %+v", c)
	}

	rec := do(t, s, http.MethodPost, "/game/flip", `{"cardId":0}`, cookie)
	var res flipRes
	_ = json.NewDecoder(rec.Body).Decode(&res)
	if res.Accepted {
		t.Fatal("matched card accepted a flip")
	}
}

func TestFlipBadRequests(t *testing.T) {
	s, _ := newTestServer(t)
	for _, body := range []string{"", "{", `{}`, `{"cardId":"x"}`} {
		rec := do(t, s, http.MethodPost, "/game/flip", body, nil)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %q: status = %d", body, rec.Code)
		}
	}
}

func TestInvalidCookieGetsFreshSession(t *testing.T) {
	s, _ := newTestServer(t)
	bad := &http.Cookie{Name: "memory_session", Value: "not-a-token"}
	rec := do(t, s, http.MethodGet, "/game/state", "", bad)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if c := sessionCookie(t, rec); c.Value == bad.Value {
		t.Fatal("invalid token reused")
	}

	forged, _, _ := (&Server{opts: Options{SessionSecret: "other", Now: time.Now}}).signSession("3f1c1c4e-6a39-4d0f-9a5e-3e3c1f7a2b10")
	if id := s.parseSession(forged); id != "" {
		t.Fatalf("token signed with another secret accepted: %q", id)
	}
}

func TestDifficulty(t *testing.T) {
	s, _ := newTestServer(t)
	cookie := sessionCookie(t, do(t, s, http.MethodGet, "/game/state", "", nil))

	tests := []struct {
		body  string
		code  int
		cards int
	}{
		{`{"difficulty":"medium"}`, http.StatusOK, 16},
		{`{"difficulty":"HARD"}`, http.StatusOK, 24},
		{`{"difficulty":"impossible"}`, http.StatusBadRequest, 0},
		{`{}`, http.StatusBadRequest, 0},
		{`nope`, http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		rec := do(t, s, http.MethodPost, "/game/difficulty", tt.body, cookie)
		if rec.Code != tt.code {
			t.Fatalf("%s: status = %d, want %d", tt.body, rec.Code, tt.code)
		}
		if tt.code == http.StatusOK {
			if st := decodeState(t, rec); len(st.Board.Cards) != tt.cards {
				t.Fatalf("%s: %d cards, want %d", tt.body, len(st.Board.Cards), tt.cards)
			}
		}
	}
}

func TestNewGameResetsBoard(t *testing.T) {
	s, _ := newTestServer(t)
	cookie := sessionCookie(t, do(t, s, http.MethodGet, "/game/state", "", nil))
	do(t, s, http.MethodPost, "/game/flip", `{"cardId":0}`, cookie)
	do(t, s, http.MethodPost, "/game/flip", `{"cardId":2}`, cookie)

	st := decodeState(t, do(t, s, http.MethodPost, "/game/new", "", cookie))
	if st.Board.Moves != 0 || st.Board.Locked || st.Board.Difficulty != game.Easy {
		t.Fatalf("new game state = %+v", st.Board)
	}

	st = decodeState(t, do(t, s, http.MethodPost, "/game/new", `{"difficulty":"medium"}`, cookie))
	if st.Board.Difficulty != game.Medium || len(st.Board.Cards) != 16 {
		t.Fatalf("new medium game = %+v", st.Board)
	}
}

func TestWinRecordsBestScore(t *testing.T) {
	s, sched := newTestServer(t)
	cookie := sessionCookie(t, do(t, s, http.MethodGet, "/game/state", "", nil))

	for id := 0; id < 12; id++ {
		if id == 1 {
			sched.Advance(3 * time.Second)
		}
		body, _ := json.Marshal(flipReq{CardID: &id})
		do(t, s, http.MethodPost, "/game/flip", string(body), cookie)
	}

	rec := do(t, s, http.MethodGet, "/scores", "", nil)
	var best score.BestScores
	if err := json.NewDecoder(rec.Body).Decode(&best); err != nil {
		t.Fatal(err)
	}
	if b, ok := best[game.Easy]; !ok || b.Moves != 6 || b.Time != 3000 {
		t.Fatalf("best = %+v", best)
	}
}

func TestDailyDealsSameBoardForEveryone(t *testing.T) {
	s, _ := newTestServer(t)

	var boards [2][]game.Card
	for i := range boards {
		rec := do(t, s, http.MethodPost, "/daily/new", `{"difficulty":"medium"}`, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var res dailyRes
		if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
			t.Fatal(err)
		}
		if res.Date != "2024-03-09" || res.Board.Difficulty != game.Medium {
			t.Fatalf("daily = %s %s", res.Date, res.Board.Difficulty)
		}
		id := s.parseSession(sessionCookie(t, rec).Value)
		sess, err := s.store.Get(context.Background(), id)
		if err != nil {
			t.Fatal(err)
		}
		boards[i] = sess.Controller.State().Cards
	}
	for i := range boards[0] {
		if boards[0][i].Character != boards[1][i].Character {
			t.Fatalf("daily layouts differ at card %d", i)
		}
	}
}

func TestEventsStream(t *testing.T) {
	s, _ := newTestServer(t)
	ts := httptest.NewServer(s.Router())
	defer ts.Close()

	rec := do(t, s, http.MethodGet, "/game/state", "", nil)
	cookie := sessionCookie(t, rec)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/game/events", nil)
	req.AddCookie(cookie)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q", ct)
	}

	lines := bufio.NewScanner(resp.Body)
	next := func() string {
		for lines.Scan() {
			if l := lines.Text(); strings.HasPrefix(l, "event: ") {
				return strings.TrimPrefix(l, "event: ")
			}
		}
		t.Fatal("stream ended")
		return ""
	}
	if e := next(); e != "state" {
		t.Fatalf("first event = %q", e)
	}

	flip, _ := http.NewRequest(http.MethodPost, ts.URL+"/game/flip", strings.NewReader(`{"cardId":5}`))
	flip.AddCookie(cookie)
	fr, err := http.DefaultClient.Do(flip)
	if err != nil {
		t.Fatal(err)
	}
	fr.Body.Close()

	for {
		if e := next(); e == "flip" {
			break
		}
	}
}
