// apps/go-server/internal/httpserver/server.go
//
// HTTP server wiring for the browser front-end.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Static UI: "/", "/static/*" served from the embedded assets.
//   - Game endpoints: POST /game/new, /game/difficulty, /game/flip; GET /game/state.
//   - Live updates: GET /game/events (Server-Sent Events, no timeout).
//   - Best scores: GET /scores.
//   - Daily deck endpoints: mounted under /daily.
//
// Notes:
//   - Each browser gets a session (controller + SSE feed) identified by a
//     signed cookie; there are no accounts.
//   - Input is forwarded to the controller as discrete actions only
//     (card clicked, difficulty selected, new game).

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/memory/apps/go-server/assets"
	"github.com/robalobadob/memory/apps/go-server/internal/controller"
	"github.com/robalobadob/memory/apps/go-server/internal/game"
	"github.com/robalobadob/memory/apps/go-server/internal/score"
	"github.com/robalobadob/memory/apps/go-server/internal/sse"
	"github.com/robalobadob/memory/apps/go-server/internal/store"
	"github.com/robalobadob/memory/apps/go-server/internal/timer"
)

// Options configures a Server.
type Options struct {
	ClientOrigin  string
	SessionSecret string
	CookieName    string
	SessionTTL    time.Duration
	DailySalt     string
	Controller    controller.Options // per-session controller settings
	Now           func() time.Time   // nil: time.Now
}

// Server bundles router, session store, and best-score book.
type Server struct {
	r      *chi.Mux
	store  store.Store
	scores *score.Book
	opts   Options
}

// New constructs a Server, installs middleware, and registers routes.
func New(st store.Store, book *score.Book, opts Options) *Server {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.CookieName == "" {
		opts.CookieName = "memory_session"
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 12 * time.Hour
	}
	opts.Controller.Scores = book

	s := &Server{r: chi.NewRouter(), store: st, scores: book, opts: opts}

	// --- middleware ---
	s.r.Use(chimw.RequestID) // add X-Request-ID
	s.r.Use(chimw.RealIP)    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(chimw.Recoverer) // recover from panics
	s.r.Use(s.cors)          // single-origin CORS
	s.r.Use(s.withSession)   // attach session from cookie, if any

	// --- static UI ---
	s.r.Get("/", s.handleIndex)
	static, _ := fs.Sub(assets.FS, "web")
	s.r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	// --- JSON API ---
	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
		r.Use(jsonContentType)                 // default JSON responses

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"ok":true}`))
		})
		r.Get("/scores", s.handleScores)

		r.Post("/game/new", s.handleNewGame)
		r.Post("/game/difficulty", s.handleDifficulty)
		r.Post("/game/flip", s.handleFlip)
		r.Get("/game/state", s.handleState)

		s.mountDaily(r)
	})

	// SSE is long-lived; no timeout middleware.
	s.r.Get("/game/events", s.handleEvents)

	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found")
	})

	return s
}

// Start serves HTTP on addr until ctx is canceled, sweeping idle sessions
// in the background.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.r, ReadHeaderTimeout: 5 * time.Second}

	go s.sweepLoop(ctx)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) sweepLoop(ctx context.Context) {
	every := s.opts.SessionTTL / 4
	if every < time.Minute {
		every = time.Minute
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := s.store.Sweep(ctx, s.opts.Now().Add(-s.opts.SessionTTL)); n > 0 {
				log.Info().Int("sessions", n).Msg("swept idle sessions")
			}
		}
	}
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for the configured origin.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.opts.ClientOrigin != "" {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", s.opts.ClientOrigin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// writeError writes a JSON error body like {"error":"bad_json"}.
func writeError(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code})
}

// ------------------------------ static -------------------------------------

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := assets.Index()
	if err != nil {
		log.Error().Err(err).Msg("read index.html")
		http.Error(w, "missing index", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}

// ------------------------------ GAME ---------------------------------------

// stateRes is the body of every game endpoint.
type stateRes struct {
	Board     sse.BoardView    `json:"board"`
	Time      string           `json:"time"`
	ElapsedMs int64            `json:"elapsedMs"`
	Best      score.BestScores `json:"best"`
}

func (s *Server) stateOf(ctx context.Context, c *controller.Controller) stateRes {
	elapsed := c.Elapsed()
	return stateRes{
		Board:     sse.Board(c.State()),
		Time:      timer.Format(elapsed),
		ElapsedMs: timer.Millis(elapsed),
		Best:      s.scores.All(ctx),
	}
}

// difficultyReq is the body of POST /game/new, /game/difficulty and /daily/new.
type difficultyReq struct {
	Difficulty string `json:"difficulty"`
}

// decodeDifficulty reads an optional difficulty; empty means fallback.
func decodeDifficulty(r *http.Request, fallback game.Difficulty) (game.Difficulty, error) {
	var req difficultyReq
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			return "", errBadJSON
		}
	}
	if req.Difficulty == "" {
		return fallback, nil
	}
	return game.ParseDifficulty(req.Difficulty)
}

var errBadJSON = errors.New("bad_json")

func writeDecodeError(w http.ResponseWriter, err error) {
	if errors.Is(err, errBadJSON) {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	writeError(w, http.StatusBadRequest, "unknown_difficulty")
}

// handleNewGame deals a fresh board (optionally at a new difficulty) in the
// caller's session, creating the session on first use.
func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	sess, err := s.ensureSession(w, r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "session_failed")
		return
	}
	d, err := decodeDifficulty(r, sess.Controller.State().Difficulty)
	if err != nil {
		writeDecodeError(w, err)
		return
	}
	if err := sess.Controller.NewGameWith(d, nil); err != nil {
		writeError(w, http.StatusBadRequest, "unknown_difficulty")
		return
	}
	log.Debug().Str("session", sess.ID).Str("difficulty", string(d)).Msg("new game")
	_ = json.NewEncoder(w).Encode(s.stateOf(r.Context(), sess.Controller))
}

// handleDifficulty switches difficulty; the current one is a no-op.
func (s *Server) handleDifficulty(w http.ResponseWriter, r *http.Request) {
	sess, err := s.ensureSession(w, r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "session_failed")
		return
	}
	d, err := decodeDifficulty(r, "")
	if err == nil && d == "" {
		err = game.ErrUnknownDifficulty
	}
	if err != nil {
		writeDecodeError(w, err)
		return
	}
	if err := sess.Controller.SelectDifficulty(d); err != nil {
		writeError(w, http.StatusBadRequest, "unknown_difficulty")
		return
	}
	_ = json.NewEncoder(w).Encode(s.stateOf(r.Context(), sess.Controller))
}

// flipReq/Res payloads for POST /game/flip.
type flipReq struct {
	CardID *int `json:"cardId"`
}
type flipRes struct {
	Accepted bool `json:"accepted"`
	stateRes
}

// handleFlip forwards a card click. Rejected flips are a normal 200 with
// accepted=false; the board just does not change.
func (s *Server) handleFlip(w http.ResponseWriter, r *http.Request) {
	var req flipReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CardID == nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	sess, err := s.ensureSession(w, r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "session_failed")
		return
	}
	accepted := sess.Controller.CardClicked(*req.CardID)
	_ = json.NewEncoder(w).Encode(flipRes{Accepted: accepted, stateRes: s.stateOf(r.Context(), sess.Controller)})
}

// handleState returns the caller's board.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	sess, err := s.ensureSession(w, r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "session_failed")
		return
	}
	_ = json.NewEncoder(w).Encode(s.stateOf(r.Context(), sess.Controller))
}

// handleScores returns the best score per difficulty.
func (s *Server) handleScores(w http.ResponseWriter, r *http.Request) {
	_ = json.NewEncoder(w).Encode(s.scores.All(r.Context()))
}

// ------------------------------- SSE ---------------------------------------

// handleEvents streams the session's renderer events. The current board is
// sent first so a reconnecting page can redraw.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	sess, err := s.ensureSession(w, r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "session_failed")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming_unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // disable buffering in nginx/proxies

	events, cancel := sess.Feed.Subscribe()
	defer cancel()

	st := s.stateOf(r.Context(), sess.Controller)
	initial, _ := json.Marshal(st)
	_, _ = sse.Event{Name: "state", Data: string(initial)}.WriteTo(w)
	flusher.Flush()

	log.Debug().Str("session", sess.ID).Msg("sse: client connected")
	for {
		select {
		case <-r.Context().Done():
			log.Debug().Str("session", sess.ID).Msg("sse: client disconnected")
			return
		case e, open := <-events:
			if !open {
				return
			}
			if _, err := e.WriteTo(w); err != nil {
				return
			}
			flusher.Flush()
			sess.Touch(s.opts.Now())
		}
	}
}
