// apps/go-server/internal/httpserver/routes_daily.go
//
// HTTP routes for the "Daily Deck" mode.
//   - POST /daily/new → deal today's board in the caller's session
//
// Every player gets the same layout on the same UTC date: the deck is
// shuffled by a generator seeded from date + salt. Play is otherwise a
// normal game; best scores are shared with regular play.

package httpserver

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/memory/apps/go-server/internal/daily"
)

// dailyRes is the body of POST /daily/new.
type dailyRes struct {
	Date string `json:"date"`
	stateRes
}

// mountDaily registers all /daily routes.
func (s *Server) mountDaily(r chi.Router) {
	r.Route("/daily", func(r chi.Router) {
		r.Post("/new", s.handleDailyNew)
	})
}

// handleDailyNew deals the date-seeded board at the requested difficulty
// (default: the session's current one).
func (s *Server) handleDailyNew(w http.ResponseWriter, r *http.Request) {
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

	now := s.opts.Now().UTC()
	if err := sess.Controller.NewGameWith(d, daily.Shuffler(now, s.opts.DailySalt)); err != nil {
		writeError(w, http.StatusBadRequest, "unknown_difficulty")
		return
	}
	date := daily.DateKey(now)
	log.Info().Str("session", sess.ID).Str("date", date).Str("difficulty", string(d)).Msg("daily game")
	_ = json.NewEncoder(w).Encode(dailyRes{Date: date, stateRes: s.stateOf(r.Context(), sess.Controller)})
}
