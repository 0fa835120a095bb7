// apps/go-server/internal/httpserver/session.go
//
// Browser sessions.
// Responsibilities:
//   - Sign/verify the session cookie (HS256 JWT carrying the session id).
//   - Attach the caller's session to the request context.
//   - Create a session (controller + SSE feed) on first use.

package httpserver

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/memory/apps/go-server/internal/controller"
	"github.com/robalobadob/memory/apps/go-server/internal/sse"
	"github.com/robalobadob/memory/apps/go-server/internal/store"
)

// cookieLifetime bounds how long a browser keeps its session id. The session
// itself may be swept earlier; a stale id then just gets a fresh session.
const cookieLifetime = 30 * 24 * time.Hour

type contextKey string

var sessionCtxKey = contextKey("session")

// signSession returns a signed token for id and its expiry.
func (s *Server) signSession(id string) (string, time.Time, error) {
	now := s.opts.Now()
	exp := now.Add(cookieLifetime)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sid": id,
		"exp": exp.Unix(),
		"iat": now.Unix(),
	})
	ss, err := token.SignedString([]byte(s.opts.SessionSecret))
	return ss, exp, err
}

// parseSession verifies a token and returns its session id, or "".
func (s *Server) parseSession(tokenStr string) string {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.opts.SessionSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.opts.Now))
	if err != nil || !token.Valid {
		return ""
	}
	id, _ := claims["sid"].(string)
	if _, err := uuid.Parse(id); err != nil {
		return ""
	}
	return id
}

func (s *Server) setSessionCookie(w http.ResponseWriter, token string, exp time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.opts.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  exp,
	})
}

// bearerOrCookie extracts the session token from the Authorization header
// or the session cookie.
func (s *Server) bearerOrCookie(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(s.opts.CookieName); err == nil {
		return c.Value
	}
	return ""
}

// withSession attaches an existing session to the request context. Requests
// without one pass through; handlers create sessions lazily.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if tok := s.bearerOrCookie(r); tok != "" {
			if id := s.parseSession(tok); id != "" {
				if sess, err := s.store.Get(r.Context(), id); err == nil {
					sess.Touch(s.opts.Now())
					r = r.WithContext(context.WithValue(r.Context(), sessionCtxKey, sess))
				}
			}
		}
		next.ServeHTTP(w, r)
	})
}

// currentSession returns the session attached by withSession, if any.
func currentSession(r *http.Request) *store.Session {
	sess, _ := r.Context().Value(sessionCtxKey).(*store.Session)
	return sess
}

// ensureSession returns the caller's session, creating one and setting the
// cookie if needed.
func (s *Server) ensureSession(w http.ResponseWriter, r *http.Request) (*store.Session, error) {
	if sess := currentSession(r); sess != nil {
		return sess, nil
	}

	id := uuid.NewString()
	token, exp, err := s.signSession(id)
	if err != nil {
		log.Error().Err(err).Msg("sign session")
		return nil, err
	}

	feed := sse.NewFeed()
	sess := &store.Session{
		ID:         id,
		Controller: controller.New(sse.NewView(feed), s.opts.Controller),
		Feed:       feed,
		Created:    s.opts.Now(),
	}
	if err := s.store.Save(r.Context(), sess); err != nil {
		sess.Controller.Close()
		log.Error().Err(err).Msg("save session")
		return nil, err
	}
	s.setSessionCookie(w, token, exp)
	log.Info().Str("session", id).Msg("session created")
	return sess, nil
}
