// apps/go-server/internal/config/config.go
//
// Runtime configuration from environment variables (optionally via .env).
//
// Environment variables:
//   UI=web|term               front-end to start (default web)
//   ADDR=127.0.0.1            listen address for the web UI
//   PORT=5175                 listen port for the web UI
//   LOG_LEVEL=info            zerolog level
//   SCORES_DB=./data/scores.db  SQLite file; empty keeps scores in memory
//   CLIENT_ORIGIN=...         CORS origin (defaults to the UI's own origin)
//   SESSION_SECRET=...        HMAC key for the session cookie
//   COOKIE_NAME=memory_session
//   SESSION_TTL=12h           idle sessions are dropped after this long
//   DAILY_SALT=local_dev_salt
//   DIFFICULTY=easy           first board
//   FRAME_INTERVAL=16ms       timer sampling period
//   FLIP_BACK_DELAY=1s, REVEAL_DELAY=300ms, WIN_DELAY=600ms

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/memory/apps/go-server/internal/game"
)

// UI values.
const (
	UIWeb  = "web"
	UITerm = "term"
)

// Config is the fully resolved runtime configuration.
type Config struct {
	UI            string
	Addr          string
	Port          int
	LogLevel      string
	ScoresDB      string
	ClientOrigin  string
	SessionSecret string
	CookieName    string
	SessionTTL    time.Duration
	DailySalt     string
	Difficulty    game.Difficulty
	FrameInterval time.Duration
	FlipBackDelay time.Duration
	RevealDelay   time.Duration
	WinDelay      time.Duration
}

// ListenAddr is host:port for the web UI.
func (c Config) ListenAddr() string {
	return c.Addr + ":" + strconv.Itoa(c.Port)
}

// Load reads the environment. Unparseable values are errors so a typo in
// .env is caught at startup instead of silently falling back.
func Load() (Config, error) {
	c := Config{
		UI:            strings.ToLower(getEnv("UI", UIWeb)),
		Addr:          getEnv("ADDR", "127.0.0.1"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		ScoresDB:      os.Getenv("SCORES_DB"),
		SessionSecret: getEnv("SESSION_SECRET", "dev_secret_change_me"),
		CookieName:    getEnv("COOKIE_NAME", "memory_session"),
		DailySalt:     getEnv("DAILY_SALT", "local_dev_salt"),
	}
	if _, set := os.LookupEnv("SCORES_DB"); !set {
		c.ScoresDB = "./data/scores.db"
	}

	var err error
	if c.Port, err = envInt("PORT", 5175); err != nil {
		return Config{}, err
	}
	c.ClientOrigin = getEnv("CLIENT_ORIGIN", fmt.Sprintf("http://localhost:%d", c.Port))

	if c.Difficulty, err = game.ParseDifficulty(getEnv("DIFFICULTY", string(game.Easy))); err != nil {
		return Config{}, fmt.Errorf("DIFFICULTY: %w", err)
	}

	durations := []struct {
		key string
		def time.Duration
		dst *time.Duration
	}{
		{"SESSION_TTL", 12 * time.Hour, &c.SessionTTL},
		{"FRAME_INTERVAL", 16 * time.Millisecond, &c.FrameInterval},
		{"FLIP_BACK_DELAY", 1000 * time.Millisecond, &c.FlipBackDelay},
		{"REVEAL_DELAY", 300 * time.Millisecond, &c.RevealDelay},
		{"WIN_DELAY", 600 * time.Millisecond, &c.WinDelay},
	}
	for _, d := range durations {
		if *d.dst, err = envDuration(d.key, d.def); err != nil {
			return Config{}, err
		}
	}

	switch c.UI {
	case UIWeb, UITerm:
	default:
		return Config{}, fmt.Errorf("UI: unknown front-end %q", c.UI)
	}
	if c.SessionSecret == "dev_secret_change_me" && c.UI == UIWeb {
		log.Warn().Msg("SESSION_SECRET not set; using development secret")
	}
	return c, nil
}

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) (int, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return n, nil
}

func envDuration(k string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s: must be positive, got %s", k, v)
	}
	return d, nil
}
