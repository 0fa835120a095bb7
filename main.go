package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/memory/apps/go-server/internal/config"
	"github.com/robalobadob/memory/apps/go-server/internal/controller"
	"github.com/robalobadob/memory/apps/go-server/internal/httpserver"
	"github.com/robalobadob/memory/apps/go-server/internal/score"
	"github.com/robalobadob/memory/apps/go-server/internal/store"
	"github.com/robalobadob/memory/apps/go-server/internal/term"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, closeRepo := openScores(cfg.ScoresDB)
	defer closeRepo()
	book := score.NewBook(repo)

	opts := controller.Options{
		Scores:        book,
		FrameInterval: cfg.FrameInterval,
		Difficulty:    cfg.Difficulty,
		FlipBackDelay: cfg.FlipBackDelay,
		RevealDelay:   cfg.RevealDelay,
		WinDelay:      cfg.WinDelay,
	}

	switch cfg.UI {
	case config.UITerm:
		runTerm(ctx, cfg, opts)
	default:
		srv := httpserver.New(store.NewMemoryStore(), book, httpserver.Options{
			ClientOrigin:  cfg.ClientOrigin,
			SessionSecret: cfg.SessionSecret,
			CookieName:    cfg.CookieName,
			SessionTTL:    cfg.SessionTTL,
			DailySalt:     cfg.DailySalt,
			Controller:    opts,
		})
		log.Info().Str("addr", cfg.ListenAddr()).Msg("starting memory server")
		if err := srv.Start(ctx, cfg.ListenAddr()); err != nil {
			log.Fatal().Err(err).Msg("server exited")
		}
		log.Info().Msg("server stopped")
	}
}

// openScores picks SQLite when a path is configured, else an in-memory
// repository. A database that cannot be opened degrades to memory.
func openScores(path string) (score.Repository, func()) {
	if path == "" {
		return score.NewMemoryRepository(), func() {}
	}
	db, err := score.OpenSQLite(path)
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("open scores db; best scores will not persist")
		return score.NewMemoryRepository(), func() {}
	}
	return db, func() { _ = db.Close() }
}

func runTerm(ctx context.Context, cfg config.Config, opts controller.Options) {
	scr, err := tcell.NewScreen()
	if err != nil {
		log.Fatal().Err(err).Msg("open terminal")
	}
	if err := scr.Init(); err != nil {
		log.Fatal().Err(err).Msg("init terminal")
	}
	defer scr.Fini()
	scr.HideCursor()

	// The screen owns stdout/stderr while it is up.
	log.Logger = zerolog.New(io.Discard)

	ui := term.New(scr)
	c := controller.New(ui, opts)
	defer c.Close()
	ui.Run(ctx, c, term.RunOptions{DailySalt: cfg.DailySalt})
}
