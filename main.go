package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/guesstheword/internal/clock"
	"github.com/robalobadob/guesstheword/internal/config"
	"github.com/robalobadob/guesstheword/internal/console"
	"github.com/robalobadob/guesstheword/internal/game"
	"github.com/robalobadob/guesstheword/internal/httpserver"
	"github.com/robalobadob/guesstheword/internal/store"
	"github.com/robalobadob/guesstheword/internal/words"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	zerolog.SetGlobalLevel(cfg.Level())
	if cfg.LogFormat == "console" || cfg.Console {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	if err := words.Init(); err != nil {
		log.Fatal().Err(err).Msg("failed to load word list")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched := clock.NewTicker(log.Logger)

	if cfg.Console {
		c := console.New(os.Stdout, func() *game.Session { return game.NewSession(sched) })
		if err := c.Run(ctx, os.Stdin); err != nil && !errors.Is(err, context.Canceled) {
			log.Fatal().Err(err).Msg("console exited")
		}
		return
	}

	srv := httpserver.New(store.NewMemoryStore(), sched, cfg)
	port := strconv.Itoa(cfg.Port)
	log.Info().Str("port", port).Int("words", words.Count()).Msg("starting guesstheword server")
	if err := srv.Start(ctx, ":"+port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
	log.Info().Msg("server stopped")
}
