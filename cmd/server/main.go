package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/workmesh/collab/internal/adapters/http"
	wsignal "github.com/workmesh/collab/internal/adapters/signal"
	"github.com/workmesh/collab/internal/app"
	"github.com/workmesh/collab/internal/app/orch"
	"github.com/workmesh/collab/internal/config"
	"github.com/workmesh/collab/internal/gateway"
	"github.com/workmesh/collab/internal/presence"
	"github.com/workmesh/collab/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	st, err := store.NewSQLiteStore(cfg.SQLitePath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open store")
	}
	defer st.Close()

	var cursors presence.CursorStore
	if cfg.RedisURL != "" {
		rs, err := presence.NewRedisStore(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect cursor store")
		}
		defer rs.Close()
		cursors = rs
		log.Info().Msg("using redis cursor store")
	} else {
		cursors = presence.NewMemoryStore()
	}

	tiers := store.NewStaticTierPolicy(cfg.Tiers, cfg.DefaultPlan)

	o := orch.New(app.NewRegistry(), app.NewRoster(), cursors, st, tiers, store.LogEgress{})
	auth := gateway.New(cfg.Secret)
	ctl := wsignal.NewController(o, auth, cfg.ReadLimit, cfg.PingPeriod)

	r := router.SetupRouter(ctx, cfg, ctl)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("collab server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
