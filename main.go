package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"samgame/internal/config"
	"samgame/internal/events"
	"samgame/internal/game"
	"samgame/internal/handlers"
	"samgame/internal/narrator"
	"samgame/internal/srd"
	"samgame/internal/storage"
)

func main() {
	// Structured JSON logging
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if cfg.NarratorAPIKey == "" {
		slog.Warn("OPENAI_API_KEY not set; narrator calls will fail over to fallback text")
	}

	store := storage.New(cfg.DataDir)

	catalog, err := events.LoadCatalog()
	if err != nil {
		slog.Error("failed to load event catalog", "error", err)
		os.Exit(1)
	}

	gw := narrator.New(
		narrator.NewClient(cfg.NarratorBaseURL, cfg.NarratorAPIKey, 60*time.Second),
		narrator.Models{
			Default:  cfg.ModelDefault,
			Dialogue: cfg.ModelDialogue,
			Fallback: cfg.ModelFallback,
		},
	)
	rules := srd.NewClient(cfg.SRDBaseURL, cfg.SRDTimeout)
	engine := game.New(store, rules, gw, events.NewGenerator(store, catalog), game.Mode(cfg.GameMode))
	app := handlers.NewApp(engine, store)

	// Routes
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", app.Health)
	mux.HandleFunc("POST /game/start", app.StartGame)
	mux.HandleFunc("POST /game/action", app.Action)
	mux.HandleFunc("GET /game/state", app.GameState)
	mux.HandleFunc("GET /party", app.GetParty)
	mux.HandleFunc("POST /party/join", app.JoinParty)
	mux.HandleFunc("POST /party/leave", app.LeaveParty)
	mux.HandleFunc("POST /party/kick", app.KickPlayer)
	mux.HandleFunc("POST /party/reset", app.ResetParty)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handlers.LogRequest(mux),
	}

	// Graceful shutdown on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("server starting", "addr", "http://localhost:"+cfg.Port, "mode", cfg.GameMode)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}
