package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/mindhaven/mindhaven/internal/api"
	"github.com/mindhaven/mindhaven/internal/auth"
	"github.com/mindhaven/mindhaven/internal/config"
	"github.com/mindhaven/mindhaven/internal/logging"
	"github.com/mindhaven/mindhaven/internal/service"
	"github.com/mindhaven/mindhaven/internal/store"
)

func main() {
	logging.Setup()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	st, err := store.New(cfg.DBSource)
	if err != nil {
		slog.Error("unable to connect to database", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	if err := st.Migrate(context.Background()); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	tokens := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)

	handler := api.NewHandler(
		st,
		service.NewAuthService(st.Db, st, tokens),
		service.NewTransferService(st.Db),
		service.NewFriendService(st.Db),
		service.NewChatService(st.Db),
	)

	router := api.NewRouter(handler, tokens)

	slog.Info("server starting", "port", cfg.Port, "env", cfg.Env)
	if err := http.ListenAndServe(":"+cfg.Port, router); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
