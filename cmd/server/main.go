package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	api "github.com/quizforge/quizforge/internal/api/http"
	"github.com/quizforge/quizforge/internal/auth"
	"github.com/quizforge/quizforge/internal/config"
	"github.com/quizforge/quizforge/internal/db"
	"github.com/quizforge/quizforge/internal/exam"
	"github.com/quizforge/quizforge/internal/identity"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}

	users := identity.NewStore(dbh, logger)
	store := exam.NewSQLStore(dbh, logger)
	svc := exam.NewService(store, users, logger)
	authSvc := auth.NewService(cfg.AuthSecret, cfg.TokenTTL)

	// One named periodic task, registered at startup: the guest sweep. The
	// task holds no state between runs; an external scheduler hitting the
	// admin endpoint is equivalent.
	registerPeriodic(logger, "cleanup_guest_users", cfg.GuestCleanupEvery, func(ctx context.Context) {
		if _, err := users.CleanupOldGuests(ctx); err != nil {
			logger.Error("cleanup_guest_users run failed", "err", err)
		}
	})

	r := api.NewRouter(cfg, authSvc, users, svc, logger)
	logger.Info("listening", "addr", cfg.HTTPAddr)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}

func registerPeriodic(logger *slog.Logger, name string, every time.Duration, run func(context.Context)) {
	if every <= 0 {
		logger.Warn("periodic task disabled", "task", name)
		return
	}
	go func() {
		t := time.NewTicker(every)
		defer t.Stop()
		for range t.C {
			logger.Info("periodic task start", "task", name)
			run(context.Background())
		}
	}()
}
