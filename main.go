package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/habitloop/habitbot/habitbot"
	"github.com/habitloop/habitbot/habitbot/logger"
	"github.com/habitloop/habitbot/habitbot/models"
	"github.com/habitloop/habitbot/habitbot/store"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	path := flag.String("config", "config.toml", "path to config")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(logger.NewHandler(level)))

	slog.Info("Starting HabitBot core",
		slog.String("version", version),
		slog.String("commit", commit))

	cfg, err := habitbot.LoadConfig(*path)
	if err != nil {
		slog.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(-1)
	}
	slog.Info("Configuration loaded successfully")

	slog.Info("Opening user store...", slog.String("type", "store"))
	startTime := time.Now()
	app, err := habitbot.New(*cfg, version, commit)
	if err != nil {
		slog.Error("Failed to open user store",
			slog.String("error", err.Error()),
			slog.Duration("attempted_for", time.Since(startTime)))
		os.Exit(-1)
	}
	slog.Info("User store ready",
		slog.String("type", "store"),
		slog.Int("users", app.Store.Len()),
		slog.Duration("took", time.Since(startTime)))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.Store.RunFlusher(gctx, cfg.Store.FlushInterval())
	})
	g.Go(func() error {
		return runReminderScanner(gctx, app.Store)
	})

	slog.Info("HabitBot core is running. Press CTRL-C to exit.")
	s := make(chan os.Signal, 1)
	signal.Notify(s, syscall.SIGINT, syscall.SIGTERM)
	<-s
	slog.Info("Shutting down...")

	cancel()
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("Background worker exited",
			slog.String("type", "error"),
			slog.String("error", err.Error()))
	}

	done := make(chan error, 1)
	go func() { done <- app.Close() }()
	select {
	case err := <-done:
		if err != nil {
			slog.Error("Final flush failed",
				slog.String("type", "error"),
				slog.String("error", err.Error()))
			os.Exit(-1)
		}
	case <-time.After(30 * time.Second):
		slog.Error("Final flush timed out", slog.String("type", "error"))
		os.Exit(-1)
	}
}

// runReminderScanner wakes every minute and logs due task reminders
// for the chat layer to pick up.
func runReminderScanner(ctx context.Context, cache *store.Cache) error {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := time.Now().Format("15:04")
			for _, id := range cache.IDs() {
				cache.View(id, func(u *models.User) {
					if !u.Settings.ReminderEnabled {
						return
					}
					for _, r := range u.Reminders {
						if r.Enabled && r.Time == now {
							slog.Info("Reminder due",
								slog.String("type", "task"),
								slog.String("user_id", u.ID),
								slog.String("task_id", r.TaskID),
							)
						}
					}
				})
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
