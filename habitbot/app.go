package habitbot

import (
	"github.com/habitloop/habitbot/habitbot/services"
	"github.com/habitloop/habitbot/habitbot/store"
)

// App holds the wired core the chat/command layer talks to.
type App struct {
	Cfg       Config
	Version   string
	Commit    string
	Store     *store.Cache
	Summaries *services.SummaryCache
	Tracker   *services.Tracker
	Search    *services.SearchService
}

func New(cfg Config, version, commit string) (*App, error) {
	cache, err := store.Open(store.Config{
		DataFile:   cfg.Store.DataFile,
		BackupDir:  cfg.Store.BackupDir,
		MaxBackups: cfg.Store.MaxBackups,
	})
	if err != nil {
		return nil, err
	}

	summaries := services.NewSummaryCache(cache)
	return &App{
		Cfg:       cfg,
		Version:   version,
		Commit:    commit,
		Store:     cache,
		Summaries: summaries,
		Tracker:   services.NewTracker(cache, summaries),
		Search:    services.NewSearchService(cache),
	}, nil
}

func (a *App) Close() error {
	return a.Store.Close()
}
