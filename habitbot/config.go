package habitbot

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err = toml.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

type Config struct {
	Log   LogConfig   `toml:"log"`
	Store StoreConfig `toml:"store"`
	Bot   BotConfig   `toml:"bot"`
}

type BotConfig struct {
	Name     string `toml:"name"`
	Language string `toml:"language"`
	Timezone string `toml:"timezone"`
}

type LogConfig struct {
	Level     slog.Level `toml:"level"`
	AddSource bool       `toml:"add_source"`
}

type StoreConfig struct {
	DataFile             string `toml:"data_file"`
	BackupDir            string `toml:"backup_dir"`
	ExportDir            string `toml:"export_dir"`
	FlushIntervalSeconds int    `toml:"flush_interval_seconds"`
	MaxBackups           int    `toml:"max_backups"`
}

func (c *Config) applyDefaults() {
	if c.Store.DataFile == "" {
		c.Store.DataFile = "data/users.json"
	}
	if c.Store.BackupDir == "" {
		c.Store.BackupDir = "data/backups"
	}
	if c.Store.ExportDir == "" {
		c.Store.ExportDir = "data/exports"
	}
	if c.Store.FlushIntervalSeconds <= 0 {
		c.Store.FlushIntervalSeconds = 300
	}
	if c.Store.MaxBackups <= 0 {
		c.Store.MaxBackups = 10
	}
	if c.Bot.Name == "" {
		c.Bot.Name = "habitbot"
	}
	if c.Bot.Language == "" {
		c.Bot.Language = "en"
	}
	if c.Bot.Timezone == "" {
		c.Bot.Timezone = "UTC"
	}
}

func (c StoreConfig) FlushInterval() time.Duration {
	return time.Duration(c.FlushIntervalSeconds) * time.Second
}
