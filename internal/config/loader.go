// Package config loads pipeline configuration from config.yaml with
// environment variable overrides.
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/retailai/basketfeat/internal/db"
)

// Config holds the pipeline settings.
type Config struct {
	// DataDir is the directory holding the raw transactions and products
	// files.
	DataDir string
	// CacheDir enables the feature file cache when non-empty.
	CacheDir string
	// Train excises the most recent order per user as the label source.
	Train bool
	// HistoryLimit keeps only the N most recent orders per user (0 = all).
	HistoryLimit int
	// Reduced reads only the reduced transaction slice.
	Reduced bool

	// Download configures optional fetching of the raw files into DataDir.
	Download DownloadConfig

	// SinkEnabled persists the assembled matrix to Postgres.
	SinkEnabled bool
	Database    db.Config
}

// DownloadConfig holds the remote locations of the raw dataset files. Empty
// URLs disable downloading.
type DownloadConfig struct {
	TransactionsURL string
	TransactionsMD5 string
	ProductsURL     string
	ProductsMD5     string
}

// Default returns the configuration used when no file or env overrides are
// present.
func Default() Config {
	return Config{
		DataDir:      ".",
		Train:        true,
		HistoryLimit: 5,
		Database:     db.DefaultConfig(),
	}
}

// Load reads config.yaml from configPath, applying BASKETFEAT_* environment
// overrides. A missing config file is not an error; defaults apply.
func Load(configPath string) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AutomaticEnv()
	v.SetEnvPrefix("BASKETFEAT")

	v.BindEnv("pipeline.data_dir")
	v.BindEnv("pipeline.cache_dir")
	v.BindEnv("pipeline.train")
	v.BindEnv("pipeline.history_limit")
	v.BindEnv("pipeline.reduced")
	v.BindEnv("download.transactions_url")
	v.BindEnv("download.products_url")
	v.BindEnv("sink.enabled")
	v.BindEnv("database.host")
	v.BindEnv("database.port")
	v.BindEnv("database.user")
	v.BindEnv("database.password")
	v.BindEnv("database.dbname")
	v.BindEnv("database.sslmode")

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return cfg, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if v.IsSet("pipeline.data_dir") {
		cfg.DataDir = v.GetString("pipeline.data_dir")
	}
	if v.IsSet("pipeline.cache_dir") {
		cfg.CacheDir = v.GetString("pipeline.cache_dir")
	}
	if v.IsSet("pipeline.train") {
		cfg.Train = v.GetBool("pipeline.train")
	}
	if v.IsSet("pipeline.history_limit") {
		cfg.HistoryLimit = v.GetInt("pipeline.history_limit")
	}
	if v.IsSet("pipeline.reduced") {
		cfg.Reduced = v.GetBool("pipeline.reduced")
	}
	if v.IsSet("download.transactions_url") {
		cfg.Download.TransactionsURL = v.GetString("download.transactions_url")
	}
	if v.IsSet("download.transactions_md5") {
		cfg.Download.TransactionsMD5 = v.GetString("download.transactions_md5")
	}
	if v.IsSet("download.products_url") {
		cfg.Download.ProductsURL = v.GetString("download.products_url")
	}
	if v.IsSet("download.products_md5") {
		cfg.Download.ProductsMD5 = v.GetString("download.products_md5")
	}
	if v.IsSet("sink.enabled") {
		cfg.SinkEnabled = v.GetBool("sink.enabled")
	}
	if v.IsSet("database.host") {
		cfg.Database.Host = v.GetString("database.host")
	}
	if v.IsSet("database.port") {
		cfg.Database.Port = v.GetInt("database.port")
	}
	if v.IsSet("database.user") {
		cfg.Database.User = v.GetString("database.user")
	}
	if v.IsSet("database.password") {
		cfg.Database.Password = v.GetString("database.password")
	}
	if v.IsSet("database.dbname") {
		cfg.Database.DBName = v.GetString("database.dbname")
	}
	if v.IsSet("database.sslmode") {
		cfg.Database.SSLMode = v.GetString("database.sslmode")
	}

	return cfg, nil
}
