// Package config loads the demo process's runtime configuration.
//
// The metadata store itself (internal/metastore) takes its settings as
// explicit Go arguments; this package only serves cmd/tablestore-demo, the
// way the teacher's config package only ever served its own main/server.
package config

import (
	"log/slog"

	"github.com/spf13/viper"
)

type TableStoreConfig struct {
	Host             string `mapstructure:"host" default:"0.0.0.0" description:"listen address; the demo opens no listener"`
	Port             string `mapstructure:"port" default:"7655" description:"listen port; the demo opens no listener"`
	LogLevel         string `mapstructure:"logLevel" default:"info" description:"log level"`
	DataDir          string `mapstructure:"dataDir" default:"./data" description:"directory holding the snapshot file"`
	SnapshotInterval int    `mapstructure:"snapshotIntervalSeconds" default:"5" description:"autosave period in seconds"`
	QueryResultMax   int    `mapstructure:"queryResultMax" default:"1000" description:"page size setting; metastore queries use QueryResultMaxNum and do not read it"`
}

var Config *TableStoreConfig = defaults()

const configPath = "./"

func defaults() *TableStoreConfig {
	return &TableStoreConfig{
		Host:             "0.0.0.0",
		Port:             "7655",
		LogLevel:         "info",
		DataDir:          "./data",
		SnapshotInterval: 5,
		QueryResultMax:   1000,
	}
}

// LoadConfig reads a file named config from configPath if present, parsing
// it as JSON whatever its extension. A missing config file is not fatal — the demo falls
// back to defaults, unlike the teacher's LoadConfig which panics on a missing
// file; this store is a library first, and its demo binary should still run
// with zero configuration.
func LoadConfig() {
	viper.SetConfigName("config")
	viper.SetConfigType("json")
	viper.AddConfigPath(configPath)

	cfg := defaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Error("failed to read config, using defaults", "error", err)
		}
		Config = cfg
		return
	}

	if err := viper.Unmarshal(cfg); err != nil {
		slog.Error("failed to parse config, using defaults", "error", err)
		Config = defaults()
		return
	}

	Config = cfg
}
