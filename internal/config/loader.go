package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults -> config file -> environment variables (env wins)
	Load() (*Config, error)
}

type loader struct {
	configFile string
}

// NewLoader creates a configuration loader. configFile may be empty, in
// which case pgdatahub.yml is searched in the working directory and $HOME.
func NewLoader(configFile string) Loader {
	return &loader{configFile: configFile}
}

func (l *loader) Load() (*Config, error) {
	v := viper.New()

	if l.configFile != "" {
		v.SetConfigFile(l.configFile)
	} else {
		v.SetConfigName("pgdatahub")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
	}

	// The environment names are fixed operational contract, not a shared
	// prefix, so each is bound explicitly.
	v.BindEnv("database_url", "DATABASE_URL")
	v.BindEnv("sectional_commit", "ETL_SECTIONAL_COMMIT")
	v.BindEnv("pause_every", "ETL_PAUSE_EVERY")
	v.BindEnv("pause_seconds", "ETL_PAUSE_SECONDS")
	v.BindEnv("chunk_size", "ETL_CHUNK_SIZE")
	v.BindEnv("skip_db", "SKIP_DB")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// The sheet mapping is an open tree, not a fixed struct; pull it out
	// of viper raw and normalize the keys.
	if raw := v.GetStringMap("sheets"); len(raw) > 0 {
		cfg.Sheets = BuildSheetTree(raw)
	}
	if cfg.DefaultSheet == "" {
		cfg.DefaultSheet = v.GetString("default_sheet")
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	defaults := Default()
	v.SetDefault("sectional_commit", defaults.SectionalCommit)
	v.SetDefault("pause_every", defaults.PauseEvery)
	v.SetDefault("pause_seconds", defaults.PauseSeconds)
	v.SetDefault("chunk_size", defaults.ChunkSize)
	v.SetDefault("skip_db", defaults.SkipDB)
	v.SetDefault("default_sheet", defaults.DefaultSheet)
	v.SetDefault("ignore", defaults.Ignore)
}

// LoadConfig is a convenience wrapper used by the CLI.
func LoadConfig(configFile string) (*Config, error) {
	return NewLoader(configFile).Load()
}
