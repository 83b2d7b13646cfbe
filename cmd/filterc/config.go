package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/nlstn/go-odata-filter/internal/metadata"
)

// envPrefix namespaces environment overrides, e.g. FILTERC_DSN.
const envPrefix = "FILTERC"

// Config is the merged result of flags, environment and config file.
type Config struct {
	Type    string `mapstructure:"type"`
	Filter  string `mapstructure:"filter"`
	Dialect string `mapstructure:"dialect"`
	Item    string `mapstructure:"item"`
	DSN     string `mapstructure:"dsn"`
	Table   string `mapstructure:"table"`
	Debug   bool   `mapstructure:"debug"`

	// Schema is decoded from the config file separately, since viper folds
	// map keys to lower case and type names are case-sensitive.
	Schema metadata.SchemaConfig `mapstructure:"-"`
}

func newFlagSet() *pflag.FlagSet {
	f := pflag.NewFlagSet("filterc", pflag.ContinueOnError)
	f.String("config", "", "Path to a config file holding the schema (types:) and defaults")
	f.String("type", "", "Name of the resource type the filter is resolved against")
	f.String("filter", "", "The $filter expression")
	f.String("dialect", "sqlite", "SQL dialect: sqlite or postgres")
	f.String("item", "", "JSON object to evaluate the filter against")
	f.String("dsn", "", "Database to count matching rows in")
	f.String("table", "", "Table to count rows in; defaults to the type's table")
	f.Bool("debug", false, "Log compiler diagnostics and SQL statements")

	normalizeFunc := f.GetNormalizeFunc()
	f.SetNormalizeFunc(func(fs *pflag.FlagSet, name string) pflag.NormalizedName {
		result := normalizeFunc(fs, name)
		return pflag.NormalizedName(strings.ReplaceAll(string(result), "-", "_"))
	})
	return f
}

// loadConfig parses args and merges them over FILTERC_* variables and the
// config file. Flags win over the environment, which wins over the file.
func loadConfig(args []string) (*Config, error) {
	flags := newFlagSet()
	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetDefault("dialect", "sqlite")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(flags); err != nil {
		return nil, err
	}

	if configFile := v.GetString("config"); configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("filterc")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if used := v.ConfigFileUsed(); used != "" {
		data, err := os.ReadFile(used)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if cfg.Schema, err = metadata.DecodeSchemaConfig(data); err != nil {
			return nil, fmt.Errorf("%s: %w", used, err)
		}
	}

	if cfg.Filter == "" {
		return nil, errors.New("--filter is required")
	}
	if cfg.Type == "" {
		return nil, errors.New("--type is required")
	}
	if len(cfg.Schema.Types) == 0 {
		return nil, errors.New("no types configured; pass --config with a types: section")
	}
	return &cfg, nil
}
