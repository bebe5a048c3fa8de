// Package config loads studybuddy settings from a YAML file, STUDYBUDDY_*
// environment variables and command-line flags, in that order of
// precedence from lowest to highest.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix prefixes every environment variable. A double underscore
// separates nested keys: STUDYBUDDY_STORAGE__DRIVER sets storage.driver.
const EnvPrefix = "STUDYBUDDY_"

// DefaultFile is read when --config is not given and the file exists.
const DefaultFile = "studybuddy.yaml"

// Config is the resolved configuration.
type Config struct {
	DataDir   string  `koanf:"data_dir" validate:"required"`
	BackupDir string  `koanf:"backup_dir" validate:"required"`
	Storage   Storage `koanf:"storage"`
	Log       Log     `koanf:"log"`
	Import    Import  `koanf:"import"`
}

// Storage selects the record store backend.
type Storage struct {
	Driver     string `koanf:"driver" validate:"oneof=json sqlite"`
	SQLitePath string `koanf:"sqlite_path"`
}

// Log configures the process logger.
type Log struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=text json"`
}

// Import configures file and repository imports.
type Import struct {
	ReposDir string `koanf:"repos_dir" validate:"required"`
}

// flagKeys maps flag names to configuration keys.
var flagKeys = map[string]string{
	"data-dir":       "data_dir",
	"backup-dir":     "backup_dir",
	"storage-driver": "storage.driver",
	"sqlite-path":    "storage.sqlite_path",
	"log-level":      "log.level",
	"log-format":     "log.format",
	"repos-dir":      "import.repos_dir",
}

// RegisterFlags defines the configuration flags. Their defaults are
// the configuration defaults.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String("config", "", "path to a YAML config file (default "+DefaultFile+" if present)")
	flags.String("data-dir", "data", "directory holding the data files")
	flags.String("backup-dir", "backups", "directory holding backups")
	flags.String("storage-driver", "json", "record store backend: json or sqlite")
	flags.String("sqlite-path", "", "SQLite database file (default <data-dir>/studybuddy.db)")
	flags.String("log-level", "info", "log level: debug, info, warn or error")
	flags.String("log-format", "text", "log format: text or json")
	flags.String("repos-dir", "repos", "directory git sources are cloned into")
}

// Load resolves the configuration from flags, which must already
// be parsed and carry the flags from RegisterFlags.
func Load(flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path := configPath(flags); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	flagProvider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
		key, ok := flagKeys[f.Name]
		if !ok {
			return "", nil
		}
		return key, posflag.FlagVal(flags, f)
	})
	if err := k.Load(flagProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load flags: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = filepath.Join(cfg.DataDir, "studybuddy.db")
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	for _, dir := range []*string{&cfg.DataDir, &cfg.BackupDir, &cfg.Storage.SQLitePath, &cfg.Import.ReposDir} {
		*dir = filepath.Clean(*dir)
	}
	return &cfg, nil
}

// configPath returns the --config file, or DefaultFile when it exists.
func configPath(flags *pflag.FlagSet) string {
	if p, _ := flags.GetString("config"); p != "" {
		return p
	}
	if _, err := os.Stat(DefaultFile); err == nil {
		return DefaultFile
	}
	return ""
}

func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}
