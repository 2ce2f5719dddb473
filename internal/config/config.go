// Package config loads settings in priority order: defaults, a TOML file,
// TODO_* environment variables, then command line flags.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"
)

// Password storage modes.
const (
	PasswordPlain  = "plain"
	PasswordBcrypt = "bcrypt"
)

// Default values.
const (
	DefaultLogLevel            = "info"
	DefaultLogFormat           = "text"
	DefaultPasswordStorage     = PasswordPlain
	DefaultBcryptCost          = 10
	DefaultBackupRetentionDays = 30
	DefaultDueSoonDays         = 3
)

// EnvPrefix is prepended to every environment override, e.g. TODO_DATA_DIR.
const EnvPrefix = "TODO"

// Config holds the full configuration for todo.
type Config struct {
	DataDir             string `toml:"data_dir"`
	LogLevel            string `toml:"log_level"`
	LogFormat           string `toml:"log_format"`
	PasswordStorage     string `toml:"password_storage"`
	BcryptCost          int    `toml:"bcrypt_cost"`
	BackupRetentionDays int    `toml:"backup_retention_days"`
	DueSoonDays         int    `toml:"due_soon_days"`

	// ConfigFile is the file that was loaded, empty when none was found.
	ConfigFile string `toml:"-"`
}

type flagValues struct {
	configFile      string
	dataDir         string
	logLevel        string
	logFormat       string
	passwordStorage string
	dueSoonDays     int
}

// Load builds the configuration from all sources. fs receives the todo
// flags and is parsed with args.
func Load(fs *flag.FlagSet, args []string) (*Config, error) {
	var fv flagValues
	fs.StringVar(&fv.configFile, "config", "", "path to config.toml")
	fs.StringVar(&fv.dataDir, "data-dir", "", "directory holding users.json, tasks.json and settings")
	fs.StringVar(&fv.logLevel, "log-level", "", "log level: debug, info, warn, error")
	fs.StringVar(&fv.logFormat, "log-format", "", "log format: text, json, logfmt")
	fs.StringVar(&fv.passwordStorage, "password-storage", "", "how new passwords are stored: plain or bcrypt")
	fs.IntVar(&fv.dueSoonDays, "due-soon-days", 0, "days ahead counted as due soon")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parsing flags: %w", err)
	}

	cfg := &Config{}
	setDefaults(cfg)

	v := newEnv()

	path, explicit := fv.configFile, true
	if path == "" {
		path = v.GetString("config")
	}
	if path == "" {
		path, explicit = userConfigFile(), false
	}
	if path != "" {
		if err := loadConfigFile(cfg, expandPath(path)); err != nil {
			if explicit || !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("loading config file %s: %w", path, err)
			}
		} else {
			cfg.ConfigFile = expandPath(path)
		}
	}

	loadFromEnv(cfg, v)
	applyFlags(cfg, fs, fv)

	cfg.DataDir = expandPath(cfg.DataDir)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(cfg *Config) {
	cfg.DataDir = DefaultDataDir()
	cfg.LogLevel = DefaultLogLevel
	cfg.LogFormat = DefaultLogFormat
	cfg.PasswordStorage = DefaultPasswordStorage
	cfg.BcryptCost = DefaultBcryptCost
	cfg.BackupRetentionDays = DefaultBackupRetentionDays
	cfg.DueSoonDays = DefaultDueSoonDays
}

func loadConfigFile(cfg *Config, path string) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}
	_, err := toml.DecodeFile(path, cfg)
	return err
}

func newEnv() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	return v
}

func loadFromEnv(cfg *Config, v *viper.Viper) {
	if v.IsSet("data_dir") {
		cfg.DataDir = v.GetString("data_dir")
	}
	if v.IsSet("log_level") {
		cfg.LogLevel = v.GetString("log_level")
	}
	if v.IsSet("log_format") {
		cfg.LogFormat = v.GetString("log_format")
	}
	if v.IsSet("password_storage") {
		cfg.PasswordStorage = v.GetString("password_storage")
	}
	if v.IsSet("bcrypt_cost") {
		cfg.BcryptCost = v.GetInt("bcrypt_cost")
	}
	if v.IsSet("backup_retention_days") {
		cfg.BackupRetentionDays = v.GetInt("backup_retention_days")
	}
	if v.IsSet("due_soon_days") {
		cfg.DueSoonDays = v.GetInt("due_soon_days")
	}
}

// applyFlags copies only the flags present on the command line.
func applyFlags(cfg *Config, fs *flag.FlagSet, fv flagValues) {
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "data-dir":
			cfg.DataDir = fv.dataDir
		case "log-level":
			cfg.LogLevel = fv.logLevel
		case "log-format":
			cfg.LogFormat = fv.logFormat
		case "password-storage":
			cfg.PasswordStorage = fv.passwordStorage
		case "due-soon-days":
			cfg.DueSoonDays = fv.dueSoonDays
		}
	})
}

// Validate rejects values the rest of the program cannot use.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("data_dir is empty")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	switch c.LogFormat {
	case "text", "json", "logfmt":
	default:
		return fmt.Errorf("invalid log_format %q", c.LogFormat)
	}
	switch c.PasswordStorage {
	case PasswordPlain, PasswordBcrypt:
	default:
		return fmt.Errorf("invalid password_storage %q, must be %s or %s", c.PasswordStorage, PasswordPlain, PasswordBcrypt)
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("bcrypt_cost must be between 4 and 31, got %d", c.BcryptCost)
	}
	if c.BackupRetentionDays < 0 {
		return fmt.Errorf("backup_retention_days must not be negative")
	}
	if c.DueSoonDays < 0 {
		return fmt.Errorf("due_soon_days must not be negative")
	}
	return nil
}

// DefaultDataDir returns $XDG_DATA_HOME/todo, falling back to ~/.local/share/todo.
func DefaultDataDir() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(".", ".todo")
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "todo")
}

func userConfigFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "todo", "config.toml")
}

// expandPath expands ~ and environment variables.
func expandPath(p string) string {
	if p == "" {
		return p
	}
	expanded := os.ExpandEnv(p)
	if expanded == "~" || strings.HasPrefix(expanded, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return expanded
		}
		return filepath.Join(home, strings.TrimPrefix(expanded[1:], "/"))
	}
	return expanded
}
