package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points every lookup at a fresh temp tree and clears TODO_* vars.
func isolate(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(root, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(root, "data"))
	for _, k := range []string{"CONFIG", "DATA_DIR", "LOG_LEVEL", "LOG_FORMAT", "PASSWORD_STORAGE", "BCRYPT_COST", "BACKUP_RETENTION_DAYS", "DUE_SOON_DAYS"} {
		t.Setenv(EnvPrefix+"_"+k, "")
	}
	return root
}

func newFlagSet() *flag.FlagSet {
	return flag.NewFlagSet("todo", flag.ContinueOnError)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLoad_Defaults(t *testing.T) {
	root := isolate(t)

	cfg, err := Load(newFlagSet(), nil)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "data", "todo"), cfg.DataDir)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, DefaultLogFormat, cfg.LogFormat)
	assert.Equal(t, PasswordPlain, cfg.PasswordStorage)
	assert.Equal(t, DefaultBcryptCost, cfg.BcryptCost)
	assert.Equal(t, DefaultBackupRetentionDays, cfg.BackupRetentionDays)
	assert.Equal(t, DefaultDueSoonDays, cfg.DueSoonDays)
	assert.Empty(t, cfg.ConfigFile)
}

func TestLoad_UserConfigFile(t *testing.T) {
	root := isolate(t)
	path := filepath.Join(root, "config", "todo", "config.toml")
	writeFile(t, path, `
data_dir = "/srv/todo"
log_level = "debug"
password_storage = "bcrypt"
bcrypt_cost = 12
due_soon_days = 5
`)

	cfg, err := Load(newFlagSet(), nil)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.ConfigFile)
	assert.Equal(t, "/srv/todo", cfg.DataDir)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, PasswordBcrypt, cfg.PasswordStorage)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Equal(t, 5, cfg.DueSoonDays)
	// untouched keys keep defaults
	assert.Equal(t, DefaultLogFormat, cfg.LogFormat)
}

func TestLoad_Precedence(t *testing.T) {
	root := isolate(t)
	path := filepath.Join(root, "custom.toml")
	writeFile(t, path, `
data_dir = "/from/file"
log_level = "debug"
log_format = "json"
`)
	t.Setenv("TODO_LOG_LEVEL", "warn")
	t.Setenv("TODO_DATA_DIR", "/from/env")

	cfg, err := Load(newFlagSet(), []string{"-config", path, "-data-dir", "/from/flag"})
	require.NoError(t, err)

	assert.Equal(t, "/from/flag", cfg.DataDir)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoad_ExplicitConfigMissing(t *testing.T) {
	root := isolate(t)

	_, err := Load(newFlagSet(), []string{"-config", filepath.Join(root, "nope.toml")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading config file")
}

func TestLoad_MalformedFile(t *testing.T) {
	root := isolate(t)
	writeFile(t, filepath.Join(root, "config", "todo", "config.toml"), "data_dir = [")

	_, err := Load(newFlagSet(), nil)
	require.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	isolate(t)

	_, err := Load(newFlagSet(), []string{"-password-storage", "rot13"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "password_storage")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		c := &Config{}
		setDefaults(c)
		c.DataDir = "/tmp/todo"
		return c
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"empty data dir", func(c *Config) { c.DataDir = " " }, "data_dir"},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
		{"bad format", func(c *Config) { c.LogFormat = "xml" }, "log_format"},
		{"cost too low", func(c *Config) { c.BcryptCost = 2 }, "bcrypt_cost"},
		{"negative retention", func(c *Config) { c.BackupRetentionDays = -1 }, "backup_retention_days"},
		{"negative due soon", func(c *Config) { c.DueSoonDays = -1 }, "due_soon_days"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	assert.NoError(t, valid().Validate())
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "notes"), expandPath("~/notes"))
	assert.Equal(t, home, expandPath("~"))
	t.Setenv("TODO_TEST_DIR", "/x")
	assert.Equal(t, "/x/y", expandPath("$TODO_TEST_DIR/y"))
	assert.Equal(t, "", expandPath(""))
}
