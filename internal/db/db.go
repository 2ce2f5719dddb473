package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/tgienger/todo/internal/logging"
)

// File names inside the data directory.
const (
	UsersFile    = "users.json"
	TasksFile    = "tasks.json"
	SettingsFile = "settings.db"
	BackupsDir   = "backups"
	ExportsDir   = "exports"
)

// Setting keys.
const (
	SettingLastUsername = "last_username"
)

// Options configure New. Only Dir is required.
type Options struct {
	Dir             string
	PasswordStorage PasswordStorage
	BcryptCost      int
	BackupRetention time.Duration // zero keeps backups forever
	DueSoonDays     int
	Logger          *log.Logger
	Now             func() time.Time
}

// DB owns the data directory and every store kept in it
type DB struct {
	Dir     string
	Users   *AccountStore
	Tasks   *TaskStore
	Backups *Backups

	settings *sql.DB
	logger   *log.Logger
}

// New opens the data directory, creating users.json and tasks.json as empty
// collections on first run, and checks that both files can be read.
func New(opts Options) (*DB, error) {
	if opts.Dir == "" {
		return nil, fmt.Errorf("data dir is empty")
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC().Round(0) }
	}
	if opts.PasswordStorage == "" {
		opts.PasswordStorage = PasswordPlain
	}

	for _, dir := range []string{opts.Dir, filepath.Join(opts.Dir, BackupsDir), filepath.Join(opts.Dir, ExportsDir)} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, storageError("create", dir, err)
		}
	}

	userSchema, err := compileSchema("users.schema.json")
	if err != nil {
		return nil, err
	}
	taskSchema, err := compileSchema("tasks.schema.json")
	if err != nil {
		return nil, err
	}

	users := &AccountStore{
		file:       jsonFile{path: filepath.Join(opts.Dir, UsersFile), schema: userSchema},
		storage:    opts.PasswordStorage,
		bcryptCost: opts.BcryptCost,
		logger:     opts.Logger.WithPrefix("users"),
	}
	backups := &Backups{
		dir:    filepath.Join(opts.Dir, BackupsDir),
		now:    opts.Now,
		logger: opts.Logger.WithPrefix("backups"),
	}
	tasks := &TaskStore{
		file:        jsonFile{path: filepath.Join(opts.Dir, TasksFile), schema: taskSchema},
		owners:      users,
		backups:     backups,
		exportDir:   filepath.Join(opts.Dir, ExportsDir),
		dueSoonDays: opts.DueSoonDays,
		now:         opts.Now,
		logger:      opts.Logger.WithPrefix("tasks"),
	}

	for _, f := range []jsonFile{users.file, tasks.file} {
		if err := f.ensure(); err != nil {
			return nil, err
		}
	}
	if _, err := users.load(); err != nil {
		return nil, err
	}
	if _, err := tasks.load(); err != nil {
		return nil, err
	}

	settings, err := openSettings(filepath.Join(opts.Dir, SettingsFile))
	if err != nil {
		return nil, err
	}

	if opts.BackupRetention > 0 {
		removed, err := backups.Cleanup(opts.BackupRetention)
		if err != nil {
			opts.Logger.Warn("backup cleanup failed", "err", err)
		} else if removed > 0 {
			opts.Logger.Info("removed old backups", "count", removed)
		}
	}

	opts.Logger.Debug("data dir opened", "path", opts.Dir)
	return &DB{
		Dir:      opts.Dir,
		Users:    users,
		Tasks:    tasks,
		Backups:  backups,
		settings: settings,
		logger:   opts.Logger,
	}, nil
}

// Close releases the settings database. The JSON stores hold no open files.
func (db *DB) Close() error {
	if db.settings == nil {
		return nil
	}
	return db.settings.Close()
}

// DeleteAccount removes a user and every task they own. The password must
// match, as for Authenticate.
func (db *DB) DeleteAccount(username, password string) error {
	user, err := db.Users.Authenticate(username, password)
	if err != nil {
		return err
	}
	// Tasks go first: a failure after this leaves an account with no tasks,
	// never tasks without an account that a later registration would inherit.
	removed, err := db.Tasks.DeleteOwnerTasks(user.Username)
	if err != nil {
		return err
	}
	if err := db.Users.Delete(user.Username, password); err != nil {
		return err
	}
	if last, err := db.GetSetting(SettingLastUsername); err == nil && last == user.Username {
		if err := db.SetSetting(SettingLastUsername, ""); err != nil {
			db.logger.Warn("clear last username", "err", err)
		}
	}
	db.logger.Info("account deleted", "username", user.Username, "tasks", removed)
	return nil
}
