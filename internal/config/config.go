package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
}

// App describes one managed desktop application and how to control it.
type App struct {
	// DisplayName is used in logs and CLI output.
	DisplayName string `toml:"display_name"`
	// ProcessName is the executable image name used to probe running state.
	ProcessName string `toml:"process_name"`
	// StartCommand launches the application (argv form).
	StartCommand []string `toml:"start_command"`
	// StopCommand terminates the application. When empty, a platform default
	// built from ProcessName is used.
	StopCommand []string `toml:"stop_command"`
}

// SyncClient extends App with sync-completion probing.
type SyncClient struct {
	App
	// SyncCheckCommand exits 0 once the client reports an idle/synced state.
	// When empty the workflow falls back to a fixed settle wait.
	SyncCheckCommand []string `toml:"sync_check_command"`
	// SyncCheckIntervalSeconds is the poll interval while waiting for sync.
	SyncCheckIntervalSeconds int `toml:"sync_check_interval_seconds"`
	// SettleSeconds is the fixed wait used when no check command is configured.
	SettleSeconds int `toml:"settle_seconds"`
}

// ScheduleRule configures a time-of-day trigger.
type ScheduleRule struct {
	Enabled bool   `toml:"enabled"`
	Time    string `toml:"time"`
	// Days holds weekday names (monday..sunday) or the single value "daily".
	Days []string `toml:"days"`
}

// Triggers contains idle, schedule, and cooldown configuration.
type Triggers struct {
	IdleEnabled          bool           `toml:"idle_enabled"`
	IdleThresholdMinutes float64        `toml:"idle_threshold_minutes"`
	IdlePollSeconds      int            `toml:"idle_poll_seconds"`
	SchedulePollSeconds  int            `toml:"schedule_poll_seconds"`
	CooldownMinutes      float64        `toml:"cooldown_minutes"`
	Schedules            []ScheduleRule `toml:"schedule"`
}

// Workflow contains retry and timeout configuration for the recovery sequence.
type Workflow struct {
	MaxRetryAttempts       int `toml:"max_retry_attempts"`
	RetryDelaySeconds      int `toml:"retry_delay_seconds"`
	StopSettleSeconds      int `toml:"stop_settle_seconds"`
	SyncWaitTimeoutSeconds int `toml:"sync_wait_timeout_seconds"`
	RunTimeoutSeconds      int `toml:"run_timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format     string `toml:"format"`
	Level      string `toml:"level"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
}

// Config encapsulates all configuration values for unjam.
//
// Configuration sections by subsystem:
//   - Paths: state and log directories
//   - MessagingApp: the lock-holding application that gets stopped and restarted
//   - SyncClient: the file-sync client that gets restarted and waited on
//   - Triggers: idle threshold, schedule rules, and the global cooldown
//   - Workflow: retry limits and timeouts for the recovery sequence
//   - Logging: log format, level, and rotation
type Config struct {
	Paths        Paths      `toml:"paths"`
	MessagingApp App        `toml:"messaging_app"`
	SyncClient   SyncClient `toml:"sync_client"`
	Triggers     Triggers   `toml:"triggers"`
	Workflow     Workflow   `toml:"workflow"`
	Logging      Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return ExpandPath("~/.config/unjam/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized. The second return value is the
// resolved path, the third reports whether the file existed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := ExpandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	if env := os.Getenv("UNJAM_CONFIG"); env != "" {
		return resolveConfigPath(env)
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("unjam.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// CooldownStatePath returns the path of the persisted cooldown state record.
func (c *Config) CooldownStatePath() string {
	return filepath.Join(c.Paths.StateDir, "cooldown_state.json")
}

// HistoryDBPath returns the path of the run-history database.
func (c *Config) HistoryDBPath() string {
	return filepath.Join(c.Paths.StateDir, "history.db")
}

// SocketPath returns the daemon IPC socket path.
func (c *Config) SocketPath() string {
	return filepath.Join(c.Paths.StateDir, "unjam.sock")
}

// LockPath returns the daemon single-instance lock file path.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "unjamd.lock")
}

// LogFilePath returns the rotating daemon log file path.
func (c *Config) LogFilePath() string {
	return filepath.Join(c.Paths.LogDir, "unjam.log")
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	expanded, err := ExpandPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file already exists at %s", expanded)
	}
	if err := os.WriteFile(expanded, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// ExpandPath expands a leading tilde and returns an absolute, cleaned path.
func ExpandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}
