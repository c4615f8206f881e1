package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"unjam/internal/config"
	"unjam/internal/cooldown"
	"unjam/internal/ipc"
	"unjam/internal/services"
)

type commandContext struct {
	socketFlag *string
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(socketFlag, configFlag *string) *commandContext {
	return &commandContext{
		socketFlag: socketFlag,
		configFlag: configFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = services.Wrap(services.ErrConfiguration, "cli", "load config", "", err)
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = services.Wrap(services.ErrConfiguration, "cli", "ensure directories", "", err)
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

func (c *commandContext) socketPath() string {
	if c.socketFlag != nil && strings.TrimSpace(*c.socketFlag) != "" {
		return *c.socketFlag
	}
	if cfg := c.configValue(); cfg != nil {
		return cfg.SocketPath()
	}
	return filepath.Join(os.TempDir(), "unjam.sock")
}

// localGate builds a cooldown gate over the shared state file, for commands
// that run without a daemon.
func (c *commandContext) localGate() (*cooldown.Gate, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	duration := time.Duration(cfg.Triggers.CooldownMinutes * float64(time.Minute))
	return cooldown.NewGate(cfg.CooldownStatePath(), duration, nil), nil
}

// withClient invokes fn against the daemon when its socket is reachable.
// The second return value reports whether a connection was attempted and
// failed because no daemon is listening.
func (c *commandContext) withClient(fn func(*ipc.Client) error) (bool, error) {
	client, err := c.dialClient()
	if err != nil {
		if daemonAbsent(err) {
			return false, nil
		}
		return false, err
	}
	defer client.Close()
	return true, fn(client)
}

func (c *commandContext) dialClient() (*ipc.Client, error) {
	socket := c.socketPath()
	client, err := ipc.Dial(socket)
	if err != nil {
		return nil, wrapDialError(err, socket)
	}
	return client, nil
}

func wrapDialError(err error, socket string) error {
	switch {
	case daemonAbsent(err):
		return fmt.Errorf("connect to daemon: socket %s not reachable; start the daemon with `unjamd`: %w", socket, err)
	default:
		return fmt.Errorf("connect to daemon: %w", err)
	}
}

func daemonAbsent(err error) bool {
	return errors.Is(err, syscall.ENOENT) || os.IsNotExist(err) || errors.Is(err, syscall.ECONNREFUSED)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
