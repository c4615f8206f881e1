package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeApps()
	c.normalizeTriggers()
	c.normalizeWorkflow()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.StateDir, err = ExpandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = ExpandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeApps() {
	c.MessagingApp.DisplayName = strings.TrimSpace(c.MessagingApp.DisplayName)
	c.MessagingApp.ProcessName = strings.TrimSpace(c.MessagingApp.ProcessName)
	if c.MessagingApp.DisplayName == "" {
		c.MessagingApp.DisplayName = "messaging app"
	}

	c.SyncClient.DisplayName = strings.TrimSpace(c.SyncClient.DisplayName)
	c.SyncClient.ProcessName = strings.TrimSpace(c.SyncClient.ProcessName)
	if c.SyncClient.DisplayName == "" {
		c.SyncClient.DisplayName = "sync client"
	}
	if c.SyncClient.SyncCheckIntervalSeconds <= 0 {
		c.SyncClient.SyncCheckIntervalSeconds = defaultSyncCheckIntervalSeconds
	}
	if c.SyncClient.SettleSeconds < 0 {
		c.SyncClient.SettleSeconds = 0
	}
}

func (c *Config) normalizeTriggers() {
	if c.Triggers.IdlePollSeconds <= 0 {
		c.Triggers.IdlePollSeconds = defaultIdlePollSeconds
	}
	if c.Triggers.SchedulePollSeconds <= 0 {
		c.Triggers.SchedulePollSeconds = defaultSchedulePollSeconds
	}
	for i := range c.Triggers.Schedules {
		rule := &c.Triggers.Schedules[i]
		rule.Time = strings.TrimSpace(rule.Time)
		days := make([]string, 0, len(rule.Days))
		for _, day := range rule.Days {
			day = strings.ToLower(strings.TrimSpace(day))
			if day != "" {
				days = append(days, day)
			}
		}
		if len(days) == 0 {
			days = []string{"daily"}
		}
		rule.Days = days
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.MaxRetryAttempts <= 0 {
		c.Workflow.MaxRetryAttempts = defaultMaxRetryAttempts
	}
	if c.Workflow.RetryDelaySeconds < 0 {
		c.Workflow.RetryDelaySeconds = 0
	}
	if c.Workflow.StopSettleSeconds < 0 {
		c.Workflow.StopSettleSeconds = 0
	}
	if c.Workflow.SyncWaitTimeoutSeconds <= 0 {
		c.Workflow.SyncWaitTimeoutSeconds = defaultSyncWaitTimeoutSeconds
	}
	if c.Workflow.RunTimeoutSeconds <= 0 {
		c.Workflow.RunTimeoutSeconds = defaultRunTimeoutSeconds
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.MaxSizeMB <= 0 {
		c.Logging.MaxSizeMB = defaultMaxSizeMB
	}
	if c.Logging.MaxBackups <= 0 {
		c.Logging.MaxBackups = defaultMaxBackups
	}
}
