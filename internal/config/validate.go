package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var validDays = map[string]struct{}{
	"daily":     {},
	"monday":    {},
	"tuesday":   {},
	"wednesday": {},
	"thursday":  {},
	"friday":    {},
	"saturday":  {},
	"sunday":    {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateApps(); err != nil {
		return err
	}
	if err := c.validateTriggers(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateApps() error {
	if c.MessagingApp.ProcessName == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/unjam/config.toml"
		}
		return fmt.Errorf("messaging_app.process_name is required. Edit %s (create with 'unjam config init')", defaultPath)
	}
	if c.SyncClient.ProcessName == "" {
		return errors.New("sync_client.process_name must be set")
	}
	return nil
}

func (c *Config) validateTriggers() error {
	if c.Triggers.IdleEnabled && c.Triggers.IdleThresholdMinutes <= 0 {
		return errors.New("triggers.idle_threshold_minutes must be positive when idle trigger is enabled")
	}
	if c.Triggers.CooldownMinutes < 0 {
		return errors.New("triggers.cooldown_minutes must not be negative")
	}
	for i, rule := range c.Triggers.Schedules {
		if _, _, err := rule.Clock(); err != nil {
			return fmt.Errorf("triggers.schedule[%d]: %w", i, err)
		}
		for _, day := range rule.Days {
			if _, ok := validDays[day]; !ok {
				return fmt.Errorf("triggers.schedule[%d]: unknown day %q", i, day)
			}
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level %q is not recognized", c.Logging.Level)
	}
	return nil
}

// Clock parses the rule's time-of-day in 24-hour HH:MM form.
func (r ScheduleRule) Clock() (hour, minute int, err error) {
	parts := strings.Split(r.Time, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("time %q must be in HH:MM form", r.Time)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("time %q has an invalid hour", r.Time)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("time %q has an invalid minute", r.Time)
	}
	return hour, minute, nil
}

// Daily reports whether the rule fires every day of the week.
func (r ScheduleRule) Daily() bool {
	for _, day := range r.Days {
		if day == "daily" {
			return true
		}
	}
	return false
}
