package config

import (
	"fmt"
	"time"
)

// Validate performs business-rule validation on the loaded configuration.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite3":
		if c.Database.DSN == "" && c.Database.DataDir == "" {
			return fmt.Errorf("database: data_dir or dsn is required for sqlite3")
		}
	case "postgres":
		if c.Database.DSN == "" {
			return fmt.Errorf("database: dsn is required for postgres")
		}
	default:
		return fmt.Errorf("database: unsupported driver %q", c.Database.Driver)
	}

	if c.Bot.Enabled {
		if c.Bot.Token == "" {
			return fmt.Errorf("bot: token is required when the bot is enabled")
		}
		if c.Bot.OwnerID == 0 {
			return fmt.Errorf("bot: owner_id is required when the bot is enabled")
		}
	}

	if c.Reminder.Hour < 0 || c.Reminder.Hour > 23 {
		return fmt.Errorf("reminder: hour must be in 0..23 (got %d)", c.Reminder.Hour)
	}
	if _, err := c.Reminder.Location(); err != nil {
		return fmt.Errorf("reminder: %w", err)
	}

	if c.Speech.Rate <= 0 {
		return fmt.Errorf("speech: rate must be > 0 (got %v)", c.Speech.Rate)
	}
	if c.Study.MasteredQuota < 0 {
		return fmt.Errorf("study: mastered_quota must be >= 0 (got %d)", c.Study.MasteredQuota)
	}

	return nil
}

// Location resolves the reminder timezone.
func (r ReminderConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", r.Timezone, err)
	}
	return loc, nil
}

// IsProduction reports whether the application runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
