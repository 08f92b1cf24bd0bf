package bot

import (
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/engcards/internal/study"
)

// BotConfig represents the configuration for the bot
type BotConfig struct {
	// Telegram chat allowed to drive the bot
	OwnerID int64
	// Number of mastered words mixed into a study deck
	MasteredQuota int
	Voice         study.Voice
	// Limits for uploaded import files
	DownloadTimeout time.Duration
	MaxUploadBytes  int64
	// Long polling timeout in seconds
	PollTimeout int
	// Log every Telegram API request and response
	Debug bool
}

// DefaultConfig returns the default bot configuration
func DefaultConfig() *BotConfig {
	return &BotConfig{
		MasteredQuota:   2,
		Voice:           study.DefaultVoice(),
		DownloadTimeout: 30 * time.Second,
		MaxUploadBytes:  10 << 20,
		PollTimeout:     60,
	}
}

// configureClient applies the client-level settings to a Telegram API client
func (c *BotConfig) configureClient(client *tgbotapi.BotAPI) {
	client.Debug = c.Debug
}
