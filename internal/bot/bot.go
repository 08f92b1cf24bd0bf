package bot

import (
	"context"
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/example/engcards/internal/importer"
	"github.com/example/engcards/internal/scheduler"
	"github.com/example/engcards/internal/study"
	"github.com/example/engcards/internal/tracker"
	"github.com/example/engcards/pkg/models"
)

// MenuButton represents a button in the menu
type MenuButton struct {
	Text         string
	CallbackData string
}

// createKeyboard creates a keyboard from menu buttons
func createKeyboard(buttons [][]MenuButton) tgbotapi.InlineKeyboardMarkup {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, row := range buttons {
		var keyboardRow []tgbotapi.InlineKeyboardButton
		for _, button := range row {
			keyboardRow = append(keyboardRow, tgbotapi.NewInlineKeyboardButtonData(button.Text, button.CallbackData))
		}
		keyboard = append(keyboard, keyboardRow)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

// Catalog is the progress tracker as seen by the bot
type Catalog interface {
	Initialize(ctx context.Context) (bool, error)
	RecordReview(ctx context.Context, itemID string, wasCorrect bool) (models.Word, error)
	AddWord(ctx context.Context, nw models.NewWord) (models.Word, error)
	Merge(ctx context.Context, words []models.Word, sentences []models.Sentence) (tracker.MergeResult, error)
	Reset(ctx context.Context) error
	Words() []models.Word
	Sentences() []models.Sentence
	Stats() models.Statistics
}

// telegramAPI is the subset of the Bot API used to talk to the chat
type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

// UserState represents what the owner is expected to send next
type UserState string

const (
	stateIdle           UserState = ""
	stateAwaitingWords  UserState = "waiting_for_word_list"
	stateAwaitingImport UserState = "waiting_for_import_file"
)

// Bot represents the Telegram bot application
type Bot struct {
	client  *tgbotapi.BotAPI
	api     telegramAPI
	catalog Catalog
	config  *BotConfig
	http    *http.Client
	now     func() time.Time
	logger  *zap.Logger

	// Updates are handled one at a time, so the fields below need no locking
	state        UserState
	words        *study.WordSession
	conversation *study.ConversationSession
	patterns     []study.PatternGroup
	// parsed upload waiting for the owner to confirm
	pending *importer.Batch
}

var _ scheduler.Notifier = (*Bot)(nil)

// New creates a new bot instance
func New(token string, catalog Catalog, cfg *BotConfig, logger *zap.Logger) (*Bot, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram bot token is not set")
	}

	client, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("unable to create bot: %w", err)
	}

	b := newBot(client, catalog, cfg, logger)
	b.config.configureClient(client)
	b.client = client
	b.logger.Info("authorized on account", zap.String("username", client.Self.UserName))
	return b, nil
}

func newBot(api telegramAPI, catalog Catalog, cfg *BotConfig, logger *zap.Logger) *Bot {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bot{
		api:     api,
		catalog: catalog,
		config:  cfg,
		http:    &http.Client{Timeout: cfg.DownloadTimeout},
		now:     time.Now,
		logger:  logger,
	}
}

// Start polls for updates and handles them sequentially until ctx is cancelled
func (b *Bot) Start(ctx context.Context) error {
	if b.client == nil {
		return fmt.Errorf("bot is not connected to telegram")
	}

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = b.config.PollTimeout
	updates := b.client.GetUpdatesChan(updateConfig)

	for {
		select {
		case <-ctx.Done():
			b.client.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

// SendReminder implements the scheduler.Notifier interface
func (b *Bot) SendReminder(_ context.Context, r scheduler.Reminder) error {
	msg := tgbotapi.NewMessage(b.config.OwnerID, formatReminder(r))
	msg.ReplyMarkup = createKeyboard([][]MenuButton{{{Text: "📚 Study now", CallbackData: cbStudy}}})
	if err := b.sendMessage(msg); err != nil {
		return fmt.Errorf("failed to send reminder: %w", err)
	}
	return nil
}

func (b *Bot) isOwner(chatID int64) bool {
	return b.config.OwnerID != 0 && chatID == b.config.OwnerID
}

func (b *Bot) sendMessage(c tgbotapi.Chattable) error {
	if _, err := b.api.Send(c); err != nil {
		b.logger.Error("failed to send message", zap.Error(err))
		return err
	}
	return nil
}

func (b *Bot) sendText(chatID int64, text string, buttons [][]MenuButton) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if buttons != nil {
		msg.ReplyMarkup = createKeyboard(buttons)
	}
	return b.sendMessage(msg)
}

func (b *Bot) sendFile(chatID int64, name string, data []byte, caption string) error {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: name, Bytes: data})
	doc.Caption = caption
	return b.sendMessage(doc)
}
