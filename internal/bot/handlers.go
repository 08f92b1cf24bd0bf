package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/example/engcards/internal/backup"
	"github.com/example/engcards/internal/excel"
	"github.com/example/engcards/internal/importer"
	"github.com/example/engcards/internal/spaced_repetition"
	"github.com/example/engcards/internal/study"
	"github.com/example/engcards/pkg/models"
)

// Constants for callback data
const (
	cbMenu          = "main_menu"
	cbStudy         = "study_words"
	cbFlip          = "card_flip"
	cbKnow          = "card_know"
	cbAgain         = "card_again"
	cbConversation  = "conversation"
	cbPatternPrefix = "pattern_"
	cbConvReady     = "conv_ready"
	cbConvRetry     = "conv_retry"
	cbConvNext      = "conv_next"
	cbStats         = "show_stats"
	cbAdd           = "add_words"
	cbExport        = "export_json"
	cbExportXLSX    = "export_xlsx"
	cbTemplate      = "template"
	cbImport        = "import"
	cbImportConfirm = "import_confirm"
	cbImportCancel  = "import_cancel"
	cbReset         = "reset"
	cbResetConfirm  = "reset_confirm"
	cbResetCancel   = "reset_cancel"
)

// MainMenuButtons returns the buttons for the main menu
func MainMenuButtons() [][]MenuButton {
	return [][]MenuButton{
		{{Text: "📚 Study words", CallbackData: cbStudy}, {Text: "💬 Conversation", CallbackData: cbConversation}},
		{{Text: "📊 Statistics", CallbackData: cbStats}, {Text: "➕ Add words", CallbackData: cbAdd}},
		{{Text: "💾 Export JSON", CallbackData: cbExport}, {Text: "📗 Export Excel", CallbackData: cbExportXLSX}},
		{{Text: "📥 Import", CallbackData: cbImport}, {Text: "📄 Template", CallbackData: cbTemplate}},
		{{Text: "🗑 Reset progress", CallbackData: cbReset}},
	}
}

var backButton = []MenuButton{{Text: "« Back to menu", CallbackData: cbMenu}}

// handleUpdate handles incoming updates from Telegram
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	var err error
	switch {
	case update.Message != nil:
		if !b.isOwner(update.Message.Chat.ID) {
			b.refuse(update.Message.Chat.ID)
			return
		}
		err = b.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		cb := update.CallbackQuery
		if cb.Message == nil || !b.isOwner(cb.Message.Chat.ID) {
			return
		}
		// Always answer the callback query to remove the loading state
		if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
			b.logger.Warn("failed to answer callback", zap.Error(err))
		}
		err = b.handleCallback(ctx, cb.Message.Chat.ID, cb.Data)
	default:
		return
	}

	if err != nil {
		b.logger.Error("update handling failed", zap.Int("update_id", update.UpdateID), zap.Error(err))
	}
}

func (b *Bot) refuse(chatID int64) {
	b.logger.Warn("message from unknown chat ignored", zap.Int64("chat_id", chatID))
	_ = b.sendText(chatID, "This bot is private.", nil)
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) error {
	chatID := message.Chat.ID

	if message.IsCommand() {
		return b.handleCommand(ctx, message)
	}

	if message.Document != nil {
		if b.state != stateAwaitingImport {
			return b.sendText(chatID, "Choose 📥 Import first, then send the file.", [][]MenuButton{backButton})
		}
		return b.handleDocument(ctx, chatID, message.Document)
	}

	text := strings.TrimSpace(message.Text)
	switch {
	case b.state == stateAwaitingWords:
		return b.addWords(ctx, chatID, text)
	case b.conversation != nil && b.conversation.Mode() == study.ModeSpeak:
		return b.submitTranscript(chatID, text)
	default:
		return b.sendText(chatID, "I don't understand. Use /menu to show the main menu.", MainMenuButtons())
	}
}

// handleCommand handles bot commands
func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) error {
	chatID := message.Chat.ID
	switch message.Command() {
	case "start", "menu":
		return b.showMainMenu(chatID)
	case "help":
		return b.sendText(chatID, helpText, MainMenuButtons())
	case "study":
		return b.startWordSession(ctx, chatID)
	case "talk":
		return b.showPatterns(chatID)
	case "stats":
		return b.showStats(chatID)
	case "add":
		if args := strings.TrimSpace(message.CommandArguments()); args != "" {
			return b.addWords(ctx, chatID, args)
		}
		return b.promptAddWords(chatID)
	case "export":
		return b.exportJSON(chatID)
	case "export_xlsx":
		return b.exportWorkbook(chatID)
	case "template":
		return b.sendTemplate(chatID)
	case "import":
		return b.promptImport(chatID)
	case "reset":
		return b.confirmReset(chatID)
	default:
		return b.sendText(chatID, "Unknown command. Use /menu to show the main menu.", MainMenuButtons())
	}
}

func (b *Bot) handleCallback(ctx context.Context, chatID int64, data string) error {
	switch data {
	case cbMenu:
		return b.showMainMenu(chatID)
	case cbStudy:
		return b.startWordSession(ctx, chatID)
	case cbFlip:
		return b.flipCard(chatID)
	case cbKnow, cbAgain:
		return b.answerCard(ctx, chatID, data == cbKnow)
	case cbConversation:
		return b.showPatterns(chatID)
	case cbConvReady:
		return b.conversationReady(ctx, chatID)
	case cbConvRetry:
		return b.conversationRetry(chatID)
	case cbConvNext:
		return b.conversationNext(ctx, chatID)
	case cbStats:
		return b.showStats(chatID)
	case cbAdd:
		return b.promptAddWords(chatID)
	case cbExport:
		return b.exportJSON(chatID)
	case cbExportXLSX:
		return b.exportWorkbook(chatID)
	case cbTemplate:
		return b.sendTemplate(chatID)
	case cbImport:
		return b.promptImport(chatID)
	case cbImportConfirm:
		return b.applyImport(ctx, chatID)
	case cbImportCancel:
		b.pending = nil
		return b.sendText(chatID, "Import cancelled.", MainMenuButtons())
	case cbReset:
		return b.confirmReset(chatID)
	case cbResetConfirm:
		return b.reset(ctx, chatID)
	case cbResetCancel:
		return b.sendText(chatID, "Reset cancelled.", MainMenuButtons())
	}

	if strings.HasPrefix(data, cbPatternPrefix) {
		idx, err := strconv.Atoi(strings.TrimPrefix(data, cbPatternPrefix))
		if err != nil {
			return fmt.Errorf("invalid pattern index in callback data: %w", err)
		}
		return b.startConversation(ctx, chatID, idx)
	}

	return b.sendText(chatID, "⚠️ Unknown action", MainMenuButtons())
}

// showMainMenu shows the main menu
func (b *Bot) showMainMenu(chatID int64) error {
	b.state = stateIdle
	return b.sendText(chatID, "Main Menu - choose an option:", MainMenuButtons())
}

func (b *Bot) showStats(chatID int64) error {
	return b.sendText(chatID, formatStats(b.catalog.Stats()), [][]MenuButton{
		{{Text: "🎯 Start studying", CallbackData: cbStudy}},
		backButton,
	})
}

// Word flashcards

func (b *Bot) startWordSession(ctx context.Context, chatID int64) error {
	b.state = stateIdle
	ladder := &spaced_repetition.Ladder{MasteredQuota: b.config.MasteredQuota}
	b.words = study.NewWordSession(b.catalog.Words(), ladder, b.catalog, nil, b.config.Voice, b.logger)
	if b.words.Done() {
		b.words = nil
		return b.sendText(chatID, "No words to study yet. Add or import some first.", MainMenuButtons())
	}
	return b.showCard(ctx, chatID)
}

func (b *Bot) showCard(ctx context.Context, chatID int64) error {
	s := b.words
	if s == nil {
		return b.sendText(chatID, "No study session in progress.", MainMenuButtons())
	}

	if s.Done() {
		b.words = nil
		return b.sendText(chatID, formatWordSummary(s.Summary()), [][]MenuButton{
			{{Text: "🔁 Study again", CallbackData: cbStudy}},
			backButton,
		})
	}

	if err := s.Show(ctx); err != nil {
		b.logger.Warn("failed to read term aloud", zap.Error(err))
	}

	card, _ := s.Current()
	done, total := s.Progress()
	buttons := [][]MenuButton{{{Text: "👀 Show answer", CallbackData: cbFlip}}}
	if card.Flipped {
		buttons = [][]MenuButton{{
			{Text: "✅ I know it", CallbackData: cbKnow},
			{Text: "🔁 Again", CallbackData: cbAgain},
		}}
	}
	buttons = append(buttons, backButton)
	return b.sendText(chatID, formatCard(card, done, total), buttons)
}

func (b *Bot) flipCard(chatID int64) error {
	if b.words == nil {
		return b.sendText(chatID, "No study session in progress.", MainMenuButtons())
	}
	b.words.Flip()

	card, ok := b.words.Current()
	if !ok {
		return b.showCard(context.Background(), chatID)
	}
	done, total := b.words.Progress()
	return b.sendText(chatID, formatCard(card, done, total), [][]MenuButton{
		{{Text: "✅ I know it", CallbackData: cbKnow}, {Text: "🔁 Again", CallbackData: cbAgain}},
		backButton,
	})
}

func (b *Bot) answerCard(ctx context.Context, chatID int64, known bool) error {
	if b.words == nil {
		return b.sendText(chatID, "No study session in progress.", MainMenuButtons())
	}
	if _, err := b.words.Answer(ctx, known); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			// The catalog changed under the session, e.g. after a reset
			b.words = nil
			return b.sendText(chatID, "This word no longer exists. Start a new session.", MainMenuButtons())
		}
		return err
	}
	return b.showCard(ctx, chatID)
}

// Conversation practice

func (b *Bot) showPatterns(chatID int64) error {
	b.state = stateIdle
	b.patterns = study.Patterns(b.catalog.Sentences())
	if len(b.patterns) == 0 {
		return b.sendText(chatID, "No sentences yet. Import some first.", MainMenuButtons())
	}

	buttons := make([][]MenuButton, 0, len(b.patterns)+1)
	for i, p := range b.patterns {
		buttons = append(buttons, []MenuButton{{
			Text:         fmt.Sprintf("%s (%d)", p.Pattern, p.Count),
			CallbackData: cbPatternPrefix + strconv.Itoa(i),
		}})
	}
	buttons = append(buttons, backButton)
	return b.sendText(chatID, "💬 Choose a pattern to practise:", buttons)
}

func (b *Bot) startConversation(ctx context.Context, chatID int64, idx int) error {
	if idx < 0 || idx >= len(b.patterns) {
		return b.showPatterns(chatID)
	}
	pattern := b.patterns[idx].Pattern
	b.conversation = study.NewConversationSession(b.catalog.Sentences(), pattern, nil, nil, b.config.Voice, b.logger)
	return b.showListen(ctx, chatID)
}

func (b *Bot) showListen(ctx context.Context, chatID int64) error {
	c := b.conversation
	if c == nil {
		return b.showPatterns(chatID)
	}
	if c.Done() {
		b.conversation = nil
		return b.sendText(chatID, formatConversationSummary(c.Summary()), [][]MenuButton{
			{{Text: "💬 Another pattern", CallbackData: cbConversation}},
			backButton,
		})
	}

	s, _ := c.Current()
	pos, total := c.Progress()
	return b.sendText(chatID, formatListen(s, pos, total), [][]MenuButton{
		{{Text: "🎤 I'm ready to say it", CallbackData: cbConvReady}},
		{{Text: "⏭ Skip", CallbackData: cbConvNext}},
		backButton,
	})
}

func (b *Bot) conversationReady(ctx context.Context, chatID int64) error {
	c := b.conversation
	if c == nil {
		return b.showPatterns(chatID)
	}
	if c.Mode() == study.ModeListen {
		if err := c.Listen(ctx); err != nil {
			return err
		}
	}
	s, _ := c.Current()
	return b.sendText(chatID, formatSpeak(s), [][]MenuButton{backButton})
}

func (b *Bot) submitTranscript(chatID int64, text string) error {
	attempt, err := b.conversation.SubmitTranscript(text)
	if err != nil {
		return err
	}
	return b.sendText(chatID, formatAttempt(attempt), [][]MenuButton{
		{{Text: "🔁 Try again", CallbackData: cbConvRetry}, {Text: "➡️ Next", CallbackData: cbConvNext}},
		backButton,
	})
}

func (b *Bot) conversationRetry(chatID int64) error {
	if b.conversation == nil {
		return b.showPatterns(chatID)
	}
	if err := b.conversation.Retry(); err != nil {
		return err
	}
	s, _ := b.conversation.Current()
	return b.sendText(chatID, formatSpeak(s), [][]MenuButton{backButton})
}

func (b *Bot) conversationNext(ctx context.Context, chatID int64) error {
	if b.conversation == nil {
		return b.showPatterns(chatID)
	}
	if err := b.conversation.Next(); err != nil && !errors.Is(err, study.ErrSessionFinished) {
		return err
	}
	return b.showListen(ctx, chatID)
}

// Adding words

func (b *Bot) promptAddWords(chatID int64) error {
	b.state = stateAwaitingWords
	return b.sendText(chatID, "Send me your words, one per line, in the format:\n"+
		"term - definition\n\n"+
		"Example:\n"+
		"thrive - to grow or develop well\n"+
		"brisk - quick and energetic", [][]MenuButton{backButton})
}

func (b *Bot) addWords(ctx context.Context, chatID int64, text string) error {
	b.state = stateIdle

	entries, problems := parseWordLines(text)
	var added []string
	for _, nw := range entries {
		w, err := b.catalog.AddWord(ctx, nw)
		if err != nil && w.ID == "" {
			problems = append(problems, fmt.Sprintf("%s: %v", nw.Term, err))
			continue
		}
		if err != nil {
			b.logger.Warn("word added but not persisted", zap.String("item_id", w.ID), zap.Error(err))
		}
		added = append(added, w.Term)
	}

	return b.sendText(chatID, formatAddResult(added, problems), MainMenuButtons())
}

// Export

func (b *Bot) exportJSON(chatID int64) error {
	now := b.now()
	doc := backup.Export(b.catalog.Words(), b.catalog.Sentences(), now)

	var buf bytes.Buffer
	if err := backup.Write(&buf, doc); err != nil {
		return fmt.Errorf("failed to export backup: %w", err)
	}
	caption := fmt.Sprintf("💾 Backup: %d words, %d sentences", len(doc.Words), len(doc.Sentences))
	return b.sendFile(chatID, backup.FileName(now), buf.Bytes(), caption)
}

func (b *Bot) exportWorkbook(chatID int64) error {
	var buf bytes.Buffer
	if err := excel.ExportWorkbook(&buf, b.catalog.Words(), b.catalog.Sentences()); err != nil {
		return fmt.Errorf("failed to export workbook: %w", err)
	}
	name := strings.TrimSuffix(backup.FileName(b.now()), ".json") + ".xlsx"
	return b.sendFile(chatID, name, buf.Bytes(), "📗 Spreadsheet export")
}

func (b *Bot) sendTemplate(chatID int64) error {
	var buf bytes.Buffer
	if err := excel.WriteTemplate(&buf); err != nil {
		return fmt.Errorf("failed to build template: %w", err)
	}
	return b.sendFile(chatID, excel.TemplateFileName, buf.Bytes(),
		"📄 Fill in the Words and Sentences sheets, then send the file back with 📥 Import.")
}

// Import

var errFileTooLarge = errors.New("uploaded file is too large")

func (b *Bot) promptImport(chatID int64) error {
	b.state = stateAwaitingImport
	b.pending = nil
	return b.sendText(chatID,
		fmt.Sprintf("Send a backup, workbook or word list (%s).", strings.Join(importer.Extensions, ", ")),
		[][]MenuButton{backButton})
}

func (b *Bot) handleDocument(ctx context.Context, chatID int64, doc *tgbotapi.Document) error {
	b.state = stateIdle

	data, err := b.download(ctx, doc)
	if errors.Is(err, errFileTooLarge) {
		b.logger.Info("import rejected", zap.String("file", doc.FileName), zap.Error(err))
		return b.sendText(chatID,
			fmt.Sprintf("⚠️ The file is too large. The limit is %d KB.", b.config.MaxUploadBytes>>10),
			MainMenuButtons())
	}
	if err != nil {
		_ = b.sendText(chatID, "❌ Could not download the file. Please try again.", MainMenuButtons())
		return err
	}

	pending, err := importer.ParseBytes(doc.FileName, data)
	if err != nil {
		b.logger.Info("import rejected", zap.String("file", doc.FileName), zap.Error(err))
		return b.sendText(chatID, userMessage(err), MainMenuButtons())
	}

	b.pending = pending
	return b.sendText(chatID, formatImportPreview(pending), [][]MenuButton{
		{{Text: "✅ Import", CallbackData: cbImportConfirm}, {Text: "✖️ Cancel", CallbackData: cbImportCancel}},
	})
}

func (b *Bot) download(ctx context.Context, doc *tgbotapi.Document) ([]byte, error) {
	if int64(doc.FileSize) > b.config.MaxUploadBytes {
		return nil, fmt.Errorf("%w: %s has %d bytes", errFileTooLarge, doc.FileName, doc.FileSize)
	}

	url, err := b.api.GetFileDirectURL(doc.FileID)
	if err != nil {
		return nil, fmt.Errorf("failed to get file url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build download request: %w", err)
	}
	resp, err := b.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download file: status %d", resp.StatusCode)
	}
	// Telegram may report a zero size, so the limit is enforced on the body too
	data, err := io.ReadAll(io.LimitReader(resp.Body, b.config.MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if int64(len(data)) > b.config.MaxUploadBytes {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", errFileTooLarge, doc.FileName, b.config.MaxUploadBytes)
	}
	return data, nil
}

func (b *Bot) applyImport(ctx context.Context, chatID int64) error {
	p := b.pending
	b.pending = nil
	if p == nil {
		return b.sendText(chatID, "Nothing to import. Send a file first.", MainMenuButtons())
	}

	res, err := b.catalog.Merge(ctx, p.Words, p.Sentences)
	if err != nil {
		// Merged items stay in memory even when saving fails
		b.logger.Warn("import merged but not persisted", zap.Error(err))
	}
	return b.sendText(chatID, formatMergeResult(res), MainMenuButtons())
}

// Reset

func (b *Bot) confirmReset(chatID int64) error {
	return b.sendText(chatID, "⚠️ This erases all progress and restores the starter words. Are you sure?", [][]MenuButton{
		{{Text: "🗑 Yes, reset", CallbackData: cbResetConfirm}, {Text: "✖️ Cancel", CallbackData: cbResetCancel}},
	})
}

func (b *Bot) reset(ctx context.Context, chatID int64) error {
	if err := b.catalog.Reset(ctx); err != nil {
		_ = b.sendText(chatID, "❌ Reset failed. Please try again later.", MainMenuButtons())
		return err
	}
	b.words = nil
	b.conversation = nil
	b.pending = nil
	b.state = stateIdle

	if _, err := b.catalog.Initialize(ctx); err != nil {
		b.logger.Warn("starter data not persisted after reset", zap.Error(err))
	}
	return b.sendText(chatID, "✅ Progress reset. Starter words restored.", MainMenuButtons())
}

// userMessage maps import errors to something the owner can act on
func userMessage(err error) string {
	switch {
	case errors.Is(err, models.ErrEmptyImport):
		return "⚠️ Nothing importable was found in the file."
	case errors.Is(err, models.ErrParseFailure):
		return "❌ The file could not be read. Check its format and try again."
	case errors.Is(err, models.ErrNotFound):
		return "⚠️ That item no longer exists."
	default:
		return "❌ Something went wrong. Please try again later."
	}
}
