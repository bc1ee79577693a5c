package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// maxMessageLength is Telegram's limit for a single text message.
const maxMessageLength = 4096

type TelegramBot struct {
	bot            *tgbotapi.BotAPI
	handler        *Handler
	chatID         int64
	commandTimeout time.Duration
}

func NewTelegramBot(token string, chatID int64, commandTimeout time.Duration, svc Service) (*TelegramBot, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	handler := NewHandler(svc)

	return &TelegramBot{
		bot:            bot,
		handler:        handler,
		chatID:         chatID,
		commandTimeout: commandTimeout,
	}, nil
}

func (t *TelegramBot) Start(ctx context.Context) error {
	slog.Info("Authorized on account", "username", t.bot.Self.UserName)
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := t.bot.GetUpdatesChan(u)
	defer t.bot.StopReceivingUpdates()

	for {
		select {
		case update := <-updates:
			if update.Message == nil {
				continue
			}

			if update.Message.IsCommand() {
				t.handle(ctx, update)
			}
		case <-ctx.Done():
			return nil
		}
	}
}

func (t *TelegramBot) handle(ctx context.Context, update tgbotapi.Update) {
	if t.commandTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.commandTimeout)
		defer cancel()
	}

	msg := t.handler.HandleCommand(ctx, update)
	for _, chunk := range splitMessage(msg.Text, maxMessageLength) {
		part := msg
		part.Text = chunk
		if _, err := t.bot.Send(part); err != nil {
			slog.Error("Error sending message", "error", err)
		}
	}
}

func (t *TelegramBot) SendMessage(text string) error {
	if t.chatID == 0 {
		slog.Error("Chat ID not set")
		return fmt.Errorf("chat ID not set")
	}

	for _, chunk := range splitMessage(text, maxMessageLength) {
		msg := tgbotapi.NewMessage(t.chatID, chunk)
		msg.ParseMode = "Markdown"
		if _, err := t.bot.Send(msg); err != nil {
			slog.Error("Error sending message", "error", err)
			return err
		}
	}
	return nil
}

// splitMessage cuts text into chunks of at most limit bytes. Chunks break
// between blocks separated by a blank line so a Markdown entity inside a
// block is never split. A block longer than limit falls back to line
// boundaries, and a line longer than limit is cut at a rune boundary.
func splitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}

	var chunks []string
	var sb strings.Builder
	flush := func() {
		if sb.Len() > 0 {
			chunks = append(chunks, sb.String())
			sb.Reset()
		}
	}
	for _, block := range strings.SplitAfter(text, "\n\n") {
		if len(block) > limit {
			flush()
			chunks = append(chunks, splitLines(block, limit)...)
			continue
		}
		if sb.Len()+len(block) > limit {
			flush()
		}
		sb.WriteString(block)
	}
	flush()
	return chunks
}

func splitLines(text string, limit int) []string {
	var chunks []string
	var sb strings.Builder
	for _, line := range strings.SplitAfter(text, "\n") {
		for len(line) > limit {
			if sb.Len() > 0 {
				chunks = append(chunks, sb.String())
				sb.Reset()
			}
			cut := limit
			for cut > 1 && !utf8.RuneStart(line[cut]) {
				cut--
			}
			chunks = append(chunks, line[:cut])
			line = line[cut:]
		}
		if sb.Len()+len(line) > limit {
			chunks = append(chunks, sb.String())
			sb.Reset()
		}
		sb.WriteString(line)
	}
	if sb.Len() > 0 {
		chunks = append(chunks, sb.String())
	}
	return chunks
}
