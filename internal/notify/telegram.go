// Package notify delivers review reminders to the learner over Telegram.
package notify

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/example/lexitrack/internal/logger"
	"github.com/example/lexitrack/internal/scheduler"
	"github.com/example/lexitrack/pkg/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Telegram sends reminders to a single chat
type Telegram struct {
	api    *tgbotapi.BotAPI
	chatID int64
	log    *logger.Logger
}

// NewTelegram connects to the Bot API with the given token
func NewTelegram(token string, chatID int64, log *logger.Logger) (*Telegram, error) {
	return NewTelegramWithEndpoint(token, tgbotapi.APIEndpoint, chatID, log)
}

// NewTelegramWithEndpoint connects to a Bot API compatible endpoint.
// The endpoint is a format string taking the token and the method name.
func NewTelegramWithEndpoint(token, endpoint string, chatID int64, log *logger.Logger) (*Telegram, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram token is not set")
	}
	if chatID == 0 {
		return nil, fmt.Errorf("telegram chat id is not set")
	}

	api, err := tgbotapi.NewBotAPIWithClient(token, endpoint, newHTTPClient())
	if err != nil {
		return nil, fmt.Errorf("connect to telegram: %w", err)
	}
	log.Info("telegram notifier ready", "bot", api.Self.UserName)

	return &Telegram{api: api, chatID: chatID, log: log}, nil
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 15 * time.Second}
}

// SendReminder implements scheduler.Notifier
func (t *Telegram) SendReminder(_ context.Context, r scheduler.Reminder) error {
	msg := tgbotapi.NewMessage(t.chatID, FormatReminder(r))
	if _, err := t.api.Send(msg); err != nil {
		t.log.Error("failed to send reminder", "chat_id", t.chatID, "error", err)
		return fmt.Errorf("send telegram message: %w", err)
	}
	t.log.Debug("reminder delivered", "chat_id", t.chatID, "due", r.DueCount)
	return nil
}

// FormatReminder renders the reminder text
func FormatReminder(r scheduler.Reminder) string {
	var b strings.Builder

	noun := "reviews"
	if r.DueCount == 1 {
		noun = "review"
	}
	fmt.Fprintf(&b, "You have %d %s waiting.", r.DueCount, noun)

	if r.Streak > 1 {
		fmt.Fprintf(&b, " Keep your %d-day streak going!", r.Streak)
	}

	if len(r.Recommendations) > 0 {
		b.WriteString("\n\nReady to learn next:")
		for _, rec := range r.Recommendations {
			b.WriteString("\n• ")
			b.WriteString(recommendationLine(rec))
		}
	}

	return b.String()
}

func recommendationLine(rec models.Recommendation) string {
	label := rec.SurfaceForm
	if rec.Kind == models.KindGrammar && rec.Name != "" {
		label = rec.Name
	}
	if rec.Reading != "" && rec.Reading != label {
		label += " (" + rec.Reading + ")"
	}
	if rec.Meaning != "" {
		label += " - " + rec.Meaning
	}
	return fmt.Sprintf("%s [%s]", label, rec.Level)
}
