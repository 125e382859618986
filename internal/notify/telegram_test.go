package notify

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/example/lexitrack/internal/logger"
	"github.com/example/lexitrack/internal/scheduler"
	"github.com/example/lexitrack/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatReminder(t *testing.T) {
	tests := []struct {
		name     string
		reminder scheduler.Reminder
		want     string
	}{
		{
			name:     "single review",
			reminder: scheduler.Reminder{DueCount: 1},
			want:     "You have 1 review waiting.",
		},
		{
			name:     "streak",
			reminder: scheduler.Reminder{DueCount: 12, Streak: 5},
			want:     "You have 12 reviews waiting. Keep your 5-day streak going!",
		},
		{
			name: "recommendations",
			reminder: scheduler.Reminder{
				DueCount: 3,
				Recommendations: []models.Recommendation{
					{Kind: models.KindLexical, SurfaceForm: "水", Reading: "みず", Meaning: "water", Level: "N5"},
					{Kind: models.KindGrammar, SurfaceForm: "てform", Name: "て-form", Meaning: "connective form", Level: "N5"},
				},
			},
			want: "You have 3 reviews waiting.\n\nReady to learn next:" +
				"\n• 水 (みず) - water [N5]" +
				"\n• て-form - connective form [N5]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatReminder(tt.reminder))
		})
	}
}

func TestNewTelegramValidation(t *testing.T) {
	_, err := NewTelegram("", 42, logger.Nop())
	assert.Error(t, err)

	_, err = NewTelegram("token", 0, logger.Nop())
	assert.Error(t, err)
}

func TestTelegramSendReminder(t *testing.T) {
	var (
		mu   sync.Mutex
		sent url.Values
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			io.WriteString(w, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"Lexi","username":"lexibot"}}`)
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			_ = r.ParseForm()
			mu.Lock()
			sent = r.PostForm
			mu.Unlock()
			io.WriteString(w, `{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":42,"type":"private"},"text":"ok"}}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	tg, err := NewTelegramWithEndpoint("secret", srv.URL+"/bot%s/%s", 42, logger.Nop())
	require.NoError(t, err)

	err = tg.SendReminder(context.Background(), scheduler.Reminder{DueCount: 2})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "42", sent.Get("chat_id"))
	assert.Equal(t, "You have 2 reviews waiting.", sent.Get("text"))
}
