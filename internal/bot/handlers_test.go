package bot

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omarshaarawi/superliga/internal/models"
	"github.com/omarshaarawi/superliga/internal/service"
)

type mockService struct {
	err   error
	calls []string
}

func (m *mockService) record(call string) (string, error) {
	m.calls = append(m.calls, call)
	if m.err != nil {
		return "", m.err
	}
	return "ok " + call, nil
}

func (m *mockService) GetStandings(_ context.Context, league string) (string, error) {
	return m.record("standings:" + league)
}

func (m *mockService) FindTeams(_ context.Context, text string) (string, error) {
	return m.record("team:" + text)
}

func (m *mockService) GetTeamSLP(_ context.Context, name string) (string, error) {
	return m.record("slp:" + name)
}

func (m *mockService) GetTrades(_ context.Context) (string, error) {
	return m.record("trades")
}

func (m *mockService) Refresh(_ context.Context, trigger string) (*models.Report, error) {
	m.calls = append(m.calls, "refresh:"+trigger)
	if m.err != nil {
		return nil, m.err
	}
	return &models.Report{Operations: 3, Rows: make([]models.TeamRow, 2), Duration: time.Second}, nil
}

func commandUpdate(text string) tgbotapi.Update {
	length := len(text)
	if i := strings.Index(text, " "); i >= 0 {
		length = i
	}
	return tgbotapi.Update{
		Message: &tgbotapi.Message{
			Text:     text,
			Chat:     &tgbotapi.Chat{ID: 42},
			Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: length}},
		},
	}
}

func TestHandleCommand_Routes(t *testing.T) {
	cases := map[string]string{
		"/standings":          "ok standings:",
		"/standings Prata #1": "ok standings:Prata #1",
		"/team  alpha ":       "ok team:alpha",
		"/slp Alpha":          "ok slp:Alpha",
		"/trades":             "ok trades",
		"/refresh":            "🔄 Refreshed 2 teams in 1s (3/3 reads ok).",
		"/TRADES":             "ok trades",
	}

	for text, want := range cases {
		t.Run(text, func(t *testing.T) {
			h := NewHandler(&mockService{})

			msg := h.HandleCommand(context.Background(), commandUpdate(text))

			assert.Equal(t, int64(42), msg.ChatID)
			assert.Equal(t, "Markdown", msg.ParseMode)
			assert.Equal(t, want, msg.Text)
		})
	}
}

func TestHandleCommand_RefreshTrigger(t *testing.T) {
	svc := &mockService{}
	h := NewHandler(svc)

	h.HandleCommand(context.Background(), commandUpdate("/refresh"))

	assert.Equal(t, []string{"refresh:" + service.TriggerManual}, svc.calls)
}

func TestHandleCommand_UsageAndUnknown(t *testing.T) {
	svc := &mockService{}
	h := NewHandler(svc)

	assert.Contains(t, h.HandleCommand(context.Background(), commandUpdate("/team")).Text, "Usage: /team")
	assert.Contains(t, h.HandleCommand(context.Background(), commandUpdate("/slp")).Text, "Usage: /slp")
	assert.Contains(t, h.HandleCommand(context.Background(), commandUpdate("/help")).Text, "/standings [league]")
	assert.Contains(t, h.HandleCommand(context.Background(), commandUpdate("/start")).Text, "Welcome")
	assert.Contains(t, h.HandleCommand(context.Background(), commandUpdate("/whohas x")).Text, "Unknown command")
	assert.Empty(t, svc.calls)
}

func TestHandleCommand_Errors(t *testing.T) {
	h := NewHandler(&mockService{err: errors.New("sleeper down")})

	assert.Equal(t, "Error fetching standings: sleeper down", h.HandleCommand(context.Background(), commandUpdate("/standings")).Text)
	assert.Equal(t, "Error fetching trades: sleeper down", h.HandleCommand(context.Background(), commandUpdate("/trades")).Text)
	assert.Equal(t, "Error refreshing standings: sleeper down", h.HandleCommand(context.Background(), commandUpdate("/refresh")).Text)
}

func TestSplitMessage(t *testing.T) {
	assert.Equal(t, []string{"short"}, splitMessage("short", 10))

	chunks := splitMessage("aaaa\nbbbb\ncccc\n", 10)
	assert.Equal(t, []string{"aaaa\nbbbb\n", "cccc\n"}, chunks)

	chunks = splitMessage("xxxxxxxxxxxxxxxxxxxxxxxxx", 10)
	assert.Equal(t, []string{"xxxxxxxxxx", "xxxxxxxxxx", "xxxxx"}, chunks)

	chunks = splitMessage(strings.Repeat("é", 8), 5)
	require.Len(t, chunks, 4)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 5)
		assert.Equal(t, "éé", c)
	}
}

func TestSplitMessage_KeepsRowBlocksWhole(t *testing.T) {
	block := "1. *Alpha* (Prata #1)\n   SLP: 1100 Cobre\n\n"
	text := strings.Repeat(block, 3)

	chunks := splitMessage(text, len(block)+20)

	assert.Equal(t, []string{block, block, block}, chunks)
	for _, c := range chunks {
		assert.Equal(t, 2, strings.Count(c, "*"))
	}

	chunks = splitMessage(text, 2*len(block))
	assert.Equal(t, []string{block + block, block}, chunks)
}
