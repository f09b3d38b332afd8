package telegram

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rewired-gh/evsignal/internal/analysis"
	"github.com/rewired-gh/evsignal/internal/models"
)

type fakeSender struct {
	failures int
	sent     []tgbotapi.MessageConfig
	attempts int
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.attempts++
	if f.attempts <= f.failures {
		return tgbotapi.Message{}, errors.New("network down")
	}
	f.sent = append(f.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{}, nil
}

func sampleResults() []*analysis.MatchAnalysis {
	return []*analysis.MatchAnalysis{
		{
			MatchID:  "127-121",
			HomeTeam: "Flamengo",
			AwayTeam: "Palmeiras",
			Rates:    models.ExpectedGoals{Home: 1.5, Away: 1.1},
			ValueBets: []models.CandidateBet{
				{Market: "home_win", Probability: 0.464, Odd: 2.5, EV: 0.16, Kelly: 0.107, Tag: models.TagSimpleHigh},
			},
		},
		{MatchID: "no-value"},
		nil,
	}
}

func TestEscapeMarkdownV2(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"over_2.5", "over\\_2\\.5"},
		{"EV +16.0%", "EV \\+16\\.0%"},
		{"[simple_high]", "\\[simple\\_high\\]"},
		{"a-b (c)!", "a\\-b \\(c\\)\\!"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, escapeMarkdownV2(tt.in))
		})
	}
}

func TestFormatReport(t *testing.T) {
	msg, ok := formatReport(sampleResults())
	require.True(t, ok)

	assert.Contains(t, msg, "1\\. Flamengo vs Palmeiras")
	assert.Contains(t, msg, "xG: 1\\.50 x 1\\.10")
	assert.Contains(t, msg, "home\\_win @ 2\\.50")
	assert.Contains(t, msg, "EV \\+16\\.0%")
	assert.Contains(t, msg, "\\[simple\\_high\\]")
	assert.NotContains(t, msg, "no\\-value")
}

func TestFormatReport_NothingToReport(t *testing.T) {
	_, ok := formatReport([]*analysis.MatchAnalysis{{MatchID: "a"}})
	assert.False(t, ok)
}

func TestSendReport_Retries(t *testing.T) {
	bot := &fakeSender{failures: 2}
	c, err := newClient(bot, "12345", 3, time.Millisecond)
	require.NoError(t, err)

	require.NoError(t, c.SendReport(context.Background(), sampleResults()))
	assert.Equal(t, 3, bot.attempts)
	require.Len(t, bot.sent, 1)
	assert.Equal(t, int64(12345), bot.sent[0].ChatID)
	assert.Equal(t, tgbotapi.ModeMarkdownV2, bot.sent[0].ParseMode)
	assert.True(t, strings.HasPrefix(bot.sent[0].Text, "⚽"))
}

func TestSendReport_GivesUp(t *testing.T) {
	bot := &fakeSender{failures: 10}
	c, err := newClient(bot, "1", 2, time.Millisecond)
	require.NoError(t, err)

	err = c.SendReport(context.Background(), sampleResults())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 retries")
	assert.Equal(t, 2, bot.attempts)
}

func TestSendReport_SkipsEmpty(t *testing.T) {
	bot := &fakeSender{}
	c, err := newClient(bot, "1", 1, time.Millisecond)
	require.NoError(t, err)

	require.NoError(t, c.SendReport(context.Background(), nil))
	assert.Zero(t, bot.attempts)
}

func TestNewClient_InvalidChatID(t *testing.T) {
	_, err := newClient(&fakeSender{}, "not-a-number", 1, 0)
	assert.Error(t, err)
}
