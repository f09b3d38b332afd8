// Package telegram sends value-bet reports through the Telegram Bot API.
// Reports are formatted as MarkdownV2 and delivered with linear-backoff
// retries.
package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/rewired-gh/evsignal/internal/analysis"
	"github.com/rewired-gh/evsignal/internal/logger"
	"github.com/rewired-gh/evsignal/internal/models"
)

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Client handles Telegram notifications
type Client struct {
	bot            sender
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
}

// NewClient creates a new Telegram client
func NewClient(botToken, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}
	return newClient(bot, chatID, maxRetries, retryDelayBase)
}

func newClient(bot sender, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}

	return &Client{
		bot:            bot,
		chatID:         chatIDInt,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}, nil
}

// SendReport posts the positive-EV bets of the given analyses. Nothing is sent
// when no analysis has a value bet.
func (c *Client) SendReport(ctx context.Context, results []*analysis.MatchAnalysis) error {
	message, ok := formatReport(results)
	if !ok {
		logger.Debug("No value bets to report")
		return nil
	}

	msg := tgbotapi.NewMessage(c.chatID, message)
	msg.ParseMode = tgbotapi.ModeMarkdownV2

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		_, err := c.bot.Send(msg)
		if err == nil {
			return nil
		}
		lastErr = err
		logger.Warn("Telegram send attempt %d/%d failed: %v", i+1, c.maxRetries, err)

		if i == c.maxRetries-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.retryDelayBase * time.Duration(i+1)):
		}
	}

	return fmt.Errorf("failed to send message after %d retries: %w", c.maxRetries, lastErr)
}

// formatReport renders one numbered entry per fixture with at least one value bet.
func formatReport(results []*analysis.MatchAnalysis) (string, bool) {
	var b strings.Builder
	b.WriteString("⚽ *Value Bets Found*\n\n")

	n := 0
	for _, r := range results {
		if r == nil || len(r.ValueBets) == 0 {
			continue
		}
		n++
		fmt.Fprintf(&b, "%d\\. %s\n", n, escapeMarkdownV2(matchTitle(r)))
		fmt.Fprintf(&b, "   📊 xG: %s\n", escapeMarkdownV2(fmt.Sprintf("%.2f x %.2f", r.Rates.Home, r.Rates.Away)))
		for _, bet := range r.ValueBets {
			b.WriteString("   ")
			b.WriteString(formatBet(bet))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	return b.String(), n > 0
}

func matchTitle(r *analysis.MatchAnalysis) string {
	if r.HomeTeam != "" && r.AwayTeam != "" {
		return r.HomeTeam + " vs " + r.AwayTeam
	}
	return "Match " + r.MatchID
}

func formatBet(bet models.CandidateBet) string {
	line := fmt.Sprintf("%s @ %.2f: p %.1f%%, EV %+.1f%%, Kelly %.1f%%",
		bet.Market, bet.Odd, bet.Probability*100, bet.EV*100, bet.Kelly*100)
	return "🎯 *" + escapeMarkdownV2(line) + "* " + escapeMarkdownV2("["+string(bet.Tag)+"]")
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2
func escapeMarkdownV2(text string) string {
	var b strings.Builder
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!':
			b.WriteByte('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}
