// Package telegram sends render notifications via the Telegram Bot API.
// It formats a render summary into a MarkdownV2 message and delivers it with
// retry logic.
package telegram

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/rewired-gh/trendline/internal/render"
)

// sender is the part of the bot API the client uses.
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

// Report describes one finished render.
type Report struct {
	Summary    render.Summary
	Source     string
	RenderedAt time.Time
	Elapsed    time.Duration
	Skipped    int // Non-fatal fixture errors
	Cached     bool
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

// Send sends a notification for a finished render
func (c *Client) Send(report Report) error {
	msg := tgbotapi.NewMessage(c.chatID, formatMessage(report))
	msg.ParseMode = "MarkdownV2"
	msg.DisableWebPagePreview = true

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		_, err := c.bot.Send(msg)
		if err == nil {
			return nil
		}
		lastErr = err
		if i+1 < c.maxRetries {
			time.Sleep(c.retryDelayBase * time.Duration(i+1))
		}
	}

	return fmt.Errorf("failed to send message after %d retries: %w", c.maxRetries, lastErr)
}

// formatMessage formats a render report into a Telegram message
func formatMessage(r Report) string {
	var b strings.Builder
	b.WriteString("📊 *Trendline Render Complete*\n\n")

	if !r.RenderedAt.IsZero() {
		fmt.Fprintf(&b, "📅 Rendered: %s\n", escapeMarkdownV2(r.RenderedAt.Format("2006-01-02 15:04:05")))
	}
	if r.Source != "" {
		fmt.Fprintf(&b, "📁 Source: `%s`\n", escapeCode(r.Source))
	}
	status := formatDuration(r.Elapsed)
	if r.Cached {
		status = "cached"
	}
	fmt.Fprintf(&b, "⏱ Took: %s\n\n", escapeMarkdownV2(status))

	s := r.Summary
	fmt.Fprintf(&b, "*%s*: %s conversations over %d weeks\n",
		escapeMarkdownV2(s.OverallName),
		escapeMarkdownV2(humanize.Comma(s.OverallVolume)),
		s.Weeks)
	if s.PeakPeriod != "" {
		fmt.Fprintf(&b, "📈 Peak week: %s \\(%s\\)\n",
			escapeMarkdownV2(s.PeakPeriod),
			escapeMarkdownV2(humanize.Comma(s.PeakVolume)))
	}

	if len(s.TopEvents) > 0 {
		fmt.Fprintf(&b, "\nTop events of %d:\n", s.EventCount)
		for i, ev := range s.TopEvents {
			fmt.Fprintf(&b, "%d\\. %s: *%s*", i+1,
				escapeMarkdownV2(ev.Name),
				escapeMarkdownV2(humanize.Comma(ev.Volume)))
			if ev.Reach > 0 {
				fmt.Fprintf(&b, " · %s reach", escapeMarkdownV2(humanize.Comma(ev.Reach)))
			}
			b.WriteString("\n")
		}
	}

	if r.Skipped > 0 {
		fmt.Fprintf(&b, "\n⚠️ %d fixture entries skipped\n", r.Skipped)
	}
	return b.String()
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2
func escapeMarkdownV2(text string) string {
	// Characters that need escaping in MarkdownV2:
	// _ * [ ] ( ) ~ ` > # + - = | { } . !
	var b strings.Builder
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!', '\\':
			b.WriteRune('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}

// escapeCode escapes text placed inside a `code` span, where only ` and \ are special.
func escapeCode(text string) string {
	return strings.NewReplacer("\\", "\\\\", "`", "\\`").Replace(text)
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if hours := int(d.Hours()); hours >= 1 {
		return fmt.Sprintf("%dh", hours)
	}
	if mins := int(d.Minutes()); mins >= 1 {
		return fmt.Sprintf("%dm", mins)
	}
	if secs := int(d.Seconds()); secs >= 1 {
		return fmt.Sprintf("%ds", secs)
	}
	return fmt.Sprintf("%dms", d.Milliseconds())
}
