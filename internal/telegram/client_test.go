package telegram

import (
	"errors"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/rewired-gh/trendline/internal/render"
)

type fakeBot struct {
	failures int
	calls    int
	last     tgbotapi.MessageConfig
}

func (f *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.calls++
	f.last = c.(tgbotapi.MessageConfig)
	if f.calls <= f.failures {
		return tgbotapi.Message{}, errors.New("telegram unavailable")
	}
	return tgbotapi.Message{}, nil
}

func testReport() Report {
	return Report{
		Summary: render.Summary{
			OverallName:   "Overall",
			OverallVolume: 1200,
			PeakPeriod:    "Dec 26, 22",
			PeakVolume:    700,
			Weeks:         3,
			EventCount:    2,
			TopEvents: []render.EventSummary{
				{Name: "Cricket Final", Volume: 400, Reach: 12000},
				{Name: "Monsoon Sale", Volume: 150},
			},
		},
		Source:     "fixtures/events.json",
		RenderedAt: time.Date(2023, 1, 16, 9, 30, 0, 0, time.UTC),
		Elapsed:    2 * time.Second,
		Skipped:    1,
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		duration time.Duration
		expected string
	}{
		{1 * time.Hour, "1h"},
		{2 * time.Hour, "2h"},
		{30 * time.Minute, "30m"},
		{1 * time.Minute, "1m"},
		{5 * time.Second, "5s"},
		{250 * time.Millisecond, "250ms"},
	}

	for _, tt := range tests {
		result := formatDuration(tt.duration)
		if result != tt.expected {
			t.Errorf("formatDuration(%v) = %s, expected %s", tt.duration, result, tt.expected)
		}
	}
}

func TestEscapeMarkdownV2(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"plain", "plain"},
		{"Dec 26, 22", "Dec 26, 22"},
		{"1.2-3!", "1\\.2\\-3\\!"},
		{"[a](b)", "\\[a\\]\\(b\\)"},
		{"a\\b", "a\\\\b"},
	}

	for _, tt := range tests {
		if got := escapeMarkdownV2(tt.input); got != tt.expected {
			t.Errorf("escapeMarkdownV2(%q) = %q, expected %q", tt.input, got, tt.expected)
		}
	}
}

func TestFormatMessage(t *testing.T) {
	msg := formatMessage(testReport())

	expected := []string{
		"*Trendline Render Complete*",
		"Rendered: 2023\\-01\\-16 09:30:00",
		"Source: `fixtures/events.json`",
		"Took: 2s",
		"*Overall*: 1,200 conversations over 3 weeks",
		"Peak week: Dec 26, 22 \\(700\\)",
		"Top events of 2:",
		"1\\. Cricket Final: *400* · 12,000 reach",
		"2\\. Monsoon Sale: *150*\n",
		"1 fixture entries skipped",
	}
	for _, want := range expected {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestFormatMessageCached(t *testing.T) {
	r := testReport()
	r.Cached = true
	r.Skipped = 0

	msg := formatMessage(r)
	if !strings.Contains(msg, "Took: cached") {
		t.Errorf("expected cached status:\n%s", msg)
	}
	if strings.Contains(msg, "skipped") {
		t.Errorf("unexpected skipped line:\n%s", msg)
	}
}

func TestSendRetries(t *testing.T) {
	bot := &fakeBot{failures: 2}
	c, err := newClient(bot, "12345", 3, time.Millisecond)
	if err != nil {
		t.Fatalf("newClient failed: %v", err)
	}

	if err := c.Send(testReport()); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if bot.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", bot.calls)
	}
	if bot.last.ChatID != 12345 || bot.last.ParseMode != "MarkdownV2" {
		t.Errorf("unexpected message config: chat %d, mode %s", bot.last.ChatID, bot.last.ParseMode)
	}
}

func TestSendGivesUp(t *testing.T) {
	bot := &fakeBot{failures: 5}
	c, err := newClient(bot, "1", 2, time.Millisecond)
	if err != nil {
		t.Fatalf("newClient failed: %v", err)
	}

	if err := c.Send(testReport()); err == nil {
		t.Fatal("expected Send to fail")
	}
	if bot.calls != 2 {
		t.Errorf("expected 2 attempts, got %d", bot.calls)
	}
}

func TestNewClientRejectsBadChatID(t *testing.T) {
	if _, err := newClient(&fakeBot{}, "not-a-number", 1, time.Millisecond); err == nil {
		t.Error("expected invalid chat ID error")
	}
}
