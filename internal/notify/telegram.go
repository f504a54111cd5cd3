package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/agenthands/modelhub/internal/config"
)

const (
	DefaultBaseURL = "https://api.telegram.org"

	maxMessageLen = 3500
	maxExtraLen   = 1500
)

type Level string

const (
	LevelInfo     Level = "INFO"
	LevelWarn     Level = "WARN"
	LevelError    Level = "ERROR"
	LevelCritical Level = "CRITICAL"
)

// Alert is one operator notification.
type Alert struct {
	Level   Level
	Title   string
	Message string
	Err     error
	Extra   map[string]any
}

// Telegram posts alerts to a chat through the Bot API. A zero token or
// chat id turns every send into a no-op.
type Telegram struct {
	token   string
	chatID  string
	BaseURL string
	client  *http.Client
	logger  *slog.Logger
	now     func() time.Time
}

func NewTelegram(cfg config.TelegramConfig, logger *slog.Logger) *Telegram {
	if logger == nil {
		logger = slog.Default()
	}
	return &Telegram{
		token:   cfg.BotToken,
		chatID:  cfg.ChatID,
		BaseURL: DefaultBaseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
		now:     time.Now,
	}
}

func (t *Telegram) Enabled() bool {
	return t != nil && t.token != "" && t.chatID != ""
}

// SendAlert formats and sends a. Failures are logged and never returned so
// alerting cannot break the caller.
func (t *Telegram) SendAlert(ctx context.Context, a Alert) {
	if !t.Enabled() {
		if t != nil {
			t.logger.Debug("telegram not configured, skipping alert", "title", a.Title)
		}
		return
	}
	if err := t.send(ctx, t.format(a)); err != nil {
		t.logger.Error("failed to send telegram alert", "error", err, "title", a.Title)
	}
}

func (t *Telegram) format(a Alert) string {
	level := a.Level
	if level == "" {
		level = LevelError
	}
	title := a.Title
	if title == "" {
		title = "API Error"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🚨 *%s* - *%s*\n🕒 %s\n\n*Message:*\n", level, title, t.now().UTC().Format(time.RFC3339))
	if a.Message != "" {
		fmt.Fprintf(&b, "`%s`\n", truncate(a.Message, maxMessageLen))
	} else {
		b.WriteString("_(no message)_\n")
	}
	if a.Err != nil {
		fmt.Fprintf(&b, "\n*Error:*\n`%s`\n", truncate(a.Err.Error(), maxMessageLen))
	}
	if len(a.Extra) > 0 {
		fmt.Fprintf(&b, "\n*Extra:*\n```\n%s\n```\n", safeJSON(a.Extra, maxExtraLen))
	}
	return b.String()
}

func (t *Telegram) send(ctx context.Context, text string) error {
	body, err := json.Marshal(map[string]string{
		"chat_id":    t.chatID,
		"text":       text,
		"parse_mode": "Markdown",
	})
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", strings.TrimRight(t.BaseURL, "/"), t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("non-2xx status: %d", resp.StatusCode)
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func safeJSON(v any, maxLen int) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprint(v)
	}
	s := string(b)
	if len([]rune(s)) > maxLen {
		return truncate(s, maxLen) + "\n…(truncated)"
	}
	return s
}
