package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"roshi/internal/pkg/text"

	"github.com/tidwall/gjson"
)

const (
	defaultTelegramAPI     = "https://api.telegram.org"
	defaultTelegramTimeout = 10 * time.Second
	// MaxMessageLen is the Bot API limit for one message.
	MaxMessageLen = 4096
)

type TelegramConfig struct {
	BotToken string
	ChatID   string
	APIBase  string
	Timeout  time.Duration
}

// Telegram posts HTML messages through the Bot API. A failed send is not
// retried; the next scan cycle gets another chance.
type Telegram struct {
	BotToken string
	ChatID   string
	APIBase  string
	Client   *http.Client
}

var _ TextNotifier = (*Telegram)(nil)

func NewTelegram(cfg TelegramConfig) *Telegram {
	base := strings.TrimRight(strings.TrimSpace(cfg.APIBase), "/")
	if base == "" {
		base = defaultTelegramAPI
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTelegramTimeout
	}
	return &Telegram{
		BotToken: strings.TrimSpace(cfg.BotToken),
		ChatID:   strings.TrimSpace(cfg.ChatID),
		APIBase:  base,
		Client:   &http.Client{Timeout: timeout},
	}
}

func (t *Telegram) SendText(ctx context.Context, msg string) error {
	if t.BotToken == "" || t.ChatID == "" {
		return ErrNotConfigured
	}
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.APIBase, t.BotToken)
	payload := map[string]any{
		"chat_id":                  t.ChatID,
		"text":                     text.TruncateLines(msg, MaxMessageLen),
		"parse_mode":               "HTML",
		"disable_web_page_preview": true,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := t.Client.Do(req)
	if err != nil {
		// the URL carries the token
		return fmt.Errorf("telegram send: %s", redact(err.Error(), t.BotToken))
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode/100 != 2 {
		desc := gjson.GetBytes(respBody, "description").String()
		if desc == "" {
			desc = http.StatusText(resp.StatusCode)
		}
		return fmt.Errorf("telegram status=%d: %s", resp.StatusCode, desc)
	}
	if ok := gjson.GetBytes(respBody, "ok"); ok.Exists() && !ok.Bool() {
		return fmt.Errorf("telegram rejected message: %s", gjson.GetBytes(respBody, "description").String())
	}
	return nil
}

func redact(s, secret string) string {
	if secret == "" {
		return s
	}
	return strings.ReplaceAll(s, secret, "***")
}
