package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"solana-revival-scanner/internal/domain"
	"solana-revival-scanner/internal/provider"
)

// DefaultTelegramURL is the Bot API base.
const DefaultTelegramURL = "https://api.telegram.org"

// TelegramChannel posts alerts to a chat through the Bot API sendMessage call.
type TelegramChannel struct {
	baseURL  string
	botToken string
	chatID   string
	client   *http.Client
}

// NewTelegramChannel creates a Telegram channel. An empty baseURL uses the public API.
func NewTelegramChannel(baseURL, botToken, chatID string) *TelegramChannel {
	if baseURL == "" {
		baseURL = DefaultTelegramURL
	}
	return &TelegramChannel{
		baseURL:  strings.TrimRight(baseURL, "/"),
		botToken: botToken,
		chatID:   chatID,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *TelegramChannel) Name() string { return "telegram" }

// Configured reports whether both the bot token and chat id are set.
func (c *TelegramChannel) Configured() bool {
	return c.botToken != "" && c.chatID != ""
}

func (c *TelegramChannel) Send(ctx context.Context, a *domain.Alert) error {
	return c.SendText(ctx, FormatAlert(a))
}

// SendText posts an HTML-formatted message.
func (c *TelegramChannel) SendText(ctx context.Context, text string) error {
	if !c.Configured() {
		return fmt.Errorf("telegram: %w", provider.ErrNotConfigured)
	}
	body, err := json.Marshal(map[string]any{
		"chat_id":                  c.chatID,
		"text":                     text,
		"parse_mode":               "HTML",
		"disable_web_page_preview": true,
	})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	u := fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, c.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &provider.StatusError{Provider: "telegram", Code: resp.StatusCode, Body: string(respBody)}
	}
	return nil
}
