package emitters

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// TelegramSink delivers formatted text payloads to Telegram chats via
// the Bot API sendMessage method. Delivery failures are returned to the
// caller, which logs and moves on; no retry happens here.
type TelegramSink struct {
	apiBase    string
	token      string
	httpClient *http.Client
}

func NewTelegramSink(apiBase, token string, timeout time.Duration) *TelegramSink {
	return &TelegramSink{
		apiBase:    apiBase,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (t *TelegramSink) Send(ctx context.Context, chatID int64, text string) error {
	form := url.Values{}
	form.Set("chat_id", strconv.FormatInt(chatID, 10))
	form.Set("text", text)

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.apiBase, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("telegram request failed: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		OK          bool   `json:"ok"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to decode telegram response: %w", err)
	}
	if !result.OK {
		return fmt.Errorf("telegram rejected message: %s", result.Description)
	}
	return nil
}
