package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultTelegramAPI is the Bot API base URL.
const DefaultTelegramAPI = "https://api.telegram.org"

// Telegram sends messages through the Telegram Bot API.
type Telegram struct {
	API    string
	Token  string
	ChatID string
	// ThreadID routes messages to a forum topic; 0 means the main chat.
	ThreadID int64
	Client   *http.Client
}

// NewTelegram creates a Telegram notifier. It returns nil when token or
// chatID is empty so callers can skip it.
func NewTelegram(api, token, chatID string, threadID int64, timeout time.Duration) *Telegram {
	if token == "" || chatID == "" {
		return nil
	}
	if api == "" {
		api = DefaultTelegramAPI
	}
	return &Telegram{
		API:      strings.TrimRight(api, "/"),
		Token:    token,
		ChatID:   chatID,
		ThreadID: threadID,
		Client:   &http.Client{Timeout: timeout},
	}
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Send posts text to the configured chat. The text is form-encoded, so any
// UTF-8 survives the trip unchanged.
func (t *Telegram) Send(ctx context.Context, text string) error {
	if t == nil || t.Token == "" {
		return ErrDisabled
	}

	form := url.Values{}
	form.Set("chat_id", t.ChatID)
	form.Set("text", text)
	if t.ThreadID != 0 {
		form.Set("message_thread_id", strconv.FormatInt(t.ThreadID, 10))
	}

	endpoint := t.API + "/bot" + t.Token + "/sendMessage"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("telegram: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.Client.Do(req)
	if err != nil {
		// The URL carries the token; don't leak it through the error.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			return fmt.Errorf("telegram: send: %w", uerr.Err)
		}
		return fmt.Errorf("telegram: send: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var tr telegramResponse
	_ = json.Unmarshal(body, &tr)

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("telegram: status %d: %s", resp.StatusCode, tr.Description)
	}
	if !tr.OK {
		return fmt.Errorf("telegram: rejected: %s", tr.Description)
	}
	return nil
}
