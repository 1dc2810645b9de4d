package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// Telegram pushes messages through the Bot API. DefaultChatID receives
// operator-level notices; per-user messages go through SendTo.
type Telegram struct {
	BotToken      string
	DefaultChatID string
	Client        *http.Client
}

func NewTelegram(botToken, defaultChatID string) *Telegram {
	return &Telegram{BotToken: botToken, DefaultChatID: defaultChatID, Client: &http.Client{Timeout: 15 * time.Second}}
}

// SendText sends to the default chat (up to 3 attempts).
func (t *Telegram) SendText(text string) error {
	if t.DefaultChatID == "" {
		return fmt.Errorf("telegram default chat not configured")
	}
	return t.send(t.DefaultChatID, text)
}

// SendTo sends to one user's chat (up to 3 attempts).
func (t *Telegram) SendTo(chatID int64, text string) error {
	return t.send(strconv.FormatInt(chatID, 10), text)
}

func (t *Telegram) send(chatID, text string) error {
	if t.BotToken == "" || chatID == "" {
		return fmt.Errorf("telegram configuration incomplete")
	}
	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", t.BotToken)

	payload := map[string]any{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "Markdown",
	}
	body, _ := json.Marshal(payload)

	var lastErr error
	for i := 0; i < 3; i++ {
		req, _ := http.NewRequest("POST", url, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := t.Client.Do(req)
		if err != nil {
			lastErr = err
			time.Sleep(time.Duration(i+1) * time.Second)
			continue
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		if resp.StatusCode/100 == 2 {
			return nil
		}
		lastErr = fmt.Errorf("telegram status=%d", resp.StatusCode)
		time.Sleep(time.Duration(i+1) * time.Second)
	}
	return lastErr
}
