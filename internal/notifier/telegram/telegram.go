package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"time"

	"prensa-go/internal/model"
	"prensa-go/internal/notifier"
)

const defaultAPIBase = "https://api.telegram.org"

type Sender struct {
	token    string
	chat     string
	threadID int64

	apiBase        string
	client         *http.Client
	throttle       *notifier.Throttle
	retryAfterUnit time.Duration
}

type Option func(*Sender)

func WithAPIBase(base string) Option {
	return func(s *Sender) {
		s.apiBase = base
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(s *Sender) {
		s.client = client
	}
}

func WithMinInterval(interval time.Duration) Option {
	return func(s *Sender) {
		s.throttle = notifier.NewThrottle(interval)
	}
}

// NewSender builds a Bot API sender. A zero threadID posts to the chat's
// main thread.
func NewSender(token, chat string, threadID int64, options ...Option) *Sender {
	s := &Sender{
		token:          token,
		chat:           chat,
		threadID:       threadID,
		apiBase:        defaultAPIBase,
		client:         &http.Client{Timeout: 15 * time.Second},
		throttle:       notifier.NewThrottle(1200 * time.Millisecond),
		retryAfterUnit: time.Second,
	}
	for _, option := range options {
		option(s)
	}
	return s
}

func (s *Sender) Name() string {
	return "telegram"
}

func (s *Sender) Notify(ctx context.Context, entry model.Entry) error {
	text := formatMessage(entry)

	if err := s.throttle.Wait(ctx); err != nil {
		return err
	}
	defer s.throttle.Done()

	retryAfter, err := s.postMessage(ctx, text)
	if err == nil {
		return nil
	}
	if retryAfter <= 0 {
		return err
	}

	slog.WarnContext(ctx, "telegram rate limit hit", "retry_after", retryAfter)
	if err := notifier.Sleep(ctx, retryAfter); err != nil {
		return err
	}
	if _, err := s.postMessage(ctx, text); err != nil {
		return fmt.Errorf("telegram retry failed: %w", err)
	}
	return nil
}

func (s *Sender) postMessage(ctx context.Context, text string) (time.Duration, error) {
	payload := map[string]any{
		"chat_id":    s.chat,
		"text":       text,
		"parse_mode": "HTML",
	}
	if s.threadID != 0 {
		payload["message_thread_id"] = s.threadID
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return 0, err
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.apiBase, s.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	var parsed telegramResponse
	_ = json.NewDecoder(resp.Body).Decode(&parsed)

	if resp.StatusCode == http.StatusTooManyRequests && parsed.Parameters.RetryAfter > 0 {
		return time.Duration(parsed.Parameters.RetryAfter) * s.retryAfterUnit, fmt.Errorf("rate limited")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("telegram error: %d %s", resp.StatusCode, parsed.Description)
	}

	return 0, nil
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
	Parameters  struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters"`
}

func formatMessage(entry model.Entry) string {
	link := html.EscapeString(entry.Link)
	return fmt.Sprintf("📰 <b>%s</b>\n📅 %s\n🔗 <a href=\"%s\">%s</a>",
		html.EscapeString(entry.Title),
		html.EscapeString(entry.DisplayDate),
		link, link,
	)
}
