package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"prensa-go/internal/model"
	"prensa-go/internal/notifier"
)

const template = ":newspaper: {title}\n:calendar: {date}\n:link: {link}\n"

// Notifier posts each announcement to a chat webhook as {"Content": text}.
type Notifier struct {
	url      string
	client   *http.Client
	throttle *notifier.Throttle
}

func New(url string, client *http.Client, minInterval time.Duration) *Notifier {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Notifier{url: url, client: client, throttle: notifier.NewThrottle(minInterval)}
}

func (n *Notifier) Name() string {
	return "webhook"
}

func (n *Notifier) Notify(ctx context.Context, entry model.Entry) error {
	body, err := json.Marshal(map[string]string{"Content": FormatMessage(entry)})
	if err != nil {
		return err
	}

	if err := n.throttle.Wait(ctx); err != nil {
		return err
	}
	defer n.throttle.Done()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook error: %d", resp.StatusCode)
	}
	return nil
}

func FormatMessage(entry model.Entry) string {
	return strings.NewReplacer(
		"{title}", entry.Title,
		"{date}", entry.DisplayDate,
		"{link}", entry.Link,
	).Replace(template)
}
