package renderer

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/PuerkitoBio/goquery"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// HTTP fetches pages without running their scripts.
type HTTP struct {
	client *http.Client
}

func NewHTTP(client *http.Client) *HTTP {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTP{client: client}
}

func (h *HTTP) Open(ctx context.Context) (Session, error) {
	return &httpSession{client: h.client}, nil
}

type httpSession struct {
	client *http.Client
}

func (s *httpSession) Load(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, &Error{Op: "request", URL: pageURL, Err: err}
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &Error{Op: "fetch", URL: pageURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Error{Op: "fetch", URL: pageURL, Err: fmt.Errorf("unexpected status: %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Op: "read", URL: pageURL, Err: err}
	}

	doc, err := parseDocument(string(body), pageURL)
	if err != nil {
		return nil, &Error{Op: "parse", URL: pageURL, Err: err}
	}
	return doc, nil
}

func (s *httpSession) Close() error {
	return nil
}
