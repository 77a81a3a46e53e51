package renderer

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Renderer opens a session able to load pages. Sessions hold the
// underlying browser and must always be closed.
type Renderer interface {
	Open(ctx context.Context) (Session, error)
}

type Session interface {
	Load(ctx context.Context, url string) (*goquery.Document, error)
	Close() error
}

// Error is returned for anything that keeps a page from being rendered:
// startup, navigation, timeouts, or an unexpected page shape.
type Error struct {
	Op  string
	URL string
	Err error
}

func (e *Error) Error() string {
	if e.URL == "" {
		return fmt.Sprintf("render %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("render %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func parseDocument(html, pageURL string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	if parsed, err := url.Parse(pageURL); err == nil {
		doc.Url = parsed
	}
	return doc, nil
}
