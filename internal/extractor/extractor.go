package extractor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"prensa-go/internal/model"
)

const (
	ContainerSelector = "div#prensa"
	articleSelector   = "article"
)

var ErrContainerNotFound = errors.New("press archive container not found")

// ItemError explains why a single article block was skipped.
type ItemError struct {
	Index  int
	Title  string
	Reason string
}

func (e *ItemError) Error() string {
	if e.Title == "" {
		return fmt.Sprintf("article %d: %s", e.Index, e.Reason)
	}
	return fmt.Sprintf("article %d (%s): %s", e.Index, e.Title, e.Reason)
}

// Extract reads every article of the press archive. Blocks missing a title,
// link or datetime are logged and skipped; only a missing archive container
// fails the call.
func Extract(ctx context.Context, doc *goquery.Document) ([]model.RawEntry, error) {
	container := doc.Find(ContainerSelector).First()
	if container.Length() == 0 {
		return nil, ErrContainerNotFound
	}

	articles := container.Find(articleSelector)
	entries := make([]model.RawEntry, 0, articles.Length())
	articles.Each(func(i int, article *goquery.Selection) {
		entry, err := extractArticle(i, article, doc.Url)
		if err != nil {
			slog.InfoContext(ctx, "skipping article", "reason", err)
			return
		}
		entries = append(entries, entry)
	})

	slog.InfoContext(ctx, "extracted articles", "found", articles.Length(), "valid", len(entries))
	return entries, nil
}

func extractArticle(index int, article *goquery.Selection, base *url.URL) (model.RawEntry, error) {
	title := strings.TrimSpace(article.ChildrenFiltered("h2").First().Text())
	if title == "" {
		return model.RawEntry{}, &ItemError{Index: index, Reason: "article has no title"}
	}

	href, _ := article.ChildrenFiltered("a").First().Attr("href")
	if strings.TrimSpace(href) == "" {
		return model.RawEntry{}, &ItemError{Index: index, Title: title, Reason: "article has no href attribute"}
	}

	datetime, _ := article.ChildrenFiltered("p").First().ChildrenFiltered("time").First().Attr("datetime")
	if strings.TrimSpace(datetime) == "" {
		return model.RawEntry{}, &ItemError{Index: index, Title: title, Reason: "article has no datetime attribute"}
	}

	return model.RawEntry{
		Title:       title,
		Link:        resolve(base, href),
		PublishedAt: datetime,
	}, nil
}

func resolve(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if base == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
