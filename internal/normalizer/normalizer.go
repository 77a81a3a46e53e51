package normalizer

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"golang.org/x/text/unicode/norm"

	"prensa-go/internal/model"
)

var ErrInvalidEntry = errors.New("entry has empty title or link")

// ParseError reports a publication date that could not be understood.
type ParseError struct {
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unparseable date %q: %v", e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Normalizer turns raw page entries into dedup-ready entries. Dates without
// an explicit offset are read in the source location.
type Normalizer struct {
	loc *time.Location
}

func New(loc *time.Location) *Normalizer {
	if loc == nil {
		loc = time.UTC
	}
	return &Normalizer{loc: loc}
}

func (n *Normalizer) Normalize(raw model.RawEntry) (model.Entry, error) {
	title := norm.NFC.String(strings.TrimSpace(raw.Title))
	link := strings.TrimSpace(raw.Link)
	if title == "" || link == "" {
		return model.Entry{}, ErrInvalidEntry
	}

	publishedAt, err := n.parseTime(raw.PublishedAt)
	if err != nil {
		return model.Entry{}, err
	}

	return model.Entry{
		Title:       title,
		Link:        link,
		PublishedAt: publishedAt,
		ExpiresAt:   publishedAt.Add(model.Retention),
		DisplayDate: FormatLongDate(publishedAt),
	}, nil
}

func (n *Normalizer) parseTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, &ParseError{Value: value, Err: errors.New("empty value")}
	}

	parsed, err := dateparse.ParseIn(value, n.loc, dateparse.RetryAmbiguousDateWithSwap(true))
	if err == nil {
		return parsed, nil
	}
	if long, longErr := parseLongDate(value, n.loc); longErr == nil {
		return long, nil
	}
	return time.Time{}, &ParseError{Value: value, Err: err}
}
