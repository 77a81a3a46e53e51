package normalizer

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prensa-go/internal/model"
)

var cst = time.FixedZone("CST", -6*60*60)

func TestNormalize(t *testing.T) {
	n := New(cst)

	entry, err := n.Normalize(model.RawEntry{
		Title:       "  Inicia registro de la Pensión  \n",
		Link:        " https://www.gob.mx/bienestar/prensa/inicia-registro ",
		PublishedAt: "2024-05-10 23:30:00",
	})
	require.NoError(t, err)

	assert.Equal(t, "Inicia registro de la Pensión", entry.Title)
	assert.Equal(t, "https://www.gob.mx/bienestar/prensa/inicia-registro", entry.Link)
	assert.True(t, entry.PublishedAt.Equal(time.Date(2024, time.May, 10, 23, 30, 0, 0, cst)))
	assert.Equal(t, 24*7*24*time.Hour, entry.ExpiresAt.Sub(entry.PublishedAt))
	assert.True(t, entry.ExpiresAt.After(entry.PublishedAt))
	assert.Equal(t, "10 de mayo de 2024", entry.DisplayDate)
}

func TestNormalize_DisplayDate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "first of january", input: "2024-01-01T00:00:00-06:00", expected: "01 de enero de 2024"},
		{name: "leap day", input: "2024-02-29 12:00:00", expected: "29 de febrero de 2024"},
		{name: "last of december", input: "2023-12-31T23:59:59Z", expected: "31 de diciembre de 2023"},
		{name: "day first when month first is impossible", input: "13/05/2024", expected: "13 de mayo de 2024"},
		{name: "spanish long form", input: "7 de Septiembre de 2023", expected: "07 de septiembre de 2023"},
	}

	n := New(time.UTC)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry, err := n.Normalize(model.RawEntry{Title: "t", Link: "l", PublishedAt: tt.input})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, entry.DisplayDate)
		})
	}
}

func TestNormalize_ExpiryToTheSecond(t *testing.T) {
	n := New(time.UTC)

	entry, err := n.Normalize(model.RawEntry{Title: "t", Link: "l", PublishedAt: "2024-02-29T08:15:42Z"})
	require.NoError(t, err)

	want := time.Date(2024, time.August, 15, 8, 15, 42, 0, time.UTC)
	assert.Equal(t, want.Unix(), entry.ExpiresAt.Unix())
}

func TestNormalize_Deterministic(t *testing.T) {
	n := New(cst)
	raw := model.RawEntry{Title: " Comunicado ", Link: "/prensa/1", PublishedAt: "2024-03-01T10:00:00-06:00"}

	first, err := n.Normalize(raw)
	require.NoError(t, err)
	second, err := n.Normalize(raw)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestNormalize_Invalid(t *testing.T) {
	n := New(time.UTC)

	tests := []struct {
		name string
		raw  model.RawEntry
	}{
		{name: "whitespace title", raw: model.RawEntry{Title: "   ", Link: "/a", PublishedAt: "2024-01-01"}},
		{name: "empty link", raw: model.RawEntry{Title: "t", Link: "\t", PublishedAt: "2024-01-01"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := n.Normalize(tt.raw)
			assert.ErrorIs(t, err, ErrInvalidEntry)
		})
	}
}

func TestNormalize_ParseError(t *testing.T) {
	n := New(time.UTC)

	for _, value := range []string{"", "no es una fecha", "31 de febrero de 2024"} {
		t.Run(value, func(t *testing.T) {
			_, err := n.Normalize(model.RawEntry{Title: "t", Link: "l", PublishedAt: value})
			require.Error(t, err)

			var parseErr *ParseError
			require.True(t, errors.As(err, &parseErr))
			assert.Equal(t, value, parseErr.Value)
		})
	}
}

func TestNormalize_ComposesUnicodeTitle(t *testing.T) {
	n := New(time.UTC)

	decomposed, err := n.Normalize(model.RawEntry{Title: "Pensio\u0301n", Link: "l", PublishedAt: "2024-01-01"})
	require.NoError(t, err)
	composed, err := n.Normalize(model.RawEntry{Title: "Pensi\u00f3n", Link: "l", PublishedAt: "2024-01-01"})
	require.NoError(t, err)

	assert.Equal(t, composed.Title, decomposed.Title)
}

func TestFormatLongDate(t *testing.T) {
	assert.Equal(t, "09 de octubre de 2025", FormatLongDate(time.Date(2025, time.October, 9, 0, 0, 0, 0, time.UTC)))
}
