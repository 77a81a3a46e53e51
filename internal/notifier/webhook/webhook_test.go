package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prensa-go/internal/model"
)

var entry = model.Entry{
	Title:       "Inicia registro",
	Link:        "https://www.gob.mx/bienestar/prensa/inicia-registro",
	DisplayDate: "10 de mayo de 2024",
}

func TestFormatMessage(t *testing.T) {
	assert.Equal(t,
		":newspaper: Inicia registro\n:calendar: 10 de mayo de 2024\n:link: https://www.gob.mx/bienestar/prensa/inicia-registro\n",
		FormatMessage(entry),
	)
}

func TestNotify(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer srv.Close()

	n := New(srv.URL, srv.Client(), 0)
	require.NoError(t, n.Notify(context.Background(), entry))

	assert.Equal(t, map[string]string{"Content": FormatMessage(entry)}, got)
	assert.Equal(t, "webhook", n.Name())
}

func TestNotify_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	err := New(srv.URL, srv.Client(), 0).Notify(context.Background(), entry)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}
