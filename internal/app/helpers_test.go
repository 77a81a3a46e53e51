package app

import (
	"context"
	"encoding/json"
	"net/http"

	"prensa-go/internal/model"
	"prensa-go/internal/repositories"
)

type nopRepo struct{}

func (nopRepo) InsertIfAbsent(ctx context.Context, record model.DedupRecord) (repositories.InsertResult, error) {
	return repositories.Inserted, nil
}

func jsonDecode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
