package cached

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"prensa-go/internal/model"
	"prensa-go/internal/repositories"
)

var _ repositories.EntryRepository = (*EntryRepository)(nil)

// EntryRepository remembers titles the wrapped store already holds so
// repeated sightings within one process skip the round trip.
type EntryRepository struct {
	next  repositories.EntryRepository
	known *lru.Cache[string, struct{}]
}

func NewEntryRepository(next repositories.EntryRepository, size int) (*EntryRepository, error) {
	known, err := lru.New[string, struct{}](size)
	if err != nil {
		return nil, err
	}
	return &EntryRepository{next: next, known: known}, nil
}

func (r *EntryRepository) InsertIfAbsent(ctx context.Context, record model.DedupRecord) (repositories.InsertResult, error) {
	if r.known.Contains(record.Title) {
		return repositories.AlreadyExists, nil
	}

	result, err := r.next.InsertIfAbsent(ctx, record)
	if err != nil {
		return 0, err
	}
	r.known.Add(record.Title, struct{}{})
	return result, nil
}
