package repositories

import (
	"context"
	"time"

	"prensa-go/internal/model"
)

type InsertResult int

const (
	Inserted InsertResult = iota + 1
	AlreadyExists
)

func (r InsertResult) String() string {
	switch r {
	case Inserted:
		return "inserted"
	case AlreadyExists:
		return "already_exists"
	default:
		return "unknown"
	}
}

// EntryRepository is the dedup store. InsertIfAbsent is atomic and keyed on
// the record title; AlreadyExists is an expected outcome, not an error.
type EntryRepository interface {
	InsertIfAbsent(ctx context.Context, record model.DedupRecord) (InsertResult, error)
}

// Purger is implemented by stores without native expiry.
type Purger interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
