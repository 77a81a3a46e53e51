package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"prensa-go/internal/model"
	"prensa-go/internal/repositories"
)

var (
	_ repositories.EntryRepository = (*EntryRepository)(nil)
	_ repositories.Purger          = (*EntryRepository)(nil)
)

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type EntryRepository struct {
	db DBTX
}

func NewEntryRepository(db DBTX) *EntryRepository {
	return &EntryRepository{db: db}
}

const insertAnnouncement = `
INSERT INTO announcements (title, timestamp, link, date, ttl)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (title) DO NOTHING
RETURNING title`

func (r *EntryRepository) InsertIfAbsent(ctx context.Context, record model.DedupRecord) (repositories.InsertResult, error) {
	var title string
	err := r.db.QueryRow(ctx, insertAnnouncement,
		record.Title, record.Timestamp, record.Link, record.Date, record.TTL,
	).Scan(&title)
	if errors.Is(err, pgx.ErrNoRows) {
		return repositories.AlreadyExists, nil
	}
	if err != nil {
		return 0, fmt.Errorf("insert announcement: %w", err)
	}
	return repositories.Inserted, nil
}

const deleteExpired = `DELETE FROM announcements WHERE ttl <= $1`

func (r *EntryRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, deleteExpired, now.Unix())
	if err != nil {
		return 0, fmt.Errorf("delete expired announcements: %w", err)
	}
	return tag.RowsAffected(), nil
}
