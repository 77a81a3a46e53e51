package sqlite

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"prensa-go/internal/model"
	"prensa-go/internal/repositories"
)

var (
	_ repositories.EntryRepository = (*EntryRepository)(nil)
	_ repositories.Purger          = (*EntryRepository)(nil)
)

type EntryRepository struct {
	db *sqlx.DB
}

// Open connects to the database file at path and applies migrations.
func Open(path string) (*sqlx.DB, error) {
	dbx, err := sqlx.Open("sqlite", fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path))
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	if err := Migrate(dbx); err != nil {
		dbx.Close()
		return nil, err
	}
	return dbx, nil
}

func NewEntryRepository(db *sqlx.DB) *EntryRepository {
	return &EntryRepository{db: db}
}

func (r *EntryRepository) InsertIfAbsent(ctx context.Context, record model.DedupRecord) (repositories.InsertResult, error) {
	query, args, err := sq.Insert("announcements").
		Columns("title", "timestamp", "link", "date", "ttl").
		Values(record.Title, record.Timestamp, record.Link, record.Date, record.TTL).
		Suffix("ON CONFLICT (title) DO NOTHING").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("error constructing sql: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("error inserting announcement: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error reading affected rows: %w", err)
	}
	if affected == 0 {
		return repositories.AlreadyExists, nil
	}
	return repositories.Inserted, nil
}

func (r *EntryRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query, args, err := sq.Delete("announcements").Where(sq.LtOrEq{"ttl": now.Unix()}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("error constructing sql: %w", err)
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("error deleting expired announcements: %w", err)
	}
	return res.RowsAffected()
}
