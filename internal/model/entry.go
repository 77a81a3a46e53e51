package model

import "time"

// Retention is how long an announcement stays in the dedup store.
const Retention = 24 * 7 * 24 * time.Hour

type Entry struct {
	Title       string
	Link        string
	PublishedAt time.Time
	ExpiresAt   time.Time
	DisplayDate string
}
