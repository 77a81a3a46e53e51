package model

// DedupRecord is the persisted form of an Entry. Timestamp and TTL are
// unix seconds; TTL drives the store's own expiry.
type DedupRecord struct {
	Title     string `db:"title" dynamodbav:"title"`
	Timestamp int64  `db:"timestamp" dynamodbav:"timestamp"`
	Link      string `db:"link" dynamodbav:"link"`
	Date      string `db:"date" dynamodbav:"date"`
	TTL       int64  `db:"ttl" dynamodbav:"ttl"`
}

func NewDedupRecord(entry Entry) DedupRecord {
	return DedupRecord{
		Title:     entry.Title,
		Timestamp: entry.PublishedAt.Unix(),
		Link:      entry.Link,
		Date:      entry.DisplayDate,
		TTL:       entry.ExpiresAt.Unix(),
	}
}
