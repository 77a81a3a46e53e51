package model

// RawEntry is one announcement block as it appears on the page, before
// any validation.
type RawEntry struct {
	Title       string
	Link        string
	PublishedAt string
}
