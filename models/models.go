package models

import (
	"errors"
	"time"
)

// ErrEntryNotFound is returned when a history entry is not found
var ErrEntryNotFound = errors.New("history entry not found")

// SourceRef is a lightweight reference to a web source discovered during
// research. It is emitted incrementally while the research pass streams and
// reconciled against the sources list of the final structured summary.
type SourceRef struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// SearchResult is a single raw result from the search pass. The URL is the
// dedup key after normalisation; ContentType is filled in by the classifier.
type SearchResult struct {
	Title         string `json:"title"`
	URL           string `json:"url"`
	Snippet       string `json:"snippet"`
	Source        string `json:"source"`
	PublishedDate string `json:"published_date,omitempty"`
	ContentType   string `json:"content_type"`
}

// TopicSummary is the structured research result produced by the
// schema-constrained second pass. Immutable after creation.
type TopicSummary struct {
	Topic          string      `json:"topic"`
	Overview       string      `json:"overview"`
	KeyPoints      []string    `json:"key_points"`
	Trends         string      `json:"trends"`
	GapsAndCaveats string      `json:"gaps_and_caveats"`
	Sources        []SourceRef `json:"sources"`
}

// HistoryEntry is a persisted research result.
type HistoryEntry struct {
	ID        int64        `json:"id"`
	Topic     string       `json:"topic"`
	Lens      string       `json:"lens"`
	Summary   TopicSummary `json:"summary"`
	CreatedAt time.Time    `json:"created_at"`
}

// HistoryListItem is the list-view projection of a HistoryEntry: metadata
// only, the summary is fetched per entry.
type HistoryListItem struct {
	ID        int64     `json:"id"`
	Topic     string    `json:"topic"`
	Lens      string    `json:"lens"`
	CreatedAt time.Time `json:"created_at"`
}
