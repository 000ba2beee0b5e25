package models

import "time"

// Source tags for a detail card.
const (
	CardSourceMultiPlatform = "multi-platform"
	CardSourceAIGenerated   = "ai-generated"
)

// Quote is an original/translated pair lifted from source content.
type Quote struct {
	Original   string `json:"original"`
	Translated string `json:"translated"`
}

// CardPlatformMeta carries optional platform-derived details on a card.
type CardPlatformMeta struct {
	Author     string  `json:"author,omitempty"`
	Engagement float64 `json:"engagement,omitempty"`
	Location   string  `json:"location,omitempty"`
	BestTime   string  `json:"best_time,omitempty"`
}

// ActivityDetailCard is one enriched recommendation card for a specific
// known activity. Cached in-process keyed by
// lowercase(destination):lowercase(title).
type ActivityDetailCard struct {
	ID              string            `json:"id"`
	Title           string            `json:"title"`
	ImageURLs       []string          `json:"image_urls,omitempty"`
	Summary         string            `json:"summary"`
	LongDescription string            `json:"long_description,omitempty"`
	Quotes          []Quote           `json:"quotes,omitempty"`
	SourceLinks     []string          `json:"source_links,omitempty"`
	ItemType        string            `json:"item_type"`
	Duration        string            `json:"duration,omitempty"`
	PhotoQuery      string            `json:"photo_query,omitempty"`
	SourceTag       string            `json:"source_tag"`
	PlatformMeta    *CardPlatformMeta `json:"platform_meta,omitempty"`
	BuiltAt         time.Time         `json:"built_at"`
}
