package models

import (
	"time"
)

// Platform identifiers for content sources.
const (
	PlatformVoyagegram = "voyagegram"
	PlatformWayfarer   = "wayfarer"
	PlatformAIGuide    = "aiguide"
	PlatformTravelBlog = "travelblog"
)

// Author identifies the author of an external post.
type Author struct {
	ID        string `bson:"id" json:"id"`
	Name      string `bson:"name" json:"name"`
	AvatarURL string `bson:"avatar_url" json:"avatar_url"`
}

// Engagement carries the raw per-platform popularity counters.
// Raw magnitudes differ by orders of magnitude across platforms, so
// normalization onto a common scale is left to each provider.
type Engagement struct {
	Likes    int64 `bson:"likes" json:"likes"`
	Comments int64 `bson:"comments" json:"comments"`
	Shares   int64 `bson:"shares" json:"shares"`
}

// TravelContent is the normalized record of one external post/item.
// (Platform, PostID) uniquely identifies an item across the whole system
// and serves as the cache and dedup key.
type TravelContent struct {
	Platform        string            `bson:"platform" json:"platform"`
	PostID          string            `bson:"post_id" json:"post_id"`
	Title           string            `bson:"title" json:"title"`
	Body            string            `bson:"body" json:"body"`
	Language        string            `bson:"language" json:"language"`
	Summary         string            `bson:"summary,omitempty" json:"summary,omitempty"`
	ImageURLs       []string          `bson:"image_urls,omitempty" json:"image_urls,omitempty"`
	Tags            []string          `bson:"tags,omitempty" json:"tags,omitempty"`
	Author          Author            `bson:"author" json:"author"`
	Engagement      Engagement        `bson:"engagement" json:"engagement"`
	PostURL         string            `bson:"post_url" json:"post_url"`
	Location        string            `bson:"location,omitempty" json:"location,omitempty"`
	PublishedAt     time.Time         `bson:"published_at,omitempty" json:"published_at,omitempty"`
	Metadata        map[string]string `bson:"metadata,omitempty" json:"metadata,omitempty"`
	EngagementScore float64           `bson:"engagement_score,omitempty" json:"engagement_score,omitempty"`
	QualityScore    float64           `bson:"quality_score,omitempty" json:"quality_score,omitempty"`
}

// LanguageAll disables language filtering in SearchOptions.
const LanguageAll = "all"

// SearchOptions are the query parameters for one aggregation call.
// Immutable per call.
type SearchOptions struct {
	Query         string
	Destination   string
	ActivityType  string
	ItemType      string
	Language      string
	Platforms     []string
	Limit         int
	MinEngagement float64
}

// WantsPlatform reports whether the allow-list admits the given platform.
// An empty allow-list admits every platform.
func (o SearchOptions) WantsPlatform(platform string) bool {
	if len(o.Platforms) == 0 {
		return true
	}
	for _, p := range o.Platforms {
		if p == platform {
			return true
		}
	}
	return false
}

// CachedContent is a persisted TravelContent snapshot plus usage tracking.
// Collection: content_cache
type CachedContent struct {
	Content     TravelContent `bson:"content" json:"content"`
	Destination string        `bson:"destination" json:"destination"`
	UsageCount  int64         `bson:"usage_count" json:"usage_count"`
	FetchedAt   time.Time     `bson:"fetched_at" json:"fetched_at"`
	CreatedAt   time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time     `bson:"updated_at" json:"updated_at"`
}
