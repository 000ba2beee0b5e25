// Package detailcard builds one enriched recommendation card for a
// specific known activity, memoized in an in-process cache.
package detailcard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"trip-letter/logger"
	"trip-letter/models"
	"trip-letter/summarizer"
)

// cardSearchLimit bounds the targeted aggregation behind one card.
const cardSearchLimit = 5

// cardContextItems is how many top results feed the synthesis context.
const cardContextItems = 3

// SearchAggregator is the slice of the content aggregator the builder
// needs; satisfied by *aggregator.Aggregator.
type SearchAggregator interface {
	Aggregate(ctx context.Context, opts models.SearchOptions) ([]models.TravelContent, error)
}

// CardSynthesizer is the structured card synthesis capability; satisfied
// by *summarizer.Client.
type CardSynthesizer interface {
	SynthesizeCard(ctx context.Context, title, destination, contextText string) (*summarizer.CardSynthesis, error)
}

type Builder struct {
	agg   SearchAggregator
	llm   CardSynthesizer
	cache CardCache
}

func NewBuilder(agg SearchAggregator, llm CardSynthesizer, cache CardCache) *Builder {
	return &Builder{agg: agg, llm: llm, cache: cache}
}

// GetOrBuildCard returns the detail card for one itinerary item. A cache
// hit within the TTL makes no external calls. Misses run a small targeted
// aggregation and a structured synthesis; every failure mode degrades to
// a templated or minimal card. This operation never returns an error.
func (b *Builder) GetOrBuildCard(ctx context.Context, trip models.Trip, item models.TripItem) *models.ActivityDetailCard {
	key := CacheKey(trip.Destination, item.Title)
	if card, ok := b.cache.Get(key); ok {
		return card
	}

	card := b.build(ctx, trip, item)
	b.cache.Set(key, card)
	return card
}

func (b *Builder) build(ctx context.Context, trip models.Trip, item models.TripItem) *models.ActivityDetailCard {
	results, err := b.aggregate(ctx, trip, item)
	if err != nil {
		logger.WarnWithFields("card aggregation failed, building minimal card", logger.Fields{
			"title":       item.Title,
			"destination": trip.Destination,
			"error":       err.Error(),
		})
		return b.minimalCard(trip, item)
	}

	contextText := buildContext(results)
	synthesis, err := b.llm.SynthesizeCard(ctx, item.Title, trip.Destination, contextText)
	if err != nil {
		logger.WarnWithFields("card synthesis unparseable, using templated card", logger.Fields{
			"title": item.Title,
			"error": err.Error(),
		})
		return b.templatedCard(trip, item, results)
	}

	card := &models.ActivityDetailCard{
		ID:              uuid.NewString(),
		Title:           item.Title,
		ImageURLs:       collectImages(results),
		Summary:         synthesis.Summary,
		LongDescription: synthesis.LongDescription,
		Quotes:          synthesis.Quotes,
		SourceLinks:     collectLinks(results),
		ItemType:        item.ItemType,
		Duration:        synthesis.Duration,
		PhotoQuery:      synthesis.PhotoQuery,
		SourceTag:       sourceTag(results),
		BuiltAt:         nowUTC(),
	}
	if meta := platformMeta(results, synthesis); meta != nil {
		card.PlatformMeta = meta
	}
	return card
}

func (b *Builder) aggregate(ctx context.Context, trip models.Trip, item models.TripItem) (results []models.TravelContent, err error) {
	defer func() {
		// the aggregator contract is error-free for upstream reasons,
		// but a panic must not escape the card builder
		if r := recover(); r != nil {
			logger.ErrorWithFields("card aggregation panicked", logger.Fields{
				"title": item.Title,
				"panic": fmt.Sprint(r),
			})
			results, err = nil, fmt.Errorf("aggregation panicked: %v", r)
		}
	}()
	return b.agg.Aggregate(ctx, models.SearchOptions{
		Query:       item.Title,
		Destination: trip.Destination,
		ItemType:    item.ItemType,
		Language:    models.LanguageAll,
		Limit:       cardSearchLimit,
	})
}

// templatedCard is the fallback when synthesis is unparseable: caller
// supplied title/description plus whatever the aggregation found.
func (b *Builder) templatedCard(trip models.Trip, item models.TripItem, results []models.TravelContent) *models.ActivityDetailCard {
	return &models.ActivityDetailCard{
		ID:          uuid.NewString(),
		Title:       item.Title,
		ImageURLs:   collectImages(results),
		Summary:     genericSummary(trip, item),
		SourceLinks: collectLinks(results),
		ItemType:    item.ItemType,
		PhotoQuery:  item.Title + " " + trip.Destination,
		SourceTag:   sourceTag(results),
		BuiltAt:     nowUTC(),
	}
}

// minimalCard is the deepest fallback: no images, no quotes, generic
// description.
func (b *Builder) minimalCard(trip models.Trip, item models.TripItem) *models.ActivityDetailCard {
	return &models.ActivityDetailCard{
		ID:        uuid.NewString(),
		Title:     item.Title,
		Summary:   genericSummary(trip, item),
		ItemType:  item.ItemType,
		SourceTag: models.CardSourceAIGenerated,
		BuiltAt:   nowUTC(),
	}
}

func genericSummary(trip models.Trip, item models.TripItem) string {
	if desc := strings.TrimSpace(item.Description); desc != "" {
		return desc
	}
	return fmt.Sprintf("%s is a popular experience in %s. Check local listings for current details and opening hours.", item.Title, trip.Destination)
}

// buildContext concatenates the top results into the synthesis context.
func buildContext(results []models.TravelContent) string {
	n := len(results)
	if n > cardContextItems {
		n = cardContextItems
	}
	var b strings.Builder
	for i := 0; i < n; i++ {
		r := results[i]
		text := r.Summary
		if text == "" {
			text = r.Body
		}
		fmt.Fprintf(&b, "[%s] %s\n%s\n\n", r.Platform, r.Title, text)
	}
	return b.String()
}

func collectImages(results []models.TravelContent) []string {
	var out []string
	for _, r := range results {
		out = append(out, r.ImageURLs...)
	}
	if len(out) > 6 {
		out = out[:6]
	}
	return out
}

func collectLinks(results []models.TravelContent) []string {
	var out []string
	for _, r := range results {
		if r.Platform == models.PlatformAIGuide {
			continue
		}
		if r.PostURL != "" {
			out = append(out, r.PostURL)
		}
	}
	return out
}

// sourceTag marks a card ai-generated when no real platform contributed.
func sourceTag(results []models.TravelContent) string {
	for _, r := range results {
		if r.Platform != models.PlatformAIGuide {
			return models.CardSourceMultiPlatform
		}
	}
	return models.CardSourceAIGenerated
}

func nowUTC() time.Time { return time.Now().UTC() }

// platformMeta lifts author/engagement from the strongest real result,
// merged with location and timing from the synthesis.
func platformMeta(results []models.TravelContent, synthesis *summarizer.CardSynthesis) *models.CardPlatformMeta {
	meta := &models.CardPlatformMeta{
		Location: synthesis.Location,
		BestTime: synthesis.BestTime,
	}
	for _, r := range results {
		if r.Platform == models.PlatformAIGuide {
			continue
		}
		meta.Author = r.Author.Name
		meta.Engagement = r.EngagementScore
		break
	}
	if meta.Author == "" && meta.Location == "" && meta.BestTime == "" {
		return nil
	}
	return meta
}
