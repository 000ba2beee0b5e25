package detailcard_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trip-letter/detailcard"
	"trip-letter/models"
	"trip-letter/summarizer"
)

type fakeAggregator struct {
	results []models.TravelContent
	err     error
	panics  bool
	calls   int
}

func (f *fakeAggregator) Aggregate(ctx context.Context, opts models.SearchOptions) ([]models.TravelContent, error) {
	f.calls++
	if f.panics {
		panic("aggregator blew up")
	}
	return f.results, f.err
}

type fakeSynthesizer struct {
	card  *summarizer.CardSynthesis
	err   error
	calls int
}

func (f *fakeSynthesizer) SynthesizeCard(ctx context.Context, title, destination, contextText string) (*summarizer.CardSynthesis, error) {
	f.calls++
	return f.card, f.err
}

var kyoto = models.Trip{ID: "t1", Destination: "Kyoto", MainDestination: "Japan"}

var inariItem = models.TripItem{
	Title:       "Fushimi Inari sunrise walk",
	Description: "Walk the torii gates before the crowds arrive.",
	ItemType:    "activity",
}

func forumResult() models.TravelContent {
	return models.TravelContent{
		Platform:        models.PlatformWayfarer,
		PostID:          "a",
		Title:           "Fushimi Inari before dawn",
		Summary:         "Go before 7am.",
		ImageURLs:       []string{"https://img.test/inari.jpg"},
		PostURL:         "https://forum.test/inari",
		Author:          models.Author{Name: "earlybird"},
		EngagementScore: 320,
	}
}

func TestGetOrBuildCardSynthesizes(t *testing.T) {
	agg := &fakeAggregator{results: []models.TravelContent{forumResult()}}
	llm := &fakeSynthesizer{card: &summarizer.CardSynthesis{
		Summary:         "A quiet walk through thousands of torii gates.",
		LongDescription: "Start before sunrise to have the lower shrine almost to yourself.",
		Quotes:          []models.Quote{{Original: "Go before 7am.", Translated: "Go before 7am."}},
		PhotoQuery:      "fushimi inari torii gates",
		Duration:        "2-3 hours",
		BestTime:        "sunrise",
		Location:        "Fushimi Inari Taisha",
	}}

	b := detailcard.NewBuilder(agg, llm, detailcard.NewMemoryCache(time.Hour))
	card := b.GetOrBuildCard(context.Background(), kyoto, inariItem)

	require.NotNil(t, card)
	assert.Equal(t, inariItem.Title, card.Title)
	assert.Equal(t, models.CardSourceMultiPlatform, card.SourceTag)
	assert.Len(t, card.Quotes, 1)
	assert.Equal(t, []string{"https://img.test/inari.jpg"}, card.ImageURLs)
	assert.Equal(t, []string{"https://forum.test/inari"}, card.SourceLinks)
	require.NotNil(t, card.PlatformMeta)
	assert.Equal(t, "earlybird", card.PlatformMeta.Author)
}

func TestGetOrBuildCardHitsCacheWithoutExternalCalls(t *testing.T) {
	agg := &fakeAggregator{results: []models.TravelContent{forumResult()}}
	llm := &fakeSynthesizer{card: &summarizer.CardSynthesis{Summary: "s"}}

	b := detailcard.NewBuilder(agg, llm, detailcard.NewMemoryCache(time.Hour))
	first := b.GetOrBuildCard(context.Background(), kyoto, inariItem)
	second := b.GetOrBuildCard(context.Background(), kyoto, inariItem)

	assert.Same(t, first, second)
	assert.Equal(t, 1, agg.calls)
	assert.Equal(t, 1, llm.calls)
}

func TestGetOrBuildCardTemplatedFallbackOnUnparseableSynthesis(t *testing.T) {
	agg := &fakeAggregator{results: []models.TravelContent{forumResult()}}
	llm := &fakeSynthesizer{err: fmt.Errorf("unparseable response")}

	b := detailcard.NewBuilder(agg, llm, detailcard.NewMemoryCache(time.Hour))
	card := b.GetOrBuildCard(context.Background(), kyoto, inariItem)

	require.NotNil(t, card)
	// caller-supplied description backs the templated card
	assert.Equal(t, inariItem.Description, card.Summary)
	assert.Empty(t, card.Quotes)
	// aggregation results still contribute images and links
	assert.NotEmpty(t, card.ImageURLs)
	assert.NotEmpty(t, card.SourceLinks)
}

func TestGetOrBuildCardMinimalFallbackOnAggregationFailure(t *testing.T) {
	agg := &fakeAggregator{err: fmt.Errorf("every upstream down")}
	llm := &fakeSynthesizer{}

	b := detailcard.NewBuilder(agg, llm, detailcard.NewMemoryCache(time.Hour))
	card := b.GetOrBuildCard(context.Background(), kyoto, inariItem)

	require.NotNil(t, card)
	assert.Empty(t, card.ImageURLs)
	assert.Empty(t, card.Quotes)
	assert.NotEmpty(t, card.Summary)
	assert.Equal(t, models.CardSourceAIGenerated, card.SourceTag)
	// synthesis is never attempted without context
	assert.Equal(t, 0, llm.calls)
}

func TestGetOrBuildCardSurvivesAggregatorPanic(t *testing.T) {
	agg := &fakeAggregator{panics: true}
	llm := &fakeSynthesizer{}

	b := detailcard.NewBuilder(agg, llm, detailcard.NewMemoryCache(time.Hour))
	card := b.GetOrBuildCard(context.Background(), kyoto, inariItem)

	require.NotNil(t, card)
	assert.Equal(t, models.CardSourceAIGenerated, card.SourceTag)
}

func TestFallbackCardsAreCachedToo(t *testing.T) {
	agg := &fakeAggregator{err: fmt.Errorf("down")}
	llm := &fakeSynthesizer{}

	b := detailcard.NewBuilder(agg, llm, detailcard.NewMemoryCache(time.Hour))
	first := b.GetOrBuildCard(context.Background(), kyoto, inariItem)
	second := b.GetOrBuildCard(context.Background(), kyoto, inariItem)

	assert.Same(t, first, second)
	assert.Equal(t, 1, agg.calls)
}

func TestAIGuideOnlyResultsTagCardAIGenerated(t *testing.T) {
	aiResult := models.TravelContent{
		Platform: models.PlatformAIGuide,
		PostID:   "ai1",
		Title:    "Fushimi Inari sunrise walk",
		Summary:  "Torii gates at dawn.",
	}
	agg := &fakeAggregator{results: []models.TravelContent{aiResult}}
	llm := &fakeSynthesizer{card: &summarizer.CardSynthesis{Summary: "s"}}

	b := detailcard.NewBuilder(agg, llm, detailcard.NewMemoryCache(time.Hour))
	card := b.GetOrBuildCard(context.Background(), kyoto, inariItem)

	assert.Equal(t, models.CardSourceAIGenerated, card.SourceTag)
	assert.Empty(t, card.SourceLinks)
}
