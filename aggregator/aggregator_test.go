package aggregator_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"trip-letter/aggregator"
	"trip-letter/models"
	"trip-letter/repositories"
)

// fakeProvider is a scripted content source.
type fakeProvider struct {
	platform string
	items    []models.TravelContent
	panics   bool
	calls    int
	mu       sync.Mutex
}

func (f *fakeProvider) Platform() string { return f.platform }

func (f *fakeProvider) Search(ctx context.Context, opts models.SearchOptions) []models.TravelContent {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.panics {
		panic("upstream exploded")
	}
	return f.items
}

func (f *fakeProvider) CalculateEngagementScore(c models.TravelContent) float64 {
	return float64(c.Engagement.Likes)
}

func (f *fakeProvider) IsHighQuality(c models.TravelContent) bool { return true }

// fakeStore is an in-memory ContentStore.
type fakeStore struct {
	mu         sync.Mutex
	cached     []models.CachedContent
	upserts    map[string]int
	increments map[string]int
	failWrites bool
	findErr    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		upserts:    map[string]int{},
		increments: map[string]int{},
	}
}

func key(platform, postID string) string { return platform + "/" + postID }

func (f *fakeStore) FindByDestination(ctx context.Context, opt repositories.FindByDestinationOptions) ([]models.CachedContent, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.cached, nil
}

func (f *fakeStore) Upsert(ctx context.Context, c *models.CachedContent) (*mongo.UpdateResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites {
		return nil, fmt.Errorf("write refused")
	}
	f.upserts[key(c.Content.Platform, c.Content.PostID)]++
	return nil, nil
}

func (f *fakeStore) IncrementUsage(ctx context.Context, platform, postID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.increments[key(platform, postID)]++
	return nil
}

// fakeSummarizer fails for bodies containing "unsummarizable".
type fakeSummarizer struct{}

func (fakeSummarizer) SummarizeText(ctx context.Context, title, body, lang string) (string, error) {
	if strings.Contains(body, "unsummarizable") {
		return "", fmt.Errorf("model refused")
	}
	return "summary of " + title, nil
}

func post(platform, id string, likes int64) models.TravelContent {
	return models.TravelContent{
		Platform:   platform,
		PostID:     id,
		Title:      "post " + id,
		Body:       "body of post " + id,
		Language:   "en",
		Engagement: models.Engagement{Likes: likes},
	}
}

func newAggregator(store aggregator.ContentStore, provs ...*fakeProvider) *aggregator.Aggregator {
	cfg := aggregator.Config{
		Store:           store,
		Summarizer:      fakeSummarizer{},
		ProviderTimeout: time.Second,
	}
	for _, p := range provs {
		cfg.Providers = append(cfg.Providers, p)
	}
	return aggregator.New(cfg)
}

func TestAggregateToleratesPartialProviderFailure(t *testing.T) {
	broken := &fakeProvider{platform: "voyagegram", panics: true}
	healthy := &fakeProvider{platform: "wayfarer", items: []models.TravelContent{
		post("wayfarer", "a", 100),
		post("wayfarer", "b", 50),
	}}

	agg := newAggregator(newFakeStore(), broken, healthy)
	results, err := agg.Aggregate(context.Background(), models.SearchOptions{Destination: "Tokyo", Limit: 10})

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].PostID)
	assert.Equal(t, "b", results[1].PostID)
}

func TestAggregateCacheShortCircuit(t *testing.T) {
	store := newFakeStore()
	for i := 0; i < 3; i++ {
		store.cached = append(store.cached, models.CachedContent{
			Content:     post("wayfarer", fmt.Sprintf("c%d", i), 10),
			Destination: "Tokyo",
			FetchedAt:   time.Now(),
		})
	}
	prov := &fakeProvider{platform: "wayfarer", items: []models.TravelContent{post("wayfarer", "live", 999)}}

	agg := newAggregator(store, prov)
	results, err := agg.Aggregate(context.Background(), models.SearchOptions{Destination: "Tokyo", Limit: 3})

	require.NoError(t, err)
	assert.Len(t, results, 3)
	// hard short-circuit: the provider was never touched
	assert.Equal(t, 0, prov.calls)
	// usage counters incremented on the cache-hit path
	assert.Equal(t, 1, store.increments[key("wayfarer", "c0")])
}

func TestAggregateFallsBackToCacheWhenProvidersEmpty(t *testing.T) {
	store := newFakeStore()
	store.cached = []models.CachedContent{{
		Content:     post("wayfarer", "old", 10),
		Destination: "Tokyo",
	}}
	empty := &fakeProvider{platform: "wayfarer"}

	agg := newAggregator(store, empty)
	results, err := agg.Aggregate(context.Background(), models.SearchOptions{Destination: "Tokyo", Limit: 5})

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "old", results[0].PostID)
	assert.Equal(t, 1, empty.calls)
}

func TestAggregateSortsByEngagementScore(t *testing.T) {
	prov := &fakeProvider{platform: "wayfarer", items: []models.TravelContent{
		post("wayfarer", "low", 5),
		post("wayfarer", "high", 500),
		post("wayfarer", "mid", 50),
	}}

	agg := newAggregator(newFakeStore(), prov)
	results, err := agg.Aggregate(context.Background(), models.SearchOptions{Destination: "Tokyo", Limit: 10})

	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, []string{"high", "mid", "low"}, []string{results[0].PostID, results[1].PostID, results[2].PostID})
}

func TestAggregateDeduplicatesAcrossProviders(t *testing.T) {
	a := &fakeProvider{platform: "wayfarer", items: []models.TravelContent{post("wayfarer", "dup", 10)}}
	b := &fakeProvider{platform: "wayfarer2", items: []models.TravelContent{post("wayfarer", "dup", 10)}}

	agg := newAggregator(newFakeStore(), a, b)
	results, err := agg.Aggregate(context.Background(), models.SearchOptions{Destination: "Tokyo", Limit: 10})

	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestAggregateEnhancesMissingSummaries(t *testing.T) {
	ok := post("wayfarer", "ok", 10)
	stubborn := post("wayfarer", "bad", 10)
	stubborn.Body = "unsummarizable " + strings.Repeat("x", 300)
	prov := &fakeProvider{platform: "wayfarer", items: []models.TravelContent{ok, stubborn}}

	agg := newAggregator(newFakeStore(), prov)
	results, err := agg.Aggregate(context.Background(), models.SearchOptions{Destination: "Tokyo", Limit: 10})

	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.NotEmpty(t, r.Summary)
		if r.PostID == "bad" {
			// fallback truncation of the raw body, not a model summary
			assert.True(t, strings.HasPrefix(r.Summary, "unsummarizable"))
			assert.LessOrEqual(t, len([]rune(r.Summary)), 200)
		}
	}
}

func TestAggregatePersistsBestEffort(t *testing.T) {
	store := newFakeStore()
	store.failWrites = true
	prov := &fakeProvider{platform: "wayfarer", items: []models.TravelContent{post("wayfarer", "a", 10)}}

	agg := newAggregator(store, prov)
	results, err := agg.Aggregate(context.Background(), models.SearchOptions{Destination: "Tokyo", Limit: 10})

	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestAggregateLanguageFilter(t *testing.T) {
	en := post("wayfarer", "en", 10)
	ja := post("wayfarer", "ja", 20)
	ja.Language = "ja"
	prov := &fakeProvider{platform: "wayfarer", items: []models.TravelContent{en, ja}}

	agg := newAggregator(newFakeStore(), prov)

	results, err := agg.Aggregate(context.Background(), models.SearchOptions{Destination: "Tokyo", Language: "ja", Limit: 10})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "ja", results[0].PostID)

	results, err = agg.Aggregate(context.Background(), models.SearchOptions{Destination: "Tokyo", Language: models.LanguageAll, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestAggregateHonorsProviderAllowList(t *testing.T) {
	a := &fakeProvider{platform: "voyagegram", items: []models.TravelContent{post("voyagegram", "v", 10)}}
	b := &fakeProvider{platform: "wayfarer", items: []models.TravelContent{post("wayfarer", "w", 10)}}

	agg := newAggregator(newFakeStore(), a, b)
	results, err := agg.Aggregate(context.Background(), models.SearchOptions{
		Destination: "Tokyo",
		Platforms:   []string{"wayfarer"},
		Limit:       10,
	})

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "w", results[0].PostID)
	assert.Equal(t, 0, a.calls)
}

func TestAggregateRejectsMissingDestination(t *testing.T) {
	agg := newAggregator(newFakeStore())
	_, err := agg.Aggregate(context.Background(), models.SearchOptions{})
	assert.Error(t, err)
}
