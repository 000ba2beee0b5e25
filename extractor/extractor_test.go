package extractor_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trip-letter/extractor"
	"trip-letter/models"
)

// scriptedExtractor returns canned activities per post title.
type scriptedExtractor struct {
	mu      sync.Mutex
	byTitle map[string][]models.ExtractedActivity
	calls   []string
	err     error
}

func (s *scriptedExtractor) ExtractActivities(ctx context.Context, title, body, platform, destination string) ([]models.ExtractedActivity, error) {
	s.mu.Lock()
	s.calls = append(s.calls, title)
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.byTitle[title], nil
}

func forumPost(title string, likes int64) models.TravelContent {
	return models.TravelContent{
		Platform:        models.PlatformWayfarer,
		PostID:          title,
		Title:           title,
		Body:            "body: " + title,
		Language:        "en",
		PostURL:         "https://forum.test/" + title,
		Author:          models.Author{Name: "traveler"},
		Engagement:      models.Engagement{Likes: likes},
		EngagementScore: float64(likes),
	}
}

func socialPost(title string) models.TravelContent {
	p := forumPost(title, 0)
	p.Platform = models.PlatformVoyagegram
	p.Metadata = map[string]string{"sample": "true"}
	return p
}

func aiPost(name, description string) models.TravelContent {
	return models.TravelContent{
		Platform: models.PlatformAIGuide,
		PostID:   "ai-" + name,
		Title:    name,
		Summary:  description,
		Language: "en",
		Metadata: map[string]string{
			"activity_name":  name,
			"description":    description,
			"photo_keywords": name,
			"location":       "somewhere",
			"tips":           "book ahead",
		},
	}
}

func act(name, location, description string) models.ExtractedActivity {
	return models.ExtractedActivity{
		Name:          name,
		Type:          "sightseeing",
		Description:   description,
		PhotoKeywords: name,
		Location:      location,
	}
}

func newExtractor(s *scriptedExtractor) *extractor.Extractor {
	return extractor.New(s, time.Second)
}

func TestExtractAndGroupMergesNearDuplicates(t *testing.T) {
	llm := &scriptedExtractor{byTitle: map[string][]models.ExtractedActivity{
		"Visit Shibuya Crossing": {
			act("Visit Shibuya Crossing", "Shibuya, Tokyo", "Cross the famous scramble."),
		},
		"Shibuya Crossing at night": {
			act("Shibuya Crossing at night", "Shibuya", "See the scramble lit up after dark, then explore the back streets."),
		},
	}}

	posts := []models.TravelContent{
		forumPost("Visit Shibuya Crossing", 80),
		socialPost("Shibuya Crossing at night"),
	}

	got := newExtractor(llm).ExtractAndGroup(context.Background(), posts, extractor.Options{Destination: "Tokyo"})

	require.Len(t, got, 1)
	merged := got[0]
	assert.Len(t, merged.SourcePosts, 2)
	assert.False(t, merged.IsAIGenerated)
	// longer description wins on merge
	assert.Contains(t, merged.Description, "after dark")
}

func TestGroupCountStableUnderReordering(t *testing.T) {
	activities := map[string][]models.ExtractedActivity{
		"p1": {act("Hike Rainbow Mountain", "Cusco", "High altitude trek.")},
		"p2": {act("Rainbow Mountain hike", "Cusco", "Colorful mineral ridges trek at altitude.")},
		"p3": {act("Sacred Valley day tour", "Cusco", "Markets and ruins.")},
	}
	llm := &scriptedExtractor{byTitle: activities}

	perms := [][]string{
		{"p1", "p2", "p3"},
		{"p3", "p2", "p1"},
		{"p2", "p3", "p1"},
	}
	for _, order := range perms {
		var posts []models.TravelContent
		for _, title := range order {
			posts = append(posts, forumPost(title, 100))
		}
		got := newExtractor(llm).ExtractAndGroup(context.Background(), posts, extractor.Options{Destination: "Peru"})
		assert.Len(t, got, 2, "order %v", order)
	}
}

func TestCountryFilterDropsForeignActivities(t *testing.T) {
	llm := &scriptedExtractor{byTitle: map[string][]models.ExtractedActivity{
		"Eiffel Tower at Night": {act("See the Eiffel Tower at night", "Paris", "Sparkling lights every hour.")},
		"Rainbow Mountain Trek": {act("Trek Rainbow Mountain", "Cusco, Peru", "Full day high altitude hike.")},
	}}

	posts := []models.TravelContent{
		forumPost("Eiffel Tower at Night", 300),
		forumPost("Rainbow Mountain Trek", 200),
	}

	got := newExtractor(llm).ExtractAndGroup(context.Background(), posts, extractor.Options{
		Destination:     "Peru",
		MainDestination: "Peru",
	})

	require.Len(t, got, 1)
	assert.Equal(t, "Trek Rainbow Mountain", got[0].Name)
}

func TestCityFilterIsStrict(t *testing.T) {
	llm := &scriptedExtractor{byTitle: map[string][]models.ExtractedActivity{
		"Osaka street food": {act("Dotonbori food crawl", "Osaka", "Eat your way down the canal.")},
	}}

	posts := []models.TravelContent{forumPost("Osaka street food", 100)}

	// zero matches for the requested city: zero results, never the
	// country-wide set
	got := newExtractor(llm).ExtractAndGroup(context.Background(), posts, extractor.Options{
		Destination:      "Japan",
		SpecificLocation: "Sapporo",
	})
	assert.Empty(t, got)

	got = newExtractor(llm).ExtractAndGroup(context.Background(), posts, extractor.Options{
		Destination:      "Japan",
		SpecificLocation: "Osaka",
	})
	assert.Len(t, got, 1)
}

func TestAlreadyPlannedActivitiesAreDropped(t *testing.T) {
	llm := &scriptedExtractor{byTitle: map[string][]models.ExtractedActivity{
		"crossing post": {act("Visit Shibuya Crossing", "Tokyo", "The scramble.")},
		"teamlab post":  {act("teamLab Planets", "Toyosu", "Immersive art museum.")},
	}}

	posts := []models.TravelContent{
		forumPost("crossing post", 100),
		forumPost("teamlab post", 100),
	}

	got := newExtractor(llm).ExtractAndGroup(context.Background(), posts, extractor.Options{
		Destination:    "Tokyo",
		AlreadyPlanned: []string{"shibuya crossing"},
	})

	require.Len(t, got, 1)
	assert.Equal(t, "teamLab Planets", got[0].Name)
}

func TestAIGuidePostsBypassExtraction(t *testing.T) {
	llm := &scriptedExtractor{byTitle: map[string][]models.ExtractedActivity{}}

	posts := []models.TravelContent{
		aiPost("Fushimi Inari sunrise walk", "Climb through the torii gates before the crowds."),
	}

	got := newExtractor(llm).ExtractAndGroup(context.Background(), posts, extractor.Options{Destination: "Kyoto"})

	require.Len(t, got, 1)
	assert.Equal(t, "Fushimi Inari sunrise walk", got[0].Name)
	assert.True(t, got[0].IsAIGenerated)
	assert.Equal(t, []string{"book ahead"}, got[0].Tips)
	// the model was never asked to extract
	assert.Empty(t, llm.calls)
}

func TestMixedSourcesAreNotAIGenerated(t *testing.T) {
	llm := &scriptedExtractor{byTitle: map[string][]models.ExtractedActivity{
		"forum about inari": {act("Fushimi Inari sunrise walk", "Kyoto", "Beat the crowds at the torii gates.")},
	}}

	posts := []models.TravelContent{
		aiPost("Fushimi Inari sunrise walk", "Climb through the torii gates."),
		forumPost("forum about inari", 150),
	}

	got := newExtractor(llm).ExtractAndGroup(context.Background(), posts, extractor.Options{Destination: "Kyoto"})

	require.Len(t, got, 1)
	assert.Len(t, got[0].SourcePosts, 2)
	assert.False(t, got[0].IsAIGenerated)
}

func TestExtractionFailureCostsOnlyTheAffectedPost(t *testing.T) {
	llm := &scriptedExtractor{
		byTitle: map[string][]models.ExtractedActivity{},
		err:     fmt.Errorf("model unavailable"),
	}

	posts := []models.TravelContent{
		forumPost("broken post", 100),
		aiPost("Nara deer park visit", "Feed the bowing deer."),
	}

	got := newExtractor(llm).ExtractAndGroup(context.Background(), posts, extractor.Options{Destination: "Japan"})

	require.Len(t, got, 1)
	assert.Equal(t, "Nara deer park visit", got[0].Name)
}

func TestTipsUnionSkipsExactDuplicates(t *testing.T) {
	a := act("Visit Shibuya Crossing", "Tokyo", "The scramble.")
	a.Tips = "go at night"
	b := act("Shibuya Crossing visit", "Tokyo", "The famous scramble crossing.")
	b.Tips = "go at night"

	llm := &scriptedExtractor{byTitle: map[string][]models.ExtractedActivity{
		"p1": {a},
		"p2": {b},
	}}

	posts := []models.TravelContent{forumPost("p1", 10), forumPost("p2", 20)}
	got := newExtractor(llm).ExtractAndGroup(context.Background(), posts, extractor.Options{Destination: "Tokyo"})

	require.Len(t, got, 1)
	assert.Equal(t, []string{"go at night"}, got[0].Tips)
}
