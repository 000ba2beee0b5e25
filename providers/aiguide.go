package providers

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

// SuggestionSource is the slice of the language model the AIGuide provider
// needs; satisfied by *summarizer.Client.
type SuggestionSource interface {
	GenerateSuggestions(ctx context.Context, destination, activityType string, limit int) ([]summarizer.Suggestion, error)
}

// aiGuideEngagementScore is the fixed normalized score for model-authored
// items, which carry no real engagement counters. A mid-scale constant
// keeps mixed-source sorting stable.
const aiGuideEngagementScore = 500

// AIGuide treats the language model itself as a content source: each
// suggestion it produces already is one activity, carried through the
// pipeline as a TravelContent item with the activity fields in metadata.
type AIGuide struct {
	source SuggestionSource
}

func NewAIGuide(source SuggestionSource) *AIGuide {
	return &AIGuide{source: source}
}

func (p *AIGuide) Platform() string { return models.PlatformAIGuide }

func (p *AIGuide) Search(ctx context.Context, opts models.SearchOptions) []models.TravelContent {
	limit := opts.Limit
	if limit <= 0 || limit > 5 {
		limit = 5
	}

	suggestions, err := p.source.GenerateSuggestions(ctx, opts.Destination, opts.ActivityType, limit)
	if err != nil {
		logger.WarnWithFields("aiguide suggestion generation failed", logger.Fields{
			"destination": opts.Destination,
			"error":       err.Error(),
		})
		return nil
	}

	var out []models.TravelContent
	for _, s := range suggestions {
		if strings.TrimSpace(s.Title) == "" {
			continue
		}
		out = append(out, models.TravelContent{
			Platform: models.PlatformAIGuide,
			PostID:   uuid.NewString(),
			Title:    s.Title,
			Body:     s.Description,
			Summary:  s.Description,
			Language: "en",
			Tags:     s.Tags,
			Author: models.Author{
				ID:   "aiguide",
				Name: "Trip Letter Guide",
			},
			PostURL:     fmt.Sprintf("aiguide://%s", uuid.NewString()),
			Location:    s.Location,
			PublishedAt: time.Now().UTC(),
			Metadata: map[string]string{
				"activity_name":  s.Title,
				"description":    s.Description,
				"location":       s.Location,
				"duration":       s.Duration,
				"best_time":      s.BestTime,
				"tips":           s.Tips,
				"photo_keywords": s.PhotoKeywords,
			},
		})
	}
	return out
}

func (p *AIGuide) CalculateEngagementScore(c models.TravelContent) float64 {
	return aiGuideEngagementScore
}

// IsHighQuality always accepts: suggestions are generated to order, there
// is no noise pool to gate.
func (p *AIGuide) IsHighQuality(c models.TravelContent) bool { return true }
