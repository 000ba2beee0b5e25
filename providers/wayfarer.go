package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"trip-letter/logger"
	"trip-letter/models"
)

// Wayfarer queries the public JSON API of a travel discussion forum.
// Upstream failures resolve to an empty list; the forum has no sample
// fallback because its volume is high enough that scarcity is genuine.
type Wayfarer struct {
	baseURL string
	client  *http.Client
}

func NewWayfarer(baseURL string) *Wayfarer {
	return &Wayfarer{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
}

func (p *Wayfarer) Platform() string { return models.PlatformWayfarer }

// threadListing is the forum search response shape.
type threadListing struct {
	Data struct {
		Children []struct {
			Data struct {
				ID          string  `json:"id"`
				Title       string  `json:"title"`
				SelfText    string  `json:"selftext"`
				Ups         int64   `json:"ups"`
				NumComments int64   `json:"num_comments"`
				TotalAwards int64   `json:"total_awards_received"`
				Permalink   string  `json:"permalink"`
				Author      string  `json:"author"`
				Subforum    string  `json:"subreddit"`
				CreatedUTC  float64 `json:"created_utc"`
				Thumbnail   string  `json:"thumbnail"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

func (p *Wayfarer) Search(ctx context.Context, opts models.SearchOptions) []models.TravelContent {
	q := strings.TrimSpace(opts.Query + " " + opts.Destination + " " + opts.ActivityType)
	limit := opts.Limit
	if limit <= 0 {
		limit = 25
	}

	endpoint := fmt.Sprintf("%s/search.json?q=%s&limit=%d&sort=relevance",
		p.baseURL, url.QueryEscape(q), limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		logger.ErrorWithFields("wayfarer request build failed", logger.Fields{"error": err.Error()})
		return nil
	}
	req.Header.Set("User-Agent", "trip-letter/1.0 (travel content aggregator)")

	resp, err := p.client.Do(req)
	if err != nil {
		logger.WarnWithFields("wayfarer search failed", logger.Fields{"query": q, "error": err.Error()})
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.WarnWithFields("wayfarer search returned non-OK status", logger.Fields{
			"query":  q,
			"status": resp.StatusCode,
		})
		return nil
	}

	var listing threadListing
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		logger.WarnWithFields("wayfarer listing unparseable", logger.Fields{"query": q, "error": err.Error()})
		return nil
	}

	var out []models.TravelContent
	for _, child := range listing.Data.Children {
		t := child.Data
		body := strings.TrimSpace(t.SelfText)
		c := models.TravelContent{
			Platform: models.PlatformWayfarer,
			PostID:   t.ID,
			Title:    t.Title,
			Body:     body,
			Language: DetectLanguage(t.Title + " " + body),
			Author: models.Author{
				ID:   t.Author,
				Name: t.Author,
			},
			Engagement: models.Engagement{
				Likes:    t.Ups,
				Comments: t.NumComments,
				Shares:   t.TotalAwards,
			},
			PostURL: p.baseURL + t.Permalink,
			Metadata: map[string]string{
				"subforum": t.Subforum,
			},
		}
		if t.CreatedUTC > 0 {
			c.PublishedAt = time.Unix(int64(t.CreatedUTC), 0).UTC()
		}
		if t.Thumbnail != "" && strings.HasPrefix(t.Thumbnail, "http") {
			c.ImageURLs = []string{t.Thumbnail}
		}
		out = append(out, c)
	}
	return out
}

// Engagement normalization: forum upvotes run two orders of magnitude
// below social likes, so the divisors are smaller and awards weigh in as
// a strong quality signal.
func (p *Wayfarer) CalculateEngagementScore(c models.TravelContent) float64 {
	score := float64(c.Engagement.Likes)/10 +
		float64(c.Engagement.Comments)/2 +
		float64(c.Engagement.Shares)*5
	return clampScore(score)
}

// IsHighQuality requires at least 50 raw engagement units and 200
// characters of body text; forum volume is high enough to drop the rest.
func (p *Wayfarer) IsHighQuality(c models.TravelContent) bool {
	units := c.Engagement.Likes + c.Engagement.Comments + c.Engagement.Shares
	return units >= 50 && len(c.Body) >= 200
}
