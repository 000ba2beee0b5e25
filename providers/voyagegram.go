package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"trip-letter/logger"
	"trip-letter/models"
	"trip-letter/renderer"
)

const voyagegramUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/118.0.0.0 Safari/537.36"

// Voyagegram scrapes the public hashtag pages of a photo-sharing social
// network. Platform policy: when the live scrape fails, or parses to zero
// items, a fixed-size set of illustrative items tagged to the queried
// destination is substituted so downstream consumers always have something
// to merge and score.
type Voyagegram struct {
	baseURL  string
	renderJS bool
	client   *http.Client

	// render is swappable in tests; defaults to the chromedp renderer.
	render func(url string) (string, error)
}

func NewVoyagegram(baseURL string, renderJS bool) *Voyagegram {
	return &Voyagegram{
		baseURL:  strings.TrimRight(baseURL, "/"),
		renderJS: renderJS,
		client: &http.Client{
			Timeout: 20 * time.Second,
		},
		render: renderer.RenderHTML,
	}
}

func (p *Voyagegram) Platform() string { return models.PlatformVoyagegram }

func (p *Voyagegram) Search(ctx context.Context, opts models.SearchOptions) []models.TravelContent {
	tag := hashtagFor(opts)

	items, err := p.fetchTagFeed(ctx, tag)
	if err != nil {
		logger.WarnWithFields("voyagegram scrape failed, using sample posts", logger.Fields{
			"tag":   tag,
			"error": err.Error(),
		})
		return p.samplePosts(opts.Destination)
	}
	if len(items) == 0 {
		logger.WarnWithFields("voyagegram scrape parsed zero posts, using sample posts", logger.Fields{
			"tag": tag,
		})
		return p.samplePosts(opts.Destination)
	}
	return items
}

// tagFeedPayload is the JSON shape embedded in (or served for) a hashtag
// page.
type tagFeedPayload struct {
	Items []struct {
		ID       string `json:"id"`
		Caption  string `json:"caption"`
		ImageURL string `json:"image_url"`
		Likes    int64  `json:"likes"`
		Comments int64  `json:"comments"`
		Shares   int64  `json:"shares"`
		Author   struct {
			ID        string `json:"id"`
			Username  string `json:"username"`
			AvatarURL string `json:"avatar_url"`
		} `json:"author"`
		Location string   `json:"location"`
		TakenAt  int64    `json:"taken_at"`
		Tags     []string `json:"tags"`
	} `json:"items"`
}

var inlineTagDataRe = regexp.MustCompile(`window\.__TAG_DATA__\s*=\s*(\{.*?\});`)

func (p *Voyagegram) fetchTagFeed(ctx context.Context, tag string) ([]models.TravelContent, error) {
	var raw []byte

	if p.renderJS {
		// Client-rendered pages embed the feed payload in an inline
		// script; render the page and lift it out.
		htmlStr, err := p.render(fmt.Sprintf("%s/tags/%s/", p.baseURL, url.PathEscape(tag)))
		if err != nil {
			return nil, err
		}
		m := inlineTagDataRe.FindStringSubmatch(htmlStr)
		if m == nil {
			return nil, fmt.Errorf("no embedded tag data in rendered page")
		}
		raw = []byte(m[1])
	} else {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet,
			fmt.Sprintf("%s/tags/%s/?__a=1", p.baseURL, url.PathEscape(tag)), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", voyagegramUserAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := p.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status %d for tag %s", resp.StatusCode, tag)
		}
		raw, err = io.ReadAll(io.LimitReader(resp.Body, 4<<20))
		if err != nil {
			return nil, err
		}
	}

	var payload tagFeedPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("unparseable tag feed: %w", err)
	}

	var out []models.TravelContent
	for _, it := range payload.Items {
		caption := strings.TrimSpace(it.Caption)
		c := models.TravelContent{
			Platform: models.PlatformVoyagegram,
			PostID:   it.ID,
			Title:    captionTitle(caption),
			Body:     caption,
			Language: DetectLanguage(caption),
			Tags:     it.Tags,
			Author: models.Author{
				ID:        it.Author.ID,
				Name:      it.Author.Username,
				AvatarURL: it.Author.AvatarURL,
			},
			Engagement: models.Engagement{
				Likes:    it.Likes,
				Comments: it.Comments,
				Shares:   it.Shares,
			},
			PostURL:  fmt.Sprintf("%s/p/%s/", p.baseURL, it.ID),
			Location: it.Location,
		}
		if it.ImageURL != "" {
			c.ImageURLs = []string{it.ImageURL}
		}
		if it.TakenAt > 0 {
			c.PublishedAt = time.Unix(it.TakenAt, 0).UTC()
		}
		out = append(out, c)
	}
	return out, nil
}

// Engagement normalization: likes dominate on this platform and run into
// the tens of thousands, so they get the largest divisor.
func (p *Voyagegram) CalculateEngagementScore(c models.TravelContent) float64 {
	score := float64(c.Engagement.Likes)/50 +
		float64(c.Engagement.Comments)/5 +
		float64(c.Engagement.Shares)/2
	return clampScore(score)
}

func (p *Voyagegram) IsHighQuality(c models.TravelContent) bool {
	return p.CalculateEngagementScore(c) >= 10 && len(c.Body) >= 80
}

// samplePosts is the fixed fallback set, tagged to the destination.
func (p *Voyagegram) samplePosts(destination string) []models.TravelContent {
	slug := destinationSlug(destination)
	samples := []struct {
		suffix  string
		caption string
		likes   int64
	}{
		{"sunrise", "Caught the sunrise over " + destination + " this morning and it was unreal. Get up early, grab a coffee, and find a high viewpoint before the crowds arrive.", 2400},
		{"streetfood", "Street food crawl through " + destination + "! The local market stalls near the old town are the real deal, go hungry and try everything.", 1850},
		{"hiddengem", "Found a hidden gem in " + destination + " away from the tourist trail. A tiny neighborhood full of local cafes and craft shops, perfect for a slow afternoon.", 1320},
		{"viewpoint", "The classic viewpoint in " + destination + " lives up to the hype. Go at golden hour and stay for the city lights coming on.", 3100},
	}

	out := make([]models.TravelContent, 0, len(samples))
	for i, s := range samples {
		out = append(out, models.TravelContent{
			Platform: models.PlatformVoyagegram,
			PostID:   fmt.Sprintf("sample-%s-%d", slug, i+1),
			Title:    captionTitle(s.caption),
			Body:     s.caption,
			Language: "en",
			Tags:     []string{"travel", slug, s.suffix},
			Author: models.Author{
				ID:   "voyagegram-samples",
				Name: "voyagegram.travel",
			},
			Engagement: models.Engagement{
				Likes:    s.likes,
				Comments: s.likes / 40,
				Shares:   s.likes / 80,
			},
			PostURL:  fmt.Sprintf("%s/p/sample-%s-%d/", p.baseURL, slug, i+1),
			Location: destination,
			Metadata: map[string]string{"sample": "true"},
		})
	}
	return out
}

func hashtagFor(opts models.SearchOptions) string {
	tag := opts.Destination
	if opts.ActivityType != "" {
		tag += opts.ActivityType
	}
	return destinationSlug(tag)
}

func destinationSlug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

// captionTitle derives a title from the first sentence of a caption.
func captionTitle(caption string) string {
	caption = strings.TrimSpace(caption)
	for _, sep := range []string{". ", "! ", "? ", "\n"} {
		if idx := strings.Index(caption, sep); idx > 0 {
			return caption[:idx+1]
		}
	}
	if rs := []rune(caption); len(rs) > 80 {
		return string(rs[:80])
	}
	return caption
}
