package providers

import (
	"bytes"
	"context"
	"crypto/sha1"
	"crypto/tls"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"trip-letter/logger"
	"trip-letter/models"
	"trip-letter/parser"
)

// blogUserAgent is a browser-like User-Agent; some blogs behind CDN or
// security proxies block the default Go client UA.
const blogUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/142.0.0.0 Safari/537.36"

// BlogFeed is one configured travel blog source.
type BlogFeed struct {
	Name   string
	URL    string
	RSSURL string
}

// TravelBlog reads configured travel blog RSS feeds and keeps the items
// that mention the requested destination. When an item's page yields
// readable full text, that replaces the feed excerpt.
type TravelBlog struct {
	feeds  []BlogFeed
	client *http.Client
}

func NewTravelBlog(feeds []BlogFeed) *TravelBlog {
	return &TravelBlog{
		feeds: feeds,
		client: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				// Go resets headers across redirects
				req.Header.Set("User-Agent", blogUserAgent)
				return nil
			},
		},
	}
}

func (p *TravelBlog) Platform() string { return models.PlatformTravelBlog }

func (p *TravelBlog) Search(ctx context.Context, opts models.SearchOptions) []models.TravelContent {
	dest := strings.ToLower(strings.TrimSpace(opts.Destination))

	var out []models.TravelContent
	for _, feed := range p.feeds {
		items, err := p.fetchFeed(ctx, feed.RSSURL)
		if err != nil {
			logger.WarnWithFields("travelblog feed fetch failed", logger.Fields{
				"feed":  feed.Name,
				"error": err.Error(),
			})
			continue
		}

		for _, item := range items {
			haystack := strings.ToLower(item.Title + " " + item.Description + " " + item.Content)
			if dest != "" && !strings.Contains(haystack, dest) {
				continue
			}

			body := strings.TrimSpace(item.Content)
			if body == "" {
				body = strings.TrimSpace(item.Description)
			}
			var image string
			if item.Image != nil {
				image = item.Image.URL
			}

			// Prefer the readable full article over the feed excerpt.
			if text, topImage, err := p.fetchArticle(ctx, item.Link); err == nil && len(text) > len(body) {
				body = text
				if image == "" {
					image = topImage
				}
			}

			c := models.TravelContent{
				Platform: models.PlatformTravelBlog,
				PostID:   blogPostID(item.Link),
				Title:    item.Title,
				Body:     body,
				Language: DetectLanguage(item.Title + " " + body),
				Author:   blogAuthor(feed, item),
				PostURL:  item.Link,
				Location: opts.Destination,
				Metadata: map[string]string{"blog": feed.Name},
			}
			if image != "" {
				c.ImageURLs = []string{image}
			}
			for _, cat := range item.Categories {
				c.Tags = append(c.Tags, cat)
			}
			if item.PublishedParsed != nil {
				c.PublishedAt = *item.PublishedParsed
			} else if item.UpdatedParsed != nil {
				c.PublishedAt = *item.UpdatedParsed
			}
			out = append(out, c)
		}
	}
	return out
}

func (p *TravelBlog) fetchFeed(ctx context.Context, rssURL string) ([]*gofeed.Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rssURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create RSS request: %w", err)
	}
	req.Header.Set("User-Agent", blogUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodySample, _ := io.ReadAll(io.LimitReader(resp.Body, 500))
		return nil, fmt.Errorf("failed to fetch RSS feed: status code %d, url: %s, body: %s", resp.StatusCode, rssURL, string(bodySample))
	}

	cleanedReader, err := cleanControlCharacters(resp.Body)
	if err != nil {
		return nil, err
	}

	fp := gofeed.NewParser()
	feed, err := fp.Parse(cleanedReader)
	if err != nil {
		return nil, fmt.Errorf("failed to parse RSS feed: %w", err)
	}
	return feed.Items, nil
}

func (p *TravelBlog) fetchArticle(ctx context.Context, link string) (text, topImage string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return "", "", err
	}
	req.Header.Set("User-Agent", blogUserAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("status %d for %s", resp.StatusCode, link)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", "", err
	}

	page, err := parser.ParsePage(string(raw))
	if err != nil {
		return "", "", err
	}
	return page.Text, page.TopImage, nil
}

// Engagement normalization: feeds expose no counters, so a fixed
// mid-low score stands in; editorial content ranks below popular social
// posts but above noise.
func (p *TravelBlog) CalculateEngagementScore(c models.TravelContent) float64 {
	return clampScore(250)
}

func (p *TravelBlog) IsHighQuality(c models.TravelContent) bool {
	return len(c.Body) >= 300
}

func blogAuthor(feed BlogFeed, item *gofeed.Item) models.Author {
	a := models.Author{ID: feed.URL, Name: feed.Name}
	if item.Author != nil && item.Author.Name != "" {
		a.Name = item.Author.Name
	}
	return a
}

// blogPostID derives a stable post id from the canonical link.
func blogPostID(link string) string {
	sum := sha1.Sum([]byte(link))
	return hex.EncodeToString(sum[:])[:16]
}

// invalidControlCharRegex matches control characters XML forbids
// (0x00-0x1F except tab, LF, CR); some feeds emit them anyway.
var invalidControlCharRegex = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F]`)

func cleanControlCharacters(r io.Reader) (io.Reader, error) {
	bodyBytes, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read body for cleaning: %w", err)
	}

	cleanedBytes := invalidControlCharRegex.ReplaceAll(bodyBytes, []byte(""))

	return bytes.NewReader(cleanedBytes), nil
}
