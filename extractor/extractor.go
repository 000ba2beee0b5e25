// Package extractor turns aggregated content items into structured,
// deduplicated activity recommendations.
package extractor

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"trip-letter/logger"
	"trip-letter/models"
)

// ActivityExtractor is the structured extraction capability; satisfied by
// *summarizer.Client.
type ActivityExtractor interface {
	ExtractActivities(ctx context.Context, title, body, platform, destination string) ([]models.ExtractedActivity, error)
}

// groupSimilarityThreshold is the token-overlap ratio above which two
// activity names are considered the same activity.
const groupSimilarityThreshold = 0.6

type Extractor struct {
	llm     ActivityExtractor
	timeout time.Duration
}

func New(llm ActivityExtractor, timeout time.Duration) *Extractor {
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	return &Extractor{llm: llm, timeout: timeout}
}

// Options narrows and deduplicates the extraction result set.
type Options struct {
	// Destination is what the posts were aggregated for.
	Destination string
	// SpecificLocation restricts results to one city of a multi-city
	// trip. When set and nothing matches, the result is empty: a
	// wrong-city suggestion is worse than no suggestion.
	SpecificLocation string
	// AlreadyPlanned lists activity names present in the itinerary;
	// extracted activities matching any of them are dropped.
	AlreadyPlanned []string
	// MainDestination is the country-level destination used to discard
	// activities the extraction step hallucinated elsewhere.
	MainDestination string
}

// extraction pairs one source post with the activities pulled out of it.
type extraction struct {
	post       models.TravelContent
	activities []models.ExtractedActivity
}

// ExtractAndGroup extracts 1-2 activities from every post independently
// and in parallel, filters them, and groups near-duplicates across
// sources into single recommendations. Upstream extraction failures cost
// only the affected post.
func (e *Extractor) ExtractAndGroup(ctx context.Context, posts []models.TravelContent, opts Options) []models.Activity {
	extractions := e.extractAll(ctx, posts, opts.Destination)

	extractions = filterByCountry(extractions, opts.MainDestination)
	extractions = filterByCity(extractions, opts.SpecificLocation)
	extractions = dropPlanned(extractions, opts.AlreadyPlanned)

	return group(extractions)
}

func (e *Extractor) extractAll(ctx context.Context, posts []models.TravelContent, destination string) []extraction {
	results := make([]extraction, len(posts))

	var wg sync.WaitGroup
	for i, post := range posts {
		wg.Add(1)
		go func(i int, post models.TravelContent) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					logger.ErrorWithFields("activity extraction panicked", logger.Fields{
						"platform": post.Platform,
						"post_id":  post.PostID,
						"panic":    fmt.Sprint(r),
					})
				}
			}()

			results[i].post = post

			// Model-authored items already are one activity each;
			// no extraction round trip.
			if post.Platform == models.PlatformAIGuide {
				results[i].activities = []models.ExtractedActivity{activityFromAIGuide(post)}
				return
			}

			callCtx, cancel := context.WithTimeout(ctx, e.timeout)
			defer cancel()
			activities, err := e.llm.ExtractActivities(callCtx, post.Title, post.Body, post.Platform, destination)
			if err != nil {
				logger.DebugWithFields("activity extraction failed", logger.Fields{
					"platform": post.Platform,
					"post_id":  post.PostID,
					"error":    err.Error(),
				})
				return
			}
			if len(activities) > 2 {
				activities = activities[:2]
			}
			results[i].activities = activities
		}(i, post)
	}
	wg.Wait()

	// drop posts that yielded nothing
	out := results[:0]
	for _, r := range results {
		if len(r.activities) > 0 {
			out = append(out, r)
		}
	}
	return out
}

// activityFromAIGuide maps a model-as-source item 1:1 onto an activity
// using its own metadata.
func activityFromAIGuide(post models.TravelContent) models.ExtractedActivity {
	meta := post.Metadata
	get := func(key, fallback string) string {
		if meta != nil && meta[key] != "" {
			return meta[key]
		}
		return fallback
	}
	return models.ExtractedActivity{
		Name:          get("activity_name", post.Title),
		Type:          "recommendation",
		Description:   get("description", post.Summary),
		PhotoKeywords: get("photo_keywords", post.Title),
		Location:      get("location", post.Location),
		Duration:      get("duration", ""),
		BestTime:      get("best_time", ""),
		Tips:          get("tips", ""),
	}
}

// filterByCountry keeps activities whose combined text mentions at least
// one keyword of the main destination. Removes activities extracted for a
// different country entirely.
func filterByCountry(extractions []extraction, mainDestination string) []extraction {
	keywords := destinationKeywords(mainDestination)
	if len(keywords) == 0 {
		return extractions
	}

	return filterActivities(extractions, func(a models.ExtractedActivity) bool {
		haystack := strings.ToLower(a.Location + " " + a.Name + " " + a.Description)
		for _, kw := range keywords {
			if strings.Contains(haystack, kw) {
				return true
			}
		}
		return false
	})
}

// filterByCity keeps activities that mention the specific city. Zero
// matches means zero results; there is no widening back to the
// country-level set.
func filterByCity(extractions []extraction, city string) []extraction {
	city = strings.ToLower(strings.TrimSpace(city))
	if city == "" {
		return extractions
	}

	return filterActivities(extractions, func(a models.ExtractedActivity) bool {
		haystack := strings.ToLower(a.Location + " " + a.Name + " " + a.Description)
		return strings.Contains(haystack, city)
	})
}

// dropPlanned removes activities already present in the itinerary,
// matching case-insensitively on substring containment in either
// direction.
func dropPlanned(extractions []extraction, planned []string) []extraction {
	if len(planned) == 0 {
		return extractions
	}
	lowered := make([]string, 0, len(planned))
	for _, p := range planned {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			lowered = append(lowered, p)
		}
	}

	return filterActivities(extractions, func(a models.ExtractedActivity) bool {
		name := strings.ToLower(strings.TrimSpace(a.Name))
		for _, p := range lowered {
			if strings.Contains(name, p) || strings.Contains(p, name) {
				return false
			}
		}
		return true
	})
}

func filterActivities(extractions []extraction, keep func(models.ExtractedActivity) bool) []extraction {
	out := extractions[:0]
	for _, ext := range extractions {
		var kept []models.ExtractedActivity
		for _, a := range ext.activities {
			if keep(a) {
				kept = append(kept, a)
			}
		}
		if len(kept) > 0 {
			out = append(out, extraction{post: ext.post, activities: kept})
		}
	}
	return out
}

func destinationKeywords(destination string) []string {
	var out []string
	for _, w := range splitWords(destination) {
		if len(w) > 2 {
			out = append(out, strings.ToLower(w))
		}
	}
	return out
}

// activityGroup accumulates one merged recommendation. The first-seen
// activity supplies the representative name; grouping is order-sensitive
// by construction, which is accepted behavior.
type activityGroup struct {
	tokens   []string
	activity models.Activity
	allAI    bool
}

func group(extractions []extraction) []models.Activity {
	var groups []*activityGroup

	for _, ext := range extractions {
		source := sourcePostOf(ext.post)
		isAI := ext.post.Platform == models.PlatformAIGuide

		for _, a := range ext.activities {
			tokens := nameTokens(a.Name)

			var target *activityGroup
			for _, g := range groups {
				if tokenSimilarity(tokens, g.tokens) > groupSimilarityThreshold {
					target = g
					break
				}
			}

			if target == nil {
				groups = append(groups, newGroup(a, tokens, source, isAI))
				continue
			}
			target.merge(a, source, isAI)
		}
	}

	out := make([]models.Activity, 0, len(groups))
	for _, g := range groups {
		g.activity.IsAIGenerated = g.allAI
		out = append(out, g.activity)
	}
	return out
}

func newGroup(a models.ExtractedActivity, tokens []string, source models.SourcePost, isAI bool) *activityGroup {
	act := models.Activity{
		ID:              uuid.NewString(),
		Name:            a.Name,
		Type:            a.Type,
		Description:     a.Description,
		LongDescription: a.LongDescription,
		PhotoKeywords:   a.PhotoKeywords,
		Location:        a.Location,
		Duration:        a.Duration,
		BestTime:        a.BestTime,
		SourcePosts:     []models.SourcePost{source},
	}
	if tip := strings.TrimSpace(a.Tips); tip != "" {
		act.Tips = []string{tip}
	}
	return &activityGroup{tokens: tokens, activity: act, allAI: isAI}
}

// merge folds another near-duplicate into the group: longer descriptions
// win, tips union (exact duplicates skipped), sources accumulate.
func (g *activityGroup) merge(a models.ExtractedActivity, source models.SourcePost, isAI bool) {
	if len(a.Description) > len(g.activity.Description) {
		g.activity.Description = a.Description
	}
	if len(a.LongDescription) > len(g.activity.LongDescription) {
		g.activity.LongDescription = a.LongDescription
	}
	if g.activity.Location == "" {
		g.activity.Location = a.Location
	}
	if g.activity.Duration == "" {
		g.activity.Duration = a.Duration
	}
	if g.activity.BestTime == "" {
		g.activity.BestTime = a.BestTime
	}
	if tip := strings.TrimSpace(a.Tips); tip != "" {
		dup := false
		for _, existing := range g.activity.Tips {
			if existing == tip {
				dup = true
				break
			}
		}
		if !dup {
			g.activity.Tips = append(g.activity.Tips, tip)
		}
	}
	g.activity.SourcePosts = append(g.activity.SourcePosts, source)
	g.allAI = g.allAI && isAI
}

func sourcePostOf(post models.TravelContent) models.SourcePost {
	return models.SourcePost{
		Platform:   post.Platform,
		URL:        post.PostURL,
		Author:     post.Author.Name,
		Engagement: post.EngagementScore,
		Language:   post.Language,
	}
}

var nonWordRe = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)

// nameTokens normalizes an activity name to lowercase word tokens.
// Connective words under three letters ("at", "of") do not count toward
// the overlap ratio.
func nameTokens(name string) []string {
	name = strings.ToLower(name)
	name = nonWordRe.ReplaceAllString(name, "")
	var out []string
	for _, w := range strings.Fields(name) {
		if len(w) > 2 {
			out = append(out, w)
		}
	}
	return out
}

func splitWords(s string) []string {
	return strings.Fields(nonWordRe.ReplaceAllString(s, " "))
}

// tokenSimilarity is shared_words / max(word_count_a, word_count_b).
func tokenSimilarity(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(a))
	for _, w := range a {
		set[w] = struct{}{}
	}
	shared := 0
	for _, w := range b {
		if _, ok := set[w]; ok {
			shared++
		}
	}
	max := len(a)
	if len(b) > max {
		max = len(b)
	}
	return float64(shared) / float64(max)
}
