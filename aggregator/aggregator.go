// Package aggregator orchestrates concurrent provider queries, merges
// them with the persistent content cache, enhances, scores, persists and
// ranks the results.
package aggregator

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"

	"trip-letter/logger"
	"trip-letter/models"
	"trip-letter/providers"
	"trip-letter/repositories"
)

// ContentStore is the persistent content cache as the aggregator sees it;
// satisfied by *repositories.ContentCacheRepository.
type ContentStore interface {
	FindByDestination(ctx context.Context, opt repositories.FindByDestinationOptions) ([]models.CachedContent, error)
	Upsert(ctx context.Context, c *models.CachedContent) (*mongo.UpdateResult, error)
	IncrementUsage(ctx context.Context, platform, postID string) error
}

// TextSummarizer is the summarization capability used for content
// enhancement; satisfied by *summarizer.Client.
type TextSummarizer interface {
	SummarizeText(ctx context.Context, title, body, sourceLanguage string) (string, error)
}

// summaryBatchSize bounds concurrent summarization calls; batches run
// sequentially to stay under upstream rate limits.
const summaryBatchSize = 5

// fallbackSummaryRunes is how much of the raw body stands in for a
// summary when enhancement fails.
const fallbackSummaryRunes = 200

const defaultLimit = 20

// Config wires an Aggregator explicitly: the enabled provider set, the
// persistent cache, the summarization capability and the call bounds.
// Built once at process start; no package-level registry.
type Config struct {
	Providers       []providers.Provider
	Store           ContentStore
	Summarizer      TextSummarizer
	ProviderTimeout time.Duration
	RecencyWindow   time.Duration
}

type Aggregator struct {
	providers       []providers.Provider
	byPlatform      map[string]providers.Provider
	store           ContentStore
	summarizer      TextSummarizer
	providerTimeout time.Duration
	recencyWindow   time.Duration
}

func New(cfg Config) *Aggregator {
	byPlatform := make(map[string]providers.Provider, len(cfg.Providers))
	for _, p := range cfg.Providers {
		byPlatform[p.Platform()] = p
	}
	providerTimeout := cfg.ProviderTimeout
	if providerTimeout <= 0 {
		providerTimeout = 20 * time.Second
	}
	recencyWindow := cfg.RecencyWindow
	if recencyWindow <= 0 {
		recencyWindow = 30 * 24 * time.Hour
	}
	return &Aggregator{
		providers:       cfg.Providers,
		byPlatform:      byPlatform,
		store:           cfg.Store,
		summarizer:      cfg.Summarizer,
		providerTimeout: providerTimeout,
		recencyWindow:   recencyWindow,
	}
}

// Aggregate runs one content search. It never fails for upstream reasons;
// the only way it returns fewer items than requested is genuine scarcity
// after all fallbacks. The returned error covers caller-input problems
// only.
func (a *Aggregator) Aggregate(ctx context.Context, opts models.SearchOptions) ([]models.TravelContent, error) {
	if opts.Destination == "" {
		return nil, fmt.Errorf("aggregate: destination is required")
	}
	if opts.Limit <= 0 {
		opts.Limit = defaultLimit
	}

	// 1. Cache-first. A full cache hit is a hard short-circuit: no
	// provider is touched.
	cached := a.lookupCache(ctx, opts)
	if len(cached) >= opts.Limit {
		a.recordCacheHits(ctx, cached)
		return contentsOf(cached[:opts.Limit]), nil
	}

	// 2. Fan out to every admitted provider; each branch settles
	// independently, failures collapse to empty contributions.
	merged := a.fanOut(ctx, opts)

	// 3. Nothing live: fall back to whatever the cache had, even under
	// the requested limit.
	if len(merged) == 0 {
		a.recordCacheHits(ctx, cached)
		return contentsOf(cached), nil
	}

	// 4. Enhancement: summarize items that arrived without a summary.
	a.enhance(ctx, merged)

	// 5-6. Score via each item's owning provider, then rank. Stable sort
	// keeps merge order as the tie break.
	for i := range merged {
		if p, ok := a.byPlatform[merged[i].Platform]; ok {
			merged[i].EngagementScore = p.CalculateEngagementScore(merged[i])
		}
	}
	if opts.MinEngagement > 0 {
		kept := merged[:0]
		for _, c := range merged {
			if c.EngagementScore >= opts.MinEngagement {
				kept = append(kept, c)
			}
		}
		merged = kept
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].EngagementScore > merged[j].EngagementScore
	})

	// 7. Persist best-effort: one failed write must not abort the rest
	// nor the call.
	a.persist(ctx, merged, opts.Destination)

	// 8. Language filter.
	if opts.Language != "" && opts.Language != models.LanguageAll {
		kept := merged[:0]
		for _, c := range merged {
			if c.Language == opts.Language {
				kept = append(kept, c)
			}
		}
		merged = kept
	}

	// 9. Truncate.
	if len(merged) > opts.Limit {
		merged = merged[:opts.Limit]
	}
	return merged, nil
}

func (a *Aggregator) lookupCache(ctx context.Context, opts models.SearchOptions) []models.CachedContent {
	if a.store == nil {
		return nil
	}
	cached, err := a.store.FindByDestination(ctx, repositories.FindByDestinationOptions{
		Destination:   opts.Destination,
		Language:      opts.Language,
		Platforms:     opts.Platforms,
		Limit:         opts.Limit,
		RecencyWindow: a.recencyWindow,
	})
	if err != nil {
		logger.WarnWithFields("content cache lookup failed", logger.Fields{
			"destination": opts.Destination,
			"error":       err.Error(),
		})
		return nil
	}
	return cached
}

func (a *Aggregator) recordCacheHits(ctx context.Context, cached []models.CachedContent) {
	for _, c := range cached {
		if err := a.store.IncrementUsage(ctx, c.Content.Platform, c.Content.PostID); err != nil {
			logger.DebugWithFields("usage increment failed", logger.Fields{
				"platform": c.Content.Platform,
				"post_id":  c.Content.PostID,
				"error":    err.Error(),
			})
		}
	}
}

// fanOut queries every admitted provider concurrently and merges the
// settled results in provider order, deduplicating on (platform, post_id)
// and dropping items the owning provider gates out.
func (a *Aggregator) fanOut(ctx context.Context, opts models.SearchOptions) []models.TravelContent {
	type slot struct {
		items []models.TravelContent
	}

	admitted := make([]providers.Provider, 0, len(a.providers))
	for _, p := range a.providers {
		if opts.WantsPlatform(p.Platform()) {
			admitted = append(admitted, p)
		}
	}

	slots := make([]slot, len(admitted))
	var wg sync.WaitGroup
	for i, p := range admitted {
		wg.Add(1)
		go func(i int, p providers.Provider) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					logger.ErrorWithFields("provider panicked", logger.Fields{
						"platform": p.Platform(),
						"panic":    fmt.Sprint(r),
					})
				}
			}()
			callCtx, cancel := context.WithTimeout(ctx, a.providerTimeout)
			defer cancel()
			slots[i].items = p.Search(callCtx, opts)
		}(i, p)
	}
	wg.Wait()

	seen := make(map[string]struct{})
	var merged []models.TravelContent
	for i, s := range slots {
		p := admitted[i]
		for _, item := range s.items {
			key := item.Platform + "\x00" + item.PostID
			if _, dup := seen[key]; dup {
				continue
			}
			if !p.IsHighQuality(item) {
				continue
			}
			seen[key] = struct{}{}
			merged = append(merged, item)
		}
	}
	return merged
}

// enhance fills missing summaries in fixed-size batches; a failed call
// degrades the one item to a truncated body, never the whole aggregation.
func (a *Aggregator) enhance(ctx context.Context, items []models.TravelContent) {
	if a.summarizer == nil {
		for i := range items {
			if items[i].Summary == "" {
				items[i].Summary = truncateRunes(items[i].Body, fallbackSummaryRunes)
			}
		}
		return
	}

	var pending []int
	for i := range items {
		if items[i].Summary == "" {
			pending = append(pending, i)
		}
	}

	for start := 0; start < len(pending); start += summaryBatchSize {
		end := start + summaryBatchSize
		if end > len(pending) {
			end = len(pending)
		}

		g, gctx := errgroup.WithContext(ctx)
		for _, idx := range pending[start:end] {
			g.Go(func() error {
				item := &items[idx]
				summary, err := a.summarizer.SummarizeText(gctx, item.Title, item.Body, item.Language)
				if err != nil {
					logger.DebugWithFields("summary enhancement failed, truncating body", logger.Fields{
						"platform": item.Platform,
						"post_id":  item.PostID,
						"error":    err.Error(),
					})
					item.Summary = truncateRunes(item.Body, fallbackSummaryRunes)
					return nil
				}
				item.Summary = summary
				return nil
			})
		}
		// workers never return an error; Wait just joins the batch
		_ = g.Wait()
	}
}

func (a *Aggregator) persist(ctx context.Context, items []models.TravelContent, destination string) {
	if a.store == nil {
		return
	}
	for _, item := range items {
		if _, err := a.store.Upsert(ctx, &models.CachedContent{
			Content:     item,
			Destination: destination,
			FetchedAt:   time.Now(),
		}); err != nil {
			logger.WarnWithFields("content cache upsert failed", logger.Fields{
				"platform": item.Platform,
				"post_id":  item.PostID,
				"error":    err.Error(),
			})
		}
	}
}

func contentsOf(cached []models.CachedContent) []models.TravelContent {
	out := make([]models.TravelContent, 0, len(cached))
	for _, c := range cached {
		out = append(out, c.Content)
	}
	return out
}

func truncateRunes(s string, max int) string {
	rs := []rune(s)
	if len(rs) <= max {
		return s
	}
	return string(rs[:max])
}
