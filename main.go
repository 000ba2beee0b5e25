package main

import (
	"context"
	"log"
	"os"

	"trip-letter/aggregator"
	"trip-letter/config"
	"trip-letter/db"
	"trip-letter/detailcard"
	"trip-letter/extractor"
	"trip-letter/logger"
	"trip-letter/models"
	"trip-letter/providers"
	"trip-letter/repositories"
	"trip-letter/summarizer"
)

func main() {
	config.InitApp()
	cfg := config.GetConfig()
	logger.InitFromConfig(cfg.Logging.Level)

	ctx := context.Background()
	if err := db.Init(ctx); err != nil {
		log.Fatal("failed to initialize MongoDB:", err)
	}

	apiKey := os.Getenv("GEMINI_API_KEY")
	llm, err := summarizer.NewClient(ctx, apiKey, cfg.GeminiModel, cfg.Timeouts.LLM())
	if err != nil {
		log.Fatal("failed to initialize summarizer:", err)
	}

	enabled := providers.FromConfig(cfg, llm)
	if len(enabled) == 0 {
		log.Fatal("no content providers enabled")
	}

	store := repositories.NewContentCacheRepository(db.Database())
	agg := aggregator.New(aggregator.Config{
		Providers:       enabled,
		Store:           store,
		Summarizer:      llm,
		ProviderTimeout: cfg.Timeouts.Provider(),
		RecencyWindow:   cfg.Cache.ContentRecency(),
	})
	ext := extractor.New(llm, cfg.Timeouts.LLM())
	cards := detailcard.NewBuilder(agg, llm, detailcard.NewMemoryCache(cfg.Cache.DetailCardTTL()))

	trip := models.Trip{
		ID:              "demo",
		Destination:     "Kyoto",
		MainDestination: "Japan",
	}

	opts := models.SearchOptions{
		Query:        "things to do",
		Destination:  trip.Destination,
		ActivityType: "culture",
		Language:     models.LanguageAll,
		Limit:        15,
	}

	results, err := agg.Aggregate(ctx, opts)
	if err != nil {
		log.Fatal("aggregation rejected options:", err)
	}
	logger.InfoWithFields("aggregation finished", logger.Fields{
		"destination": opts.Destination,
		"results":     len(results),
	})
	for _, r := range results {
		logger.InfoWithFields("content item", logger.Fields{
			"platform": r.Platform,
			"title":    r.Title,
			"score":    r.EngagementScore,
			"language": r.Language,
		})
	}

	activities := ext.ExtractAndGroup(ctx, results, extractor.Options{
		Destination:     trip.Destination,
		MainDestination: trip.MainDestination,
	})
	logger.InfoWithFields("activity extraction finished", logger.Fields{
		"activities": len(activities),
	})
	for _, a := range activities {
		logger.InfoWithFields("activity", logger.Fields{
			"name":         a.Name,
			"type":         a.Type,
			"sources":      len(a.SourcePosts),
			"ai_generated": a.IsAIGenerated,
		})
	}

	if len(activities) > 0 {
		card := cards.GetOrBuildCard(ctx, trip, models.TripItem{
			Title:       activities[0].Name,
			Description: activities[0].Description,
			ItemType:    "activity",
		})
		logger.InfoWithFields("detail card built", logger.Fields{
			"title":      card.Title,
			"source_tag": card.SourceTag,
			"quotes":     len(card.Quotes),
			"images":     len(card.ImageURLs),
		})
	}
}
