package providers

import (
	"trip-letter/config"
)

// FromConfig builds the enabled provider set from configuration flags.
// The result is constructed once at process start and handed to the
// aggregator explicitly; there is no package-level registry.
func FromConfig(cfg config.AppConfig, llm SuggestionSource) []Provider {
	var out []Provider

	if cfg.Providers.Voyagegram.Enabled {
		out = append(out, NewVoyagegram(cfg.Providers.Voyagegram.BaseURL, cfg.Providers.Voyagegram.RenderJS))
	}
	if cfg.Providers.Wayfarer.Enabled {
		out = append(out, NewWayfarer(cfg.Providers.Wayfarer.BaseURL))
	}
	if cfg.Providers.AIGuide.Enabled && llm != nil {
		out = append(out, NewAIGuide(llm))
	}
	if cfg.Providers.TravelBlog.Enabled && len(cfg.Blogs) > 0 {
		feeds := make([]BlogFeed, 0, len(cfg.Blogs))
		for _, b := range cfg.Blogs {
			feeds = append(feeds, BlogFeed{Name: b.Name, URL: b.URL, RSSURL: b.RSSURL})
		}
		out = append(out, NewTravelBlog(feeds))
	}

	return out
}
