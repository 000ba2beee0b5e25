// Package providers implements the content source capability: one
// implementation per external platform, all sharing a uniform
// search/scoring/quality contract.
package providers

import (
	"context"

	"trip-letter/models"
)

// Provider is the capability contract of one external content source.
//
// Search never surfaces upstream errors: network failures, non-2xx
// responses and unparseable payloads are absorbed inside the provider and
// resolve to an empty (or fallback) list. Each call is stateless and
// single-shot; retries, if any, belong to the caller.
type Provider interface {
	Platform() string
	Search(ctx context.Context, opts models.SearchOptions) []models.TravelContent

	// CalculateEngagementScore normalizes the raw counters of one item
	// onto the common [0,1000] scale. Formulas are provider-specific and
	// deliberately not unified: raw magnitudes differ by orders of
	// magnitude across platforms.
	CalculateEngagementScore(c models.TravelContent) float64

	// IsHighQuality gates low-signal items out before scoring/merging.
	IsHighQuality(c models.TravelContent) bool
}

// clampScore bounds a normalized engagement score to [0,1000].
func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1000 {
		return 1000
	}
	return score
}
