package repositories

import (
	"context"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"trip-letter/models"
)

type ContentCacheRepository struct {
	col *mongo.Collection
}

func NewContentCacheRepository(db *mongo.Database) *ContentCacheRepository {
	return &ContentCacheRepository{col: db.Collection("content_cache")}
}

// Upsert stores a content snapshot uniquely identified by
// (platform, post_id). Writes are idempotent; concurrent writers converge
// with last-writer-wins on the mutable fields.
func (r *ContentCacheRepository) Upsert(ctx context.Context, c *models.CachedContent) (*mongo.UpdateResult, error) {
	now := time.Now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	if c.FetchedAt.IsZero() {
		c.FetchedAt = now
	}
	c.UpdatedAt = now

	filter := bson.M{
		"content.platform": c.Content.Platform,
		"content.post_id":  c.Content.PostID,
	}
	update := bson.M{
		"$setOnInsert": bson.M{
			"created_at":  c.CreatedAt,
			"usage_count": int64(0),
		},
		"$set": bson.M{
			"updated_at":  c.UpdatedAt,
			"content":     c.Content,
			"destination": c.Destination,
			"fetched_at":  c.FetchedAt,
		},
	}
	opts := options.Update().SetUpsert(true)
	return r.col.UpdateOne(ctx, filter, update, opts)
}

// FindByDestinationOptions narrows a cache lookup.
type FindByDestinationOptions struct {
	Destination string
	// Language filters on an exact language code; empty or "all" disables.
	Language string
	// Platforms is the provider allow-list; empty admits every platform.
	Platforms []string
	Limit     int
	// RecencyWindow excludes entries fetched before now-window.
	RecencyWindow time.Duration
}

// FindByDestination returns cached entries whose destination contains the
// requested destination (case-insensitive), within the recency window,
// ordered by usage count then engagement score, both descending.
func (r *ContentCacheRepository) FindByDestination(ctx context.Context, opt FindByDestinationOptions) ([]models.CachedContent, error) {
	filter := bson.M{
		"destination": primitive.Regex{Pattern: regexp.QuoteMeta(opt.Destination), Options: "i"},
	}
	if opt.RecencyWindow > 0 {
		filter["fetched_at"] = bson.M{"$gte": time.Now().Add(-opt.RecencyWindow)}
	}
	if opt.Language != "" && opt.Language != models.LanguageAll {
		filter["content.language"] = opt.Language
	}
	if len(opt.Platforms) > 0 {
		filter["content.platform"] = bson.M{"$in": opt.Platforms}
	}

	findOpts := options.Find().
		SetSort(bson.D{
			{Key: "usage_count", Value: -1},
			{Key: "content.engagement_score", Value: -1},
		})
	if opt.Limit > 0 {
		findOpts = findOpts.SetLimit(int64(opt.Limit))
	}

	cur, err := r.col.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.CachedContent
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// IncrementUsage bumps the usage counter of one cached entry atomically.
func (r *ContentCacheRepository) IncrementUsage(ctx context.Context, platform, postID string) error {
	_, err := r.col.UpdateOne(ctx,
		bson.M{"content.platform": platform, "content.post_id": postID},
		bson.M{
			"$inc": bson.M{"usage_count": int64(1)},
			"$set": bson.M{"updated_at": time.Now()},
		},
	)
	return err
}

// FindByKey returns one cached entry by its (platform, post_id) identity.
func (r *ContentCacheRepository) FindByKey(ctx context.Context, platform, postID string) (*models.CachedContent, error) {
	var c models.CachedContent
	if err := r.col.FindOne(ctx, bson.M{
		"content.platform": platform,
		"content.post_id":  postID,
	}).Decode(&c); err != nil {
		return nil, err
	}
	return &c, nil
}
