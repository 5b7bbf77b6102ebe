package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"contentcraft/internal/cache"
	"contentcraft/internal/queue"
	"contentcraft/internal/service"
)

// UsageCounterTTL bounds how long daily counters are kept.
const UsageCounterTTL = 45 * 24 * time.Hour

// Handler processes content events from the queue: it keeps each user's
// Redis post index in sync with saved/deleted posts and maintains the daily
// generation counters.
type Handler struct {
	postIndex cache.PostIndex
	redis     *goredis.Client
}

// NewHandler creates a new event handler.
func NewHandler(postIndex cache.PostIndex, redisClient *goredis.Client) *Handler {
	return &Handler{
		postIndex: postIndex,
		redis:     redisClient,
	}
}

// HandleEvent routes an event to the appropriate handler based on type.
func (h *Handler) HandleEvent(ctx context.Context, event queue.ContentEvent) error {
	var err error

	switch event.Type {
	case queue.EventPostSaved:
		err = h.handlePostSaved(ctx, event)
	case queue.EventPostDeleted:
		err = h.handlePostDeleted(ctx, event)
	case queue.EventGenerationDone:
		err = h.handleGenerationDone(ctx, event)
	default:
		log.Printf("[Worker] Unknown event type: %s", event.Type)
		return fmt.Errorf("unknown event type: %s", event.Type)
	}

	if err != nil {
		log.Printf("[Worker] HandleEvent FAILED: type=%s err=%v", event.Type, err)
		return err
	}
	return nil
}

// handlePostSaved adds the new post to its owner's index. If the owner has
// no index yet it stays absent; the next list request warms it from Postgres
// with the post already included.
func (h *Handler) handlePostSaved(ctx context.Context, event queue.ContentEvent) error {
	exists, err := h.postIndex.Exists(ctx, event.OwnerID)
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	if !exists {
		return nil
	}

	if err := h.postIndex.Add(ctx, event.OwnerID, event.PostID, event.Timestamp); err != nil {
		return fmt.Errorf("add to index: %w", err)
	}

	log.Printf("[Worker] PostSaved indexed: post=%d owner=%d", event.PostID, event.OwnerID)
	return nil
}

// handlePostDeleted removes the post from its owner's index.
func (h *Handler) handlePostDeleted(ctx context.Context, event queue.ContentEvent) error {
	if err := h.postIndex.Remove(ctx, event.OwnerID, event.PostID); err != nil {
		return fmt.Errorf("remove from index: %w", err)
	}

	log.Printf("[Worker] PostDeleted unindexed: post=%d owner=%d", event.PostID, event.OwnerID)
	return nil
}

// handleGenerationDone bumps the owner's daily counters, one field per
// platform that produced output.
func (h *Handler) handleGenerationDone(ctx context.Context, event queue.ContentEvent) error {
	if len(event.Platforms) == 0 {
		return nil
	}

	day := time.Unix(event.Timestamp, 0).UTC()
	key := service.UsageKey(event.OwnerID, day)

	pipe := h.redis.Pipeline()
	for _, platform := range event.Platforms {
		pipe.HIncrBy(ctx, key, platform, 1)
	}
	pipe.Expire(ctx, key, UsageCounterTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("increment usage counters: %w", err)
	}

	log.Printf("[Worker] GenerationDone counted: owner=%d platforms=%d", event.OwnerID, len(event.Platforms))
	return nil
}
