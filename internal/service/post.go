package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"contentcraft/internal/cache"
	"contentcraft/internal/model"
	"contentcraft/internal/queue"
	"contentcraft/internal/repository"
)

// PostService handles saving, listing, and deleting content drafts.
// Postgres is the source of truth; the Redis post index only accelerates
// the list path and is maintained asynchronously by the worker.
type PostService struct {
	postRepo  repository.PostRepository
	postIndex cache.PostIndex // optional; nil disables the cache path
	publisher queue.Publisher // optional; nil disables events
}

func NewPostService(
	postRepo repository.PostRepository,
	postIndex cache.PostIndex,
	publisher queue.Publisher,
) *PostService {
	return &PostService{
		postRepo:  postRepo,
		postIndex: postIndex,
		publisher: publisher,
	}
}

// Create saves a new post for the authenticated owner. Creation is not
// idempotent: duplicate submissions create duplicate rows.
func (s *PostService) Create(ctx context.Context, userID int64, req model.CreatePostRequest) (*model.Post, error) {
	if strings.TrimSpace(req.Platform) == "" {
		return nil, model.ErrMissingPlatform
	}
	if strings.TrimSpace(req.Content) == "" {
		return nil, model.ErrMissingContent
	}

	post, err := s.postRepo.Create(ctx, userID, req.Platform, req.Content)
	if err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}

	// Best-effort event for async index maintenance; the post is already
	// durable, so a publish failure only delays the cache.
	if s.publisher != nil {
		event := queue.NewPostSavedEvent(post.ID, userID)
		if _, err := s.publisher.Publish(ctx, queue.StreamContent, event); err != nil {
			log.Printf("[PostService] Failed to publish PostSaved event: post=%d err=%v", post.ID, err)
		}
	}

	return post, nil
}

// List returns all posts owned by the caller, newest first. When the Redis
// index has an entry it drives the read; a miss falls through to Postgres
// and warms the index.
func (s *PostService) List(ctx context.Context, userID int64) ([]model.Post, error) {
	if s.postIndex != nil {
		posts, ok := s.listFromIndex(ctx, userID)
		if ok {
			return posts, nil
		}
	}

	posts, err := s.postRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	s.warmIndex(ctx, userID, posts)

	return posts, nil
}

// Delete permanently removes a post owned by the caller. Missing and
// wrong-owner are both model.ErrPostNotFound so existence of other users'
// posts never leaks.
func (s *PostService) Delete(ctx context.Context, postID, userID int64) error {
	if err := s.postRepo.Delete(ctx, postID, userID); err != nil {
		return err
	}

	if s.publisher != nil {
		event := queue.NewPostDeletedEvent(postID, userID)
		if _, err := s.publisher.Publish(ctx, queue.StreamContent, event); err != nil {
			log.Printf("[PostService] Failed to publish PostDeleted event: post=%d err=%v", postID, err)
		}
	}

	return nil
}

// listFromIndex serves the list from the Redis index when it exists.
// Any cache error degrades silently to the database path.
func (s *PostService) listFromIndex(ctx context.Context, userID int64) ([]model.Post, bool) {
	exists, err := s.postIndex.Exists(ctx, userID)
	if err != nil || !exists {
		if err != nil {
			log.Printf("[PostService] Post index check failed: user=%d err=%v", userID, err)
		}
		return nil, false
	}

	ids, err := s.postIndex.List(ctx, userID)
	if err != nil {
		log.Printf("[PostService] Post index read failed: user=%d err=%v", userID, err)
		return nil, false
	}

	// A full index may have trimmed older posts, and hydration cannot tell
	// because it only fetches the IDs the index still holds. Treat it as a
	// miss so the database serves the complete list.
	if len(ids) >= cache.PostIndexCap {
		return nil, false
	}

	posts, err := s.postRepo.GetByIDs(ctx, userID, ids)
	if err != nil {
		log.Printf("[PostService] Post hydration failed: user=%d err=%v", userID, err)
		return nil, false
	}

	// A count mismatch means the index has drifted (e.g. stale IDs after a
	// missed event). Drop it and let the database path rebuild.
	if len(posts) != len(ids) {
		if err := s.postIndex.Invalidate(ctx, userID); err != nil {
			log.Printf("[PostService] Post index invalidation failed: user=%d err=%v", userID, err)
		}
		return nil, false
	}

	return posts, true
}

// warmIndex loads the index from database rows, best effort.
func (s *PostService) warmIndex(ctx context.Context, userID int64, posts []model.Post) {
	if s.postIndex == nil || len(posts) == 0 {
		return
	}

	scores := make([]cache.PostScore, len(posts))
	for i, p := range posts {
		scores[i] = cache.PostScore{
			PostID:    p.ID,
			Timestamp: p.CreatedAt.Unix(),
		}
	}

	if err := s.postIndex.Warm(ctx, userID, scores); err != nil {
		log.Printf("[PostService] Post index warm failed: user=%d err=%v", userID, err)
	}
}
