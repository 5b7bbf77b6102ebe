package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"contentcraft/internal/model"
)

type postRepository struct {
	db *sqlx.DB
}

func NewPostRepository(db *sqlx.DB) PostRepository {
	return &postRepository{db: db}
}

// Create inserts a new post row. Posts are immutable, so the insert carries
// everything the record will ever hold.
func (r *postRepository) Create(ctx context.Context, userID int64, platform, content string) (*model.Post, error) {
	query := `
		INSERT INTO posts (user_id, platform, content)
		VALUES ($1, $2, $3)
		RETURNING id, user_id, platform, content, created_at
	`

	var post model.Post
	err := r.db.GetContext(ctx, &post, query, userID, platform, content)
	if err != nil {
		return nil, fmt.Errorf("insert post: %w", err)
	}

	return &post, nil
}

// ListByUser returns every post owned by userID, newest first.
func (r *postRepository) ListByUser(ctx context.Context, userID int64) ([]model.Post, error) {
	query := `
		SELECT id, user_id, platform, content, created_at
		FROM posts
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`

	posts := []model.Post{}
	err := r.db.SelectContext(ctx, &posts, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	return posts, nil
}

// GetByIDs fetches specific posts owned by userID, newest first.
// Used for hydrating the post list from the Redis index.
func (r *postRepository) GetByIDs(ctx context.Context, userID int64, postIDs []int64) ([]model.Post, error) {
	if len(postIDs) == 0 {
		return []model.Post{}, nil
	}

	query := `
		SELECT id, user_id, platform, content, created_at
		FROM posts
		WHERE user_id = $1 AND id = ANY($2)
		ORDER BY created_at DESC, id DESC
	`

	posts := []model.Post{}
	err := r.db.SelectContext(ctx, &posts, query, userID, pq.Array(postIDs))
	if err != nil {
		return nil, fmt.Errorf("get posts by ids: %w", err)
	}

	return posts, nil
}

// Delete removes a post, enforcing ownership in the WHERE clause so a
// wrong-owner delete is indistinguishable from a missing post.
func (r *postRepository) Delete(ctx context.Context, postID, userID int64) error {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM posts
		WHERE id = $1 AND user_id = $2
	`, postID, userID)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrPostNotFound
	}

	return nil
}
