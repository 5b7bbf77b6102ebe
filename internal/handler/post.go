package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"contentcraft/internal/httputil"
	"contentcraft/internal/model"
	"contentcraft/internal/service"
	"contentcraft/internal/transport/http/middleware"
)

// PostHandler exposes saved-post CRUD endpoints.
type PostHandler struct {
	postService *service.PostService
}

func NewPostHandler(postService *service.PostService) *PostHandler {
	return &PostHandler{postService: postService}
}

// Create saves a generated draft for the caller
// POST /api/posts
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	authUser, ok := middleware.GetAuthUser(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	var req model.CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	post, err := h.postService.Create(r.Context(), authUser.UserID, req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrMissingPlatform):
			httputil.WriteBadRequest(w, "Platform is required")
		case errors.Is(err, model.ErrMissingContent):
			httputil.WriteBadRequest(w, "Content is required")
		default:
			log.Printf("[ERROR] Create post handler: user=%d err=%v", authUser.UserID, err)
			httputil.WriteInternalError(w, "Failed to save post")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, model.PostResponse{Post: post})
}

// List returns the caller's saved posts, newest first
// GET /api/posts
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	authUser, ok := middleware.GetAuthUser(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	posts, err := h.postService.List(r.Context(), authUser.UserID)
	if err != nil {
		log.Printf("[ERROR] List posts handler: user=%d err=%v", authUser.UserID, err)
		httputil.WriteInternalError(w, "Failed to list posts")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, model.PostListResponse{Posts: posts})
}

// Delete removes one of the caller's posts
// DELETE /api/posts?id=
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	authUser, ok := middleware.GetAuthUser(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	rawID := r.URL.Query().Get("id")
	if rawID == "" {
		httputil.WriteBadRequest(w, "Post ID is required")
		return
	}

	postID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || postID <= 0 {
		httputil.WriteBadRequest(w, "Invalid post ID")
		return
	}

	if err := h.postService.Delete(r.Context(), postID, authUser.UserID); err != nil {
		if errors.Is(err, model.ErrPostNotFound) {
			httputil.WriteNotFound(w, "Post not found")
			return
		}
		log.Printf("[ERROR] Delete post handler: user=%d post=%d err=%v", authUser.UserID, postID, err)
		httputil.WriteInternalError(w, "Failed to delete post")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}
