package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"contentcraft/internal/httputil"
	"contentcraft/internal/model"
	"contentcraft/internal/service"
	"contentcraft/internal/transport/http/middleware"
)

// ProfileHandler exposes brand profile endpoints.
type ProfileHandler struct {
	userService  *service.UserService
	mediaService *service.MediaService
}

// NewProfileHandler wires dependencies. mediaService may be nil when avatar
// storage is not configured; the avatar endpoint then reports 500.
func NewProfileHandler(userService *service.UserService, mediaService *service.MediaService) *ProfileHandler {
	return &ProfileHandler{
		userService:  userService,
		mediaService: mediaService,
	}
}

// Get returns the caller's brand profile
// GET /api/profile
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	authUser, ok := middleware.GetAuthUser(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	user, err := h.userService.GetByID(r.Context(), authUser.UserID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteNotFound(w, "User not found")
			return
		}
		log.Printf("[ERROR] Get profile handler: user=%d err=%v", authUser.UserID, err)
		httputil.WriteInternalError(w, "Failed to get profile")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, user)
}

// Update applies partial edits to the caller's brand profile
// PUT /api/profile
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	authUser, ok := middleware.GetAuthUser(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	var req model.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	user, err := h.userService.UpdateProfile(r.Context(), authUser.UserID, &req)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteNotFound(w, "User not found")
			return
		}
		log.Printf("[ERROR] Update profile handler: user=%d err=%v", authUser.UserID, err)
		httputil.WriteInternalError(w, "Failed to update profile")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, user)
}

// UpdateAvatar uploads a new avatar image and stores its location
// PUT /api/profile/avatar
func (h *ProfileHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	authUser, ok := middleware.GetAuthUser(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	if h.mediaService == nil {
		httputil.WriteInternalError(w, "Avatar storage is not configured")
		return
	}

	if err := r.ParseMultipartForm(model.MaxAvatarSizeBytes); err != nil {
		httputil.WriteBadRequest(w, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		httputil.WriteBadRequest(w, "Avatar file is required")
		return
	}
	defer file.Close()

	result, err := h.mediaService.UploadAvatar(r.Context(), file, header)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrFileTooLarge):
			httputil.WriteBadRequest(w, "Avatar file is too large")
		case errors.Is(err, model.ErrInvalidImageType):
			httputil.WriteBadRequest(w, "Avatar must be a JPEG, PNG, GIF or WebP image")
		default:
			log.Printf("[ERROR] Avatar upload: user=%d err=%v", authUser.UserID, err)
			httputil.WriteInternalError(w, "Failed to upload avatar")
		}
		return
	}

	oldKey, err := h.userService.UpdateAvatar(r.Context(), authUser.UserID, result.URL, result.Key)
	if err != nil {
		// Don't leave the uploaded object orphaned
		if delErr := h.mediaService.DeleteObject(r.Context(), result.Key); delErr != nil {
			log.Printf("[WARN] Avatar cleanup after failed update: key=%s err=%v", result.Key, delErr)
		}
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteNotFound(w, "User not found")
			return
		}
		log.Printf("[ERROR] Avatar update: user=%d err=%v", authUser.UserID, err)
		httputil.WriteInternalError(w, "Failed to update avatar")
		return
	}

	if oldKey != "" && oldKey != result.Key {
		go func(key string) {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := h.mediaService.DeleteObject(ctx, key); err != nil {
				log.Printf("[WARN] Failed to delete old avatar: key=%s err=%v", key, err)
			}
		}(oldKey)
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{"avatar_url": result.URL})
}
