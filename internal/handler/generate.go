package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"contentcraft/internal/httputil"
	"contentcraft/internal/model"
	"contentcraft/internal/service"
	"contentcraft/internal/transport/http/middleware"
)

// GenerateHandler exposes the content generation endpoint.
type GenerateHandler struct {
	generationService *service.GenerationService
}

func NewGenerateHandler(generationService *service.GenerationService) *GenerateHandler {
	return &GenerateHandler{generationService: generationService}
}

// Generate produces platform-tailored drafts for the caller's prompt
// POST /api/ai
func (h *GenerateHandler) Generate(w http.ResponseWriter, r *http.Request) {
	authUser, ok := middleware.GetAuthUser(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	var req model.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	generated, err := h.generationService.Generate(r.Context(), authUser.UserID, req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrEmptyPrompt):
			httputil.WriteBadRequest(w, "Prompt is required")
		case errors.Is(err, model.ErrNoPlatforms):
			httputil.WriteBadRequest(w, "At least one platform is required")
		case errors.Is(err, model.ErrMissingAPIKey):
			log.Printf("[ERROR] Generate handler: user=%d missing API key", authUser.UserID)
			httputil.WriteInternalError(w, "Content generation is not configured")
		case errors.Is(err, model.ErrUserNotFound):
			httputil.WriteNotFound(w, "User profile not found")
		default:
			log.Printf("[ERROR] Generate handler: user=%d err=%v", authUser.UserID, err)
			httputil.WriteInternalError(w, "Failed to generate content")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, model.GenerateResponse{GeneratedPosts: generated})
}
