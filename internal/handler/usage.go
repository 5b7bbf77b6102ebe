package handler

import (
	"log"
	"net/http"
	"time"

	"contentcraft/internal/httputil"
	"contentcraft/internal/model"
	"contentcraft/internal/service"
	"contentcraft/internal/transport/http/middleware"
)

// UsageHandler exposes generation usage counters.
type UsageHandler struct {
	usageService *service.UsageService
}

// NewUsageHandler wires dependencies. usageService may be nil when Redis is
// not configured; the endpoint then reports zero usage.
func NewUsageHandler(usageService *service.UsageService) *UsageHandler {
	return &UsageHandler{usageService: usageService}
}

// Today returns the caller's generation counts for the current day
// GET /api/usage
func (h *UsageHandler) Today(w http.ResponseWriter, r *http.Request) {
	authUser, ok := middleware.GetAuthUser(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	if h.usageService == nil {
		httputil.WriteJSON(w, http.StatusOK, emptyUsage())
		return
	}

	usage, err := h.usageService.Today(r.Context(), authUser.UserID)
	if err != nil {
		log.Printf("[ERROR] Usage handler: user=%d err=%v", authUser.UserID, err)
		httputil.WriteInternalError(w, "Failed to get usage")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, usage)
}

func emptyUsage() *model.UsageResponse {
	return &model.UsageResponse{
		Date:       time.Now().UTC().Format("2006-01-02"),
		ByPlatform: map[string]int64{},
	}
}
