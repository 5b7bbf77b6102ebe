package model

import "errors"

// FailureMarker is the fixed string placed in the result map for a platform
// whose model call failed. Per-platform failures never abort the batch.
const FailureMarker = "Unable to generate content for this platform. Please try again."

// Defaults substituted for missing profile fields when building the
// generation prompt. Missing fields never fail a request.
const (
	DefaultProfileField = "Not specified"
	DefaultAudience     = "General audience"
	DefaultBrandVoice   = "Professional and engaging"
	DefaultTopics       = "general topics"
)

// GenerateRequest is the request body for POST /api/ai.
type GenerateRequest struct {
	Prompt    string   `json:"prompt"`
	Platforms []string `json:"socialMediaPlatforms"`
}

// GenerateResponse maps each requested platform to generated text or the
// failure marker. Every requested platform has exactly one entry.
type GenerateResponse struct {
	GeneratedPosts map[string]string `json:"generatedPosts"`
}

// Generation errors
var (
	ErrEmptyPrompt   = errors.New("prompt is required")
	ErrNoPlatforms   = errors.New("at least one platform is required")
	ErrMissingAPIKey = errors.New("generation API key is not configured")
)
