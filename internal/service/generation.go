package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"contentcraft/internal/ai"
	"contentcraft/internal/model"
	"contentcraft/internal/queue"
	"contentcraft/internal/repository"
)

// chatClient abstracts the AI client so tests can swap in a stub.
type chatClient interface {
	Configured() bool
	CreateChatCompletion(ctx context.Context, req ai.ChatCompletionRequest) (ai.ChatCompletionResponse, error)
}

// GenerationService produces platform-tailored post drafts from a single
// prompt, personalized with the caller's stored profile. It persists nothing;
// the caller decides which drafts to save as posts.
type GenerationService struct {
	userRepo  repository.UserRepository
	client    chatClient
	model     string
	timeout   time.Duration
	publisher queue.Publisher // optional; nil disables usage events
}

// NewGenerationService wires the generation dependencies. timeout bounds each
// individual model call; expiry is treated as a per-platform failure.
func NewGenerationService(
	userRepo repository.UserRepository,
	client chatClient,
	modelName string,
	timeout time.Duration,
	publisher queue.Publisher,
) *GenerationService {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &GenerationService{
		userRepo:  userRepo,
		client:    client,
		model:     modelName,
		timeout:   timeout,
		publisher: publisher,
	}
}

// Generate runs one model call per requested platform and returns a map with
// exactly one entry per platform: the generated text, or model.FailureMarker
// when that platform's call failed. Validation and the profile lookup happen
// before any model call.
func (s *GenerationService) Generate(ctx context.Context, userID int64, req model.GenerateRequest) (map[string]string, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, model.ErrEmptyPrompt
	}
	// Duplicates collapse to a single entry; blank entries are dropped
	platforms := dedupePlatforms(req.Platforms)
	if len(platforms) == 0 {
		return nil, model.ErrNoPlatforms
	}
	if !s.client.Configured() {
		return nil, model.ErrMissingAPIKey
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	// One goroutine per platform. Each call gets its own timeout context
	// derived from Background so a failure or expiry in one call cannot
	// cancel or affect siblings.
	results := make(map[string]string, len(platforms))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, platform := range platforms {
		wg.Add(1)
		go func(platform string) {
			defer wg.Done()

			text, err := s.generateForPlatform(user, req.Prompt, platform)
			if err != nil {
				log.Printf("[Generation] platform=%s user=%d failed: %v", platform, userID, err)
				text = model.FailureMarker
			}

			mu.Lock()
			results[platform] = text
			mu.Unlock()
		}(platform)
	}
	wg.Wait()

	s.publishUsage(userID, platforms, results)

	return results, nil
}

// generateForPlatform runs a single model call with a bounded timeout.
func (s *GenerationService) generateForPlatform(user *model.User, prompt, platform string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	resp, err := s.client.CreateChatCompletion(ctx, ai.ChatCompletionRequest{
		Model:       s.model,
		Temperature: 0.7,
		MaxTokens:   1024,
		Messages: []ai.ChatMessage{
			{
				Role:    ai.RoleSystem,
				Content: "You are an expert social media content creator. Write posts that sound authentically human, never like AI output.",
			},
			{
				Role:    ai.RoleUser,
				Content: buildPlatformPrompt(user, prompt, platform),
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion: empty response")
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("chat completion: blank content")
	}
	return text, nil
}

// publishUsage emits a best-effort generation_done event counting only the
// platforms that produced real output. Failures are logged, never surfaced.
func (s *GenerationService) publishUsage(userID int64, platforms []string, results map[string]string) {
	if s.publisher == nil {
		return
	}

	succeeded := make([]string, 0, len(platforms))
	for _, p := range platforms {
		if results[p] != model.FailureMarker {
			succeeded = append(succeeded, p)
		}
	}
	if len(succeeded) == 0 {
		return
	}

	event := queue.NewGenerationDoneEvent(userID, succeeded)
	if _, err := s.publisher.Publish(context.Background(), queue.StreamContent, event); err != nil {
		log.Printf("[Generation] Failed to publish GenerationDone event: user=%d err=%v", userID, err)
	}
}

// buildPlatformPrompt embeds the raw prompt, the target platform, and the
// profile fields (with defaults for anything missing) into one instruction.
// These are prompt requirements for the model, not validation rules: the
// service never checks the output against them.
func buildPlatformPrompt(user *model.User, prompt, platform string) string {
	industry := profileValue(user.Industry, model.DefaultProfileField)
	niche := profileValue(user.Niche, model.DefaultProfileField)
	company := profileValue(user.Company, model.DefaultProfileField)
	role := profileValue(user.Role, model.DefaultProfileField)
	audience := profileValue(user.Audience, model.DefaultAudience)
	voice := profileValue(user.Bio, model.DefaultBrandVoice)

	keywords := model.DefaultTopics
	if user.Keywords != nil && strings.TrimSpace(*user.Keywords) != "" {
		keywords = *user.Keywords
	}
	interests := model.DefaultTopics
	if len(user.Interests) > 0 {
		interests = strings.Join(user.Interests, ", ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Create a %s post based on this request: %s\n\n", platformLabel(platform), prompt)
	b.WriteString("About the author:\n")
	fmt.Fprintf(&b, "- Company: %s\n", company)
	fmt.Fprintf(&b, "- Role: %s\n", role)
	fmt.Fprintf(&b, "- Industry: %s\n", industry)
	fmt.Fprintf(&b, "- Niche: %s\n", niche)
	fmt.Fprintf(&b, "- Target audience: %s\n", audience)
	fmt.Fprintf(&b, "- Brand voice: %s\n", voice)
	fmt.Fprintf(&b, "- Keywords to use naturally: %s\n", keywords)
	fmt.Fprintf(&b, "- Topics of interest: %s\n\n", interests)
	b.WriteString("Requirements:\n")
	fmt.Fprintf(&b, "- Match the tone and length conventions of %s\n", platformLabel(platform))
	b.WriteString("- Write in an authentic human voice\n")
	b.WriteString("- Include effective hashtags where they fit the platform\n")
	b.WriteString("- Format for readability with paragraph and line breaks\n")
	b.WriteString("- No markdown or emphasis markup of any kind\n")
	b.WriteString("- Use emoji sparingly and only where natural\n")
	b.WriteString("- A call-to-action is optional; include one only if it feels organic\n")
	b.WriteString("- Be concise; calibrate humor to the brand voice\n")
	b.WriteString("- Return only the post text, nothing else\n")
	return b.String()
}

// platformLabel renders a human description of the target platform. Platform
// is an open string, so anything unrecognized gets a generic rendering.
func platformLabel(platform string) string {
	switch strings.ToLower(platform) {
	case model.PlatformTwitter:
		return "Twitter/X (short, punchy, under 280 characters)"
	case model.PlatformFacebook:
		return "Facebook (conversational, community-oriented)"
	case model.PlatformInstagram:
		return "Instagram (visual-first caption with hashtags)"
	case model.PlatformLinkedIn:
		return "LinkedIn (professional, insight-driven)"
	default:
		return fmt.Sprintf("%s (a social media platform)", platform)
	}
}

func profileValue(v *string, fallback string) string {
	if v != nil && strings.TrimSpace(*v) != "" {
		return *v
	}
	return fallback
}

// dedupePlatforms removes duplicates while preserving first-seen order.
func dedupePlatforms(platforms []string) []string {
	seen := make(map[string]struct{}, len(platforms))
	out := make([]string, 0, len(platforms))
	for _, p := range platforms {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
