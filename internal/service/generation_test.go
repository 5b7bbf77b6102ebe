package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"contentcraft/internal/ai"
	"contentcraft/internal/model"
	"contentcraft/internal/queue"
)

// =============================================================================
// STUBS
// =============================================================================

// stubChatClient implements chatClient. The default behavior echoes the
// target platform so tests can verify which platform each call was for, since
// the user message always starts with "Create a <platform label> post".
type stubChatClient struct {
	configured bool
	completeFn func(ctx context.Context, req ai.ChatCompletionRequest) (ai.ChatCompletionResponse, error)

	mu    sync.Mutex
	calls []ai.ChatCompletionRequest
}

func (s *stubChatClient) Configured() bool { return s.configured }

func (s *stubChatClient) CreateChatCompletion(ctx context.Context, req ai.ChatCompletionRequest) (ai.ChatCompletionResponse, error) {
	s.mu.Lock()
	s.calls = append(s.calls, req)
	s.mu.Unlock()

	if s.completeFn != nil {
		return s.completeFn(ctx, req)
	}
	return textResponse("generated text"), nil
}

func (s *stubChatClient) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func textResponse(text string) ai.ChatCompletionResponse {
	return ai.ChatCompletionResponse{
		Choices: []ai.ChatCompletionChoice{
			{Message: ai.ChatMessage{Role: "assistant", Content: text}},
		},
	}
}

// userPrompt extracts the user-role message from a request.
func userPrompt(req ai.ChatCompletionRequest) string {
	for _, m := range req.Messages {
		if m.Role == ai.RoleUser {
			return m.Content
		}
	}
	return ""
}

type publishedEvent struct {
	stream string
	event  queue.ContentEvent
}

type mockPublisher struct {
	mu         sync.Mutex
	events     []publishedEvent
	publishErr error
}

func (m *mockPublisher) Publish(ctx context.Context, stream string, event queue.ContentEvent) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, publishedEvent{stream: stream, event: event})
	if m.publishErr != nil {
		return "", m.publishErr
	}
	return fmt.Sprintf("%d-0", len(m.events)), nil
}

func (m *mockPublisher) published() []publishedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]publishedEvent, len(m.events))
	copy(out, m.events)
	return out
}

func setupUser() *mockUserRepository {
	industry := "Developer tools"
	return &mockUserRepository{
		getByIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			return &model.User{ID: id, Name: "Test User", Industry: &industry, SetupCompleted: true}, nil
		},
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

func TestGenerationService_Generate_Validation(t *testing.T) {
	tests := []struct {
		name    string
		req     model.GenerateRequest
		wantErr error
	}{
		{
			name:    "empty prompt",
			req:     model.GenerateRequest{Prompt: "", Platforms: []string{"twitter"}},
			wantErr: model.ErrEmptyPrompt,
		},
		{
			name:    "whitespace prompt",
			req:     model.GenerateRequest{Prompt: "   \n\t", Platforms: []string{"twitter"}},
			wantErr: model.ErrEmptyPrompt,
		},
		{
			name:    "no platforms",
			req:     model.GenerateRequest{Prompt: "launch announcement", Platforms: nil},
			wantErr: model.ErrNoPlatforms,
		},
		{
			name:    "all platforms blank",
			req:     model.GenerateRequest{Prompt: "launch announcement", Platforms: []string{"", "  ", "\t"}},
			wantErr: model.ErrNoPlatforms,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &stubChatClient{configured: true}
			repo := setupUser()
			svc := NewGenerationService(repo, client, "test-model", time.Second, nil)

			_, err := svc.Generate(context.Background(), 1, tt.req)

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			// Invalid requests must never reach the model
			if client.callCount() != 0 {
				t.Errorf("model called %d times, want 0", client.callCount())
			}
			// Nor the profile lookup
			if len(repo.getByIDCalls) != 0 {
				t.Errorf("profile looked up %d times, want 0", len(repo.getByIDCalls))
			}
		})
	}
}

func TestGenerationService_Generate_MissingAPIKey(t *testing.T) {
	client := &stubChatClient{configured: false}
	svc := NewGenerationService(setupUser(), client, "test-model", time.Second, nil)

	_, err := svc.Generate(context.Background(), 1, model.GenerateRequest{
		Prompt:    "launch announcement",
		Platforms: []string{"twitter", "linkedin"},
	})

	if !errors.Is(err, model.ErrMissingAPIKey) {
		t.Fatalf("error = %v, want %v", err, model.ErrMissingAPIKey)
	}
	if client.callCount() != 0 {
		t.Errorf("model called %d times, want 0", client.callCount())
	}
}

func TestGenerationService_Generate_ProfileNotFound(t *testing.T) {
	client := &stubChatClient{configured: true}
	repo := &mockUserRepository{
		getByIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			return nil, model.ErrUserNotFound
		},
	}
	svc := NewGenerationService(repo, client, "test-model", time.Second, nil)

	_, err := svc.Generate(context.Background(), 42, model.GenerateRequest{
		Prompt:    "launch announcement",
		Platforms: []string{"twitter"},
	})

	if !errors.Is(err, model.ErrUserNotFound) {
		t.Fatalf("error = %v, want %v", err, model.ErrUserNotFound)
	}
	if client.callCount() != 0 {
		t.Errorf("model called %d times, want 0", client.callCount())
	}
}

// =============================================================================
// FAN-OUT AND RESULT SHAPE
// =============================================================================

func TestGenerationService_Generate_OneEntryPerPlatform(t *testing.T) {
	client := &stubChatClient{
		configured: true,
		completeFn: func(ctx context.Context, req ai.ChatCompletionRequest) (ai.ChatCompletionResponse, error) {
			return textResponse("post for: " + userPrompt(req)), nil
		},
	}
	svc := NewGenerationService(setupUser(), client, "test-model", time.Second, nil)

	platforms := []string{"twitter", "facebook", "instagram", "linkedin"}
	results, err := svc.Generate(context.Background(), 1, model.GenerateRequest{
		Prompt:    "launch announcement",
		Platforms: platforms,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(results) != len(platforms) {
		t.Fatalf("got %d results, want %d", len(results), len(platforms))
	}
	for _, p := range platforms {
		text, ok := results[p]
		if !ok {
			t.Errorf("missing result for platform %q", p)
			continue
		}
		if text == model.FailureMarker {
			t.Errorf("platform %q unexpectedly failed", p)
		}
	}
	if client.callCount() != len(platforms) {
		t.Errorf("model called %d times, want %d", client.callCount(), len(platforms))
	}
}

func TestGenerationService_Generate_DeduplicatesPlatforms(t *testing.T) {
	client := &stubChatClient{configured: true}
	svc := NewGenerationService(setupUser(), client, "test-model", time.Second, nil)

	results, err := svc.Generate(context.Background(), 1, model.GenerateRequest{
		Prompt:    "launch announcement",
		Platforms: []string{"twitter", " twitter ", "", "linkedin", "twitter"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("got %d results, want 2 (twitter, linkedin)", len(results))
	}
	if _, ok := results["twitter"]; !ok {
		t.Error("missing result for twitter")
	}
	if _, ok := results["linkedin"]; !ok {
		t.Error("missing result for linkedin")
	}
	// One model call per unique platform
	if client.callCount() != 2 {
		t.Errorf("model called %d times, want 2", client.callCount())
	}
}

func TestGenerationService_Generate_FailureIsolation(t *testing.T) {
	// twitter fails, the others succeed
	client := &stubChatClient{
		configured: true,
		completeFn: func(ctx context.Context, req ai.ChatCompletionRequest) (ai.ChatCompletionResponse, error) {
			if strings.Contains(userPrompt(req), "Twitter") {
				return ai.ChatCompletionResponse{}, errors.New("rate limited")
			}
			return textResponse("fine"), nil
		},
	}
	svc := NewGenerationService(setupUser(), client, "test-model", time.Second, nil)

	results, err := svc.Generate(context.Background(), 1, model.GenerateRequest{
		Prompt:    "launch announcement",
		Platforms: []string{"twitter", "facebook", "linkedin"},
	})
	if err != nil {
		t.Fatalf("one platform failing must not fail the batch: %v", err)
	}

	if results["twitter"] != model.FailureMarker {
		t.Errorf("twitter = %q, want failure marker", results["twitter"])
	}
	if results["facebook"] != "fine" || results["linkedin"] != "fine" {
		t.Errorf("surviving platforms affected: %v", results)
	}
}

func TestGenerationService_Generate_AllPlatformsFail(t *testing.T) {
	client := &stubChatClient{
		configured: true,
		completeFn: func(ctx context.Context, req ai.ChatCompletionRequest) (ai.ChatCompletionResponse, error) {
			return ai.ChatCompletionResponse{}, errors.New("upstream down")
		},
	}
	svc := NewGenerationService(setupUser(), client, "test-model", time.Second, nil)

	results, err := svc.Generate(context.Background(), 1, model.GenerateRequest{
		Prompt:    "launch announcement",
		Platforms: []string{"twitter", "facebook"},
	})
	// Total failure is still a success response: every entry carries the marker
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for p, text := range results {
		if text != model.FailureMarker {
			t.Errorf("platform %q = %q, want failure marker", p, text)
		}
	}
}

func TestGenerationService_Generate_EmptyCompletionIsFailure(t *testing.T) {
	tests := []struct {
		name string
		resp ai.ChatCompletionResponse
	}{
		{"no choices", ai.ChatCompletionResponse{}},
		{"blank content", textResponse("   ")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &stubChatClient{
				configured: true,
				completeFn: func(ctx context.Context, req ai.ChatCompletionRequest) (ai.ChatCompletionResponse, error) {
					return tt.resp, nil
				},
			}
			svc := NewGenerationService(setupUser(), client, "test-model", time.Second, nil)

			results, err := svc.Generate(context.Background(), 1, model.GenerateRequest{
				Prompt:    "launch announcement",
				Platforms: []string{"twitter"},
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if results["twitter"] != model.FailureMarker {
				t.Errorf("result = %q, want failure marker", results["twitter"])
			}
		})
	}
}

func TestGenerationService_Generate_UnknownPlatform(t *testing.T) {
	client := &stubChatClient{configured: true}
	svc := NewGenerationService(setupUser(), client, "test-model", time.Second, nil)

	results, err := svc.Generate(context.Background(), 1, model.GenerateRequest{
		Prompt:    "launch announcement",
		Platforms: []string{"mastodon"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := results["mastodon"]; !ok {
		t.Error("unknown platforms should still get a result entry")
	}
}

// =============================================================================
// PROMPT PERSONALIZATION
// =============================================================================

func TestGenerationService_Generate_PromptIncludesProfile(t *testing.T) {
	industry := "Fintech"
	audience := "Startup founders"
	client := &stubChatClient{configured: true}
	repo := &mockUserRepository{
		getByIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			return &model.User{
				ID:        id,
				Industry:  &industry,
				Audience:  &audience,
				Interests: []string{"payments", "compliance"},
			}, nil
		},
	}
	svc := NewGenerationService(repo, client, "test-model", time.Second, nil)

	_, err := svc.Generate(context.Background(), 1, model.GenerateRequest{
		Prompt:    "why reconciliation matters",
		Platforms: []string{"linkedin"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	prompt := userPrompt(client.calls[0])
	for _, want := range []string{"why reconciliation matters", "Fintech", "Startup founders", "payments, compliance"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestGenerationService_Generate_PromptDefaultsForEmptyProfile(t *testing.T) {
	client := &stubChatClient{configured: true}
	repo := &mockUserRepository{
		getByIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			return &model.User{ID: id}, nil
		},
	}
	svc := NewGenerationService(repo, client, "test-model", time.Second, nil)

	_, err := svc.Generate(context.Background(), 1, model.GenerateRequest{
		Prompt:    "hello world",
		Platforms: []string{"twitter"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	prompt := userPrompt(client.calls[0])
	for _, want := range []string{
		model.DefaultProfileField,
		model.DefaultAudience,
		model.DefaultBrandVoice,
		model.DefaultTopics,
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing default %q", want)
		}
	}
}

// =============================================================================
// USAGE EVENTS
// =============================================================================

func TestGenerationService_Generate_PublishesUsageForSuccesses(t *testing.T) {
	client := &stubChatClient{
		configured: true,
		completeFn: func(ctx context.Context, req ai.ChatCompletionRequest) (ai.ChatCompletionResponse, error) {
			if strings.Contains(userPrompt(req), "Facebook") {
				return ai.ChatCompletionResponse{}, errors.New("boom")
			}
			return textResponse("ok"), nil
		},
	}
	pub := &mockPublisher{}
	svc := NewGenerationService(setupUser(), client, "test-model", time.Second, pub)

	_, err := svc.Generate(context.Background(), 7, model.GenerateRequest{
		Prompt:    "launch announcement",
		Platforms: []string{"twitter", "facebook"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	events := pub.published()
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	ev := events[0]
	if ev.stream != queue.StreamContent {
		t.Errorf("stream = %q, want %q", ev.stream, queue.StreamContent)
	}
	if ev.event.Type != queue.EventGenerationDone {
		t.Errorf("event type = %q, want %q", ev.event.Type, queue.EventGenerationDone)
	}
	if ev.event.OwnerID != 7 {
		t.Errorf("owner = %d, want 7", ev.event.OwnerID)
	}
	// Failed platforms are not counted
	if len(ev.event.Platforms) != 1 || ev.event.Platforms[0] != "twitter" {
		t.Errorf("platforms = %v, want [twitter]", ev.event.Platforms)
	}
}

func TestGenerationService_Generate_NoUsageEventWhenAllFail(t *testing.T) {
	client := &stubChatClient{
		configured: true,
		completeFn: func(ctx context.Context, req ai.ChatCompletionRequest) (ai.ChatCompletionResponse, error) {
			return ai.ChatCompletionResponse{}, errors.New("boom")
		},
	}
	pub := &mockPublisher{}
	svc := NewGenerationService(setupUser(), client, "test-model", time.Second, pub)

	if _, err := svc.Generate(context.Background(), 1, model.GenerateRequest{
		Prompt:    "launch announcement",
		Platforms: []string{"twitter"},
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := len(pub.published()); got != 0 {
		t.Errorf("got %d events, want 0", got)
	}
}

func TestGenerationService_Generate_PublishErrorIsSwallowed(t *testing.T) {
	client := &stubChatClient{configured: true}
	pub := &mockPublisher{publishErr: errors.New("redis down")}
	svc := NewGenerationService(setupUser(), client, "test-model", time.Second, pub)

	results, err := svc.Generate(context.Background(), 1, model.GenerateRequest{
		Prompt:    "launch announcement",
		Platforms: []string{"twitter"},
	})
	if err != nil {
		t.Fatalf("publish failure must not surface: %v", err)
	}
	if results["twitter"] != "generated text" {
		t.Errorf("result = %q, want generated text", results["twitter"])
	}
}
