package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types for the content stream
const (
	EventPostSaved      = "post_saved"
	EventPostDeleted    = "post_deleted"
	EventGenerationDone = "generation_done"
)

// Stream names
const (
	StreamContent = "stream:content"
)

// Consumer group name for content workers
const (
	ConsumerGroupContent = "content_workers"
)

// ContentEvent is published to the content stream whenever a post is saved or
// deleted, or a generation batch finishes. Workers consume it to keep the
// Redis post index and the usage counters up to date.
type ContentEvent struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"` // Unix timestamp when event occurred

	// Post events (PostSaved, PostDeleted)
	PostID  int64 `json:"post_id,omitempty"`
	OwnerID int64 `json:"owner_id,omitempty"`

	// Generation event (GenerationDone): which platforms produced output.
	// Failed platforms are not counted.
	Platforms []string `json:"platforms,omitempty"`
}

// NewPostSavedEvent creates an event for a freshly saved post.
// The worker adds the post to the owner's index.
func NewPostSavedEvent(postID, ownerID int64) ContentEvent {
	return ContentEvent{
		Type:      EventPostSaved,
		Timestamp: time.Now().Unix(),
		PostID:    postID,
		OwnerID:   ownerID,
	}
}

// NewPostDeletedEvent creates an event for a deleted post.
// The worker removes the post from the owner's index.
func NewPostDeletedEvent(postID, ownerID int64) ContentEvent {
	return ContentEvent{
		Type:      EventPostDeleted,
		Timestamp: time.Now().Unix(),
		PostID:    postID,
		OwnerID:   ownerID,
	}
}

// NewGenerationDoneEvent creates an event for a completed generation batch.
// The worker bumps the owner's daily usage counters.
func NewGenerationDoneEvent(ownerID int64, platforms []string) ContentEvent {
	return ContentEvent{
		Type:      EventGenerationDone,
		Timestamp: time.Now().Unix(),
		OwnerID:   ownerID,
		Platforms: platforms,
	}
}

// ToMap converts the event to a map for Redis XADD.
// Redis Streams store field-value pairs, so the event is serialized to JSON
// in a "data" field.
func (e ContentEvent) ToMap() (map[string]interface{}, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return map[string]interface{}{
		"type": e.Type,
		"data": string(data),
	}, nil
}

// ParseContentEvent parses a ContentEvent from Redis stream message values.
func ParseContentEvent(values map[string]interface{}) (ContentEvent, error) {
	data, ok := values["data"].(string)
	if !ok {
		return ContentEvent{}, fmt.Errorf("missing or invalid 'data' field")
	}

	var event ContentEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return ContentEvent{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return event, nil
}
