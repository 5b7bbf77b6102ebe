package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"contentcraft/internal/model"
)

// UsageKeyPrefix is the key prefix for daily generation counters.
// Full key: usage:gen:<userID>:<YYYY-MM-DD>, a hash of platform -> count.
const UsageKeyPrefix = "usage:gen:"

// UsageService reads the per-user generation counters the worker maintains.
type UsageService struct {
	client *redis.Client
}

func NewUsageService(client *redis.Client) *UsageService {
	return &UsageService{client: client}
}

// UsageKey builds the Redis key for a user's counters on a given day.
func UsageKey(userID int64, day time.Time) string {
	return fmt.Sprintf("%s%d:%s", UsageKeyPrefix, userID, day.UTC().Format("2006-01-02"))
}

// Today returns the caller's generation counters for the current UTC day.
// Counters are best effort: a missing key simply means zero.
func (s *UsageService) Today(ctx context.Context, userID int64) (*model.UsageResponse, error) {
	now := time.Now().UTC()

	fields, err := s.client.HGetAll(ctx, UsageKey(userID, now)).Result()
	if err != nil {
		return nil, fmt.Errorf("read usage counters: %w", err)
	}

	resp := &model.UsageResponse{
		Date:       now.Format("2006-01-02"),
		ByPlatform: make(map[string]int64, len(fields)),
	}
	for platform, raw := range fields {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		resp.ByPlatform[platform] = n
		resp.Generations += n
	}

	return resp, nil
}
