package model

// UsageResponse reports generation counters for a single day.
// Counters live in Redis and are maintained asynchronously by the worker,
// so they are best-effort rather than transactional.
type UsageResponse struct {
	Date        string           `json:"date"` // YYYY-MM-DD (UTC)
	Generations int64            `json:"generations"`
	ByPlatform  map[string]int64 `json:"by_platform"`
}
