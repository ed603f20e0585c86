package cache

import (
	"strings"
)

// KeyPrefix namespaces every key written by this package.
const KeyPrefix = "holdings"

// CacheKey identifies one fund's response for one date.
type CacheKey struct {
	// FundID is the fund identifier sent to the API (e.g., "00980A")
	FundID string

	// Date is the requested date in YYYY-MM-DD form
	Date string
}

// String generates a deterministic cache key string.
// Format: holdings:<fund>:<date>
//
// Example:
//
//	holdings:00980A:2025-08-04
func (k CacheKey) String() string {
	parts := []string{KeyPrefix}
	if fund := strings.TrimSpace(k.FundID); fund != "" {
		parts = append(parts, fund)
	}
	if date := strings.TrimSpace(k.Date); date != "" {
		parts = append(parts, date)
	}
	return strings.Join(parts, ":")
}
