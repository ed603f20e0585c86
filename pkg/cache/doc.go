// Package cache stores raw fund assets responses in Redis.
//
// A holdings snapshot for a past date does not change once published, so a
// cached body lets repeated collection runs over the same range skip the
// network. Entries are keyed by fund and date and expire after the TTL set
// when the entry is created.
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//
//	manager := cache.NewManager(redisClient)
//
//	key := cache.CacheKey{FundID: "00980A", Date: "2025-08-04"}
//
//	entry, err := manager.Get(ctx, key)
//	if err == cache.ErrCacheMiss {
//		// fetch from the API, then:
//		_ = manager.Set(ctx, key, cache.NewEntry(body, len(records), 24*time.Hour))
//	}
//
// # Metrics
//
//   - holdings_cache_hits_total - Responses served from the cache
//   - holdings_cache_misses_total - Lookups without a fresh entry
//   - holdings_cache_bytes_total{direction} - Bytes read from and written to Redis
//   - holdings_cache_errors_total{operation} - Cache operation errors
package cache
