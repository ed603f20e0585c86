// Package metrics exposes the Prometheus registry shared by the collector.
// Metrics are defined in their own packages (client, cache, ratelimit,
// partition) and registered via promauto.
//
// The collector runs as a one-shot job, so there is no scrape endpoint.
// WriteTextfile dumps the registry in the node_exporter textfile format.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registerer.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Gatherer is what WriteTextfile exports.
var Gatherer prometheus.Gatherer = prometheus.DefaultGatherer

// WriteTextfile writes every registered metric to path. The parent directory
// is created if needed.
func WriteTextfile(path string) error {
	return writeTextfile(path, Gatherer)
}

func writeTextfile(path string, g prometheus.Gatherer) error {
	if path == "" {
		return fmt.Errorf("metrics file path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// Metrics Documentation
//
// Fetch Metrics (pkg/client):
//   - holdings_fetch_requests_total{status} (Counter): Requests by HTTP status or "network_error"
//   - holdings_fetch_duration_seconds (Histogram): Request duration
//   - holdings_fetch_errors_total{class} (Counter): Days without data by error class (client, server, network, parse)
//   - holdings_records_parsed_total (Counter): Holding records parsed
//
// Retry Metrics (pkg/client):
//   - holdings_fetch_retries_total{error_class} (Counter): Retry attempts by error class
//   - holdings_fetch_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - holdings_fetch_retry_exhausted_total{error_class} (Counter): Fetches that exhausted max attempts
//
// Cache Metrics (pkg/cache):
//   - holdings_cache_hits_total (Counter): Responses served from the cache
//   - holdings_cache_misses_total (Counter): Lookups without a fresh entry
//   - holdings_cache_bytes_total{direction} (Counter): Bytes read from and written to Redis
//   - holdings_cache_errors_total{operation} (Counter): Cache operation errors (get, set, delete, purge)
//
// Pacing Metrics (pkg/ratelimit):
//   - holdings_pacing_waits_total (Counter): Pauses inserted between requests
//   - holdings_pacing_wait_seconds_total (Counter): Total time spent pausing
//
// Partition Metrics (pkg/partition):
//   - holdings_partition_saves_total{result} (Counter): Saves by result (ok, error)
//   - holdings_partition_rows{month} (Gauge): Rows in a partition after its last save
//
// Example Prometheus Queries:
//
//   # Days lost to errors in the last run
//   sum by (class) (holdings_fetch_errors_total)
//
//   # Cache Hit Rate
//   holdings_cache_hits_total /
//   (holdings_cache_hits_total + holdings_cache_misses_total)
//
//   # Failed saves
//   holdings_partition_saves_total{result="error"} > 0
