// Package stats provides a unified interface for collecting metrics.
package stats

// Metric names used throughout the library.
const (
	// Adapter metrics.
	MetricPuts           = "blobkeep_puts_total"
	MetricGets           = "blobkeep_gets_total"
	MetricGetMisses      = "blobkeep_get_misses_total"
	MetricHas            = "blobkeep_has_total"
	MetricDeletes        = "blobkeep_deletes_total"
	MetricErrors         = "blobkeep_errors_total"
	MetricListed         = "blobkeep_listed_total"
	MetricMalformedNames = "blobkeep_malformed_names_total"
	MetricGetBytes       = "blobkeep_get_bytes"
	MetricPutBytes       = "blobkeep_put_bytes"

	// Cache metrics.
	MetricCacheHits   = "blobkeep_cache_hits_total"
	MetricCacheMisses = "blobkeep_cache_misses_total"
	MetricCacheSize   = "blobkeep_cache_size"
)

// Help returns the description of a known metric, or the name itself.
func Help(name string) string {
	if h, ok := help[name]; ok {
		return h
	}
	return name
}

var help = map[string]string{
	MetricPuts:           "Objects written.",
	MetricGets:           "Objects read.",
	MetricGetMisses:      "Reads of objects that do not exist.",
	MetricHas:            "Existence probes.",
	MetricDeletes:        "Objects deleted.",
	MetricErrors:         "Failed operations.",
	MetricListed:         "Names returned by container listings.",
	MetricMalformedNames: "Listed names the sharding strategy could not decode.",
	MetricGetBytes:       "Size of objects read, in bytes.",
	MetricPutBytes:       "Size of objects written, in bytes.",
	MetricCacheHits:      "Download cache hits.",
	MetricCacheMisses:    "Download cache misses.",
	MetricCacheSize:      "Objects held in the download cache.",
}

// Collector defines the interface for collecting metrics.
type Collector interface {
	// IncCounter increments a counter metric by delta.
	IncCounter(name string, delta int64)

	// SetGauge sets a gauge metric to value.
	SetGauge(name string, value int64)

	// ObserveHistogram records a value in a histogram metric.
	ObserveHistogram(name string, value float64)
}
