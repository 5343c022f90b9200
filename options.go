package clustervec

import (
	"log/slog"

	"github.com/hupe1980/clustervec/cluster"
	"github.com/hupe1980/clustervec/codec"
	"github.com/hupe1980/clustervec/metric"
)

type options struct {
	clusterConfig    cluster.Config
	similaritySet    bool
	codec            codec.Codec
	compression      Compression
	metricsCollector MetricsCollector
	logger           *Logger
}

// Option configures constructor/load behavior.
type Option func(*options)

// WithSimilarity configures the similarity function used for cluster
// assignment, radii, and search scoring.
//
// Snapshots record the metric family only, not the function itself. A store
// built with a custom similarity must be given the same function via this
// option when restored from a snapshot.
func WithSimilarity(s metric.Similarity) Option {
	return func(o *options) {
		o.clusterConfig.Similarity = s
		o.similaritySet = true
	}
}

// WithClusterThreshold configures the minimum center similarity for an
// insert to join an existing cluster.
func WithClusterThreshold(threshold float32) Option {
	return func(o *options) {
		o.clusterConfig.ClusterThreshold = threshold
	}
}

// WithDynamicClustering enables or disables spawning new clusters for
// vectors below the threshold. When disabled, every insert joins the most
// similar existing cluster regardless of the threshold.
func WithDynamicClustering(enabled bool) Option {
	return func(o *options) {
		o.clusterConfig.DynamicClustering = enabled
	}
}

// WithRecalculateCenters enables or disables recomputing cluster centers
// after membership changes. Radii are maintained either way.
func WithRecalculateCenters(enabled bool) Option {
	return func(o *options) {
		o.clusterConfig.RecalculateCenters = enabled
	}
}

// WithMaxClusters caps the number of clusters.
func WithMaxClusters(max int) Option {
	return func(o *options) {
		o.clusterConfig.MaxClusters = max
	}
}

// WithCodec configures the codec used for snapshot payloads.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithCompression configures the compression applied to snapshot payloads.
// Snapshots are self-describing, so a store restored from a snapshot keeps
// writing with whatever compression is configured here, independent of what
// the snapshot was written with.
func WithCompression(c Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &clustervec.BasicMetricsCollector{}
//	cv, _ := clustervec.New[string](clustervec.WithMetricsCollector(metrics))
//	// ... use cv ...
//	stats := metrics.GetStats()
//	fmt.Printf("Inserts: %d, Avg latency: %dns\n", stats.InsertCount, stats.InsertAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := clustervec.NewJSONLogger(slog.LevelInfo)
//	cv, _ := clustervec.New[string](clustervec.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		clusterConfig:    cluster.DefaultConfig(),
		codec:            codec.Default,
		compression:      CompressionNone,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
