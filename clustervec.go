package clustervec

import (
	"context"
	"sync"
	"time"

	"github.com/hupe1980/clustervec/cluster"
	"github.com/hupe1980/clustervec/codec"
	"github.com/hupe1980/clustervec/index"
)

// ClusterVec is an embedded, in-memory vector store with similarity-based
// clustering. T is the metadata payload type stored alongside each vector.
//
// All methods are safe for concurrent use.
type ClusterVec[T any] struct {
	mu  sync.RWMutex
	mgr *cluster.Manager[T]

	codec       codec.Codec
	compression Compression
	metrics     MetricsCollector
	logger      *Logger
}

// New creates an empty store.
//
// The zero configuration uses cosine similarity, a cluster threshold of
// 0.85, dynamic clustering, center recalculation, and a cap of 100 clusters.
func New[T any](optFns ...Option) (*ClusterVec[T], error) {
	o := applyOptions(optFns)

	mgr, err := cluster.New[T](o.clusterConfig)
	if err != nil {
		return nil, err
	}

	return &ClusterVec[T]{
		mgr:         mgr,
		codec:       o.codec,
		compression: o.compression,
		metrics:     o.metricsCollector,
		logger:      o.logger,
	}, nil
}

// BatchItem is a single vector/metadata pair for BatchInsert.
type BatchItem[T any] struct {
	Vector   []float32
	Metadata T
}

// SearchResult is a single search hit.
type SearchResult[T any] struct {
	ID       uint64    `json:"id"`
	Vector   []float32 `json:"vector"`
	Metadata T         `json:"metadata"`
	Score    float32   `json:"score"`
}

// ClusterInfo is a read-only view of a cluster.
type ClusterInfo struct {
	ID        uint64    `json:"id"`
	Center    []float32 `json:"center"`
	Radius    float32   `json:"radius"`
	Size      int       `json:"size"`
	MemberIDs []uint64  `json:"member_ids"`
}

func clusterInfo(c *cluster.Cluster) ClusterInfo {
	return ClusterInfo{
		ID:        c.ID(),
		Center:    c.Center(),
		Radius:    c.Radius(),
		Size:      c.Size(),
		MemberIDs: c.MemberIDs(),
	}
}

// Insert stores a vector with its metadata and returns the assigned ID.
//
// The vector joins the most similar cluster, or spawns a new one when no
// cluster center meets the threshold and dynamic clustering is enabled. If
// the cluster cap would be exceeded the insert fails with
// *ErrMaxClustersExceeded and nothing is stored.
func (cv *ClusterVec[T]) Insert(ctx context.Context, vector []float32, metadata T) (uint64, error) {
	start := time.Now()

	cv.mu.Lock()
	id, err := cv.mgr.Insert(vector, metadata)
	var clusterID uint64
	if err == nil {
		clusterID, _ = cv.mgr.ClusterOf(id)
	}
	cv.mu.Unlock()

	err = translateError(err)
	cv.metrics.RecordInsert(time.Since(start), err)
	cv.logger.LogInsert(ctx, id, clusterID, err)

	return id, err
}

// BatchInsert stores multiple vectors in one locked pass. Items are inserted
// in order; the first failure aborts the batch and the IDs of the items
// inserted so far are returned alongside the error.
func (cv *ClusterVec[T]) BatchInsert(ctx context.Context, items []BatchItem[T]) ([]uint64, error) {
	start := time.Now()

	ids := make([]uint64, 0, len(items))

	cv.mu.Lock()
	var err error
	for _, item := range items {
		var id uint64
		if id, err = cv.mgr.Insert(item.Vector, item.Metadata); err != nil {
			break
		}
		ids = append(ids, id)
	}
	cv.mu.Unlock()

	err = translateError(err)
	failed := len(items) - len(ids)
	cv.metrics.RecordBatchInsert(len(items), failed, time.Since(start))
	cv.logger.LogBatchInsert(ctx, len(items), failed)

	return ids, err
}

// SearchOption configures a single search.
type SearchOption func(*cluster.SearchParams)

// WithLimit sets the maximum number of results. Defaults to 10.
func WithLimit(limit int) SearchOption {
	return func(p *cluster.SearchParams) {
		p.Limit = limit
	}
}

// WithMinSimilarity drops results scoring below the given similarity. In the
// default cluster-pruned mode it also skips clusters whose center scores
// below it.
func WithMinSimilarity(min float32) SearchOption {
	return func(p *cluster.SearchParams) {
		p.MinSimilarity = min
	}
}

// WithSearchAllClusters scans every stored vector instead of pruning by
// cluster. Slower, but exact with respect to the similarity function.
func WithSearchAllClusters(all bool) SearchOption {
	return func(p *cluster.SearchParams) {
		p.SearchAllClusters = all
	}
}

// WithFilter restricts results to entries the given function accepts.
func WithFilter(filter func(id uint64) bool) SearchOption {
	return func(p *cluster.SearchParams) {
		p.Filter = filter
	}
}

// Search returns the stored vectors most similar to the query, best first.
//
// The default mode prunes the scan to the clusters whose centers are most
// similar to the query and may miss entries that an exhaustive scan would
// find; use WithSearchAllClusters(true) for exact results.
func (cv *ClusterVec[T]) Search(ctx context.Context, query []float32, optFns ...SearchOption) ([]SearchResult[T], error) {
	start := time.Now()

	var p cluster.SearchParams
	for _, fn := range optFns {
		if fn != nil {
			fn(&p)
		}
	}

	cv.mu.RLock()
	hits, err := cv.mgr.Search(query, p)
	cv.mu.RUnlock()

	err = translateError(err)
	cv.metrics.RecordSearch(p.Limit, time.Since(start), err)
	cv.logger.LogSearch(ctx, p.Limit, len(hits), err)

	if err != nil {
		return nil, err
	}

	results := make([]SearchResult[T], len(hits))
	for i, h := range hits {
		results[i] = SearchResult[T]{
			ID:       h.Entry.ID,
			Vector:   h.Entry.Vector,
			Metadata: h.Entry.Metadata,
			Score:    h.Score,
		}
	}

	return results, nil
}

// AddCluster explicitly creates a new cluster seeded with the given vector
// and returns the new cluster's info and the entry ID of the seed vector.
func (cv *ClusterVec[T]) AddCluster(ctx context.Context, vector []float32, metadata T) (ClusterInfo, uint64, error) {
	cv.mu.Lock()
	c, entryID, err := cv.mgr.AddCluster(vector, metadata)
	var info ClusterInfo
	if err == nil {
		info = clusterInfo(c)
	}
	cv.mu.Unlock()

	err = translateError(err)
	cv.logger.LogInsert(ctx, entryID, info.ID, err)

	return info, entryID, err
}

// GetClusters returns a view of all clusters.
func (cv *ClusterVec[T]) GetClusters(ctx context.Context) []ClusterInfo {
	cv.mu.RLock()
	defer cv.mu.RUnlock()

	clusters := cv.mgr.Clusters()
	infos := make([]ClusterInfo, len(clusters))
	for i, c := range clusters {
		infos[i] = clusterInfo(c)
	}
	return infos
}

// GetClusterByID returns a view of the cluster with the given ID.
// Returns *ErrClusterNotFound if the cluster does not exist.
func (cv *ClusterVec[T]) GetClusterByID(ctx context.Context, id uint64) (ClusterInfo, error) {
	cv.mu.RLock()
	defer cv.mu.RUnlock()

	c, ok := cv.mgr.Cluster(id)
	if !ok {
		return ClusterInfo{}, &ErrClusterNotFound{ID: id}
	}
	return clusterInfo(c), nil
}

// GetVectorByID returns the stored entry with the given ID.
// Returns ErrNotFound if no such entry exists.
func (cv *ClusterVec[T]) GetVectorByID(ctx context.Context, id uint64) (index.Entry[T], error) {
	cv.mu.RLock()
	defer cv.mu.RUnlock()

	e, ok := cv.mgr.Entry(id)
	if !ok {
		return index.Entry[T]{}, ErrNotFound
	}
	return e, nil
}

// GetAllVectors returns all stored entries ordered by ID.
func (cv *ClusterVec[T]) GetAllVectors(ctx context.Context) []index.Entry[T] {
	cv.mu.RLock()
	defer cv.mu.RUnlock()

	return cv.mgr.Entries()
}

// RemoveVector deletes the entry with the given ID. Removing an unknown ID
// is not an error; the bool reports whether an entry was removed. A cluster
// left empty by the removal is deleted.
func (cv *ClusterVec[T]) RemoveVector(ctx context.Context, id uint64) (bool, error) {
	start := time.Now()

	cv.mu.Lock()
	_, found, err := cv.mgr.Remove(id)
	cv.mu.Unlock()

	err = translateError(err)
	cv.metrics.RecordRemove(time.Since(start), err)
	cv.logger.LogRemove(ctx, id, found, err)

	return found, err
}

// UpdateMetadata replaces the metadata of the entry with the given ID.
// The vector and cluster assignment are unchanged.
// Returns ErrNotFound if no such entry exists.
func (cv *ClusterVec[T]) UpdateMetadata(ctx context.Context, id uint64, metadata T) error {
	start := time.Now()

	cv.mu.Lock()
	ok := cv.mgr.UpdateMetadata(id, metadata)
	cv.mu.Unlock()

	var err error
	if !ok {
		err = ErrNotFound
	}
	cv.metrics.RecordUpdate(time.Since(start), err)
	cv.logger.LogUpdate(ctx, id, err)

	return err
}

// MergeClusters moves every member of cluster b into cluster a, deletes b,
// and returns the surviving cluster's ID.
func (cv *ClusterVec[T]) MergeClusters(ctx context.Context, a, b uint64) (uint64, error) {
	start := time.Now()

	cv.mu.Lock()
	id, err := cv.mgr.Merge(a, b)
	cv.mu.Unlock()

	err = translateError(err)
	cv.metrics.RecordMerge(time.Since(start), err)
	cv.logger.LogMerge(ctx, a, b, err)

	return id, err
}

// SplitCluster divides a cluster into two around its farthest pair of
// members and returns the two new cluster IDs. The original cluster ID is
// retired. Splitting requires at least two members.
func (cv *ClusterVec[T]) SplitCluster(ctx context.Context, id uint64) (uint64, uint64, error) {
	start := time.Now()

	cv.mu.Lock()
	left, right, err := cv.mgr.Split(id)
	cv.mu.Unlock()

	err = translateError(err)
	cv.metrics.RecordSplit(time.Since(start), err)
	cv.logger.LogSplit(ctx, id, left, right, err)

	return left, right, err
}

// Stats returns counts and cluster size distribution.
func (cv *ClusterVec[T]) Stats(ctx context.Context) cluster.Stats {
	cv.mu.RLock()
	defer cv.mu.RUnlock()

	return cv.mgr.Stats()
}

// Len returns the number of stored vectors.
func (cv *ClusterVec[T]) Len() int {
	cv.mu.RLock()
	defer cv.mu.RUnlock()

	return cv.mgr.Len()
}

// Dimensions returns the established vector dimensionality, or 0 while the
// store is empty.
func (cv *ClusterVec[T]) Dimensions() int {
	cv.mu.RLock()
	defer cv.mu.RUnlock()

	return cv.mgr.Dimensions()
}
