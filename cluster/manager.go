package cluster

import (
	"fmt"

	"github.com/hupe1980/clustervec/index"
	"github.com/hupe1980/clustervec/internal/math32"
	"github.com/hupe1980/clustervec/metric"
)

// Config holds the clustering policy.
type Config struct {
	// Similarity scores vectors against each other and against cluster
	// centers. Its Kind drives radius distance computation.
	Similarity metric.Similarity

	// ClusterThreshold is the minimum center similarity for an insert to
	// join an existing cluster when dynamic clustering is enabled.
	ClusterThreshold float32

	// DynamicClustering spawns a new cluster when no center meets the
	// threshold. When disabled, inserts always join the best cluster.
	DynamicClustering bool

	// RecalculateCenters recomputes a cluster center (component-wise mean)
	// after every membership change. Radii are recomputed regardless.
	RecalculateCenters bool

	// MaxClusters caps the number of clusters.
	MaxClusters int
}

// DefaultConfig returns the default clustering policy.
func DefaultConfig() Config {
	return Config{
		Similarity:         metric.Cosine(),
		ClusterThreshold:   0.85,
		DynamicClustering:  true,
		RecalculateCenters: true,
		MaxClusters:        100,
	}
}

func (cfg Config) validate() error {
	if cfg.Similarity.Func == nil {
		return fmt.Errorf("cluster: similarity function must not be nil")
	}
	if cfg.MaxClusters < 1 {
		return fmt.Errorf("cluster: max clusters must be positive, got %d", cfg.MaxClusters)
	}
	return nil
}

// Manager owns the cluster set and the entry index and enforces the central
// invariant: every entry belongs to exactly one cluster, and the
// entry-to-cluster mapping always agrees with cluster membership.
//
// The manager is not safe for concurrent use; callers serialize access.
type Manager[T any] struct {
	cfg Config

	// dimensions is 0 until the first vector arrives and immutable after.
	dimensions int

	idx         *index.Memory[T]
	clusters    []*Cluster // storage order, used for assignment tie-breaking
	byID        map[uint64]*Cluster
	assignments map[uint64]uint64 // entry ID -> cluster ID

	nextEntryID   uint64
	nextClusterID uint64
}

// New creates a Manager with the given policy.
func New[T any](cfg Config) (*Manager[T], error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &Manager[T]{
		cfg:           cfg,
		idx:           index.NewMemory[T](),
		byID:          make(map[uint64]*Cluster),
		assignments:   make(map[uint64]uint64),
		nextEntryID:   1,
		nextClusterID: 1,
	}, nil
}

// Config returns the active clustering policy.
func (m *Manager[T]) Config() Config {
	return m.cfg
}

// Dimensions returns the established vector dimensionality, or 0 if no
// vector has been stored yet.
func (m *Manager[T]) Dimensions() int {
	return m.dimensions
}

// Len returns the number of stored entries.
func (m *Manager[T]) Len() int {
	return m.idx.Len()
}

// Clusters returns the clusters in storage order.
func (m *Manager[T]) Clusters() []*Cluster {
	out := make([]*Cluster, len(m.clusters))
	copy(out, m.clusters)
	return out
}

// Cluster returns the cluster with the given ID.
func (m *Manager[T]) Cluster(id uint64) (*Cluster, bool) {
	c, ok := m.byID[id]
	return c, ok
}

// Entry returns the entry with the given ID.
func (m *Manager[T]) Entry(id uint64) (index.Entry[T], bool) {
	return m.idx.Get(id)
}

// Entries returns a snapshot of all entries ordered by ID.
func (m *Manager[T]) Entries() []index.Entry[T] {
	return m.idx.All()
}

// ClusterOf returns the ID of the cluster owning the given entry.
func (m *Manager[T]) ClusterOf(id uint64) (uint64, bool) {
	cid, ok := m.assignments[id]
	return cid, ok
}

// UpdateMetadata replaces the metadata of the entry with the given ID.
func (m *Manager[T]) UpdateMetadata(id uint64, metadata T) bool {
	return m.idx.UpdateMetadata(id, metadata)
}

// Insert validates the vector, routes it to a cluster per the assignment
// policy, and returns the new entry ID.
//
// With dynamic clustering enabled, a vector whose best center similarity is
// below the threshold spawns a new cluster; if the cluster cap is reached
// the whole insert fails with *ErrMaxClustersExceeded and no state changes.
// With dynamic clustering disabled, the vector joins the best cluster
// regardless of the threshold.
func (m *Manager[T]) Insert(vector []float32, metadata T) (uint64, error) {
	if err := m.validateVector(vector); err != nil {
		return 0, err
	}

	if len(m.clusters) == 0 {
		_, entryID, err := m.createCluster(vector, metadata)
		return entryID, err
	}

	best, bestSim, err := m.bestCluster(vector)
	if err != nil {
		return 0, err
	}

	if bestSim < m.cfg.ClusterThreshold && m.cfg.DynamicClustering {
		_, entryID, err := m.createCluster(vector, metadata)
		return entryID, err
	}

	return m.join(best, vector, metadata)
}

// AddCluster creates a new cluster whose center is the given vector and
// whose sole member is a fresh entry holding it.
func (m *Manager[T]) AddCluster(vector []float32, metadata T) (*Cluster, uint64, error) {
	if err := m.validateVector(vector); err != nil {
		return nil, 0, err
	}

	return m.createCluster(vector, metadata)
}

// Remove deletes the entry with the given ID from its cluster and the index.
// An unknown ID is not an error; the second return value reports whether an
// entry was removed. A cluster left empty is deleted.
func (m *Manager[T]) Remove(id uint64) (index.Entry[T], bool, error) {
	cid, ok := m.assignments[id]
	if !ok {
		var zero index.Entry[T]
		return zero, false, nil
	}

	c := m.byID[cid]
	e, _ := m.idx.Remove(id)
	c.members.Remove(id)
	delete(m.assignments, id)

	if c.members.IsEmpty() {
		m.deleteCluster(c)
		return e, true, nil
	}

	if err := m.refresh(c); err != nil {
		return e, true, err
	}
	return e, true, nil
}

// Merge moves every member of cluster b into cluster a and deletes b.
// Both IDs must name existing, distinct clusters.
func (m *Manager[T]) Merge(a, b uint64) (uint64, error) {
	if a == b {
		return 0, &ErrInvalidCluster{ID: b}
	}

	ca, ok := m.byID[a]
	if !ok {
		return 0, &ErrInvalidCluster{ID: a}
	}
	cb, ok := m.byID[b]
	if !ok {
		return 0, &ErrInvalidCluster{ID: b}
	}

	for _, id := range cb.MemberIDs() {
		m.assignments[id] = ca.id
	}
	ca.members.Or(cb.members)
	m.deleteCluster(cb)

	if err := m.refresh(ca); err != nil {
		return ca.id, err
	}
	return ca.id, nil
}

// Stats summarizes the store contents.
type Stats struct {
	VectorCount    int     `json:"vector_count"`
	ClusterCount   int     `json:"cluster_count"`
	Dimensions     int     `json:"dimensions"`
	MinClusterSize int     `json:"min_cluster_size"`
	MaxClusterSize int     `json:"max_cluster_size"`
	AvgClusterSize float64 `json:"avg_cluster_size"`
}

// Stats returns counts and cluster size distribution. All values are zero
// when the store is empty.
func (m *Manager[T]) Stats() Stats {
	st := Stats{
		VectorCount:  m.idx.Len(),
		ClusterCount: len(m.clusters),
		Dimensions:   m.dimensions,
	}

	if len(m.clusters) == 0 {
		return st
	}

	total := 0
	st.MinClusterSize = m.clusters[0].Size()
	for _, c := range m.clusters {
		size := c.Size()
		total += size
		if size < st.MinClusterSize {
			st.MinClusterSize = size
		}
		if size > st.MaxClusterSize {
			st.MaxClusterSize = size
		}
	}
	st.AvgClusterSize = float64(total) / float64(len(m.clusters))

	return st
}

// validateVector rejects empty or non-finite vectors and enforces the
// established dimensionality. It never mutates state.
func (m *Manager[T]) validateVector(vector []float32) error {
	if len(vector) == 0 {
		return &ErrInvalidVector{Reason: "vector is empty"}
	}
	for _, v := range vector {
		if !math32.IsFinite(v) {
			return &ErrInvalidVector{Reason: "vector contains a non-finite element"}
		}
	}
	if m.dimensions != 0 && len(vector) != m.dimensions {
		return &metric.ErrDimensionMismatch{Expected: m.dimensions, Actual: len(vector)}
	}
	return nil
}

// bestCluster scores the vector against every cluster center and returns the
// most similar cluster. Ties go to the first cluster in storage order.
func (m *Manager[T]) bestCluster(vector []float32) (*Cluster, float32, error) {
	var (
		best    *Cluster
		bestSim float32
	)

	for _, c := range m.clusters {
		sim, err := m.cfg.Similarity.Score(vector, c.center)
		if err != nil {
			return nil, 0, err
		}
		if best == nil || sim > bestSim {
			best = c
			bestSim = sim
		}
	}

	return best, bestSim, nil
}

func (m *Manager[T]) createCluster(vector []float32, metadata T) (*Cluster, uint64, error) {
	if len(m.clusters) >= m.cfg.MaxClusters {
		return nil, 0, &ErrMaxClustersExceeded{Max: m.cfg.MaxClusters}
	}

	if m.dimensions == 0 {
		m.dimensions = len(vector)
	}

	e := index.Entry[T]{ID: m.nextEntryID, Vector: cloneVector(vector), Metadata: metadata}
	m.nextEntryID++
	m.idx.Put(e)

	c := newCluster(m.nextClusterID, cloneVector(vector))
	m.nextClusterID++
	c.members.Add(e.ID)

	m.clusters = append(m.clusters, c)
	m.byID[c.id] = c
	m.assignments[e.ID] = c.id

	return c, e.ID, nil
}

func (m *Manager[T]) join(c *Cluster, vector []float32, metadata T) (uint64, error) {
	e := index.Entry[T]{ID: m.nextEntryID, Vector: cloneVector(vector), Metadata: metadata}
	m.nextEntryID++
	m.idx.Put(e)

	c.members.Add(e.ID)
	m.assignments[e.ID] = c.id

	if err := m.refresh(c); err != nil {
		return e.ID, err
	}
	return e.ID, nil
}

func (m *Manager[T]) deleteCluster(c *Cluster) {
	delete(m.byID, c.id)
	for i, cc := range m.clusters {
		if cc == c {
			m.clusters = append(m.clusters[:i], m.clusters[i+1:]...)
			return
		}
	}
}

// refresh recomputes the center (when enabled) and then the radius. The
// radius is recomputed unconditionally after every membership change.
func (m *Manager[T]) refresh(c *Cluster) error {
	if m.cfg.RecalculateCenters {
		m.recomputeCenter(c)
	}
	return m.recomputeRadius(c)
}

// recomputeCenter sets the center to the component-wise mean of the member
// vectors. float64 accumulators keep the mean stable for large clusters.
func (m *Manager[T]) recomputeCenter(c *Cluster) {
	size := c.Size()
	if size == 0 {
		return
	}

	sums := make([]float64, m.dimensions)
	it := c.members.Iterator()
	for it.HasNext() {
		e, ok := m.idx.Get(it.Next())
		if !ok {
			continue
		}
		for d, v := range e.Vector {
			sums[d] += float64(v)
		}
	}

	center := make([]float32, m.dimensions)
	for d := range center {
		center[d] = float32(sums[d] / float64(size))
	}
	c.center = center
}

// recomputeRadius sets the radius to the maximum member distance from the
// center. The distance conversion depends on the metric family: 1-similarity
// for cosine, raw Euclidean distance otherwise.
func (m *Manager[T]) recomputeRadius(c *Cluster) error {
	var radius float32

	it := c.members.Iterator()
	for it.HasNext() {
		e, ok := m.idx.Get(it.Next())
		if !ok {
			continue
		}
		d, err := m.cfg.Similarity.Distance(c.center, e.Vector)
		if err != nil {
			return err
		}
		if d > radius {
			radius = d
		}
	}

	c.radius = radius
	return nil
}
