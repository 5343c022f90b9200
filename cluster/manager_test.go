package cluster

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/clustervec/metric"
)

func newTestManager(t *testing.T, mutate func(cfg *Config)) *Manager[string] {
	t.Helper()

	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}

	m, err := New[string](cfg)
	require.NoError(t, err)
	return m
}

// assertConsistent checks the central invariant: the entry-to-cluster
// mapping agrees with cluster membership, every entry belongs to exactly one
// cluster, and no cluster is empty.
func assertConsistent(t *testing.T, m *Manager[string]) {
	t.Helper()

	seen := make(map[uint64]uint64)
	for _, c := range m.Clusters() {
		require.Positive(t, c.Size(), "cluster %d is empty", c.ID())
		for _, id := range c.MemberIDs() {
			_, dup := seen[id]
			require.False(t, dup, "entry %d appears in more than one cluster", id)
			seen[id] = c.ID()

			cid, ok := m.ClusterOf(id)
			require.True(t, ok)
			assert.Equal(t, c.ID(), cid)

			_, ok = m.Entry(id)
			require.True(t, ok, "entry %d missing from index", id)
		}
	}
	assert.Equal(t, m.Len(), len(seen))
}

func TestNew(t *testing.T) {
	t.Run("NilSimilarity", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Similarity.Func = nil
		_, err := New[string](cfg)
		require.Error(t, err)
	})

	t.Run("InvalidMaxClusters", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.MaxClusters = 0
		_, err := New[string](cfg)
		require.Error(t, err)
	})
}

func TestInsert(t *testing.T) {
	t.Run("InsertAndRetrieve", func(t *testing.T) {
		m := newTestManager(t, nil)

		id, err := m.Insert([]float32{1, 2, 3}, "doc-1")
		require.NoError(t, err)

		e, ok := m.Entry(id)
		require.True(t, ok)
		assert.Equal(t, []float32{1, 2, 3}, e.Vector)
		assert.Equal(t, "doc-1", e.Metadata)
		assertConsistent(t, m)
	})

	t.Run("EstablishesDimensions", func(t *testing.T) {
		m := newTestManager(t, nil)
		assert.Equal(t, 0, m.Dimensions())

		_, err := m.Insert([]float32{1, 2, 3}, "")
		require.NoError(t, err)
		assert.Equal(t, 3, m.Dimensions())

		_, err = m.Insert([]float32{1, 2}, "")
		var dm *metric.ErrDimensionMismatch
		require.ErrorAs(t, err, &dm)
		assert.Equal(t, 3, dm.Expected)
		assert.Equal(t, 2, dm.Actual)
	})

	t.Run("RejectsEmptyVector", func(t *testing.T) {
		m := newTestManager(t, nil)

		_, err := m.Insert(nil, "")
		var iv *ErrInvalidVector
		require.ErrorAs(t, err, &iv)
	})

	t.Run("RejectsNonFiniteVector", func(t *testing.T) {
		m := newTestManager(t, nil)

		var iv *ErrInvalidVector
		_, err := m.Insert([]float32{1, float32(math.NaN())}, "")
		require.ErrorAs(t, err, &iv)

		_, err = m.Insert([]float32{float32(math.Inf(1)), 0}, "")
		require.ErrorAs(t, err, &iv)

		// Nothing was mutated, dimensions remain unset.
		assert.Equal(t, 0, m.Dimensions())
		assert.Equal(t, 0, m.Len())
	})

	t.Run("BelowThresholdSpawnsCluster", func(t *testing.T) {
		m := newTestManager(t, func(cfg *Config) {
			cfg.ClusterThreshold = 0.99
		})

		_, err := m.Insert([]float32{1, 0, 0}, "")
		require.NoError(t, err)
		_, err = m.Insert([]float32{0, 1, 0}, "")
		require.NoError(t, err)
		_, err = m.Insert([]float32{0, 0, 1}, "")
		require.NoError(t, err)

		clusters := m.Clusters()
		require.Len(t, clusters, 3)
		for _, c := range clusters {
			assert.Equal(t, 1, c.Size())
			assert.Equal(t, float32(0), c.Radius())
		}
		assertConsistent(t, m)
	})

	t.Run("AboveThresholdJoins", func(t *testing.T) {
		m := newTestManager(t, func(cfg *Config) {
			cfg.ClusterThreshold = 0.9
		})

		_, err := m.Insert([]float32{1, 0}, "")
		require.NoError(t, err)
		_, err = m.Insert([]float32{0.99, 0.01}, "")
		require.NoError(t, err)

		require.Len(t, m.Clusters(), 1)
		assert.Equal(t, 2, m.Clusters()[0].Size())
		assertConsistent(t, m)
	})

	t.Run("MaxClustersAbortsInsert", func(t *testing.T) {
		m := newTestManager(t, func(cfg *Config) {
			cfg.ClusterThreshold = 0.99
			cfg.MaxClusters = 1
		})

		_, err := m.Insert([]float32{1, 0, 0}, "")
		require.NoError(t, err)

		_, err = m.Insert([]float32{0, 1, 0}, "")
		var mce *ErrMaxClustersExceeded
		require.ErrorAs(t, err, &mce)
		assert.Equal(t, 1, mce.Max)

		// The failed insert must not leave partial state behind.
		assert.Equal(t, 1, m.Len())
		require.Len(t, m.Clusters(), 1)
		assertConsistent(t, m)
	})

	t.Run("ForceJoinWhenDynamicClusteringDisabled", func(t *testing.T) {
		m := newTestManager(t, func(cfg *Config) {
			cfg.ClusterThreshold = 0.99
			cfg.DynamicClustering = false
		})

		_, err := m.Insert([]float32{1, 0}, "")
		require.NoError(t, err)
		_, err = m.Insert([]float32{0, 1}, "")
		require.NoError(t, err)

		// Far below threshold, still joined: the threshold is unenforced
		// in this mode.
		require.Len(t, m.Clusters(), 1)
		assert.Equal(t, 2, m.Clusters()[0].Size())
		assertConsistent(t, m)
	})

	t.Run("CenterRecalculation", func(t *testing.T) {
		m := newTestManager(t, func(cfg *Config) {
			cfg.Similarity = metric.Euclidean()
			cfg.ClusterThreshold = 0.1
		})

		_, err := m.Insert([]float32{0, 0}, "")
		require.NoError(t, err)
		_, err = m.Insert([]float32{2, 0}, "")
		require.NoError(t, err)

		c := m.Clusters()[0]
		assert.Equal(t, []float32{1, 0}, c.Center())
		// Euclidean family radius is the raw distance from center.
		assert.InDelta(t, 1.0, c.Radius(), 1e-6)
	})

	t.Run("CenterKeptWhenRecalculationDisabled", func(t *testing.T) {
		m := newTestManager(t, func(cfg *Config) {
			cfg.Similarity = metric.Euclidean()
			cfg.ClusterThreshold = 0.1
			cfg.RecalculateCenters = false
		})

		_, err := m.Insert([]float32{0, 0}, "")
		require.NoError(t, err)
		_, err = m.Insert([]float32{2, 0}, "")
		require.NoError(t, err)

		c := m.Clusters()[0]
		assert.Equal(t, []float32{0, 0}, c.Center())
		// Radius is still recomputed against the original center.
		assert.InDelta(t, 2.0, c.Radius(), 1e-6)
	})
}

func TestAddCluster(t *testing.T) {
	t.Run("CreatesSingletonCluster", func(t *testing.T) {
		m := newTestManager(t, nil)

		c, entryID, err := m.AddCluster([]float32{1, 2}, "seed")
		require.NoError(t, err)
		assert.Equal(t, []float32{1, 2}, c.Center())
		assert.Equal(t, float32(0), c.Radius())
		assert.Equal(t, []uint64{entryID}, c.MemberIDs())
		assertConsistent(t, m)
	})

	t.Run("RespectsCap", func(t *testing.T) {
		m := newTestManager(t, func(cfg *Config) {
			cfg.MaxClusters = 1
		})

		_, _, err := m.AddCluster([]float32{1, 2}, "")
		require.NoError(t, err)

		_, _, err = m.AddCluster([]float32{3, 4}, "")
		var mce *ErrMaxClustersExceeded
		require.ErrorAs(t, err, &mce)
	})

	t.Run("ValidatesDimensions", func(t *testing.T) {
		m := newTestManager(t, nil)

		_, _, err := m.AddCluster([]float32{1, 2}, "")
		require.NoError(t, err)

		_, _, err = m.AddCluster([]float32{1, 2, 3}, "")
		var dm *metric.ErrDimensionMismatch
		require.ErrorAs(t, err, &dm)
	})
}

func TestRemove(t *testing.T) {
	t.Run("UnknownIDIsSilent", func(t *testing.T) {
		m := newTestManager(t, nil)

		_, found, err := m.Remove(42)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("LastMemberDeletesCluster", func(t *testing.T) {
		m := newTestManager(t, nil)

		id, err := m.Insert([]float32{1, 2}, "")
		require.NoError(t, err)

		e, found, err := m.Remove(id)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, id, e.ID)

		assert.Empty(t, m.Clusters())
		assert.Equal(t, 0, m.Len())
	})

	t.Run("RefreshesSurvivingCluster", func(t *testing.T) {
		m := newTestManager(t, func(cfg *Config) {
			cfg.Similarity = metric.Euclidean()
			cfg.ClusterThreshold = 0.1
		})

		_, err := m.Insert([]float32{0, 0}, "")
		require.NoError(t, err)
		far, err := m.Insert([]float32{4, 0}, "")
		require.NoError(t, err)
		_, err = m.Insert([]float32{2, 0}, "")
		require.NoError(t, err)

		_, found, err := m.Remove(far)
		require.NoError(t, err)
		require.True(t, found)

		c := m.Clusters()[0]
		assert.Equal(t, []float32{1, 0}, c.Center())
		assert.InDelta(t, 1.0, c.Radius(), 1e-6)
		assertConsistent(t, m)
	})
}

func TestUpdateMetadata(t *testing.T) {
	m := newTestManager(t, nil)

	id, err := m.Insert([]float32{1}, "old")
	require.NoError(t, err)

	require.True(t, m.UpdateMetadata(id, "new"))
	e, ok := m.Entry(id)
	require.True(t, ok)
	assert.Equal(t, "new", e.Metadata)

	assert.False(t, m.UpdateMetadata(999, "nope"))
}

func TestMerge(t *testing.T) {
	t.Run("UnknownCluster", func(t *testing.T) {
		m := newTestManager(t, nil)

		var ic *ErrInvalidCluster
		_, err := m.Merge(1, 2)
		require.ErrorAs(t, err, &ic)
	})

	t.Run("SelfMerge", func(t *testing.T) {
		m := newTestManager(t, nil)
		c, _, err := m.AddCluster([]float32{1, 0}, "")
		require.NoError(t, err)

		var ic *ErrInvalidCluster
		_, err = m.Merge(c.ID(), c.ID())
		require.ErrorAs(t, err, &ic)
	})

	t.Run("MovesMembersAndDeletesSource", func(t *testing.T) {
		m := newTestManager(t, func(cfg *Config) {
			cfg.Similarity = metric.Euclidean()
			cfg.ClusterThreshold = 0.99
		})

		a, err := m.Insert([]float32{0, 0}, "a")
		require.NoError(t, err)
		b, err := m.Insert([]float32{10, 0}, "b")
		require.NoError(t, err)
		require.Len(t, m.Clusters(), 2)

		ca, _ := m.ClusterOf(a)
		cb, _ := m.ClusterOf(b)

		merged, err := m.Merge(ca, cb)
		require.NoError(t, err)
		assert.Equal(t, ca, merged)

		_, ok := m.Cluster(cb)
		assert.False(t, ok)

		c, ok := m.Cluster(ca)
		require.True(t, ok)
		assert.ElementsMatch(t, []uint64{a, b}, c.MemberIDs())
		assert.Equal(t, []float32{5, 0}, c.Center())
		assert.InDelta(t, 5.0, c.Radius(), 1e-6)
		assertConsistent(t, m)
	})
}

func TestIdempotentCenterRecompute(t *testing.T) {
	m := newTestManager(t, func(cfg *Config) {
		cfg.ClusterThreshold = 0.5
	})

	_, err := m.Insert([]float32{1, 0}, "")
	require.NoError(t, err)
	_, err = m.Insert([]float32{0.8, 0.2}, "")
	require.NoError(t, err)

	c := m.Clusters()[0]
	first := c.Center()

	m.recomputeCenter(c)
	m.recomputeCenter(c)
	assert.Equal(t, first, c.Center())
}

func TestStats(t *testing.T) {
	t.Run("EmptyStore", func(t *testing.T) {
		m := newTestManager(t, nil)

		st := m.Stats()
		assert.Equal(t, 0, st.VectorCount)
		assert.Equal(t, 0, st.ClusterCount)
		assert.Equal(t, 0, st.Dimensions)
		assert.Equal(t, 0, st.MinClusterSize)
		assert.Equal(t, 0, st.MaxClusterSize)
		assert.Equal(t, float64(0), st.AvgClusterSize)
	})

	t.Run("Distribution", func(t *testing.T) {
		m := newTestManager(t, func(cfg *Config) {
			cfg.ClusterThreshold = 0.99
		})

		_, err := m.Insert([]float32{1, 0, 0}, "")
		require.NoError(t, err)
		_, err = m.Insert([]float32{0.999, 0.001, 0}, "")
		require.NoError(t, err)
		_, err = m.Insert([]float32{0, 1, 0}, "")
		require.NoError(t, err)

		st := m.Stats()
		assert.Equal(t, 3, st.VectorCount)
		assert.Equal(t, 2, st.ClusterCount)
		assert.Equal(t, 3, st.Dimensions)
		assert.Equal(t, 1, st.MinClusterSize)
		assert.Equal(t, 2, st.MaxClusterSize)
		assert.InDelta(t, 1.5, st.AvgClusterSize, 1e-9)
	})
}

func TestMutationSequenceKeepsInvariants(t *testing.T) {
	m := newTestManager(t, func(cfg *Config) {
		cfg.ClusterThreshold = 0.9
	})

	var ids []uint64
	vectors := [][]float32{
		{1, 0, 0}, {0.98, 0.02, 0}, {0, 1, 0}, {0.02, 0.98, 0},
		{0, 0, 1}, {0.01, 0.01, 0.98}, {0.7, 0.7, 0},
	}
	for _, v := range vectors {
		id, err := m.Insert(v, "")
		require.NoError(t, err)
		ids = append(ids, id)
	}
	assertConsistent(t, m)

	_, found, err := m.Remove(ids[1])
	require.NoError(t, err)
	require.True(t, found)
	assertConsistent(t, m)

	clusters := m.Clusters()
	require.GreaterOrEqual(t, len(clusters), 2)
	_, err = m.Merge(clusters[0].ID(), clusters[1].ID())
	require.NoError(t, err)
	assertConsistent(t, m)

	for _, c := range m.Clusters() {
		if c.Size() >= 2 {
			_, _, err = m.Split(c.ID())
			require.NoError(t, err)
			break
		}
	}
	assertConsistent(t, m)
}
