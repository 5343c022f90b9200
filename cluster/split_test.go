package cluster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/clustervec/metric"
)

func TestSplit(t *testing.T) {
	t.Run("UnknownCluster", func(t *testing.T) {
		m := newTestManager(t, nil)

		var ic *ErrInvalidCluster
		_, _, err := m.Split(7)
		require.ErrorAs(t, err, &ic)
		assert.Equal(t, uint64(7), ic.ID)
	})

	t.Run("SingleMember", func(t *testing.T) {
		m := newTestManager(t, nil)

		c, _, err := m.AddCluster([]float32{1, 0}, "")
		require.NoError(t, err)

		var im *ErrInsufficientMembers
		_, _, err = m.Split(c.ID())
		require.ErrorAs(t, err, &im)
		assert.Equal(t, 1, im.Members)

		// The cluster survives the failed split untouched.
		got, ok := m.Cluster(c.ID())
		require.True(t, ok)
		assert.Equal(t, 1, got.Size())
	})

	t.Run("TwoTightPairs", func(t *testing.T) {
		// Force every vector into one cluster, then split it apart.
		m := newTestManager(t, func(cfg *Config) {
			cfg.DynamicClustering = false
		})

		a1, err := m.Insert([]float32{1, 0}, "a1")
		require.NoError(t, err)
		a2, err := m.Insert([]float32{0.9, 0.1}, "a2")
		require.NoError(t, err)
		b1, err := m.Insert([]float32{0, 1}, "b1")
		require.NoError(t, err)
		b2, err := m.Insert([]float32{0.1, 0.9}, "b2")
		require.NoError(t, err)

		require.Len(t, m.Clusters(), 1)
		original := m.Clusters()[0]
		originalRadius := original.Radius()

		left, right, err := m.Split(original.ID())
		require.NoError(t, err)

		_, ok := m.Cluster(original.ID())
		assert.False(t, ok)

		ca, ok := m.Cluster(left)
		require.True(t, ok)
		cb, ok := m.Cluster(right)
		require.True(t, ok)

		assert.ElementsMatch(t, []uint64{a1, a2}, ca.MemberIDs())
		assert.ElementsMatch(t, []uint64{b1, b2}, cb.MemberIDs())

		assert.LessOrEqual(t, ca.Radius(), originalRadius)
		assert.LessOrEqual(t, cb.Radius(), originalRadius)

		assertConsistent(t, m)
	})

	t.Run("TwoMembersBecomeSingletons", func(t *testing.T) {
		m := newTestManager(t, func(cfg *Config) {
			cfg.Similarity = metric.Euclidean()
			cfg.DynamicClustering = false
		})

		_, err := m.Insert([]float32{0, 0}, "")
		require.NoError(t, err)
		_, err = m.Insert([]float32{3, 0}, "")
		require.NoError(t, err)

		left, right, err := m.Split(m.Clusters()[0].ID())
		require.NoError(t, err)

		ca, _ := m.Cluster(left)
		cb, _ := m.Cluster(right)
		assert.Equal(t, 1, ca.Size())
		assert.Equal(t, 1, cb.Size())
		assert.Equal(t, float32(0), ca.Radius())
		assert.Equal(t, float32(0), cb.Radius())
		assertConsistent(t, m)
	})

	t.Run("KeepsStorageOrderPosition", func(t *testing.T) {
		m := newTestManager(t, func(cfg *Config) {
			cfg.ClusterThreshold = 0.99
		})

		_, err := m.Insert([]float32{1, 0, 0}, "")
		require.NoError(t, err)
		_, err = m.Insert([]float32{0, 1, 0}, "")
		require.NoError(t, err)
		_, err = m.Insert([]float32{0, 0, 1}, "")
		require.NoError(t, err)

		middle := m.Clusters()[1]
		_, err = m.Insert([]float32{0.01, 0.999, 0}, "")
		require.NoError(t, err)
		require.Equal(t, 2, middle.Size())

		left, right, err := m.Split(middle.ID())
		require.NoError(t, err)

		clusters := m.Clusters()
		require.Len(t, clusters, 4)
		assert.Equal(t, left, clusters[1].ID())
		assert.Equal(t, right, clusters[2].ID())
	})

	t.Run("IgnoresClusterCap", func(t *testing.T) {
		m := newTestManager(t, func(cfg *Config) {
			cfg.DynamicClustering = false
			cfg.MaxClusters = 1
		})

		_, err := m.Insert([]float32{1, 0}, "")
		require.NoError(t, err)
		_, err = m.Insert([]float32{0, 1}, "")
		require.NoError(t, err)

		_, _, err = m.Split(m.Clusters()[0].ID())
		require.NoError(t, err)
		assert.Len(t, m.Clusters(), 2)
	})
}
