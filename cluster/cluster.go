// Package cluster implements the clustering engine: threshold-based
// assignment of vectors to clusters, center and radius maintenance,
// split/merge operations, and cluster-pruned search.
//
// Clusters reference entries by ID only; all entry data lives in the vector
// index (package index) and is dereferenced through it.
package cluster

import (
	"github.com/RoaringBitmap/roaring/v2/roaring64"
)

// Cluster is a set of vector entries grouped around a center.
//
// Membership is tracked as a roaring bitmap of entry IDs; iteration order is
// ascending ID, which keeps split seeding and tie-breaking deterministic.
type Cluster struct {
	id      uint64
	center  []float32
	members *roaring64.Bitmap
	radius  float32
}

func newCluster(id uint64, center []float32) *Cluster {
	return &Cluster{
		id:      id,
		center:  center,
		members: roaring64.New(),
	}
}

// ID returns the cluster identifier.
func (c *Cluster) ID() uint64 {
	return c.id
}

// Center returns a copy of the cluster center vector.
func (c *Cluster) Center() []float32 {
	return cloneVector(c.center)
}

// Radius returns the maximum distance from the center to any member, as of
// the last mutation. A freshly created cluster has radius 0.
func (c *Cluster) Radius() float32 {
	return c.radius
}

// Size returns the number of members.
func (c *Cluster) Size() int {
	return int(c.members.GetCardinality())
}

// MemberIDs returns the member entry IDs in ascending order.
func (c *Cluster) MemberIDs() []uint64 {
	return c.members.ToArray()
}

// Contains reports whether the entry with the given ID is a member.
func (c *Cluster) Contains(id uint64) bool {
	return c.members.Contains(id)
}

func cloneVector(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
