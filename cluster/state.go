package cluster

import (
	"fmt"

	"github.com/hupe1980/clustervec/index"
)

// ClusterState is the serializable form of a cluster, carrying its member
// entries in full.
type ClusterState[T any] struct {
	ID      uint64           `json:"id"`
	Center  []float32        `json:"center"`
	Radius  float32          `json:"radius"`
	Members []index.Entry[T] `json:"members"`
}

// State is the serializable form of a Manager. It holds everything needed to
// reconstruct the cluster set, the entry index, and the ID counters.
type State[T any] struct {
	Dimensions    int               `json:"dimensions"`
	Clusters      []ClusterState[T] `json:"clusters"`
	Assignments   map[uint64]uint64 `json:"assignments"`
	NextEntryID   uint64            `json:"next_entry_id"`
	NextClusterID uint64            `json:"next_cluster_id"`
}

// State exports the manager contents.
func (m *Manager[T]) State() State[T] {
	st := State[T]{
		Dimensions:    m.dimensions,
		Clusters:      make([]ClusterState[T], 0, len(m.clusters)),
		Assignments:   make(map[uint64]uint64, len(m.assignments)),
		NextEntryID:   m.nextEntryID,
		NextClusterID: m.nextClusterID,
	}

	for _, c := range m.clusters {
		cs := ClusterState[T]{
			ID:      c.id,
			Center:  cloneVector(c.center),
			Radius:  c.radius,
			Members: make([]index.Entry[T], 0, c.Size()),
		}
		it := c.members.Iterator()
		for it.HasNext() {
			if e, ok := m.idx.Get(it.Next()); ok {
				cs.Members = append(cs.Members, e)
			}
		}
		st.Clusters = append(st.Clusters, cs)
	}

	for id, cid := range m.assignments {
		st.Assignments[id] = cid
	}

	return st
}

// FromState reconstructs a Manager from an exported state. The entry index
// is rebuilt by walking all cluster members; the assignment mapping is
// verified against the rebuilt membership so an imported store satisfies the
// same invariants as one built via live inserts.
func FromState[T any](cfg Config, st State[T]) (*Manager[T], error) {
	m, err := New[T](cfg)
	if err != nil {
		return nil, err
	}

	m.dimensions = st.Dimensions

	for _, cs := range st.Clusters {
		if len(cs.Members) == 0 {
			return nil, fmt.Errorf("cluster: corrupt state: cluster %d has no members", cs.ID)
		}
		if _, exists := m.byID[cs.ID]; exists {
			return nil, fmt.Errorf("cluster: corrupt state: duplicate cluster id %d", cs.ID)
		}

		c := newCluster(cs.ID, cloneVector(cs.Center))
		c.radius = cs.Radius

		for _, e := range cs.Members {
			if _, exists := m.idx.Get(e.ID); exists {
				return nil, fmt.Errorf("cluster: corrupt state: entry %d appears in more than one cluster", e.ID)
			}
			if st.Dimensions != 0 && len(e.Vector) != st.Dimensions {
				return nil, fmt.Errorf("cluster: corrupt state: entry %d has %d dimensions, want %d", e.ID, len(e.Vector), st.Dimensions)
			}
			if cid, ok := st.Assignments[e.ID]; !ok || cid != cs.ID {
				return nil, fmt.Errorf("cluster: corrupt state: assignment of entry %d disagrees with membership in cluster %d", e.ID, cs.ID)
			}

			m.idx.Put(e)
			c.members.Add(e.ID)
			m.assignments[e.ID] = cs.ID

			if e.ID >= m.nextEntryID {
				m.nextEntryID = e.ID + 1
			}
		}

		m.clusters = append(m.clusters, c)
		m.byID[c.id] = c

		if cs.ID >= m.nextClusterID {
			m.nextClusterID = cs.ID + 1
		}
	}

	if len(st.Assignments) != m.idx.Len() {
		return nil, fmt.Errorf("cluster: corrupt state: %d assignments for %d entries", len(st.Assignments), m.idx.Len())
	}
	if st.NextEntryID > m.nextEntryID {
		m.nextEntryID = st.NextEntryID
	}
	if st.NextClusterID > m.nextClusterID {
		m.nextClusterID = st.NextClusterID
	}

	return m, nil
}
