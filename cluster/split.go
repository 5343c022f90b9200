package cluster

import (
	"github.com/hupe1980/clustervec/index"
)

// Split divides a cluster into two by 2-means seeding: the pair of members
// with the maximum pairwise distance (1 - similarity under the configured
// function) become the seed centers of two new clusters, and every remaining
// member joins the seed it is more similar to. The original cluster is
// deleted and replaced in place by the two new clusters.
//
// The pairwise scan is exhaustive, O(n^2) over the members, and
// deterministic: members are visited in ascending ID order, the first
// maximal pair wins ties, and assignment ties favor the first seed.
//
// Returns the IDs of the two new clusters, seed-1's cluster first.
func (m *Manager[T]) Split(id uint64) (uint64, uint64, error) {
	c, ok := m.byID[id]
	if !ok {
		return 0, 0, &ErrInvalidCluster{ID: id}
	}

	ids := c.MemberIDs()
	if len(ids) < 2 {
		return 0, 0, &ErrInsufficientMembers{ID: id, Members: len(ids)}
	}

	entries := make([]index.Entry[T], len(ids))
	for i, mid := range ids {
		entries[i], _ = m.idx.Get(mid)
	}

	seedA, seedB, err := m.farthestPair(entries)
	if err != nil {
		return 0, 0, err
	}

	ca := newCluster(m.nextClusterID, cloneVector(entries[seedA].Vector))
	m.nextClusterID++
	cb := newCluster(m.nextClusterID, cloneVector(entries[seedB].Vector))
	m.nextClusterID++

	ca.members.Add(entries[seedA].ID)
	cb.members.Add(entries[seedB].ID)

	for i, e := range entries {
		if i == seedA || i == seedB {
			continue
		}

		simA, err := m.cfg.Similarity.Score(e.Vector, entries[seedA].Vector)
		if err != nil {
			return 0, 0, err
		}
		simB, err := m.cfg.Similarity.Score(e.Vector, entries[seedB].Vector)
		if err != nil {
			return 0, 0, err
		}

		if simA >= simB {
			ca.members.Add(e.ID)
		} else {
			cb.members.Add(e.ID)
		}
	}

	m.replaceCluster(c, ca, cb)

	for _, e := range entries {
		if ca.Contains(e.ID) {
			m.assignments[e.ID] = ca.id
		} else {
			m.assignments[e.ID] = cb.id
		}
	}

	if err := m.refresh(ca); err != nil {
		return ca.id, cb.id, err
	}
	if err := m.refresh(cb); err != nil {
		return ca.id, cb.id, err
	}

	return ca.id, cb.id, nil
}

// farthestPair finds the indices of the two entries with the maximum
// pairwise distance (1 - similarity). The first maximal pair in iteration
// order wins ties.
func (m *Manager[T]) farthestPair(entries []index.Entry[T]) (int, int, error) {
	seedA, seedB := 0, 1
	first := true

	var maxDist float32
	for i := 0; i < len(entries); i++ {
		for j := i + 1; j < len(entries); j++ {
			sim, err := m.cfg.Similarity.Score(entries[i].Vector, entries[j].Vector)
			if err != nil {
				return 0, 0, err
			}
			d := 1 - sim
			if first || d > maxDist {
				first = false
				maxDist = d
				seedA, seedB = i, j
			}
		}
	}

	return seedA, seedB, nil
}

// replaceCluster swaps old for the two new clusters at old's position in
// storage order.
func (m *Manager[T]) replaceCluster(old, a, b *Cluster) {
	delete(m.byID, old.id)
	m.byID[a.id] = a
	m.byID[b.id] = b

	for i, cc := range m.clusters {
		if cc == old {
			m.clusters = append(m.clusters[:i+1], m.clusters[i:]...)
			m.clusters[i] = a
			m.clusters[i+1] = b
			return
		}
	}
}
