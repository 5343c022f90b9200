package cluster

import (
	"sort"

	"github.com/hupe1980/clustervec/index"
	"github.com/hupe1980/clustervec/metric"
)

// DefaultSearchLimit is the result limit used when none is given.
const DefaultSearchLimit = 10

// SearchParams controls a search.
type SearchParams struct {
	// Limit is the maximum number of results. Defaults to DefaultSearchLimit.
	Limit int

	// MinSimilarity drops results scoring below it. In cluster-pruned mode
	// it also prunes whole clusters by their center similarity.
	MinSimilarity float32

	// SearchAllClusters scores every stored vector instead of walking
	// clusters (exhaustive mode).
	SearchAllClusters bool

	// Filter, when set, restricts results to entries it accepts.
	Filter func(id uint64) bool
}

// Result is a scored entry.
type Result[T any] struct {
	Entry index.Entry[T]
	Score float32
}

// Search returns the entries most similar to the query.
//
// The default mode ranks clusters by center similarity and scans members of
// the best clusters only, stopping once Limit results have accumulated. This
// prunes aggressively: clusters whose center scores below MinSimilarity are
// skipped even if they hold closer points, and clusters ranked after the
// stop point are never visited. Exhaustive mode trades that speed for a scan
// of every stored vector.
func (m *Manager[T]) Search(query []float32, p SearchParams) ([]Result[T], error) {
	if m.dimensions != 0 && len(query) != m.dimensions {
		return nil, &metric.ErrDimensionMismatch{Expected: m.dimensions, Actual: len(query)}
	}

	if p.Limit <= 0 {
		p.Limit = DefaultSearchLimit
	}

	if len(m.clusters) == 0 {
		return []Result[T]{}, nil
	}

	var (
		results []Result[T]
		err     error
	)
	if p.SearchAllClusters {
		results, err = m.searchExhaustive(query, p)
	} else {
		results, err = m.searchPruned(query, p)
	}
	if err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > p.Limit {
		results = results[:p.Limit]
	}

	return results, nil
}

func (m *Manager[T]) searchExhaustive(query []float32, p SearchParams) ([]Result[T], error) {
	results := make([]Result[T], 0, p.Limit)

	for _, e := range m.idx.All() {
		if p.Filter != nil && !p.Filter(e.ID) {
			continue
		}

		score, err := m.cfg.Similarity.Score(query, e.Vector)
		if err != nil {
			return nil, err
		}
		if score >= p.MinSimilarity {
			results = append(results, Result[T]{Entry: e, Score: score})
		}
	}

	return results, nil
}

func (m *Manager[T]) searchPruned(query []float32, p SearchParams) ([]Result[T], error) {
	type ranked struct {
		c   *Cluster
		sim float32
	}

	order := make([]ranked, 0, len(m.clusters))
	for _, c := range m.clusters {
		sim, err := m.cfg.Similarity.Score(query, c.center)
		if err != nil {
			return nil, err
		}
		order = append(order, ranked{c: c, sim: sim})
	}

	sort.SliceStable(order, func(i, j int) bool {
		return order[i].sim > order[j].sim
	})

	results := make([]Result[T], 0, p.Limit)
	for _, rc := range order {
		// Heuristic prune: a cluster may hold points scoring above
		// MinSimilarity even when its center does not.
		if rc.sim < p.MinSimilarity {
			continue
		}

		it := rc.c.members.Iterator()
		for it.HasNext() {
			id := it.Next()
			if p.Filter != nil && !p.Filter(id) {
				continue
			}

			e, ok := m.idx.Get(id)
			if !ok {
				continue
			}

			score, err := m.cfg.Similarity.Score(query, e.Vector)
			if err != nil {
				return nil, err
			}
			if score >= p.MinSimilarity {
				results = append(results, Result[T]{Entry: e, Score: score})
			}
		}

		// Accepted recall tradeoff: later clusters are not visited once
		// the limit is reached, so this is not a global top-k.
		if len(results) >= p.Limit {
			break
		}
	}

	return results, nil
}
