package layout

import (
	"sort"

	"github.com/tsawler/figura/model"
)

// ClusterConfig holds configuration for vector clustering
type ClusterConfig struct {
	// GapRatio is the largest gap between two primitive boxes that still
	// connects them, as a fraction of the page diagonal.
	// Default: 0.005
	GapRatio float64

	// BackgroundRatio is the fraction of the page area at which a primitive
	// is treated as a background and never connected to others.
	// Default: 0.9
	BackgroundRatio float64
}

// DefaultClusterConfig returns the default clustering configuration
func DefaultClusterConfig() ClusterConfig {
	return ClusterConfig{
		GapRatio:        0.005,
		BackgroundRatio: 0.9,
	}
}

// Clusterer groups vector primitives into connected clusters
type Clusterer struct {
	config ClusterConfig
}

// NewClusterer creates a clusterer with default configuration
func NewClusterer() *Clusterer {
	return &Clusterer{config: DefaultClusterConfig()}
}

// NewClustererWithConfig creates a clusterer with custom configuration
func NewClustererWithConfig(config ClusterConfig) *Clusterer {
	return &Clusterer{config: config}
}

// Cluster partitions the primitives of one page. Two primitives are
// connected when their boxes overlap or lie within the gap tolerance, and
// clusters are the transitive closure of that relation. Clusters come out
// top-to-bottom, then left-to-right; members keep content order.
func (c *Clusterer) Cluster(prims []model.VectorPrimitive, page model.Box) []model.VectorCluster {
	if len(prims) == 0 {
		return nil
	}

	gap := c.config.GapRatio * page.Diagonal()
	background := c.config.BackgroundRatio * page.Area()

	order := make([]int, 0, len(prims))
	for i, p := range prims {
		if background > 0 && p.Box.Area() >= background {
			continue
		}
		order = append(order, i)
	}
	sort.SliceStable(order, func(a, b int) bool {
		return prims[order[a]].Box.X0 < prims[order[b]].Box.X0
	})

	uf := newUnionFind(len(prims))
	for a, i := range order {
		bi := prims[i].Box
		for _, j := range order[a+1:] {
			bj := prims[j].Box
			if bj.X0 > bi.X1+gap {
				// Sorted by X0: nothing further right can be within reach.
				break
			}
			if bi.Gap(bj) <= gap {
				uf.union(i, j)
			}
		}
	}

	groups := make(map[int][]int)
	var roots []int
	for i := range prims {
		r := uf.find(i)
		if _, ok := groups[r]; !ok {
			roots = append(roots, r)
		}
		groups[r] = append(groups[r], i)
	}

	clusters := make([]model.VectorCluster, 0, len(roots))
	for _, r := range roots {
		members := groups[r]
		cl := model.VectorCluster{
			Members: make([]model.VectorPrimitive, len(members)),
			Box:     prims[members[0]].Box,
		}
		for k, idx := range members {
			cl.Members[k] = prims[idx]
			cl.Box = cl.Box.Union(prims[idx].Box)
		}
		sort.SliceStable(cl.Members, func(a, b int) bool {
			return cl.Members[a].Seq < cl.Members[b].Seq
		})
		clusters = append(clusters, cl)
	}

	sort.SliceStable(clusters, func(a, b int) bool {
		return model.ReadingLess(clusters[a].Box, clusters[b].Box)
	})
	return clusters
}

// unionFind is a disjoint-set forest with path compression and union by
// rank.
type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n), rank: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (uf *unionFind) find(x int) int {
	root := x
	for uf.parent[root] != root {
		root = uf.parent[root]
	}
	for uf.parent[x] != root {
		next := uf.parent[x]
		uf.parent[x] = root
		x = next
	}
	return root
}

func (uf *unionFind) union(a, b int) {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return
	}
	switch {
	case uf.rank[ra] < uf.rank[rb]:
		uf.parent[ra] = rb
	case uf.rank[ra] > uf.rank[rb]:
		uf.parent[rb] = ra
	default:
		uf.parent[rb] = ra
		uf.rank[ra]++
	}
}
