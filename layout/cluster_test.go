package layout

import (
	"testing"

	"github.com/tsawler/figura/model"
)

var letter = model.Box{X0: 0, Y0: 0, X1: 612, Y1: 792}

func prim(seq int, x0, y0, x1, y1 float64) model.VectorPrimitive {
	return model.VectorPrimitive{Box: model.Box{X0: x0, Y0: y0, X1: x1, Y1: y1}, Op: model.PaintFill, Seq: seq}
}

func TestClusterer_Empty(t *testing.T) {
	if got := NewClusterer().Cluster(nil, letter); len(got) != 0 {
		t.Errorf("expected no clusters, got %d", len(got))
	}
}

func TestClusterer_TransitiveConnection(t *testing.T) {
	// a touches b, b touches c, d is far away.
	prims := []model.VectorPrimitive{
		prim(1, 100, 100, 150, 150),
		prim(2, 150, 100, 200, 150),
		prim(3, 199, 140, 260, 200),
		prim(4, 400, 600, 450, 650),
	}

	clusters := NewClusterer().Cluster(prims, letter)
	if len(clusters) != 2 {
		t.Fatalf("expected 2 clusters, got %d", len(clusters))
	}

	// d is higher on the page, so it comes first.
	if len(clusters[0].Members) != 1 || clusters[0].Members[0].Seq != 4 {
		t.Errorf("unexpected first cluster: %+v", clusters[0])
	}
	want := model.Box{X0: 100, Y0: 100, X1: 260, Y1: 200}
	if clusters[1].Box != want {
		t.Errorf("cluster box = %v, want %v", clusters[1].Box, want)
	}
	if len(clusters[1].Members) != 3 {
		t.Errorf("expected 3 members, got %d", len(clusters[1].Members))
	}
}

func TestClusterer_GapTolerance(t *testing.T) {
	// Letter diagonal is ~1000pt, so the default gap is ~5pt.
	near := []model.VectorPrimitive{prim(1, 100, 100, 150, 150), prim(2, 154, 100, 200, 150)}
	if got := NewClusterer().Cluster(near, letter); len(got) != 1 {
		t.Errorf("4pt gap: expected 1 cluster, got %d", len(got))
	}

	far := []model.VectorPrimitive{prim(1, 100, 100, 150, 150), prim(2, 160, 100, 200, 150)}
	if got := NewClusterer().Cluster(far, letter); len(got) != 2 {
		t.Errorf("10pt gap: expected 2 clusters, got %d", len(got))
	}
}

func TestClusterer_Partition(t *testing.T) {
	var prims []model.VectorPrimitive
	for i := 0; i < 50; i++ {
		x := float64((i * 37) % 500)
		y := float64((i * 53) % 700)
		prims = append(prims, prim(i, x, y, x+8, y+8))
	}

	clusters := NewClusterer().Cluster(prims, letter)

	seen := make(map[int]int)
	for ci, c := range clusters {
		union := c.Members[0].Box
		for _, m := range c.Members {
			seen[m.Seq]++
			union = union.Union(m.Box)
		}
		if union != c.Box {
			t.Errorf("cluster %d box %v is not the union %v", ci, c.Box, union)
		}
	}
	if len(seen) != len(prims) {
		t.Errorf("clusters cover %d primitives, want %d", len(seen), len(prims))
	}
	for seq, n := range seen {
		if n != 1 {
			t.Errorf("primitive %d appears in %d clusters", seq, n)
		}
	}
}

func TestClusterer_BackgroundIsolated(t *testing.T) {
	prims := []model.VectorPrimitive{
		prim(1, 0, 0, 612, 792), // page background
		prim(2, 100, 100, 200, 200),
		prim(3, 300, 300, 400, 400),
	}

	clusters := NewClusterer().Cluster(prims, letter)
	if len(clusters) != 3 {
		t.Fatalf("expected background to stay alone, got %d clusters", len(clusters))
	}
}

func TestClusterer_OrderIndependent(t *testing.T) {
	a := []model.VectorPrimitive{
		prim(1, 100, 100, 150, 150),
		prim(2, 300, 500, 350, 550),
		prim(3, 148, 120, 180, 160),
	}
	b := []model.VectorPrimitive{a[2], a[0], a[1]}

	ca := NewClusterer().Cluster(a, letter)
	cb := NewClusterer().Cluster(b, letter)
	if len(ca) != len(cb) {
		t.Fatalf("cluster counts differ: %d vs %d", len(ca), len(cb))
	}
	for i := range ca {
		if ca[i].Box != cb[i].Box {
			t.Errorf("cluster %d differs: %v vs %v", i, ca[i].Box, cb[i].Box)
		}
	}
}

func TestUnionFind(t *testing.T) {
	uf := newUnionFind(6)
	uf.union(0, 1)
	uf.union(2, 3)
	uf.union(1, 3)

	if uf.find(0) != uf.find(2) {
		t.Error("0 and 2 should be connected")
	}
	if uf.find(4) == uf.find(0) || uf.find(4) == uf.find(5) {
		t.Error("4 should be alone")
	}
}
