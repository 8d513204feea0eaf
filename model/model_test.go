package model

import (
	"image"
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestNewBoxNormalizes(t *testing.T) {
	got := NewBox(100, 80, 10, 20)
	want := Box{X0: 10, Y0: 20, X1: 100, Y1: 80}
	if got != want {
		t.Errorf("NewBox() = %+v, want %+v", got, want)
	}
}

func TestBoxFromPoints(t *testing.T) {
	tests := []struct {
		name   string
		points []Point
		want   Box
	}{
		{"empty", nil, Box{}},
		{"single", []Point{{5, 5}}, Box{5, 5, 5, 5}},
		{"spread", []Point{{10, 70}, {50, 20}, {30, 90}}, Box{10, 20, 50, 90}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BoxFromPoints(tt.points...); got != tt.want {
				t.Errorf("BoxFromPoints() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestBoxMeasures(t *testing.T) {
	b := Box{X0: 10, Y0: 20, X1: 110, Y1: 70}

	if b.Width() != 100 || b.Height() != 50 {
		t.Errorf("size = %vx%v, want 100x50", b.Width(), b.Height())
	}
	if b.Area() != 5000 {
		t.Errorf("Area() = %v, want 5000", b.Area())
	}
	if b.AspectRatio() != 2 {
		t.Errorf("AspectRatio() = %v, want 2", b.AspectRatio())
	}
	if b.LongSide() != 100 || b.ShortSide() != 50 {
		t.Errorf("sides = %v/%v, want 100/50", b.LongSide(), b.ShortSide())
	}
	if c := b.Center(); c != (Point{60, 45}) {
		t.Errorf("Center() = %v, want {60 45}", c)
	}
	if (Box{X0: 5, Y0: 5, X1: 5, Y1: 10}).Area() != 0 {
		t.Error("zero-width box should have zero area")
	}
}

func TestBoxIoU(t *testing.T) {
	tests := []struct {
		name string
		a, b Box
		want float64
	}{
		{"identical", Box{0, 0, 10, 10}, Box{0, 0, 10, 10}, 1},
		{"disjoint", Box{0, 0, 10, 10}, Box{20, 20, 30, 30}, 0},
		{"touching", Box{0, 0, 10, 10}, Box{10, 0, 20, 10}, 0},
		{"half overlap", Box{0, 0, 10, 10}, Box{5, 0, 15, 10}, 50.0 / 150.0},
		{"contained", Box{0, 0, 10, 10}, Box{0, 0, 5, 10}, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.IoU(tt.b); !almostEqual(got, tt.want) {
				t.Errorf("IoU() = %v, want %v", got, tt.want)
			}
			if got := tt.b.IoU(tt.a); !almostEqual(got, tt.want) {
				t.Errorf("IoU() is not symmetric: %v", got)
			}
		})
	}
}

func TestBoxContainedFraction(t *testing.T) {
	outer := Box{0, 0, 100, 100}
	inner := Box{10, 10, 20, 20}
	straddling := Box{90, 0, 110, 10}

	if got := inner.ContainedFraction(outer); got != 1 {
		t.Errorf("inner.ContainedFraction() = %v, want 1", got)
	}
	if got := straddling.ContainedFraction(outer); !almostEqual(got, 0.5) {
		t.Errorf("straddling.ContainedFraction() = %v, want 0.5", got)
	}
	if got := outer.ContainedFraction(inner); !almostEqual(got, 0.01) {
		t.Errorf("outer.ContainedFraction() = %v, want 0.01", got)
	}
}

func TestBoxGap(t *testing.T) {
	a := Box{0, 0, 10, 10}
	tests := []struct {
		name string
		b    Box
		want float64
	}{
		{"overlapping", Box{5, 5, 15, 15}, 0},
		{"horizontal", Box{13, 0, 20, 10}, 3},
		{"vertical", Box{0, 14, 10, 20}, 4},
		{"diagonal", Box{13, 14, 20, 20}, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.Gap(tt.b); !almostEqual(got, tt.want) {
				t.Errorf("Gap() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBoxThicken(t *testing.T) {
	line := Box{X0: 10, Y0: 50, X1: 110, Y1: 50}
	got := line.Thicken(2)
	want := Box{X0: 10, Y0: 49, X1: 110, Y1: 51}
	if got != want {
		t.Errorf("Thicken() = %+v, want %+v", got, want)
	}
	if !got.IsValid() {
		t.Error("thickened box should be valid")
	}
}

func TestReadingLess(t *testing.T) {
	top := Box{X0: 300, Y0: 600, X1: 400, Y1: 700}
	topLeft := Box{X0: 50, Y0: 650, X1: 100, Y1: 700}
	bottom := Box{X0: 0, Y0: 100, X1: 100, Y1: 200}

	if !ReadingLess(topLeft, top) {
		t.Error("equal tops should order left to right")
	}
	if !ReadingLess(top, bottom) {
		t.Error("higher box should come first")
	}
	if ReadingLess(bottom, top) {
		t.Error("lower box should not come first")
	}
}

func TestMatrixTransform(t *testing.T) {
	t.Run("identity", func(t *testing.T) {
		p := Point{10, 20}
		if got := Identity().Transform(p); got != p {
			t.Errorf("Identity.Transform(%v) = %v", p, got)
		}
	})

	t.Run("translation", func(t *testing.T) {
		got := Translate(100, 50).Transform(Point{10, 20})
		if got != (Point{110, 70}) {
			t.Errorf("Translate.Transform() = %v, want {110 70}", got)
		}
	})

	t.Run("scale", func(t *testing.T) {
		got := Scale(2, 3).Transform(Point{10, 20})
		if got != (Point{20, 60}) {
			t.Errorf("Scale.Transform() = %v, want {20 60}", got)
		}
	})
}

func TestMatrixMultiplyOrder(t *testing.T) {
	// translate.Multiply(scale) applies the translation first.
	combined := Translate(10, 20).Multiply(Scale(2, 2))
	got := combined.Transform(Point{5, 5})
	if got != (Point{30, 50}) {
		t.Errorf("combined.Transform() = %v, want {30 50}", got)
	}
}

func TestMatrixInvert(t *testing.T) {
	m := Matrix{2, 0.5, -1, 3, 40, -7}
	inv, ok := m.Invert()
	if !ok {
		t.Fatal("expected invertible matrix")
	}

	p := Point{12.5, -3}
	back := inv.Transform(m.Transform(p))
	if !almostEqual(back.X, p.X) || !almostEqual(back.Y, p.Y) {
		t.Errorf("round trip = %v, want %v", back, p)
	}

	if _, ok := (Matrix{1, 2, 2, 4, 0, 0}).Invert(); ok {
		t.Error("singular matrix should not invert")
	}
}

func TestMatrixTransformBox(t *testing.T) {
	// 90 degree rotation followed by a translation.
	m := Matrix{0, 1, -1, 0, 200, 0}
	got := m.TransformBox(Box{0, 0, 100, 50})
	want := Box{X0: 150, Y0: 0, X1: 200, Y1: 100}
	if got != want {
		t.Errorf("TransformBox() = %+v, want %+v", got, want)
	}
}

type fakeBitmap struct{ w, h int }

func (f fakeBitmap) ID() string                  { return "fake" }
func (f fakeBitmap) Size() (int, int)            { return f.w, f.h }
func (f fakeBitmap) Image() (image.Image, error) { return image.NewGray(image.Rect(0, 0, f.w, f.h)), nil }

func TestRasterCandidateEffectiveDPI(t *testing.T) {
	r := RasterCandidate{
		Bitmap: fakeBitmap{w: 300, h: 150},
		Box:    Box{X0: 0, Y0: 0, X1: 144, Y1: 72},
	}
	if got := r.EffectiveDPI(); !almostEqual(got, 150) {
		t.Errorf("EffectiveDPI() = %v, want 150", got)
	}
}

func TestCandidateConstructors(t *testing.T) {
	rc := NewRasterCandidate(2, 7, RasterCandidate{Box: Box{0, 0, 10, 10}})
	if rc.Kind != KindRaster || rc.Raster == nil || rc.Cluster != nil {
		t.Errorf("raster candidate not tagged correctly: %+v", rc)
	}
	if rc.Page != 2 || rc.Seq != 7 {
		t.Errorf("page/seq = %d/%d, want 2/7", rc.Page, rc.Seq)
	}

	vc := NewVectorCandidate(1, VectorCluster{
		Members: []VectorPrimitive{{Seq: 9}, {Seq: 4}, {Seq: 6}},
		Box:     Box{0, 0, 50, 50},
	})
	if vc.Kind != KindVector || vc.Cluster == nil || vc.Raster != nil {
		t.Errorf("vector candidate not tagged correctly: %+v", vc)
	}
	if vc.Seq != 4 {
		t.Errorf("Seq = %d, want lowest member 4", vc.Seq)
	}
}

func TestFigureRegionKinds(t *testing.T) {
	region := FigureRegion{Sources: []Candidate{
		{Kind: KindVector}, {Kind: KindRaster}, {Kind: KindVector},
	}}
	kinds := region.Kinds()
	if len(kinds) != 2 || kinds[0] != KindRaster || kinds[1] != KindVector {
		t.Errorf("Kinds() = %v, want [raster vector]", kinds)
	}
}

func TestDisplayListWithin(t *testing.T) {
	list := DisplayList{
		{Box: Box{0, 0, 10, 10}},
		{Box: Box{100, 100, 110, 110}},
		{Box: Box{5, 5, 50, 50}},
	}
	got := list.Within(Box{0, 0, 20, 20})
	if len(got) != 2 || got[0].Box != list[0].Box || got[1].Box != list[2].Box {
		t.Errorf("Within() = %+v", got)
	}
}
