package layout

import (
	"testing"

	"github.com/tsawler/figura/model"
)

func pagesWith(n int, box func(page int) []model.Box) []PageBoxes {
	pages := make([]PageBoxes, n)
	for i := range pages {
		pages[i] = PageBoxes{PageIndex: i, PageBox: letter, Boxes: box(i)}
	}
	return pages
}

func TestRepetitionIndex_Tolerance(t *testing.T) {
	// Footer jitters by 2pt between pages, well within tolerance.
	pages := pagesWith(4, func(i int) []model.Box {
		d := float64(i % 2 * 2)
		return []model.Box{{X0: 72 + d, Y0: 20, X1: 540 + d, Y1: 60}}
	})
	idx := NewRepetitionIndex(pages, 4, DefaultRepetitionConfig())

	if got := idx.Occurrences(0, pages[0].Boxes[0]); got != 4 {
		t.Errorf("occurrences = %d, want 4", got)
	}
	if !idx.IsFurniture(0, pages[0].Boxes[0]) {
		t.Error("jittered footer should be furniture")
	}
}

func TestRepetitionIndex_DifferentSizeKept(t *testing.T) {
	pages := pagesWith(5, func(i int) []model.Box {
		if i == 4 {
			// Same top-left corner, but a much larger box.
			return []model.Box{{X0: 50, Y0: 500, X1: 400, Y1: 770}}
		}
		return []model.Box{{X0: 50, Y0: 720, X1: 150, Y1: 770}}
	})
	idx := NewRepetitionIndex(pages, 5, DefaultRepetitionConfig())

	if idx.IsFurniture(4, pages[4].Boxes[0]) {
		t.Error("one-off box at a similar position should be kept")
	}
	if !idx.IsFurniture(0, pages[0].Boxes[0]) {
		t.Error("recurring box should be furniture")
	}
}

func TestRepetitionIndex_Majority(t *testing.T) {
	box := model.Box{X0: 100, Y0: 100, X1: 300, Y1: 300}

	// On exactly half of 6 pages: not more than half.
	half := pagesWith(6, func(i int) []model.Box {
		if i < 3 {
			return []model.Box{box}
		}
		return nil
	})
	if NewRepetitionIndex(half, 6, DefaultRepetitionConfig()).IsFurniture(0, box) {
		t.Error("box on half the pages is not a majority")
	}

	most := pagesWith(6, func(i int) []model.Box {
		if i < 4 {
			return []model.Box{box}
		}
		return nil
	})
	if !NewRepetitionIndex(most, 6, DefaultRepetitionConfig()).IsFurniture(0, box) {
		t.Error("box on 4 of 6 pages is a majority")
	}
}

func TestRepetitionIndex_MinPages(t *testing.T) {
	box := model.Box{X0: 100, Y0: 100, X1: 300, Y1: 300}
	pages := pagesWith(2, func(int) []model.Box { return []model.Box{box} })

	idx := NewRepetitionIndex(pages, 2, DefaultRepetitionConfig())
	if idx.Active() {
		t.Error("index should be inactive below MinPages")
	}
	if idx.IsFurniture(0, box) {
		t.Error("nothing is furniture in a two-page document")
	}
}

func TestRepetitionIndex_DuplicatesOnOnePage(t *testing.T) {
	// Many copies on a single page still count once.
	box := model.Box{X0: 100, Y0: 100, X1: 300, Y1: 300}
	pages := pagesWith(4, func(i int) []model.Box {
		if i == 0 {
			return []model.Box{box, box, box, box}
		}
		return nil
	})
	idx := NewRepetitionIndex(pages, 4, DefaultRepetitionConfig())
	if got := idx.Occurrences(0, box); got != 1 {
		t.Errorf("occurrences = %d, want 1", got)
	}
}

func TestRepetitionIndex_Nil(t *testing.T) {
	var idx *RepetitionIndex
	if idx.IsFurniture(0, model.Box{X1: 10, Y1: 10}) {
		t.Error("nil index should never report furniture")
	}
}
