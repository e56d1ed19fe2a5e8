package layout

import (
	"fmt"
	"math"
	"testing"
)

func img(id string, w, h int) *Image {
	return &Image{ID: id, Source: id + ".jpg", Width: w, Height: h}
}

func images(n, w, h int) []*Image {
	out := make([]*Image, n)
	for i := range n {
		out[i] = img(fmt.Sprintf("img%02d", i), w, h)
	}
	return out
}

// testOptions returns 600x400 page with no margins and no spacing.
func testOptions() Options {
	opts := DefaultOptions()
	opts.PageWidth, opts.PageHeight = 600, 400
	return opts
}

func pageRange(from, to int) []int {
	out := make([]int, 0, to-from+1)
	for n := from; n <= to; n++ {
		out = append(out, n)
	}
	return out
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func checkSize(t *testing.T, name string, si ScaledImage, w, h float64) {
	t.Helper()
	if !near(si.Width(), w) || !near(si.Height(), h) {
		t.Errorf("%s: got %gx%g, want %gx%g", name, si.Width(), si.Height(), w, h)
	}
}

// rowsOf groups page placements by vertical position.
func rowsOf(p Page) [][]Placement {
	var (
		out  [][]Placement
		last = math.NaN()
	)
	for _, pl := range p.Placements {
		if len(out) == 0 || !near(pl.Y, last) {
			out = append(out, nil)
			last = pl.Y
		}
		out[len(out)-1] = append(out[len(out)-1], pl)
	}
	return out
}
