package layout

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"reflect"
	"slices"
	"testing"

	"flowbook/common"
)

func randomImages(n int, seed uint64) []*Image {
	rnd := rand.New(rand.NewPCG(seed, 1))
	aspects := []float64{0.5, 0.66, 0.75, 1, 1.33, 1.5, 1.78, 2.4, 3.5, 5}
	out := make([]*Image, n)
	for i := range n {
		h := 400 + rnd.IntN(2000)
		a := aspects[rnd.IntN(len(aspects))]
		out[i] = img(fmt.Sprintf("img%03d", i), int(float64(h)*a), h)
	}
	return out
}

func TestFlowPageBreak(t *testing.T) {
	opts := testOptions()
	opts.PageWidth = 300

	res, err := Flow(images(3, 300, 200), pageRange(1, 3), opts)
	if err != nil {
		t.Fatalf("Flow() error: %v", err)
	}
	if len(res.Pages) != 2 {
		t.Fatalf("got %d pages, want 2", len(res.Pages))
	}
	if n := len(res.Pages[0].Placements); n != 2 {
		t.Errorf("first page: %d placements, want 2", n)
	}
	if n := len(res.Pages[1].Placements); n != 1 {
		t.Errorf("second page: %d placements, want 1", n)
	}
	if res.Pages[1].Placements[0].Y != 0 {
		t.Errorf("deferred row starts at %g", res.Pages[1].Placements[0].Y)
	}
}

func TestFlowExhausted(t *testing.T) {
	opts := testOptions()
	opts.OddPagesOnly = true

	res, err := Flow(images(12, 300, 200), pageRange(1, 4), opts)
	var ee *ExhaustedError
	if !errors.As(err, &ee) {
		t.Fatalf("Flow() error = %v, want ExhaustedError", err)
	}
	if ee.Unplaced != 4 || res.Unplaced != 4 {
		t.Errorf("unplaced %d/%d, want 4", ee.Unplaced, res.Unplaced)
	}
	var numbers []int
	for _, p := range res.Pages {
		numbers = append(numbers, p.Number)
	}
	if !slices.Equal(numbers, []int{1, 3}) {
		t.Errorf("used pages %v, want [1 3]", numbers)
	}
}

func TestFlowDoubleSpreads(t *testing.T) {
	opts := testOptions()
	opts.AllowDoubleSpreads = true

	res, err := Flow(images(8, 300, 200), pageRange(1, 3), opts)
	if err != nil {
		t.Fatalf("Flow() error: %v", err)
	}
	if len(res.Pages) != 2 || res.Pages[0].Double || !res.Pages[1].Double || res.Pages[1].Number != 2 {
		t.Fatalf("unexpected pages: %+v", res.Pages)
	}
	if res.PageCount() != 3 {
		t.Errorf("PageCount() = %d, want 3", res.PageCount())
	}
	rows := rowsOf(res.Pages[1])
	if len(rows) != 1 || len(rows[0]) != 4 {
		t.Errorf("spread should take single row of 4 images")
	}

	opts.DoubleSpreadsOnly = true
	res, err = Flow(images(8, 300, 200), pageRange(1, 5), opts)
	if err != nil {
		t.Fatalf("Flow() error: %v", err)
	}
	if len(res.Pages) != 1 || res.Pages[0].Number != 2 || !res.Pages[0].Double {
		t.Errorf("unexpected pages: %+v", res.Pages)
	}
}

func TestFlowMirroredSpreadWidth(t *testing.T) {
	opts := testOptions()
	opts.Margins = Margins{Left: 42, Right: 28}
	opts.Mirror = true
	if w := opts.contentWidth(true); !near(w, 1144) {
		t.Errorf("mirrored spread width %g, want 1144", w)
	}
	opts.Mirror = false
	if w := opts.contentWidth(true); !near(w, 1130) {
		t.Errorf("spread width %g, want 1130", w)
	}
}

func TestFlowInvalidOptions(t *testing.T) {
	for _, tc := range []struct {
		name string
		mod  func(o *Options)
	}{
		{"no page", func(o *Options) { o.PageWidth = 0 }},
		{"margins", func(o *Options) { o.Margins.Left, o.Margins.Right = 300, 300 }},
		{"vertical margins", func(o *Options) { o.Margins.Top = 400 }},
		{"target", func(o *Options) { o.TargetHeight = -1 }},
		{"spacing", func(o *Options) { o.SpacingX = -1 }},
		{"generosity", func(o *Options) { o.FillGenerosity = 0.5 }},
		{"panoramic", func(o *Options) { o.PanoramicAspect = 0 }},
		{"parity", func(o *Options) { o.OddPagesOnly, o.EvenPagesOnly = true, true }},
		{"ordering", func(o *Options) { o.Ordering = common.OrderingMode(42) }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			opts := testOptions()
			tc.mod(&opts)
			_, err := Flow(images(3, 300, 200), pageRange(1, 3), opts)
			var ce *ConfigError
			if !errors.As(err, &ce) {
				t.Errorf("Flow() error = %v, want ConfigError", err)
			}
		})
	}
}

func propertyOptions() map[string]Options {
	base := testOptions()
	base.SpacingX, base.SpacingY = 6, 6
	base.Margins = Margins{Top: 20, Bottom: 20, Left: 42, Right: 28}
	base.TargetHeight = 120

	out := map[string]Options{"sequential": base}

	o := base
	o.ScaleRowToFill = true
	out["fill"] = o

	o = base
	o.Ordering = common.OrderingModeSmart
	out["smart"] = o

	o = base
	o.Ordering = common.OrderingModeSmartFine
	o.AllowDoubleSpreads = true
	o.Mirror = true
	out["smart spreads"] = o

	o = base
	o.Ordering = common.OrderingModeShuffle
	o.Seed = 7
	o.AllowMixedAspect = true
	out["shuffle"] = o

	o = base
	o.Overfill = true
	out["overfill"] = o

	o = base
	o.Ordering = common.OrderingModeSmart
	o.Overfill = true
	o.AllowDoubleSpreads = true
	out["smart overfill spreads"] = o
	return out
}

func TestFlowProperties(t *testing.T) {
	in := randomImages(60, 3)

	for name, opts := range propertyOptions() {
		t.Run(name, func(t *testing.T) {
			res, err := Flow(in, pageRange(1, 200), opts)
			if err != nil {
				t.Fatalf("Flow() error: %v", err)
			}
			if res.Unplaced != 0 {
				t.Errorf("queue not drained: %d unplaced", res.Unplaced)
			}

			// conservation, overfill repeats carried rows on the next page
			// only
			seen := make(map[*Image]int)
			for i, p := range res.Pages {
				for _, pl := range p.Placements {
					prev, ok := seen[pl.Image]
					if ok && (!opts.Overfill || prev != i-1) {
						t.Fatalf("image %s placed on pages %d and %d", pl.Image.ID, res.Pages[prev].Number, p.Number)
					}
					seen[pl.Image] = i
				}
			}
			if len(seen) != len(in) {
				t.Errorf("placed %d distinct images, want %d", len(seen), len(in))
			}

			for i, p := range res.Pages {
				width := opts.contentWidth(p.Double)
				rows := rowsOf(p)

				// row width bound
				for _, r := range rows {
					w := opts.SpacingX * float64(len(r)-1)
					for _, pl := range r {
						w += pl.Width
					}
					if !almostLE(w, width) {
						t.Errorf("page %d: row of %d is %g wide, available %g", p.Number, len(r), w, width)
					}
				}

				// page height bound, carried rows may stick out
				if opts.Overfill {
					if i > 0 {
						rows = rows[1:]
					}
					if len(rows) > 0 {
						rows = rows[:len(rows)-1]
					}
				}
				var h float64
				for _, r := range rows {
					h += r[0].Height
				}
				h += opts.SpacingY * float64(len(rows)-1)
				if !almostLE(h, opts.contentHeight()) {
					t.Errorf("page %d: rows take %g, available %g", p.Number, h, opts.contentHeight())
				}
			}
		})
	}
}

func TestFlowDeterministic(t *testing.T) {
	in := randomImages(40, 11)
	for name, opts := range propertyOptions() {
		t.Run(name, func(t *testing.T) {
			a, _ := Flow(in, pageRange(1, 20), opts)
			b, _ := Flow(in, pageRange(1, 20), opts)
			if !reflect.DeepEqual(a, b) {
				t.Error("repeated runs differ")
			}
		})
	}
}

func TestFlowDoesNotModifyInput(t *testing.T) {
	in := randomImages(20, 5)
	before := slices.Clone(in)
	opts := testOptions()
	opts.Ordering = common.OrderingModeSmart

	if _, err := Flow(in, pageRange(1, 20), opts); err != nil {
		t.Fatalf("Flow() error: %v", err)
	}
	if !slices.Equal(in, before) {
		t.Error("input slice reordered")
	}
}

func TestCountPagesExtendsDestinations(t *testing.T) {
	opts := testOptions()
	opts.PageWidth = 300

	n, incomplete := CountPages(images(5, 300, 200), []int{1}, opts)
	if n != 3 {
		t.Errorf("CountPages() = %d, want 3", n)
	}
	if incomplete {
		t.Error("single image row filling the width is complete")
	}
}

func TestSmartUnfilledRowGoesLast(t *testing.T) {
	opts := testOptions()
	opts.Ordering = common.OrderingModeSmart
	opts.ScaleRowToFill = true
	// rows of two, the final one cannot be stretched within generosity
	in := images(8, 300, 200)

	res, err := Flow(in, pageRange(1, 4), opts)
	if err != nil {
		t.Fatalf("Flow() error: %v", err)
	}
	if len(res.Pages) != 2 {
		t.Fatalf("got %d pages, want 2", len(res.Pages))
	}
	if res.Pages[0].Incomplete {
		t.Error("unfilled row served before the end of the layout")
	}
	if !res.Pages[1].Incomplete || !res.Incomplete {
		t.Errorf("incomplete flags: page %v, result %v, want both set", res.Pages[1].Incomplete, res.Incomplete)
	}
	rows := rowsOf(res.Pages[1])
	last := rows[len(rows)-1]
	if w := last[0].Width + last[1].Width; w >= 600 {
		t.Errorf("final row is %g wide, expected it left unstretched", w)
	}

	if n, incomplete := CountPages(in, pageRange(1, 4), opts); n != 2 || !incomplete {
		t.Errorf("CountPages() = %d, %v, want 2, true", n, incomplete)
	}
}

func TestSmartSourceRotation(t *testing.T) {
	opts := testOptions()
	opts.TargetHeight = 100
	opts.Ordering = common.OrderingModeSmart
	var in []*Image
	for _, a := range []int{3, 4, 5, 6, 7} {
		in = append(in, img(fmt.Sprintf("a%d", a), 100*a, 100))
	}
	src := newRowSource(NewQueue(in), &opts)

	var got []string
	for {
		r, ok := src.nextRow(600)
		if !ok {
			break
		}
		got = append(got, r.Images[0].Image.ID)
	}
	if want := []string{"a3", "a6", "a4", "a5", "a7"}; !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestSmartSourceWidthChange(t *testing.T) {
	opts := testOptions()
	opts.Ordering = common.OrderingModeSmart
	in := randomImages(12, 9)
	q := NewQueue(in)
	src := newRowSource(q, &opts)

	r, ok := src.nextRow(600)
	if !ok {
		t.Fatal("no row")
	}
	src.ungetRow(r)
	r, _ = src.nextRow(600)
	served := make(map[*Image]bool)
	for _, si := range r.Images {
		served[si.Image] = true
	}

	src.onWidthChange(1200)
	var want []*Image
	for _, i := range in {
		if !served[i] {
			want = append(want, i)
		}
	}
	if got := q.Slice(); !slices.Equal(got, want) {
		t.Errorf("queue after width change has %d images in wrong order, want %d", len(got), len(want))
	}
}

func TestSmartSourceWidthChangeServesHandedBackFirst(t *testing.T) {
	opts := testOptions()
	opts.Ordering = common.OrderingModeSmart
	src := newRowSource(NewQueue(randomImages(30, 9)), &opts)

	r1, ok1 := src.nextRow(600)
	r2, ok2 := src.nextRow(600)
	if !ok1 || !ok2 {
		t.Fatal("not enough rows")
	}
	// page break carrying two rows over
	src.ungetRow(r2)
	src.ungetRow(r1)

	var want []*Image
	for _, r := range []Row{r1, r2} {
		for _, si := range r.Images {
			want = append(want, si.Image)
		}
	}

	var got []*Image
	for len(got) < len(want) {
		r, ok := src.nextRow(1200)
		if !ok {
			break
		}
		for _, si := range r.Images {
			got = append(got, si.Image)
		}
	}
	if len(got) < len(want) || !slices.Equal(got[:len(want)], want) {
		t.Errorf("handed back rows were not served first after width change")
	}
}
