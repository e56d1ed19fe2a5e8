package layout

import (
	"errors"
	"slices"
	"testing"

	"flowbook/common"
)

func TestSolveIdenticalImages(t *testing.T) {
	opts := testOptions()
	in := images(10, 300, 200)

	sol, err := Solve(in, pageRange(1, 3), 3, opts, DefaultSolveOptions())
	if err != nil {
		t.Fatalf("Solve() error: %v", err)
	}
	if sol.PageCount != 3 || sol.Incomplete {
		t.Fatalf("got %d pages (incomplete %v), want 3 complete", sol.PageCount, sol.Incomplete)
	}
	if !near(sol.TargetHeight, 200) {
		t.Errorf("TargetHeight = %g, want 200", sol.TargetHeight)
	}

	// page count never decreases with height
	trace := slices.Clone(sol.Trace)
	slices.SortFunc(trace, func(a, b Probe) int {
		switch {
		case a.Height < b.Height:
			return -1
		case a.Height > b.Height:
			return 1
		}
		return 0
	})
	for i := 1; i < len(trace); i++ {
		if trace[i].Pages < trace[i-1].Pages {
			t.Errorf("%d pages at %g, %d pages at %g", trace[i-1].Pages, trace[i-1].Height, trace[i].Pages, trace[i].Height)
		}
	}
}

func TestPageCountMonotonic(t *testing.T) {
	opts := testOptions()
	in := images(10, 300, 200)

	prev := 0
	for h := 20.0; h <= 400; h += 7 {
		opts.TargetHeight = h
		n, _ := CountPages(in, []int{1}, opts)
		if n < prev {
			t.Fatalf("height %g: %d pages, fewer than %d before", h, n, prev)
		}
		prev = n
	}
}

func TestSolveRoundTrip(t *testing.T) {
	in := randomImages(50, 21)
	for _, tc := range []struct {
		name string
		mod  func(o *Options)
	}{
		{"sequential", func(o *Options) {}},
		{"smart", func(o *Options) { o.Ordering = common.OrderingModeSmart }},
		{"shuffle", func(o *Options) { o.Ordering, o.Seed = common.OrderingModeShuffle, 5 }},
		{"fill spreads", func(o *Options) { o.ScaleRowToFill, o.AllowDoubleSpreads = true, true }},
		{"fill mixed", func(o *Options) { o.ScaleRowToFill, o.AllowMixedAspect = true, true }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			opts := testOptions()
			opts.SpacingX, opts.SpacingY = 4, 4
			tc.mod(&opts)

			sol, err := Solve(in, pageRange(1, 2), 6, opts, DefaultSolveOptions())
			if err != nil {
				t.Fatalf("Solve() error: %v", err)
			}
			if len(sol.Trace) == 0 {
				t.Fatal("empty trace")
			}

			opts.TargetHeight, opts.Seed = sol.TargetHeight, sol.Seed
			res, err := Flow(in, pageRange(1, 100), opts)
			if err != nil {
				t.Fatalf("Flow() error: %v", err)
			}
			if res.PageCount() != sol.PageCount {
				t.Errorf("layout takes %d pages, solver reported %d", res.PageCount(), sol.PageCount)
			}
			if sol.PageCount <= 6 {
				return
			}
			// stretched rows of same aspect images may never fit, overshoot
			// has to be reported and be the best count seen
			if !sol.Incomplete {
				t.Errorf("solver overshot to %d pages without reporting it", sol.PageCount)
			}
			for _, pr := range sol.Trace {
				if pr.Pages < sol.PageCount {
					t.Errorf("%d pages at %g, solver settled for %d", pr.Pages, pr.Height, sol.PageCount)
					break
				}
			}
		})
	}
}

func TestSolveUnreachable(t *testing.T) {
	opts := testOptions()
	opts.ScaleRowToFill = true
	// panoramas are stretched to full width whatever the target height,
	// four rows fit a page
	in := images(5, 1200, 200)

	sol, err := Solve(in, pageRange(1, 2), 1, opts, DefaultSolveOptions())
	if err != nil {
		t.Fatalf("Solve() error: %v", err)
	}
	if !sol.Incomplete {
		t.Error("unreachable page count reported as solved")
	}
	if sol.PageCount != 2 {
		t.Errorf("PageCount = %d, want 2", sol.PageCount)
	}
	if !near(sol.TargetHeight, opts.TargetHeight) {
		t.Errorf("TargetHeight = %g, want %g", sol.TargetHeight, opts.TargetHeight)
	}

	opts.TargetHeight = sol.TargetHeight
	res, err := Flow(in, pageRange(1, 10), opts)
	if err != nil {
		t.Fatalf("Flow() error: %v", err)
	}
	if res.PageCount() != sol.PageCount {
		t.Errorf("layout takes %d pages, solver reported %d", res.PageCount(), sol.PageCount)
	}
}

func TestSolveInvalid(t *testing.T) {
	opts := testOptions()
	var ce *ConfigError

	if _, err := Solve(images(3, 10, 10), nil, 0, opts, DefaultSolveOptions()); !errors.As(err, &ce) {
		t.Errorf("zero page count: error = %v", err)
	}
	sopts := DefaultSolveOptions()
	sopts.FineStep = 0
	if _, err := Solve(images(3, 10, 10), nil, 2, opts, sopts); !errors.As(err, &ce) {
		t.Errorf("zero step: error = %v", err)
	}
	opts.PageHeight = 0
	if _, err := Solve(images(3, 10, 10), nil, 2, opts, DefaultSolveOptions()); !errors.As(err, &ce) {
		t.Errorf("bad options: error = %v", err)
	}
}
