package layout

import (
	"fmt"

	"flowbook/common"
)

// SolveOptions control page count search.
type SolveOptions struct {
	// CoarseStep is relative change of target height per coarse iteration.
	CoarseStep float64
	// FineStep is absolute change of target height per fine iteration.
	FineStep         float64
	CoarseIterations int
	FineIterations   int
	// SeedAttempts limits restarts with degraded seed for shuffled order.
	SeedAttempts int
}

// DefaultSolveOptions returns search parameters used by the command line.
func DefaultSolveOptions() SolveOptions {
	return SolveOptions{
		CoarseStep:       0.01,
		FineStep:         0.25,
		CoarseIterations: 500,
		FineIterations:   2000,
		SeedAttempts:     16,
	}
}

// Probe is a single page count query made by the solver.
type Probe struct {
	Height     float64
	Pages      int
	Incomplete bool
}

// Solution is the target height selected by Solve.
type Solution struct {
	TargetHeight float64
	PageCount    int
	// Incomplete is set when no height produced desired page count with
	// filled last row, solution is the best effort.
	Incomplete bool
	// Seed actually used for shuffled order.
	Seed  uint64
	Trace []Probe
}

// Solve searches for target image height which lays images out onto
// exactly desired number of pages. Every probe is a complete layout run
// over a private copy of images.
func Solve(images []*Image, pages []int, desired int, opts Options, sopts SolveOptions) (Solution, error) {
	if err := opts.Validate(); err != nil {
		return Solution{}, err
	}
	if desired <= 0 {
		return Solution{}, &ConfigError{Field: "page count", Reason: fmt.Sprintf("%d is not positive", desired)}
	}
	if sopts.CoarseStep <= 0 || sopts.FineStep <= 0 {
		return Solution{}, &ConfigError{Field: "solver steps", Reason: "must be positive"}
	}

	var first Solution
	for attempt := 0; attempt < max(1, sopts.SeedAttempts); attempt++ {
		sol := solve(images, pages, desired, opts, sopts)
		if attempt == 0 {
			first = sol
		}
		if !sol.Incomplete {
			return sol, nil
		}
		if opts.Ordering != common.OrderingModeShuffle {
			break
		}
		opts.Seed--
	}
	return first, nil
}

type prober struct {
	ordered []*Image
	pages   []int
	opts    Options
	cache   map[float64]Probe
	trace   []Probe
}

func (p *prober) count(h float64) Probe {
	if pr, ok := p.cache[h]; ok {
		return pr
	}
	o := p.opts
	o.TargetHeight = h
	n, incomplete := CountPages(p.ordered, p.pages, o)
	pr := Probe{Height: h, Pages: n, Incomplete: incomplete}
	p.cache[h] = pr
	p.trace = append(p.trace, pr)
	return pr
}

func solve(images []*Image, pages []int, desired int, opts Options, sopts SolveOptions) Solution {
	p := &prober{
		ordered: OrderImages(images, &opts),
		pages:   pages,
		opts:    opts,
		cache:   make(map[float64]Probe),
	}
	step := 1 + sopts.CoarseStep

	// Coarse phase: walk until page count crosses desired value, remember
	// largest height known to produce no more than desired pages.
	h := opts.TargetHeight
	pr := p.count(h)
	low, haveLow := 0.0, false
	if pr.Pages > desired {
		for i := 0; pr.Pages > desired && i < sopts.CoarseIterations; i++ {
			h /= step
			pr = p.count(h)
		}
		if pr.Pages <= desired {
			low, haveLow = h, true
		}
	} else {
		for i := 0; pr.Pages <= desired && i < sopts.CoarseIterations; i++ {
			low, haveLow = h, true
			h *= step
			pr = p.count(h)
		}
	}

	if !haveLow {
		// every height tried overflows desired count, settle for the
		// fewest pages at the largest height producing them
		fewest := p.trace[0]
		for _, t := range p.trace[1:] {
			if t.Pages < fewest.Pages || (t.Pages == fewest.Pages && t.Height > fewest.Height) {
				fewest = t
			}
		}
		return Solution{TargetHeight: fewest.Height, PageCount: fewest.Pages, Incomplete: true, Seed: opts.Seed, Trace: p.trace}
	}

	// Fine phase.
	var best, exact, perfect *Probe
	h = low
	for range sopts.FineIterations {
		pr := p.count(h)
		if pr.Pages > desired {
			break
		}
		best = &pr
		if pr.Pages == desired {
			exact = &pr
			if !pr.Incomplete {
				perfect = &pr
			}
		}
		h += sopts.FineStep
	}

	chosen := best
	switch {
	case perfect != nil:
		chosen = perfect
	case exact != nil:
		chosen = exact
	}
	return Solution{
		TargetHeight: chosen.Height,
		PageCount:    chosen.Pages,
		Incomplete:   chosen != perfect,
		Seed:         opts.Seed,
		Trace:        p.trace,
	}
}
