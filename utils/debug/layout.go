package debug

import (
	"math"

	"flowbook/layout"
)

// Layout dumps computed layout: options it was produced with, optimizer
// search trace when available and every placement.
func Layout(res *layout.Result, opts *layout.Options, sol *layout.Solution) string {
	tw := NewTreeWriter()

	tw.Line(0, "options")
	tw.Line(1, "page %s", sizeOf(opts.PageWidth, opts.PageHeight))
	tw.Line(1, "margins top=%s bottom=%s left=%s right=%s",
		formatValue(opts.Margins.Top), formatValue(opts.Margins.Bottom), formatValue(opts.Margins.Left), formatValue(opts.Margins.Right))
	tw.Line(1, "spacing x=%s y=%s", formatValue(opts.SpacingX), formatValue(opts.SpacingY))
	tw.Field(1, "target height", opts.TargetHeight)
	tw.Field(1, "ordering", opts.Ordering)
	tw.Field(1, "sort", opts.SortField)
	if opts.Reverse {
		tw.Line(1, "reverse")
	}
	tw.Field(1, "seed", opts.Seed)

	if sol != nil {
		tw.Line(0, "optimizer")
		tw.Field(1, "target height", sol.TargetHeight)
		tw.Field(1, "pages", sol.PageCount)
		tw.Field(1, "incomplete", sol.Incomplete)
		tw.Field(1, "seed", sol.Seed)
		tw.Line(1, "probes %d", len(sol.Trace))
		for i, p := range sol.Trace {
			tw.Line(2, "[%d] height=%s pages=%d incomplete=%t", i, formatValue(p.Height), p.Pages, p.Incomplete)
		}
	}

	if res == nil {
		return tw.String()
	}
	tw.Line(0, "result pages=%d placed=%d unplaced=%d incomplete=%t", res.PageCount(), res.Placed(), res.Unplaced, res.Incomplete)
	for _, page := range res.Pages {
		switch {
		case page.Double:
			tw.Line(1, "page %d-%d spread", page.Number, page.Number+1)
		default:
			tw.Line(1, "page %d", page.Number)
		}
		if page.Incomplete {
			tw.Line(2, "incomplete")
		}
		for _, pl := range page.Placements {
			tw.Line(2, "%s at (%s, %s) size %s scale %s",
				pl.Image.ID, round(pl.X), round(pl.Y), sizeOf(pl.Width, pl.Height), formatValue(round3(pl.Scale)))
			if len(pl.Image.Source) > 0 {
				tw.TextBlock(3, "source", pl.Image.Source)
			}
		}
	}
	return tw.String()
}

func sizeOf(w, h float64) string {
	return round(w) + "x" + round(h)
}

// round keeps two decimals, enough to compare dumps by eye.
func round(v float64) string {
	return formatValue(math.Round(v*100) / 100)
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
