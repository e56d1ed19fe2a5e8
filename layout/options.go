package layout

import (
	"fmt"

	"flowbook/common"
)

// Tuned values, changing any of them changes produced layouts.
const (
	DefaultAspectDeviation = 0.66
	DefaultFillGenerosity  = 1.2
	DefaultPanoramicAspect = 3.0
	// lastRowCutoff is fraction of page width below which smart ordering
	// treats the last packed row as natural end of the layout.
	lastRowCutoff = 0.75
)

// Margins around page content in points.
type Margins struct {
	Top    float64
	Bottom float64
	Left   float64
	Right  float64
}

// Options hold everything single layout run needs. Value is never changed
// by the engine.
type Options struct {
	PageWidth    float64
	PageHeight   float64
	Margins      Margins
	SpacingX     float64
	SpacingY     float64
	TargetHeight float64

	Mirror             bool
	CenterHorizontal   bool
	CenterVertical     bool
	SpreadHorizontal   bool
	SpreadVertical     bool
	ScaleRowToFill     bool
	AllowDoubleSpreads bool
	DoubleSpreadsOnly  bool
	Overfill           bool
	OddPagesOnly       bool
	EvenPagesOnly      bool
	AllowMixedAspect   bool

	PanoramicAspect float64
	AspectDeviation float64
	FillGenerosity  float64

	Ordering  common.OrderingMode
	SortField common.SortField
	Reverse   bool
	Seed      uint64
}

// DefaultOptions returns options with tuned thresholds and no page size.
func DefaultOptions() Options {
	return Options{
		TargetHeight:    200,
		PanoramicAspect: DefaultPanoramicAspect,
		AspectDeviation: DefaultAspectDeviation,
		FillGenerosity:  DefaultFillGenerosity,
	}
}

// contentHeight is vertical space available for rows.
func (o *Options) contentHeight() float64 {
	return o.PageHeight - (o.Margins.Top + o.Margins.Bottom)
}

// contentWidth is horizontal space available on a page or a spread.
func (o *Options) contentWidth(double bool) float64 {
	if !double {
		return o.PageWidth - (o.Margins.Left + o.Margins.Right)
	}
	if o.Mirror {
		// inner margins are not used across the fold
		return (o.PageWidth - o.Margins.Right) * 2
	}
	return o.PageWidth*2 - (o.Margins.Left + o.Margins.Right)
}

// Validate checks options before any packing is attempted.
func (o *Options) Validate() error {
	switch {
	case o.PageWidth <= 0 || o.PageHeight <= 0:
		return &ConfigError{Field: "page size", Reason: fmt.Sprintf("%gx%g is not positive", o.PageWidth, o.PageHeight)}
	case o.contentWidth(false) <= 0:
		return &ConfigError{Field: "margins", Reason: fmt.Sprintf("no horizontal space left on %g wide page", o.PageWidth)}
	case o.contentHeight() <= 0:
		return &ConfigError{Field: "margins", Reason: fmt.Sprintf("no vertical space left on %g high page", o.PageHeight)}
	case o.TargetHeight <= 0:
		return &ConfigError{Field: "target height", Reason: fmt.Sprintf("%g is not positive", o.TargetHeight)}
	case o.SpacingX < 0 || o.SpacingY < 0:
		return &ConfigError{Field: "spacing", Reason: "must not be negative"}
	case o.PanoramicAspect <= 0:
		return &ConfigError{Field: "panoramic aspect", Reason: fmt.Sprintf("%g is not positive", o.PanoramicAspect)}
	case o.AspectDeviation < 0:
		return &ConfigError{Field: "aspect deviation", Reason: "must not be negative"}
	case o.FillGenerosity < 1:
		return &ConfigError{Field: "fill generosity", Reason: fmt.Sprintf("%g is below 1", o.FillGenerosity)}
	case o.OddPagesOnly && o.EvenPagesOnly:
		return &ConfigError{Field: "page parity", Reason: "odd and even only are mutually exclusive"}
	case !o.Ordering.IsValid():
		return &ConfigError{Field: "ordering", Reason: o.Ordering.String()}
	}
	return nil
}
