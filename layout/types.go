// Package layout flows a set of images onto fixed size pages.
//
// Images are packed greedily into rows sized to the page width, rows are
// stacked into pages sized to the page height and the result is returned as
// immutable placements in page coordinates. The package is pure: it reads
// only image dimensions and never touches files.
package layout

import (
	"math"
	"time"
)

// Image describes single source image. It is owned by the caller and never
// modified during layout.
type Image struct {
	ID       string
	Source   string
	Width    int
	Height   int
	Modified time.Time
	// Rank is externally supplied sort key (EXIF value, rating, etc).
	Rank float64
}

// Aspect returns width to height ratio of the image. Malformed images report
// aspect 1.
func (img *Image) Aspect() float64 {
	if !img.valid() {
		return 1
	}
	return float64(img.Width) / float64(img.Height)
}

// Area returns image size in pixels.
func (img *Image) Area() int {
	return img.Width * img.Height
}

func (img *Image) valid() bool {
	return img.Width > 0 && img.Height > 0
}

// dims returns dimensions usable for scaling, malformed images are treated
// as 1x1 squares.
func (img *Image) dims() (float64, float64) {
	if !img.valid() {
		return 1, 1
	}
	return float64(img.Width), float64(img.Height)
}

// ScaledImage is an image together with scale which converts its pixel size
// into page points.
type ScaledImage struct {
	Image *Image
	Scale float64
}

func (si ScaledImage) Width() float64 {
	w, _ := si.Image.dims()
	return w * si.Scale
}

func (si ScaledImage) Height() float64 {
	_, h := si.Image.dims()
	return h * si.Scale
}

// Row is a horizontal run of images sharing the same height.
type Row struct {
	Images []ScaledImage
	// Incomplete is set when row was closed because images ran out and it
	// could not be stretched to fill available width.
	Incomplete bool

	seq  int  // packing order, used by smart ordering
	tail bool // natural last row held out by smart ordering
}

// Height returns height of the row.
func (r Row) Height() float64 {
	if len(r.Images) == 0 {
		return 0
	}
	return r.Images[0].Height()
}

// Width returns width of the row including spacing between images.
func (r Row) Width(spacing float64) float64 {
	if len(r.Images) == 0 {
		return 0
	}
	var w float64
	for _, si := range r.Images {
		w += si.Width()
	}
	return w + spacing*float64(len(r.Images)-1)
}

func (r Row) scaled(scale float64) Row {
	out := r
	out.Images = make([]ScaledImage, len(r.Images))
	for i, si := range r.Images {
		out.Images[i] = ScaledImage{Image: si.Image, Scale: si.Scale * scale}
	}
	return out
}

// rowsHeight returns height of stacked rows including spacing between them.
func rowsHeight(rows []Row, spacing float64) float64 {
	if len(rows) == 0 {
		return 0
	}
	var h float64
	for _, r := range rows {
		h += r.Height()
	}
	return h + spacing*float64(len(rows)-1)
}

// Placement is final position of an image on a page. Values are never
// modified after creation and may be shared between goroutines.
type Placement struct {
	Image  *Image
	Scale  float64
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Page is a populated destination page.
type Page struct {
	Number     int
	Double     bool
	Placements []Placement
	// Incomplete reports that the last row on the page was left unfilled.
	Incomplete bool
}

// Pages returns number of physical pages occupied.
func (p Page) Pages() int {
	if p.Double {
		return 2
	}
	return 1
}

// Result is an outcome of a single layout run.
type Result struct {
	Pages []Page
	// Unplaced is number of images left when destinations ran out.
	Unplaced int
	// Incomplete is set when any page of the layout ends with unfilled row.
	Incomplete bool
}

// PageCount returns number of physical pages used by the result.
func (r *Result) PageCount() int {
	n := 0
	for _, p := range r.Pages {
		n += p.Pages()
	}
	return n
}

// Placed returns number of placements across all pages.
func (r *Result) Placed() int {
	n := 0
	for _, p := range r.Pages {
		n += len(p.Placements)
	}
	return n
}

const epsilon = 1e-6

func almostLE(a, b float64) bool {
	return a <= b+epsilon*math.Max(1, math.Abs(b))
}
