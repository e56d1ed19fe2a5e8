// Package preview renders laid out pages into raster images so results can
// be checked without opening the book in the editor.
package preview

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"flowbook/layout"
)

var outlineColor = color.NRGBA{R: 0xd0, G: 0x20, B: 0x20, A: 0xff}

// Options controls rendering.
type Options struct {
	// Width of a single page in pixels, double spreads are twice as wide.
	Width      int
	Filter     imaging.ResampleFilter
	Background color.Color
	// Outline draws page borders and frames around every placement.
	Outline bool
	// Workers limits number of pages rendered at once, 0 means number of CPUs.
	Workers int
}

// Loader returns picture for the image. Any size will do, picture is
// resized to its placement.
type Loader func(img *layout.Image) (image.Image, error)

// Render draws single page of given size (in points).
func Render(page layout.Page, pageWidth, pageHeight float64, load Loader, opts *Options) (*image.NRGBA, error) {
	if pageWidth <= 0 || pageHeight <= 0 {
		return nil, fmt.Errorf("bad page size %vx%v", pageWidth, pageHeight)
	}
	if opts.Width <= 0 {
		return nil, fmt.Errorf("bad preview width %d", opts.Width)
	}

	scale := float64(opts.Width) / pageWidth
	px := func(v float64) int { return int(math.Round(v * scale)) }

	bg := opts.Background
	if bg == nil {
		bg = color.White
	}
	canvas := imaging.New(opts.Width*page.Pages(), px(pageHeight), bg)

	for _, pl := range page.Placements {
		w, h := px(pl.Width), px(pl.Height)
		if w <= 0 || h <= 0 {
			continue
		}
		pic, err := load(pl.Image)
		if err != nil {
			return nil, fmt.Errorf("page %d: unable to load image %s: %w", page.Number, pl.Image.ID, err)
		}
		at := image.Pt(px(pl.X), px(pl.Y))
		canvas = imaging.Paste(canvas, imaging.Resize(pic, w, h, opts.Filter), at)
		if opts.Outline {
			frame(canvas, image.Rectangle{Min: at, Max: at.Add(image.Pt(w, h))}, outlineColor)
		}
	}

	if opts.Outline {
		frame(canvas, canvas.Bounds(), color.Black)
		if page.Double {
			fold := canvas.Bounds().Dx() / 2
			for y := range canvas.Bounds().Dy() {
				canvas.Set(fold, y, color.Black)
			}
		}
	}
	return canvas, nil
}

// frame draws 1px rectangle clipped to the canvas.
func frame(canvas *image.NRGBA, r image.Rectangle, c color.Color) {
	r = r.Intersect(canvas.Bounds())
	if r.Empty() {
		return
	}
	for x := r.Min.X; x < r.Max.X; x++ {
		canvas.Set(x, r.Min.Y, c)
		canvas.Set(x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		canvas.Set(r.Min.X, y, c)
		canvas.Set(r.Max.X-1, y, c)
	}
}

// FileName returns name of the preview file for the page.
func FileName(page layout.Page) string {
	if page.Double {
		return fmt.Sprintf("page_%03d-%03d.png", page.Number, page.Number+1)
	}
	return fmt.Sprintf("page_%03d.png", page.Number)
}

// RenderAll renders pages concurrently into PNG files in dir and returns
// their names in page order.
func RenderAll(ctx context.Context, pages []layout.Page, pageWidth, pageHeight float64, load Loader, dir string, opts *Options, log *zap.Logger) ([]string, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	names := make([]string, len(pages))
	for i, page := range pages {
		names[i] = filepath.Join(dir, FileName(page))
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			img, err := Render(page, pageWidth, pageHeight, load, opts)
			if err != nil {
				return err
			}
			if err := imaging.Save(img, names[i]); err != nil {
				return fmt.Errorf("unable to save preview: %w", err)
			}
			log.Debug("Page preview rendered", zap.Int("page", page.Number), zap.Int("images", len(page.Placements)), zap.String("file", names[i]))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return names, nil
}

// ParseColor parses "#rgb" and "#rrggbb" colors.
func ParseColor(s string) (color.NRGBA, error) {
	hex, ok := strings.CutPrefix(strings.TrimSpace(s), "#")
	if !ok {
		return color.NRGBA{}, fmt.Errorf("color %q must start with #", s)
	}
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color.NRGBA{}, fmt.Errorf("bad color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("bad color %q: %w", s, err)
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
