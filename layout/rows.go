package layout

import (
	"math"
)

// preferredHeight returns on-page height for rows started by the image. In
// smart mode heights are normalized so all images get roughly the same
// area instead of the same height.
func preferredHeight(first *Image, smart bool, opts *Options) float64 {
	if smart {
		return opts.TargetHeight / math.Sqrt(first.Aspect())
	}
	return opts.TargetHeight
}

// isolated reports images which never share a row with anything.
func isolated(img *Image, opts *Options) bool {
	return !img.valid() || img.Aspect() >= opts.PanoramicAspect
}

// nextRow packs images from the head of the queue into a single row no
// wider than width. Rejected image is returned to the queue head. Row is
// never taller than maxHeight. Returns false only when queue is empty.
func nextRow(q *Queue, width, maxHeight float64, smart bool, opts *Options) (Row, bool) {
	var (
		row   Row
		first *Image
		used  float64 // sum of scaled widths, no spacing
	)

	for {
		img, ok := q.PopFront()
		if !ok {
			break
		}
		if first == nil {
			first = img
		}

		w, h := img.dims()
		scaledH := min(preferredHeight(first, smart, opts), maxHeight)
		scaledW := w * scaledH / h

		if n := len(row.Images); n > 0 {
			if isolated(img, opts) ||
				(!opts.AllowMixedAspect && math.Abs(img.Aspect()-first.Aspect()) > opts.AspectDeviation) ||
				!almostLE(used+opts.SpacingX*float64(n)+scaledW, width) {
				q.PushFront(img)
				return fillRow(row, used, width, maxHeight, opts), true
			}
		} else if !almostLE(scaledW, width) {
			// single image is wider than the page even alone
			scale := width / w
			if h*scale > maxHeight {
				scale = maxHeight / h
			}
			return Row{Images: []ScaledImage{{Image: img, Scale: scale}}}, true
		}

		row.Images = append(row.Images, ScaledImage{Image: img, Scale: scaledH / h})
		used += scaledW

		if isolated(img, opts) {
			return fillRow(row, used, width, maxHeight, opts), true
		}
	}

	if len(row.Images) == 0 {
		return Row{}, false
	}

	// images ran out, see if the last row could be stretched
	if fillScale(row, used, width, opts) > opts.FillGenerosity {
		row.Incomplete = true
		return row, true
	}
	return fillRow(row, used, width, maxHeight, opts), true
}

func fillScale(row Row, used, width float64, opts *Options) float64 {
	if used <= 0 {
		return 1
	}
	spacing := opts.SpacingX * float64(len(row.Images)-1)
	return (width - spacing) / used
}

// fillRow stretches row uniformly so it takes whole width, spacing between
// images is not scaled. Does nothing unless requested.
func fillRow(row Row, used, width, maxHeight float64, opts *Options) Row {
	if !opts.ScaleRowToFill {
		return row
	}
	scale := fillScale(row, used, width, opts)
	if h := row.Height(); h*scale > maxHeight {
		scale = maxHeight / h
	}
	return row.scaled(scale)
}
