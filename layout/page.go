package layout

// nextPage assembles single page of given content size from rows supplied
// by src. Returned page has no placements when src is exhausted.
func nextPage(src rowSource, width, height float64, number int, first bool, opts *Options) Page {
	var (
		rows []Row
		used float64
	)

	for {
		r, ok := src.nextRow(width)
		if !ok {
			break
		}
		rh := r.Height()
		if len(rows) > 0 && !almostLE(used+rh, height) {
			src.ungetRow(r)
			if opts.Overfill {
				// overflowing row stays on this page but both it and the row
				// before it are carried over to start the next one
				src.ungetRow(rows[len(rows)-1])
				rows = append(rows, r)
			}
			break
		}
		if len(rows) > 0 || !opts.Overfill || first {
			used += rh + opts.SpacingY
		}
		rows = append(rows, r)
	}

	page := Page{Number: number}
	if len(rows) == 0 {
		return page
	}
	page.Incomplete = rows[len(rows)-1].Incomplete

	if arr, ok := src.(pageArranger); ok {
		rows = arr.arrange(rows)
	}
	page.Placements = placeRows(rows, width, height, number, first, opts)
	return page
}

func placeRows(rows []Row, width, height float64, number int, first bool, opts *Options) []Placement {
	count := 0
	for _, r := range rows {
		count += len(r.Images)
	}
	out := make([]Placement, 0, count)

	y, yspace := verticalOrigin(rows, height, first, opts)
	for _, r := range rows {
		x, xspace := horizontalOrigin(r, width, number, opts)
		for _, si := range r.Images {
			out = append(out, Placement{
				Image:  si.Image,
				Scale:  si.Scale,
				X:      x,
				Y:      y,
				Width:  si.Width(),
				Height: si.Height(),
			})
			x += si.Width() + xspace
		}
		y += r.Height() + yspace
	}
	return out
}

// verticalOrigin returns y of the first row and spacing between rows.
func verticalOrigin(rows []Row, height float64, first bool, opts *Options) (float64, float64) {
	y, yspace := opts.Margins.Top, opts.SpacingY
	current := rowsHeight(rows, yspace)

	switch {
	case opts.SpreadVertical && len(rows) > 1 && height > current:
		yspace += (height - current) / float64(len(rows)-1)
	case opts.CenterVertical && !opts.Overfill:
		y += (height - current) / 2
	case opts.CenterVertical && !first:
		// First page is never centered. For the rest the carried row is
		// pushed up past the top margin.
		head := rowsHeight(rows[:1], yspace)
		if height > current {
			// last page, show lower third of the carried row
			y -= head*0.66 + yspace
		} else {
			inner := rows[1:max(1, len(rows)-1)]
			y += (height - rowsHeight(inner, yspace)) / 2
			y -= head + yspace
		}
	}
	return y, yspace
}

// horizontalOrigin returns x of the first image in the row and spacing
// between images.
func horizontalOrigin(r Row, width float64, number int, opts *Options) (float64, float64) {
	x, xspace := opts.Margins.Left, opts.SpacingX
	if opts.Mirror && number%2 == 0 {
		x = opts.Margins.Right
	}
	current := r.Width(xspace)

	switch {
	case opts.SpreadHorizontal && len(r.Images) > 1:
		if width > current {
			xspace += (width - current) / float64(len(r.Images)-1)
		}
	case opts.CenterHorizontal:
		x += (width - current) / 2
	case opts.Mirror && number%2 == 1:
		x += width - current
	}
	return x, xspace
}
