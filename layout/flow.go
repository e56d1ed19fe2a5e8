package layout

// Flow lays images out onto destination pages. Images are ordered according
// to options first. When destinations run out before all images are placed
// returned error is *ExhaustedError and result is still valid.
func Flow(images []*Image, pages []int, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	normalize(&opts)

	res := run(NewQueue(OrderImages(images, &opts)), pages, &opts)
	if res.Unplaced > 0 {
		return res, &ExhaustedError{Unplaced: res.Unplaced}
	}
	return res, nil
}

// CountPages returns number of physical pages layout of already ordered
// images would take starting at the first destination page, and whether the
// final row was left unfilled. Destination list is extended past its end so
// result is never truncated. Images are not reordered and the slice is not
// modified.
func CountPages(ordered []*Image, pages []int, opts Options) (int, bool) {
	normalize(&opts)
	res := run(NewQueue(ordered), extendPages(pages, 2*len(ordered)+2), &opts)
	return res.PageCount(), res.Incomplete
}

func normalize(opts *Options) {
	if opts.DoubleSpreadsOnly {
		opts.AllowDoubleSpreads = true
	}
}

func extendPages(pages []int, extra int) []int {
	next := 1
	if n := len(pages); n > 0 {
		next = pages[n-1] + 1
	}
	out := make([]int, 0, len(pages)+extra)
	out = append(out, pages...)
	for i := range extra {
		out = append(out, next+i)
	}
	return out
}

// run performs single layout pass consuming queue.
func run(q *Queue, pages []int, opts *Options) *Result {
	src := newRowSource(q, opts)
	res := &Result{}

	first := true
	for i := 0; i < len(pages); {
		number := pages[i]
		i++

		double := false
		if opts.AllowDoubleSpreads && number%2 == 0 && i < len(pages) && pages[i] == number+1 {
			double = true
			i++
		}
		if !double && (opts.DoubleSpreadsOnly ||
			(opts.OddPagesOnly && number%2 == 0) ||
			(opts.EvenPagesOnly && number%2 != 0)) {
			continue
		}

		page := nextPage(src, opts.contentWidth(double), opts.contentHeight(), number, first, opts)
		first = false
		if len(page.Placements) == 0 {
			// nothing left
			break
		}
		page.Double = double
		res.Pages = append(res.Pages, page)
	}

	release(src)
	res.Unplaced = q.Len()
	for _, p := range res.Pages {
		res.Incomplete = res.Incomplete || p.Incomplete
	}
	return res
}
