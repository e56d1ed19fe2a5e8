package layout

import (
	"cmp"
	"slices"
)

// rowSource supplies rows to the page assembler. Rows rejected by the
// assembler are handed back with ungetRow and must be served again first.
type rowSource interface {
	nextRow(width float64) (Row, bool)
	ungetRow(r Row)
	// onWidthChange is called before a page of different width is requested.
	onWidthChange(width float64)
}

// pageArranger is implemented by sources which reorder rows of an already
// assembled page.
type pageArranger interface {
	arrange(rows []Row) []Row
}

func newRowSource(q *Queue, opts *Options) rowSource {
	if opts.Ordering.IsSmart() {
		return &smartSource{queue: q, opts: opts, maxHeight: opts.contentHeight()}
	}
	return &sequentialSource{queue: q, opts: opts, maxHeight: opts.contentHeight()}
}

// release puts everything source may have buffered back into the queue.
func release(src rowSource) {
	src.onWidthChange(0)
}

// sequentialSource packs rows directly from the queue in caller order.
type sequentialSource struct {
	queue     *Queue
	opts      *Options
	maxHeight float64
}

func (s *sequentialSource) nextRow(width float64) (Row, bool) {
	return nextRow(s.queue, width, s.maxHeight, false, s.opts)
}

func (s *sequentialSource) ungetRow(r Row) {
	s.queue.PushRowFront(r)
}

func (s *sequentialSource) onWidthChange(float64) {}

// smartSource packs all rows for a width at once and serves them rotating
// between tallest, shortest and middle rows so pages do not end up with
// monotonic height gradient.
type smartSource struct {
	queue     *Queue
	opts      *Options
	maxHeight float64

	width   float64
	built   bool
	rows    []Row // sorted by height, ascending
	last    *Row  // held out natural last row
	pending []Row // stack of rows handed back by assembler
	carry   int   // images of handed back rows to repack first after width change
	turn    int
}

func (s *smartSource) onWidthChange(width float64) {
	if width == s.width {
		return
	}
	s.width = width

	// return everything buffered in original packing order, rows handed
	// back go in front so they are served first again
	buffered := slices.Clone(s.rows)
	if s.last != nil {
		buffered = append(buffered, *s.last)
	}
	slices.SortStableFunc(buffered, func(a, b Row) int { return cmp.Compare(a.seq, b.seq) })
	for i := len(buffered) - 1; i >= 0; i-- {
		s.queue.PushRowFront(buffered[i])
	}
	s.carry = 0
	for _, r := range s.pending {
		s.queue.PushRowFront(r)
		s.carry += len(r.Images)
	}

	s.rows, s.last, s.pending = nil, nil, nil
	s.built, s.turn = false, 0
}

func (s *smartSource) build(width float64) {
	var rows, carried []Row
	for {
		r, ok := nextRow(s.queue, width, s.maxHeight, true, s.opts)
		if !ok {
			break
		}
		if s.carry > 0 {
			s.carry -= len(r.Images)
			carried = append(carried, r)
			continue
		}
		r.seq = len(rows)
		rows = append(rows, r)
	}
	s.carry = 0
	slices.Reverse(carried)
	s.pending = carried

	// unfilled or short final row is served after everything else
	if n := len(rows); n > 0 && (rows[n-1].Incomplete || rows[n-1].Width(s.opts.SpacingX) < lastRowCutoff*width) {
		last := rows[n-1]
		last.tail = true
		s.last = &last
		rows = rows[:n-1]
	}
	slices.SortStableFunc(rows, func(a, b Row) int { return cmp.Compare(a.Height(), b.Height()) })
	s.rows, s.built = rows, true
}

func (s *smartSource) nextRow(width float64) (Row, bool) {
	s.onWidthChange(width)
	if !s.built {
		s.build(width)
	}

	if n := len(s.pending); n > 0 {
		r := s.pending[n-1]
		s.pending = s.pending[:n-1]
		return r, true
	}

	if len(s.rows) == 0 {
		if s.last == nil {
			return Row{}, false
		}
		r := *s.last
		s.last = nil
		return r, true
	}

	var i int
	if n := len(s.rows); n > 2 {
		switch s.turn {
		case 0: // tallest
			i = n - 1
		case 1: // shortest
			i = 0
		default: // middle
			i = n / 2
		}
		s.turn = (s.turn + 1) % 3
	} else {
		i = n - 1
	}
	r := s.rows[i]
	s.rows = slices.Delete(s.rows, i, i+1)
	return r, true
}

func (s *smartSource) ungetRow(r Row) {
	s.pending = append(s.pending, r)
}

// arrange puts widest rows in the middle of the page alternating ends. Held
// out last row keeps its position at the bottom. Pages with stretched rows
// and overfilled pages keep serving order, the latter start and end with
// rows shared with neighbour pages.
func (s *smartSource) arrange(rows []Row) []Row {
	if s.opts.ScaleRowToFill || s.opts.Overfill || len(rows) < 2 {
		return rows
	}
	var tail []Row
	if rows[len(rows)-1].tail {
		rows, tail = rows[:len(rows)-1], rows[len(rows)-1:]
	}

	sorted := slices.Clone(rows)
	slices.SortStableFunc(sorted, func(a, b Row) int {
		return cmp.Compare(b.Width(s.opts.SpacingX), a.Width(s.opts.SpacingX))
	})
	out := make([]Row, 0, len(rows)+len(tail))
	for _, r := range sorted {
		if len(out)%2 == 1 {
			out = append(out, r)
		} else {
			out = slices.Insert(out, 0, r)
		}
	}
	return append(out, tail...)
}
