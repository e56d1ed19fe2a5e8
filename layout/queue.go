package layout

// Queue is double ended sequence of images remaining to be laid out. It is
// backed by a ring buffer so pushing back rejected images to the head is as
// cheap as taking them.
type Queue struct {
	buf  []*Image
	head int
	n    int
}

// NewQueue returns queue holding images in given order. Slice is copied.
func NewQueue(images []*Image) *Queue {
	q := &Queue{buf: make([]*Image, max(len(images), 8))}
	copy(q.buf, images)
	q.n = len(images)
	return q
}

// Len returns number of images in the queue.
func (q *Queue) Len() int {
	return q.n
}

// Clone returns independent copy of the queue.
func (q *Queue) Clone() *Queue {
	return NewQueue(q.Slice())
}

// Slice returns queue content from head to tail.
func (q *Queue) Slice() []*Image {
	out := make([]*Image, q.n)
	for i := range q.n {
		out[i] = q.buf[(q.head+i)%len(q.buf)]
	}
	return out
}

// PeekFront returns image at the head without removing it.
func (q *Queue) PeekFront() (*Image, bool) {
	if q.n == 0 {
		return nil, false
	}
	return q.buf[q.head], true
}

// PopFront removes and returns image at the head.
func (q *Queue) PopFront() (*Image, bool) {
	if q.n == 0 {
		return nil, false
	}
	img := q.buf[q.head]
	q.buf[q.head] = nil
	q.head = (q.head + 1) % len(q.buf)
	q.n--
	return img, true
}

// PopBack removes and returns image at the tail.
func (q *Queue) PopBack() (*Image, bool) {
	if q.n == 0 {
		return nil, false
	}
	i := (q.head + q.n - 1) % len(q.buf)
	img := q.buf[i]
	q.buf[i] = nil
	q.n--
	return img, true
}

// PushFront puts image at the head of the queue.
func (q *Queue) PushFront(img *Image) {
	q.grow()
	q.head = (q.head - 1 + len(q.buf)) % len(q.buf)
	q.buf[q.head] = img
	q.n++
}

// PushBack puts image at the tail of the queue.
func (q *Queue) PushBack(img *Image) {
	q.grow()
	q.buf[(q.head+q.n)%len(q.buf)] = img
	q.n++
}

// PushRowFront returns all images of the row to the head of the queue
// keeping their relative order.
func (q *Queue) PushRowFront(r Row) {
	for i := len(r.Images) - 1; i >= 0; i-- {
		q.PushFront(r.Images[i].Image)
	}
}

func (q *Queue) grow() {
	if q.n < len(q.buf) {
		return
	}
	buf := make([]*Image, len(q.buf)*2)
	for i := range q.n {
		buf[i] = q.buf[(q.head+i)%len(q.buf)]
	}
	q.buf, q.head = buf, 0
}
