// Package window computes which rows of a large list must be materialized
// for the current scroll position, and drives end-of-data prefetch. It is
// pure bookkeeping: rendering is the consumer's concern, fetching is the
// pager's.
package window

import "sort"

// DefaultOverscan is the number of extra rows materialized on each end of
// the visible range to absorb fast scrolling without visible blanking.
const DefaultOverscan = 10

// Pager is the fetch side the windower drives. caseflow.BoundPager
// satisfies it. The pager's own in-flight state is the only duplicate-fetch
// guard; the windower deliberately keeps no trigger flag of its own, so
// the two can never drift apart.
type Pager interface {
	HasNextPage() bool
	IsFetchingNextPage() bool
	FetchNextPage()
}

// Range is an inclusive row index range.
type Range struct {
	First, Last int
}

// Windower tracks row geometry for a windowed list. Row heights start from
// a single estimate; Measure overrides individual rows once rendered. Not
// safe for concurrent use: confine it to the render loop.
type Windower struct {
	estimate int
	overscan int

	count    int
	measured map[int]int

	// offsets[i] is the y position of row i's top; len count+1. Rebuilt
	// lazily after count or measurement changes.
	offsets []int
	dirty   bool
}

// New builds a windower with the given estimated row height in pixels.
// overscan < 0 selects DefaultOverscan; 0 disables overscan.
func New(estimateHeight, overscan int) *Windower {
	if estimateHeight <= 0 {
		estimateHeight = 1
	}
	if overscan < 0 {
		overscan = DefaultOverscan
	}
	return &Windower{
		estimate: estimateHeight,
		overscan: overscan,
		measured: make(map[int]int),
		dirty:    true,
	}
}

// SetCount updates the number of accumulated rows.
func (w *Windower) SetCount(n int) {
	if n < 0 {
		n = 0
	}
	if n != w.count {
		w.count = n
		w.dirty = true
	}
}

func (w *Windower) Count() int { return w.count }

// Measure records the rendered height of one row, overriding the estimate.
func (w *Windower) Measure(index, height int) {
	if index < 0 || height <= 0 {
		return
	}
	if w.measured[index] != height {
		w.measured[index] = height
		w.dirty = true
	}
}

// Reset discards measurements and row count. Call it when the filter
// changes: the old rows, scroll anchor, and any prefetch intent belong to
// the previous key.
func (w *Windower) Reset() {
	w.count = 0
	w.measured = make(map[int]int)
	w.offsets = nil
	w.dirty = true
}

// TotalHeight is the scrollable height of all accumulated rows.
func (w *Windower) TotalHeight() int {
	w.rebuild()
	if w.count == 0 {
		return 0
	}
	return w.offsets[w.count]
}

// Visible computes the materialized range for the given scroll position,
// overscan included, clamped to the accumulated row count. ok is false when
// nothing is accumulated: render the explicit empty state, not a window
// over an empty range.
func (w *Windower) Visible(scrollTop, viewportHeight int) (r Range, ok bool) {
	if w.count == 0 {
		return Range{}, false
	}
	w.rebuild()

	if scrollTop < 0 {
		scrollTop = 0
	}
	bottom := scrollTop + viewportHeight

	first := sort.Search(w.count, func(i int) bool { return w.offsets[i+1] > scrollTop })
	last := sort.Search(w.count, func(i int) bool { return w.offsets[i] >= bottom }) - 1

	first -= w.overscan
	last += w.overscan
	if first < 0 {
		first = 0
	}
	if last > w.count-1 {
		last = w.count - 1
	}
	if last < first {
		last = first
	}
	return Range{First: first, Last: last}, true
}

// Observe applies the prefetch rule to a computed range: nearing the end of
// accumulated data asks the pager for the next page. The pager's in-flight
// state makes repeated calls within one threshold crossing no-ops.
func (w *Windower) Observe(r Range, p Pager) {
	if w.count == 0 {
		return
	}
	if r.Last >= w.count-1 && p.HasNextPage() && !p.IsFetchingNextPage() {
		p.FetchNextPage()
	}
}

// Advance is Visible followed by Observe, the per-scroll-event entry
// point.
func (w *Windower) Advance(scrollTop, viewportHeight int, p Pager) (Range, bool) {
	r, ok := w.Visible(scrollTop, viewportHeight)
	if ok {
		w.Observe(r, p)
	}
	return r, ok
}

// OffsetOf returns the y position of a row's top, for scroll-to-row.
func (w *Windower) OffsetOf(index int) int {
	w.rebuild()
	if index < 0 || w.count == 0 {
		return 0
	}
	if index > w.count {
		index = w.count
	}
	return w.offsets[index]
}

func (w *Windower) rebuild() {
	if !w.dirty {
		return
	}
	w.offsets = make([]int, w.count+1)
	for i := 0; i < w.count; i++ {
		h := w.estimate
		if m, ok := w.measured[i]; ok {
			h = m
		}
		w.offsets[i+1] = w.offsets[i] + h
	}
	w.dirty = false
}
