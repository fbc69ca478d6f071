package filterstate

import "sync/atomic"

// YearBridge translates a drag-selection over a rendered time series back
// into the filter's year bounds. The chart's own selection state is derived
// one-directionally from the filter: while the bridge writes, Suppressed
// reports true so chart-side listeners do not treat the resulting filter
// notification as a fresh user selection and feed it back.
type YearBridge struct {
	store      *Store
	suppressed atomic.Bool
}

func NewYearBridge(store *Store) *YearBridge {
	return &YearBridge{store: store}
}

// ApplyRange converts the selected index range into (low, high) period
// bounds via periodAt and writes them into the filter. Indices may arrive
// in either drag direction; bounds are ordered and clamped by the filter.
func (b *YearBridge) ApplyRange(startIdx, endIdx int, periodAt func(int) int) {
	lo, hi := periodAt(startIdx), periodAt(endIdx)

	b.suppressed.Store(true)
	defer b.suppressed.Store(false)

	b.store.Replace(b.store.Current().WithYearRange(lo, hi))
}

// Suppressed reports whether a bridge write is in progress. Chart listeners
// consult it before re-deriving selection state from a filter change.
func (b *YearBridge) Suppressed() bool {
	return b.suppressed.Load()
}
