package historical

import (
	"fmt"
	"time"

	"github.com/SiloFlight/Strat-Sim/pkg/common"
)

const invalidIndex = -1

// BarReader walks a time-sorted binary bar file, returning bars whose start
// time falls inside [from, to]. The start index is found by binary search on
// the first read.
type BarReader struct {
	source *Source[BinaryBar]

	symbol string
	from   int64
	to     int64
	idx    int64
}

func NewBarReader(source *Source[BinaryBar], symbol string, from, to time.Time) *BarReader {
	return &BarReader{
		source: source,
		symbol: symbol,
		from:   from.UnixNano(),
		to:     to.UnixNano(),
		idx:    invalidIndex,
	}
}

func (r *BarReader) GetNext() (common.Bar, error) {

	var bar common.Bar
	var binBar BinaryBar

	if r.idx == invalidIndex {
		if err := r.lookupStartIndex(); err != nil {
			return bar, err
		}
	}

	if err := r.source.Read(r.idx, &binBar); err != nil {
		return bar, fmt.Errorf("error reading entry at index %d: %w", r.idx, err)
	}
	r.idx++

	if binBar.StartTime < r.from {
		return bar, fmt.Errorf("timestamp is not from the proposed range")
	}

	if binBar.StartTime > r.to {
		return bar, ErrEof
	}

	binBar.ToBar(&bar)
	bar.Symbol = r.symbol

	return bar, nil
}

func (r *BarReader) lookupStartIndex() error {
	entryCount, err := r.source.EntryCount()
	if err != nil {
		return fmt.Errorf("error getting entry count: %w", err)
	}

	if entryCount == 0 {
		return fmt.Errorf("entry count is zero")
	}

	var entry BinaryBar

	low := int64(0)
	high := entryCount - 1

	for low <= high {
		mid := (low + high) / 2

		if err := r.source.Read(mid, &entry); err != nil {
			return fmt.Errorf("error reading entry at index %d: %w", mid, err)
		}

		if entry.StartTime < r.from {
			low = mid + 1
		} else {
			high = mid - 1
		}
	}

	if low >= entryCount {
		return fmt.Errorf("no entry found with timestamp >= from")
	}

	r.idx = low
	return nil
}
