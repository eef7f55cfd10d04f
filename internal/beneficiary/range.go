package beneficiary

import "fmt"

// BlockRange is an inclusive block range. An open range ends at the latest block.
type BlockRange struct {
	From uint64 `json:"from"`
	To   uint64 `json:"to"`
	Open bool   `json:"open,omitempty"`
}

// History is the whole ledger, from genesis to the latest block.
func History() BlockRange {
	return BlockRange{Open: true}
}

// Contains reports whether block falls inside the range.
func (r BlockRange) Contains(block uint64) bool {
	if block < r.From {
		return false
	}
	return r.Open || block <= r.To
}

// SplitRange splits a block range into batches of size batchSize.
func SplitRange(from, to, batchSize uint64) ([]BlockRange, error) {
	if batchSize == 0 {
		return nil, fmt.Errorf("batch size must be greater than zero")
	}
	if to < from {
		return nil, fmt.Errorf("to block must be >= from block")
	}

	ranges := make([]BlockRange, 0)
	start := from
	for start <= to {
		remaining := to - start + 1
		var end uint64
		if remaining <= batchSize {
			end = to
		} else {
			end = start + batchSize - 1
		}
		ranges = append(ranges, BlockRange{From: start, To: end})
		if end == to {
			break
		}
		start = end + 1
	}

	return ranges, nil
}
