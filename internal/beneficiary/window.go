package beneficiary

import (
	"sort"

	"heritagechain/internal/model"
)

// ResolveWindow returns the block range holding the assignments of the most
// recent configuration: [second most recent config block, most recent config block],
// or [0, most recent] when only one configuration exists. ok is false when
// there are no configurations.
//
// Configurations in the same block are ordered by log index. The window then
// collapses to that single block and may include assignments of the earlier one.
func ResolveWindow(configs []model.ConfigurationEvent) (BlockRange, bool) {
	if len(configs) == 0 {
		return BlockRange{}, false
	}

	sorted := make([]model.ConfigurationEvent, len(configs))
	copy(sorted, configs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return before(sorted[j].BlockNumber, sorted[j].LogIndex, sorted[i].BlockNumber, sorted[i].LogIndex)
	})

	window := BlockRange{To: sorted[0].BlockNumber}
	if len(sorted) > 1 {
		window.From = sorted[1].BlockNumber
	}
	return window, true
}

// SelectAssignments keeps the assignments inside window, in ledger order.
func SelectAssignments(events []model.AssignmentEvent, window BlockRange) []model.AssignmentEvent {
	out := make([]model.AssignmentEvent, 0, len(events))
	for _, event := range events {
		if window.Contains(event.BlockNumber) {
			out = append(out, event)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return before(out[i].BlockNumber, out[i].LogIndex, out[j].BlockNumber, out[j].LogIndex)
	})
	return out
}

// ToBeneficiaries converts basis-point shares into percentages.
func ToBeneficiaries(events []model.AssignmentEvent) []model.Beneficiary {
	out := make([]model.Beneficiary, 0, len(events))
	for _, event := range events {
		out = append(out, model.Beneficiary{
			Address:    event.Beneficiary,
			Percentage: BasisPointsToPercent(event.ShareBps),
		})
	}
	return out
}

// BasisPointsToPercent converts 1/100 of a percent units into percent.
func BasisPointsToPercent(bps uint64) float64 {
	return float64(bps) / 100
}
