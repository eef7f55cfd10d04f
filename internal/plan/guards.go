package plan

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/params"

	"heritagechain/internal/heritage"
	"heritagechain/internal/model"
)

// FullAllocationBps is 100% in basis points.
const FullAllocationBps = 10000

var (
	ErrNoBeneficiaries      = errors.New("at least one beneficiary is required")
	ErrInvalidAllocation    = errors.New("total allocation must equal 100%")
	ErrDuplicateBeneficiary = errors.New("duplicate beneficiary")
	ErrTriggerInPast        = errors.New("trigger time must be in the future")
	ErrInvalidAmount        = errors.New("deposit amount must be greater than zero")
	ErrInsufficientBalance  = errors.New("insufficient balance")
	ErrWrongTriggerType     = errors.New("plan does not have this trigger type")
	ErrTriggerActivated     = errors.New("trigger has already been activated")
	ErrPlanLocked           = errors.New("cannot cancel after trigger activation or distribution")
)

// Allocation is a validated configureBeneficiaries payload.
type Allocation struct {
	Addresses []common.Address
	SharesBps []*big.Int
}

// ValidateAllocation checks beneficiaries before configureBeneficiaries and
// converts percentages to basis points.
func ValidateAllocation(beneficiaries []model.Beneficiary) (Allocation, error) {
	if len(beneficiaries) == 0 {
		return Allocation{}, ErrNoBeneficiaries
	}

	alloc := Allocation{
		Addresses: make([]common.Address, 0, len(beneficiaries)),
		SharesBps: make([]*big.Int, 0, len(beneficiaries)),
	}
	seen := make(map[common.Address]struct{}, len(beneficiaries))
	var total uint64
	for _, b := range beneficiaries {
		addr, err := heritage.ParseAddress(b.Address)
		if err != nil {
			return Allocation{}, fmt.Errorf("beneficiary: %w", err)
		}
		if _, ok := seen[addr]; ok {
			return Allocation{}, fmt.Errorf("%w: %s", ErrDuplicateBeneficiary, addr.Hex())
		}
		seen[addr] = struct{}{}

		bps, err := PercentToBasisPoints(b.Percentage)
		if err != nil {
			return Allocation{}, fmt.Errorf("beneficiary %s: %w", addr.Hex(), err)
		}
		total += bps

		alloc.Addresses = append(alloc.Addresses, addr)
		alloc.SharesBps = append(alloc.SharesBps, new(big.Int).SetUint64(bps))
	}

	if total != FullAllocationBps {
		return Allocation{}, fmt.Errorf("%w: current total %.2f%%", ErrInvalidAllocation, float64(total)/100)
	}
	return alloc, nil
}

// PercentToBasisPoints converts a percentage in (0, 100] with at most two decimals.
func PercentToBasisPoints(percent float64) (uint64, error) {
	if math.IsNaN(percent) || percent <= 0 || percent > 100 {
		return 0, fmt.Errorf("percentage out of range: %v", percent)
	}
	scaled := percent * 100
	rounded := math.Round(scaled)
	if math.Abs(scaled-rounded) > 1e-6 {
		return 0, fmt.Errorf("percentage has more than two decimals: %v", percent)
	}
	return uint64(rounded), nil
}

// CheckTimeTrigger rejects trigger times that are not in the future.
func CheckTimeTrigger(at, now time.Time) error {
	if !at.After(now) {
		return ErrTriggerInPast
	}
	return nil
}

// CheckActivateVoluntary allows activation of an unactivated voluntary trigger.
func CheckActivateVoluntary(trigger model.Trigger) error {
	if trigger.Type != model.TriggerVoluntary {
		return fmt.Errorf("%w: %s", ErrWrongTriggerType, trigger.Type)
	}
	if trigger.Activated {
		return ErrTriggerActivated
	}
	return nil
}

// CheckTimeBased allows checking an unactivated time-based trigger.
func CheckTimeBased(trigger model.Trigger) error {
	if trigger.Type != model.TriggerTimeBased {
		return fmt.Errorf("%w: %s", ErrWrongTriggerType, trigger.Type)
	}
	if trigger.Activated {
		return ErrTriggerActivated
	}
	return nil
}

// CheckCancel allows cancelling before activation and distribution.
func CheckCancel(status model.PlanStatus) error {
	if status.Trigger.Activated || status.Distributed {
		return ErrPlanLocked
	}
	return nil
}

// CheckDeposit validates a wei amount against the sender balance.
func CheckDeposit(amount, balance *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if balance != nil && amount.Cmp(balance) > 0 {
		return fmt.Errorf("%w: balance %s wei", ErrInsufficientBalance, balance)
	}
	return nil
}

// ParseEther parses a decimal ether amount into wei without float rounding.
func ParseEther(input string) (*big.Int, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, ErrInvalidAmount
	}

	whole, frac, _ := strings.Cut(input, ".")
	if whole == "" {
		whole = "0"
	}
	if len(frac) > 18 {
		return nil, fmt.Errorf("amount has more than 18 decimals: %s", input)
	}
	if !isDigits(whole) || (frac != "" && !isDigits(frac)) {
		return nil, fmt.Errorf("invalid amount: %s", input)
	}

	wei, ok := new(big.Int).SetString(whole, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount: %s", input)
	}
	wei.Mul(wei, big.NewInt(params.Ether))

	if frac != "" {
		fracWei, ok := new(big.Int).SetString(frac+strings.Repeat("0", 18-len(frac)), 10)
		if !ok {
			return nil, fmt.Errorf("invalid amount: %s", input)
		}
		wei.Add(wei, fracWei)
	}
	return wei, nil
}

func isDigits(input string) bool {
	for _, r := range input {
		if r < '0' || r > '9' {
			return false
		}
	}
	return input != ""
}
