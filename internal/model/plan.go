package model

import "fmt"

// TriggerType mirrors the contract's trigger enum.
type TriggerType uint8

const (
	TriggerNone TriggerType = iota
	TriggerTimeBased
	TriggerVoluntary
)

func (t TriggerType) String() string {
	switch t {
	case TriggerNone:
		return "NONE"
	case TriggerTimeBased:
		return "TIME_BASED"
	case TriggerVoluntary:
		return "VOLUNTARY"
	default:
		return "UNKNOWN"
	}
}

// MarshalText renders the enum name.
func (t TriggerType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText parses an enum name written by MarshalText.
func (t *TriggerType) UnmarshalText(text []byte) error {
	for _, candidate := range []TriggerType{TriggerNone, TriggerTimeBased, TriggerVoluntary} {
		if candidate.String() == string(text) {
			*t = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown trigger type: %s", text)
}

// Trigger is the decoded result of the contract's trigger() getter.
type Trigger struct {
	Type      TriggerType `json:"type"`
	Timestamp uint64      `json:"timestamp"`
	Activated bool        `json:"activated"`
}

// PlanStatus holds the readable fields of a plan contract.
type PlanStatus struct {
	Contract         string  `json:"contract"`
	Trigger          Trigger `json:"trigger"`
	Distributed      bool    `json:"distributed"`
	TotalDepositWei  string  `json:"total_deposit_wei"`
	BeneficiaryCount uint64  `json:"beneficiary_count"`
}
