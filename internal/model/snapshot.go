package model

// PlanSnapshot is a point-in-time view of a plan written by the watch runner.
type PlanSnapshot struct {
	ID                string        `json:"id"`
	ChainID           uint64        `json:"chain_id"`
	Contract          string        `json:"contract"`
	Status            PlanStatus    `json:"status"`
	Beneficiaries     []Beneficiary `json:"beneficiaries"`
	Simulated         bool          `json:"simulated"`
	ConfiguredAtBlock uint64        `json:"configured_at_block,omitempty"`
	ConfiguredAt      uint64        `json:"configured_at,omitempty"`
	CapturedAt        string        `json:"captured_at"`
	Fingerprint       string        `json:"fingerprint"`
}
