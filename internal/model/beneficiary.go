package model

// Beneficiary is one allocation of the current plan configuration.
type Beneficiary struct {
	Address    string  `json:"address"`
	Percentage float64 `json:"percentage"`
}

// ConfigurationEvent is a decoded ConfigurationApplied log.
type ConfigurationEvent struct {
	BlockNumber      uint64 `json:"block_number"`
	LogIndex         uint64 `json:"log_index"`
	TxHash           string `json:"tx_hash"`
	BeneficiaryCount uint64 `json:"beneficiary_count"`
}

// AssignmentEvent is a decoded BeneficiaryAssigned log. Share is in basis points.
type AssignmentEvent struct {
	BlockNumber uint64 `json:"block_number"`
	LogIndex    uint64 `json:"log_index"`
	TxHash      string `json:"tx_hash"`
	Beneficiary string `json:"beneficiary"`
	ShareBps    uint64 `json:"share_bps"`
}
