package watch

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"

	"heritagechain/internal/model"
)

type fingerprintInput struct {
	ChainID           uint64              `json:"chain_id"`
	Status            model.PlanStatus    `json:"status"`
	Beneficiaries     []model.Beneficiary `json:"beneficiaries"`
	Simulated         bool                `json:"simulated"`
	ConfiguredAtBlock uint64              `json:"configured_at_block"`
}

// Fingerprint hashes the state-bearing fields of a snapshot. Simulated
// addresses are random per poll and are left out.
func Fingerprint(snap model.PlanSnapshot) (string, error) {
	in := fingerprintInput{
		ChainID:           snap.ChainID,
		Status:            snap.Status,
		Simulated:         snap.Simulated,
		ConfiguredAtBlock: snap.ConfiguredAtBlock,
	}
	if !snap.Simulated {
		in.Beneficiaries = snap.Beneficiaries
	}

	data, err := json.Marshal(in)
	if err != nil {
		return "", fmt.Errorf("marshal fingerprint: %w", err)
	}
	return crypto.Keccak256Hash(data).Hex(), nil
}
