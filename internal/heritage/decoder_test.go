package heritage

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

func TestDecodeAssignment(t *testing.T) {
	planABI, err := PlanABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	decoder, err := NewDecoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}

	beneficiary := common.HexToAddress("0x2222222222222222222222222222222222222222")
	data, err := planABI.Events[EventBeneficiaryAssigned].Inputs.NonIndexed().Pack(big.NewInt(2500))
	if err != nil {
		t.Fatalf("pack assignment: %v", err)
	}

	log := buildLog(planABI.Events[EventBeneficiaryAssigned].ID, data, 150, 3, common.BytesToHash(beneficiary.Bytes()))

	event, err := decoder.DecodeAssignment(log)
	if err != nil {
		t.Fatalf("decode assignment: %v", err)
	}
	if event.Beneficiary != beneficiary.Hex() {
		t.Fatalf("beneficiary mismatch: %s", event.Beneficiary)
	}
	if event.ShareBps != 2500 {
		t.Fatalf("share mismatch: %d", event.ShareBps)
	}
	if event.BlockNumber != 150 || event.LogIndex != 3 {
		t.Fatalf("position mismatch: %+v", event)
	}
}

func TestDecodeConfiguration(t *testing.T) {
	planABI, err := PlanABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	decoder, err := NewDecoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}

	data, err := planABI.Events[EventConfigurationApplied].Inputs.NonIndexed().Pack(big.NewInt(4))
	if err != nil {
		t.Fatalf("pack configuration: %v", err)
	}

	event, err := decoder.DecodeConfiguration(buildLog(planABI.Events[EventConfigurationApplied].ID, data, 100, 0))
	if err != nil {
		t.Fatalf("decode configuration: %v", err)
	}
	if event.BeneficiaryCount != 4 || event.BlockNumber != 100 {
		t.Fatalf("configuration mismatch: %+v", event)
	}
}

func TestDecodeRejectsWrongTopic(t *testing.T) {
	planABI, err := PlanABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	decoder, err := NewDecoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}

	data, _ := planABI.Events[EventConfigurationApplied].Inputs.NonIndexed().Pack(big.NewInt(1))
	log := buildLog(planABI.Events[EventConfigurationApplied].ID, data, 1, 0)
	if _, err := decoder.DecodeAssignment(log); err == nil {
		t.Fatalf("expected topic mismatch error")
	}

	if _, err := decoder.DecodeConfiguration(types.Log{}); err == nil {
		t.Fatalf("expected missing topic error")
	}
}

func TestDecodeRejectsTruncatedData(t *testing.T) {
	planABI, err := PlanABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	decoder, err := NewDecoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}

	beneficiary := common.HexToAddress("0x2222222222222222222222222222222222222222")
	log := buildLog(planABI.Events[EventBeneficiaryAssigned].ID, []byte{0x01}, 1, 0, common.BytesToHash(beneficiary.Bytes()))
	if _, err := decoder.DecodeAssignment(log); err == nil {
		t.Fatalf("expected unpack error")
	}
}

func TestParseAddress(t *testing.T) {
	if _, err := ParseAddress("0x0000000000000000000000000000000000000000"); err == nil {
		t.Fatalf("expected zero address error")
	}
	if _, err := ParseAddress("0x1234"); err == nil {
		t.Fatalf("expected invalid address error")
	}
	if _, err := ParseAddress(""); err == nil {
		t.Fatalf("expected empty address error")
	}
	addr, err := ParseAddress(" 0x1111111111111111111111111111111111111111 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if addr != common.HexToAddress("0x1111111111111111111111111111111111111111") {
		t.Fatalf("address mismatch: %s", addr.Hex())
	}
}

func buildLog(topic0 common.Hash, data []byte, block uint64, index uint, indexed ...common.Hash) types.Log {
	topics := append([]common.Hash{topic0}, indexed...)
	return types.Log{
		Address:     common.HexToAddress("0x9999999999999999999999999999999999999999"),
		Topics:      topics,
		Data:        data,
		BlockNumber: block,
		TxHash:      common.HexToHash("0xdef"),
		Index:       index,
	}
}
