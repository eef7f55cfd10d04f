package heritage

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"heritagechain/internal/model"
)

// Decoder turns raw plan contract logs into typed events.
type Decoder struct {
	planABI abi.ABI
}

// NewDecoder builds a Decoder over the plan ABI.
func NewDecoder() (*Decoder, error) {
	planABI, err := PlanABI()
	if err != nil {
		return nil, fmt.Errorf("parse plan abi: %w", err)
	}
	return &Decoder{planABI: planABI}, nil
}

// Topic0 returns the event signature hash for name.
func (d *Decoder) Topic0(name string) (common.Hash, error) {
	event, ok := d.planABI.Events[name]
	if !ok {
		return common.Hash{}, fmt.Errorf("unknown event: %s", name)
	}
	return event.ID, nil
}

// DecodeConfiguration decodes a ConfigurationApplied log.
func (d *Decoder) DecodeConfiguration(log types.Log) (model.ConfigurationEvent, error) {
	event := d.planABI.Events[EventConfigurationApplied]
	if err := checkTopic0(event, log); err != nil {
		return model.ConfigurationEvent{}, err
	}
	if len(log.Topics) != 1 {
		return model.ConfigurationEvent{}, fmt.Errorf("expected 1 topic, got %d", len(log.Topics))
	}

	values, err := event.Inputs.NonIndexed().Unpack(log.Data)
	if err != nil {
		return model.ConfigurationEvent{}, fmt.Errorf("unpack %s: %w", event.Name, err)
	}
	if len(values) != 1 {
		return model.ConfigurationEvent{}, fmt.Errorf("unexpected %s values: %d", event.Name, len(values))
	}

	count, err := asUint64(values[0])
	if err != nil {
		return model.ConfigurationEvent{}, fmt.Errorf("beneficiary count: %w", err)
	}

	return model.ConfigurationEvent{
		BlockNumber:      log.BlockNumber,
		LogIndex:         uint64(log.Index),
		TxHash:           log.TxHash.Hex(),
		BeneficiaryCount: count,
	}, nil
}

// DecodeAssignment decodes a BeneficiaryAssigned log.
func (d *Decoder) DecodeAssignment(log types.Log) (model.AssignmentEvent, error) {
	event := d.planABI.Events[EventBeneficiaryAssigned]
	if err := checkTopic0(event, log); err != nil {
		return model.AssignmentEvent{}, err
	}

	indexedArgs := indexedArguments(event.Inputs)
	if len(log.Topics) != len(indexedArgs)+1 {
		return model.AssignmentEvent{}, fmt.Errorf("expected %d topics, got %d", len(indexedArgs)+1, len(log.Topics))
	}

	var indexed struct {
		BeneficiaryAddress common.Address
	}
	if err := abi.ParseTopics(&indexed, indexedArgs, log.Topics[1:]); err != nil {
		return model.AssignmentEvent{}, fmt.Errorf("parse topics: %w", err)
	}

	values, err := event.Inputs.NonIndexed().Unpack(log.Data)
	if err != nil {
		return model.AssignmentEvent{}, fmt.Errorf("unpack %s: %w", event.Name, err)
	}
	if len(values) != 1 {
		return model.AssignmentEvent{}, fmt.Errorf("unexpected %s values: %d", event.Name, len(values))
	}

	share, err := asUint64(values[0])
	if err != nil {
		return model.AssignmentEvent{}, fmt.Errorf("share percentage: %w", err)
	}

	return model.AssignmentEvent{
		BlockNumber: log.BlockNumber,
		LogIndex:    uint64(log.Index),
		TxHash:      log.TxHash.Hex(),
		Beneficiary: indexed.BeneficiaryAddress.Hex(),
		ShareBps:    share,
	}, nil
}

func checkTopic0(event abi.Event, log types.Log) error {
	if len(log.Topics) == 0 {
		return fmt.Errorf("missing topic0")
	}
	if log.Topics[0] != event.ID {
		return fmt.Errorf("topic0 %s is not %s", log.Topics[0].Hex(), event.Name)
	}
	return nil
}

func indexedArguments(args abi.Arguments) abi.Arguments {
	indexed := make(abi.Arguments, 0, len(args))
	for _, arg := range args {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	return indexed
}

func asUint64(value interface{}) (uint64, error) {
	n, err := AsBigInt(value)
	if err != nil {
		return 0, err
	}
	if !n.IsUint64() {
		return 0, fmt.Errorf("value does not fit in uint64: %s", n)
	}
	return n.Uint64(), nil
}

// AsBigInt converts an unpacked ABI integer into a big.Int.
func AsBigInt(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		if v == nil {
			return nil, fmt.Errorf("nil big int")
		}
		return new(big.Int).Set(v), nil
	case big.Int:
		return new(big.Int).Set(&v), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	default:
		return nil, fmt.Errorf("unsupported int type %T", value)
	}
}

// AsAddress converts an unpacked ABI address.
func AsAddress(value interface{}) (common.Address, error) {
	switch v := value.(type) {
	case common.Address:
		return v, nil
	case *common.Address:
		return *v, nil
	default:
		return common.Address{}, fmt.Errorf("unsupported address type %T", value)
	}
}
