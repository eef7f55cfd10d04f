package plan

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"heritagechain/internal/heritage"
	"heritagechain/internal/model"
)

// Caller is the subset of the chain client used for eth_call.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Reader reads plan and factory state.
type Reader struct {
	caller     Caller
	planABI    abi.ABI
	factoryABI abi.ABI
}

// NewReader builds a Reader over the parsed ABIs.
func NewReader(caller Caller) (*Reader, error) {
	if caller == nil {
		return nil, fmt.Errorf("chain client is nil")
	}
	planABI, err := heritage.PlanABI()
	if err != nil {
		return nil, fmt.Errorf("parse plan abi: %w", err)
	}
	factoryABI, err := heritage.FactoryABI()
	if err != nil {
		return nil, fmt.Errorf("parse factory abi: %w", err)
	}
	return &Reader{caller: caller, planABI: planABI, factoryABI: factoryABI}, nil
}

// PlanAddress returns the plan deployed by owner. ok is false when the owner has none.
func (r *Reader) PlanAddress(ctx context.Context, factory, owner common.Address) (common.Address, bool, error) {
	values, err := callMethod(ctx, r.caller, factory, r.factoryABI, heritage.MethodGetUserHeritageChain, owner)
	if err != nil {
		return common.Address{}, false, err
	}
	addr, err := heritage.AsAddress(values[0])
	if err != nil {
		return common.Address{}, false, fmt.Errorf("plan address: %w", err)
	}
	if addr == (common.Address{}) {
		return common.Address{}, false, nil
	}
	return addr, true, nil
}

// Status reads trigger, distribution flag, deposits and beneficiary count concurrently.
func (r *Reader) Status(ctx context.Context, contract common.Address) (model.PlanStatus, error) {
	status := model.PlanStatus{Contract: contract.Hex()}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		trigger, err := r.Trigger(gctx, contract)
		if err != nil {
			return err
		}
		status.Trigger = trigger
		return nil
	})
	g.Go(func() error {
		values, err := callMethod(gctx, r.caller, contract, r.planABI, heritage.MethodIsDistributed)
		if err != nil {
			return err
		}
		distributed, ok := values[0].(bool)
		if !ok {
			return fmt.Errorf("isDistributed: unsupported type %T", values[0])
		}
		status.Distributed = distributed
		return nil
	})
	g.Go(func() error {
		values, err := callMethod(gctx, r.caller, contract, r.planABI, heritage.MethodTotalETHDeposited)
		if err != nil {
			return err
		}
		total, err := heritage.AsBigInt(values[0])
		if err != nil {
			return fmt.Errorf("totalETHDeposited: %w", err)
		}
		status.TotalDepositWei = total.String()
		return nil
	})
	g.Go(func() error {
		values, err := callMethod(gctx, r.caller, contract, r.planABI, heritage.MethodGetBeneficiaryCount)
		if err != nil {
			return err
		}
		count, err := heritage.AsBigInt(values[0])
		if err != nil {
			return fmt.Errorf("getBeneficiaryCount: %w", err)
		}
		if !count.IsUint64() {
			return fmt.Errorf("getBeneficiaryCount overflow: %s", count)
		}
		status.BeneficiaryCount = count.Uint64()
		return nil
	})

	if err := g.Wait(); err != nil {
		return model.PlanStatus{}, err
	}
	return status, nil
}

// Trigger reads the plan's trigger configuration.
func (r *Reader) Trigger(ctx context.Context, contract common.Address) (model.Trigger, error) {
	values, err := callMethod(ctx, r.caller, contract, r.planABI, heritage.MethodTrigger)
	if err != nil {
		return model.Trigger{}, err
	}
	if len(values) != 3 {
		return model.Trigger{}, fmt.Errorf("unexpected trigger values: %d", len(values))
	}

	kind, err := heritage.AsBigInt(values[0])
	if err != nil {
		return model.Trigger{}, fmt.Errorf("trigger type: %w", err)
	}
	ts, err := heritage.AsBigInt(values[1])
	if err != nil {
		return model.Trigger{}, fmt.Errorf("trigger timestamp: %w", err)
	}
	if !ts.IsUint64() {
		return model.Trigger{}, fmt.Errorf("trigger timestamp overflow: %s", ts)
	}
	activated, ok := values[2].(bool)
	if !ok {
		return model.Trigger{}, fmt.Errorf("trigger activated: unsupported type %T", values[2])
	}

	return model.Trigger{
		Type:      model.TriggerType(kind.Uint64()),
		Timestamp: ts.Uint64(),
		Activated: activated,
	}, nil
}

func callMethod(ctx context.Context, caller Caller, to common.Address, parsed abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	msg := ethereum.CallMsg{To: &to, Data: data}
	resp, err := caller.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	values, err := parsed.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("unpack %s: no values", method)
	}
	return values, nil
}
