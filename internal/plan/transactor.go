package plan

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"heritagechain/internal/chain"
	"heritagechain/internal/heritage"
	"heritagechain/internal/model"
)

var (
	ErrPlanExists = errors.New("account already has a plan")
	ErrReverted   = errors.New("transaction reverted")
)

// BalanceReader reads account balances.
type BalanceReader interface {
	BalanceAt(ctx context.Context, account common.Address) (*big.Int, error)
}

// TransactorConfig holds signing and submission settings.
type TransactorConfig struct {
	PrivateKey string
	ChainID    *big.Int
	Wait       bool
	GasLimit   uint64
}

// TxResult describes a submitted transaction.
type TxResult struct {
	Method      string `json:"method"`
	To          string `json:"to"`
	Hash        string `json:"hash"`
	Status      string `json:"status"`
	BlockNumber uint64 `json:"block_number,omitempty"`
	Plan        string `json:"plan,omitempty"`
}

const (
	txStatusSubmitted = "submitted"
	txStatusSuccess   = "success"
	txStatusFailed    = "failed"
)

// Transactor submits plan and factory transactions after client-side checks.
type Transactor struct {
	backend    chain.TxBackend
	reader     *Reader
	balances   BalanceReader
	opts       *bind.TransactOpts
	planABI    abi.ABI
	factoryABI abi.ABI
	wait       bool
	now        func() time.Time
	logger     *zap.Logger
}

// NewTransactor builds a Transactor signing with the configured key.
func NewTransactor(cfg TransactorConfig, backend chain.TxBackend, reader *Reader, balances BalanceReader, logger *zap.Logger) (*Transactor, error) {
	if backend == nil {
		return nil, fmt.Errorf("chain backend is nil")
	}
	if reader == nil {
		return nil, fmt.Errorf("plan reader is nil")
	}
	if cfg.ChainID == nil {
		return nil, fmt.Errorf("chain id is required")
	}
	key, err := parsePrivateKey(cfg.PrivateKey)
	if err != nil {
		return nil, err
	}
	opts, err := bind.NewKeyedTransactorWithChainID(key, cfg.ChainID)
	if err != nil {
		return nil, fmt.Errorf("build transactor: %w", err)
	}
	opts.GasLimit = cfg.GasLimit

	planABI, err := heritage.PlanABI()
	if err != nil {
		return nil, fmt.Errorf("parse plan abi: %w", err)
	}
	factoryABI, err := heritage.FactoryABI()
	if err != nil {
		return nil, fmt.Errorf("parse factory abi: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Transactor{
		backend:    backend,
		reader:     reader,
		balances:   balances,
		opts:       opts,
		planABI:    planABI,
		factoryABI: factoryABI,
		wait:       cfg.Wait,
		now:        time.Now,
		logger:     logger,
	}, nil
}

// From returns the signing account.
func (t *Transactor) From() common.Address {
	return t.opts.From
}

// Deploy creates a plan for the signing account through the factory.
func (t *Transactor) Deploy(ctx context.Context, factory common.Address) (TxResult, error) {
	existing, ok, err := t.reader.PlanAddress(ctx, factory, t.From())
	if err != nil {
		return TxResult{}, fmt.Errorf("lookup plan: %w", err)
	}
	if ok {
		return TxResult{}, fmt.Errorf("%w: %s", ErrPlanExists, existing.Hex())
	}

	res, err := t.submit(ctx, factory, t.factoryABI, heritage.MethodDeployHeritageChain, nil)
	if err != nil || res.Status != txStatusSuccess {
		return res, err
	}

	planAddr, ok, err := t.reader.PlanAddress(ctx, factory, t.From())
	if err != nil {
		return res, fmt.Errorf("lookup deployed plan: %w", err)
	}
	if ok {
		res.Plan = planAddr.Hex()
	}
	return res, nil
}

// Deposit sends amount ether to the plan.
func (t *Transactor) Deposit(ctx context.Context, contract common.Address, amount string) (TxResult, error) {
	wei, err := ParseEther(amount)
	if err != nil {
		return TxResult{}, err
	}

	var balance *big.Int
	if t.balances != nil {
		balance, err = t.balances.BalanceAt(ctx, t.From())
		if err != nil {
			return TxResult{}, fmt.Errorf("read balance: %w", err)
		}
	}
	if err := CheckDeposit(wei, balance); err != nil {
		return TxResult{}, err
	}

	return t.submit(ctx, contract, t.planABI, heritage.MethodDepositETH, wei)
}

// Configure replaces the plan's beneficiaries.
func (t *Transactor) Configure(ctx context.Context, contract common.Address, beneficiaries []model.Beneficiary) (TxResult, error) {
	alloc, err := ValidateAllocation(beneficiaries)
	if err != nil {
		return TxResult{}, err
	}
	return t.submit(ctx, contract, t.planABI, heritage.MethodConfigureBeneficiaries, nil, alloc.Addresses, alloc.SharesBps)
}

// SetTimeTrigger schedules distribution at a future time.
func (t *Transactor) SetTimeTrigger(ctx context.Context, contract common.Address, at time.Time) (TxResult, error) {
	if err := CheckTimeTrigger(at, t.now()); err != nil {
		return TxResult{}, err
	}
	ts := new(big.Int).SetInt64(at.Unix())
	return t.submit(ctx, contract, t.planABI, heritage.MethodSetTimeTrigger, nil, ts)
}

// SetVoluntaryTrigger switches the plan to a manually activated trigger.
func (t *Transactor) SetVoluntaryTrigger(ctx context.Context, contract common.Address) (TxResult, error) {
	return t.submit(ctx, contract, t.planABI, heritage.MethodSetVoluntaryTrigger, nil)
}

// ActivateVoluntaryTrigger activates a voluntary trigger.
func (t *Transactor) ActivateVoluntaryTrigger(ctx context.Context, contract common.Address) (TxResult, error) {
	trigger, err := t.reader.Trigger(ctx, contract)
	if err != nil {
		return TxResult{}, fmt.Errorf("read trigger: %w", err)
	}
	if err := CheckActivateVoluntary(trigger); err != nil {
		return TxResult{}, err
	}
	return t.submit(ctx, contract, t.planABI, heritage.MethodActivateVoluntaryTrigger, nil)
}

// CheckTimeBasedTrigger asks the contract to evaluate a time-based trigger.
func (t *Transactor) CheckTimeBasedTrigger(ctx context.Context, contract common.Address) (TxResult, error) {
	trigger, err := t.reader.Trigger(ctx, contract)
	if err != nil {
		return TxResult{}, fmt.Errorf("read trigger: %w", err)
	}
	if err := CheckTimeBased(trigger); err != nil {
		return TxResult{}, err
	}
	return t.submit(ctx, contract, t.planABI, heritage.MethodCheckTimeBasedTrigger, nil)
}

// Cancel cancels the plan and returns deposits to the owner.
func (t *Transactor) Cancel(ctx context.Context, contract common.Address) (TxResult, error) {
	status, err := t.reader.Status(ctx, contract)
	if err != nil {
		return TxResult{}, fmt.Errorf("read status: %w", err)
	}
	if err := CheckCancel(status); err != nil {
		return TxResult{}, err
	}
	return t.submit(ctx, contract, t.planABI, heritage.MethodCancelLegacyPlan, nil)
}

func (t *Transactor) submit(ctx context.Context, to common.Address, parsed abi.ABI, method string, value *big.Int, args ...interface{}) (TxResult, error) {
	bound := bind.NewBoundContract(to, parsed, t.backend, t.backend, t.backend)

	opts := *t.opts
	opts.Context = ctx
	opts.Value = value

	tx, err := bound.Transact(&opts, method, args...)
	if err != nil {
		return TxResult{}, fmt.Errorf("transact %s: %w", method, err)
	}

	res := TxResult{
		Method: method,
		To:     to.Hex(),
		Hash:   tx.Hash().Hex(),
		Status: txStatusSubmitted,
	}
	t.logger.Info("transaction submitted",
		zap.String("method", method),
		zap.String("to", res.To),
		zap.String("tx_hash", res.Hash),
	)

	if !t.wait {
		return res, nil
	}

	receipt, err := bind.WaitMined(ctx, t.backend, tx)
	if err != nil {
		return res, fmt.Errorf("wait %s: %w", method, err)
	}
	res.BlockNumber = receipt.BlockNumber.Uint64()
	if receipt.Status != types.ReceiptStatusSuccessful {
		res.Status = txStatusFailed
		t.logger.Warn("transaction failed", zap.String("method", method), zap.String("tx_hash", res.Hash))
		return res, fmt.Errorf("%w: %s", ErrReverted, res.Hash)
	}
	res.Status = txStatusSuccess
	t.logger.Info("transaction confirmed",
		zap.String("method", method),
		zap.String("tx_hash", res.Hash),
		zap.Uint64("block_number", res.BlockNumber),
	)
	return res, nil
}

func parsePrivateKey(input string) (*ecdsa.PrivateKey, error) {
	input = strings.TrimPrefix(strings.TrimSpace(input), "0x")
	if input == "" {
		return nil, fmt.Errorf("private key is required")
	}
	key, err := crypto.HexToECDSA(input)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return key, nil
}
