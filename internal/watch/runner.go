package watch

import (
	"context"
	"fmt"
	"math/big"
	"math/rand"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"heritagechain/internal/beneficiary"
	"heritagechain/internal/model"
	"heritagechain/internal/storage"
)

// StatusReader reads plan status.
type StatusReader interface {
	Status(ctx context.Context, contract common.Address) (model.PlanStatus, error)
}

// ChainInfo is the subset of the chain client used for snapshot metadata.
type ChainInfo interface {
	GetChainID(ctx context.Context) (*big.Int, error)
	BlockTimestamp(ctx context.Context, number uint64) (uint64, error)
}

// Config holds runtime settings for the watch loop.
type Config struct {
	Contract   common.Address
	Interval   time.Duration
	Once       bool
	StateStore StateStore
}

// Runner polls a plan and writes snapshots when its state changes.
type Runner struct {
	cfg     Config
	status  StatusReader
	logs    beneficiary.LogReader
	chain   ChainInfo
	storage storage.Storage
	logger  *zap.Logger
	rng     *rand.Rand
	now     func() time.Time
	newID   func() string
}

// NewRunner builds a Runner with its dependencies.
func NewRunner(cfg Config, status StatusReader, logs beneficiary.LogReader, chainInfo ChainInfo, sink storage.Storage, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cfg:     cfg,
		status:  status,
		logs:    logs,
		chain:   chainInfo,
		storage: sink,
		logger:  logger,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Run polls until the context is cancelled, or once when configured.
// Polls are sequential, so the latest completed poll always wins.
func (r *Runner) Run(ctx context.Context) error {
	if r.status == nil {
		return fmt.Errorf("status reader is nil")
	}
	if r.chain == nil {
		return fmt.Errorf("chain client is nil")
	}
	if r.storage == nil {
		return fmt.Errorf("storage is nil")
	}
	if r.cfg.Contract == (common.Address{}) {
		return fmt.Errorf("contract address is required")
	}
	if !r.cfg.Once && r.cfg.Interval <= 0 {
		return fmt.Errorf("interval must be positive")
	}

	chainID, err := r.chain.GetChainID(ctx)
	if err != nil {
		return fmt.Errorf("get chain id: %w", err)
	}
	if !chainID.IsUint64() {
		return fmt.Errorf("chain id does not fit in uint64: %s", chainID)
	}

	var last string
	if r.cfg.StateStore != nil {
		fp, ok, err := r.cfg.StateStore.Load(ctx)
		if err != nil {
			return err
		}
		if ok {
			last = fp
			r.logger.Info("resume from state", zap.String("fingerprint", fp))
		}
	}

	for {
		snap, err := r.Poll(ctx, chainID.Uint64())
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			r.logger.Warn("poll failed", zap.String("contract", r.cfg.Contract.Hex()), zap.Error(err))
		} else if snap.Fingerprint == last {
			r.logger.Debug("plan unchanged", zap.String("fingerprint", snap.Fingerprint))
		} else {
			if err := r.storage.PutSnapshot(ctx, snap); err != nil {
				return fmt.Errorf("store snapshot: %w", err)
			}
			if r.cfg.StateStore != nil {
				if err := r.cfg.StateStore.Save(ctx, snap.Fingerprint); err != nil {
					return err
				}
			}
			last = snap.Fingerprint
			r.logger.Info("snapshot written",
				zap.String("id", snap.ID),
				zap.String("contract", snap.Contract),
				zap.Int("beneficiaries", len(snap.Beneficiaries)),
				zap.Bool("simulated", snap.Simulated),
				zap.String("fingerprint", snap.Fingerprint),
			)
		}

		if r.cfg.Once {
			return nil
		}

		timer := time.NewTimer(r.cfg.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			r.logger.Info("watch stopped")
			return nil
		case <-timer.C:
		}
	}
}

// Poll reads the plan once and builds a snapshot.
func (r *Runner) Poll(ctx context.Context, chainID uint64) (model.PlanSnapshot, error) {
	contract := r.cfg.Contract
	status, err := r.status.Status(ctx, contract)
	if err != nil {
		return model.PlanSnapshot{}, fmt.Errorf("read status: %w", err)
	}

	res := beneficiary.Resolve(ctx, r.logs, contract.Hex(), status.BeneficiaryCount, r.rng, r.logger)

	snap := model.PlanSnapshot{
		ID:            r.newID(),
		ChainID:       chainID,
		Contract:      contract.Hex(),
		Status:        status,
		Beneficiaries: res.Beneficiaries,
		Simulated:     res.Simulated,
		CapturedAt:    r.now().UTC().Format(time.RFC3339Nano),
	}
	if res.Configured {
		snap.ConfiguredAtBlock = res.Window.To
		ts, err := r.chain.BlockTimestamp(ctx, res.Window.To)
		if err != nil {
			r.logger.Warn("block timestamp fetch failed", zap.Uint64("block_number", res.Window.To), zap.Error(err))
		} else {
			snap.ConfiguredAt = ts
		}
	}

	snap.Fingerprint, err = Fingerprint(snap)
	if err != nil {
		return model.PlanSnapshot{}, err
	}
	return snap, nil
}
