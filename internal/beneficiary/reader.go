package beneficiary

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"heritagechain/internal/heritage"
	"heritagechain/internal/model"
)

// LogReader fetches the plan contract's configuration and assignment events.
type LogReader interface {
	ConfigurationEvents(ctx context.Context, contract common.Address, blocks BlockRange) ([]model.ConfigurationEvent, error)
	AssignmentEvents(ctx context.Context, contract common.Address, blocks BlockRange) ([]model.AssignmentEvent, error)
}

// LogFilterer is the subset of the chain client used by ChainReader.
type LogFilterer interface {
	FilterLogs(ctx context.Context, fromBlock, toBlock *big.Int, address common.Address, topic0 common.Hash) ([]types.Log, error)
	LatestBlockNumber(ctx context.Context) (uint64, error)
}

// ReaderConfig holds eth_getLogs settings.
type ReaderConfig struct {
	// BatchSize of zero queries the whole range in one call.
	BatchSize    uint64
	MaxRetries   int
	RetryBackoff time.Duration
}

// ChainReader reads plan events over JSON-RPC.
type ChainReader struct {
	cfg     ReaderConfig
	client  LogFilterer
	decoder *heritage.Decoder
	logger  *zap.Logger
}

// NewChainReader builds a ChainReader with its dependencies.
func NewChainReader(cfg ReaderConfig, client LogFilterer, logger *zap.Logger) (*ChainReader, error) {
	if client == nil {
		return nil, fmt.Errorf("chain client is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	decoder, err := heritage.NewDecoder()
	if err != nil {
		return nil, err
	}
	return &ChainReader{
		cfg:     cfg,
		client:  client,
		decoder: decoder,
		logger:  logger,
	}, nil
}

// ConfigurationEvents returns ConfigurationApplied events ordered by ledger position.
func (r *ChainReader) ConfigurationEvents(ctx context.Context, contract common.Address, blocks BlockRange) ([]model.ConfigurationEvent, error) {
	logs, err := r.fetch(ctx, contract, heritage.EventConfigurationApplied, blocks)
	if err != nil {
		return nil, err
	}

	events := make([]model.ConfigurationEvent, 0, len(logs))
	for _, log := range logs {
		event, err := r.decoder.DecodeConfiguration(log)
		if err != nil {
			return nil, fmt.Errorf("decode configuration at block %d: %w", log.BlockNumber, err)
		}
		events = append(events, event)
	}

	sort.SliceStable(events, func(i, j int) bool {
		return before(events[i].BlockNumber, events[i].LogIndex, events[j].BlockNumber, events[j].LogIndex)
	})
	return events, nil
}

// AssignmentEvents returns BeneficiaryAssigned events ordered by ledger position.
func (r *ChainReader) AssignmentEvents(ctx context.Context, contract common.Address, blocks BlockRange) ([]model.AssignmentEvent, error) {
	logs, err := r.fetch(ctx, contract, heritage.EventBeneficiaryAssigned, blocks)
	if err != nil {
		return nil, err
	}

	events := make([]model.AssignmentEvent, 0, len(logs))
	for _, log := range logs {
		event, err := r.decoder.DecodeAssignment(log)
		if err != nil {
			return nil, fmt.Errorf("decode assignment at block %d: %w", log.BlockNumber, err)
		}
		events = append(events, event)
	}

	sort.SliceStable(events, func(i, j int) bool {
		return before(events[i].BlockNumber, events[i].LogIndex, events[j].BlockNumber, events[j].LogIndex)
	})
	return events, nil
}

func (r *ChainReader) fetch(ctx context.Context, contract common.Address, eventName string, blocks BlockRange) ([]types.Log, error) {
	topic0, err := r.decoder.Topic0(eventName)
	if err != nil {
		return nil, err
	}

	if r.cfg.BatchSize == 0 {
		var to *big.Int
		if !blocks.Open {
			to = new(big.Int).SetUint64(blocks.To)
		}
		return r.filterLogsWithRetry(ctx, new(big.Int).SetUint64(blocks.From), to, contract, topic0)
	}

	to := blocks.To
	if blocks.Open {
		latest, err := r.latestWithRetry(ctx)
		if err != nil {
			return nil, fmt.Errorf("get latest block: %w", err)
		}
		to = latest
	}
	if blocks.From > to {
		return nil, nil
	}

	ranges, err := SplitRange(blocks.From, to, r.cfg.BatchSize)
	if err != nil {
		return nil, err
	}

	var out []types.Log
	for _, blockRange := range ranges {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		r.logger.Debug("fetch logs",
			zap.String("event", eventName),
			zap.Uint64("from", blockRange.From),
			zap.Uint64("to", blockRange.To),
		)

		logs, err := r.filterLogsWithRetry(ctx,
			new(big.Int).SetUint64(blockRange.From),
			new(big.Int).SetUint64(blockRange.To),
			contract, topic0)
		if err != nil {
			return nil, err
		}
		out = append(out, logs...)
	}
	return out, nil
}

func (r *ChainReader) filterLogsWithRetry(ctx context.Context, from, to *big.Int, contract common.Address, topic0 common.Hash) ([]types.Log, error) {
	var logs []types.Log
	logger := r.logger.With(
		zap.String("contract", contract.Hex()),
		zap.String("topic0", topic0.Hex()),
		zap.String("from", blockLabel(from)),
		zap.String("to", blockLabel(to)),
	)
	err := withRetry(ctx, "eth_getLogs", r.cfg.MaxRetries, r.cfg.RetryBackoff, logger, func(ctx context.Context) error {
		var err error
		logs, err = r.client.FilterLogs(ctx, from, to, contract, topic0)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("filter logs: %w", err)
	}

	kept := logs[:0]
	for _, log := range logs {
		if log.Removed {
			continue
		}
		kept = append(kept, log)
	}
	return kept, nil
}

func (r *ChainReader) latestWithRetry(ctx context.Context) (uint64, error) {
	var latest uint64
	err := withRetry(ctx, "eth_blockNumber", r.cfg.MaxRetries, r.cfg.RetryBackoff, r.logger, func(ctx context.Context) error {
		var err error
		latest, err = r.client.LatestBlockNumber(ctx)
		return err
	})
	return latest, err
}

func blockLabel(n *big.Int) string {
	if n == nil {
		return "latest"
	}
	return n.String()
}

func before(blockA, indexA, blockB, indexB uint64) bool {
	if blockA != blockB {
		return blockA < blockB
	}
	return indexA < indexB
}
