package beneficiary

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"go.uber.org/zap"

	"heritagechain/internal/heritage"
	"heritagechain/internal/model"
)

// ErrUnresolvable is returned when the contract or reader cannot be used at all.
var ErrUnresolvable = errors.New("unresolvable input")

// Result is the outcome of a beneficiary lookup.
type Result struct {
	Beneficiaries []model.Beneficiary `json:"beneficiaries"`
	// Window is only meaningful when Configured is true.
	Window     BlockRange `json:"window"`
	Configured bool       `json:"configured"`
	Simulated  bool       `json:"simulated"`
}

// Reconstruct derives the current beneficiaries from the contract's event history.
func Reconstruct(ctx context.Context, reader LogReader, contract string) (Result, error) {
	empty := Result{Beneficiaries: []model.Beneficiary{}}
	if reader == nil {
		return empty, fmt.Errorf("%w: no log reader", ErrUnresolvable)
	}
	addr, err := heritage.ParseAddress(contract)
	if err != nil {
		return empty, fmt.Errorf("%w: %v", ErrUnresolvable, err)
	}

	configs, err := reader.ConfigurationEvents(ctx, addr, History())
	if err != nil {
		return empty, fmt.Errorf("configuration events: %w", err)
	}

	window, ok := ResolveWindow(configs)
	if !ok {
		return empty, nil
	}

	assignments, err := reader.AssignmentEvents(ctx, addr, window)
	if err != nil {
		return empty, fmt.Errorf("assignment events: %w", err)
	}

	return Result{
		Beneficiaries: ToBeneficiaries(SelectAssignments(assignments, window)),
		Window:        window,
		Configured:    true,
	}, nil
}

// Fetch returns the current beneficiaries, or an empty list on any failure.
func Fetch(ctx context.Context, reader LogReader, contract string, logger *zap.Logger) []model.Beneficiary {
	return fetch(ctx, reader, contract, logger).Beneficiaries
}

// Resolve returns the reconstructed beneficiaries, falling back to simulated
// data when none are found but the contract reports count beneficiaries.
func Resolve(ctx context.Context, reader LogReader, contract string, count uint64, rng *rand.Rand, logger *zap.Logger) Result {
	res := fetch(ctx, reader, contract, logger)
	if len(res.Beneficiaries) > 0 || count == 0 {
		return res
	}

	if logger == nil {
		logger = zap.NewNop()
	}
	if count > MaxSimulated {
		logger.Warn("beneficiary count out of range, skipping simulation",
			zap.String("contract", contract),
			zap.Uint64("count", count),
			zap.Int("max", MaxSimulated),
		)
		return res
	}

	logger.Info("using simulated beneficiaries", zap.String("contract", contract), zap.Uint64("count", count))
	res.Beneficiaries = Simulate(int(count), rng)
	res.Simulated = true
	return res
}

func fetch(ctx context.Context, reader LogReader, contract string, logger *zap.Logger) Result {
	if logger == nil {
		logger = zap.NewNop()
	}

	res, err := Reconstruct(ctx, reader, contract)
	if err != nil {
		if errors.Is(err, ErrUnresolvable) {
			logger.Debug("beneficiary lookup skipped", zap.String("contract", contract), zap.Error(err))
		} else {
			logger.Warn("beneficiary fetch failed", zap.String("contract", contract), zap.Error(err))
		}
		return Result{Beneficiaries: []model.Beneficiary{}}
	}

	logger.Debug("fetched beneficiaries",
		zap.String("contract", contract),
		zap.Int("count", len(res.Beneficiaries)),
		zap.Uint64("from", res.Window.From),
		zap.Uint64("to", res.Window.To),
	)
	return res
}
