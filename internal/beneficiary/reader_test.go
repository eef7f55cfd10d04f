package beneficiary

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"heritagechain/internal/heritage"
)

type filterCall struct {
	from *big.Int
	to   *big.Int
}

type fakeFilterer struct {
	logs     map[common.Hash][]types.Log
	latest   uint64
	failures int
	calls    []filterCall
}

func (f *fakeFilterer) FilterLogs(_ context.Context, from, to *big.Int, _ common.Address, topic0 common.Hash) ([]types.Log, error) {
	f.calls = append(f.calls, filterCall{from: from, to: to})
	if f.failures > 0 {
		f.failures--
		return nil, errors.New("timeout")
	}
	var out []types.Log
	for _, log := range f.logs[topic0] {
		if from != nil && log.BlockNumber < from.Uint64() {
			continue
		}
		if to != nil && log.BlockNumber > to.Uint64() {
			continue
		}
		out = append(out, log)
	}
	return out, nil
}

func (f *fakeFilterer) LatestBlockNumber(context.Context) (uint64, error) {
	return f.latest, nil
}

func assignmentLog(t *testing.T, block uint64, index uint, beneficiary common.Address, bps int64) types.Log {
	t.Helper()
	planABI, err := heritage.PlanABI()
	require.NoError(t, err)
	event := planABI.Events[heritage.EventBeneficiaryAssigned]
	data, err := event.Inputs.NonIndexed().Pack(big.NewInt(bps))
	require.NoError(t, err)
	return types.Log{
		Topics:      []common.Hash{event.ID, common.BytesToHash(beneficiary.Bytes())},
		Data:        data,
		BlockNumber: block,
		Index:       index,
	}
}

func configurationLog(t *testing.T, block uint64, count int64) types.Log {
	t.Helper()
	planABI, err := heritage.PlanABI()
	require.NoError(t, err)
	event := planABI.Events[heritage.EventConfigurationApplied]
	data, err := event.Inputs.NonIndexed().Pack(big.NewInt(count))
	require.NoError(t, err)
	return types.Log{Topics: []common.Hash{event.ID}, Data: data, BlockNumber: block}
}

func newFilterer(t *testing.T) *fakeFilterer {
	planABI, err := heritage.PlanABI()
	require.NoError(t, err)
	alice := common.HexToAddress("0x1111111111111111111111111111111111111111")
	bob := common.HexToAddress("0x2222222222222222222222222222222222222222")

	removed := assignmentLog(t, 150, 9, bob, 10000)
	removed.Removed = true

	return &fakeFilterer{
		latest: 300,
		logs: map[common.Hash][]types.Log{
			planABI.Events[heritage.EventConfigurationApplied].ID: {
				configurationLog(t, 200, 2),
				configurationLog(t, 100, 1),
			},
			planABI.Events[heritage.EventBeneficiaryAssigned].ID: {
				assignmentLog(t, 50, 0, alice, 10000),
				assignmentLog(t, 150, 1, bob, 4000),
				assignmentLog(t, 150, 0, alice, 6000),
				removed,
				assignmentLog(t, 250, 0, bob, 10000),
			},
		},
	}
}

func TestChainReaderReconstruct(t *testing.T) {
	filterer := newFilterer(t)
	reader, err := NewChainReader(ReaderConfig{}, filterer, zap.NewNop())
	require.NoError(t, err)

	res, err := Reconstruct(context.Background(), reader, testContract)
	require.NoError(t, err)
	require.Equal(t, BlockRange{From: 100, To: 200}, res.Window)
	require.Len(t, res.Beneficiaries, 2)
	require.Equal(t, "0x1111111111111111111111111111111111111111", res.Beneficiaries[0].Address)
	require.Equal(t, 60.0, res.Beneficiaries[0].Percentage)
	require.Equal(t, 40.0, res.Beneficiaries[1].Percentage)

	// history query: from genesis, open upper bound
	require.Equal(t, uint64(0), filterer.calls[0].from.Uint64())
	require.Nil(t, filterer.calls[0].to)
	require.Equal(t, uint64(200), filterer.calls[1].to.Uint64())
}

func TestChainReaderBatches(t *testing.T) {
	filterer := newFilterer(t)
	reader, err := NewChainReader(ReaderConfig{BatchSize: 100}, filterer, nil)
	require.NoError(t, err)

	configs, err := reader.ConfigurationEvents(context.Background(), common.HexToAddress(testContract), History())
	require.NoError(t, err)
	require.Len(t, configs, 2)
	require.Equal(t, uint64(100), configs[0].BlockNumber)
	require.Len(t, filterer.calls, 4)
	require.Equal(t, uint64(300), filterer.calls[3].to.Uint64())
}

func TestChainReaderRetries(t *testing.T) {
	filterer := newFilterer(t)
	filterer.failures = 2
	reader, err := NewChainReader(ReaderConfig{MaxRetries: 2, RetryBackoff: time.Millisecond}, filterer, nil)
	require.NoError(t, err)

	configs, err := reader.ConfigurationEvents(context.Background(), common.HexToAddress(testContract), History())
	require.NoError(t, err)
	require.Len(t, configs, 2)

	filterer.failures = 5
	_, err = reader.ConfigurationEvents(context.Background(), common.HexToAddress(testContract), History())
	require.Error(t, err)
}

func TestChainReaderDecodeFailureDegrades(t *testing.T) {
	filterer := newFilterer(t)
	planABI, err := heritage.PlanABI()
	require.NoError(t, err)
	id := planABI.Events[heritage.EventBeneficiaryAssigned].ID
	filterer.logs[id] = append(filterer.logs[id], types.Log{Topics: []common.Hash{id}, BlockNumber: 120})

	reader, err := NewChainReader(ReaderConfig{}, filterer, nil)
	require.NoError(t, err)

	_, err = Reconstruct(context.Background(), reader, testContract)
	require.Error(t, err)
	require.Empty(t, Fetch(context.Background(), reader, testContract, zap.NewNop()))
}
