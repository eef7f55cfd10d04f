package beneficiary

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"heritagechain/internal/model"
)

const testContract = "0x9999999999999999999999999999999999999999"

type fakeReader struct {
	configs     []model.ConfigurationEvent
	assignments []model.AssignmentEvent
	configErr   error
	assignErr   error
	ignoreRange bool

	assignQueries []BlockRange
}

func (f *fakeReader) ConfigurationEvents(_ context.Context, _ common.Address, _ BlockRange) ([]model.ConfigurationEvent, error) {
	if f.configErr != nil {
		return nil, f.configErr
	}
	return f.configs, nil
}

func (f *fakeReader) AssignmentEvents(_ context.Context, _ common.Address, blocks BlockRange) ([]model.AssignmentEvent, error) {
	f.assignQueries = append(f.assignQueries, blocks)
	if f.assignErr != nil {
		return nil, f.assignErr
	}
	if f.ignoreRange {
		return f.assignments, nil
	}
	var out []model.AssignmentEvent
	for _, event := range f.assignments {
		if blocks.Contains(event.BlockNumber) {
			out = append(out, event)
		}
	}
	return out, nil
}

func config(block uint64) model.ConfigurationEvent {
	return model.ConfigurationEvent{BlockNumber: block, BeneficiaryCount: 1}
}

func assign(block uint64, addr string, bps uint64) model.AssignmentEvent {
	return model.AssignmentEvent{BlockNumber: block, Beneficiary: addr, ShareBps: bps}
}

func TestFetchNoConfigurations(t *testing.T) {
	reader := &fakeReader{assignments: []model.AssignmentEvent{assign(10, "0xa", 10000)}}

	got := Fetch(context.Background(), reader, testContract, zap.NewNop())
	require.NotNil(t, got)
	require.Empty(t, got)
	require.Empty(t, reader.assignQueries)
}

func TestFetchSingleConfigurationWindowFromGenesis(t *testing.T) {
	for _, ignoreRange := range []bool{false, true} {
		reader := &fakeReader{
			configs: []model.ConfigurationEvent{config(100)},
			assignments: []model.AssignmentEvent{
				assign(50, "0x1111111111111111111111111111111111111111", 10000),
				assign(150, "0x2222222222222222222222222222222222222222", 10000),
			},
			ignoreRange: ignoreRange,
		}

		res, err := Reconstruct(context.Background(), reader, testContract)
		require.NoError(t, err)
		require.Equal(t, BlockRange{From: 0, To: 100}, res.Window)
		require.Equal(t, []model.Beneficiary{
			{Address: "0x1111111111111111111111111111111111111111", Percentage: 100},
		}, res.Beneficiaries)
	}
}

func TestFetchWindowBetweenLastTwoConfigurations(t *testing.T) {
	for _, ignoreRange := range []bool{false, true} {
		reader := &fakeReader{
			configs: []model.ConfigurationEvent{config(200), config(100)},
			assignments: []model.AssignmentEvent{
				assign(50, "0x1111111111111111111111111111111111111111", 5000),
				assign(150, "0x2222222222222222222222222222222222222222", 10000),
				assign(250, "0x3333333333333333333333333333333333333333", 2500),
			},
			ignoreRange: ignoreRange,
		}

		got := Fetch(context.Background(), reader, testContract, nil)
		require.Equal(t, []model.Beneficiary{
			{Address: "0x2222222222222222222222222222222222222222", Percentage: 100},
		}, got)
		require.Equal(t, []BlockRange{{From: 100, To: 200}}, reader.assignQueries)
	}
}

func TestFetchWindowIsInclusive(t *testing.T) {
	reader := &fakeReader{
		configs: []model.ConfigurationEvent{config(100), config(200)},
		assignments: []model.AssignmentEvent{
			assign(100, "0x1111111111111111111111111111111111111111", 4000),
			assign(200, "0x2222222222222222222222222222222222222222", 6000),
		},
	}

	got := Fetch(context.Background(), reader, testContract, nil)
	require.Len(t, got, 2)
}

func TestFetchBasisPointsConversion(t *testing.T) {
	reader := &fakeReader{
		configs: []model.ConfigurationEvent{config(10)},
		assignments: []model.AssignmentEvent{
			assign(9, "0x1111111111111111111111111111111111111111", 2500),
			assign(9, "0x2222222222222222222222222222222222222222", 3333),
			assign(10, "0x3333333333333333333333333333333333333333", 4167),
		},
	}

	got := Fetch(context.Background(), reader, testContract, nil)
	require.Len(t, got, 3)
	require.Equal(t, 25.0, got[0].Percentage)
	require.InDelta(t, 33.33, got[1].Percentage, 1e-9)
	require.InDelta(t, 41.67, got[2].Percentage, 1e-9)
}

func TestFetchEmptyWindow(t *testing.T) {
	reader := &fakeReader{
		configs:     []model.ConfigurationEvent{config(100), config(200)},
		assignments: []model.AssignmentEvent{assign(50, "0xa", 10000)},
	}

	res, err := Reconstruct(context.Background(), reader, testContract)
	require.NoError(t, err)
	require.True(t, res.Configured)
	require.Empty(t, res.Beneficiaries)
}

func TestFetchNetworkFailureDegrades(t *testing.T) {
	boom := errors.New("dial tcp: connection refused")

	got := Fetch(context.Background(), &fakeReader{configErr: boom}, testContract, zap.NewNop())
	require.NotNil(t, got)
	require.Empty(t, got)

	reader := &fakeReader{configs: []model.ConfigurationEvent{config(1)}, assignErr: boom}
	got = Fetch(context.Background(), reader, testContract, zap.NewNop())
	require.Empty(t, got)

	_, err := Reconstruct(context.Background(), reader, testContract)
	require.ErrorIs(t, err, boom)
}

func TestFetchUnresolvableInput(t *testing.T) {
	reader := &fakeReader{configs: []model.ConfigurationEvent{config(1)}}

	for _, contract := range []string{"", "0x0000000000000000000000000000000000000000", "not-an-address"} {
		require.Empty(t, Fetch(context.Background(), reader, contract, nil))
		_, err := Reconstruct(context.Background(), reader, contract)
		require.ErrorIs(t, err, ErrUnresolvable)
	}

	require.Empty(t, Fetch(context.Background(), nil, testContract, nil))
}

func TestResolveFallsBackToSimulated(t *testing.T) {
	res := Resolve(context.Background(), &fakeReader{}, testContract, 3, rand.New(rand.NewSource(1)), zap.NewNop())
	require.True(t, res.Simulated)
	require.Len(t, res.Beneficiaries, 3)

	res = Resolve(context.Background(), &fakeReader{}, testContract, 0, nil, nil)
	require.False(t, res.Simulated)
	require.Empty(t, res.Beneficiaries)
}

func TestResolvePrefersRealEvents(t *testing.T) {
	reader := &fakeReader{
		configs:     []model.ConfigurationEvent{config(5)},
		assignments: []model.AssignmentEvent{assign(5, "0x1111111111111111111111111111111111111111", 10000)},
	}

	res := Resolve(context.Background(), reader, testContract, 4, nil, nil)
	require.False(t, res.Simulated)
	require.Len(t, res.Beneficiaries, 1)
}

func TestResolveSkipsOutOfRangeCount(t *testing.T) {
	res := Resolve(context.Background(), &fakeReader{}, testContract, 1<<40, nil, zap.NewNop())
	require.False(t, res.Simulated)
	require.Empty(t, res.Beneficiaries)

	res = Resolve(context.Background(), &fakeReader{}, testContract, MaxSimulated+1, nil, nil)
	require.False(t, res.Simulated)
	require.Empty(t, res.Beneficiaries)

	res = Resolve(context.Background(), &fakeReader{}, testContract, MaxSimulated, rand.New(rand.NewSource(2)), nil)
	require.True(t, res.Simulated)
	require.Len(t, res.Beneficiaries, MaxSimulated)
}
