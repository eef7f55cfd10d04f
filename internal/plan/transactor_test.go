package plan

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
	"github.com/ethereum/go-ethereum/params"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// revertingContract deploys runtime code PUSH1 0 PUSH1 0 REVERT.
var revertingContract = common.FromHex("0x6005600c60003960056000f3" + "60006000fd")

// minedClient seals a block after every sent transaction so receipts are
// available to WaitMined immediately.
type minedClient struct {
	simulated.Client
	backend *simulated.Backend
}

func (c minedClient) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	if err := c.Client.SendTransaction(ctx, tx); err != nil {
		return err
	}
	c.backend.Commit()
	return nil
}

type simulatedChain struct {
	backend *simulated.Backend
	client  minedClient
	keyHex  string
	chainID *big.Int
}

func newSimulatedChain(t *testing.T) *simulatedChain {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	from := crypto.PubkeyToAddress(key.PublicKey)

	funds := new(big.Int).Mul(big.NewInt(1000), big.NewInt(params.Ether))
	backend := simulated.NewBackend(types.GenesisAlloc{from: {Balance: funds}})
	t.Cleanup(func() { backend.Close() })

	client := minedClient{Client: backend.Client(), backend: backend}
	chainID, err := client.ChainID(context.Background())
	require.NoError(t, err)

	return &simulatedChain{
		backend: backend,
		client:  client,
		keyHex:  hexutil.Encode(crypto.FromECDSA(key)),
		chainID: chainID,
	}
}

func (c *simulatedChain) deployReverting(t *testing.T) common.Address {
	t.Helper()
	key, err := crypto.HexToECDSA(c.keyHex[2:])
	require.NoError(t, err)
	opts, err := bind.NewKeyedTransactorWithChainID(key, c.chainID)
	require.NoError(t, err)
	opts.GasLimit = 200000

	addr, _, _, err := bind.DeployContract(opts, abi.ABI{}, revertingContract, c.client)
	require.NoError(t, err)

	code, err := c.client.CodeAt(context.Background(), addr, nil)
	require.NoError(t, err)
	require.NotEmpty(t, code)
	return addr
}

func (c *simulatedChain) transactor(t *testing.T) *Transactor {
	t.Helper()
	reader, err := NewReader(c.client)
	require.NoError(t, err)

	tx, err := NewTransactor(TransactorConfig{
		PrivateKey: c.keyHex,
		ChainID:    c.chainID,
		Wait:       true,
		GasLimit:   100000,
	}, c.client, reader, nil, zap.NewNop())
	require.NoError(t, err)
	return tx
}

func TestTransactorSubmitRevertedReceipt(t *testing.T) {
	chain := newSimulatedChain(t)
	contract := chain.deployReverting(t)
	tx := chain.transactor(t)

	res, err := tx.SetVoluntaryTrigger(context.Background(), contract)
	require.ErrorIs(t, err, ErrReverted)
	require.Equal(t, txStatusFailed, res.Status)
	require.NotEmpty(t, res.Hash)
	require.NotZero(t, res.BlockNumber)
	require.Equal(t, contract.Hex(), res.To)
}

func TestTransactorSubmitSuccessfulReceipt(t *testing.T) {
	chain := newSimulatedChain(t)
	tx := chain.transactor(t)

	// a call to an account without code always succeeds
	target := common.HexToAddress("0x5555555555555555555555555555555555555555")
	res, err := tx.SetVoluntaryTrigger(context.Background(), target)
	require.NoError(t, err)
	require.Equal(t, txStatusSuccess, res.Status)
	require.NotZero(t, res.BlockNumber)

	receipt, err := chain.client.TransactionReceipt(context.Background(), common.HexToHash(res.Hash))
	require.NoError(t, err)
	require.Equal(t, types.ReceiptStatusSuccessful, receipt.Status)
}

func TestTransactorSubmitWithoutWait(t *testing.T) {
	chain := newSimulatedChain(t)
	reader, err := NewReader(chain.client)
	require.NoError(t, err)

	tx, err := NewTransactor(TransactorConfig{
		PrivateKey: chain.keyHex,
		ChainID:    chain.chainID,
		GasLimit:   100000,
	}, chain.client, reader, nil, nil)
	require.NoError(t, err)

	res, err := tx.SetVoluntaryTrigger(context.Background(), chain.deployReverting(t))
	require.NoError(t, err)
	require.Equal(t, txStatusSubmitted, res.Status)
	require.Zero(t, res.BlockNumber)
}
