package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"heritagechain/internal/beneficiary"
	"heritagechain/internal/chain"
	"heritagechain/internal/config"
	"heritagechain/internal/heritage"
	"heritagechain/internal/plan"
)

func main() {
	root := &cobra.Command{
		Use:          "heritage",
		Short:        "HeritageChain inheritance plan client",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(newBeneficiariesCmd())
	root.AddCommand(newSimulateCmd())
	root.AddCommand(newStatusCmd())
	root.AddCommand(newTxCmd())
	root.AddCommand(newWatchCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addChainFlags(flags *pflag.FlagSet) {
	flags.String("rpc", "", "JSON-RPC URL")
	flags.String("contract", "", "plan contract address")
	flags.String("factory", "", "factory contract address, used with --owner")
	flags.String("owner", "", "plan owner address, used with --factory")
	flags.Uint64("batch-size", 0, "blocks per log query, 0 means one query")
	flags.Int("max-retries", 3, "maximum retry attempts")
	flags.Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func writeJSON(w io.Writer, value interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

// session holds the chain-facing dependencies shared by the plan commands.
type session struct {
	cfg    config.Config
	logger *zap.Logger
	client *chain.Client
	plans  *plan.Reader
}

func openSession(ctx context.Context, cfg config.Config, logger *zap.Logger) (*session, error) {
	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("rpc url is required")
	}

	client, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("connect rpc: %w", err)
	}
	plans, err := plan.NewReader(client)
	if err != nil {
		client.Close()
		return nil, err
	}
	return &session{cfg: cfg, logger: logger, client: client, plans: plans}, nil
}

func (s *session) Close() {
	s.client.Close()
}

// contract returns --contract, or the plan the factory reports for --owner.
func (s *session) contract(ctx context.Context) (common.Address, error) {
	if s.cfg.Contract != "" {
		return heritage.ParseAddress(s.cfg.Contract)
	}
	factory, err := heritage.ParseAddress(s.cfg.Factory)
	if err != nil {
		return common.Address{}, fmt.Errorf("factory: %w", err)
	}
	owner, err := heritage.ParseAddress(s.cfg.Owner)
	if err != nil {
		return common.Address{}, fmt.Errorf("owner: %w", err)
	}

	addr, ok, err := s.plans.PlanAddress(ctx, factory, owner)
	if err != nil {
		return common.Address{}, fmt.Errorf("lookup plan: %w", err)
	}
	if !ok {
		return common.Address{}, fmt.Errorf("no plan deployed for owner %s", owner.Hex())
	}
	s.logger.Debug("plan resolved", zap.String("owner", owner.Hex()), zap.String("contract", addr.Hex()))
	return addr, nil
}

func (s *session) logReader() (*beneficiary.ChainReader, error) {
	return beneficiary.NewChainReader(beneficiary.ReaderConfig{
		BatchSize:    s.cfg.BatchSize,
		MaxRetries:   s.cfg.MaxRetries,
		RetryBackoff: s.cfg.RetryBackoff,
	}, s.client, s.logger)
}
