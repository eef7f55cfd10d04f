package main

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"heritagechain/internal/config"
	"heritagechain/internal/heritage"
	"heritagechain/internal/plan"
)

func newTxCmd() *cobra.Command {
	txCmd := &cobra.Command{
		Use:   "tx",
		Short: "Submit plan transactions",
	}
	addChainFlags(txCmd.PersistentFlags())
	txCmd.PersistentFlags().String("private-key", "", "hex private key (prefer HERITAGE_PRIVATE_KEY)")
	txCmd.PersistentFlags().Bool("wait", true, "wait for the transaction receipt")
	txCmd.PersistentFlags().Uint64("gas-limit", 0, "gas limit, 0 means estimate")

	deployCmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy a plan for the signing account through the factory",
		RunE: txRunner(func(ctx context.Context, s *txSession) (plan.TxResult, error) {
			factory, err := heritage.ParseAddress(s.cfg.Factory)
			if err != nil {
				return plan.TxResult{}, fmt.Errorf("factory: %w", err)
			}
			return s.tx.Deploy(ctx, factory)
		}),
	}

	depositCmd := &cobra.Command{
		Use:   "deposit",
		Short: "Deposit ether into the plan",
		RunE: txRunner(func(ctx context.Context, s *txSession) (plan.TxResult, error) {
			contract, err := s.contract(ctx)
			if err != nil {
				return plan.TxResult{}, err
			}
			return s.tx.Deposit(ctx, contract, s.txCfg.Amount)
		}),
	}
	depositCmd.Flags().String("amount", "", "amount in ether, e.g. 0.5")

	configureCmd := &cobra.Command{
		Use:   "configure",
		Short: "Replace the plan beneficiaries",
		RunE: txRunner(func(ctx context.Context, s *txSession) (plan.TxResult, error) {
			beneficiaries, err := config.ParseBeneficiaries(s.txCfg.Beneficiaries)
			if err != nil {
				return plan.TxResult{}, err
			}
			contract, err := s.contract(ctx)
			if err != nil {
				return plan.TxResult{}, err
			}
			return s.tx.Configure(ctx, contract, beneficiaries)
		}),
	}
	configureCmd.Flags().StringSlice("beneficiary", nil, "beneficiary as address=percentage, repeatable")

	setTimeCmd := &cobra.Command{
		Use:   "set-time-trigger",
		Short: "Schedule distribution at a future time",
		RunE: txRunner(func(ctx context.Context, s *txSession) (plan.TxResult, error) {
			at, err := config.ParseTimestamp(s.txCfg.At)
			if err != nil {
				return plan.TxResult{}, fmt.Errorf("parse at: %w", err)
			}
			contract, err := s.contract(ctx)
			if err != nil {
				return plan.TxResult{}, err
			}
			return s.tx.SetTimeTrigger(ctx, contract, at)
		}),
	}
	setTimeCmd.Flags().String("at", "", "trigger time (unix seconds or RFC3339)")

	txCmd.AddCommand(
		deployCmd,
		depositCmd,
		configureCmd,
		setTimeCmd,
		planTxCmd("set-voluntary-trigger", "Switch the plan to a manually activated trigger", (*plan.Transactor).SetVoluntaryTrigger),
		planTxCmd("activate", "Activate a voluntary trigger", (*plan.Transactor).ActivateVoluntaryTrigger),
		planTxCmd("check-trigger", "Ask the contract to evaluate a time-based trigger", (*plan.Transactor).CheckTimeBasedTrigger),
		planTxCmd("cancel", "Cancel the plan and refund deposits", (*plan.Transactor).Cancel),
	)
	return txCmd
}

func planTxCmd(use, short string, call func(*plan.Transactor, context.Context, common.Address) (plan.TxResult, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: txRunner(func(ctx context.Context, s *txSession) (plan.TxResult, error) {
			contract, err := s.contract(ctx)
			if err != nil {
				return plan.TxResult{}, err
			}
			return call(s.tx, ctx, contract)
		}),
	}
}

type txSession struct {
	*session
	txCfg config.TxConfig
	tx    *plan.Transactor
}

func txRunner(fn func(ctx context.Context, s *txSession) (plan.TxResult, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		cfgFile, _ := cmd.Flags().GetString("config")
		cfg, err := config.LoadTx(cfgFile, cmd.Flags())
		if err != nil {
			return err
		}

		logger, err := newLogger(cfg.LogLevel)
		if err != nil {
			return err
		}
		defer logger.Sync()

		ctx, stop := signalContext()
		defer stop()

		sess, err := openSession(ctx, cfg.Config, logger)
		if err != nil {
			return err
		}
		defer sess.Close()

		chainID, err := sess.client.GetChainID(ctx)
		if err != nil {
			return fmt.Errorf("get chain id: %w", err)
		}

		transactor, err := plan.NewTransactor(plan.TransactorConfig{
			PrivateKey: cfg.PrivateKey,
			ChainID:    chainID,
			Wait:       cfg.Wait,
			GasLimit:   cfg.GasLimit,
		}, sess.client.Backend(), sess.plans, sess.client, logger)
		if err != nil {
			return err
		}
		if sess.cfg.Owner == "" {
			sess.cfg.Owner = transactor.From().Hex()
		}

		logger.Info("tx start",
			zap.String("command", cmd.Name()),
			zap.String("from", transactor.From().Hex()),
			zap.String("chain_id", chainID.String()),
			zap.Bool("wait", cfg.Wait),
		)

		res, err := fn(ctx, &txSession{session: sess, txCfg: cfg, tx: transactor})
		if res.Hash != "" {
			if werr := writeJSON(cmd.OutOrStdout(), res); werr != nil && err == nil {
				err = werr
			}
		}
		return err
	}
}
