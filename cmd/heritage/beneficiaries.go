package main

import (
	"math/rand"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"heritagechain/internal/beneficiary"
	"heritagechain/internal/config"
	"heritagechain/internal/model"
)

type beneficiariesOutput struct {
	Contract      string              `json:"contract"`
	Beneficiaries []model.Beneficiary `json:"beneficiaries"`
	Simulated     bool                `json:"simulated"`
}

func newBeneficiariesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "beneficiaries",
		Short: "Reconstruct the current beneficiaries from contract events",
		RunE:  runBeneficiaries,
	}
	addChainFlags(cmd.Flags())
	cmd.Flags().Bool("simulate-fallback", false, "generate placeholder beneficiaries when none can be reconstructed")
	return cmd
}

func runBeneficiaries(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signalContext()
	defer stop()

	sess, err := openSession(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer sess.Close()

	contract, err := sess.contract(ctx)
	if err != nil {
		return err
	}
	reader, err := sess.logReader()
	if err != nil {
		return err
	}

	out := beneficiariesOutput{Contract: contract.Hex()}
	if !cfg.SimulateFallback {
		out.Beneficiaries = beneficiary.Fetch(ctx, reader, contract.Hex(), logger)
		return writeJSON(cmd.OutOrStdout(), out)
	}

	var count uint64
	status, err := sess.plans.Status(ctx, contract)
	if err != nil {
		logger.Warn("status read failed, fallback disabled", zap.String("contract", contract.Hex()), zap.Error(err))
	} else {
		count = status.BeneficiaryCount
	}

	res := beneficiary.Resolve(ctx, reader, contract.Hex(), count, nil, logger)
	out.Beneficiaries = res.Beneficiaries
	out.Simulated = res.Simulated
	return writeJSON(cmd.OutOrStdout(), out)
}

func newSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Generate placeholder beneficiaries",
		RunE:  runSimulate,
	}
	cmd.Flags().Int("count", 1, "number of beneficiaries")
	cmd.Flags().Int64("seed", 0, "random seed, 0 means time based")
	return cmd
}

func runSimulate(cmd *cobra.Command, _ []string) error {
	count, _ := cmd.Flags().GetInt("count")
	seed, _ := cmd.Flags().GetInt64("seed")

	var rng *rand.Rand
	if seed != 0 {
		rng = rand.New(rand.NewSource(seed))
	}

	return writeJSON(cmd.OutOrStdout(), beneficiariesOutput{
		Beneficiaries: beneficiary.Simulate(count, rng),
		Simulated:     true,
	})
}
