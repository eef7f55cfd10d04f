package main

import (
	"github.com/spf13/cobra"

	"heritagechain/internal/config"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Read the plan trigger, deposit and distribution state",
		RunE:  runStatus,
	}
	addChainFlags(cmd.Flags())
	return cmd
}

func runStatus(cmd *cobra.Command, _ []string) error {
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
	status, err := sess.plans.Status(ctx, contract)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), status)
}
