package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"heritagechain/internal/config"
	"heritagechain/internal/storage"
	"heritagechain/internal/storage/postgres"
	"heritagechain/internal/watch"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll a plan and record snapshots when it changes",
		RunE:  runWatch,
	}
	addChainFlags(cmd.Flags())
	cmd.Flags().String("out", "", "output snapshots JSONL path")
	cmd.Flags().String("pg-dsn", "", "Postgres DSN, takes precedence over --out")
	cmd.Flags().String("state-file", "", "optional local state file for change tracking")
	cmd.Flags().String("state-name", "default", "state row name when tracking in Postgres")
	cmd.Flags().Duration("interval", 10*time.Second, "poll interval")
	cmd.Flags().Bool("once", false, "poll once and exit")
	return cmd
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadWatch(cfgFile, cmd.Flags())
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

	sess, err := openSession(ctx, cfg.Config, logger)
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

	var (
		sink       storage.Storage
		stateStore watch.StateStore
	)
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		if err := store.Migrate(ctx); err != nil {
			return err
		}
		sink = store
		stateStore = &watch.DBStateStore{Store: store, Name: fmt.Sprintf("%s:%s", cfg.StateName, contract.Hex())}
	} else {
		sink = storage.NewJsonlStorage(cfg.Out)
	}
	if cfg.StateFile != "" {
		stateStore = &watch.FileStateStore{Path: cfg.StateFile}
	}

	runner := watch.NewRunner(watch.Config{
		Contract:   contract,
		Interval:   cfg.Interval,
		Once:       cfg.Once,
		StateStore: stateStore,
	}, sess.plans, reader, sess.client, sink, logger)

	logger.Info("watch start",
		zap.String("contract", contract.Hex()),
		zap.String("out", cfg.Out),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.String("state_file", cfg.StateFile),
		zap.Duration("interval", cfg.Interval),
		zap.Bool("once", cfg.Once),
	)

	return runner.Run(ctx)
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
