package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"heritagechain/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS plan_snapshots (
	id                  UUID PRIMARY KEY,
	chain_id            BIGINT NOT NULL,
	contract            TEXT NOT NULL,
	trigger_type        TEXT NOT NULL,
	trigger_timestamp   BIGINT NOT NULL,
	trigger_activated   BOOLEAN NOT NULL,
	distributed         BOOLEAN NOT NULL,
	total_deposit_wei   TEXT NOT NULL,
	beneficiary_count   BIGINT NOT NULL,
	simulated           BOOLEAN NOT NULL,
	configured_at_block BIGINT,
	configured_at       BIGINT,
	captured_at         TIMESTAMPTZ NOT NULL,
	fingerprint         TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS plan_snapshots_contract_idx ON plan_snapshots (chain_id, contract, captured_at);

CREATE TABLE IF NOT EXISTS plan_snapshot_beneficiaries (
	snapshot_id UUID NOT NULL REFERENCES plan_snapshots (id) ON DELETE CASCADE,
	position    INT NOT NULL,
	address     TEXT NOT NULL,
	percentage  DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (snapshot_id, position)
);

CREATE TABLE IF NOT EXISTS watch_state (
	name        TEXT PRIMARY KEY,
	fingerprint TEXT NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL
);
`

// Store provides Postgres persistence for plan snapshots.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Migrate creates the snapshot tables when missing.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// PutSnapshot inserts a snapshot and its beneficiaries in one batch.
func (s *Store) PutSnapshot(ctx context.Context, snap model.PlanSnapshot) error {
	parsedID, err := uuid.Parse(snap.ID)
	if err != nil {
		return fmt.Errorf("snapshot id: %w", err)
	}
	id := [16]byte(parsedID)

	var configuredAtBlock, configuredAt *int64
	if snap.ConfiguredAtBlock > 0 {
		block := int64(snap.ConfiguredAtBlock)
		configuredAtBlock = &block
	}
	if snap.ConfiguredAt > 0 {
		ts := int64(snap.ConfiguredAt)
		configuredAt = &ts
	}

	batch := &pgx.Batch{}
	batch.Queue(`
		INSERT INTO plan_snapshots (
			id, chain_id, contract, trigger_type, trigger_timestamp, trigger_activated,
			distributed, total_deposit_wei, beneficiary_count, simulated,
			configured_at_block, configured_at, captured_at, fingerprint
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13::timestamptz,$14)
	`,
		id,
		int64(snap.ChainID),
		snap.Contract,
		snap.Status.Trigger.Type.String(),
		int64(snap.Status.Trigger.Timestamp),
		snap.Status.Trigger.Activated,
		snap.Status.Distributed,
		snap.Status.TotalDepositWei,
		int64(snap.Status.BeneficiaryCount),
		snap.Simulated,
		configuredAtBlock,
		configuredAt,
		snap.CapturedAt,
		snap.Fingerprint,
	)
	for i, b := range snap.Beneficiaries {
		batch.Queue(`
			INSERT INTO plan_snapshot_beneficiaries (snapshot_id, position, address, percentage)
			VALUES ($1, $2, $3, $4)
		`, id, i, b.Address, b.Percentage)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("insert snapshot: %w", err)
		}
	}
	return nil
}

// LoadState returns the last written fingerprint for a watch.
func (s *Store) LoadState(ctx context.Context, name string) (string, bool, error) {
	if name == "" {
		return "", false, fmt.Errorf("state name required")
	}
	var fingerprint string
	row := s.pool.QueryRow(ctx, `SELECT fingerprint FROM watch_state WHERE name=$1`, name)
	if err := row.Scan(&fingerprint); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return fingerprint, true, nil
}

// SaveState upserts the last written fingerprint for a watch.
func (s *Store) SaveState(ctx context.Context, name string, fingerprint string) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO watch_state (name, fingerprint, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET fingerprint = EXCLUDED.fingerprint, updated_at = now()
	`, name, fingerprint)
	return err
}
