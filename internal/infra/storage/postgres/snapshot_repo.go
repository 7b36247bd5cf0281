package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tdvu/marketsnap/internal/core/domain"
	"github.com/tdvu/marketsnap/internal/infra/storage"
)

// SnapshotRepo implements storage.SnapshotRepository using PostgreSQL.
type SnapshotRepo struct {
	db *DB
}

// NewSnapshotRepo creates a new PostgreSQL snapshot repository.
func NewSnapshotRepo(db *DB) *SnapshotRepo {
	return &SnapshotRepo{db: db}
}

type snapshotRow struct {
	ID           string          `db:"id"`
	Collection   string          `db:"collection"`
	TotalValue   decimal.Decimal `db:"total_value"`
	FloorSum     decimal.Decimal `db:"floor_sum"`
	TradeVolume  decimal.Decimal `db:"trade_volume"`
	Currency     string          `db:"currency"`
	PricedProtos int             `db:"priced_protos"`
	FailedProtos int             `db:"failed_protos"`
	CreatedAt    time.Time       `db:"created_at"`
}

func (r snapshotRow) toDomain() *domain.Snapshot {
	return &domain.Snapshot{
		ID:           r.ID,
		Collection:   r.Collection,
		TotalValue:   r.TotalValue,
		FloorSum:     r.FloorSum,
		TradeVolume:  r.TradeVolume,
		Currency:     r.Currency,
		PricedProtos: r.PricedProtos,
		FailedProtos: r.FailedProtos,
		CreatedAt:    r.CreatedAt,
	}
}

// Save inserts a snapshot.
func (r *SnapshotRepo) Save(ctx context.Context, snapshot *domain.Snapshot) error {
	row := snapshotRow{
		ID:           snapshot.ID,
		Collection:   snapshot.Collection,
		TotalValue:   snapshot.TotalValue,
		FloorSum:     snapshot.FloorSum,
		TradeVolume:  snapshot.TradeVolume,
		Currency:     snapshot.Currency,
		PricedProtos: snapshot.PricedProtos,
		FailedProtos: snapshot.FailedProtos,
		CreatedAt:    snapshot.CreatedAt,
	}
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO snapshots (id, collection, total_value, floor_sum, trade_volume, currency, priced_protos, failed_protos, created_at)
		VALUES (:id, :collection, :total_value, :floor_sum, :trade_volume, :currency, :priced_protos, :failed_protos, :created_at)`,
		row)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// Latest retrieves the most recent snapshot for a collection.
func (r *SnapshotRepo) Latest(ctx context.Context, collection string) (*domain.Snapshot, error) {
	var row snapshotRow
	err := r.db.GetContext(ctx, &row,
		`SELECT id, collection, total_value, floor_sum, trade_volume, currency, priced_protos, failed_protos, created_at
		 FROM snapshots WHERE collection = $1 ORDER BY created_at DESC LIMIT 1`,
		collection)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest snapshot: %w", err)
	}
	return row.toDomain(), nil
}

// List retrieves the most recent snapshots, newest first.
func (r *SnapshotRepo) List(
	ctx context.Context,
	collection string,
	limit int,
) ([]*domain.Snapshot, error) {
	if limit <= 0 {
		limit = 20
	}

	var rows []snapshotRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT id, collection, total_value, floor_sum, trade_volume, currency, priced_protos, failed_protos, created_at
		 FROM snapshots WHERE collection = $1 ORDER BY created_at DESC LIMIT $2`,
		collection, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	snapshots := make([]*domain.Snapshot, 0, len(rows))
	for _, row := range rows {
		snapshots = append(snapshots, row.toDomain())
	}
	return snapshots, nil
}

// DeleteOlderThan removes snapshots created before the threshold.
func (r *SnapshotRepo) DeleteOlderThan(
	ctx context.Context,
	collection string,
	threshold time.Time,
) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM snapshots WHERE collection = $1 AND created_at < $2`,
		collection, threshold)
	if err != nil {
		return fmt.Errorf("failed to delete snapshots: %w", err)
	}
	return nil
}
