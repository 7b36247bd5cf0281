package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/tdvu/marketsnap/internal/core/domain"
)

// AssetRepo implements storage.AssetRepository using PostgreSQL.
type AssetRepo struct {
	db *DB
}

// NewAssetRepo creates a new PostgreSQL asset repository.
func NewAssetRepo(db *DB) *AssetRepo {
	return &AssetRepo{db: db}
}

type assetRow struct {
	Collection string    `db:"collection"`
	TokenID    string    `db:"token_id"`
	Proto      int64     `db:"proto"`
	Name       string    `db:"name"`
	Rarity     string    `db:"rarity"`
	Status     string    `db:"status"`
	UpdatedAt  time.Time `db:"updated_at"`
}

const upsertAssetQuery = `
	INSERT INTO assets (collection, token_id, proto, name, rarity, status, updated_at)
	VALUES (:collection, :token_id, :proto, :name, :rarity, :status, :updated_at)
	ON CONFLICT (collection, token_id) DO UPDATE SET
		proto      = EXCLUDED.proto,
		name       = EXCLUDED.name,
		rarity     = EXCLUDED.rarity,
		status     = EXCLUDED.status,
		updated_at = EXCLUDED.updated_at`

// SaveBatch upserts multiple assets in one transaction.
func (r *AssetRepo) SaveBatch(ctx context.Context, assets []*domain.Asset) error {
	if len(assets) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, a := range assets {
		row := assetRow{
			Collection: a.Collection,
			TokenID:    a.TokenID,
			Proto:      int64(a.Proto),
			Name:       a.Name,
			Rarity:     a.Rarity,
			Status:     string(a.Status),
			UpdatedAt:  a.UpdatedAt,
		}
		if _, err := tx.NamedExecContext(ctx, upsertAssetQuery, row); err != nil {
			return fmt.Errorf("failed to save asset %s: %w", a.TokenID, err)
		}
	}

	return tx.Commit()
}

// Count returns the number of assets in a collection.
func (r *AssetRepo) Count(ctx context.Context, collection string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM assets WHERE collection = $1`, collection)
	if err != nil {
		return 0, fmt.Errorf("failed to count assets: %w", err)
	}
	return count, nil
}

// SupplyByProto returns the circulating (non-burned) asset count per proto.
func (r *AssetRepo) SupplyByProto(
	ctx context.Context,
	collection string,
) (map[domain.ProtoID]int64, error) {
	rows, err := r.db.QueryxContext(ctx,
		`SELECT proto, COUNT(*) AS supply
		 FROM assets
		 WHERE collection = $1 AND status != $2
		 GROUP BY proto`,
		collection, string(domain.AssetStatusBurned))
	if err != nil {
		return nil, fmt.Errorf("failed to query supply: %w", err)
	}
	defer rows.Close()

	supply := make(map[domain.ProtoID]int64)
	for rows.Next() {
		var proto, count int64
		if err := rows.Scan(&proto, &count); err != nil {
			return nil, fmt.Errorf("failed to scan supply row: %w", err)
		}
		supply[domain.ProtoID(proto)] = count
	}
	return supply, rows.Err()
}
