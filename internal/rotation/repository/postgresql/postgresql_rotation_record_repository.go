// Package postgresql implements rotation history persistence for PostgreSQL.
package postgresql

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/allisson/vaultcore/internal/database"
	apperrors "github.com/allisson/vaultcore/internal/errors"
	rotationDomain "github.com/allisson/vaultcore/internal/rotation/domain"
)

const rotationRecordColumns = `id, vault_item_id, actor_id, trigger_kind, old_version, new_version, rotated_at`

// PostgreSQLRotationRecordRepository implements RotationRecord persistence for PostgreSQL.
type PostgreSQLRotationRecordRepository struct {
	db *sql.DB
}

// NewPostgreSQLRotationRecordRepository creates a new PostgreSQL RotationRecord repository instance.
func NewPostgreSQLRotationRecordRepository(db *sql.DB) *PostgreSQLRotationRecordRepository {
	return &PostgreSQLRotationRecordRepository{db: db}
}

// Create inserts a new rotation record.
func (p *PostgreSQLRotationRecordRepository) Create(ctx context.Context, record *rotationDomain.RotationRecord) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO rotation_records (` + rotationRecordColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := querier.ExecContext(
		ctx,
		query,
		record.ID,
		record.VaultItemID,
		record.ActorID,
		record.Trigger,
		record.OldVersion,
		record.NewVersion,
		record.RotatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create rotation record")
	}
	return nil
}

// ListByVaultItem retrieves the rotation history of an item, newest first.
func (p *PostgreSQLRotationRecordRepository) ListByVaultItem(
	ctx context.Context,
	vaultItemID uuid.UUID,
	limit, offset int,
) ([]*rotationDomain.RotationRecord, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + rotationRecordColumns + ` FROM rotation_records
			  WHERE vault_item_id = $1
			  ORDER BY rotated_at DESC
			  LIMIT $2 OFFSET $3`

	rows, err := querier.QueryContext(ctx, query, vaultItemID, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list rotation records")
	}
	defer rows.Close() //nolint:errcheck

	var records []*rotationDomain.RotationRecord
	for rows.Next() {
		var record rotationDomain.RotationRecord
		err := rows.Scan(
			&record.ID,
			&record.VaultItemID,
			&record.ActorID,
			&record.Trigger,
			&record.OldVersion,
			&record.NewVersion,
			&record.RotatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan rotation record")
		}
		records = append(records, &record)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to read rotation records")
	}
	return records, nil
}

// DeleteByVaultItems removes rotation history for the given items. Used by
// the purge path.
func (p *PostgreSQLRotationRecordRepository) DeleteByVaultItems(ctx context.Context, vaultItemIDs []uuid.UUID) error {
	if len(vaultItemIDs) == 0 {
		return nil
	}

	querier := database.GetTx(ctx, p.db)

	query := `DELETE FROM rotation_records WHERE vault_item_id = ANY($1)`
	_, err := querier.ExecContext(ctx, query, pq.Array(vaultItemIDs))
	if err != nil {
		return apperrors.Wrap(err, "failed to delete rotation records")
	}
	return nil
}
