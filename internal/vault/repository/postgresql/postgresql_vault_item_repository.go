// Package postgresql implements vault item persistence for PostgreSQL.
// Value updates use compare-and-swap on the version column so concurrent
// writers cannot silently overwrite each other.
package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/allisson/vaultcore/internal/database"
	apperrors "github.com/allisson/vaultcore/internal/errors"
	vaultDomain "github.com/allisson/vaultcore/internal/vault/domain"
)

const vaultItemColumns = `id, owner_id, secret_type, provider, ciphertext, nonce,
		dek_id, dek_kek_id, dek_algorithm, dek_encrypted_key, dek_nonce, dek_created_at,
		version, metadata, tags, expires_at, auto_rotate_enabled, rotate_after_seconds, last_rotated_at,
		blockchain_hash, anchor_ref, access_count, last_accessed_at, status, created_at, updated_at`

// PostgreSQLVaultItemRepository implements VaultItem persistence for PostgreSQL.
type PostgreSQLVaultItemRepository struct {
	db *sql.DB
}

// NewPostgreSQLVaultItemRepository creates a new PostgreSQL VaultItem repository instance.
func NewPostgreSQLVaultItemRepository(db *sql.DB) *PostgreSQLVaultItemRepository {
	return &PostgreSQLVaultItemRepository{db: db}
}

// Create inserts a new vault item.
func (p *PostgreSQLVaultItemRepository) Create(ctx context.Context, item *vaultDomain.VaultItem) error {
	querier := database.GetTx(ctx, p.db)

	metadataJSON, err := json.Marshal(item.Metadata)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal metadata")
	}

	query := `INSERT INTO vault_items (` + vaultItemColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26)`

	_, err = querier.ExecContext(
		ctx,
		query,
		item.ID,
		item.OwnerID,
		item.SecretType,
		item.Provider,
		item.Ciphertext,
		item.Nonce,
		item.WrappedDek.ID,
		item.WrappedDek.KekID,
		item.WrappedDek.Algorithm,
		item.WrappedDek.EncryptedKey,
		item.WrappedDek.Nonce,
		item.WrappedDek.CreatedAt,
		item.Version,
		metadataJSON,
		pq.Array(item.Tags),
		item.ExpiresAt,
		item.AutoRotateEnabled,
		int64(item.RotateAfter/time.Second),
		item.LastRotatedAt,
		item.BlockchainHash,
		item.AnchorRef,
		item.AccessCount,
		item.LastAccessedAt,
		item.Status,
		item.CreatedAt,
		item.UpdatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create vault item")
	}
	return nil
}

// Get retrieves a vault item by ID regardless of status. Callers decide how
// to surface soft-deleted items.
func (p *PostgreSQLVaultItemRepository) Get(ctx context.Context, id uuid.UUID) (*vaultDomain.VaultItem, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + vaultItemColumns + ` FROM vault_items WHERE id = $1`

	item, err := scanVaultItem(querier.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, vaultDomain.ErrVaultItemNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get vault item")
	}
	return item, nil
}

// List retrieves vault items owned by the given user, filtered and paginated,
// newest first.
func (p *PostgreSQLVaultItemRepository) List(
	ctx context.Context,
	ownerID uuid.UUID,
	filter vaultDomain.ListFilter,
	limit, offset int,
) ([]*vaultDomain.VaultItem, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + vaultItemColumns + ` FROM vault_items WHERE owner_id = $1`
	args := []any{ownerID}

	if filter.SecretType != "" {
		args = append(args, filter.SecretType)
		query += ` AND secret_type = $` + strconv.Itoa(len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += ` AND status = $` + strconv.Itoa(len(args))
	} else {
		query += ` AND status = 'active'`
	}
	if len(filter.Tags) > 0 {
		args = append(args, pq.Array(filter.Tags))
		query += ` AND tags @> $` + strconv.Itoa(len(args))
	}

	args = append(args, limit)
	query += ` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(len(args))
	args = append(args, offset)
	query += ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list vault items")
	}
	defer rows.Close() //nolint:errcheck

	return collectVaultItems(rows)
}

// ListByIDs retrieves the active vault items whose IDs are in the given set.
func (p *PostgreSQLVaultItemRepository) ListByIDs(
	ctx context.Context,
	ids []uuid.UUID,
) ([]*vaultDomain.VaultItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + vaultItemColumns + ` FROM vault_items
			  WHERE id = ANY($1) AND status = 'active'
			  ORDER BY created_at DESC`

	rows, err := querier.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list vault items by ids")
	}
	defer rows.Close() //nolint:errcheck

	return collectVaultItems(rows)
}

// UpdateValue replaces the encrypted payload and wrapped DEK using
// compare-and-swap on the version column. The item must carry the already
// incremented version; expectedVersion is the version the caller read. When
// no row matches, the item changed underneath the caller and
// ErrStaleVersion is returned.
func (p *PostgreSQLVaultItemRepository) UpdateValue(
	ctx context.Context,
	item *vaultDomain.VaultItem,
	expectedVersion uint,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE vault_items
			  SET ciphertext = $1, nonce = $2,
			      dek_id = $3, dek_kek_id = $4, dek_algorithm = $5, dek_encrypted_key = $6, dek_nonce = $7, dek_created_at = $8,
			      version = $9, blockchain_hash = $10, anchor_ref = $11, last_rotated_at = $12, updated_at = $13
			  WHERE id = $14 AND version = $15 AND status = 'active'`

	result, err := querier.ExecContext(
		ctx,
		query,
		item.Ciphertext,
		item.Nonce,
		item.WrappedDek.ID,
		item.WrappedDek.KekID,
		item.WrappedDek.Algorithm,
		item.WrappedDek.EncryptedKey,
		item.WrappedDek.Nonce,
		item.WrappedDek.CreatedAt,
		item.Version,
		item.BlockchainHash,
		item.AnchorRef,
		item.LastRotatedAt,
		item.UpdatedAt,
		item.ID,
		expectedVersion,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update vault item value")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to check update result")
	}
	if affected == 0 {
		return vaultDomain.ErrStaleVersion
	}
	return nil
}

// UpdateMetadata replaces the non-cryptographic attributes. The version
// column is not bumped; only value changes advance it.
func (p *PostgreSQLVaultItemRepository) UpdateMetadata(ctx context.Context, item *vaultDomain.VaultItem) error {
	querier := database.GetTx(ctx, p.db)

	metadataJSON, err := json.Marshal(item.Metadata)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal metadata")
	}

	query := `UPDATE vault_items
			  SET provider = $1, metadata = $2, tags = $3, expires_at = $4,
			      auto_rotate_enabled = $5, rotate_after_seconds = $6, updated_at = $7
			  WHERE id = $8 AND status = 'active'`

	result, err := querier.ExecContext(
		ctx,
		query,
		item.Provider,
		metadataJSON,
		pq.Array(item.Tags),
		item.ExpiresAt,
		item.AutoRotateEnabled,
		int64(item.RotateAfter/time.Second),
		item.UpdatedAt,
		item.ID,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update vault item metadata")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to check update result")
	}
	if affected == 0 {
		return vaultDomain.ErrVaultItemNotFound
	}
	return nil
}

// UpdateWrappedDek rewraps the item's DEK under a new KEK without touching
// the payload. CAS on version protects against a concurrent value update
// racing the rewrap.
func (p *PostgreSQLVaultItemRepository) UpdateWrappedDek(
	ctx context.Context,
	item *vaultDomain.VaultItem,
	expectedVersion uint,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE vault_items
			  SET dek_id = $1, dek_kek_id = $2, dek_algorithm = $3, dek_encrypted_key = $4, dek_nonce = $5, dek_created_at = $6,
			      updated_at = $7
			  WHERE id = $8 AND version = $9`

	result, err := querier.ExecContext(
		ctx,
		query,
		item.WrappedDek.ID,
		item.WrappedDek.KekID,
		item.WrappedDek.Algorithm,
		item.WrappedDek.EncryptedKey,
		item.WrappedDek.Nonce,
		item.WrappedDek.CreatedAt,
		time.Now().UTC(),
		item.ID,
		expectedVersion,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to rewrap vault item dek")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to check update result")
	}
	if affected == 0 {
		return vaultDomain.ErrStaleVersion
	}
	return nil
}

// Delete performs a soft delete by setting status to deleted.
// Compare-and-swap on version, like the other mutations, so a delete racing
// a value update loses instead of silently discarding the new version.
func (p *PostgreSQLVaultItemRepository) Delete(ctx context.Context, id uuid.UUID, expectedVersion uint) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE vault_items SET status = $1, updated_at = $2 WHERE id = $3 AND version = $4 AND status = 'active'`

	result, err := querier.ExecContext(ctx, query, vaultDomain.StatusDeleted, time.Now().UTC(), id, expectedVersion)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete vault item")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to check delete result")
	}
	if affected == 0 {
		return vaultDomain.ErrStaleVersion
	}
	return nil
}

// IncrementAccess bumps the access counter and timestamp after an authorized
// decrypt.
func (p *PostgreSQLVaultItemRepository) IncrementAccess(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE vault_items SET access_count = access_count + 1, last_accessed_at = $1 WHERE id = $2`

	_, err := querier.ExecContext(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return apperrors.Wrap(err, "failed to increment access count")
	}
	return nil
}

// ListDueForRotation retrieves active items whose auto-rotation interval has
// elapsed since the last value change. Due-ness is computed from
// last_rotated_at, which only value updates and rotations advance, so a
// metadata edit cannot defer a scheduled rotation.
func (p *PostgreSQLVaultItemRepository) ListDueForRotation(
	ctx context.Context,
	now time.Time,
	limit int,
) ([]*vaultDomain.VaultItem, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + vaultItemColumns + ` FROM vault_items
			  WHERE status = 'active' AND auto_rotate_enabled = TRUE AND rotate_after_seconds > 0
			    AND last_rotated_at + make_interval(secs => rotate_after_seconds) <= $1
			  ORDER BY last_rotated_at ASC
			  LIMIT $2`

	rows, err := querier.QueryContext(ctx, query, now, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list items due for rotation")
	}
	defer rows.Close() //nolint:errcheck

	return collectVaultItems(rows)
}

// ListNotWrappedByKek retrieves items whose DEK is wrapped under a KEK other
// than the given one, for the rewrap sweep after a KEK rotation.
func (p *PostgreSQLVaultItemRepository) ListNotWrappedByKek(
	ctx context.Context,
	kekID uuid.UUID,
	limit int,
) ([]*vaultDomain.VaultItem, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + vaultItemColumns + ` FROM vault_items
			  WHERE dek_kek_id <> $1
			  ORDER BY created_at ASC
			  LIMIT $2`

	rows, err := querier.QueryContext(ctx, query, kekID, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list items for rewrap")
	}
	defer rows.Close() //nolint:errcheck

	return collectVaultItems(rows)
}

// DeleteByOwner hard-deletes every vault item owned by the given user and
// returns the removed IDs. This is the only hard-delete path; it exists for
// the GDPR purge.
func (p *PostgreSQLVaultItemRepository) DeleteByOwner(ctx context.Context, ownerID uuid.UUID) ([]uuid.UUID, error) {
	querier := database.GetTx(ctx, p.db)

	query := `DELETE FROM vault_items WHERE owner_id = $1 RETURNING id`

	rows, err := querier.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to purge vault items")
	}
	defer rows.Close() //nolint:errcheck

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan purged vault item id")
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to purge vault items")
	}
	return ids, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVaultItem(row rowScanner) (*vaultDomain.VaultItem, error) {
	var (
		item               vaultDomain.VaultItem
		metadataJSON       []byte
		tags               pq.StringArray
		rotateAfterSeconds int64
	)

	err := row.Scan(
		&item.ID,
		&item.OwnerID,
		&item.SecretType,
		&item.Provider,
		&item.Ciphertext,
		&item.Nonce,
		&item.WrappedDek.ID,
		&item.WrappedDek.KekID,
		&item.WrappedDek.Algorithm,
		&item.WrappedDek.EncryptedKey,
		&item.WrappedDek.Nonce,
		&item.WrappedDek.CreatedAt,
		&item.Version,
		&metadataJSON,
		&tags,
		&item.ExpiresAt,
		&item.AutoRotateEnabled,
		&rotateAfterSeconds,
		&item.LastRotatedAt,
		&item.BlockchainHash,
		&item.AnchorRef,
		&item.AccessCount,
		&item.LastAccessedAt,
		&item.Status,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &item.Metadata); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal metadata")
		}
	}
	item.Tags = []string(tags)
	item.RotateAfter = time.Duration(rotateAfterSeconds) * time.Second

	return &item, nil
}

func collectVaultItems(rows *sql.Rows) ([]*vaultDomain.VaultItem, error) {
	var items []*vaultDomain.VaultItem
	for rows.Next() {
		item, err := scanVaultItem(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan vault item")
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to read vault items")
	}
	return items, nil
}

