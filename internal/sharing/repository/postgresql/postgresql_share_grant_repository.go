// Package postgresql implements share grant persistence for PostgreSQL.
package postgresql

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/allisson/vaultcore/internal/database"
	apperrors "github.com/allisson/vaultcore/internal/errors"
	sharingDomain "github.com/allisson/vaultcore/internal/sharing/domain"
)

const shareGrantColumns = `id, vault_item_id, grantor_id, grantee_user_id, grantee_org_id,
		permission, expires_at, created_at, updated_at`

// PostgreSQLShareGrantRepository implements ShareGrant persistence for PostgreSQL.
type PostgreSQLShareGrantRepository struct {
	db *sql.DB
}

// NewPostgreSQLShareGrantRepository creates a new PostgreSQL ShareGrant repository instance.
func NewPostgreSQLShareGrantRepository(db *sql.DB) *PostgreSQLShareGrantRepository {
	return &PostgreSQLShareGrantRepository{db: db}
}

// Create inserts a new share grant.
func (p *PostgreSQLShareGrantRepository) Create(ctx context.Context, grant *sharingDomain.ShareGrant) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO share_grants (` + shareGrantColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := querier.ExecContext(
		ctx,
		query,
		grant.ID,
		grant.VaultItemID,
		grant.GrantorID,
		grant.GranteeUserID,
		grant.GranteeOrgID,
		grant.Permission,
		grant.ExpiresAt,
		grant.CreatedAt,
		grant.UpdatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create share grant")
	}
	return nil
}

// Update replaces the permission and expiry of an existing grant. Sharing the
// same item with the same grantee again replaces the previous grant.
func (p *PostgreSQLShareGrantRepository) Update(ctx context.Context, grant *sharingDomain.ShareGrant) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE share_grants
			  SET permission = $1, expires_at = $2, updated_at = $3
			  WHERE id = $4`

	result, err := querier.ExecContext(ctx, query, grant.Permission, grant.ExpiresAt, grant.UpdatedAt, grant.ID)
	if err != nil {
		return apperrors.Wrap(err, "failed to update share grant")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to check update result")
	}
	if affected == 0 {
		return sharingDomain.ErrGrantNotFound
	}
	return nil
}

// Get retrieves a share grant by ID.
func (p *PostgreSQLShareGrantRepository) Get(ctx context.Context, id uuid.UUID) (*sharingDomain.ShareGrant, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + shareGrantColumns + ` FROM share_grants WHERE id = $1`

	grant, err := scanShareGrant(querier.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sharingDomain.ErrGrantNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get share grant")
	}
	return grant, nil
}

// GetByItemAndGrantee retrieves the grant for a specific item and grantee.
// Exactly one of granteeUserID and granteeOrgID must be non-nil.
func (p *PostgreSQLShareGrantRepository) GetByItemAndGrantee(
	ctx context.Context,
	vaultItemID uuid.UUID,
	granteeUserID, granteeOrgID *uuid.UUID,
) (*sharingDomain.ShareGrant, error) {
	querier := database.GetTx(ctx, p.db)

	var (
		query string
		arg   uuid.UUID
	)
	switch {
	case granteeUserID != nil:
		query = `SELECT ` + shareGrantColumns + ` FROM share_grants
				 WHERE vault_item_id = $1 AND grantee_user_id = $2`
		arg = *granteeUserID
	case granteeOrgID != nil:
		query = `SELECT ` + shareGrantColumns + ` FROM share_grants
				 WHERE vault_item_id = $1 AND grantee_org_id = $2`
		arg = *granteeOrgID
	default:
		return nil, sharingDomain.ErrInvalidGrantee
	}

	grant, err := scanShareGrant(querier.QueryRowContext(ctx, query, vaultItemID, arg))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sharingDomain.ErrGrantNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get share grant")
	}
	return grant, nil
}

// FindForAccess retrieves every grant on the item that names the given user
// directly or through their organization.
func (p *PostgreSQLShareGrantRepository) FindForAccess(
	ctx context.Context,
	vaultItemID uuid.UUID,
	userID uuid.UUID,
	orgID *uuid.UUID,
) ([]*sharingDomain.ShareGrant, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + shareGrantColumns + ` FROM share_grants
			  WHERE vault_item_id = $1 AND (grantee_user_id = $2 OR ($3::uuid IS NOT NULL AND grantee_org_id = $3))`

	rows, err := querier.QueryContext(ctx, query, vaultItemID, userID, orgID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to find grants for access")
	}
	defer rows.Close() //nolint:errcheck

	return collectShareGrants(rows)
}

// ListByVaultItem retrieves all grants on an item.
func (p *PostgreSQLShareGrantRepository) ListByVaultItem(
	ctx context.Context,
	vaultItemID uuid.UUID,
) ([]*sharingDomain.ShareGrant, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + shareGrantColumns + ` FROM share_grants
			  WHERE vault_item_id = $1
			  ORDER BY created_at DESC`

	rows, err := querier.QueryContext(ctx, query, vaultItemID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list grants by vault item")
	}
	defer rows.Close() //nolint:errcheck

	return collectShareGrants(rows)
}

// ListForGrantee retrieves the unexpired grants naming the user directly or
// through their organization, newest first.
func (p *PostgreSQLShareGrantRepository) ListForGrantee(
	ctx context.Context,
	userID uuid.UUID,
	orgID *uuid.UUID,
) ([]*sharingDomain.ShareGrant, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + shareGrantColumns + ` FROM share_grants
			  WHERE (grantee_user_id = $1 OR ($2::uuid IS NOT NULL AND grantee_org_id = $2))
			    AND (expires_at IS NULL OR expires_at > $3)
			  ORDER BY created_at DESC`

	rows, err := querier.QueryContext(ctx, query, userID, orgID, time.Now().UTC())
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list grants for grantee")
	}
	defer rows.Close() //nolint:errcheck

	return collectShareGrants(rows)
}

// Delete removes a grant. Revocation is immediate; there is no grace period.
func (p *PostgreSQLShareGrantRepository) Delete(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, p.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM share_grants WHERE id = $1`, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete share grant")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to check delete result")
	}
	if affected == 0 {
		return sharingDomain.ErrGrantNotFound
	}
	return nil
}

// DeleteByVaultItems removes every grant on the given items. Used by the
// purge path after the items themselves are hard-deleted.
func (p *PostgreSQLShareGrantRepository) DeleteByVaultItems(ctx context.Context, vaultItemIDs []uuid.UUID) error {
	if len(vaultItemIDs) == 0 {
		return nil
	}

	querier := database.GetTx(ctx, p.db)

	_, err := querier.ExecContext(ctx, `DELETE FROM share_grants WHERE vault_item_id = ANY($1)`, pq.Array(vaultItemIDs))
	if err != nil {
		return apperrors.Wrap(err, "failed to delete grants by vault items")
	}
	return nil
}

// DeleteByUser removes every grant granted by or directly to the given user.
func (p *PostgreSQLShareGrantRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	querier := database.GetTx(ctx, p.db)

	_, err := querier.ExecContext(
		ctx,
		`DELETE FROM share_grants WHERE grantor_id = $1 OR grantee_user_id = $1`,
		userID,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete grants by user")
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanShareGrant(row rowScanner) (*sharingDomain.ShareGrant, error) {
	var grant sharingDomain.ShareGrant
	err := row.Scan(
		&grant.ID,
		&grant.VaultItemID,
		&grant.GrantorID,
		&grant.GranteeUserID,
		&grant.GranteeOrgID,
		&grant.Permission,
		&grant.ExpiresAt,
		&grant.CreatedAt,
		&grant.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &grant, nil
}

func collectShareGrants(rows *sql.Rows) ([]*sharingDomain.ShareGrant, error) {
	var grants []*sharingDomain.ShareGrant
	for rows.Next() {
		grant, err := scanShareGrant(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan share grant")
		}
		grants = append(grants, grant)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to read share grants")
	}
	return grants, nil
}
