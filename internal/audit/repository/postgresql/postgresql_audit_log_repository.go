// Package postgresql implements audit log persistence for PostgreSQL. The
// table is append-only; the only delete path is the GDPR purge.
package postgresql

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/google/uuid"
	"github.com/lib/pq"

	auditDomain "github.com/allisson/vaultcore/internal/audit/domain"
	"github.com/allisson/vaultcore/internal/database"
	apperrors "github.com/allisson/vaultcore/internal/errors"
)

const auditLogColumns = `id, vault_item_id, actor_id, action, success, ip_address, user_agent, error_detail, created_at`

// PostgreSQLAuditLogRepository implements AuditLog persistence for PostgreSQL.
type PostgreSQLAuditLogRepository struct {
	db *sql.DB
}

// NewPostgreSQLAuditLogRepository creates a new PostgreSQL AuditLog repository instance.
func NewPostgreSQLAuditLogRepository(db *sql.DB) *PostgreSQLAuditLogRepository {
	return &PostgreSQLAuditLogRepository{db: db}
}

// Create inserts a new audit log entry.
func (p *PostgreSQLAuditLogRepository) Create(ctx context.Context, entry *auditDomain.AuditLog) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO audit_logs (` + auditLogColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := querier.ExecContext(
		ctx,
		query,
		entry.ID,
		entry.VaultItemID,
		entry.ActorID,
		entry.Action,
		entry.Success,
		entry.IPAddress,
		entry.UserAgent,
		entry.ErrorDetail,
		entry.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create audit log")
	}
	return nil
}

// Query retrieves entries matching the filter, newest first, paginated.
func (p *PostgreSQLAuditLogRepository) Query(
	ctx context.Context,
	filter auditDomain.QueryFilter,
	limit, offset int,
) ([]*auditDomain.AuditLog, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + auditLogColumns + ` FROM audit_logs WHERE 1=1`
	var args []any

	if filter.VaultItemID != nil {
		args = append(args, *filter.VaultItemID)
		query += ` AND vault_item_id = $` + strconv.Itoa(len(args))
	}
	if filter.ActorID != nil {
		args = append(args, *filter.ActorID)
		query += ` AND actor_id = $` + strconv.Itoa(len(args))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		query += ` AND created_at >= $` + strconv.Itoa(len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		query += ` AND created_at < $` + strconv.Itoa(len(args))
	}

	args = append(args, limit)
	query += ` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(len(args))
	args = append(args, offset)
	query += ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to query audit logs")
	}
	defer rows.Close() //nolint:errcheck

	var entries []*auditDomain.AuditLog
	for rows.Next() {
		var entry auditDomain.AuditLog
		err := rows.Scan(
			&entry.ID,
			&entry.VaultItemID,
			&entry.ActorID,
			&entry.Action,
			&entry.Success,
			&entry.IPAddress,
			&entry.UserAgent,
			&entry.ErrorDetail,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan audit log")
		}
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to read audit logs")
	}
	return entries, nil
}

// DeleteByActor hard-deletes every entry recorded for the given actor. This
// exists for the GDPR purge only.
func (p *PostgreSQLAuditLogRepository) DeleteByActor(ctx context.Context, actorID uuid.UUID) error {
	querier := database.GetTx(ctx, p.db)

	_, err := querier.ExecContext(ctx, `DELETE FROM audit_logs WHERE actor_id = $1`, actorID)
	if err != nil {
		return apperrors.Wrap(err, "failed to purge audit logs")
	}
	return nil
}

// DeleteByVaultItems hard-deletes every entry recorded against the given
// items, including entries other actors wrote. This exists for the GDPR
// purge only.
func (p *PostgreSQLAuditLogRepository) DeleteByVaultItems(ctx context.Context, vaultItemIDs []uuid.UUID) error {
	if len(vaultItemIDs) == 0 {
		return nil
	}

	querier := database.GetTx(ctx, p.db)

	_, err := querier.ExecContext(ctx, `DELETE FROM audit_logs WHERE vault_item_id = ANY($1)`, pq.Array(vaultItemIDs))
	if err != nil {
		return apperrors.Wrap(err, "failed to purge audit logs by vault items")
	}
	return nil
}
