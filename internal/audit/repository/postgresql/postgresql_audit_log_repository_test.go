package postgresql

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auditDomain "github.com/allisson/vaultcore/internal/audit/domain"
)

var auditLogTestColumns = []string{
	"id", "vault_item_id", "actor_id", "action", "success",
	"ip_address", "user_agent", "error_detail", "created_at",
}

func testAuditLog() *auditDomain.AuditLog {
	itemID := uuid.Must(uuid.NewV7())
	return &auditDomain.AuditLog{
		ID:          uuid.Must(uuid.NewV7()),
		VaultItemID: &itemID,
		ActorID:     uuid.Must(uuid.NewV7()),
		Action:      auditDomain.ActionGet,
		Success:     true,
		IPAddress:   "203.0.113.10",
		UserAgent:   "vaultcore-cli/1.0",
		CreatedAt:   time.Now().UTC(),
	}
}

func TestPostgreSQLAuditLogRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	repo := NewPostgreSQLAuditLogRepository(db)
	entry := testAuditLog()

	mock.ExpectExec("INSERT INTO audit_logs").
		WithArgs(
			entry.ID, entry.VaultItemID, entry.ActorID, string(entry.Action), entry.Success,
			entry.IPAddress, entry.UserAgent, entry.ErrorDetail, entry.CreatedAt,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Create(context.Background(), entry)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLAuditLogRepository_Query(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	repo := NewPostgreSQLAuditLogRepository(db)
	entry := testAuditLog()

	row := func() *sqlmock.Rows {
		return sqlmock.NewRows(auditLogTestColumns).AddRow(
			entry.ID, entry.VaultItemID, entry.ActorID, string(entry.Action), entry.Success,
			entry.IPAddress, entry.UserAgent, entry.ErrorDetail, entry.CreatedAt,
		)
	}

	t.Run("no filter", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM audit_logs").
			WithArgs(50, 0).
			WillReturnRows(row())

		entries, err := repo.Query(context.Background(), auditDomain.QueryFilter{}, 50, 0)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, entry.ID, entries[0].ID)
	})

	t.Run("filter by item and actor", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM audit_logs").
			WithArgs(*entry.VaultItemID, entry.ActorID, 50, 0).
			WillReturnRows(row())

		filter := auditDomain.QueryFilter{VaultItemID: entry.VaultItemID, ActorID: &entry.ActorID}
		entries, err := repo.Query(context.Background(), filter, 50, 0)
		require.NoError(t, err)
		require.Len(t, entries, 1)
	})

	t.Run("time range", func(t *testing.T) {
		from := entry.CreatedAt.Add(-time.Hour)
		to := entry.CreatedAt.Add(time.Hour)

		mock.ExpectQuery("SELECT (.+) FROM audit_logs").
			WithArgs(from, to, 50, 0).
			WillReturnRows(row())

		filter := auditDomain.QueryFilter{From: &from, To: &to}
		entries, err := repo.Query(context.Background(), filter, 50, 0)
		require.NoError(t, err)
		require.Len(t, entries, 1)
	})
}

func TestPostgreSQLAuditLogRepository_DeleteByActor(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	repo := NewPostgreSQLAuditLogRepository(db)
	actorID := uuid.Must(uuid.NewV7())

	mock.ExpectExec("DELETE FROM audit_logs").
		WithArgs(actorID).
		WillReturnResult(sqlmock.NewResult(0, 7))

	err = repo.DeleteByActor(context.Background(), actorID)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLAuditLogRepository_DeleteByVaultItems(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	repo := NewPostgreSQLAuditLogRepository(db)
	itemIDs := []uuid.UUID{uuid.Must(uuid.NewV7()), uuid.Must(uuid.NewV7())}

	t.Run("deletes entries for the given items", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM audit_logs WHERE vault_item_id = ANY").
			WithArgs(pq.Array(itemIDs)).
			WillReturnResult(sqlmock.NewResult(0, 3))

		err := repo.DeleteByVaultItems(context.Background(), itemIDs)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no-op on empty slice", func(t *testing.T) {
		err := repo.DeleteByVaultItems(context.Background(), nil)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
