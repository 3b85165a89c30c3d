// Package postgresql implements KEK persistence for PostgreSQL.
// Uses native UUID and BYTEA types with transaction support via database.GetTx().
package postgresql

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/vaultcore/internal/crypto/domain"
	"github.com/allisson/vaultcore/internal/database"
	apperrors "github.com/allisson/vaultcore/internal/errors"
)

// PostgreSQLKekRepository implements KEK persistence for PostgreSQL.
// Only the wrapped key material is stored; the plaintext Key field is never
// written.
type PostgreSQLKekRepository struct {
	db *sql.DB
}

// NewPostgreSQLKekRepository creates a new PostgreSQL KEK repository.
func NewPostgreSQLKekRepository(db *sql.DB) *PostgreSQLKekRepository {
	return &PostgreSQLKekRepository{db: db}
}

// Create inserts a new KEK.
func (p *PostgreSQLKekRepository) Create(ctx context.Context, kek *cryptoDomain.Kek) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO keks (id, master_key_id, algorithm, encrypted_key, nonce, version, is_active, created_at, retired_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := querier.ExecContext(
		ctx,
		query,
		kek.ID,
		kek.MasterKeyID,
		kek.Algorithm,
		kek.EncryptedKey,
		kek.Nonce,
		kek.Version,
		kek.IsActive,
		kek.CreatedAt,
		kek.RetiredAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create kek")
	}
	return nil
}

// Get retrieves a KEK by its ID.
func (p *PostgreSQLKekRepository) Get(
	ctx context.Context,
	kekID uuid.UUID,
) (*cryptoDomain.Kek, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, master_key_id, algorithm, encrypted_key, nonce, version, is_active, created_at, retired_at
			  FROM keks
			  WHERE id = $1`

	var kek cryptoDomain.Kek
	err := querier.QueryRowContext(ctx, query, kekID).Scan(
		&kek.ID,
		&kek.MasterKeyID,
		&kek.Algorithm,
		&kek.EncryptedKey,
		&kek.Nonce,
		&kek.Version,
		&kek.IsActive,
		&kek.CreatedAt,
		&kek.RetiredAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, cryptoDomain.ErrKekNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get kek")
	}

	return &kek, nil
}

// List retrieves all KEKs ordered by version descending (newest first).
func (p *PostgreSQLKekRepository) List(ctx context.Context) ([]*cryptoDomain.Kek, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, master_key_id, algorithm, encrypted_key, nonce, version, is_active, created_at, retired_at
			  FROM keks
			  ORDER BY version DESC`

	rows, err := querier.QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list keks")
	}
	defer func() {
		_ = rows.Close()
	}()

	keks := make([]*cryptoDomain.Kek, 0)
	for rows.Next() {
		var kek cryptoDomain.Kek
		err := rows.Scan(
			&kek.ID,
			&kek.MasterKeyID,
			&kek.Algorithm,
			&kek.EncryptedKey,
			&kek.Nonce,
			&kek.Version,
			&kek.IsActive,
			&kek.CreatedAt,
			&kek.RetiredAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan kek")
		}
		keks = append(keks, &kek)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate keks")
	}

	return keks, nil
}

// Retire clears the active flag and stamps the retirement time on a KEK.
func (p *PostgreSQLKekRepository) Retire(ctx context.Context, kekID uuid.UUID) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE keks
			  SET is_active = false,
				  retired_at = $1
			  WHERE id = $2`

	_, err := querier.ExecContext(ctx, query, time.Now().UTC(), kekID)
	if err != nil {
		return apperrors.Wrap(err, "failed to retire kek")
	}
	return nil
}
