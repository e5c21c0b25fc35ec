package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dtroode/cutout-server/internal/model"
)

var _ model.AccountStore = (*AccountRepository)(nil)

const emailConstraint = "accounts_email_key"

const accountColumns = `id, email, password_hash, first_name, last_name, photo,
	identity_provider, identity_subject, credit_balance, created_at, updated_at, deleted_at`

type AccountRepository struct {
	db *Connection
}

func NewAccountRepository(db *Connection) *AccountRepository {
	return &AccountRepository{
		db: db,
	}
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1 AND deleted_at IS NULL`

	account, err := scanAccount(r.db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Account{}, model.ErrNotFound
		}
		return model.Account{}, fmt.Errorf("failed to get account by email: %w", err)
	}

	return account, nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 AND deleted_at IS NULL`

	account, err := scanAccount(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Account{}, model.ErrAccountNotFound
		}
		return model.Account{}, fmt.Errorf("failed to get account by id: %w", err)
	}

	return account, nil
}

func (r *AccountRepository) Create(ctx context.Context, account model.Account) (model.Account, error) {
	query := `INSERT INTO accounts (id, email, password_hash, first_name, last_name, photo,
			  identity_provider, identity_subject, credit_balance, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), NULLIF($8, ''), $9, $10, $11)
			  RETURNING ` + accountColumns

	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	now := time.Now()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	if account.UpdatedAt.IsZero() {
		account.UpdatedAt = now
	}

	saved, err := scanAccount(r.db.QueryRow(ctx, query,
		account.ID, account.Email, account.PasswordHash, account.FirstName, account.LastName, account.Photo,
		account.IdentityProvider, account.IdentitySubject, account.CreditBalance, account.CreatedAt, account.UpdatedAt,
	))
	if err != nil {
		if hasSQLState(err, pgErrUniqueViolation) {
			return model.Account{}, model.ErrEmailTaken
		}
		return model.Account{}, fmt.Errorf("failed to create account: %w", err)
	}

	return saved, nil
}

// UpsertFederated resolves the account by (provider, subject) first, then by
// email. An email match is linked only when the provider verified the email
// and the account carries no other federated identity.
func (r *AccountRepository) UpsertFederated(ctx context.Context, identity model.FederatedIdentity, initialCredits int64) (model.Account, error) {
	var result model.Account

	err := r.db.inTx(ctx, func(tx pgx.Tx) error {
		existing, err := scanAccount(tx.QueryRow(ctx,
			`SELECT `+accountColumns+` FROM accounts
			 WHERE identity_provider = $1 AND identity_subject = $2 FOR UPDATE`,
			identity.Provider, identity.Subject))
		if err == nil {
			if identity.Email != "" && identity.Email != existing.Email {
				var taken bool
				err = tx.QueryRow(ctx,
					`SELECT EXISTS (SELECT 1 FROM accounts WHERE email = $1 AND id <> $2)`,
					identity.Email, existing.ID).Scan(&taken)
				if err != nil {
					return fmt.Errorf("failed to check email owner: %w", err)
				}
				if taken {
					return model.ErrIdentityConflict
				}
			}
			result, err = scanAccount(tx.QueryRow(ctx,
				`UPDATE accounts SET
				   email = COALESCE(NULLIF($2, ''), email),
				   first_name = COALESCE(NULLIF($3, ''), first_name),
				   last_name = COALESCE(NULLIF($4, ''), last_name),
				   photo = COALESCE(NULLIF($5, ''), photo),
				   deleted_at = NULL,
				   updated_at = NOW()
				 WHERE id = $1
				 RETURNING `+accountColumns,
				existing.ID, identity.Email, identity.FirstName, identity.LastName, identity.Photo))
			return mapEmailChangeError(err)
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("failed to get account by identity: %w", err)
		}

		byEmail, err := scanAccount(tx.QueryRow(ctx,
			`SELECT `+accountColumns+` FROM accounts WHERE email = $1 FOR UPDATE`, identity.Email))
		if err == nil {
			if byEmail.IsFederated() || !identity.EmailVerified {
				return model.ErrIdentityConflict
			}
			result, err = scanAccount(tx.QueryRow(ctx,
				`UPDATE accounts SET
				   identity_provider = $2,
				   identity_subject = $3,
				   first_name = CASE WHEN first_name = '' AND last_name = '' THEN $4 ELSE first_name END,
				   last_name = CASE WHEN first_name = '' AND last_name = '' THEN $5 ELSE last_name END,
				   photo = CASE WHEN photo = '' OR photo = $7 THEN COALESCE(NULLIF($6, ''), photo) ELSE photo END,
				   deleted_at = NULL,
				   updated_at = NOW()
				 WHERE id = $1
				 RETURNING `+accountColumns,
				byEmail.ID, identity.Provider, identity.Subject, identity.FirstName, identity.LastName,
				identity.Photo, model.DefaultPhoto))
			return mapUpsertError(err)
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("failed to get account by email: %w", err)
		}

		photo := identity.Photo
		if photo == "" {
			photo = model.DefaultPhoto
		}
		result, err = scanAccount(tx.QueryRow(ctx,
			`INSERT INTO accounts (id, email, first_name, last_name, photo, identity_provider, identity_subject, credit_balance)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 RETURNING `+accountColumns,
			uuid.New(), identity.Email, identity.FirstName, identity.LastName, photo,
			identity.Provider, identity.Subject, initialCredits))
		return mapUpsertError(err)
	})
	if err != nil {
		return model.Account{}, err
	}

	return result, nil
}

func (r *AccountRepository) SoftDeleteByIdentity(ctx context.Context, provider, subject string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE accounts SET deleted_at = NOW(), updated_at = NOW()
		 WHERE identity_provider = $1 AND identity_subject = $2 AND deleted_at IS NULL`,
		provider, subject)
	if err != nil {
		return fmt.Errorf("failed to soft delete account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrAccountNotFound
	}
	return nil
}

// mapUpsertError turns a unique violation from a concurrent upsert into a
// conflict so the transaction is retried and sees the winning row.
func mapUpsertError(err error) error {
	if err == nil {
		return nil
	}
	if hasSQLState(err, pgErrUniqueViolation) {
		return fmt.Errorf("%w: %v", model.ErrLedgerConflict, err)
	}
	return fmt.Errorf("failed to upsert federated account: %w", err)
}

// mapEmailChangeError reports an email claimed by another account between the
// owner check and the update as an identity conflict rather than retrying.
func mapEmailChangeError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation && pgErr.ConstraintName == emailConstraint {
		return model.ErrIdentityConflict
	}
	return mapUpsertError(err)
}

func scanAccount(row pgx.Row) (model.Account, error) {
	var (
		account  model.Account
		provider *string
		subject  *string
	)
	err := row.Scan(
		&account.ID, &account.Email, &account.PasswordHash, &account.FirstName, &account.LastName, &account.Photo,
		&provider, &subject, &account.CreditBalance, &account.CreatedAt, &account.UpdatedAt, &account.DeletedAt,
	)
	if err != nil {
		return model.Account{}, err
	}
	if provider != nil {
		account.IdentityProvider = *provider
	}
	if subject != nil {
		account.IdentitySubject = *subject
	}
	return account, nil
}
