package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/portal-core/internal/domain"
	"github.com/spec-kit/portal-core/pkg/util"
)

// AccountRepository defines persistence access for tenant accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	// CreateSubUser inserts a sub-account in the same transaction as the
	// sub-user count check so two concurrent creations cannot both pass
	// the limit. The owner row is locked for the duration of the check.
	CreateSubUser(ctx context.Context, sub *domain.Account, maxSubUsers int) error
	// Update persists the account using optimistic concurrency on the
	// version column; a stale version yields a CONFLICT error.
	Update(ctx context.Context, account *domain.Account) error
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	CountSubUsers(ctx context.Context, ownerEmail string) (int, error)
	ListSubUsers(ctx context.Context, ownerEmail string) ([]domain.Account, error)
}

type accountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository returns a Postgres-backed implementation.
func NewAccountRepository(pool *pgxpool.Pool) AccountRepository {
	return &accountRepository{pool: pool}
}

const accountColumns = `id, email, name, password_hash, kind, owner_email, role, plan,
       status, subscription_status, registered_at, expires_at, version, created_at, updated_at`

func (r *accountRepository) Create(ctx context.Context, account *domain.Account) error {
	const query = `
        INSERT INTO accounts (email, name, password_hash, kind, owner_email, role, plan,
                              status, subscription_status, registered_at, expires_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING id, version, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		account.Email,
		account.Name,
		account.PasswordHash,
		account.Kind,
		account.OwnerEmail,
		account.Role,
		account.Plan,
		account.Status,
		account.SubscriptionStatus,
		account.RegisteredAt,
		account.ExpiresAt,
	).Scan(&account.ID, &account.Version, &account.CreatedAt, &account.UpdatedAt)
}

func (r *accountRepository) CreateSubUser(ctx context.Context, sub *domain.Account, maxSubUsers int) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if sub.OwnerEmail == nil {
		return util.NewValidationError("sub-account requires an owner", nil)
	}

	var ownerID string
	if err := tx.QueryRow(ctx,
		`SELECT id FROM accounts WHERE email=$1 AND kind='MAIN' FOR UPDATE`,
		*sub.OwnerEmail,
	).Scan(&ownerID); err != nil {
		if err == pgx.ErrNoRows {
			return util.NewAccountNotFound(*sub.OwnerEmail)
		}
		return err
	}

	var count int
	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM accounts WHERE owner_email=$1 AND kind='SUB'`,
		*sub.OwnerEmail,
	).Scan(&count); err != nil {
		return err
	}
	if count >= maxSubUsers {
		return util.NewLimitExceeded("sub-user limit reached", map[string]any{
			"max_sub_users": maxSubUsers,
			"current":       count,
		})
	}

	const insert = `
        INSERT INTO accounts (email, name, password_hash, kind, owner_email, role, plan,
                              status, subscription_status, registered_at, expires_at)
        VALUES ($1,$2,$3,'SUB',$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, version, created_at, updated_at`
	if err := tx.QueryRow(ctx, insert,
		sub.Email,
		sub.Name,
		sub.PasswordHash,
		sub.OwnerEmail,
		sub.Role,
		sub.Plan,
		sub.Status,
		sub.SubscriptionStatus,
		sub.RegisteredAt,
		sub.ExpiresAt,
	).Scan(&sub.ID, &sub.Version, &sub.CreatedAt, &sub.UpdatedAt); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *accountRepository) Update(ctx context.Context, account *domain.Account) error {
	const query = `
        UPDATE accounts SET name=$1, password_hash=$2, role=$3, plan=$4, status=$5,
            subscription_status=$6, expires_at=$7, version=version+1, updated_at=NOW()
        WHERE id=$8 AND version=$9`

	cmd, err := r.pool.Exec(ctx, query,
		account.Name,
		account.PasswordHash,
		account.Role,
		account.Plan,
		account.Status,
		account.SubscriptionStatus,
		account.ExpiresAt,
		account.ID,
		account.Version,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return util.NewConflict("account was modified concurrently", map[string]any{"email": account.Email})
	}
	account.Version++
	return nil
}

func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.fetchSingle(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email=$1`, email)
}

func (r *accountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	return r.fetchSingle(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id=$1`, id)
}

func (r *accountRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Account, error) {
	var account domain.Account
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&account.ID,
		&account.Email,
		&account.Name,
		&account.PasswordHash,
		&account.Kind,
		&account.OwnerEmail,
		&account.Role,
		&account.Plan,
		&account.Status,
		&account.SubscriptionStatus,
		&account.RegisteredAt,
		&account.ExpiresAt,
		&account.Version,
		&account.CreatedAt,
		&account.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) CountSubUsers(ctx context.Context, ownerEmail string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM accounts WHERE owner_email=$1 AND kind='SUB'`,
		ownerEmail,
	).Scan(&count)
	return count, err
}

func (r *accountRepository) ListSubUsers(ctx context.Context, ownerEmail string) ([]domain.Account, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE owner_email=$1 AND kind='SUB' ORDER BY created_at`,
		ownerEmail,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Account
	for rows.Next() {
		var account domain.Account
		if err := rows.Scan(
			&account.ID,
			&account.Email,
			&account.Name,
			&account.PasswordHash,
			&account.Kind,
			&account.OwnerEmail,
			&account.Role,
			&account.Plan,
			&account.Status,
			&account.SubscriptionStatus,
			&account.RegisteredAt,
			&account.ExpiresAt,
			&account.Version,
			&account.CreatedAt,
			&account.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, account)
	}
	return result, rows.Err()
}
