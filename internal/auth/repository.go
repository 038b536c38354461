package auth

import (
	"context"
	"fmt"

	"github.com/agrodesk/backoffice/internal/core"
)

// Repository is the credential store: the login-path mutations on the
// principal record. Both writes are single atomic statements so
// concurrent attempts against the same account cannot race a
// read-modify-write cycle in application code.
type Repository interface {
	// RecordFailure increments the failed-login counter and clears the
	// active flag when the post-increment counter reaches the
	// threshold. Returns the new counter and whether the account is
	// now (or already was) locked out. The counter keeps climbing on
	// an already-locked account; it is informational past the
	// threshold.
	RecordFailure(
		ctx context.Context,
		userID string,
		threshold int,
	) (attempts int, locked bool, err error)

	// RecordSuccess resets the counter and stamps the login time.
	RecordSuccess(ctx context.Context, userID string) error
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) RecordFailure(
	ctx context.Context,
	userID string,
	threshold int,
) (int, bool, error) {
	query := `
		UPDATE users
		SET failed_login_attempts = failed_login_attempts + 1,
		    is_active = is_active AND (failed_login_attempts + 1 < $2),
		    updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING failed_login_attempts, is_active`

	var result struct {
		Attempts int  `db:"failed_login_attempts"`
		IsActive bool `db:"is_active"`
	}

	err := r.db.GetContext(ctx, &result, query, userID, threshold)
	if err != nil {
		return 0, false, fmt.Errorf("record failed login: %w", err)
	}

	return result.Attempts, !result.IsActive, nil
}

func (r *repository) RecordSuccess(ctx context.Context, userID string) error {
	query := `
		UPDATE users
		SET failed_login_attempts = 0,
		    last_login_at = NOW(),
		    updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("record successful login: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("record successful login: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("record successful login: %w", core.ErrNotFound)
	}

	return nil
}
