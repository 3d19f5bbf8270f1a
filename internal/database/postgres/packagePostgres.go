package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ds124wfegd/classbooker/internal/entity"
)

type userPackageRepository struct {
	db *sql.DB
}

func NewUserPackageRepository(db *sql.DB) UserPackageRepository {
	return &userPackageRepository{db: db}
}

const packageColumns = `
	id, user_id, country_id, total_credits, remaining_credits,
	purchase_date, expiry_date, created_at, updated_at
`

func scanPackage(row interface {
	Scan(dest ...interface{}) error
}, pkg *entity.UserPackage) error {
	return row.Scan(
		&pkg.ID,
		&pkg.UserID,
		&pkg.CountryID,
		&pkg.TotalCredits,
		&pkg.RemainingCredits,
		&pkg.PurchaseDate,
		&pkg.ExpiryDate,
		&pkg.CreatedAt,
		&pkg.UpdatedAt,
	)
}

func (r *userPackageRepository) GetByID(ctx context.Context, id int64) (*entity.UserPackage, error) {
	query := `SELECT ` + packageColumns + ` FROM user_packages WHERE id = $1`

	var pkg entity.UserPackage
	err := scanPackage(r.db.QueryRowContext(ctx, query, id), &pkg)
	if err == sql.ErrNoRows {
		return nil, entity.ErrPackageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user package: %w", err)
	}

	return &pkg, nil
}

func (r *userPackageRepository) GetByUserID(ctx context.Context, userID int64) ([]*entity.UserPackage, error) {
	query := `
		SELECT ` + packageColumns + `
		FROM user_packages
		WHERE user_id = $1
		ORDER BY purchase_date DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query user packages: %w", err)
	}
	defer rows.Close()

	var packages []*entity.UserPackage
	for rows.Next() {
		var pkg entity.UserPackage
		if err := scanPackage(rows, &pkg); err != nil {
			return nil, fmt.Errorf("failed to scan user package: %w", err)
		}
		packages = append(packages, &pkg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user packages: %w", err)
	}

	return packages, nil
}

// Debit списывает кредиты одним guarded UPDATE: проверка баланса, проверка
// срока действия и само списание наблюдаются атомарно. Два конкурентных
// списания с одного пакета никогда не уведут баланс в минус.
func (r *userPackageRepository) Debit(ctx context.Context, id int64, amount int) error {
	if amount < 0 {
		return fmt.Errorf("debit amount must be non-negative, got %d", amount)
	}

	query := `
		UPDATE user_packages
		SET remaining_credits = remaining_credits - $2, updated_at = $3
		WHERE id = $1 AND remaining_credits >= $2 AND expiry_date >= $3
	`

	now := time.Now()
	result, err := r.db.ExecContext(ctx, query, id, amount, now)
	if err != nil {
		return fmt.Errorf("failed to debit package: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		// The guard rejected the debit; re-read the row to say why.
		pkg, err := r.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if pkg.IsExpired(now) {
			return entity.ErrPackageExpired
		}
		return entity.ErrInsufficientCredits
	}

	return nil
}

// Credit is unconditional: refunds succeed even on an expired package.
func (r *userPackageRepository) Credit(ctx context.Context, id int64, amount int) error {
	if amount < 0 {
		return fmt.Errorf("credit amount must be non-negative, got %d", amount)
	}

	query := `
		UPDATE user_packages
		SET remaining_credits = remaining_credits + $2, updated_at = $3
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, amount, time.Now())
	if err != nil {
		return fmt.Errorf("failed to credit package: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entity.ErrPackageNotFound
	}

	return nil
}
