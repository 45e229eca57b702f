package repositories

import (
	"context"
	"fmt"

	"folio/app/models"

	"github.com/uptrace/bun"
)

// BunAccountRepository implements AccountRepository on a SQL database
type BunAccountRepository struct {
	db *bun.DB
}

func NewBunAccountRepository(db *bun.DB) *BunAccountRepository {
	return &BunAccountRepository{db: db}
}

func (r *BunAccountRepository) Create(ctx context.Context, account *models.Account) error {
	account.BeforeCreate()
	if err := account.Validate(); err != nil {
		return fmt.Errorf("invalid account: %w", err)
	}
	if _, err := r.db.NewInsert().Model(account).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (r *BunAccountRepository) FindByUsername(ctx context.Context, username string) (*models.Account, error) {
	account := new(models.Account)
	err := r.db.NewSelect().Model(account).Where("a.username = ?", username).Limit(1).Scan(ctx)
	if err != nil {
		return nil, notFound(err)
	}
	return account, nil
}
