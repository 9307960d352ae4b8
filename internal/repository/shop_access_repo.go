package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

// ShopAccessRepository answers the ownership, staffing and role questions used
// to authorize shop operations. It must be backed by service-level credentials
// so row-level security does not hide other tenants' rows.
type ShopAccessRepository struct {
	db *sqlx.DB
}

// NewShopAccessRepository creates a new ShopAccessRepository.
func NewShopAccessRepository(db *sqlx.DB) *ShopAccessRepository {
	return &ShopAccessRepository{db: db}
}

// ShopOwnerID returns the owner of a shop. found is false when the shop does not exist.
func (r *ShopAccessRepository) ShopOwnerID(ctx context.Context, shopID string) (ownerID string, found bool, err error) {
	const q = `SELECT owner_id FROM shops WHERE id = $1 LIMIT 1`

	var owner sql.NullString
	if err := r.db.GetContext(ctx, &owner, q, shopID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return owner.String, true, nil
}

// IsShopStaff reports whether userID is listed as staff of shopID.
func (r *ShopAccessRepository) IsShopStaff(ctx context.Context, shopID, userID string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM shop_staff WHERE shop_id = $1 AND user_id = $2)`

	var ok bool
	if err := r.db.GetContext(ctx, &ok, q, shopID, userID); err != nil {
		return false, err
	}
	return ok, nil
}

// HasRole reports whether userID holds the given global role.
func (r *ShopAccessRepository) HasRole(ctx context.Context, userID, role string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM user_roles WHERE user_id = $1 AND role = $2)`

	var ok bool
	if err := r.db.GetContext(ctx, &ok, q, userID, role); err != nil {
		return false, err
	}
	return ok, nil
}
