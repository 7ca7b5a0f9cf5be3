package repositories

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"

	"coverhub/internal/core/domain"

	"gorm.io/gorm"
)

// RegisterStoreErrorTranslation installs a callback on every statement kind
// that rewrites deadline and connection failures into
// domain.ErrStoreUnavailable, keeping driver detail out of API responses.
func RegisterStoreErrorTranslation(db *gorm.DB) error {
	if err := db.Callback().Create().After("gorm:create").Register("coverhub:create_store_err", translateStoreError); err != nil {
		return err
	}
	if err := db.Callback().Query().After("gorm:query").Register("coverhub:query_store_err", translateStoreError); err != nil {
		return err
	}
	if err := db.Callback().Update().After("gorm:update").Register("coverhub:update_store_err", translateStoreError); err != nil {
		return err
	}
	if err := db.Callback().Delete().After("gorm:delete").Register("coverhub:delete_store_err", translateStoreError); err != nil {
		return err
	}
	if err := db.Callback().Row().After("gorm:row").Register("coverhub:row_store_err", translateStoreError); err != nil {
		return err
	}
	return db.Callback().Raw().After("gorm:raw").Register("coverhub:raw_store_err", translateStoreError)
}

func translateStoreError(tx *gorm.DB) {
	if tx.Error == nil {
		return
	}
	if errors.Is(tx.Error, context.DeadlineExceeded) ||
		errors.Is(tx.Error, context.Canceled) ||
		errors.Is(tx.Error, driver.ErrBadConn) {
		tx.Error = fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, tx.Error)
	}
}
