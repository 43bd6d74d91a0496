package utils

import (
	"context"

	"bitbucket.org/mmdatafocus/textile_backend/config"
	"gorm.io/gorm"
)

/* DB fetching */

// fetch model from db
// (ctx's business_id is used in query's WHERE, may return RecordNotFound)
func FetchModel[T any](ctx context.Context, businessId string, id int, associations ...string) (*T, error) {

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("business_id = ?", businessId)
	// preloading
	for _, field := range associations {
		dbCtx = dbCtx.Preload(field)
	}
	var result T
	err := dbCtx.First(&result, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrorRecordNotFound
		}
		return nil, err
	}
	return &result, nil
}

// FetchForUpdate loads a row under a row-level write lock. Must be called
// inside an open transaction; the lock is held until commit/rollback.
func FetchForUpdate[T any](tx *gorm.DB, ctx context.Context, businessId string, id int) (*T, error) {
	var result T
	err := tx.WithContext(ctx).
		Clauses(ForUpdateClause()).
		Where("business_id = ?", businessId).
		First(&result, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrorRecordNotFound
		}
		return nil, err
	}
	return &result, nil
}
