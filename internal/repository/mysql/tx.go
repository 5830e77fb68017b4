package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"gorm.io/gorm"

	"shop-service/internal/domain"
)

var txOptions = &sql.TxOptions{Isolation: sql.LevelRepeatableRead}

// runInTx begins a transaction, runs fn and commits. Any error or panic from
// fn rolls the transaction back before returning. A failed commit is
// reported as domain.ErrTransactionFailed.
func runInTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	tx := db.WithContext(ctx).Begin(txOptions)
	if tx.Error != nil {
		return domain.StoreError("begin transaction", tx.Error)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback().Error; rbErr != nil {
			log.Printf("Rollback error: %v", rbErr)
		}
		return err
	}

	if err := tx.Commit().Error; err != nil {
		log.Printf("Commit error: %v", err)
		return fmt.Errorf("%w: %w", domain.ErrTransactionFailed, err)
	}
	return nil
}
