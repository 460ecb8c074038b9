package persistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cashflow/backend/internal/infrastructure/persistence/models"
)

// nextSequence reserves the next sequence number for a series key, e.g.
// "CTR-2026". The series row is locked for the duration of the transaction
// so concurrent reservations never collide.
func nextSequence(ctx context.Context, db *gorm.DB, key string) (int, error) {
	var next int
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var series models.NamingSeriesModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&series, "key = ?", key).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			series = models.NamingSeriesModel{Key: key, Current: 0}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&series).Error; err != nil {
				return err
			}
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				First(&series, "key = ?", key).Error; err != nil {
				return err
			}
		}
		series.Current++
		next = series.Current
		return tx.Model(&models.NamingSeriesModel{}).
			Where("key = ?", key).
			Update("current", series.Current).Error
	})
	if err != nil {
		return 0, fmt.Errorf("failed to reserve sequence for series %s: %w", key, err)
	}
	return next, nil
}

// seriesKey builds the per-year series key for a document prefix
func seriesKey(prefix string, year int) string {
	return fmt.Sprintf("%s-%d", prefix, year)
}
