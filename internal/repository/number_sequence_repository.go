package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/tradeflow/backoffice-api/internal/domain"
	"gorm.io/gorm"
)

// NumberSequenceRepository handles the per-prefix, per-year document counters.
type NumberSequenceRepository struct {
	db *gorm.DB
}

// NewNumberSequenceRepository creates a new NumberSequenceRepository
func NewNumberSequenceRepository(db *gorm.DB) *NumberSequenceRepository {
	return &NumberSequenceRepository{db: db}
}

// GetNextNumber increments and returns the counter for prefix/year.
// It must run inside tx: the counter row is locked with SELECT FOR UPDATE until
// tx ends, so the increment commits or rolls back together with the document
// that consumes it. A missing counter is created at floor+1, and an existing
// counter never returns a value at or below floor.
func (r *NumberSequenceRepository) GetNextNumber(ctx context.Context, tx *gorm.DB, prefix string, year, floor int, now time.Time) (int, error) {
	db := conn(ctx, r.db, tx)

	var seq domain.NumberSequence
	err := forUpdate(db).
		Where("prefix = ? AND year = ?", prefix, year).
		First(&seq).Error

	if IsNotFound(err) {
		seq = domain.NumberSequence{
			Prefix:       prefix,
			Year:         year,
			LastSequence: floor + 1,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := db.Create(&seq).Error; err != nil {
			return 0, fmt.Errorf("failed to create number sequence: %w", err)
		}
		return seq.LastSequence, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get number sequence: %w", err)
	}

	next := seq.LastSequence + 1
	if next <= floor {
		next = floor + 1
	}
	if err := db.Model(&seq).Updates(map[string]interface{}{
		"last_sequence": next,
		"updated_at":    now,
	}).Error; err != nil {
		return 0, fmt.Errorf("failed to update number sequence: %w", err)
	}

	return next, nil
}

// GetCurrentSequence returns the last issued value without incrementing.
// found is false when no counter exists for prefix/year.
func (r *NumberSequenceRepository) GetCurrentSequence(ctx context.Context, tx *gorm.DB, prefix string, year int) (value int, found bool, err error) {
	var seq domain.NumberSequence
	err = conn(ctx, r.db, tx).
		Where("prefix = ? AND year = ?", prefix, year).
		First(&seq).Error
	if IsNotFound(err) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get number sequence: %w", err)
	}
	return seq.LastSequence, true, nil
}
