package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/tradeflow/backoffice-api/internal/clock"
	"github.com/tradeflow/backoffice-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ChallanPrefix is the document prefix of delivery challans
const ChallanPrefix = "DC"

// NumberAllocator hands out year-scoped document numbers.
//
// Format: {PREFIX}-{YEAR}-{SEQUENCE}
// Example: DC-2025-001, DC-2025-1042
type NumberAllocator struct {
	repo        *repository.NumberSequenceRepository
	challanRepo *repository.ChallanRepository
	clock       clock.Clock
	logger      *zap.Logger
}

// NewNumberAllocator creates a new NumberAllocator
func NewNumberAllocator(
	repo *repository.NumberSequenceRepository,
	challanRepo *repository.ChallanRepository,
	clk clock.Clock,
	logger *zap.Logger,
) *NumberAllocator {
	return &NumberAllocator{
		repo:        repo,
		challanRepo: challanRepo,
		clock:       clk,
		logger:      logger,
	}
}

// NextChallanNumber allocates the next challan number for the clock's current year.
// It must be called inside tx together with the challan insert: the counter
// row stays locked until tx ends and a rollback returns the number.
func (a *NumberAllocator) NextChallanNumber(ctx context.Context, tx *gorm.DB) (string, error) {
	now := a.clock.Now()
	year := now.Year()
	prefix := YearPrefix(ChallanPrefix, year)

	// Challans numbered before the counter existed set the floor for a fresh counter.
	floor, err := a.challanRepo.MaxSequence(ctx, tx, prefix)
	if err != nil {
		return "", fmt.Errorf("failed to scan existing challan numbers: %w", err)
	}

	seq, err := a.repo.GetNextNumber(ctx, tx, ChallanPrefix, year, floor, now)
	if err != nil {
		a.logger.Error("failed to get next sequence number",
			zap.String("prefix", ChallanPrefix),
			zap.Int("year", year),
			zap.Error(err))
		return "", fmt.Errorf("failed to generate challan number: %w", err)
	}

	number := FormatNumber(ChallanPrefix, year, seq)
	a.logger.Info("allocated number",
		zap.String("number", number),
		zap.Int("year", year),
		zap.Int("sequence", seq))

	return number, nil
}

// CurrentSequence returns the last challan sequence issued in year, 0 when none.
func (a *NumberAllocator) CurrentSequence(ctx context.Context, year int) (int, error) {
	value, _, err := a.repo.GetCurrentSequence(ctx, nil, ChallanPrefix, year)
	return value, err
}

// YearPrefix returns the part of a number before the sequence, e.g. "DC-2025-"
func YearPrefix(prefix string, year int) string {
	return fmt.Sprintf("%s-%d-", prefix, year)
}

// FormatNumber renders PREFIX-YYYY-NNN. Sequences of 1000 and above are printed in full.
func FormatNumber(prefix string, year, seq int) string {
	return fmt.Sprintf("%s-%d-%03d", prefix, year, seq)
}

// ParseNumber splits a formatted number into its year and sequence
func ParseNumber(prefix, number string) (year, seq int, ok bool) {
	parts := strings.Split(number, "-")
	if len(parts) != 3 || parts[0] != prefix {
		return 0, 0, false
	}
	year, err := strconv.Atoi(parts[1])
	if err != nil || len(parts[1]) != 4 {
		return 0, 0, false
	}
	seq, err = strconv.Atoi(parts[2])
	if err != nil || seq < 1 {
		return 0, 0, false
	}
	return year, seq, true
}
