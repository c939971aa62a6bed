package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradeflow/backoffice-api/internal/clock"
	"github.com/tradeflow/backoffice-api/internal/domain"
	"github.com/tradeflow/backoffice-api/internal/repository"
	"github.com/tradeflow/backoffice-api/internal/service"
	"github.com/tradeflow/backoffice-api/internal/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func createTaxService(db *gorm.DB, clk clock.Clock) *service.TaxService {
	return service.NewTaxService(
		repository.NewTaxRepository(db),
		repository.NewTransactor(db),
		clk,
		decimal.NewFromInt(18),
		zap.NewNop(),
	)
}

func countTaxRows(t *testing.T, db *gorm.DB, serviceType domain.MaterialType) int64 {
	var count int64
	require.NoError(t, db.Model(&domain.Tax{}).Where("service_type = ?", serviceType).Count(&count).Error)
	return count
}

func countOpenTaxRows(t *testing.T, db *gorm.DB, serviceType domain.MaterialType) int64 {
	var count int64
	require.NoError(t, db.Model(&domain.Tax{}).Where("service_type = ? AND effective_to IS NULL", serviceType).Count(&count).Error)
	return count
}

func TestTaxService_HistoryRoundTrip(t *testing.T) {
	clk := clock.NewStub(testutil.ReferenceTime)
	db := testutil.SetupTestDB(t, clk)
	svc := createTaxService(db, clk)
	ctx := context.Background()

	seed := testutil.CreateTestTax(t, db, domain.MaterialTypeService, 10, testutil.ReferenceTime.Add(-30*24*time.Hour), nil)

	t1 := testutil.ReferenceTime
	_, err := svc.Update(ctx, seed.ID, decimal.NewFromInt(16))
	require.NoError(t, err)

	t2 := t1.Add(48 * time.Hour)
	clk.Set(t2)
	updated, err := svc.Update(ctx, seed.ID, decimal.NewFromInt(18))
	require.NoError(t, err)
	assert.True(t, updated.IsCurrent)

	tests := []struct {
		name     string
		at       time.Time
		expected int64
	}{
		{"before first change", t1.Add(-time.Hour), 10},
		{"at first change boundary", t1, 16},
		{"between changes", t1.Add(time.Hour), 16},
		{"just before second change", t2.Add(-time.Second), 16},
		{"after second change", t2.Add(time.Hour), 18},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tax, err := svc.Resolve(ctx, domain.MaterialTypeService, tc.at)
			require.NoError(t, err)
			assert.True(t, tax.TaxPercent.Equal(decimal.NewFromInt(tc.expected)), "got %s", tax.TaxPercent)
			assert.True(t, tax.Covers(tc.at))
		})
	}

	assert.Equal(t, int64(1), countOpenTaxRows(t, db, domain.MaterialTypeService))
	assert.Equal(t, int64(3), countTaxRows(t, db, domain.MaterialTypeService))

	history, err := svc.History(ctx, domain.MaterialTypeService)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.True(t, history[0].IsCurrent)
	for _, h := range history[1:] {
		assert.False(t, h.IsCurrent)
	}
}

func TestTaxService_Update_Guards(t *testing.T) {
	clk := clock.NewStub(testutil.ReferenceTime)
	db := testutil.SetupTestDB(t, clk)
	svc := createTaxService(db, clk)
	ctx := context.Background()

	current := testutil.CreateTestTax(t, db, domain.MaterialTypeMaterial, 17, testutil.ReferenceTime.Add(-time.Hour), nil)

	t.Run("unchanged percent is rejected without a new row", func(t *testing.T) {
		_, err := svc.Update(ctx, current.ID, decimal.NewFromInt(17))
		assert.ErrorIs(t, err, service.ErrTaxPercentUnchanged)
		assert.ErrorIs(t, err, service.ErrInvalidInput)
		assert.Equal(t, int64(1), countTaxRows(t, db, domain.MaterialTypeMaterial))
	})

	t.Run("out of range percent is rejected", func(t *testing.T) {
		for _, p := range []string{"0", "0.99", "98.01", "120"} {
			_, err := svc.Update(ctx, current.ID, decimal.RequireFromString(p))
			assert.ErrorIs(t, err, service.ErrTaxPercentOutOfRange, p)
		}
		assert.Equal(t, int64(1), countTaxRows(t, db, domain.MaterialTypeMaterial))
	})

	t.Run("bounds are inclusive", func(t *testing.T) {
		_, err := svc.Update(ctx, current.ID, decimal.NewFromInt(1))
		require.NoError(t, err)
		clk.Advance(time.Minute)
		_, err = svc.Update(ctx, current.ID, decimal.NewFromInt(98))
		require.NoError(t, err)
	})

	t.Run("missing target is not found", func(t *testing.T) {
		_, err := svc.Update(ctx, uuid.New(), decimal.NewFromInt(20))
		assert.ErrorIs(t, err, service.ErrTaxNotFound)
		assert.ErrorIs(t, err, service.ErrNotFound)
	})
}

func TestTaxService_Update_ClosedTargetIsNeverMutated(t *testing.T) {
	clk := clock.NewStub(testutil.ReferenceTime)
	db := testutil.SetupTestDB(t, clk)
	svc := createTaxService(db, clk)
	ctx := context.Background()

	closedAt := testutil.ReferenceTime.Add(-24 * time.Hour)
	closed := testutil.CreateTestTax(t, db, domain.MaterialTypeMaterial, 15, testutil.ReferenceTime.Add(-72*time.Hour), &closedAt)
	open := testutil.CreateTestTax(t, db, domain.MaterialTypeMaterial, 17, closedAt, nil)

	created, err := svc.Update(ctx, closed.ID, decimal.NewFromInt(19))
	require.NoError(t, err)
	assert.NotEqual(t, closed.ID, created.ID)
	assert.NotEqual(t, open.ID, created.ID)

	var reloaded domain.Tax
	require.NoError(t, db.First(&reloaded, "id = ?", closed.ID).Error)
	assert.True(t, reloaded.TaxPercent.Equal(decimal.NewFromInt(15)))
	require.NotNil(t, reloaded.EffectiveTo)
	assert.True(t, reloaded.EffectiveTo.Equal(closedAt))

	var reopened domain.Tax
	require.NoError(t, db.First(&reopened, "id = ?", open.ID).Error)
	require.NotNil(t, reopened.EffectiveTo)
	assert.True(t, reopened.EffectiveTo.Equal(testutil.ReferenceTime))

	assert.Equal(t, int64(1), countOpenTaxRows(t, db, domain.MaterialTypeMaterial))
}

func TestTaxService_ResolveOrDefault(t *testing.T) {
	clk := clock.NewStub(testutil.ReferenceTime)
	db := testutil.SetupTestDB(t, clk)
	svc := createTaxService(db, clk)
	ctx := context.Background()

	testutil.CreateTestTax(t, db, domain.MaterialTypeMaterial, 17, testutil.ReferenceTime, nil)

	percent, err := svc.ResolveOrDefault(ctx, domain.MaterialTypeMaterial, testutil.ReferenceTime.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, percent.Equal(decimal.NewFromInt(17)))

	percent, err = svc.ResolveOrDefault(ctx, domain.MaterialTypeMaterial, testutil.ReferenceTime.Add(-time.Hour))
	require.NoError(t, err)
	assert.True(t, percent.Equal(decimal.NewFromInt(18)))

	_, err = svc.Resolve(ctx, domain.MaterialTypeService, testutil.ReferenceTime)
	assert.ErrorIs(t, err, service.ErrTaxNotFound)

	_, err = svc.Resolve(ctx, domain.MaterialType("freight"), testutil.ReferenceTime)
	assert.ErrorIs(t, err, service.ErrInvalidServiceType)
}

func TestTaxService_Current(t *testing.T) {
	clk := clock.NewStub(testutil.ReferenceTime)
	db := testutil.SetupTestDB(t, clk)
	svc := createTaxService(db, clk)
	ctx := context.Background()

	_, err := svc.Current(ctx, domain.MaterialTypeMaterial)
	assert.ErrorIs(t, err, service.ErrTaxNotFound)

	closedAt := testutil.ReferenceTime.Add(-time.Hour)
	testutil.CreateTestTax(t, db, domain.MaterialTypeMaterial, 15, testutil.ReferenceTime.Add(-48*time.Hour), &closedAt)
	open := testutil.CreateTestTax(t, db, domain.MaterialTypeMaterial, 17, closedAt, nil)

	current, err := svc.Current(ctx, domain.MaterialTypeMaterial)
	require.NoError(t, err)
	assert.Equal(t, open.ID, current.ID)
}
