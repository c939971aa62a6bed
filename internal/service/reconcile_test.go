package service_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradeflow/backoffice-api/internal/domain"
	"github.com/tradeflow/backoffice-api/internal/service"
)

func qty(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func challanOf(lines ...domain.ChallanMaterial) domain.Challan {
	return domain.Challan{Materials: lines}
}

func TestReconcile(t *testing.T) {
	cement := uuid.New()
	steel := uuid.New()
	install := uuid.New()

	contracted := []domain.QuotationMaterial{
		{MaterialID: cement, Name: "Cement", Quantity: qty(100), MaterialType: domain.MaterialTypeMaterial},
		{MaterialID: install, Name: "Installation", Quantity: qty(5), MaterialType: domain.MaterialTypeService},
		{MaterialID: steel, Name: "Steel", Quantity: qty(10), MaterialType: domain.MaterialTypeMaterial},
	}

	t.Run("no challans leaves everything remaining", func(t *testing.T) {
		balances := service.Reconcile(contracted, nil)
		require.Len(t, balances, 2)
		assert.Equal(t, cement, balances[0].Line.MaterialID)
		assert.True(t, balances[0].Remaining.Equal(qty(100)))
		assert.True(t, balances[0].CanDeliver())
		assert.Equal(t, steel, balances[1].Line.MaterialID)
	})

	t.Run("service lines are excluded", func(t *testing.T) {
		for _, b := range service.Reconcile(contracted, nil) {
			assert.NotEqual(t, install, b.Line.MaterialID)
		}
	})

	t.Run("deliveries are summed across challans", func(t *testing.T) {
		delivered := []domain.Challan{
			challanOf(domain.ChallanMaterial{MaterialID: cement, Quantity: qty(60)}),
			challanOf(
				domain.ChallanMaterial{MaterialID: cement, Quantity: qty(15)},
				domain.ChallanMaterial{MaterialID: steel, Quantity: qty(10)},
			),
		}
		balances := service.Reconcile(contracted, delivered)
		require.Len(t, balances, 2)
		assert.True(t, balances[0].Delivered.Equal(qty(75)))
		assert.True(t, balances[0].Remaining.Equal(qty(25)))
		assert.True(t, balances[1].Remaining.IsZero())
		assert.False(t, balances[1].CanDeliver())
		assert.False(t, service.Fulfilled(balances))
	})

	t.Run("over delivery clamps remaining at zero", func(t *testing.T) {
		delivered := []domain.Challan{
			challanOf(domain.ChallanMaterial{MaterialID: steel, Quantity: qty(12)}),
			challanOf(domain.ChallanMaterial{MaterialID: cement, Quantity: qty(100)}),
		}
		balances := service.Reconcile(contracted, delivered)
		assert.True(t, balances[1].Remaining.IsZero())
		assert.True(t, service.Fulfilled(balances))
	})

	t.Run("repeated material lines are merged", func(t *testing.T) {
		repeated := []domain.QuotationMaterial{
			{MaterialID: cement, Name: "Cement", Quantity: qty(40), MaterialType: domain.MaterialTypeMaterial},
			{MaterialID: cement, Name: "Cement", Quantity: qty(60), MaterialType: domain.MaterialTypeMaterial},
		}
		balances := service.Reconcile(repeated, nil)
		require.Len(t, balances, 1)
		assert.True(t, balances[0].Original.Equal(qty(100)))
	})
}

func TestValidateChallanLines(t *testing.T) {
	cement := uuid.New()
	install := uuid.New()
	unknown := uuid.New()

	contracted := []domain.QuotationMaterial{
		{MaterialID: cement, Name: "Cement", Quantity: qty(100), MaterialType: domain.MaterialTypeMaterial},
		{MaterialID: install, Name: "Installation", Quantity: qty(5), MaterialType: domain.MaterialTypeService},
	}
	afterFirstDelivery := service.Reconcile(contracted, []domain.Challan{
		challanOf(domain.ChallanMaterial{MaterialID: cement, Quantity: qty(60)}),
	})

	tests := []struct {
		name      string
		requested []domain.ChallanLineRequest
		expected  []string
	}{
		{
			name:      "within remaining is accepted",
			requested: []domain.ChallanLineRequest{{MaterialID: cement, Quantity: qty(40)}},
			expected:  nil,
		},
		{
			name:      "exceeding remaining cites what is left",
			requested: []domain.ChallanLineRequest{{MaterialID: cement, Quantity: qty(50)}},
			expected:  []string{"Cannot deliver 50 units of Cement. Only 40 units remaining."},
		},
		{
			name:      "zero quantity is rejected",
			requested: []domain.ChallanLineRequest{{MaterialID: cement, Quantity: qty(0)}},
			expected:  []string{"Quantity for Cement must be greater than 0"},
		},
		{
			name:      "service lines cannot be delivered",
			requested: []domain.ChallanLineRequest{{MaterialID: install, Quantity: qty(1)}},
			expected:  []string{"Material Installation is a service and cannot be delivered"},
		},
		{
			name: "every violation is collected",
			requested: []domain.ChallanLineRequest{
				{MaterialID: unknown, Quantity: qty(1)},
				{MaterialID: cement, Quantity: qty(-2)},
				{MaterialID: cement, Quantity: qty(41)},
			},
			expected: []string{
				"Material " + unknown.String() + " not found in quotation",
				"Quantity for Cement must be greater than 0",
				"Cannot deliver 41 units of Cement. Only 40 units remaining.",
			},
		},
		{
			name: "split lines are checked cumulatively",
			requested: []domain.ChallanLineRequest{
				{MaterialID: cement, Quantity: qty(30)},
				{MaterialID: cement, Quantity: qty(20)},
			},
			expected: []string{"Cannot deliver 20 units of Cement. Only 10 units remaining."},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := service.ValidateChallanLines(contracted, afterFirstDelivery, tc.requested)
			assert.Equal(t, tc.expected, got)
		})
	}
}
