package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradeflow/backoffice-api/internal/domain"
)

func TestOptional_Presence(t *testing.T) {
	id := uuid.New()
	current := uuid.New()

	tests := []struct {
		name     string
		body     string
		set      bool
		null     bool
		expected *uuid.UUID
	}{
		{"omitted keeps", `{}`, false, false, &current},
		{"null clears", `{"quotation_id":null}`, true, true, nil},
		{"empty string clears", `{"quotation_id":""}`, true, true, nil},
		{"value replaces", `{"quotation_id":"` + id.String() + `"}`, true, false, &id},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var req domain.UpdatePurchaseOrderRequest
			require.NoError(t, json.Unmarshal([]byte(tc.body), &req))
			assert.Equal(t, tc.set, req.QuotationID.Set)
			assert.Equal(t, tc.null, req.QuotationID.Null)
			assert.Equal(t, tc.expected, req.QuotationID.Apply(&current))
		})
	}

	t.Run("malformed value", func(t *testing.T) {
		var req domain.UpdatePurchaseOrderRequest
		assert.Error(t, json.Unmarshal([]byte(`{"quotation_id":"not-a-uuid"}`), &req))
	})
}
