package service

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tradeflow/backoffice-api/internal/domain"
)

// MaterialBalance is the delivery position of one contracted material.
type MaterialBalance struct {
	Line      domain.QuotationMaterial
	Original  decimal.Decimal
	Delivered decimal.Decimal
	Remaining decimal.Decimal
}

// CanDeliver reports whether any quantity is left to deliver
func (b MaterialBalance) CanDeliver() bool {
	return b.Remaining.IsPositive()
}

// Reconcile computes the delivery balance of every deliverable line in contracted
// against the challans already issued. Service lines are skipped. Lines that
// repeat a material_id are merged so each material has one balance; the result
// keeps the order in which materials first appear.
func Reconcile(contracted []domain.QuotationMaterial, delivered []domain.Challan) []MaterialBalance {
	deliveredByMaterial := make(map[uuid.UUID]decimal.Decimal)
	for _, challan := range delivered {
		for _, line := range challan.Materials {
			deliveredByMaterial[line.MaterialID] = deliveredByMaterial[line.MaterialID].Add(line.Quantity)
		}
	}

	index := make(map[uuid.UUID]int)
	balances := make([]MaterialBalance, 0, len(contracted))
	for _, line := range contracted {
		if line.MaterialType == domain.MaterialTypeService {
			continue
		}
		if i, ok := index[line.MaterialID]; ok {
			balances[i].Original = balances[i].Original.Add(line.Quantity)
			continue
		}
		index[line.MaterialID] = len(balances)
		balances = append(balances, MaterialBalance{Line: line, Original: line.Quantity})
	}

	for i := range balances {
		b := &balances[i]
		b.Delivered = deliveredByMaterial[b.Line.MaterialID]
		b.Remaining = decimal.Max(decimal.Zero, b.Original.Sub(b.Delivered))
	}
	return balances
}

// Fulfilled reports whether nothing is left to deliver on any line
func Fulfilled(balances []MaterialBalance) bool {
	for _, b := range balances {
		if b.CanDeliver() {
			return false
		}
	}
	return true
}

// ValidateChallanLines checks requested against the balances and the full
// contracted list. Every violation is returned; an empty result means the
// request can be persisted. The same material requested on several lines is
// checked against its cumulative requested quantity.
func ValidateChallanLines(contracted []domain.QuotationMaterial, balances []MaterialBalance, requested []domain.ChallanLineRequest) []string {
	byMaterial := make(map[uuid.UUID]MaterialBalance, len(balances))
	for _, b := range balances {
		byMaterial[b.Line.MaterialID] = b
	}
	services := make(map[uuid.UUID]string)
	for _, line := range contracted {
		if line.MaterialType == domain.MaterialTypeService {
			services[line.MaterialID] = line.Name
		}
	}

	var violations []string
	requestedSoFar := make(map[uuid.UUID]decimal.Decimal)
	for _, req := range requested {
		balance, ok := byMaterial[req.MaterialID]
		if !ok {
			if name, isService := services[req.MaterialID]; isService {
				violations = append(violations, fmt.Sprintf("Material %s is a service and cannot be delivered", name))
				continue
			}
			violations = append(violations, fmt.Sprintf("Material %s not found in quotation", req.MaterialID))
			continue
		}

		name := balance.Line.Name
		if !req.Quantity.IsPositive() {
			violations = append(violations, fmt.Sprintf("Quantity for %s must be greater than 0", name))
			continue
		}

		available := balance.Remaining.Sub(requestedSoFar[req.MaterialID])
		if req.Quantity.GreaterThan(available) {
			violations = append(violations, fmt.Sprintf(
				"Cannot deliver %s units of %s. Only %s units remaining.",
				req.Quantity.String(), name, decimal.Max(decimal.Zero, available).String()))
		}
		requestedSoFar[req.MaterialID] = requestedSoFar[req.MaterialID].Add(req.Quantity)
	}
	return violations
}
