package shopping

import (
	"github.com/shopspring/decimal"

	"github.com/Spok95/odonto/internal/domain/materials"
)

var (
	bufferRate = decimal.RequireFromString("0.2")
	hundred    = decimal.NewFromInt(100)
	fifty      = decimal.NewFromInt(50)
)

// Suggest решает, нужно ли докупать материал, сколько и насколько срочно.
// Условие: минимум задан и остаток не выше минимума.
// Количество: ceil((min - остаток) + 20% от min), считается в decimal без потерь.
func Suggest(m materials.Material) (Suggestion, bool) {
	if !m.Minimum.IsPositive() || m.OnHand.GreaterThan(m.Minimum) {
		return Suggestion{}, false
	}

	qty := m.Minimum.Sub(m.OnHand).Add(m.Minimum.Mul(bufferRate)).Ceil()
	return Suggestion{
		MaterialID: m.ID,
		Name:       m.Name,
		Qty:        qty,
		Priority:   PriorityFor(m.OnHand, m.Minimum),
	}, true
}

// PriorityFor по доле остатка от минимума, в процентах.
func PriorityFor(onHand, minimum decimal.Decimal) Priority {
	if !minimum.IsPositive() {
		return PriorityNormal
	}
	r := onHand.Div(minimum).Mul(hundred)
	switch {
	case r.LessThan(fifty):
		return PriorityUrgent
	case r.LessThan(hundred):
		return PriorityHigh
	default:
		return PriorityNormal
	}
}
