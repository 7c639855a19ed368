package materials

import (
	"time"

	"github.com/shopspring/decimal"
)

type Unit string

const (
	UnitPcs Unit = "un"
	UnitG   Unit = "g"
	UnitMl  Unit = "ml"
	UnitBox Unit = "cx"
)

type Material struct {
	ID        int64           `json:"id"`
	Name      string          `json:"nome"`
	Unit      Unit            `json:"unidade"`
	OnHand    decimal.Decimal `json:"quantidade_atual"`
	Minimum   decimal.Decimal `json:"quantidade_minima"` // 0: без политики пополнения
	UnitCost  decimal.Decimal `json:"custo_unitario"`
	Active    bool            `json:"ativo"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// StockChange остаток до и после атомарного изменения.
type StockChange struct {
	Before decimal.Decimal
	After  decimal.Decimal
}

type CreateInput struct {
	Name     string
	Unit     Unit
	OnHand   decimal.Decimal
	Minimum  decimal.Decimal
	UnitCost decimal.Decimal
}

// UpdateInput частичное обновление карточки; остаток меняется только движениями.
type UpdateInput struct {
	Name     *string
	Unit     *Unit
	Minimum  *decimal.Decimal
	UnitCost *decimal.Decimal
}

// Колонки количеств NUMERIC(14,3), денег NUMERIC(14,2): 11 и 12 знаков до запятой.
var (
	maxQty  = decimal.New(1, 11)
	maxCost = decimal.New(1, 12)
)

// ValidQty сообщает, поместится ли количество в колонку без округления и переполнения.
func ValidQty(q decimal.Decimal) bool {
	return q.Abs().LessThan(maxQty) && q.Equal(q.Truncate(3))
}

func validCost(c decimal.Decimal) bool {
	return c.Abs().LessThan(maxCost) && c.Equal(c.Truncate(2))
}

type ListFilter struct {
	OnlyActive bool
	Query      string
}
