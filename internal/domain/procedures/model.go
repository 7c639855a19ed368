package procedures

import (
	"time"

	"github.com/shopspring/decimal"
)

type Procedure struct {
	ID          int64           `json:"id"`
	Name        string          `json:"nome"`
	Description string          `json:"descricao"`
	Price       decimal.Decimal `json:"preco"`
	Active      bool            `json:"ativo"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Item строка BOM: сколько материала уходит на одно выполнение процедуры.
type Item struct {
	ID           int64           `json:"id"`
	ProcedureID  int64           `json:"procedimento_id"`
	MaterialID   int64           `json:"material_id"`
	Qty          decimal.Decimal `json:"quantidade"`
	MaterialName string          `json:"material_nome"`
	Unit         string          `json:"unidade"`
	UnitCost     decimal.Decimal `json:"custo_unitario"`
}

type ItemInput struct {
	MaterialID int64
	Qty        decimal.Decimal
}

type CostLine struct {
	MaterialID   int64           `json:"material_id"`
	MaterialName string          `json:"material_nome"`
	Qty          decimal.Decimal `json:"quantidade"`
	UnitCost     decimal.Decimal `json:"custo_unitario"`
	Cost         decimal.Decimal `json:"custo"`
}

type Cost struct {
	ProcedureID int64           `json:"procedimento_id"`
	Lines       []CostLine      `json:"itens"`
	Materials   decimal.Decimal `json:"custo_materiais"`
	Price       decimal.Decimal `json:"preco"`
	Margin      decimal.Decimal `json:"margem"`
}

// CalcCost себестоимость материалов процедуры и маржа относительно цены.
func CalcCost(p Procedure, items []Item) Cost {
	c := Cost{ProcedureID: p.ID, Price: p.Price, Materials: decimal.Zero, Lines: make([]CostLine, 0, len(items))}
	for _, it := range items {
		line := CostLine{
			MaterialID:   it.MaterialID,
			MaterialName: it.MaterialName,
			Qty:          it.Qty,
			UnitCost:     it.UnitCost,
			Cost:         it.Qty.Mul(it.UnitCost).Round(2),
		}
		c.Materials = c.Materials.Add(line.Cost)
		c.Lines = append(c.Lines, line)
	}
	c.Margin = c.Price.Sub(c.Materials)
	return c
}
