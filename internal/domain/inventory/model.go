package inventory

import (
	"time"

	"github.com/shopspring/decimal"
)

type Kind string

const (
	KindIn     Kind = "entrada"
	KindOut    Kind = "saida"
	KindAdjust Kind = "ajuste"
)

func (k Kind) Valid() bool {
	switch k {
	case KindIn, KindOut, KindAdjust:
		return true
	}
	return false
}

// Entry строка historico_estoque. Только добавляется, никогда не меняется.
type Entry struct {
	ID         int64           `json:"id"`
	MaterialID int64           `json:"material_id"`
	Kind       Kind            `json:"tipo"`
	Qty        decimal.Decimal `json:"quantidade"`
	Before     decimal.Decimal `json:"quantidade_anterior"`
	After      decimal.Decimal `json:"quantidade_nova"`
	Reason     string          `json:"motivo"`
	CreatedAt  time.Time       `json:"created_at"`
}
