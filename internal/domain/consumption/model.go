package consumption

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Spok95/odonto/internal/domain/procedures"
)

// Execution запись registro_procedimentos: процедура выполнена Count раз.
// После создания не меняется, только удаляется.
type Execution struct {
	ID          int64                 `json:"id"`
	ProcedureID int64                 `json:"procedure_id"`
	Count       int                   `json:"quantidade"`
	Notes       string                `json:"observacoes"`
	Deduct      bool                  `json:"realizar_baixa"`
	PerformedAt time.Time             `json:"data_realizacao"`
	Procedure   *procedures.Procedure `json:"procedimento,omitempty"`
	Deductions  []Deduction           `json:"baixas,omitempty"`
}

// Deduction строка аудита baixa_estoque_procedimento, одна на (запись, материал).
type Deduction struct {
	ID          int64           `json:"id"`
	ExecutionID int64           `json:"registro_id"`
	MaterialID  int64           `json:"material_id"`
	Qty         decimal.Decimal `json:"quantidade_baixada"`
	Before      decimal.Decimal `json:"quantidade_anterior"`
	After       decimal.Decimal `json:"quantidade_nova"`
	CreatedAt   time.Time       `json:"created_at"`
}

type RecordInput struct {
	ProcedureID int64
	Count       int
	Deduct      bool
	Notes       string
}

type ListFilter struct {
	ProcedureID int64
	From        *time.Time
	To          *time.Time
	Limit       int
}
