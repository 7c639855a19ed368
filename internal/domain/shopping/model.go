package shopping

import (
	"time"

	"github.com/shopspring/decimal"
)

type Priority string

const (
	PriorityLow    Priority = "baixa"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "alta"
	PriorityUrgent Priority = "urgente"
)

// rank порядок сортировки: urgente выше всех.
func (p Priority) rank() int {
	switch p {
	case PriorityUrgent:
		return 3
	case PriorityHigh:
		return 2
	case PriorityNormal:
		return 1
	case PriorityLow:
		return 0
	}
	return -1
}

func (p Priority) Valid() bool { return p.rank() >= 0 }

type Status string

const (
	StatusPending   Status = "pendente"
	StatusApproved  Status = "aprovado"
	StatusBought    Status = "comprado"
	StatusCancelled Status = "cancelado"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusBought, StatusCancelled:
		return true
	}
	return false
}

// CanMove переходы: pendente -> aprovado -> comprado, отмена из любого нетерминального.
// Переход в тот же статус разрешён.
func (s Status) CanMove(to Status) bool {
	if s == to {
		return true
	}
	switch s {
	case StatusPending:
		return to == StatusApproved || to == StatusCancelled
	case StatusApproved:
		return to == StatusBought || to == StatusCancelled
	}
	return false
}

// MaterialRef краткая карточка материала в ответе списка.
type MaterialRef struct {
	ID       int64           `json:"id"`
	Name     string          `json:"nome"`
	Unit     string          `json:"unidade"`
	OnHand   decimal.Decimal `json:"quantidade_atual"`
	Minimum  decimal.Decimal `json:"quantidade_minima"`
	UnitCost decimal.Decimal `json:"custo_unitario"`
}

type Entry struct {
	ID         int64           `json:"id"`
	MaterialID int64           `json:"material_id"`
	Qty        decimal.Decimal `json:"quantidade_sugerida"`
	Priority   Priority        `json:"prioridade"`
	Status     Status          `json:"status"`
	Notes      string          `json:"observacoes"`
	NeededBy   *time.Time      `json:"data_necessidade"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	Material   *MaterialRef    `json:"material,omitempty"`
}

// AddInput ручное добавление; пустые Notes/NeededBy не затирают существующие.
type AddInput struct {
	MaterialID int64
	Qty        decimal.Decimal
	Priority   Priority
	Notes      string
	NeededBy   *time.Time
}

type UpdateInput struct {
	Qty      *decimal.Decimal
	Priority *Priority
	Status   *Status
	Notes    *string
	NeededBy *time.Time
}

type ListFilter struct {
	Status Status
}

// Suggestion результат советника по одному материалу.
type Suggestion struct {
	MaterialID int64
	Name       string
	Qty        decimal.Decimal
	Priority   Priority
}
