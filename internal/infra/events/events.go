package events

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// StockMovement событие об изменении остатка, публикуется после коммита.
type StockMovement struct {
	Type       string          `json:"type"` // stock.entrada | stock.saida | stock.ajuste
	MaterialID int64           `json:"material_id"`
	Qty        decimal.Decimal `json:"quantidade"`
	Before     decimal.Decimal `json:"quantidade_anterior"`
	After      decimal.Decimal `json:"quantidade_nova"`
	Reason     string          `json:"motivo"`
	Source     string          `json:"source"` // execution:<id> | manual | import
	Timestamp  time.Time       `json:"timestamp"`
}

// Publisher отправляет события одним пакетом: одна запись в брокер на вызов.
type Publisher interface {
	PublishStockMovements(ctx context.Context, evs ...StockMovement) error
	Close() error
}

// Noop используется, когда брокеры не настроены.
type Noop struct{}

func (Noop) PublishStockMovements(context.Context, ...StockMovement) error { return nil }
func (Noop) Close() error                                                { return nil }
