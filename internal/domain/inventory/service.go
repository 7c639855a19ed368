package inventory

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Spok95/odonto/internal/apperr"
	"github.com/Spok95/odonto/internal/domain/materials"
	"github.com/Spok95/odonto/internal/infra/events"
	"github.com/Spok95/odonto/internal/infra/metrics"
)

type Store interface {
	Applier
	ListByMaterial(ctx context.Context, materialID int64, limit int) ([]Entry, error)
}

var _ Store = (*Repo)(nil)

type Service struct {
	store   Store
	pub     events.Publisher
	log     *slog.Logger
	metrics *metrics.Metrics
}

func NewService(store Store, pub events.Publisher, log *slog.Logger, m *metrics.Metrics) *Service {
	if pub == nil {
		pub = events.Noop{}
	}
	return &Service{store: store, pub: pub, log: log, metrics: m}
}

// Move ручное движение по складу (приход, списание, корректировка).
func (s *Service) Move(ctx context.Context, materialID int64, kind Kind, qty decimal.Decimal, reason string) (*Entry, error) {
	if reason == "" {
		reason = "manual"
	}
	if !materials.ValidQty(qty) {
		return nil, apperr.Validation("quantidade must be below 1e11 with at most 3 decimals")
	}
	e, err := s.store.Apply(ctx, materialID, kind, qty, reason)
	if err != nil {
		return nil, err
	}
	s.metrics.StockMovement(string(kind))
	s.publish(ctx, ToEvent(*e, "manual"))
	return e, nil
}

func (s *Service) History(ctx context.Context, materialID int64, limit int) ([]Entry, error) {
	out, err := s.store.ListByMaterial(ctx, materialID, limit)
	return out, apperr.DataStore("inventory.History", err)
}

// Import применяет строки xlsx; события уходят одним пакетом после последней
// применённой строки, в том числе когда импорт остановился на ошибке.
func (s *Service) Import(ctx context.Context, rows []ImportRow) (ImportResult, error) {
	var evs []events.StockMovement
	res, err := Import(ctx, applierFunc(func(ctx context.Context, id int64, kind Kind, qty decimal.Decimal, reason string) (*Entry, error) {
		e, err := s.store.Apply(ctx, id, kind, qty, reason)
		if err == nil {
			s.metrics.StockMovement(string(kind))
			evs = append(evs, ToEvent(*e, "import"))
		}
		return e, err
	}), rows)
	if err != nil {
		s.log.Warn("stock import stopped", "rows_applied", res.Rows, "err", err)
	}
	s.publish(ctx, evs...)
	return res, err
}

func (s *Service) publish(ctx context.Context, evs ...events.StockMovement) {
	if len(evs) == 0 {
		return
	}
	if err := s.pub.PublishStockMovements(ctx, evs...); err != nil {
		s.log.Warn("publish stock movements failed", "events", len(evs), "err", err)
	}
}

// ToEvent переводит строку истории в событие для брокера.
func ToEvent(e Entry, source string) events.StockMovement {
	ts := e.CreatedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	return events.StockMovement{
		Type:       "stock." + string(e.Kind),
		MaterialID: e.MaterialID,
		Qty:        e.Qty,
		Before:     e.Before,
		After:      e.After,
		Reason:     e.Reason,
		Source:     source,
		Timestamp:  ts,
	}
}

type applierFunc func(ctx context.Context, id int64, kind Kind, qty decimal.Decimal, reason string) (*Entry, error)

func (f applierFunc) Apply(ctx context.Context, id int64, kind Kind, qty decimal.Decimal, reason string) (*Entry, error) {
	return f(ctx, id, kind, qty, reason)
}
