package consumption

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Spok95/odonto/internal/apperr"
	"github.com/Spok95/odonto/internal/domain/inventory"
	"github.com/Spok95/odonto/internal/domain/materials"
	"github.com/Spok95/odonto/internal/infra/events"
	"github.com/Spok95/odonto/internal/infra/metrics"
)

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

// RecordExecution создаёт запись выполнения и, если Deduct, списывает материалы по BOM.
// Запись, списания и аудит пишутся одной транзакцией.
// История склада пишется best-effort: ошибка логируется, вызов не падает.
func (s *Service) RecordExecution(ctx context.Context, in RecordInput) (*Execution, error) {
	if in.ProcedureID <= 0 {
		return nil, apperr.Validation("procedure_id is required")
	}
	if in.Count <= 0 {
		return nil, apperr.Validation("quantidade must be > 0")
	}
	if in.Count > math.MaxInt32 {
		return nil, apperr.Validation("quantidade must be <= %d", math.MaxInt32)
	}
	in.Notes = strings.TrimSpace(in.Notes)

	var (
		exec    *Execution
		written []inventory.Entry
	)
	err := s.store.InTx(ctx, func(tx Tx) error {
		written = written[:0]

		p, err := tx.Procedure(ctx, in.ProcedureID)
		if err != nil {
			return fmt.Errorf("load procedure: %w", err)
		}
		if p == nil {
			return apperr.Validation("procedure %d does not exist", in.ProcedureID)
		}

		e := &Execution{
			ProcedureID: in.ProcedureID,
			Count:       in.Count,
			Notes:       in.Notes,
			Deduct:      in.Deduct,
		}
		if err := tx.InsertExecution(ctx, e); err != nil {
			return fmt.Errorf("insert execution: %w", err)
		}
		e.Procedure = p

		if !in.Deduct {
			exec = e
			return nil
		}

		items, err := tx.BOM(ctx, in.ProcedureID)
		if err != nil {
			return fmt.Errorf("load bom: %w", err)
		}

		count := decimal.NewFromInt(int64(in.Count))
		reason := fmt.Sprintf("Baixa automática: %s (x%d)", p.Name, in.Count)

		for _, it := range items {
			qty := it.Qty.Mul(count)
			if !materials.ValidQty(qty) {
				return apperr.Validation("deduction of %s for material %d is out of range", qty, it.MaterialID)
			}

			ch, ok, err := tx.Deduct(ctx, it.MaterialID, qty)
			if err != nil {
				return fmt.Errorf("deduct material %d: %w", it.MaterialID, err)
			}
			if !ok {
				return fmt.Errorf("deduct material %d: material missing", it.MaterialID)
			}

			d := Deduction{
				ExecutionID: e.ID,
				MaterialID:  it.MaterialID,
				Qty:         qty,
				Before:      ch.Before,
				After:       ch.After,
			}
			if err := tx.InsertDeduction(ctx, &d); err != nil {
				return fmt.Errorf("insert deduction for material %d: %w", it.MaterialID, err)
			}
			e.Deductions = append(e.Deductions, d)

			h := inventory.Entry{
				MaterialID: it.MaterialID,
				Kind:       inventory.KindOut,
				Qty:        qty,
				Before:     ch.Before,
				After:      ch.After,
				Reason:     reason,
			}
			if err := tx.AppendHistory(ctx, &h); err != nil {
				s.log.Warn("stock history write failed",
					"procedure_id", in.ProcedureID,
					"material_id", it.MaterialID,
					"err", err,
				)
				s.metrics.HistoryWriteFailed()
				continue
			}
			written = append(written, h)
		}

		exec = e
		return nil
	})
	if err != nil {
		if !apperr.Is(err, apperr.KindValidation) {
			s.log.Error("record execution failed", "procedure_id", in.ProcedureID, "count", in.Count, "err", err)
		}
		return nil, apperr.DataStore("consumption.RecordExecution", err)
	}

	s.metrics.ExecutionRecorded(in.Deduct, len(exec.Deductions))
	if len(written) > 0 {
		source := fmt.Sprintf("execution:%d", exec.ID)
		evs := make([]events.StockMovement, 0, len(written))
		for _, h := range written {
			evs = append(evs, inventory.ToEvent(h, source))
		}
		if err := s.pub.PublishStockMovements(ctx, evs...); err != nil {
			s.log.Warn("publish stock movements failed", "execution_id", exec.ID, "events", len(evs), "err", err)
		}
	}
	return exec, nil
}

// DeleteExecution удаляет запись вместе с аудитом. Остатки не возвращаются:
// это исправление журнала, а не сторно склада.
func (s *Service) DeleteExecution(ctx context.Context, id int64) error {
	found, err := s.store.Delete(ctx, id)
	if err != nil {
		return apperr.DataStore("consumption.DeleteExecution", err)
	}
	if !found {
		return apperr.NotFound("execution", id)
	}
	return nil
}

func (s *Service) GetExecution(ctx context.Context, id int64) (*Execution, error) {
	e, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, apperr.DataStore("consumption.GetExecution", err)
	}
	if e == nil {
		return nil, apperr.NotFound("execution", id)
	}
	return e, nil
}

func (s *Service) ListExecutions(ctx context.Context, f ListFilter) ([]Execution, error) {
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return nil, apperr.Validation("to must not be before from")
	}
	out, err := s.store.List(ctx, f)
	return out, apperr.DataStore("consumption.ListExecutions", err)
}
