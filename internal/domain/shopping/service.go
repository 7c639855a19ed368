package shopping

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Spok95/odonto/internal/apperr"
	"github.com/Spok95/odonto/internal/domain/materials"
	"github.com/Spok95/odonto/internal/infra/lock"
	"github.com/Spok95/odonto/internal/infra/metrics"
	"github.com/Spok95/odonto/internal/infra/notify"
)

const (
	restockLockKey = "restock"
	restockLockTTL = 30 * time.Second
)

type Store interface {
	Candidates(ctx context.Context) ([]materials.Material, error)
	InsertPending(ctx context.Context, s Suggestion) (bool, error)
	Upsert(ctx context.Context, in AddInput) (*Entry, error)
	Get(ctx context.Context, id int64) (*Entry, error)
	List(ctx context.Context, f ListFilter) ([]Entry, error)
	Update(ctx context.Context, id int64, from Status, in UpdateInput) (*Entry, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

type Service struct {
	store    Store
	locker   lock.Locker
	notifier notify.Notifier
	log      *slog.Logger
	metrics  *metrics.Metrics
}

func NewService(store Store, locker lock.Locker, n notify.Notifier, log *slog.Logger, m *metrics.Metrics) *Service {
	if locker == nil {
		locker = lock.Noop{}
	}
	if n == nil {
		n = notify.Noop{}
	}
	return &Service{store: store, locker: locker, notifier: n, log: log, metrics: m}
}

// GenerateSuggestions проходит по активным материалам и ставит в список закупок
// те, что опустились до минимума. Возвращает число реально добавленных строк.
func (s *Service) GenerateSuggestions(ctx context.Context) (int, error) {
	release, err := s.locker.Obtain(ctx, restockLockKey, restockLockTTL)
	switch {
	case errors.Is(err, lock.ErrNotObtained):
		// другой запуск уже идёт: его строки и уведомление будут теми же
		s.log.Info("restock run skipped, lock held by another run")
		s.metrics.RestockSkipped()
		return 0, nil
	case err != nil:
		// redis недоступен: дубли pendente всё равно отсекает уникальный индекс
		s.log.Warn("restock lock unavailable, proceeding without it", "err", err)
	default:
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				s.log.Warn("restock lock release failed", "err", err)
			}
		}()
	}

	mats, err := s.store.Candidates(ctx)
	if err != nil {
		return 0, apperr.DataStore("shopping.GenerateSuggestions", err)
	}

	var added []Suggestion
	for _, m := range mats {
		sg, ok := Suggest(m)
		if !ok {
			continue
		}
		inserted, err := s.store.InsertPending(ctx, sg)
		if err != nil {
			s.log.Error("insert restock suggestion failed", "material_id", m.ID, "err", err)
			return len(added), apperr.DataStore("shopping.GenerateSuggestions", err)
		}
		if inserted {
			added = append(added, sg)
		}
	}

	s.metrics.SuggestionsAdded(len(added))
	if len(added) > 0 {
		s.log.Info("restock suggestions added", "count", len(added))
		if err := s.notifier.Notify(ctx, restockMessage(added)); err != nil {
			s.log.Warn("restock notification failed", "err", err)
		}
	}
	return len(added), nil
}

func restockMessage(added []Suggestion) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d itens adicionados à lista de compras:\n", len(added))
	for _, sg := range added {
		fmt.Fprintf(&b, "• %s: %s (%s)\n", sg.Name, sg.Qty.String(), sg.Priority)
	}
	return strings.TrimRight(b.String(), "\n")
}

// AddOrBump добавляет материал в список вручную или обновляет его pendente.
func (s *Service) AddOrBump(ctx context.Context, in AddInput) (*Entry, error) {
	if in.MaterialID <= 0 {
		return nil, apperr.Validation("material_id is required")
	}
	if in.Qty.IsZero() {
		in.Qty = decimal.NewFromInt(1)
	}
	if !in.Qty.IsPositive() {
		return nil, apperr.Validation("quantidade_sugerida must be > 0")
	}
	if !materials.ValidQty(in.Qty) {
		return nil, apperr.Validation("quantidade_sugerida must be below 1e11 with at most 3 decimals")
	}
	if in.Priority == "" {
		in.Priority = PriorityNormal
	}
	if !in.Priority.Valid() {
		return nil, apperr.Validation("unknown prioridade %q", in.Priority)
	}
	in.Notes = strings.TrimSpace(in.Notes)

	e, err := s.store.Upsert(ctx, in)
	if errors.Is(err, ErrUnknownMaterial) {
		return nil, apperr.Validation("material %d does not exist", in.MaterialID)
	}
	return e, apperr.DataStore("shopping.AddOrBump", err)
}

func (s *Service) Get(ctx context.Context, id int64) (*Entry, error) {
	e, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, apperr.DataStore("shopping.Get", err)
	}
	if e == nil {
		return nil, apperr.NotFound("shopping list entry", id)
	}
	return e, nil
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]Entry, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, apperr.Validation("unknown status %q", f.Status)
	}
	out, err := s.store.List(ctx, f)
	return out, apperr.DataStore("shopping.List", err)
}

// Update частичное обновление; смена статуса только по разрешённым переходам.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (*Entry, error) {
	if in.Qty != nil && !in.Qty.IsPositive() {
		return nil, apperr.Validation("quantidade_sugerida must be > 0")
	}
	if in.Qty != nil && !materials.ValidQty(*in.Qty) {
		return nil, apperr.Validation("quantidade_sugerida must be below 1e11 with at most 3 decimals")
	}
	if in.Priority != nil && !in.Priority.Valid() {
		return nil, apperr.Validation("unknown prioridade %q", *in.Priority)
	}
	if in.Status != nil && !in.Status.Valid() {
		return nil, apperr.Validation("unknown status %q", *in.Status)
	}

	cur, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Status != nil && !cur.Status.CanMove(*in.Status) {
		return nil, apperr.Validation("cannot move entry from %s to %s", cur.Status, *in.Status)
	}

	e, err := s.store.Update(ctx, id, cur.Status, in)
	if err != nil {
		return nil, apperr.DataStore("shopping.Update", err)
	}
	if e == nil {
		// строку удалили или перевели между Get и Update
		if _, err := s.Get(ctx, id); err != nil {
			return nil, err
		}
		return nil, apperr.Validation("entry %d was changed concurrently, retry", id)
	}
	return e, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	found, err := s.store.Delete(ctx, id)
	if err != nil {
		return apperr.DataStore("shopping.Delete", err)
	}
	if !found {
		return apperr.NotFound("shopping list entry", id)
	}
	return nil
}
