package materials

import (
	"context"
	"strings"

	"github.com/Spok95/odonto/internal/apperr"
)

type Store interface {
	Create(ctx context.Context, in CreateInput) (*Material, error)
	GetByID(ctx context.Context, id int64) (*Material, error)
	Update(ctx context.Context, id int64, in UpdateInput) (*Material, error)
	SetActive(ctx context.Context, id int64, active bool) (*Material, error)
	List(ctx context.Context, f ListFilter) ([]Material, error)
}

var _ Store = (*Repo)(nil)

type Service struct{ store Store }

func NewService(store Store) *Service { return &Service{store: store} }

func (s *Service) Create(ctx context.Context, in CreateInput) (*Material, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, apperr.Validation("nome is required")
	}
	if in.Minimum.IsNegative() || in.OnHand.IsNegative() || in.UnitCost.IsNegative() {
		return nil, apperr.Validation("quantities and cost must be >= 0")
	}
	if !ValidQty(in.OnHand) || !ValidQty(in.Minimum) {
		return nil, apperr.Validation("quantities must be below 1e11 with at most 3 decimals")
	}
	if !validCost(in.UnitCost) {
		return nil, apperr.Validation("custo_unitario must be below 1e12 with at most 2 decimals")
	}
	m, err := s.store.Create(ctx, in)
	return m, apperr.DataStore("materials.Create", err)
}

func (s *Service) Get(ctx context.Context, id int64) (*Material, error) {
	m, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.DataStore("materials.Get", err)
	}
	if m == nil {
		return nil, apperr.NotFound("material", id)
	}
	return m, nil
}

func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (*Material, error) {
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return nil, apperr.Validation("nome must not be empty")
	}
	if (in.Minimum != nil && in.Minimum.IsNegative()) || (in.UnitCost != nil && in.UnitCost.IsNegative()) {
		return nil, apperr.Validation("quantities and cost must be >= 0")
	}
	if in.Minimum != nil && !ValidQty(*in.Minimum) {
		return nil, apperr.Validation("quantidade_minima must be below 1e11 with at most 3 decimals")
	}
	if in.UnitCost != nil && !validCost(*in.UnitCost) {
		return nil, apperr.Validation("custo_unitario must be below 1e12 with at most 2 decimals")
	}
	m, err := s.store.Update(ctx, id, in)
	if err != nil {
		return nil, apperr.DataStore("materials.Update", err)
	}
	if m == nil {
		return nil, apperr.NotFound("material", id)
	}
	return m, nil
}

func (s *Service) SetActive(ctx context.Context, id int64, active bool) (*Material, error) {
	m, err := s.store.SetActive(ctx, id, active)
	if err != nil {
		return nil, apperr.DataStore("materials.SetActive", err)
	}
	if m == nil {
		return nil, apperr.NotFound("material", id)
	}
	return m, nil
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]Material, error) {
	out, err := s.store.List(ctx, f)
	return out, apperr.DataStore("materials.List", err)
}
