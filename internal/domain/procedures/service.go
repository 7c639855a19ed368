package procedures

import (
	"context"
	"errors"
	"strings"

	"github.com/Spok95/odonto/internal/apperr"
	"github.com/Spok95/odonto/internal/domain/materials"
)

type Store interface {
	Create(ctx context.Context, p Procedure) (*Procedure, error)
	GetByID(ctx context.Context, id int64) (*Procedure, error)
	List(ctx context.Context, onlyActive bool) ([]Procedure, error)
	Items(ctx context.Context, procedureID int64) ([]Item, error)
	ReplaceItems(ctx context.Context, procedureID int64, items []ItemInput) error
}

var _ Store = (*Repo)(nil)

type Service struct{ store Store }

func NewService(store Store) *Service { return &Service{store: store} }

func (s *Service) Create(ctx context.Context, p Procedure) (*Procedure, error) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return nil, apperr.Validation("nome is required")
	}
	if p.Price.IsNegative() {
		return nil, apperr.Validation("preco must be >= 0")
	}
	out, err := s.store.Create(ctx, p)
	return out, apperr.DataStore("procedures.Create", err)
}

func (s *Service) Get(ctx context.Context, id int64) (*Procedure, error) {
	p, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.DataStore("procedures.Get", err)
	}
	if p == nil {
		return nil, apperr.NotFound("procedure", id)
	}
	return p, nil
}

func (s *Service) List(ctx context.Context, onlyActive bool) ([]Procedure, error) {
	out, err := s.store.List(ctx, onlyActive)
	return out, apperr.DataStore("procedures.List", err)
}

func (s *Service) Items(ctx context.Context, procedureID int64) ([]Item, error) {
	if _, err := s.Get(ctx, procedureID); err != nil {
		return nil, err
	}
	out, err := s.store.Items(ctx, procedureID)
	return out, apperr.DataStore("procedures.Items", err)
}

// SetItems заменяет BOM; материал в списке должен встречаться один раз.
func (s *Service) SetItems(ctx context.Context, procedureID int64, items []ItemInput) ([]Item, error) {
	seen := make(map[int64]bool, len(items))
	for _, it := range items {
		if it.MaterialID <= 0 {
			return nil, apperr.Validation("material_id is required")
		}
		if !it.Qty.IsPositive() {
			return nil, apperr.Validation("quantidade must be > 0 (material %d)", it.MaterialID)
		}
		if !materials.ValidQty(it.Qty) {
			return nil, apperr.Validation("quantidade %s must be below 1e11 with at most 3 decimals (material %d)", it.Qty, it.MaterialID)
		}
		if seen[it.MaterialID] {
			return nil, apperr.Validation("material %d listed twice", it.MaterialID)
		}
		seen[it.MaterialID] = true
	}
	if _, err := s.Get(ctx, procedureID); err != nil {
		return nil, err
	}
	if err := s.store.ReplaceItems(ctx, procedureID, items); err != nil {
		if errors.Is(err, ErrUnknownMaterial) {
			return nil, apperr.Validation("%v", err)
		}
		return nil, apperr.DataStore("procedures.SetItems", err)
	}
	return s.Items(ctx, procedureID)
}

func (s *Service) Cost(ctx context.Context, procedureID int64) (Cost, error) {
	p, err := s.Get(ctx, procedureID)
	if err != nil {
		return Cost{}, err
	}
	items, err := s.store.Items(ctx, procedureID)
	if err != nil {
		return Cost{}, apperr.DataStore("procedures.Cost", err)
	}
	return CalcCost(*p, items), nil
}
