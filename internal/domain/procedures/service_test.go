package procedures

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/Spok95/odonto/internal/apperr"
)

const unknownMaterial = 404

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type memStore struct {
	procs map[int64]*Procedure
	items map[int64][]Item
}

func newMemStore() *memStore {
	return &memStore{procs: map[int64]*Procedure{}, items: map[int64][]Item{}}
}

func (m *memStore) Create(_ context.Context, p Procedure) (*Procedure, error) {
	p.ID = int64(len(m.procs) + 1)
	p.Active = true
	m.procs[p.ID] = &p
	return &p, nil
}

func (m *memStore) GetByID(_ context.Context, id int64) (*Procedure, error) {
	return m.procs[id], nil
}

func (m *memStore) List(context.Context, bool) ([]Procedure, error) {
	var out []Procedure
	for _, p := range m.procs {
		out = append(out, *p)
	}
	return out, nil
}

func (m *memStore) Items(_ context.Context, id int64) ([]Item, error) {
	return m.items[id], nil
}

func (m *memStore) ReplaceItems(_ context.Context, id int64, in []ItemInput) error {
	for _, it := range in {
		if it.MaterialID == unknownMaterial {
			return fmt.Errorf("material %d: %w", it.MaterialID, ErrUnknownMaterial)
		}
	}
	m.items[id] = nil
	for i, it := range in {
		m.items[id] = append(m.items[id], Item{
			ID: int64(i + 1), ProcedureID: id, MaterialID: it.MaterialID, Qty: it.Qty, UnitCost: d("2"),
		})
	}
	return nil
}

func TestCalcCost(t *testing.T) {
	p := Procedure{ID: 1, Name: "Restauração", Price: d("150")}
	items := []Item{
		{MaterialID: 1, MaterialName: "Resina", Qty: d("2.5"), UnitCost: d("12.40")},
		{MaterialID: 2, MaterialName: "Luva", Qty: d("2"), UnitCost: d("0.35")},
	}

	c := CalcCost(p, items)

	if !c.Materials.Equal(d("31.70")) {
		t.Errorf("expected materials cost 31.70, got %s", c.Materials)
	}
	if !c.Margin.Equal(d("118.30")) {
		t.Errorf("expected margin 118.30, got %s", c.Margin)
	}
	if len(c.Lines) != 2 || !c.Lines[0].Cost.Equal(d("31")) {
		t.Errorf("unexpected lines %+v", c.Lines)
	}
}

func TestCalcCost_EmptyBOM(t *testing.T) {
	c := CalcCost(Procedure{ID: 3, Price: d("80")}, nil)
	if !c.Materials.IsZero() || !c.Margin.Equal(d("80")) {
		t.Errorf("unexpected cost %+v", c)
	}
	if c.Lines == nil {
		t.Error("expected empty, non-nil lines for JSON")
	}
}

func TestService_SetItems_Validation(t *testing.T) {
	st := newMemStore()
	svc := NewService(st)
	ctx := context.Background()
	p, _ := svc.Create(ctx, Procedure{Name: "Limpeza"})

	tests := []struct {
		name  string
		items []ItemInput
	}{
		{name: "missing_material", items: []ItemInput{{Qty: d("1")}}},
		{name: "zero_qty", items: []ItemInput{{MaterialID: 1, Qty: decimal.Zero}}},
		{name: "duplicate_material", items: []ItemInput{{MaterialID: 1, Qty: d("1")}, {MaterialID: 1, Qty: d("2")}}},
		{name: "unknown_material", items: []ItemInput{{MaterialID: unknownMaterial, Qty: d("1")}}},
		{name: "four_decimals", items: []ItemInput{{MaterialID: 1, Qty: d("0.0004")}}},
		{name: "overflows_numeric", items: []ItemInput{{MaterialID: 1, Qty: d("100000000000")}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SetItems(ctx, p.ID, tt.items)
			if !apperr.Is(err, apperr.KindValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestService_SetItemsAndCost(t *testing.T) {
	st := newMemStore()
	svc := NewService(st)
	ctx := context.Background()
	p, _ := svc.Create(ctx, Procedure{Name: "Extração", Price: d("200")})

	items, err := svc.SetItems(ctx, p.ID, []ItemInput{{MaterialID: 4, Qty: d("3")}})
	if err != nil {
		t.Fatalf("SetItems: %v", err)
	}
	if len(items) != 1 || items[0].MaterialID != 4 {
		t.Fatalf("unexpected items %+v", items)
	}

	c, err := svc.Cost(ctx, p.ID)
	if err != nil {
		t.Fatalf("Cost: %v", err)
	}
	if !c.Materials.Equal(d("6")) {
		t.Errorf("expected cost 6, got %s", c.Materials)
	}
}

func TestService_NotFound(t *testing.T) {
	svc := NewService(newMemStore())
	ctx := context.Background()

	if _, err := svc.Get(ctx, 99); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("Get: expected not_found, got %v", err)
	}
	if _, err := svc.SetItems(ctx, 99, nil); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("SetItems: expected not_found, got %v", err)
	}
	if _, err := svc.Cost(ctx, 99); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("Cost: expected not_found, got %v", err)
	}
	if _, err := svc.Create(ctx, Procedure{Name: "  "}); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("Create: expected validation, got %v", err)
	}
}
