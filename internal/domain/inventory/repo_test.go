package inventory_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/Spok95/odonto/internal/apperr"
	"github.com/Spok95/odonto/internal/domain/inventory"
	"github.com/Spok95/odonto/internal/domain/materials"
	"github.com/Spok95/odonto/internal/infra/db/dbtest"
)

func TestRepo_ApplyWritesHistory(t *testing.T) {
	pool := dbtest.Open(t, "inventory")
	ctx := context.Background()
	m, err := materials.NewRepo(pool).Create(ctx, materials.CreateInput{Name: "Algodão", Unit: materials.UnitPcs, OnHand: decimal.NewFromInt(4)})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	repo := inventory.NewRepo(pool)

	steps := []struct {
		kind          inventory.Kind
		qty           int64
		before, after int64
	}{
		{inventory.KindIn, 6, 4, 10},
		{inventory.KindOut, 25, 10, 0},
		{inventory.KindAdjust, 7, 0, 7},
	}
	for _, s := range steps {
		e, err := repo.Apply(ctx, m.ID, s.kind, decimal.NewFromInt(s.qty), "teste")
		if err != nil {
			t.Fatalf("Apply %s: %v", s.kind, err)
		}
		if !e.Before.Equal(decimal.NewFromInt(s.before)) || !e.After.Equal(decimal.NewFromInt(s.after)) {
			t.Errorf("%s: expected %d -> %d, got %s -> %s", s.kind, s.before, s.after, e.Before, e.After)
		}
	}

	hist, err := repo.ListByMaterial(ctx, m.ID, 10)
	if err != nil {
		t.Fatalf("ListByMaterial: %v", err)
	}
	if len(hist) != 3 || hist[0].Kind != inventory.KindAdjust {
		t.Errorf("expected 3 entries newest first, got %+v", hist)
	}

	if _, err := repo.Apply(ctx, m.ID+1000, inventory.KindIn, decimal.NewFromInt(1), ""); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
	if n := dbtest.Count(t, pool, `SELECT count(*) FROM historico_estoque`); n != 3 {
		t.Errorf("missing material must not leave history, got %d rows", n)
	}
}
