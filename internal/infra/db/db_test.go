package db_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"

	"github.com/Spok95/odonto/internal/infra/db"
	"github.com/Spok95/odonto/internal/infra/db/dbtest"
)

func TestWithTx_NestedFailureKeepsOuterTx(t *testing.T) {
	pool := dbtest.Open(t, "db")
	ctx := context.Background()

	err := db.WithTx(ctx, pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `INSERT INTO materiais (nome) VALUES ('externo')`); err != nil {
			return err
		}
		inner := db.WithTx(ctx, tx, func(sp pgx.Tx) error {
			if _, err := sp.Exec(ctx, `INSERT INTO materiais (nome) VALUES ('interno')`); err != nil {
				return err
			}
			// нарушение CHECK внутри savepoint
			_, err := sp.Exec(ctx, `INSERT INTO materiais (nome, quantidade_atual) VALUES ('negativo', -1)`)
			return err
		})
		if inner == nil {
			return errors.New("expected inner failure")
		}
		_, err := tx.Exec(ctx, `INSERT INTO materiais (nome) VALUES ('depois')`)
		return err
	})
	if err != nil {
		t.Fatalf("outer tx: %v", err)
	}

	for name, want := range map[string]int{"externo": 1, "depois": 1, "interno": 0, "negativo": 0} {
		if n := dbtest.Count(t, pool, `SELECT count(*) FROM materiais WHERE nome = $1`, name); n != want {
			t.Errorf("%s: expected %d rows, got %d", name, want, n)
		}
	}
}

func TestWithTx_RollbackOnError(t *testing.T) {
	pool := dbtest.Open(t, "db")
	ctx := context.Background()

	boom := errors.New("boom")
	err := db.WithTx(ctx, pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `INSERT INTO materiais (nome) VALUES ('descartado')`); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if n := dbtest.Count(t, pool, `SELECT count(*) FROM materiais`); n != 0 {
		t.Errorf("expected rollback, found %d rows", n)
	}
}
