package materials

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/Spok95/odonto/internal/infra/db"
)

type Repo struct{ db db.DBTX }

func NewRepo(d db.DBTX) *Repo { return &Repo{db: d} }

const materialCols = `id, nome, unidade, quantidade_atual, quantidade_minima, custo_unitario, ativo, created_at, updated_at`

func scanMaterial(row pgx.Row) (*Material, error) {
	var m Material
	if err := row.Scan(
		&m.ID,
		&m.Name,
		&m.Unit,
		&m.OnHand,
		&m.Minimum,
		&m.UnitCost,
		&m.Active,
		&m.CreatedAt,
		&m.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &m, nil
}

/* Materials CRUD */

func (r *Repo) Create(ctx context.Context, in CreateInput) (*Material, error) {
	if in.Unit == "" {
		in.Unit = UnitPcs
	}
	row := r.db.QueryRow(ctx, `
		INSERT INTO materiais (nome, unidade, quantidade_atual, quantidade_minima, custo_unitario, ativo)
		VALUES ($1,$2,GREATEST($3::numeric,0),$4,$5,TRUE)
		RETURNING `+materialCols, in.Name, in.Unit, in.OnHand, in.Minimum, in.UnitCost)
	return scanMaterial(row)
}

func (r *Repo) GetByID(ctx context.Context, id int64) (*Material, error) {
	row := r.db.QueryRow(ctx, `SELECT `+materialCols+` FROM materiais WHERE id = $1`, id)
	m, err := scanMaterial(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return m, err
}

func (r *Repo) Update(ctx context.Context, id int64, in UpdateInput) (*Material, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE materiais SET
			nome              = COALESCE($2, nome),
			unidade           = COALESCE($3, unidade),
			quantidade_minima = COALESCE($4, quantidade_minima),
			custo_unitario    = COALESCE($5, custo_unitario),
			updated_at        = now()
		WHERE id = $1
		RETURNING `+materialCols, id, in.Name, in.Unit, nullDecimal(in.Minimum), nullDecimal(in.UnitCost))
	m, err := scanMaterial(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return m, err
}

func (r *Repo) SetActive(ctx context.Context, id int64, active bool) (*Material, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE materiais SET ativo = $2, updated_at = now() WHERE id = $1
		RETURNING `+materialCols, id, active)
	m, err := scanMaterial(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return m, err
}

// List ищет по части названия без учёта регистра, если задан f.Query.
func (r *Repo) List(ctx context.Context, f ListFilter) ([]Material, error) {
	q := `SELECT ` + materialCols + ` FROM materiais WHERE TRUE`
	var args []any
	if f.OnlyActive {
		q += ` AND ativo = TRUE`
	}
	if s := strings.TrimSpace(f.Query); s != "" {
		args = append(args, "%"+strings.ToLower(s)+"%")
		q += ` AND LOWER(nome) LIKE $1`
	}
	q += ` ORDER BY nome`

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Material
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

/* Stock: атомарные изменения остатка (без read-then-write на стороне приложения) */

// Deduct списывает qty, остаток не опускается ниже нуля. ok=false: материала нет.
func (r *Repo) Deduct(ctx context.Context, id int64, qty decimal.Decimal) (StockChange, bool, error) {
	return r.changeStock(ctx, `GREATEST(old.quantidade_atual - $2::numeric, 0)`, id, qty)
}

func (r *Repo) Receive(ctx context.Context, id int64, qty decimal.Decimal) (StockChange, bool, error) {
	return r.changeStock(ctx, `old.quantidade_atual + $2::numeric`, id, qty)
}

// SetQuantity выставляет абсолютный остаток (инвентаризация).
func (r *Repo) SetQuantity(ctx context.Context, id int64, qty decimal.Decimal) (StockChange, bool, error) {
	return r.changeStock(ctx, `GREATEST($2::numeric, 0)`, id, qty)
}

func (r *Repo) changeStock(ctx context.Context, expr string, id int64, qty decimal.Decimal) (StockChange, bool, error) {
	// old читается под FOR UPDATE в том же операторе, конкурентные списания не теряются
	row := r.db.QueryRow(ctx, `
		UPDATE materiais m
		SET quantidade_atual = `+expr+`, updated_at = now()
		FROM (SELECT id, quantidade_atual FROM materiais WHERE id = $1 FOR UPDATE) old
		WHERE m.id = old.id
		RETURNING old.quantidade_atual, m.quantidade_atual
	`, id, qty)

	var ch StockChange
	if err := row.Scan(&ch.Before, &ch.After); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return StockChange{}, false, nil
		}
		return StockChange{}, false, err
	}
	return ch, true, nil
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}
