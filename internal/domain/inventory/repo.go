package inventory

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/Spok95/odonto/internal/apperr"
	"github.com/Spok95/odonto/internal/domain/materials"
	"github.com/Spok95/odonto/internal/infra/db"
)

type Repo struct{ db db.DBTX }

func NewRepo(d db.DBTX) *Repo { return &Repo{db: d} }

// Append пишет строку истории в savepoint: ошибка не ломает внешнюю транзакцию.
func (r *Repo) Append(ctx context.Context, e *Entry) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return insertEntry(ctx, tx, e)
	})
}

func insertEntry(ctx context.Context, d db.DBTX, e *Entry) error {
	return d.QueryRow(ctx, `
		INSERT INTO historico_estoque (material_id, tipo, quantidade, quantidade_anterior, quantidade_nova, motivo)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id, created_at
	`, e.MaterialID, string(e.Kind), e.Qty, e.Before, e.After, e.Reason).Scan(&e.ID, &e.CreatedAt)
}

func (r *Repo) ListByMaterial(ctx context.Context, materialID int64, limit int) ([]Entry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.db.Query(ctx, `
		SELECT id, material_id, tipo, quantidade, quantidade_anterior, quantidade_nova, motivo, created_at
		FROM historico_estoque
		WHERE material_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, materialID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.MaterialID, &e.Kind, &e.Qty, &e.Before, &e.After, &e.Reason, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Apply ручное движение: остаток и история в одной транзакции.
func (r *Repo) Apply(ctx context.Context, materialID int64, kind Kind, qty decimal.Decimal, reason string) (*Entry, error) {
	if !kind.Valid() {
		return nil, apperr.Validation("unknown movement kind %q", kind)
	}
	if qty.IsNegative() || (kind != KindAdjust && !qty.IsPositive()) {
		return nil, apperr.Validation("quantidade must be > 0")
	}

	var out *Entry
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		mats := materials.NewRepo(tx)

		var (
			ch  materials.StockChange
			ok  bool
			err error
		)
		switch kind {
		case KindIn:
			ch, ok, err = mats.Receive(ctx, materialID, qty)
		case KindOut:
			ch, ok, err = mats.Deduct(ctx, materialID, qty)
		default:
			ch, ok, err = mats.SetQuantity(ctx, materialID, qty)
		}
		if err != nil {
			return fmt.Errorf("update stock: %w", err)
		}
		if !ok {
			return apperr.NotFound("material", materialID)
		}

		e := &Entry{
			MaterialID: materialID,
			Kind:       kind,
			Qty:        qty,
			Before:     ch.Before,
			After:      ch.After,
			Reason:     reason,
		}
		if err := insertEntry(ctx, tx, e); err != nil {
			return fmt.Errorf("insert history: %w", err)
		}
		out = e
		return nil
	})
	if err != nil {
		return nil, apperr.DataStore("inventory.Apply", err)
	}
	return out, nil
}
