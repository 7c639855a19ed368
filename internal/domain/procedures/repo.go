package procedures

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Spok95/odonto/internal/infra/db"
)

// ErrUnknownMaterial BOM ссылается на несуществующий материал.
var ErrUnknownMaterial = errors.New("unknown material")

type Repo struct{ db db.DBTX }

func NewRepo(d db.DBTX) *Repo { return &Repo{db: d} }

const procedureCols = `id, nome, descricao, preco, ativo, created_at`

func scanProcedure(row pgx.Row) (*Procedure, error) {
	var p Procedure
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Active, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repo) Create(ctx context.Context, p Procedure) (*Procedure, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO procedimentos (nome, descricao, preco, ativo)
		VALUES ($1,$2,$3,TRUE)
		RETURNING `+procedureCols, p.Name, p.Description, p.Price)
	return scanProcedure(row)
}

func (r *Repo) GetByID(ctx context.Context, id int64) (*Procedure, error) {
	row := r.db.QueryRow(ctx, `SELECT `+procedureCols+` FROM procedimentos WHERE id = $1`, id)
	p, err := scanProcedure(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

func (r *Repo) List(ctx context.Context, onlyActive bool) ([]Procedure, error) {
	q := `SELECT ` + procedureCols + ` FROM procedimentos`
	if onlyActive {
		q += ` WHERE ativo = TRUE`
	}
	q += ` ORDER BY nome`

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Procedure
	for rows.Next() {
		p, err := scanProcedure(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// Items BOM процедуры в порядке добавления.
func (r *Repo) Items(ctx context.Context, procedureID int64) ([]Item, error) {
	rows, err := r.db.Query(ctx, `
		SELECT pm.id, pm.procedimento_id, pm.material_id, pm.quantidade, m.nome, m.unidade, m.custo_unitario
		FROM procedimento_material pm
		JOIN materiais m ON m.id = pm.material_id
		WHERE pm.procedimento_id = $1
		ORDER BY pm.id
	`, procedureID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.ProcedureID, &it.MaterialID, &it.Qty, &it.MaterialName, &it.Unit, &it.UnitCost); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// ReplaceItems заменяет BOM целиком в одной транзакции.
func (r *Repo) ReplaceItems(ctx context.Context, procedureID int64, items []ItemInput) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM procedimento_material WHERE procedimento_id = $1`, procedureID); err != nil {
			return err
		}
		for _, it := range items {
			if _, err := tx.Exec(ctx, `
				INSERT INTO procedimento_material (procedimento_id, material_id, quantidade)
				VALUES ($1,$2,$3)
				ON CONFLICT (procedimento_id, material_id)
				DO UPDATE SET quantidade = EXCLUDED.quantidade
			`, procedureID, it.MaterialID, it.Qty); err != nil {
				var pgErr *pgconn.PgError
				if errors.As(err, &pgErr) && pgErr.Code == "23503" {
					return fmt.Errorf("material %d: %w", it.MaterialID, ErrUnknownMaterial)
				}
				return err
			}
		}
		return nil
	})
}
