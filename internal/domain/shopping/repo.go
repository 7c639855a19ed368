package shopping

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/Spok95/odonto/internal/domain/materials"
	"github.com/Spok95/odonto/internal/infra/db"
)

// ErrUnknownMaterial material_id не ссылается на существующий материал.
var ErrUnknownMaterial = errors.New("unknown material")

type Repo struct{ db db.DBTX }

func NewRepo(d db.DBTX) *Repo { return &Repo{db: d} }

var _ Store = (*Repo)(nil)

const entryCols = `l.id, l.material_id, l.quantidade_sugerida, l.prioridade, l.status, l.observacoes,
	l.data_necessidade, l.created_at, l.updated_at`

const joinedCols = entryCols + `, m.id, m.nome, m.unidade, m.quantidade_atual, m.quantidade_minima, m.custo_unitario`

func scanEntry(row pgx.Row, withMaterial bool) (*Entry, error) {
	var e Entry
	dest := []any{
		&e.ID, &e.MaterialID, &e.Qty, &e.Priority, &e.Status, &e.Notes,
		&e.NeededBy, &e.CreatedAt, &e.UpdatedAt,
	}
	var m MaterialRef
	if withMaterial {
		dest = append(dest, &m.ID, &m.Name, &m.Unit, &m.OnHand, &m.Minimum, &m.UnitCost)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	if withMaterial {
		e.Material = &m
	}
	return &e, nil
}

// Candidates активные материалы, по которым ещё нет pendente.
func (r *Repo) Candidates(ctx context.Context) ([]materials.Material, error) {
	rows, err := r.db.Query(ctx, `
		SELECT m.id, m.nome, m.unidade, m.quantidade_atual, m.quantidade_minima, m.custo_unitario, m.ativo
		FROM materiais m
		WHERE m.ativo = TRUE
		  AND NOT EXISTS (
		      SELECT 1 FROM lista_compras l
		      WHERE l.material_id = m.id AND l.status = 'pendente'
		  )
		ORDER BY m.id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []materials.Material
	for rows.Next() {
		var m materials.Material
		if err := rows.Scan(&m.ID, &m.Name, &m.Unit, &m.OnHand, &m.Minimum, &m.UnitCost, &m.Active); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// InsertPending добавляет pendente, если её ещё нет. false: строку уже вставил кто-то другой.
func (r *Repo) InsertPending(ctx context.Context, s Suggestion) (bool, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO lista_compras (material_id, quantidade_sugerida, prioridade, status)
		VALUES ($1, $2, $3, 'pendente')
		ON CONFLICT (material_id) WHERE status = 'pendente' DO NOTHING
		RETURNING id
	`, s.MaterialID, s.Qty, s.Priority).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// Upsert одним оператором: существующая pendente получает новое количество и приоритет.
func (r *Repo) Upsert(ctx context.Context, in AddInput) (*Entry, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO lista_compras AS l (material_id, quantidade_sugerida, prioridade, observacoes, data_necessidade, status)
		VALUES ($1, $2, $3, $4, $5, 'pendente')
		ON CONFLICT (material_id) WHERE status = 'pendente' DO UPDATE SET
			quantidade_sugerida = EXCLUDED.quantidade_sugerida,
			prioridade          = EXCLUDED.prioridade,
			observacoes         = CASE WHEN EXCLUDED.observacoes <> '' THEN EXCLUDED.observacoes ELSE l.observacoes END,
			data_necessidade    = COALESCE(EXCLUDED.data_necessidade, l.data_necessidade),
			updated_at          = now()
		RETURNING `+entryCols, in.MaterialID, in.Qty, in.Priority, in.Notes, in.NeededBy)
	e, err := scanEntry(row, false)
	if isForeignKeyViolation(err) {
		return nil, ErrUnknownMaterial
	}
	return e, err
}

func (r *Repo) Get(ctx context.Context, id int64) (*Entry, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+joinedCols+`
		FROM lista_compras l
		JOIN materiais m ON m.id = l.material_id
		WHERE l.id = $1
	`, id)
	e, err := scanEntry(row, true)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return e, err
}

// List сначала самые срочные, внутри приоритета по времени создания.
func (r *Repo) List(ctx context.Context, f ListFilter) ([]Entry, error) {
	q := `
		SELECT ` + joinedCols + `
		FROM lista_compras l
		JOIN materiais m ON m.id = l.material_id`
	var args []any
	if f.Status != "" {
		args = append(args, f.Status)
		q += ` WHERE l.status = $1`
	}
	q += `
		ORDER BY CASE l.prioridade
			WHEN 'urgente' THEN 0
			WHEN 'alta'    THEN 1
			WHEN 'normal'  THEN 2
			ELSE 3
		END, l.created_at, l.id`

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows, true)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// Update меняет строку, только если статус всё ещё from. nil, nil: строки нет или статус уже другой.
func (r *Repo) Update(ctx context.Context, id int64, from Status, in UpdateInput) (*Entry, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE lista_compras l SET
			quantidade_sugerida = COALESCE($3, l.quantidade_sugerida),
			prioridade          = COALESCE($4, l.prioridade),
			status              = COALESCE($5, l.status),
			observacoes         = COALESCE($6, l.observacoes),
			data_necessidade    = COALESCE($7, l.data_necessidade),
			updated_at          = now()
		WHERE l.id = $1 AND l.status = $2
		RETURNING `+entryCols, id, from, nullDecimal(in.Qty), in.Priority, in.Status, in.Notes, in.NeededBy)
	e, err := scanEntry(row, false)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return e, err
}

func (r *Repo) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM lista_compras WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}
