package consumption

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/Spok95/odonto/internal/domain/inventory"
	"github.com/Spok95/odonto/internal/domain/materials"
	"github.com/Spok95/odonto/internal/domain/procedures"
	"github.com/Spok95/odonto/internal/infra/db"
)

// Tx операции, которые выполняются внутри одной транзакции записи выполнения.
type Tx interface {
	Procedure(ctx context.Context, id int64) (*procedures.Procedure, error)
	BOM(ctx context.Context, procedureID int64) ([]procedures.Item, error)
	InsertExecution(ctx context.Context, e *Execution) error
	Deduct(ctx context.Context, materialID int64, qty decimal.Decimal) (materials.StockChange, bool, error)
	InsertDeduction(ctx context.Context, d *Deduction) error
	// AppendHistory не должна ломать транзакцию при ошибке.
	AppendHistory(ctx context.Context, e *inventory.Entry) error
}

type Store interface {
	InTx(ctx context.Context, fn func(Tx) error) error
	Get(ctx context.Context, id int64) (*Execution, error)
	List(ctx context.Context, f ListFilter) ([]Execution, error)
	// Delete удаляет строки аудита, затем саму запись. false: записи не было.
	Delete(ctx context.Context, id int64) (bool, error)
}

type Repo struct{ db db.DBTX }

func NewRepo(d db.DBTX) *Repo { return &Repo{db: d} }

var _ Store = (*Repo)(nil)

func (r *Repo) InTx(ctx context.Context, fn func(Tx) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(&pgTx{
			tx:    tx,
			procs: procedures.NewRepo(tx),
			mats:  materials.NewRepo(tx),
			hist:  inventory.NewRepo(tx),
		})
	})
}

type pgTx struct {
	tx    pgx.Tx
	procs *procedures.Repo
	mats  *materials.Repo
	hist  *inventory.Repo
}

func (t *pgTx) Procedure(ctx context.Context, id int64) (*procedures.Procedure, error) {
	return t.procs.GetByID(ctx, id)
}

func (t *pgTx) BOM(ctx context.Context, procedureID int64) ([]procedures.Item, error) {
	return t.procs.Items(ctx, procedureID)
}

func (t *pgTx) InsertExecution(ctx context.Context, e *Execution) error {
	return t.tx.QueryRow(ctx, `
		INSERT INTO registro_procedimentos (procedimento_id, quantidade, observacoes, realizar_baixa)
		VALUES ($1,$2,$3,$4)
		RETURNING id, data_realizacao
	`, e.ProcedureID, e.Count, e.Notes, e.Deduct).Scan(&e.ID, &e.PerformedAt)
}

func (t *pgTx) Deduct(ctx context.Context, materialID int64, qty decimal.Decimal) (materials.StockChange, bool, error) {
	return t.mats.Deduct(ctx, materialID, qty)
}

func (t *pgTx) InsertDeduction(ctx context.Context, d *Deduction) error {
	return t.tx.QueryRow(ctx, `
		INSERT INTO baixa_estoque_procedimento (registro_id, material_id, quantidade_baixada, quantidade_anterior, quantidade_nova)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id, created_at
	`, d.ExecutionID, d.MaterialID, d.Qty, d.Before, d.After).Scan(&d.ID, &d.CreatedAt)
}

func (t *pgTx) AppendHistory(ctx context.Context, e *inventory.Entry) error {
	return t.hist.Append(ctx, e)
}

const executionSelect = `
	SELECT r.id, r.procedimento_id, r.quantidade, r.observacoes, r.realizar_baixa, r.data_realizacao,
	       p.id, p.nome, p.descricao, p.preco, p.ativo, p.created_at
	FROM registro_procedimentos r
	JOIN procedimentos p ON p.id = r.procedimento_id
`

func scanExecution(row pgx.Row) (*Execution, error) {
	var (
		e Execution
		p procedures.Procedure
	)
	if err := row.Scan(
		&e.ID, &e.ProcedureID, &e.Count, &e.Notes, &e.Deduct, &e.PerformedAt,
		&p.ID, &p.Name, &p.Description, &p.Price, &p.Active, &p.CreatedAt,
	); err != nil {
		return nil, err
	}
	e.Procedure = &p
	return &e, nil
}

func (r *Repo) Get(ctx context.Context, id int64) (*Execution, error) {
	e, err := scanExecution(r.db.QueryRow(ctx, executionSelect+` WHERE r.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, registro_id, material_id, quantidade_baixada, quantidade_anterior, quantidade_nova, created_at
		FROM baixa_estoque_procedimento
		WHERE registro_id = $1
		ORDER BY id
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var d Deduction
		if err := rows.Scan(&d.ID, &d.ExecutionID, &d.MaterialID, &d.Qty, &d.Before, &d.After, &d.CreatedAt); err != nil {
			return nil, err
		}
		e.Deductions = append(e.Deductions, d)
	}
	return e, rows.Err()
}

func (r *Repo) List(ctx context.Context, f ListFilter) ([]Execution, error) {
	q := executionSelect + ` WHERE TRUE`
	var args []any
	if f.ProcedureID > 0 {
		args = append(args, f.ProcedureID)
		q += fmt.Sprintf(` AND r.procedimento_id = $%d`, len(args))
	}
	if f.From != nil {
		args = append(args, *f.From)
		q += fmt.Sprintf(` AND r.data_realizacao >= $%d`, len(args))
	}
	if f.To != nil {
		args = append(args, *f.To)
		q += fmt.Sprintf(` AND r.data_realizacao <= $%d`, len(args))
	}
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	args = append(args, limit)
	q += fmt.Sprintf(` ORDER BY r.data_realizacao DESC, r.id DESC LIMIT $%d`, len(args))

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Execution
	for rows.Next() {
		e, err := scanExecution(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (r *Repo) Delete(ctx context.Context, id int64) (bool, error) {
	var found bool
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		// FK аудита без каскада, поэтому сначала строки baixa_estoque_procedimento
		if _, err := tx.Exec(ctx, `DELETE FROM baixa_estoque_procedimento WHERE registro_id = $1`, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM registro_procedimentos WHERE id = $1`, id)
		if err != nil {
			return err
		}
		found = tag.RowsAffected() > 0
		return nil
	})
	return found, err
}
