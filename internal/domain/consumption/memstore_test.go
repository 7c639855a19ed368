package consumption

import (
	"context"
	"errors"
	"maps"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Spok95/odonto/internal/domain/inventory"
	"github.com/Spok95/odonto/internal/domain/materials"
	"github.com/Spok95/odonto/internal/domain/procedures"
)

// memStore хранилище в памяти с семантикой транзакции: InTx работает на копии
// и подменяет состояние только при успехе.
type memStore struct {
	state memState

	failDeductOn   int64 // material id
	failHistoryOn  int64 // material id
	deductAttempts int
}

type memState struct {
	procs      map[int64]procedures.Procedure
	bom        map[int64][]procedures.Item
	stock      map[int64]decimal.Decimal
	execs      map[int64]Execution
	deductions []Deduction
	history    []inventory.Entry
	nextID     int64
}

func newMemStore() *memStore {
	return &memStore{state: memState{
		procs: map[int64]procedures.Procedure{},
		bom:   map[int64][]procedures.Item{},
		stock: map[int64]decimal.Decimal{},
		execs: map[int64]Execution{},
	}}
}

func (s memState) clone() memState {
	c := s
	c.procs = maps.Clone(s.procs)
	c.bom = maps.Clone(s.bom)
	c.stock = maps.Clone(s.stock)
	c.execs = maps.Clone(s.execs)
	c.deductions = slices.Clone(s.deductions)
	c.history = slices.Clone(s.history)
	return c
}

func (m *memStore) addProcedure(id int64, name string, bom ...procedures.Item) {
	m.state.procs[id] = procedures.Procedure{ID: id, Name: name, Active: true}
	for i := range bom {
		bom[i].ProcedureID = id
	}
	m.state.bom[id] = bom
}

func (m *memStore) InTx(_ context.Context, fn func(Tx) error) error {
	tx := &memTx{store: m, st: m.state.clone()}
	if err := fn(tx); err != nil {
		return err
	}
	m.state = tx.st
	return nil
}

func (m *memStore) Get(_ context.Context, id int64) (*Execution, error) {
	e, ok := m.state.execs[id]
	if !ok {
		return nil, nil
	}
	for _, d := range m.state.deductions {
		if d.ExecutionID == id {
			e.Deductions = append(e.Deductions, d)
		}
	}
	return &e, nil
}

func (m *memStore) List(_ context.Context, f ListFilter) ([]Execution, error) {
	var out []Execution
	for _, e := range m.state.execs {
		if f.ProcedureID > 0 && e.ProcedureID != f.ProcedureID {
			continue
		}
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b Execution) int { return int(b.ID - a.ID) })
	return out, nil
}

func (m *memStore) Delete(_ context.Context, id int64) (bool, error) {
	if _, ok := m.state.execs[id]; !ok {
		return false, nil
	}
	m.state.deductions = slices.DeleteFunc(m.state.deductions, func(d Deduction) bool { return d.ExecutionID == id })
	delete(m.state.execs, id)
	return true, nil
}

func (m *memStore) deductionsFor(id int64) []Deduction {
	var out []Deduction
	for _, d := range m.state.deductions {
		if d.ExecutionID == id {
			out = append(out, d)
		}
	}
	return out
}

type memTx struct {
	store *memStore
	st    memState
}

func (t *memTx) id() int64 {
	t.st.nextID++
	return t.st.nextID
}

func (t *memTx) Procedure(_ context.Context, id int64) (*procedures.Procedure, error) {
	p, ok := t.st.procs[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (t *memTx) BOM(_ context.Context, id int64) ([]procedures.Item, error) {
	return t.st.bom[id], nil
}

func (t *memTx) InsertExecution(_ context.Context, e *Execution) error {
	e.ID = t.id()
	e.PerformedAt = time.Now()
	t.st.execs[e.ID] = *e
	return nil
}

func (t *memTx) Deduct(_ context.Context, materialID int64, qty decimal.Decimal) (materials.StockChange, bool, error) {
	t.store.deductAttempts++
	if materialID == t.store.failDeductOn {
		return materials.StockChange{}, false, errors.New("could not serialize access")
	}
	before, ok := t.st.stock[materialID]
	if !ok {
		return materials.StockChange{}, false, nil
	}
	after := decimal.Max(before.Sub(qty), decimal.Zero)
	t.st.stock[materialID] = after
	return materials.StockChange{Before: before, After: after}, true, nil
}

func (t *memTx) InsertDeduction(_ context.Context, d *Deduction) error {
	d.ID = t.id()
	t.st.deductions = append(t.st.deductions, *d)
	return nil
}

func (t *memTx) AppendHistory(_ context.Context, e *inventory.Entry) error {
	if e.MaterialID == t.store.failHistoryOn {
		return errors.New("historico_estoque: permission denied")
	}
	e.ID = t.id()
	t.st.history = append(t.st.history, *e)
	return nil
}
