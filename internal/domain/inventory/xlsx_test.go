package inventory

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/Spok95/odonto/internal/apperr"
)

func buildSheet(t *testing.T, rows [][]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	for i, r := range rows {
		cellName, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		row := r
		if err := f.SetSheetRow(sheet, cellName, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		t.Fatalf("write xlsx: %v", err)
	}
	return buf
}

func TestParseStockSheet(t *testing.T) {
	buf := buildSheet(t, [][]any{
		{"material_id", "nome", "unidade", "quantidade"},
		{1, "Luva", "cx", "12"},
		{2, "Resina", "g", "3,5"},
		{"", "linha vazia", "", ""},
		{3, "Anestésico", "un", ""},
	})

	rows, err := ParseStockSheet(buf)
	if err != nil {
		t.Fatalf("ParseStockSheet: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	want := []struct {
		id  int64
		qty string
	}{{1, "12"}, {2, "3.5"}, {3, "0"}}
	for i, w := range want {
		if rows[i].MaterialID != w.id || !rows[i].Qty.Equal(d(w.qty)) {
			t.Errorf("row %d = %+v, want id=%d qty=%s", i, rows[i], w.id, w.qty)
		}
	}
	if rows[0].Line != 2 {
		t.Errorf("expected first data row on line 2, got %d", rows[0].Line)
	}
}

func TestParseStockSheet_Errors(t *testing.T) {
	tests := []struct {
		name string
		rows [][]any
	}{
		{name: "missing_columns", rows: [][]any{{"id", "qty_x"}, {1, 2}}},
		{name: "header_only", rows: [][]any{{"material_id", "quantidade"}}},
		{name: "bad_id", rows: [][]any{{"material_id", "quantidade"}, {"abc", 2}}},
		{name: "negative_qty", rows: [][]any{{"material_id", "quantidade"}, {1, "-2"}}},
		{name: "four_decimals", rows: [][]any{{"material_id", "quantidade"}, {1, "0,0005"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseStockSheet(buildSheet(t, tt.rows))
			if !apperr.Is(err, apperr.KindValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestParseStockSheet_NotXLSX(t *testing.T) {
	_, err := ParseStockSheet(bytes.NewBufferString("not a workbook"))
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

type fakeApplier struct {
	stock map[int64]decimal.Decimal
	fail  int64
	calls int
}

func (f *fakeApplier) Apply(_ context.Context, id int64, kind Kind, qty decimal.Decimal, reason string) (*Entry, error) {
	f.calls++
	if id == f.fail {
		return nil, apperr.NotFound("material", id)
	}
	before := f.stock[id]
	after := nextStock(kind, before, qty)
	f.stock[id] = after
	return &Entry{MaterialID: id, Kind: kind, Qty: qty, Before: before, After: after, Reason: reason}, nil
}

// nextStock повторяет то, что делают UPDATE в materials.Repo.
func nextStock(kind Kind, current, qty decimal.Decimal) decimal.Decimal {
	switch kind {
	case KindIn:
		return current.Add(qty)
	case KindOut:
		return decimal.Max(current.Sub(qty), decimal.Zero)
	default:
		return decimal.Max(qty, decimal.Zero)
	}
}

func TestImport_Totals(t *testing.T) {
	a := &fakeApplier{stock: map[int64]decimal.Decimal{1: d("5"), 2: d("10"), 3: d("4")}}
	rows := []ImportRow{
		{Line: 2, MaterialID: 1, Qty: d("8")},
		{Line: 3, MaterialID: 2, Qty: d("7.5")},
		{Line: 4, MaterialID: 3, Qty: d("4")},
	}

	res, err := Import(context.Background(), a, rows)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.Rows != 3 {
		t.Errorf("expected 3 rows, got %d", res.Rows)
	}
	if !res.In.Equal(d("3")) {
		t.Errorf("expected entrada 3, got %s", res.In)
	}
	if !res.Out.Equal(d("2.5")) {
		t.Errorf("expected saida 2.5, got %s", res.Out)
	}
	if !a.stock[2].Equal(d("7.5")) {
		t.Errorf("expected material 2 at 7.5, got %s", a.stock[2])
	}
}

func TestImport_StopsOnFirstError(t *testing.T) {
	a := &fakeApplier{stock: map[int64]decimal.Decimal{1: d("1")}, fail: 2}
	rows := []ImportRow{
		{Line: 2, MaterialID: 1, Qty: d("3")},
		{Line: 3, MaterialID: 2, Qty: d("3")},
		{Line: 4, MaterialID: 1, Qty: d("9")},
	}

	res, err := Import(context.Background(), a, rows)
	if err == nil {
		t.Fatal("expected error")
	}
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("expected not_found kind to survive wrapping, got %v", err)
	}
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		t.Error("expected apperr.Error in chain")
	}
	if res.Rows != 1 || a.calls != 2 {
		t.Errorf("expected 1 applied row and 2 calls, got rows=%d calls=%d", res.Rows, a.calls)
	}
	if !a.stock[1].Equal(d("3")) {
		t.Errorf("expected already applied row to stay, got %s", a.stock[1])
	}
}
