package inventory

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/Spok95/odonto/internal/apperr"
	"github.com/Spok95/odonto/internal/domain/materials"
)

const importReason = "inventario_excel"

type ImportRow struct {
	Line       int
	MaterialID int64
	Qty        decimal.Decimal
}

type ImportResult struct {
	Rows int             `json:"rows"`
	In   decimal.Decimal `json:"entrada"`
	Out  decimal.Decimal `json:"saida"`
}

// ParseStockSheet читает активный лист: нужны колонки material_id и quantidade
// (порядок любой, заголовок в первой строке). Пустое количество = 0.
func ParseStockSheet(r io.Reader) ([]ImportRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperr.Validation("cannot read xlsx: %v", err)
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, apperr.Validation("cannot read sheet %q: %v", sheet, err)
	}
	if len(rows) < 2 {
		return nil, apperr.Validation("file has no material rows")
	}

	idCol, qtyCol := -1, -1
	for i, h := range rows[0] {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "material_id":
			idCol = i
		case "quantidade", "qty":
			qtyCol = i
		}
	}
	if idCol < 0 || qtyCol < 0 {
		return nil, apperr.Validation("expected columns material_id and quantidade")
	}

	var out []ImportRow
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		line := i + 1

		idStr := cell(row, idCol)
		if idStr == "" {
			continue
		}
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil || id <= 0 {
			return nil, apperr.Validation("row %d: invalid material_id %q", line, idStr)
		}

		qty := decimal.Zero
		if qtyStr := cell(row, qtyCol); qtyStr != "" {
			qty, err = decimal.NewFromString(strings.ReplaceAll(qtyStr, ",", "."))
			if err != nil || qty.IsNegative() {
				return nil, apperr.Validation("row %d: invalid quantidade %q", line, qtyStr)
			}
			if !materials.ValidQty(qty) {
				return nil, apperr.Validation("row %d: quantidade %q must be below 1e11 with at most 3 decimals", line, qtyStr)
			}
		}
		out = append(out, ImportRow{Line: line, MaterialID: id, Qty: qty})
	}
	return out, nil
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

type Applier interface {
	Apply(ctx context.Context, materialID int64, kind Kind, qty decimal.Decimal, reason string) (*Entry, error)
}

// Import подгоняет остатки под файл: каждая строка становится ajuste на абсолютное значение.
// Останавливается на первой ошибке; уже применённые строки остаются.
func Import(ctx context.Context, a Applier, rows []ImportRow) (ImportResult, error) {
	res := ImportResult{In: decimal.Zero, Out: decimal.Zero}
	for _, row := range rows {
		e, err := a.Apply(ctx, row.MaterialID, KindAdjust, row.Qty, importReason)
		if err != nil {
			return res, fmt.Errorf("row %d (material %d): %w", row.Line, row.MaterialID, err)
		}
		delta := e.After.Sub(e.Before)
		if delta.IsPositive() {
			res.In = res.In.Add(delta)
		} else {
			res.Out = res.Out.Add(delta.Neg())
		}
		res.Rows++
	}
	return res, nil
}
