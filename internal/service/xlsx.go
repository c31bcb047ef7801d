package service

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"dukkan/backend/internal/domain"
	"dukkan/backend/internal/store"
)

// Spreadsheet column headers, matching the printed stock sheets the store
// already uses. English aliases are accepted on import.
const (
	colBarcode  = "الباركود"
	colName     = "اسم الصنف"
	colCategory = "التصنيف"
	colPrice    = "سعر البيع"
	colCost     = "التكلفة"
	colStock    = "الرصيد"
)

var headerAliases = map[string]string{
	colBarcode:  "barcode",
	colName:     "name",
	colCategory: "category",
	colPrice:    "price",
	colCost:     "cost",
	colStock:    "stock",
	"barcode":   "barcode",
	"name":      "name",
	"category":  "category",
	"price":     "price",
	"cost":      "cost",
	"stock":     "stock",
}

// ExportProductsXLSX renders the whole catalog as an xlsx workbook with one
// row per product. Monetary cells carry decimal amounts, not cents.
func (s *Service) ExportProductsXLSX(ctx context.Context) ([]byte, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	sheet := f.GetSheetName(f.GetActiveSheetIndex())

	header := []interface{}{colBarcode, colName, colCategory, colPrice, colCost, colStock}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, err
	}
	for i, p := range products {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []interface{}{
			p.Barcode,
			p.Name,
			p.Category,
			centsToAmount(p.PriceCents),
			centsToAmount(p.CostCents),
			p.Stock,
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ImportProductsXLSX merges a product sheet into the catalog. Rows are
// matched by product name: matches keep their stored id, everything else is
// created. The whole file is parsed and validated before any row is applied,
// so a malformed sheet changes nothing.
func (s *Service) ImportProductsXLSX(ctx context.Context, data []byte) (domain.ImportSummary, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.ImportSummary{}, err
	}
	if len(data) == 0 {
		return domain.ImportSummary{}, store.ErrInvalidRecord
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return domain.ImportSummary{}, fmt.Errorf("not a valid workbook: %w", store.ErrInvalidRecord)
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	rows, err := f.GetRows(sheet)
	if err != nil {
		return domain.ImportSummary{}, err
	}
	if len(rows) < 2 {
		return domain.ImportSummary{}, fmt.Errorf("sheet has no data rows: %w", store.ErrInvalidRecord)
	}

	columns := map[string]int{}
	for idx, raw := range rows[0] {
		if field, ok := headerAliases[strings.ToLower(strings.TrimSpace(raw))]; ok {
			columns[field] = idx
		}
	}
	if _, ok := columns["name"]; !ok {
		return domain.ImportSummary{}, fmt.Errorf("missing %q column: %w", colName, store.ErrInvalidRecord)
	}

	incoming := make([]domain.Product, 0, len(rows)-1)
	for rowNum, row := range rows[1:] {
		name := cellAt(row, columns, "name")
		if name == "" {
			continue
		}
		price, err := amountToCents(cellAt(row, columns, "price"))
		if err != nil {
			return domain.ImportSummary{}, fmt.Errorf("row %d: bad price: %w", rowNum+2, store.ErrInvalidRecord)
		}
		cost, err := amountToCents(cellAt(row, columns, "cost"))
		if err != nil {
			return domain.ImportSummary{}, fmt.Errorf("row %d: bad cost: %w", rowNum+2, store.ErrInvalidRecord)
		}
		stock := 0
		if raw := cellAt(row, columns, "stock"); raw != "" {
			stock, err = strconv.Atoi(raw)
			if err != nil || stock < 0 {
				return domain.ImportSummary{}, fmt.Errorf("row %d: bad stock: %w", rowNum+2, store.ErrInvalidRecord)
			}
		}

		incoming = append(incoming, domain.Product{
			ID:         s.ids.Next(),
			Name:       name,
			Category:   cellAt(row, columns, "category"),
			Barcode:    cellAt(row, columns, "barcode"),
			PriceCents: price,
			CostCents:  cost,
			Stock:      stock,
		})
	}
	if len(incoming) == 0 {
		return domain.ImportSummary{}, fmt.Errorf("sheet has no usable rows: %w", store.ErrInvalidRecord)
	}

	summary, err := s.repo.ImportProducts(ctx, incoming)
	if err != nil {
		return domain.ImportSummary{}, err
	}
	return summary, nil
}

func cellAt(row []string, columns map[string]int, field string) string {
	idx, ok := columns[field]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

var hundred = decimal.NewFromInt(100)

// amountToCents parses a monetary cell ("49.99") into integer cents exactly.
// An empty cell means zero.
func amountToCents(raw string) (int64, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, err
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("negative amount")
	}
	return d.Mul(hundred).Round(0).IntPart(), nil
}

func centsToAmount(cents int64) float64 {
	return decimal.NewFromInt(cents).Div(hundred).InexactFloat64()
}
