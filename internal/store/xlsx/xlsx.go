// Package xlsx stores the customer table as a single-sheet Excel workbook.
package xlsx

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"paypromise/internal/ledger"
)

const sheetName = "Cartera"

// Header is the column layout of the workbook.
var Header = []string{
	"ID",
	"Nombre",
	"Deuda_Total",
	"Pagos_Realizados",
	"Monto_Prometido",
	"Fecha_Promesa",
	"Calificacion_Riesgo",
}

// Store reads and rewrites a workbook at path.
type Store struct {
	path string
}

func New(path string) *Store {
	return &Store{path: path}
}

// Load reads every data row of the first sheet.
func (s *Store) Load(ctx context.Context) ([]ledger.Customer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(s.path); errors.Is(err, fs.ErrNotExist) {
		return nil, ledger.ErrUninitialized
	}

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0), excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("workbook %s has no header row", s.path)
	}

	out := make([]ledger.Customer, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		c, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		out = append(out, c)
	}
	return out, nil
}

// Save writes rows to a temporary workbook next to path and renames it into
// place, so readers never observe a half-written file.
func (s *Store) Save(ctx context.Context, rows []ledger.Customer) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}
	if err := writeRow(f, 1, headerRow()); err != nil {
		return err
	}
	for i, c := range rows {
		if err := writeRow(f, i+2, customerRow(c)); err != nil {
			return err
		}
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".cartera-*.xlsx")
	if err != nil {
		return fmt.Errorf("create temp workbook: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := f.WriteTo(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("write workbook: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close workbook: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace workbook: %w", err)
	}
	return nil
}

func headerRow() []interface{} {
	row := make([]interface{}, len(Header))
	for i, h := range Header {
		row[i] = h
	}
	return row
}

func customerRow(c ledger.Customer) []interface{} {
	return []interface{}{
		c.ID,
		c.Name,
		amountCell(c.TotalDebt),
		amountCell(c.PaymentsMade),
		amountCell(c.PromisedAmount),
		c.PromiseDate,
		string(c.Risk),
	}
}

// amountCell keeps amounts numeric while float64 holds them exactly and
// falls back to text otherwise, so a reload returns the same decimal.
func amountCell(d decimal.Decimal) interface{} {
	f := d.InexactFloat64()
	if decimal.NewFromFloat(f).Equal(d) {
		return f
	}
	return d.String()
}

func writeRow(f *excelize.File, n int, row []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
		return fmt.Errorf("write row %d: %w", n, err)
	}
	return nil
}

func parseRow(row []string) (ledger.Customer, error) {
	// excelize trims trailing empty cells
	cell := func(i int) string {
		if i < len(row) {
			return row[i]
		}
		return ""
	}

	id, err := strconv.ParseFloat(cell(0), 64)
	if err != nil {
		return ledger.Customer{}, fmt.Errorf("ID %q: %w", cell(0), err)
	}
	debt, err := parseAmount(cell(2))
	if err != nil {
		return ledger.Customer{}, fmt.Errorf("Deuda_Total: %w", err)
	}
	paid, err := parseAmount(cell(3))
	if err != nil {
		return ledger.Customer{}, fmt.Errorf("Pagos_Realizados: %w", err)
	}
	promised, err := parseAmount(cell(4))
	if err != nil {
		return ledger.Customer{}, fmt.Errorf("Monto_Prometido: %w", err)
	}

	risk := ledger.Risk(cell(6))
	if risk == "" {
		risk = ledger.RiskLow
	}

	return ledger.Customer{
		ID:             int64(id),
		Name:           cell(1),
		TotalDebt:      debt,
		PaymentsMade:   paid,
		PromisedAmount: promised,
		PromiseDate:    cell(5),
		Risk:           risk,
	}, nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
