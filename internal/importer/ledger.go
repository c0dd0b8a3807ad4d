package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// RequiredColumns are the header names the gateway needs in an uploaded
// ledger, compared case-insensitively after trimming.
var RequiredColumns = []string{"date", "description", "amount", "category"}

var (
	// ErrMissingColumns is returned when a ledger header lacks a required column.
	ErrMissingColumns = errors.New("ledger is missing required columns")
	// ErrNotCSV is returned for a file the gateway would refuse by name.
	ErrNotCSV = errors.New("please upload a CSV file")
)

// CheckName reports ErrNotCSV unless name ends in ".csv", in any case.
func CheckName(name string) error {
	if !IsCSV(name) {
		return fmt.Errorf("%w: %s", ErrNotCSV, name)
	}
	return nil
}

// IsCSV reports whether name has a ".csv" extension.
func IsCSV(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".csv")
}

// Ledger summarizes a CSV file before it is uploaded.
type Ledger struct {
	Columns    []string
	Rows       int
	BadAmounts []int // 1-based line numbers whose amount does not parse
}

// Inspect reads a ledger CSV and checks its header. Rows are counted but not
// rejected; amounts that do not parse are reported in BadAmounts because the
// gateway drops those rows on import.
func Inspect(r io.Reader) (Ledger, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return Ledger{}, fmt.Errorf("%w: file is empty", ErrMissingColumns)
	}
	if err != nil {
		return Ledger{}, fmt.Errorf("reading ledger header: %w", err)
	}

	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	}
	var missing []string
	for _, want := range RequiredColumns {
		if !slices.Contains(cols, want) {
			missing = append(missing, want)
		}
	}
	if len(missing) > 0 {
		return Ledger{}, fmt.Errorf("%w: %s (found %s)", ErrMissingColumns,
			strings.Join(missing, ", "), strings.Join(cols, ", "))
	}

	amountCol := slices.Index(cols, "amount")
	ledger := Ledger{Columns: cols}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Ledger{}, fmt.Errorf("reading ledger: %w", err)
		}
		ledger.Rows++
		if amountCol >= len(rec) || !validAmount(rec[amountCol]) {
			line, _ := cr.FieldPos(0)
			ledger.BadAmounts = append(ledger.BadAmounts, line)
		}
	}
	return ledger, nil
}

// InspectFile runs Inspect on the file at path.
func InspectFile(path string) (Ledger, error) {
	f, err := os.Open(path)
	if err != nil {
		return Ledger{}, fmt.Errorf("opening ledger: %w", err)
	}
	defer f.Close()
	return Inspect(f)
}

func validAmount(s string) bool {
	s = strings.NewReplacer(",", "", " ", "").Replace(strings.TrimSpace(s))
	if s == "" {
		return false
	}
	_, err := decimal.NewFromString(s)
	return err == nil
}
