package reporting

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
)

// WriteCSV writes one header line and one line per sandwich row.
func WriteCSV(w io.Writer, rows []SandwichRow) error {
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("marshal sandwich csv: %w", err)
	}
	return nil
}

// ReadCSV parses rows previously written by WriteCSV.
func ReadCSV(r io.Reader) ([]SandwichRow, error) {
	var rows []SandwichRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("unmarshal sandwich csv: %w", err)
	}
	return rows, nil
}
