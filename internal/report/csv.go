package report

import (
	"encoding/csv"
	"io"

	"github.com/entoto-dev/site-attendance/backend/internal/domain"
)

// WriteCSV writes the same grid as WriteXLSX as comma separated values.
func WriteCSV(w io.Writer, data *domain.ExportData) error {
	grid, err := BuildGrid(data)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)

	header := append([]string{"Name"}, grid.Dates...)
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, row := range grid.Rows {
		record := append([]string{row.Member.Name}, row.Cells...)
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// Write dispatches on format, defaulting to xlsx.
func Write(w io.Writer, data *domain.ExportData, format string) error {
	if format == FormatCSV {
		return WriteCSV(w, data)
	}
	return WriteXLSX(w, data)
}
