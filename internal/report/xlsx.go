package report

import (
	"io"
	"strings"

	"github.com/entoto-dev/site-attendance/backend/internal/domain"
	"github.com/xuri/excelize/v2"
)

func sheetName(c domain.Category) string {
	return strings.ToUpper(string(c)) + " Attendance"
}

// WriteXLSX writes the export workbook with one sheet for the category.
func WriteXLSX(w io.Writer, data *domain.ExportData) error {
	grid, err := BuildGrid(data)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := sheetName(data.Category)
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return err
	}

	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
	}
	center := &excelize.Alignment{Horizontal: "center", Vertical: "center"}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Border:    border,
		Alignment: center,
	})
	if err != nil {
		return err
	}
	plainStyle, err := f.NewStyle(&excelize.Style{Border: border, Alignment: center})
	if err != nil {
		return err
	}
	presentStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Color: "006100"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"C6EFCE"}, Pattern: 1},
		Border:    border,
		Alignment: center,
	})
	if err != nil {
		return err
	}
	absentStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Color: "9C0006"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"FFC7CE"}, Pattern: 1},
		Border:    border,
		Alignment: center,
	})
	if err != nil {
		return err
	}

	header := make([]any, 0, len(grid.Dates)+1)
	header = append(header, "Name")
	for _, d := range grid.Dates {
		header = append(header, d)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return err
	}

	for i, row := range grid.Rows {
		r := i + 2
		nameCell, _ := excelize.CoordinatesToCellName(1, r)
		if err := f.SetCellStr(sheet, nameCell, row.Member.Name); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, nameCell, nameCell, plainStyle); err != nil {
			return err
		}

		for j, value := range row.Cells {
			cell, _ := excelize.CoordinatesToCellName(j+2, r)
			if err := f.SetCellStr(sheet, cell, value); err != nil {
				return err
			}

			style := plainStyle
			switch value {
			case CellPresent:
				style = presentStyle
			case CellAbsent:
				style = absentStyle
			}
			if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
				return err
			}
		}
	}

	if err := f.SetColWidth(sheet, "A", "A", 25); err != nil {
		return err
	}
	if len(grid.Dates) > 0 {
		lastCol, _ := excelize.ColumnNumberToName(len(grid.Dates) + 1)
		if err := f.SetColWidth(sheet, "B", lastCol, 12); err != nil {
			return err
		}
	}
	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		XSplit:      1,
		YSplit:      1,
		TopLeftCell: "B2",
		ActivePane:  "bottomRight",
	}); err != nil {
		return err
	}

	return f.Write(w)
}
