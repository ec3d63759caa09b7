// Package report turns stored attendance into export sheets and dashboard
// summaries.
package report

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/entoto-dev/site-attendance/backend/internal/domain"
	"github.com/entoto-dev/site-attendance/backend/internal/utils"
	"github.com/google/uuid"
)

const (
	CellPresent = "Present"
	CellAbsent  = "Absent"
)

const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
)

type Grid struct {
	Dates []string
	Rows  []GridRow
}

type GridRow struct {
	Member *domain.Member
	Cells  []string
}

// BuildGrid lays out one row per member and one column per day. A cell reads
// Present or Absent when attendance was recorded, Absent when the member was
// rostered but never marked, and stays blank otherwise.
func BuildGrid(data *domain.ExportData) (*Grid, error) {
	dates, err := utils.DateRange(data.StartDate, data.EndDate)
	if err != nil {
		return nil, err
	}

	type key struct {
		member uuid.UUID
		date   string
	}

	rostered := make(map[key]bool, len(data.Assignments))
	for _, a := range data.Assignments {
		if a.Category == data.Category {
			rostered[key{a.MemberID, a.Date}] = true
		}
	}

	present := make(map[key]bool, len(data.Entries))
	for _, e := range data.Entries {
		if e.Category == data.Category {
			present[key{e.MemberID, e.Date}] = e.Present
		}
	}

	members := make([]*domain.Member, 0, len(data.Members))
	for _, m := range data.Members {
		if m.Category == data.Category {
			members = append(members, m)
		}
	}
	sort.SliceStable(members, func(i, j int) bool {
		return members[i].Name < members[j].Name
	})

	grid := &Grid{Dates: dates, Rows: make([]GridRow, 0, len(members))}
	for _, m := range members {
		row := GridRow{Member: m, Cells: make([]string, len(dates))}
		for i, date := range dates {
			k := key{m.ID, date}
			if p, ok := present[k]; ok {
				if p {
					row.Cells[i] = CellPresent
				} else {
					row.Cells[i] = CellAbsent
				}
				continue
			}
			if rostered[k] {
				row.Cells[i] = CellAbsent
			}
		}
		grid.Rows = append(grid.Rows, row)
	}

	return grid, nil
}

var whitespace = regexp.MustCompile(`\s+`)

// Filename names an export as <site>_<category>_attendance_<start>_to_<end>.<ext>.
func Filename(data *domain.ExportData, format string) string {
	site := whitespace.ReplaceAllString(strings.TrimSpace(data.Site.Name), "_")
	return fmt.Sprintf("%s_%s_attendance_%s_to_%s.%s", site, data.Category, data.StartDate, data.EndDate, format)
}

func ContentType(format string) string {
	if format == FormatCSV {
		return "text/csv"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}
