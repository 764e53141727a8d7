// Package export renders classroom data into xlsx workbooks.
package export

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/campusbook/classwork/internal/apperr"
	"github.com/campusbook/classwork/internal/db"
	"github.com/campusbook/classwork/internal/models"
)

type SheetSpec struct {
	Title  string
	Header []string
	Rows   [][]string
}

var gradebookHeader = []string{"Student", "Status", "Submitted", "Late", "Grade", "Max", "Percent", "Feedback"}

// GradebookSheet flattens one assignment's submissions into rows.
func GradebookSheet(a models.Assignment, subs []models.Submission) SheetSpec {
	rows := make([][]string, 0, len(subs))
	for _, s := range subs {
		row := []string{
			strconv.FormatInt(s.StudentID, 10),
			string(s.Status),
			"", "", "", "", "", "",
		}
		if s.SubmittedAt != nil {
			row[2] = s.SubmittedAt.Format("2006-01-02 15:04")
		}
		if s.IsLate {
			row[3] = "late"
		}
		if s.Graded() {
			row[4] = strconv.Itoa(*s.Grade)
			row[5] = strconv.Itoa(*s.MaxPoints)
			row[6] = fmt.Sprintf("%.1f%%", s.Percent())
		}
		if s.Feedback != nil {
			row[7] = *s.Feedback
		}
		rows = append(rows, row)
	}
	return SheetSpec{Title: sheetTitle(a), Header: gradebookHeader, Rows: rows}
}

// Excel sheet names cap at 31 chars and reject a handful of characters;
// keep it blunt: id prefix plus a trimmed title.
func sheetTitle(a models.Assignment) string {
	title := fmt.Sprintf("%d %s", a.ID, a.Title)
	cleaned := make([]rune, 0, len(title))
	for _, r := range title {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			r = '_'
		}
		cleaned = append(cleaned, r)
	}
	if len(cleaned) > 31 {
		cleaned = cleaned[:31]
	}
	return string(cleaned)
}

// BuildWorkbook assembles the sheets into a styled workbook: bold header,
// autofilter on row 1, width heuristics.
func BuildWorkbook(sheets []SheetSpec) (*excelize.File, error) {
	if len(sheets) == 0 {
		return nil, apperr.E(apperr.EmptyInput, "nothing to export")
	}
	f := excelize.NewFile()
	bold, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})

	for i, s := range sheets {
		name := s.Title
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return nil, fmt.Errorf("rename sheet: %w", err)
			}
		} else {
			if _, err := f.NewSheet(name); err != nil {
				return nil, fmt.Errorf("new sheet: %w", err)
			}
		}
		for col, h := range s.Header {
			cell := colName(col+1) + "1"
			if err := f.SetCellStr(name, cell, h); err != nil {
				return nil, fmt.Errorf("set cell %s: %w", cell, err)
			}
		}
		end := colName(len(s.Header)) + "1"
		_ = f.SetCellStyle(name, "A1", end, bold)
		_ = f.AutoFilter(name, "A1:"+end, nil)

		for r, row := range s.Rows {
			for c, val := range row {
				cell := fmt.Sprintf("%s%d", colName(c+1), r+2)
				if err := f.SetCellStr(name, cell, val); err != nil {
					return nil, fmt.Errorf("set cell %s: %w", cell, err)
				}
			}
		}
		for c := 1; c <= len(s.Header); c++ {
			maxim := len(s.Header[c-1])
			for r := 0; r < minim(50, len(s.Rows)); r++ {
				if l := len(s.Rows[r][c-1]); l > maxim {
					maxim = l
				}
			}
			w := float64(maxim) * 0.9
			if w < 10 {
				w = 10
			}
			if w > 40 {
				w = 40
			}
			_ = f.SetColWidth(name, colName(c), colName(c), w)
		}
	}
	return f, nil
}

// ClassroomGradebook builds one sheet per assignment in the classroom.
func ClassroomGradebook(ctx context.Context, database *sql.DB, classroomID int64) (*excelize.File, error) {
	assignments, err := db.ListAssignmentsByClassroom(ctx, database, classroomID)
	if err != nil {
		return nil, err
	}
	if len(assignments) == 0 {
		return nil, apperr.E(apperr.EmptyInput, "classroom has no assignments to export")
	}
	sheets := make([]SheetSpec, 0, len(assignments))
	for _, a := range assignments {
		subs, err := db.ListSubmissionsByAssignment(ctx, database, a.ID)
		if err != nil {
			return nil, err
		}
		sheets = append(sheets, GradebookSheet(a, subs))
	}
	return BuildWorkbook(sheets)
}

func GradebookFilename(classroomName string) string {
	return fmt.Sprintf("gradebook_%s_%d.xlsx", classroomName, time.Now().Unix())
}

func colName(n int) string {
	// 1 -> A; 27 -> AA
	s := ""
	for n > 0 {
		n--
		s = string(rune('A'+(n%26))) + s
		n /= 26
	}
	return s
}

func minim(a, b int) int {
	if a < b {
		return a
	}
	return b
}
