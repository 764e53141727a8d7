package export

import (
	"strings"
	"testing"
	"time"

	"github.com/campusbook/classwork/internal/apperr"
	"github.com/campusbook/classwork/internal/models"
)

func intptr(v int) *int              { return &v }
func strptr(s string) *string        { return &s }
func timeptr(t time.Time) *time.Time { return &t }

func TestGradebookSheet(t *testing.T) {
	submitted := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	a := models.Assignment{ID: 7, Title: "Lab report", MaxPoints: 100}
	subs := []models.Submission{
		{
			StudentID: 101, Status: models.SubmissionReturned,
			SubmittedAt: timeptr(submitted), IsLate: true,
			Grade: intptr(85), MaxPoints: intptr(100), Feedback: strptr("ok"),
		},
		{StudentID: 102, Status: models.SubmissionDraft},
	}

	sheet := GradebookSheet(a, subs)
	if sheet.Title != "7 Lab report" {
		t.Fatalf("title = %q", sheet.Title)
	}
	if len(sheet.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(sheet.Rows))
	}

	graded := sheet.Rows[0]
	want := []string{"101", "returned", "2026-03-10 14:30", "late", "85", "100", "85.0%", "ok"}
	for i, w := range want {
		if graded[i] != w {
			t.Fatalf("col %d = %q, want %q", i, graded[i], w)
		}
	}
	draft := sheet.Rows[1]
	if draft[0] != "102" || draft[1] != "draft" || draft[4] != "" {
		t.Fatalf("draft row = %v", draft)
	}
}

func TestSheetTitleSanitized(t *testing.T) {
	a := models.Assignment{ID: 12, Title: "Midterm: part 1/2 [retake] with a very long tail"}
	got := sheetTitle(a)
	if len(got) > 31 {
		t.Fatalf("title %q longer than 31", got)
	}
	if strings.ContainsAny(got, ":\\/?*[]") {
		t.Fatalf("title %q keeps forbidden chars", got)
	}
}

func TestBuildWorkbook(t *testing.T) {
	sheets := []SheetSpec{
		{Title: "1 Homework", Header: gradebookHeader, Rows: [][]string{
			{"101", "submitted", "", "", "", "", "", ""},
		}},
		{Title: "2 Quiz", Header: gradebookHeader, Rows: nil},
	}
	f, err := BuildWorkbook(sheets)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	names := f.GetSheetList()
	if len(names) != 2 || names[0] != "1 Homework" || names[1] != "2 Quiz" {
		t.Fatalf("sheets = %v", names)
	}
	got, err := f.GetCellValue("1 Homework", "A1")
	if err != nil {
		t.Fatal(err)
	}
	if got != "Student" {
		t.Fatalf("A1 = %q, want Student", got)
	}
	got, err = f.GetCellValue("1 Homework", "A2")
	if err != nil {
		t.Fatal(err)
	}
	if got != "101" {
		t.Fatalf("A2 = %q, want 101", got)
	}
}

func TestBuildWorkbookEmpty(t *testing.T) {
	if _, err := BuildWorkbook(nil); !apperr.Is(err, apperr.EmptyInput) {
		t.Fatalf("err = %v, want EmptyInput", err)
	}
}

func TestColName(t *testing.T) {
	for n, want := range map[int]string{1: "A", 2: "B", 26: "Z", 27: "AA", 52: "AZ", 53: "BA"} {
		if got := colName(n); got != want {
			t.Errorf("colName(%d) = %q, want %q", n, got, want)
		}
	}
}
