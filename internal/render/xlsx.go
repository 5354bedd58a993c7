package render

import (
	"fmt"
	"io"
	"time"

	"seotrack/internal/model"
	"seotrack/internal/report"

	"github.com/xuri/excelize/v2"
)

// Sheet names of an exported workbook.
const (
	SheetOverview     = "Overview"
	SheetAchievements = "Achievements"
	SheetSummaries    = "Monthly Summaries"
)

var achievementHeader = []any{"Date", "Title", "Category", "Completed", "Live on website", "Link", "Description"}

// Workbook is the content of an exported report.
type Workbook struct {
	ProjectName  string
	ProjectCode  string
	ClientName   string
	FilterLabel  string
	Stats        report.Stats
	Achievements []model.Achievement
	Summaries    []model.MonthlySummary
	GeneratedAt  time.Time
}

// WriteXLSX writes wb as an .xlsx file to w.
func WriteXLSX(w io.Writer, wb Workbook) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetOverview); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	overview := [][]any{
		{"Project", wb.ProjectName},
		{"Project code", wb.ProjectCode},
		{"Client", wb.ClientName},
		{"Filter", wb.FilterLabel},
		{"Generated at", wb.GeneratedAt.UTC().Format(time.RFC3339)},
		{},
		{"Total", wb.Stats.Total},
		{"Completed", wb.Stats.Completed},
		{"Live on website", wb.Stats.Applied},
		{"Pending", wb.Stats.Pending},
		{"Completion rate (%)", wb.Stats.CompletionRate},
		{"Live rate (%)", wb.Stats.AppliedRate},
	}
	if err := writeRows(f, SheetOverview, overview); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetOverview, "A1", fmt.Sprintf("A%d", len(overview)), bold); err != nil {
		return fmt.Errorf("style overview: %w", err)
	}
	_ = f.SetColWidth(SheetOverview, "A", "A", 22)
	_ = f.SetColWidth(SheetOverview, "B", "B", 40)

	if _, err := f.NewSheet(SheetAchievements); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	rows := make([][]any, 0, len(wb.Achievements)+1)
	rows = append(rows, achievementHeader)
	for _, a := range wb.Achievements {
		rows = append(rows, []any{
			report.FormatDate(a.Date),
			a.Title,
			a.Category,
			yesNo(a.Completed),
			yesNo(a.Applied),
			a.Link,
			a.Description,
		})
	}
	if err := writeRows(f, SheetAchievements, rows); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetAchievements, "A1", "G1", bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}
	_ = f.SetColWidth(SheetAchievements, "A", "A", 12)
	_ = f.SetColWidth(SheetAchievements, "B", "B", 40)
	_ = f.SetColWidth(SheetAchievements, "C", "C", 22)
	_ = f.SetColWidth(SheetAchievements, "G", "G", 60)

	if len(wb.Summaries) > 0 {
		if _, err := f.NewSheet(SheetSummaries); err != nil {
			return fmt.Errorf("create sheet: %w", err)
		}
		rows := [][]any{{"Year", "Month", "Summary"}}
		for _, s := range wb.Summaries {
			rows = append(rows, []any{s.Year, report.MonthName(s.Month), s.Summary})
		}
		if err := writeRows(f, SheetSummaries, rows); err != nil {
			return err
		}
		if err := f.SetCellStyle(SheetSummaries, "A1", "C1", bold); err != nil {
			return fmt.Errorf("style header: %w", err)
		}
		_ = f.SetColWidth(SheetSummaries, "C", "C", 80)
	}

	f.SetActiveSheet(0)
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
