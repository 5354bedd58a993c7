package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"seotrack/internal/model"
	"seotrack/internal/report"
	"seotrack/internal/service"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	keyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	goodStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

func renderReport(w io.Writer, r *service.Report) {
	fmt.Fprintln(w, projectHeader(r.Project))
	fmt.Fprintln(w, subtleStyle.Render("Showing: "+service.FilterLabel(r.Filter)))
	fmt.Fprintln(w)
	fmt.Fprintln(w, statsLine(r.Stats))
	if !r.Filter.IsZero() {
		fmt.Fprintln(w, subtleStyle.Render("All time: "+statsLine(r.Overall)))
	}
	fmt.Fprintln(w)

	if len(r.Achievements) == 0 {
		fmt.Fprintln(w, subtleStyle.Render("No achievements match this filter."))
		return
	}
	fmt.Fprintln(w, achievementTable(r.Achievements))
	fmt.Fprintln(w, subtleStyle.Render(fmt.Sprintf("Page %d of %d (%d achievements)",
		r.Page.CurrentPage, r.Page.TotalPages, r.Page.TotalItems)))
	if len(r.AvailableYears) > 0 {
		years := make([]string, len(r.AvailableYears))
		for i, y := range r.AvailableYears {
			years[i] = strconv.Itoa(y)
		}
		fmt.Fprintln(w, subtleStyle.Render("Years: "+strings.Join(years, ", ")))
	}
}

func renderMonth(w io.Writer, m *service.MonthReport) {
	fmt.Fprintln(w, projectHeader(m.Project))
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%s %d", m.MonthName, m.Year)))
	fmt.Fprintln(w)
	fmt.Fprintln(w, statsLine(m.Stats))
	if m.Summary != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, m.Summary)
	}
	fmt.Fprintln(w)
	if len(m.Achievements) == 0 {
		fmt.Fprintln(w, subtleStyle.Render("No achievements this month."))
		return
	}
	fmt.Fprintln(w, achievementTable(m.Achievements))
}

func projectHeader(p model.PublicProject) string {
	header := titleStyle.Render(p.Name)
	if p.ClientName != "" {
		header += subtleStyle.Render(" for " + p.ClientName)
	}
	return header
}

func statsLine(s report.Stats) string {
	parts := []string{
		keyStyle.Render("Total ") + strconv.Itoa(s.Total),
		keyStyle.Render("Completed ") + fmt.Sprintf("%d (%d%%)", s.Completed, s.CompletionRate),
		keyStyle.Render("Live ") + fmt.Sprintf("%d (%d%%)", s.Applied, s.AppliedRate),
		keyStyle.Render("Pending ") + fmt.Sprintf("%d (%d%%)", s.Pending, s.PendingRate),
	}
	return strings.Join(parts, "  ")
}

func achievementTable(list []model.PublicAchievement) string {
	rows := make([][]string, 0, len(list))
	for _, a := range list {
		rows = append(rows, []string{
			a.Date,
			a.Title,
			a.Category,
			mark(a.IsCompleted),
			mark(a.IsAppliedToWebsite),
		})
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(subtleStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if row >= 0 && row < len(rows) && (col == 3 || col == 4) && rows[row][col] == "yes" {
				return cellStyle.Inherit(goodStyle)
			}
			return cellStyle
		}).
		Headers("Date", "Title", "Category", "Done", "Live").
		Rows(rows...).
		String()
}

func mark(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
