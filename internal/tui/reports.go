package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/tracklet/internal/engine"
	"github.com/sadopc/tracklet/internal/format"
	"github.com/sadopc/tracklet/internal/models"
)

type reportMode int

const (
	reportDaily reportMode = iota
	reportWeekly
)

type reportsModel struct {
	ctx    context.Context
	eng    *engine.Engine
	width  int
	height int

	mode      reportMode
	summaries []models.DailySummary
	goal      int64
	streak    int
	offset    int // weeks or 7-day blocks offset from today (0 = current)

	chart barchart.Model
}

func newReportsModel(ctx context.Context, e *engine.Engine) reportsModel {
	return reportsModel{
		ctx:   ctx,
		eng:   e,
		chart: barchart.New(60, 12),
	}
}

func (r *reportsModel) setSize(w, h int) {
	r.width = w
	r.height = h
}

type reportsDataMsg struct {
	summaries []models.DailySummary
	goal      int64
	streak    int
}

func (r reportsModel) refresh() tea.Cmd {
	ctx, e := r.ctx, r.eng
	from, to := r.dateRange()
	return func() tea.Msg {
		summaries, err := e.Store.GetDailySummary(ctx, from, to)
		if err != nil {
			return statusMsg{text: "Error: " + err.Error(), isError: true}
		}
		goal, err := e.Store.DailyGoal(ctx)
		if err != nil {
			return statusMsg{text: "Error: " + err.Error(), isError: true}
		}
		streak, err := e.Store.GoalStreak(ctx, e.Clock.Now(), goal)
		if err != nil {
			return statusMsg{text: "Error: " + err.Error(), isError: true}
		}
		return reportsDataMsg{summaries: summaries, goal: goal, streak: streak}
	}
}

func (r reportsModel) dateRange() (time.Time, time.Time) {
	today, _ := dayBounds(r.eng.Clock.Now())

	switch r.mode {
	case reportWeekly:
		// Start of current week (Monday)
		weekday := today.Weekday()
		if weekday == time.Sunday {
			weekday = 7
		}
		startOfWeek := today.AddDate(0, 0, -int(weekday-time.Monday))
		startOfWeek = startOfWeek.AddDate(0, 0, -7*r.offset)
		return startOfWeek, startOfWeek.AddDate(0, 0, 7)
	default:
		// Daily: last 7 days
		end := today.AddDate(0, 0, 1-7*r.offset)
		start := end.AddDate(0, 0, -7)
		return start, end
	}
}

func (r reportsModel) update(msg tea.Msg) (reportsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case reportsDataMsg:
		r.summaries = msg.summaries
		r.goal = msg.goal
		r.streak = msg.streak
		r.buildChart()
		return r, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			r.offset++
			return r, r.refresh()
		case key.Matches(msg, keys.Right):
			if r.offset > 0 {
				r.offset--
			}
			return r, r.refresh()
		case key.Matches(msg, keys.Enter):
			if r.mode == reportDaily {
				r.mode = reportWeekly
			} else {
				r.mode = reportDaily
			}
			r.offset = 0
			return r, r.refresh()
		}
	}
	return r, nil
}

func (r *reportsModel) buildChart() {
	chartWidth := max(r.width-8, 20)
	chartHeight := 12
	if r.height > 30 {
		chartHeight = 16
	}

	r.chart = barchart.New(chartWidth, chartHeight)

	from, to := r.dateRange()

	// One bar per day in range
	var bars []barchart.BarData
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		dateStr := d.Format("2006-01-02")

		var values []barchart.BarValue
		for _, s := range r.summaries {
			if s.Date == dateStr {
				values = append(values, barchart.BarValue{
					Name:  s.TaskName,
					Value: float64(s.TotalSeconds) / 3600.0,
					Style: lipgloss.NewStyle().Foreground(lipgloss.Color(s.TaskColor)),
				})
			}
		}

		if len(values) == 0 {
			values = []barchart.BarValue{{Name: "", Value: 0, Style: lipgloss.NewStyle().Foreground(colorSubtle)}}
		}

		bars = append(bars, barchart.BarData{
			Label:  d.Format("Mon 02"),
			Values: values,
		})
	}

	r.chart.PushAll(bars)
	r.chart.Draw()
}

func (r reportsModel) view() string {
	w := r.width - 4

	// Mode tabs
	dailyTab := inactiveTabStyle.Render("Daily")
	weeklyTab := inactiveTabStyle.Render("Weekly")
	if r.mode == reportDaily {
		dailyTab = activeTabStyle.Render("Daily")
	} else {
		weeklyTab = activeTabStyle.Render("Weekly")
	}
	modeTabs := lipgloss.JoinHorizontal(lipgloss.Bottom, dailyTab, weeklyTab)

	// Date range label
	from, to := r.dateRange()
	dateLabel := mutedStyle.Render(fmt.Sprintf("%s - %s", from.Format("Jan 02"), to.AddDate(0, 0, -1).Format("Jan 02, 2006")))

	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Reports"), "  ", modeTabs, "  ", dateLabel,
	)

	// Chart
	chartView := r.chart.View()

	// Legend and goal
	legend := r.renderLegend()
	goal := r.renderGoal()

	// Summary table
	tableView := r.renderSummaryTable(w)

	nav := mutedStyle.Render("  ←/→: navigate  enter: switch mode")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", chartView, "", legend, "", goal, tableView, "", nav,
		),
	)
}

func (r reportsModel) renderGoal() string {
	if r.goal <= 0 {
		return ""
	}
	line := fmt.Sprintf("  Goal %s a day", format.Hours(r.goal))
	if r.streak > 0 {
		line += successStyle.Render(fmt.Sprintf("  streak %d days", r.streak))
	}
	return line + "\n"
}

func (r reportsModel) renderSummaryTable(w int) string {
	if len(r.summaries) == 0 {
		return mutedStyle.Render("  No data for this period")
	}

	var rows []string
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-12s %-20s %10s %8s", "Date", "Task", "Duration", "Entries")))
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", min(w-6, 54))))

	var total int64
	for _, s := range r.summaries {
		total += s.TotalSeconds
		colorDot := lipgloss.NewStyle().Foreground(lipgloss.Color(s.TaskColor)).Render("●")
		rows = append(rows, fmt.Sprintf("  %-12s %s %-18s %10s %8d",
			s.Date, colorDot, s.TaskName, format.Seconds(s.TotalSeconds), s.EntryCount,
		))
	}
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-33s %10s", "Total", format.Seconds(total))))

	return strings.Join(rows, "\n")
}

func (r reportsModel) renderLegend() string {
	// Unique tasks in summary order
	seen := make(map[string]bool)
	var items []string
	for _, s := range r.summaries {
		if seen[s.TaskID] {
			continue
		}
		seen[s.TaskID] = true
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color(s.TaskColor)).Render("●")
		items = append(items, fmt.Sprintf("%s %s", dot, s.TaskName))
	}
	if len(items) == 0 {
		return ""
	}
	return "  " + strings.Join(items, "  ")
}
