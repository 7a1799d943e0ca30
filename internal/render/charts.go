// Package render draws analyses for the terminal and serializes them for
// scripts.
package render

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/MikeSquared-Agency/waddle/internal/analysis"
	"github.com/MikeSquared-Agency/waddle/internal/charts"
	"github.com/MikeSquared-Agency/waddle/internal/export"
	"github.com/MikeSquared-Agency/waddle/internal/history"
)

const (
	barRune   = "█"
	minWidth  = 40
	dateStyle = "2006-01-02"
)

// shades go from no calls to the busiest day.
var shades = []string{"·", "░", "▒", "▓", "█"}

var dayInitials = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// Analysis writes every chart of a as text, fitted to width columns.
func Analysis(w io.Writer, a *analysis.Analysis, width int) error {
	if width < minWidth {
		width = minWidth
	}
	s := a.Summary

	var b strings.Builder
	b.WriteString(styleHeader.Render(fmt.Sprintf("%s (%s)", a.Partner.Label, a.Partner.Username)))
	b.WriteString(styleDim.Render(fmt.Sprintf("  %d calls, %s", s.Calls, a.Timezone)))
	b.WriteString("\n")
	if s.Calls > 0 {
		b.WriteString(styleDim.Render(s.FirstCall.Format(dateStyle) + " to " + s.LastCall.Format(dateStyle)))
		b.WriteString("\n")
	}

	sections := []string{
		Total(s.Total),
		Weekdays(s.Weekdays, width),
		Calendar(s.Calendar, width),
		Tendency(s.Callers, width),
		Tendency(s.Terminators, width),
	}
	for _, sec := range sections {
		b.WriteString("\n")
		b.WriteString(sec)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// Total renders the headline duration and its equivalent.
func Total(c charts.TotalChart) string {
	var b strings.Builder
	b.WriteString(styleTitle.Render(c.Title))
	b.WriteString("\n  ")
	b.WriteString(styleHighlight.Render(fmt.Sprintf("%.2f %s", c.Value, c.Unit)))
	if c.Equivalent != nil {
		b.WriteString(styleDim.Render(fmt.Sprintf("  that's %.2f %s", c.Equivalent.Value, c.Equivalent.Unit)))
	}
	b.WriteString("\n")
	return b.String()
}

// Weekdays renders one horizontal bar per day.
func Weekdays(c charts.WeekdayChart, width int) string {
	var peak float64
	for _, d := range c.Days {
		peak = math.Max(peak, d.Value)
	}
	barWidth := width - lipgloss.Width(styleLabel.Render("")) - 16

	var b strings.Builder
	b.WriteString(styleTitle.Render(c.Title))
	b.WriteString("\n")
	for _, d := range c.Days {
		label := d.Day
		if d.Day == c.Favorite && d.Seconds > 0 {
			label = styleHighlight.Render(label)
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
			styleLabel.Render(label),
			bar(d.Value, peak, barWidth),
			fmt.Sprintf(" %.1f %s", d.Value, c.Unit),
		))
		b.WriteString("\n")
	}
	return b.String()
}

// Calendar renders a heatmap with one column per week, Monday on top. Only
// the most recent weeks that fit in width are shown.
func Calendar(c charts.CalendarChart, width int) string {
	var b strings.Builder
	b.WriteString(styleTitle.Render(c.Title))
	b.WriteString("\n")
	if len(c.Days) == 0 {
		b.WriteString(styleDim.Render("  no calls"))
		b.WriteString("\n")
		return b.String()
	}

	first, err := time.Parse(dateStyle, c.Days[0].Date)
	if err != nil {
		return b.String()
	}
	lead := (int(first.Weekday()) + 6) % 7
	weeks := (lead + len(c.Days) + 6) / 7

	var peak float64
	for _, d := range c.Days {
		peak = math.Max(peak, d.Hours)
	}

	grid := make([][]string, 7)
	for i := range grid {
		grid[i] = make([]string, weeks)
		for j := range grid[i] {
			grid[i][j] = " "
		}
	}
	for i, d := range c.Days {
		cell := lead + i
		grid[cell%7][cell/7] = shade(d.Hours, peak)
	}

	cols := width - 5
	start := 0
	if weeks > cols {
		start = weeks - cols
	}
	for day, row := range grid {
		b.WriteString(styleDim.Render(dayInitials[day]))
		b.WriteString(" ")
		b.WriteString(styleBar.Render(strings.Join(row[start:], "")))
		b.WriteString("\n")
	}
	b.WriteString(styleDim.Render(fmt.Sprintf("    %s to %s, busiest day %.2f hours",
		c.Days[0].Date, c.Days[len(c.Days)-1].Date, peak)))
	b.WriteString("\n")
	return b.String()
}

// Tendency renders the share of each party and the annotated leader.
func Tendency(c charts.TendencyChart, width int) string {
	var b strings.Builder
	b.WriteString(styleTitle.Render(c.Title))
	b.WriteString("\n")
	if len(c.Shares) == 0 {
		b.WriteString(styleDim.Render("  nobody"))
		b.WriteString("\n")
		return b.String()
	}

	labelWidth := 0
	for _, s := range c.Shares {
		labelWidth = max(labelWidth, lipgloss.Width(s.Party))
	}
	labelStyle := lipgloss.NewStyle().Width(labelWidth + 2).PaddingLeft(2)
	barWidth := width - labelWidth - 16

	for _, s := range c.Shares {
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
			labelStyle.Render(s.Party),
			bar(s.Fraction, 1, barWidth),
			fmt.Sprintf(" %3.0f%% (%d)", s.Fraction*100, s.Count),
		))
		b.WriteString("\n")
	}
	if c.Annotation != "" {
		b.WriteString("  ")
		b.WriteString(styleHighlight.Render(c.Top))
		b.WriteString(" " + c.Annotation)
		b.WriteString("\n")
	}
	return b.String()
}

// Partners lists the selectable conversations with their indices.
func Partners(w io.Writer, partners []export.Partner) error {
	if len(partners) == 0 {
		_, err := fmt.Fprintln(w, styleDim.Render("No conversations found."))
		return err
	}
	idx := lipgloss.NewStyle().Width(6).Foreground(colorPrimary)
	for _, p := range partners {
		line := idx.Render(fmt.Sprintf("%d", p.Index)) + p.Label
		if p.Label != p.Username {
			line += styleDim.Render("  " + p.Username)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// History lists saved analyses, newest first.
func History(w io.Writer, entries []history.Entry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, styleDim.Render("No saved analyses."))
		return err
	}
	for _, e := range entries {
		_, err := fmt.Fprintf(w, "%s  %s  %s  %d calls  %.0fs  %s\n",
			styleDim.Render(e.CreatedAt.Local().Format("2006-01-02 15:04")),
			e.ID,
			styleHeader.Render(e.Partner),
			e.Calls,
			e.TotalSeconds,
			styleDim.Render(e.Source),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func bar(value, peak float64, width int) string {
	if width < 1 || peak <= 0 || value <= 0 {
		return ""
	}
	n := int(math.Round(value / peak * float64(width)))
	if n == 0 {
		n = 1
	}
	return styleBar.Render(strings.Repeat(barRune, n))
}

func shade(hours, peak float64) string {
	if hours <= 0 || peak <= 0 {
		return shades[0]
	}
	i := 1 + int(hours/peak*float64(len(shades)-2)+0.5)
	if i >= len(shades) {
		i = len(shades) - 1
	}
	return shades[i]
}
