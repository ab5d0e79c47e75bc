package pages

import (
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"finstudent/internal/core"
)

const progressWidth = 20

// theme holds the styles of one render pass. The renderer is bound to the
// destination writer so plain writers get plain text.
type theme struct {
	title   lipgloss.Style
	heading lipgloss.Style
	label   lipgloss.Style
	value   lipgloss.Style
	muted   lipgloss.Style
	danger  lipgloss.Style
	warning lipgloss.Style
	success lipgloss.Style
	info    lipgloss.Style
	box     lipgloss.Style
}

func newTheme(w io.Writer) theme {
	r := lipgloss.NewRenderer(w)
	return theme{
		title:   r.NewStyle().Foreground(lipgloss.Color("#87CEEB")).Bold(true),
		heading: r.NewStyle().Foreground(lipgloss.Color("#D1D5DB")).Bold(true).MarginTop(1),
		label:   r.NewStyle().Foreground(lipgloss.Color("#9CA3AF")),
		value:   r.NewStyle().Foreground(lipgloss.Color("#F9FAFB")).Bold(true),
		muted:   r.NewStyle().Foreground(lipgloss.Color("#6B7280")),
		danger:  r.NewStyle().Foreground(lipgloss.Color("#EF4444")),
		warning: r.NewStyle().Foreground(lipgloss.Color("#F59E0B")),
		success: r.NewStyle().Foreground(lipgloss.Color("#10B981")),
		info:    r.NewStyle().Foreground(lipgloss.Color("#3B82F6")),
		box:     r.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1),
	}
}

func (t theme) banner(msg string) string {
	return t.danger.Render("Error: " + msg)
}

func (t theme) field(label, value string) string {
	return t.label.Render(label+":") + " " + t.value.Render(value)
}

func (t theme) insight(in core.Insight) string {
	style := t.info
	switch in.Type {
	case core.InsightDanger:
		style = t.danger
	case core.InsightWarning:
		style = t.warning
	case core.InsightSuccess:
		style = t.success
	}
	return style.Render("• " + in.Message)
}

// progress draws a fixed-width bar; percentages above 100 fill the bar.
func (t theme) progress(pct int, status core.ProgressStatus) string {
	filled := pct * progressWidth / 100
	if filled > progressWidth {
		filled = progressWidth
	}
	if filled < 0 {
		filled = 0
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", progressWidth-filled)
	style := t.success
	switch status {
	case core.ProgressOver:
		style = t.danger
	case core.ProgressWarning:
		style = t.warning
	}
	return style.Render(bar) + " " + strconv.Itoa(pct) + "%"
}

func (t theme) table(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		String()
}

func transactionRows(txs []core.Transaction, format core.MoneyFormatter) [][]string {
	rows := make([][]string, 0, len(txs))
	for _, tx := range txs {
		amount := format(tx.Amount)
		if tx.Type == core.Expense {
			amount = "-" + amount
		} else {
			amount = "+" + amount
		}
		rows = append(rows, []string{
			strconv.FormatInt(tx.ID, 10),
			tx.Date.String(),
			tx.Description,
			core.CategoryName(tx.Category),
			amount,
		})
	}
	return rows
}

var transactionHeaders = []string{"ID", "Date", "Description", "Category", "Amount"}

// page accumulates the lines of one render and writes them at once.
type page struct {
	b strings.Builder
}

func (p *page) line(parts ...string) {
	p.b.WriteString(strings.Join(parts, " "))
	p.b.WriteByte('\n')
}

func (p *page) writeTo(w io.Writer) error {
	_, err := io.WriteString(w, p.b.String())
	return err
}

func formatPct(pct float64) string {
	return strconv.FormatFloat(pct, 'f', 1, 64) + "%"
}
