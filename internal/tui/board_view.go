package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/cartstate/internal/cart"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginBottom(1)
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
	focusedPanelStyle = panelStyle.
				BorderForeground(lipgloss.Color("#5B8DEF"))
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5B8DEF"))
	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))
	selectedLineStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#FFFFFF"))
	totalStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7CD992"))
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))
)

func (a *App) renderBoard() string {
	width := a.width
	if width <= 0 {
		width = 100
	}
	half := max(30, width/2-2)

	left := panelStyle
	right := panelStyle
	if a.focus == focusCatalog {
		left = focusedPanelStyle
	} else {
		right = focusedPanelStyle
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		left.Width(half).Render(a.catalog.View()),
		right.Width(half).Render(a.renderCartPanel(half-4)),
	)

	sections := []string{headerStyle.Render("⬡ CART"), body}
	if logPanel := a.renderJournalPanel(); logPanel != "" {
		sections = append(sections, logPanel)
	}
	sections = append(sections, a.renderStatus(), a.help.View(a.keys))
	return strings.Join(sections, "\n")
}

func (a *App) renderCartPanel(width int) string {
	lines := []string{titleStyle.Render("Your cart")}
	if len(a.value.Cart) == 0 {
		lines = append(lines, mutedStyle.Render("Nothing here yet. Add something from the catalog."))
	}
	for idx, line := range a.value.Cart {
		lines = append(lines, a.renderLine(line, a.focus == focusCart && idx == a.cartSelection, width))
	}
	lines = append(lines,
		"",
		fmt.Sprintf("Items: %d", a.value.TotalItems),
		totalStyle.Render(fmt.Sprintf("Total: %s", a.value.TotalPrice)),
	)
	return lipgloss.NewStyle().Width(max(20, width)).Render(strings.Join(lines, "\n"))
}

func (a *App) renderLine(line cart.LineItem, selected bool, width int) string {
	text := fmt.Sprintf("%-8s %-18s x%-3d %s", line.SKU, truncate(line.Name, 18), line.Qty, a.formatter.Format(line.Subtotal()))
	if selected {
		return selectedLineStyle.Render("▸ " + truncate(text, width-2))
	}
	return "  " + truncate(text, width-2)
}

func (a *App) renderJournalPanel() string {
	if a.journal == nil {
		return ""
	}
	lines, total := a.journal.Tail(journalLines)
	if len(lines) == 0 {
		return ""
	}
	fileName := filepath.Base(a.journal.Path())
	if fileName == "." || fileName == "" {
		fileName = "journal"
	}
	head := titleStyle.Render(fmt.Sprintf("LOG · %s · %d entries", fileName, total))
	body := mutedStyle.Render(strings.Join(lines, "\n"))
	return panelStyle.Render(fmt.Sprintf("%s\n%s", head, body))
}

func (a *App) renderStatus() string {
	if a.err != nil {
		return errorStyle.MarginTop(1).Render(a.statusMsg)
	}
	return mutedStyle.MarginTop(1).Render(a.statusMsg)
}

func truncate(value string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	if limit == 1 {
		return "…"
	}
	return string(runes[:limit-1]) + "…"
}
