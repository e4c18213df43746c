package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/shiroonigami23-ui/supplier-reliability-tracker/internal/tracker"
)

type tableStyles struct {
	header lipgloss.Style
	elite  lipgloss.Style
	good   lipgloss.Style
	poor   lipgloss.Style
	dim    lipgloss.Style
}

func newTableStyles() tableStyles {
	return tableStyles{
		header: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		elite:  lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		good:   lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		poor:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		dim:    lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

func (s tableStyles) tier(t tracker.Tier) lipgloss.Style {
	switch t {
	case tracker.TierElite:
		return s.elite
	case tracker.TierGood:
		return s.good
	default:
		return s.poor
	}
}

func renderRankings(w io.Writer, rankings []tracker.Ranking) {
	styles := newTableStyles()
	if len(rankings) == 0 {
		fmt.Fprintln(w, styles.dim.Render("no suppliers tracked yet"))
		return
	}

	idWidth := len("SUPPLIER")
	for _, r := range rankings {
		if len(r.SupplierID) > idWidth {
			idWidth = len(r.SupplierID)
		}
	}

	fmt.Fprintln(w, styles.header.Render(fmt.Sprintf("%-4s  %-*s  %5s  %6s  %s", "#", idWidth, "SUPPLIER", "SCORE", "ORDERS", "TIER")))
	for i, r := range rankings {
		row := fmt.Sprintf("%-4d  %-*s  %5d  %6d  ", i+1, idWidth, r.SupplierID, r.Score, r.TotalOrders)
		fmt.Fprintln(w, row+styles.tier(r.Tier).Render(string(r.Tier)))
	}
}
