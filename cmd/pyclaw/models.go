package main

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/9v2/pyclaw"
	"github.com/9v2/pyclaw/config"
	"github.com/9v2/pyclaw/model"
	"github.com/9v2/pyclaw/provider"
)

// runModels lists the models the configured provider offers, falling back
// to the built-in catalog when the provider cannot be reached.
func runModels(ctx context.Context, out io.Writer) error {
	cfg, err := config.Load("")
	if err != nil {
		return err
	}
	name := provider.Name(cfg)

	var models []pyclaw.ModelInfo
	p, err := providerFromConfig(ctx, cfg)
	if err == nil {
		fmt.Fprintln(out, dimStyle.Render("fetching available models..."))
		models, err = p.FetchModels(ctx)
	}
	if err != nil {
		fmt.Fprintln(out, warnStyle.Render("⚠️  "+err.Error()))
		models = model.Infos(model.For(name))
	}
	if len(models) == 0 {
		fmt.Fprintln(out, warnStyle.Render("no models found for "+name.String()+"."))
		return nil
	}

	fmt.Fprintln(out, modelTable(models, cfg.String("agent.model"), name))
	fmt.Fprintln(out, dimStyle.Render("current: ")+titleStyle.Render(cfg.ModelID()))
	fmt.Fprintln(out, dimStyle.Render("switch with: pyclaw config set agent.model ID"))
	return nil
}

func modelTable(models []pyclaw.ModelInfo, current string, name pyclaw.ProviderName) string {
	rows := make([][]string, 0, len(models))
	currentRow := -1
	for i, m := range models {
		marker := ""
		if m.ID == current {
			marker, currentRow = "→", i
		}
		rows = append(rows, []string{strconv.Itoa(i + 1), m.ID, m.Name, price(m.ID), marker})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(accent)).
		StyleFunc(func(row, col int) lipgloss.Style {
			s := lipgloss.NewStyle().Padding(0, 1)
			switch {
			case row == table.HeaderRow:
				return s.Bold(true).Foreground(accent)
			case row == currentRow:
				return s.Bold(true).Foreground(lipgloss.Color("10"))
			}
			return s
		}).
		Headers("#", "Model ID", "Name ("+name.String()+")", "$ / 1M in·out", "").
		Rows(rows...).
		String()
}

func price(id string) string {
	m, ok := model.Lookup(id)
	if !ok || m.Pricing.IsZero() {
		return "—"
	}
	return fmt.Sprintf("%.2f · %.2f", m.Pricing.InputPerMillion, m.Pricing.OutputPerMillion)
}
