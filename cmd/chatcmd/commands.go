package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

var commandsCmd = &cobra.Command{
	Use:     "commands",
	Aliases: []string{"ls"},
	Short:   "Print every registered command",
	RunE:    runCommands,
}

func init() {
	rootCmd.AddCommand(commandsCmd)
}

func runCommands(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	a, err := newApp(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	reg := a.srv.Registry()
	rows := [][]string{}
	for _, d := range reg.All() {
		kind := "bound"
		if d.Static() {
			kind = "static"
		}
		pattern := ""
		if d.Grammar != nil {
			pattern = d.Grammar.String()
		}
		rows = append(rows, []string{
			d.Source,
			strings.Join(reg.Aliases(d), ", "),
			d.Usage,
			pattern,
			d.Permission,
			kind,
		})
	}

	r := lipgloss.NewRenderer(os.Stdout)
	header := r.NewStyle().Bold(true).Padding(0, 1)
	cell := r.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("SOURCE", "ALIASES", "USAGE", "PATTERN", "PERMISSION", "HANDLER").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})
	if noColor {
		t = t.BorderStyle(r.NewStyle())
	}

	fmt.Fprintln(cmd.OutOrStdout(), t.String())
	fmt.Fprintf(cmd.OutOrStdout(), "%d commands\n", len(rows))
	return nil
}
