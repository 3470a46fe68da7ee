package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"salesforecast/internal/features"
	"salesforecast/internal/models"
)

func newSchemaCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the feature columns each model expects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			schema := models.SchemaResponse{
				Ensemble:   features.EnsembleColumns(),
				TimeSeries: features.RegressorColumns(),
				DateColumn: features.DateColumn,
				MonthNames: features.MonthNames[:],
			}

			if c.jsonOut {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(schema)
			}

			ensemble := lipgloss.JoinVertical(lipgloss.Left,
				titleStyle.Render(fmt.Sprintf("Ensemble (%d)", len(schema.Ensemble))),
				strings.Join(schema.Ensemble, "\n"),
			)
			timeSeries := lipgloss.JoinVertical(lipgloss.Left,
				titleStyle.Render(fmt.Sprintf("Time series (%d + %s)", len(schema.TimeSeries), schema.DateColumn)),
				strings.Join(schema.TimeSeries, "\n"),
			)
			fmt.Fprintln(out, lipgloss.JoinHorizontal(lipgloss.Top,
				boxStyle.Render(ensemble),
				boxStyle.Render(timeSeries),
			))
			return nil
		},
	}
}
