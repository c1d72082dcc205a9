package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"github.com/theapemachine/airflow-mcp/pkg/registry"
	"github.com/theapemachine/airflow-mcp/pkg/tools"
)

var (
	indigo = lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7571F9"}
	gray   = lipgloss.AdaptiveColor{Light: "#9E9E9E", Dark: "#BDBDBD"}

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(indigo).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)

	toolsCmd = &cobra.Command{
		Use:   "tools",
		Short: "List the Airflow tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, reg, err := setup()

			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTools(reg.List()))
			return nil
		},
	}

	schemaCmd = &cobra.Command{
		Use:   "schema <tool>",
		Short: "Print the resolved output schema of a tool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, reg, err := setup()

			if err != nil {
				return err
			}

			def, ok := reg.GetToolDefinition(args[0])

			if !ok {
				return fmt.Errorf("unknown tool %q", args[0])
			}

			out, err := json.MarshalIndent(def.OutputSchema, "", "  ")

			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}

	inputCmd = &cobra.Command{
		Use:   "input <tool>",
		Short: "Print the MCP input schema of a tool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tool, err := tools.Acquire(args[0])

			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(tool.InputSchema, "", "  ")

			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
)

func renderTools(list []registry.ToolDefinition) string {
	rows := make([][]string, 0, len(list))

	for _, def := range list {
		rows = append(rows, []string{
			def.Definition.Name,
			def.Definition.Endpoint,
			def.Definition.OutputSchema,
			describeParams(def.Definition.Params),
		})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(gray)).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}

			return cellStyle
		}).
		Headers("TOOL", "ENDPOINT", "SCHEMA", "PARAMS").
		Rows(rows...).
		String()
}

func describeParams(params []tools.Param) string {
	names := make([]string, 0, len(params))

	for _, param := range params {
		name := param.Name

		if param.Required || param.In == tools.InPath {
			name += "*"
		}

		names = append(names, name)
	}

	return strings.Join(names, ", ")
}

func init() {
	rootCmd.AddCommand(toolsCmd)
	toolsCmd.AddCommand(schemaCmd, inputCmd)
}
