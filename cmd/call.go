package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/theapemachine/airflow-mcp/pkg/service"
)

var (
	serverFlag string
	argsFlag   string

	callCmd = &cobra.Command{
		Use:   "call <tool>",
		Short: "Call a tool on a running airflow-mcp SSE server",
		Long:  longCall,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			arguments := map[string]any{}

			if err := json.Unmarshal([]byte(argsFlag), &arguments); err != nil {
				return fmt.Errorf("failed to unmarshal tool arguments '%s': %w", argsFlag, err)
			}

			url := serverFlag

			if url == "" {
				url = fmt.Sprintf("http://localhost:%d", viper.GetInt("mcp.port"))
			}

			result, err := service.Call(cmd.Context(), url, args[0], arguments)

			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), result)
			return nil
		},
	}
)

func init() {
	rootCmd.AddCommand(callCmd)

	callCmd.Flags().StringVarP(&serverFlag, "server", "s", "", "Base URL of the MCP server (default http://localhost:<mcp.port>)")
	callCmd.Flags().StringVarP(&argsFlag, "args", "a", "{}", "Tool arguments as a JSON object")
}

var longCall = `
Call a tool on a running airflow-mcp server over SSE and print the result.

Examples:
  airflow-mcp call get_health
  airflow-mcp call get_dag_runs --args '{"dag_id": "etl", "state": ["failed"]}'
`
