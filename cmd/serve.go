package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/theapemachine/airflow-mcp/pkg/logging"
	"github.com/theapemachine/airflow-mcp/pkg/metrics"
	"github.com/theapemachine/airflow-mcp/pkg/service"
)

var (
	transportFlag string
	portFlag      int
	hostFlag      string
	adminFlag     bool

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the Airflow tools over MCP",
		Long:  longServe,
		RunE: func(cmd *cobra.Command, args []string) error {
			bindServeFlags(cmd)

			cfg, reg, err := setup()

			if err != nil {
				return err
			}

			defer logging.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			stats := metrics.NewToolMetrics()

			if cfg.Admin.Enabled {
				admin := service.NewAdminServer(reg, stats)

				go func() {
					log.Info("admin server listening", "addr", cfg.Admin.Addr)

					if err := admin.Start(cfg.Admin.Addr); err != nil {
						log.Error("admin server stopped", "error", err)
					}
				}()

				defer admin.Shutdown()
			}

			broker := service.NewMCPBroker(cfg.MCP.Name, cfg.MCP.Version, reg, stats)
			return broker.Serve(ctx, cfg.MCP.Transport, cfg.MCP.Addr())
		},
	}
)

/*
bindServeFlags lets flags given on the command line win over file and
environment values.
*/
func bindServeFlags(cmd *cobra.Command) {
	v := viper.GetViper()

	if cmd.Flags().Changed("transport") {
		v.Set("mcp.transport", transportFlag)
	}

	if cmd.Flags().Changed("port") {
		v.Set("mcp.port", portFlag)
	}

	if cmd.Flags().Changed("host") {
		v.Set("mcp.host", hostFlag)
	}

	if cmd.Flags().Changed("admin") {
		v.Set("admin.enabled", adminFlag)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&transportFlag, "transport", "t", "sse", "MCP transport: sse or stdio")
	serveCmd.Flags().IntVarP(&portFlag, "port", "p", 3000, "Port to serve SSE on")
	serveCmd.Flags().StringVarP(&hostFlag, "host", "H", "0.0.0.0", "Host address to bind to")
	serveCmd.Flags().BoolVar(&adminFlag, "admin", false, "Also serve the admin HTTP endpoints")
}

var longServe = `
Serve the Airflow tools over MCP.

Examples:
  # Serve over SSE on the default port (3000)
  airflow-mcp serve

  # Serve over stdio for a local MCP client
  airflow-mcp serve --transport stdio

  # Serve over SSE with the admin endpoints on admin.addr
  AIRFLOW_HOST=http://airflow:8080 airflow-mcp serve --admin
`
