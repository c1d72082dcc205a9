package service

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	errs "github.com/theapemachine/airflow-mcp/pkg/errors"
	"github.com/theapemachine/airflow-mcp/pkg/metrics"
	"github.com/theapemachine/airflow-mcp/pkg/registry"
	"github.com/theapemachine/airflow-mcp/pkg/tools"
	"github.com/theapemachine/airflow-mcp/pkg/types"
)

const healthTool = "get_health"

type paramInfo struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	In       string `json:"in"`
	Required bool   `json:"required"`
}

type toolInfo struct {
	Name         string      `json:"name"`
	Description  string      `json:"description"`
	Endpoint     string      `json:"endpoint"`
	OutputSchema string      `json:"output_schema"`
	Params       []paramInfo `json:"params"`
}

/*
AdminServer is a small HTTP surface next to the MCP transport for operators:
the tool catalogue, the resolved schemas, call metrics and a proxied Airflow
health check.
*/
type AdminServer struct {
	app   *fiber.App
	reg   *registry.Registry
	stats *metrics.ToolMetrics
}

func NewAdminServer(reg *registry.Registry, stats *metrics.ToolMetrics) *AdminServer {
	if stats == nil {
		stats = metrics.NewToolMetrics()
	}

	srv := &AdminServer{
		app: fiber.New(fiber.Config{
			AppName:      "airflow-mcp-admin",
			ServerHeader: "airflow-mcp-admin",
		}),
		reg:   reg,
		stats: stats,
	}

	srv.app.Use(logger.New(logger.Config{
		Next: func(c fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/schemas/")
		},
	}), healthcheck.New())

	srv.app.Get("/", srv.handleRoot)
	srv.app.Get("/tools", srv.handleTools)
	srv.app.Get("/schemas/*", srv.handleSchema)
	srv.app.Get("/metrics", srv.handleMetrics)
	srv.app.Get("/airflow/health", srv.handleAirflowHealth)

	return srv
}

func (srv *AdminServer) App() *fiber.App {
	return srv.app
}

func (srv *AdminServer) Start(addr string) error {
	return srv.app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true})
}

func (srv *AdminServer) Shutdown() error {
	return srv.app.Shutdown()
}

func (srv *AdminServer) handleRoot(ctx fiber.Ctx) error {
	return ctx.SendString("OK")
}

func (srv *AdminServer) handleTools(ctx fiber.Ctx) error {
	list := srv.reg.List()
	out := make([]toolInfo, 0, len(list))

	for _, def := range list {
		info := toolInfo{
			Name:         def.Definition.Name,
			Description:  def.Definition.Description,
			Endpoint:     def.Definition.Endpoint,
			OutputSchema: def.Definition.OutputSchema,
			Params:       []paramInfo{},
		}

		for _, param := range def.Definition.Params {
			in := "query"

			if param.In == tools.InPath {
				in = "path"
			}

			info.Params = append(info.Params, paramInfo{
				Name:     param.Name,
				Type:     param.Kind.String(),
				In:       in,
				Required: param.Required || param.In == tools.InPath,
			})
		}

		out = append(out, info)
	}

	return ctx.JSON(out)
}

func (srv *AdminServer) handleMetrics(ctx fiber.Ctx) error {
	return ctx.JSON(srv.stats.Snapshot())
}

func (srv *AdminServer) handleSchema(ctx fiber.Ctx) error {
	name := strings.TrimSuffix(strings.Trim(ctx.Params("*"), "/"), ".json")
	doc, ok := srv.reg.Schemas()[name]

	if !ok {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": errs.NotFound(name+".json", nil).Error(),
			"kind":  errs.KindNotFound.String(),
		})
	}

	return ctx.JSON(doc)
}

/*
handleAirflowHealth proxies get_health. Timeouts map to 504, every other
failure to 502. A client that goes away cancels the proxied call.
*/
func (srv *AdminServer) handleAirflowHealth(ctx fiber.Ctx) error {
	if _, ok := srv.reg.GetToolDefinition(healthTool); !ok {
		return ctx.Status(fiber.StatusNotFound).SendString(healthTool + " is not registered")
	}

	result, err := srv.airflowHealth(ctx)

	if err != nil {
		status := fiber.StatusBadGateway

		if errs.KindOf(err) == errs.KindTimeout {
			status = fiber.StatusGatewayTimeout
		}

		return ctx.Status(status).JSON(fiber.Map{
			"error": err.Error(),
			"kind":  errs.KindOf(err).String(),
		})
	}

	return ctx.JSON(result)
}

func (srv *AdminServer) airflowHealth(ctx context.Context) (types.Value, error) {
	def, ok := srv.reg.GetToolDefinition(healthTool)

	if !ok {
		return types.Value{}, errs.NotFound(healthTool, nil)
	}

	started := time.Now()
	result, err := def.Executor(ctx, nil)
	srv.stats.Record(healthTool, time.Since(started), err)

	return result, err
}
