/*
Package config turns viper settings, environment variables and an optional
airflow.cfg into one immutable Config. Nothing below the command layer reads
the environment directly.
*/
package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/cohesivestack/valgo"
	"github.com/spf13/viper"
	"github.com/theapemachine/airflow-mcp/pkg/httpclient"
	"gopkg.in/ini.v1"
)

const (
	apiPath     = "/api/v1"
	defaultHost = "http://localhost:8080"
)

/*
env maps viper keys to the environment variables that override them.
*/
var env = map[string]string{
	"airflow.host":       "AIRFLOW_HOST",
	"airflow.username":   "AIRFLOW_USERNAME",
	"airflow.password":   "AIRFLOW_PASSWORD",
	"airflow.ssl_verify": "SSL_VERIFY",
	"airflow.timeout":    "AIRFLOW_TIMEOUT",
	"airflow.cfg":        "AIRFLOW_CFG",
	"mcp.transport":      "MCP_TRANSPORT",
	"mcp.host":           "MCP_HOST",
	"mcp.port":           "MCP_PORT",
	"log.level":          "LOG_LEVEL",
	"log.file":           "LOG_FILE",
	"schema.dir":         "SCHEMA_DIR",
	"admin.addr":         "ADMIN_ADDR",
}

type Airflow struct {
	Host      string
	BaseURL   string
	Username  string
	Password  string
	VerifySSL bool
	Timeout   time.Duration
}

type MCP struct {
	Name      string
	Version   string
	Transport string
	Host      string
	Port      int
}

// Addr is the host:port the SSE transport listens on.
func (m MCP) Addr() string {
	return net.JoinHostPort(m.Host, strconv.Itoa(m.Port))
}

type Config struct {
	Airflow Airflow
	MCP     MCP
	Admin   struct {
		Enabled bool
		Addr    string
	}
	Schema struct {
		Dir    string
		Strict bool
	}
	Log struct {
		Level string
		File  string
	}
}

/*
SetDefaults registers the built-in values for every key.
*/
func SetDefaults(v *viper.Viper) {
	v.SetDefault("airflow.username", "airflow")
	v.SetDefault("airflow.password", "airflow")
	v.SetDefault("airflow.ssl_verify", "true")
	v.SetDefault("airflow.timeout", httpclient.DefaultTimeout)
	v.SetDefault("mcp.name", "airflow-mcp-server")
	v.SetDefault("mcp.version", "1.0.0")
	v.SetDefault("mcp.transport", "sse")
	v.SetDefault("mcp.host", "0.0.0.0")
	v.SetDefault("mcp.port", 3000)
	v.SetDefault("admin.enabled", false)
	v.SetDefault("admin.addr", ":3001")
	v.SetDefault("schema.strict", false)
	v.SetDefault("log.level", "info")
}

/*
BindEnv makes the environment variables in env override their keys.
*/
func BindEnv(v *viper.Viper) error {
	for key, name := range env {
		if err := v.BindEnv(key, name); err != nil {
			return fmt.Errorf("failed to bind %s: %w", name, err)
		}
	}

	return nil
}

/*
Load reads every setting from v once. When airflow.host is unset the host
comes from the webserver base_url of the file named by airflow.cfg, falling
back to http://localhost:8080.
*/
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{}

	cfg.Airflow.Host = v.GetString("airflow.host")
	cfg.Airflow.Username = v.GetString("airflow.username")
	cfg.Airflow.Password = v.GetString("airflow.password")
	cfg.Airflow.VerifySSL = strings.EqualFold(v.GetString("airflow.ssl_verify"), "true")
	cfg.Airflow.Timeout = v.GetDuration("airflow.timeout")

	if seconds, err := strconv.Atoi(v.GetString("airflow.timeout")); err == nil {
		cfg.Airflow.Timeout = time.Duration(seconds) * time.Second
	}

	if path := v.GetString("airflow.cfg"); path != "" {
		imported, err := ImportAirflowCfg(path)

		if err != nil {
			return nil, err
		}

		if cfg.Airflow.Host == "" {
			cfg.Airflow.Host = imported
		}
	}

	if cfg.Airflow.Host == "" {
		cfg.Airflow.Host = defaultHost
	}

	cfg.MCP.Name = v.GetString("mcp.name")
	cfg.MCP.Version = v.GetString("mcp.version")
	cfg.MCP.Transport = strings.ToLower(v.GetString("mcp.transport"))
	cfg.MCP.Host = v.GetString("mcp.host")
	cfg.MCP.Port = v.GetInt("mcp.port")

	cfg.Admin.Enabled = v.GetBool("admin.enabled")
	cfg.Admin.Addr = v.GetString("admin.addr")

	cfg.Schema.Dir = v.GetString("schema.dir")
	cfg.Schema.Strict = v.GetBool("schema.strict")

	cfg.Log.Level = strings.ToLower(v.GetString("log.level"))
	cfg.Log.File = v.GetString("log.file")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	base, err := BaseURL(cfg.Airflow.Host)

	if err != nil {
		return nil, err
	}

	cfg.Airflow.BaseURL = base
	return cfg, nil
}

/*
Validate checks the settings that would otherwise fail late, at the first
request or when the listener starts.
*/
func (cfg *Config) Validate() error {
	val := valgo.Is(
		valgo.String(cfg.Airflow.Host, "airflow.host").Not().Blank(),
	).Is(
		valgo.Int64(int64(cfg.Airflow.Timeout), "airflow.timeout").GreaterThan(0),
	).Is(
		valgo.String(cfg.MCP.Transport, "mcp.transport").InSlice([]string{"sse", "stdio"}),
	).Is(
		valgo.Int(cfg.MCP.Port, "mcp.port").Between(1, 65535),
	).Is(
		valgo.String(cfg.Log.Level, "log.level").InSlice([]string{"debug", "info", "warn", "warning", "error", "fatal"}),
	)

	if cfg.Admin.Enabled {
		val.Is(valgo.String(cfg.Admin.Addr, "admin.addr").Not().Blank())
	}

	if !val.Valid() {
		return fmt.Errorf("invalid configuration: %w", val.Error())
	}

	return nil
}

/*
HTTPClient is the client configuration for the Airflow API.
*/
func (cfg *Config) HTTPClient() httpclient.Config {
	return httpclient.Config{
		BaseURL:       cfg.Airflow.BaseURL,
		SkipTLSVerify: !cfg.Airflow.VerifySSL,
		Timeout:       cfg.Airflow.Timeout,
		Auth: &httpclient.BasicAuth{
			Username: cfg.Airflow.Username,
			Password: cfg.Airflow.Password,
		},
	}
}

/*
BaseURL returns the API root for host. Any path on host is replaced by
/api/v1, so "http://h:8080/ui" becomes "http://h:8080/api/v1".
*/
func BaseURL(host string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(host))

	if err != nil {
		return "", fmt.Errorf("invalid airflow host %q: %w", host, err)
	}

	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("invalid airflow host %q: expected http(s)://host[:port]", host)
	}

	return u.ResolveReference(&url.URL{Path: apiPath}).String(), nil
}

/*
ImportAirflowCfg reads an airflow.cfg and returns the webserver base_url.
The configured auth backends are logged, since only Basic auth is used.
*/
func ImportAirflowCfg(path string) (string, error) {
	file, err := ini.Load(path)

	if err != nil {
		return "", fmt.Errorf("failed to read airflow config %s: %w", path, err)
	}

	if backends := file.Section("api").Key("auth_backends").String(); backends != "" {
		log.Info("airflow auth backends", "file", path, "auth_backends", backends)
	}

	return strings.TrimSpace(file.Section("webserver").Key("base_url").String()), nil
}
