/*
Package cmd implements the command-line interface for the Airflow MCP server.
It provides commands to serve the tools, inspect them and call them.
*/
package cmd

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/theapemachine/airflow-mcp/pkg/config"
	"github.com/theapemachine/airflow-mcp/pkg/httpclient"
	"github.com/theapemachine/airflow-mcp/pkg/logging"
	"github.com/theapemachine/airflow-mcp/pkg/registry"
	"github.com/theapemachine/airflow-mcp/pkg/schema"
	"github.com/theapemachine/airflow-mcp/pkg/tools"
)

/*
Embed a mini filesystem into the binary to hold the default config file.
This will be written to the home directory of the user running the service,
which allows a developer to easily override the config file.
*/
//go:embed cfg/*
var embedded embed.FS

var (
	projectName = "airflow-mcp"
	cfgFile     string

	rootCmd = &cobra.Command{
		Use:   projectName,
		Short: "An MCP server exposing the Airflow REST API as tools",
		Long:  longRoot,
	}
)

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yml",
		"config file (default is $HOME/."+projectName+"/config.yml)",
	)
}

/*
initConfig writes the default config file to the user's home directory if it
doesn't exist, then reads it. Environment variables override file values.
*/
func initConfig() {
	if err := writeConfig(); err != nil {
		log.Fatal("failed to write config", "error", err)
	}

	v := viper.GetViper()
	config.SetDefaults(v)

	if err := config.BindEnv(v); err != nil {
		log.Fatal("failed to bind environment", "error", err)
	}

	home, _ := os.UserHomeDir()
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AddConfigPath(home + "/." + projectName)

	if err := v.ReadInConfig(); err != nil {
		log.Fatal("failed to read config", "error", err)
	}
}

/*
writeConfig writes the embedded default config to ~/.airflow-mcp unless a
file is already there.
*/
func writeConfig() (err error) {
	var (
		home, _ = os.UserHomeDir()
		fh      fs.File
		buf     bytes.Buffer
	)

	configDir := home + "/." + projectName

	if !CheckFileExists(configDir) {
		if err = os.MkdirAll(configDir, os.ModePerm); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	fullPath := configDir + "/" + cfgFile

	if CheckFileExists(fullPath) {
		return nil
	}

	if fh, err = embedded.Open("cfg/" + cfgFile); err != nil {
		return fmt.Errorf("failed to open embedded config file: %w", err)
	}

	defer fh.Close()

	if _, err = io.Copy(&buf, fh); err != nil {
		return fmt.Errorf("failed to read embedded config file: %w", err)
	}

	if err = os.WriteFile(fullPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	log.Info("wrote config file", "path", fullPath)
	return nil
}

func CheckFileExists(filePath string) bool {
	_, err := os.Stat(filePath)
	return !errors.Is(err, os.ErrNotExist)
}

/*
setup loads the configuration, configures logging and builds the registry
every command works from.
*/
func setup() (*config.Config, *registry.Registry, error) {
	cfg, err := config.Load(viper.GetViper())

	if err != nil {
		return nil, nil, err
	}

	if err = logging.Init(cfg.Log.Level, cfg.Log.File); err != nil {
		return nil, nil, err
	}

	var opts []schema.Option

	if cfg.Schema.Strict {
		opts = append(opts, schema.WithStrictCycles())
	}

	resolver := schema.Default(opts...)

	if cfg.Schema.Dir != "" {
		resolver = schema.NewDir(cfg.Schema.Dir, opts...)
	}

	client := httpclient.New(cfg.HTTPClient())
	reg, err := registry.Build(tools.Airflow(), resolver, client)

	if err != nil {
		return nil, nil, fmt.Errorf("failed to build tool registry: %w", err)
	}

	log.Debug("registry built", "tools", len(reg.List()), "airflow", cfg.Airflow.BaseURL)
	return cfg, reg, nil
}

var longRoot = `
airflow-mcp serves the Airflow stable REST API (v1) as Model Context Protocol
tools. Every tool answers with the Airflow JSON response, and its output schema
is published as an MCP resource.
`
