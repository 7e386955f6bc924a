// Command deepsearch-server serves research and discovery over HTTP or MCP stdio.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/bububa/deepsearch/bootstrap"
	"github.com/bububa/deepsearch/config"
	"github.com/bububa/deepsearch/mcpserver"
	"github.com/bububa/deepsearch/metrics"
	"github.com/bububa/deepsearch/server"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deepsearch-server",
		Short: "Serve research and tool discovery",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().String("config", "", "config file")
	cmd.PersistentFlags().StringP("log", "l", "", "Set log level. Available: trace, debug, info, warn, error, fatal")
	cmd.AddCommand(newHTTPCmd())
	cmd.AddCommand(newMCPCmd())
	return cmd
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return cfg, err
	}
	level := cfg.LogLevel
	if v, _ := cmd.Flags().GetString("log"); v != "" {
		level = v
	}
	bootstrap.SetupLogger(os.Stderr, level)
	return cfg, nil
}

func newHTTPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "http",
		Short: "Serve the REST API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
				cfg.Server.Addr = addr
			}
			m := metrics.New()
			deps, err := bootstrap.NewDeps(cfg, m)
			if err != nil {
				return err
			}
			gin.SetMode(gin.ReleaseMode)
			srv := server.New(cfg.Server.Addr, bootstrap.NewResearcher(cfg, deps), bootstrap.NewDiscoverer(cfg, deps), m)
			return srv.Run(cmd.Context())
		},
	}
	cmd.Flags().String("addr", "", "listen address, overrides HTTP_ADDR")
	return cmd
}

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the MCP tools over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			deps, err := bootstrap.NewDeps(cfg, nil)
			if err != nil {
				return err
			}
			srv := mcpserver.New(bootstrap.NewResearcher(cfg, deps), bootstrap.NewDiscoverer(cfg, deps))
			return srv.Serve(cmd.Context(), os.Stdin, os.Stdout)
		},
	}
}

func main() {
	bootstrap.SetupLogger(os.Stderr, config.DefaultLogLevel)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	root := newRootCmd()
	root.SetContext(ctx)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		cancel()
		os.Exit(1)
	}
}
