// Command discover prints the MCP endpoint descriptor of the capability request read from stdin.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/bububa/deepsearch/bootstrap"
	"github.com/bububa/deepsearch/config"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "discover [request]",
		Short:         "Discover the tools serving a capability request",
		Long:          "Extracts the capabilities of the request, searches tools for each of them and prints an MCP endpoint descriptor as JSON.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}
	cmd.Flags().String("config", "", "config file")
	cmd.Flags().StringP("log", "l", "", "Set log level. Available: trace, debug, info, warn, error, fatal")
	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(cmd.ErrOrStderr(), "Describe the capabilities you need: ")
	}
	request, err := bootstrap.ReadInput(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}
	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	level := cfg.LogLevel
	if v, _ := cmd.Flags().GetString("log"); v != "" {
		level = v
	}
	bootstrap.SetupLogger(os.Stderr, level)
	deps, err := bootstrap.NewDeps(cfg, nil)
	if err != nil {
		return err
	}
	descriptor, err := bootstrap.NewDiscoverer(cfg, deps).Discover(cmd.Context(), request)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(descriptor)
}

func main() {
	bootstrap.SetupLogger(os.Stderr, config.DefaultLogLevel)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	root := newRootCmd()
	root.SetContext(ctx)
	if err := root.Execute(); err != nil {
		log.Debug().Err(err).Msg("discovery failed")
		fmt.Fprintln(os.Stderr, bootstrap.FailureMessage(err, bootstrap.DiscoverSubject))
		cancel()
		os.Exit(1)
	}
}
