// Command research writes a markdown research report about the topic read from stdin.
package main

import (
	"context"
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
		Use:           "research [topic]",
		Short:         "Research an API, tool or technology",
		Long:          "Searches the topic along release date, reviews, use cases, summary and security, then prints a markdown report.",
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
		fmt.Fprint(cmd.ErrOrStderr(), "Enter the topic to research: ")
	}
	topic, err := bootstrap.ReadInput(cmd.InOrStdin(), args)
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
	report, err := bootstrap.NewResearcher(cfg, deps).Research(cmd.Context(), topic)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), report.Markdown)
	return nil
}

func main() {
	bootstrap.SetupLogger(os.Stderr, config.DefaultLogLevel)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	root := newRootCmd()
	root.SetContext(ctx)
	if err := root.Execute(); err != nil {
		log.Debug().Err(err).Msg("research failed")
		fmt.Fprintln(os.Stderr, bootstrap.FailureMessage(err, bootstrap.ResearchSubject))
		cancel()
		os.Exit(1)
	}
}
