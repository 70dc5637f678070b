package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/hyperifyio/callfinder/internal/app"
	"github.com/hyperifyio/callfinder/internal/finder"
	"github.com/hyperifyio/callfinder/internal/server"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		log.Error().Err(err).Msg("callfinder failed")
	}
	os.Exit(exitCode(err))
}

// exitCode maps errors to the process exit status: 2 for an unreadable input
// table, 1 for anything else (mostly configuration problems).
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, finder.ErrInputUnreadable):
		return 2
	default:
		return 1
	}
}

type rootFlags struct {
	configPath string
	envFile    string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	rf := &rootFlags{}
	root := &cobra.Command{
		Use:           "callfinder",
		Short:         "Find and summarise calls for proposals from a spreadsheet of subjects and URLs",
		Version:       fmt.Sprintf("%s (%s, %s)", app.BuildVersion, app.BuildCommit, app.BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setLogLevel(rf.verbose)
		},
	}
	root.PersistentFlags().StringVarP(&rf.configPath, "config", "c", "", "Config file (.yaml, .json or .toml)")
	root.PersistentFlags().StringVar(&rf.envFile, "env-file", "", "Dotenv file to load (default .env)")
	root.PersistentFlags().BoolVarP(&rf.verbose, "verbose", "v", false, "Verbose logging")

	root.AddCommand(newRunCmd(rf), newServeCmd(rf))
	return root
}

func setLogLevel(verbose bool) {
	level := zerolog.InfoLevel
	if s := strings.TrimSpace(os.Getenv("LOG_LEVEL")); s != "" {
		if l, err := zerolog.ParseLevel(strings.ToLower(s)); err == nil {
			level = l
		}
	}
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
}

func newRunCmd(rf *rootFlags) *cobra.Command {
	pf := &pipelineFlags{}
	var output string
	cmd := &cobra.Command{
		Use:   "run [input.xlsx|input.csv]",
		Short: "Process an input table and write a report",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, rf, pf)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				cfg.InputPath = args[0]
			}
			if cmd.Flags().Changed("output") {
				cfg.OutputPath = output
			}
			a, err := app.New(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("init app: %w", err)
			}
			res, out, err := a.Run(cmd.Context())
			app.LogSummary(res.Diagnostics, res.Warning)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Report path (default <input>-calls.<format>)")
	pf.bind(cmd)
	return cmd
}

func newServeCmd(rf *rootFlags) *cobra.Command {
	pf := &pipelineFlags{}
	var (
		addr      string
		rateLimit int
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the upload API (/process, /health)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, rf, pf)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("addr") {
				if p := strings.TrimSpace(os.Getenv("PORT")); p != "" {
					addr = ":" + p
				}
			}
			s := &server.Server{Base: cfg, RateLimit: rateLimit}
			return s.ListenAndServe(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8000", "Listen address")
	cmd.Flags().IntVar(&rateLimit, "rate-limit", 30, "Requests per minute per client IP on /process")
	pf.bind(cmd)
	return cmd
}
