package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"perplex-cli/internal/app"
	"perplex-cli/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

const version = "0.3.0"

var (
	flagConfig   string
	flagEndpoint string
	flagMock     bool
	flagLogFile  string
	flagLogLevel string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "perplex",
		Short:   "Terminal client for the Perplex-Mini answer service",
		Long:    "Perplex is a terminal client for the Perplex-Mini answer service.\n\nRun it without arguments for the interactive conversation screen, or use\n'ask' for a single question from scripts.",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadSettings()
			if err != nil {
				return err
			}
			application, err := app.NewApplication(cfg, flagMock)
			if err != nil {
				return err
			}
			defer application.Close()

			p := tea.NewProgram(tui.New(application))
			if _, err := p.Run(); err != nil {
				return err
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file (default: "+app.DefaultConfigPath()+")")
	root.PersistentFlags().StringVar(&flagEndpoint, "endpoint", "", "answer service chat endpoint")
	root.PersistentFlags().BoolVar(&flagMock, "mock", false, "answer offline with canned results")
	root.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "write logs to this file")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug|info|warn|error")

	askCmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a single question and print the answer",
		Long:  "Ask sends one question, waits for the answer, and prints it together\nwith its sources.\n\nExamples:\n  - perplex ask \"what is the capital of france?\"\n  - perplex ask --mock \"what is golang?\"",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadSettings()
			if err != nil {
				return err
			}
			application, err := app.NewApplication(cfg, flagMock)
			if err != nil {
				return err
			}
			defer application.Close()

			return runAsk(application, strings.Join(args, " "), cmd.OutOrStdout())
		},
	}
	root.AddCommand(askCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Check that the answer service is reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadSettings()
			if err != nil {
				return err
			}
			client := app.NewAnswerClient(cfg.Endpoint, cfg.Timeout())

			ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout())
			defer cancel()

			msg, err := client.Ping(ctx)
			if err != nil {
				return fmt.Errorf("service unreachable at %s: %w", cfg.Endpoint, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
	root.AddCommand(statusCmd)

	return root
}

// loadSettings resolves the effective config: file, then environment, then
// flags, each layer overriding the previous one.
func loadSettings() (app.Config, error) {
	path := flagConfig
	if path == "" {
		path = app.DefaultConfigPath()
	}
	cfg, err := app.LoadConfig(path)
	if err != nil {
		return app.Config{}, err
	}
	applyEnvOverrides(&cfg)
	if flagEndpoint != "" {
		cfg.Endpoint = flagEndpoint
	}
	if flagLogFile != "" {
		cfg.LogFile = flagLogFile
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *app.Config) {
	if v := os.Getenv("PERPLEX_ENDPOINT"); v != "" {
		cfg.Endpoint = v
	}
	if v := os.Getenv("PERPLEX_TIMEOUT_SECONDS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.TimeoutSeconds = secs
		}
	}
	if v := os.Getenv("PERPLEX_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if v := os.Getenv("PERPLEX_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}

// runAsk drives one submit/await/reconcile round trip outside the TUI.
// Ctrl-C abandons the question instead of killing the process mid-write.
func runAsk(application *app.Application, question string, w io.Writer) error {
	dispatch, ok := application.Session.Submit(question)
	if !ok {
		return fmt.Errorf("nothing to ask")
	}

	outcomes := make(chan app.Outcome, 1)
	go func() { outcomes <- dispatch() }()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	select {
	case <-sigs:
		application.Session.Reset()
		return fmt.Errorf("interrupted")
	case outcome := <-outcomes:
		if !application.Session.Reconcile(outcome) {
			return fmt.Errorf("answer no longer belongs to this session")
		}
	}

	turn, ok := application.Session.Snapshot().LastTurn()
	if !ok {
		return fmt.Errorf("no answer recorded")
	}
	printAnswer(w, turn)
	return nil
}

func printAnswer(w io.Writer, turn app.Turn) {
	fmt.Fprintln(w, turn.Content)
	if len(turn.Sources) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Sources:")
	for i, src := range turn.Sources {
		title := src.Title
		if title == "" {
			title = src.URL
		}
		if src.URL != "" && src.URL != title {
			fmt.Fprintf(w, "  [%d] %s (%s)\n", i+1, title, src.URL)
		} else {
			fmt.Fprintf(w, "  [%d] %s\n", i+1, title)
		}
	}
}
