package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dshills/designcritic/internal/config"
	"github.com/dshills/designcritic/internal/logging"
)

var version = "0.1.0"

type rootFlags struct {
	configPath string
	verbose    bool
	logJSON    bool
}

func newRootCmd() *cobra.Command {
	rf := &rootFlags{}
	root := &cobra.Command{
		Use:           "designcritic",
		Short:         "Structured LLM critiques of UI and graphic designs",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&rf.configPath, "config", "", "Config file path (default: ~/.designcritic/config.toml)")
	pf.BoolVar(&rf.verbose, "verbose", false, "Log processing steps to stderr")
	pf.BoolVar(&rf.logJSON, "log-json", false, "Log as JSON")

	root.AddCommand(
		newReviewCmd(rf),
		newServeCmd(rf),
		newBatchCmd(rf),
		newInstructionsCmd(),
		newProfilesCmd(),
		newConfigCmd(rf),
	)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		var ee *exitErr
		if errors.As(err, &ee) {
			fmt.Fprintln(os.Stderr, ee.msg)
			os.Exit(ee.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads the config and builds the logger for a command.
func (rf *rootFlags) setup() (*config.Config, *zap.Logger, error) {
	path := rf.configPath
	if path == "" {
		path = config.Path()
	}
	cfg, err := config.LoadFrom(path)
	if err != nil {
		return nil, nil, exitError(3, "%v", err)
	}
	if rf.verbose {
		cfg.LogLevel = "debug"
	}
	if rf.logJSON {
		cfg.LogJSON = true
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogJSON)
	if err != nil {
		return nil, nil, exitError(3, "%v", err)
	}
	return cfg, log, nil
}

type exitErr struct {
	code int
	msg  string
}

func (e *exitErr) Error() string { return e.msg }

func exitError(code int, format string, args ...any) error {
	return &exitErr{code: code, msg: fmt.Sprintf(format, args...)}
}
