// Package commands implements the astrocam subcommands.
package commands

import (
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/cameraestellar/astrocam-go/internal/config"
)

// Version information - set at build time via ldflags
var Version = "0.1.0"

var (
	configPath string
	logLevel   string
	tracePath  string
	traceSlog  bool
	cameraID   string
	maxExp     string

	cfg config.Config
)

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "astrocam",
		Short:         "Long-exposure capture orchestrator",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(cmd)
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "astrocam.yaml", "configuration file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&tracePath, "trace", "", "write a capture trace (.clog) to this file")
	root.PersistentFlags().BoolVar(&traceSlog, "trace-log", false, "mirror trace events to the debug log")
	root.PersistentFlags().StringVar(&cameraID, "camera", "", "simulated camera id (default: best for long exposures)")
	root.PersistentFlags().StringVar(&maxExp, "max-exposure", "", "override the camera's longest frame, e.g. 10s")

	root.AddCommand(shellCmd(), captureCmd(), serveCmd(), findCmd())
	return root
}

// loadConfig reads the configuration file and applies flag overrides.
func loadConfig(cmd *cobra.Command) error {
	var err error
	if cfg, err = config.Load(configPath); err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("trace") {
		cfg.Trace.Path = tracePath
	}
	if flags.Changed("trace-log") {
		cfg.Trace.Slog = traceSlog
	}
	if flags.Changed("camera") {
		cfg.Simulator.CameraID = cameraID
	}
	if flags.Changed("max-exposure") {
		d, err := parseDuration(maxExp)
		if err != nil {
			return fmt.Errorf("--max-exposure: %w", err)
		}
		cfg.Simulator.MaxExposure = d
	}
	return cfg.Validate()
}

// setupLogging configures the std logger and returns the operational logger.
func setupLogging(level string) *slog.Logger {
	log.SetFlags(log.Ltime | log.Lmicroseconds)

	var lvl slog.Level
	switch level {
	case "debug":
		log.SetFlags(log.Ltime | log.Lmicroseconds | log.Lshortfile)
		lvl = slog.LevelDebug
	case "warn":
		log.SetFlags(log.Ltime)
		lvl = slog.LevelWarn
	case "error":
		log.SetFlags(log.Ltime)
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
