package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"github.com/vk/optree/internal/app"
	"github.com/vk/optree/internal/solver"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(format string, args ...any) *ExitError {
	return &ExitError{Code: 2, Message: fmt.Sprintf(format, args...)}
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := pflag.NewFlagSet("optree", pflag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.SortFlags = false

	flagSet.Usage = func() {
		fmt.Fprint(output, `
optree - Delay bounds for flows in rate-latency networks.

Usage:
  optree [options] [NETWORK_PATH]

Arguments:
  NETWORK_PATH
    Path to a single .hcl file or a directory containing .hcl files.

Options:
`)
		flagSet.PrintDefaults()
	}

	networkFlag := flagSet.StringP("network", "n", "", "Path to the network file or directory.")
	pluginFlag := flagSet.StringP("plugin", "p", app.DefaultPlugin, "Multiplexing plugin: 'arbitrary', 'fifo', 'synthetic-arbitrary' or 'synthetic-fifo'.")
	foiFlag := flagSet.StringP("foi", "f", "", "Flow of interest. Empty analyzes every flow with a nesting tree.")
	algorithmFlag := flagSet.StringP("algorithm", "a", solver.Meta.String(),
		fmt.Sprintf("Solver algorithm: one of %s, or a legacy numeric code.", strings.Join(solver.AlgorithmNames(), ", ")))
	maxEvalsFlag := flagSet.Int("max-evals", 0, "Maximum objective evaluations per solver run. 0 or less is unlimited.")
	xtolFlag := flagSet.Float64("xtol-rel", solver.DefaultConfig().XTolRel, "Relative tolerance on the parameters. 0 disables it.")
	initialFlag := flagSet.StringToString("initial", nil, "Initial parameter values, keyed by parameter name or cross-flow alias (e.g. x1=0.1,x2=0).")
	convexityFlag := flagSet.Bool("convexity", false, "Sample the Hessian of each delay and report whether it is convex.")
	timeoutFlag := flagSet.Duration("timeout", 0, "Time limit per flow of interest. 0 is unlimited.")
	outputFlag := flagSet.StringP("output", "o", app.DefaultOutput, "Report format. Options: 'text' or 'json'.")
	metricsPortFlag := flagSet.Int("metrics-port", 0, "Port for the HTTP health check and metrics server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, usageError("%s", err.Error())
	}
	slog.Debug("Arguments parsed successfully.")

	paths := flagSet.Args()
	if *networkFlag != "" {
		paths = append([]string{*networkFlag}, paths...)
	}
	if len(paths) > 1 {
		return nil, false, usageError("expected a single network path, got %s", strings.Join(paths, ", "))
	}
	path := ""
	if len(paths) == 1 {
		path = paths[0]
	}
	slog.Debug("Network path determined.", "path", path)

	if path == "" {
		slog.Debug("No network path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, usageError("invalid log-format: must be 'text' or 'json'")
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, usageError("invalid log-level: must be 'debug', 'info', 'warn', or 'error'")
	}

	initial, err := parseInitial(*initialFlag)
	if err != nil {
		return nil, false, usageError("invalid initial: %v", err)
	}
	slog.Debug("CLI parameter validation complete.")

	// Analysis settings left at their defaults yield to the network file.
	cfg := app.Config{
		NetworkPath:    path,
		FlowOfInterest: *foiFlag,
		Initial:        initial,
		Convexity:      *convexityFlag,
		Timeout:        *timeoutFlag,
		Output:         strings.ToLower(*outputFlag),
		LogFormat:      logFormat,
		LogLevel:       logLevel,
		MetricsPort:    *metricsPortFlag,
	}
	if flagSet.Changed("plugin") {
		cfg.Plugin = *pluginFlag
	}
	if flagSet.Changed("algorithm") {
		cfg.Algorithm = *algorithmFlag
	}
	if flagSet.Changed("max-evals") {
		cfg.MaxEvals = maxEvalsFlag
	}
	if flagSet.Changed("xtol-rel") {
		cfg.XTolRel = xtolFlag
	}

	config, err := app.NewConfig(cfg)
	if err != nil {
		return nil, false, usageError("%s", err.Error())
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}

func parseInitial(raw map[string]string) (map[string]float64, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[string]float64, len(raw))
	for _, k := range keys {
		v, err := strconv.ParseFloat(strings.TrimSpace(raw[k]), 64)
		if err != nil {
			return nil, fmt.Errorf("%s=%s: not a number", k, raw[k])
		}
		out[strings.TrimSpace(k)] = v
	}
	return out, nil
}
