package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/qforge-dev/qforge/internal/app"
)

// ExitError is an error carrying a specific process exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated app
// config, a boolean indicating the program should exit cleanly, or an
// ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("qforge", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
qforge - a pulse-program compiler and dispatcher for qubit control hardware.

Usage:
  qforge [options] [PROGRAM_PATH]

Arguments:
  PROGRAM_PATH
    Path to an .hcl pulse-program file.

Options:
`)
		flagSet.PrintDefaults()
	}

	programFlag := flagSet.String("program", "", "Path to the pulse-program file.")
	pFlag := flagSet.String("p", "", "Path to the pulse-program file (shorthand).")
	topologyFlag := flagSet.String("topology", "", "Path to the bus/instrument topology file.")
	tFlag := flagSet.String("t", "", "Path to the bus/instrument topology file (shorthand).")
	planFlag := flagSet.Bool("plan", false, "Compile and print the schedule and assembly without touching instruments.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	programPath := ""
	if *programFlag != "" {
		programPath = *programFlag
	} else if *pFlag != "" {
		programPath = *pFlag
	} else if flagSet.NArg() > 0 {
		programPath = flagSet.Arg(0)
	}
	slog.Debug("Program path determined.", "path", programPath)

	if programPath == "" {
		flagSet.Usage()
		return nil, true, nil
	}

	topologyPath := *topologyFlag
	if topologyPath == "" {
		topologyPath = *tFlag
	}
	if topologyPath == "" {
		return nil, false, &ExitError{Code: 2, Message: "a topology file is required (-topology or -t)"}
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	cfg, err := app.NewConfig(app.Config{
		ProgramPath:  programPath,
		TopologyPath: topologyPath,
		Plan:         *planFlag,
		LogFormat:    logFormat,
		LogLevel:     logLevel,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	return cfg, false, nil
}
