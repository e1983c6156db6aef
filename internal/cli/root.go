package cli

import (
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/wesleyorama2/restclient/internal/logging"
	"github.com/wesleyorama2/restclient/internal/output"
)

var version = "0.1.0"

// rootOptions holds the persistent flags and the logger built from them.
type rootOptions struct {
	logLevel string
	logFile  string
	noColor  bool
	verbose  bool
	format   string

	logger zerolog.Logger
	closer io.Closer
}

// formatter returns the output formatter for cmd, disabling color when
// stdout is not a terminal.
func (o *rootOptions) formatter(cmd *cobra.Command) (output.FormatProvider, error) {
	format, err := output.ParseFormat(o.format)
	if err != nil {
		return nil, err
	}
	noColor := output.NoColorFor(cmd.OutOrStdout(), o.noColor)
	return output.GetFormatter(format, o.verbose, noColor), nil
}

// closeLog releases the log file sink. It is safe to call more than once.
func (o *rootOptions) closeLog() error {
	if o.closer == nil {
		return nil
	}
	err := o.closer.Close()
	o.closer = nil
	return err
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	cmd, _ := newRootCmd()
	return cmd
}

func newRootCmd() (*cobra.Command, *rootOptions) {
	opts := &rootOptions{logger: zerolog.Nop()}

	rootCmd := &cobra.Command{
		Use:     "restclient",
		Short:   "A terminal HTTP client built on a fluent request builder",
		Version: version,
		Long: `restclient sends HTTP requests from the command line or from request
collection files, extracts values from JSON responses and validates them
against JSON schemas.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, closer, err := logging.New(logging.Options{
				Level:   opts.logLevel,
				File:    opts.logFile,
				NoColor: output.NoColorFor(cmd.ErrOrStderr(), opts.noColor),
				Console: cmd.ErrOrStderr(),
			})
			if err != nil {
				return err
			}
			opts.logger = logger
			opts.closer = closer
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return opts.closeLog()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	flags.StringVar(&opts.logFile, "log-file", "", "Also write JSON logs to this file (rotated)")
	flags.BoolVar(&opts.noColor, "no-color", false, "Disable colored output")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose output")
	flags.StringVar(&opts.format, "format", "text", "Output format (text, json, yaml)")

	for _, method := range []string{"GET", "POST", "PUT", "PATCH", "DELETE"} {
		rootCmd.AddCommand(newMethodCmd(opts, method))
	}
	rootCmd.AddCommand(newRunCmd(opts))
	rootCmd.AddCommand(newBenchCmd(opts))

	return rootCmd, opts
}

// Execute runs the command tree with os.Args.
func Execute() error {
	return executeRoot(newRootCmd())
}

// executeRoot runs cmd and closes the log sink even when the command fails,
// since cobra skips PersistentPostRunE after a RunE error.
func executeRoot(cmd *cobra.Command, opts *rootOptions) error {
	err := cmd.Execute()
	if closeErr := opts.closeLog(); err == nil {
		err = closeErr
	}
	return err
}
