package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/AnatoleLucet/reactor"
	"github.com/AnatoleLucet/reactor/internal/scenario"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	MaxUpdates  int
	FailOnError bool
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>...",
		Short: "Replay scenario files and print their trace",
		Long: `Replay one or more scenario files and print their trace.

Example:
  reactor run ./scenarios/basic.yaml
  reactor run --max-updates 10 ./scenarios/*.yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(opts, args, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.MaxUpdates, "max-updates", 0, "circular update threshold (default 100)")
	cmd.Flags().BoolVar(&opts.FailOnError, "fail-on-error", false, "exit with an error if a scenario reported errors")

	return cmd
}

func runScenarios(opts *RunOptions, files []string, cmd *cobra.Command) error {
	failed := 0

	for i, file := range files {
		s, err := scenario.LoadFile(file)
		if err != nil {
			return fmt.Errorf("%s: %w", file, err)
		}

		runOpts := []reactor.Option{reactor.WithLogger(slog.Default())}
		if opts.MaxUpdates > 0 {
			runOpts = append(runOpts, reactor.WithMaxUpdateCount(opts.MaxUpdates))
		}

		slog.Debug("running scenario", "file", file, "name", s.Name)
		result, err := scenario.Run(s, runOpts...)
		if err != nil {
			return fmt.Errorf("%s: %w", file, err)
		}

		if i > 0 {
			fmt.Fprintln(cmd.OutOrStdout())
		}
		if len(files) > 1 {
			fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", s.Name)
		}
		fmt.Fprint(cmd.OutOrStdout(), result.String())

		if result.Errors > 0 {
			failed++
		}
	}

	if opts.FailOnError && failed > 0 {
		return fmt.Errorf("%d scenario(s) reported errors", failed)
	}

	return nil
}
