package main

import (
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	clierrors "github.com/dutrun/dutrun/internal/errors"
	"github.com/dutrun/dutrun/internal/observability"
	"github.com/dutrun/dutrun/internal/output"
	"github.com/dutrun/dutrun/internal/simdut"
)

func newSimCmd() *cobra.Command {
	var (
		runs    int
		delayMs int
		waitSec int
	)

	cmd := &cobra.Command{
		Use:   "sim <script>",
		Short: "Simulate the DUT side of a test script on a pty",
		Long: `Play the device side of a test script on a pseudo-terminal.

The simulator prints the tty device path, emits the script's start prompt,
waits for the start response, walks the user prompts in order, and ends
with the end prompt. Point 'dutrun run' at the printed path from another
shell to exercise the runner without hardware.`,
		Example: `  dutrun sim blink-test.json
  dutrun sim blink-test.json -n 3 --delay 200`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())
			logger := observability.FromContext(cmd.Context())

			s, err := loadScript(args[0])
			if err != nil {
				return err
			}

			sim, err := simdut.OpenPTY(s, simdut.Options{
				Delay:       time.Duration(delayMs) * time.Millisecond,
				WaitTimeout: time.Duration(waitSec) * time.Second,
				Logger:      logger,
			})
			if err != nil {
				return clierrors.Wrap(clierrors.ExitScript, "Failed to allocate a pty", err)
			}
			defer func() { _ = sim.Close() }()

			out.Info("Simulated DUT listening on %s", sim.TTYName())
			out.Muted("  Run: dutrun run %s %s", sim.TTYName(), args[0])

			logger.Info("simulator started",
				slog.String("tty", sim.TTYName()),
				slog.Int("runs", runs))

			if err := sim.Run(cmd.Context(), runs); err != nil {
				return clierrors.Wrap(clierrors.ExitTest, "Simulation failed", err)
			}

			out.Success("Simulated %d run(s)", runs)

			return nil
		},
	}

	cmd.Flags().IntVarP(&runs, "runs", "n", 1, "Play the script NUM times")
	cmd.Flags().IntVar(&delayMs, "delay", 100, "Delay before each emitted line, in milliseconds")
	cmd.Flags().IntVar(&waitSec, "wait", 30, "How long to wait for each runner response, in seconds")

	return cmd
}
