package main

import (
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/dutrun/dutrun/internal/config"
	"github.com/dutrun/dutrun/internal/engine"
	clierrors "github.com/dutrun/dutrun/internal/errors"
	"github.com/dutrun/dutrun/internal/observability"
	"github.com/dutrun/dutrun/internal/output"
	"github.com/dutrun/dutrun/internal/seriallink"
	"github.com/dutrun/dutrun/internal/transcript"
)

// runReport is the JSON-mode result of a run sequence.
type runReport struct {
	Port   string          `json:"port"`
	Script string          `json:"script"`
	Passed bool            `json:"passed"`
	Runs   []runReportItem `json:"runs"`
}

type runReportItem struct {
	Run     int    `json:"run"`
	Outcome string `json:"outcome"`
}

func newRunCmd() *cobra.Command {
	var (
		baud           int
		transcriptPath string
		runs           int
		writeTimeout   int
		pollInterval   int
	)

	cmd := &cobra.Command{
		Use:   "run [port] <script>",
		Short: "Execute a test script against the DUT",
		Long: `Execute a scripted functional test over a serial port.

The runner waits for the script's start prompt, sends the start response,
then answers scripted prompts as they appear in the incoming byte stream
until the end prompt is seen or the DUT goes quiet for the idle timeout.

When the port argument is omitted on a terminal, dutrun offers an
interactive pick from the ports on this machine.`,
		Example: `  dutrun run /dev/ttyUSB0 blink-test.json
  dutrun run /dev/ttyUSB0 blink-test.json -b 115200 -n 5 -o blink.log
  dutrun run blink-test.json            # interactive port selection`,
		Args: rangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())
			logger := observability.FromContext(cmd.Context())
			cfg := config.Load()

			var port, scriptPath string
			if len(args) == 2 {
				port, scriptPath = args[0], args[1]
			} else {
				scriptPath = args[0]

				var err error
				if port, err = selectPort(out); err != nil {
					return err
				}
			}

			s, err := loadScript(scriptPath)
			if err != nil {
				return err
			}

			if baud <= 0 {
				baud = cfg.BaudRate()
			}
			if runs <= 0 {
				runs = cfg.Runs()
			}

			pollIdle := cfg.PollInterval()
			if pollInterval > 0 {
				pollIdle = time.Duration(pollInterval) * time.Millisecond
			}

			writeDeadline := cfg.WriteTimeout()
			if writeTimeout > 0 {
				writeDeadline = time.Duration(writeTimeout) * time.Second
			}

			var tlog *transcript.Log
			if transcriptPath != "" {
				tlog, err = transcript.Open(transcriptPath)
				if err != nil {
					return clierrors.TranscriptOpenFailed(transcriptPath, err)
				}
				defer func() { _ = tlog.Close() }()
			}

			link, err := seriallink.Open(port, seriallink.Options{
				BaudRate:     baud,
				ReadTimeout:  pollIdle,
				WriteTimeout: writeDeadline,
			})
			if err != nil {
				return clierrors.PortOpenFailed(port, err)
			}
			defer func() { _ = link.Close() }()

			logger.Info("test starting",
				slog.String("port", port),
				slog.String("script", scriptPath),
				slog.Int("baud", baud),
				slog.Int("runs", runs))

			var echo io.Writer
			if out.Verbose && !out.JSON {
				echo = out
			}

			eng := engine.New(link, s, engine.Options{
				Recorder: tlog,
				Echo:     echo,
				Logger:   logger,
				PollIdle: pollIdle,
			})

			result := eng.RunSequence(cmd.Context(), runs)

			return reportSequence(out, result, runs, port, scriptPath)
		},
	}

	cmd.Flags().IntVarP(&baud, "baud", "b", 0, "Serial baud rate (default 9600)")
	cmd.Flags().StringVarP(&transcriptPath, "transcript", "o", "", "Log all serial traffic to FILE")
	cmd.Flags().IntVarP(&runs, "runs", "n", 0, "Run the test NUM times (default 1)")
	cmd.Flags().IntVar(&writeTimeout, "write-timeout", 0, "Response write deadline in seconds (default 10)")
	cmd.Flags().IntVar(&pollInterval, "poll-interval", 0, "Link poll interval in milliseconds (default 50)")

	return cmd
}

// reportSequence prints per-run outcomes and converts the sequence result
// into the process exit status: nil when every run ended cleanly, a
// test-level CLIError otherwise.
func reportSequence(out *output.Writer, result *engine.SequenceResult, wantRuns int, port, scriptPath string) error {
	if out.JSON {
		report := runReport{
			Port:   port,
			Script: scriptPath,
			Passed: result.Passed(wantRuns),
		}
		for _, r := range result.Runs {
			report.Runs = append(report.Runs, runReportItem{Run: r.Run, Outcome: r.Outcome.String()})
		}

		if err := out.PrintJSON(report); err != nil {
			return err
		}

		if !report.Passed {
			return clierrors.TestFailed()
		}

		return nil
	}

	var firstFailure *clierrors.CLIError

	for _, r := range result.Runs {
		switch r.Outcome {
		case engine.OutcomeEnded:
			out.Success("Run %d ended cleanly", r.Run)
		case engine.OutcomeStartFailed:
			out.Failure("Run %d: timeout attempting to start test", r.Run)
			if firstFailure == nil {
				firstFailure = clierrors.StartFailed(r.Run)
			}
		case engine.OutcomeRunFailed:
			out.Failure("Run %d: response write timeout", r.Run)
			if firstFailure == nil {
				firstFailure = clierrors.RunFailed(r.Run)
			}
		case engine.OutcomeTimedOut:
			out.Failure("Run %d: test timed out waiting for end prompt", r.Run)
			if firstFailure == nil {
				firstFailure = clierrors.TestTimedOut(r.Run)
			}
		}
	}

	if firstFailure != nil {
		return firstFailure
	}

	if !result.Passed(wantRuns) {
		// Sequence cut short without a recorded failure; should not happen.
		return clierrors.TestFailed()
	}

	out.Success("All %d run(s) ended cleanly", wantRuns)

	return nil
}
