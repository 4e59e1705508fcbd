package main

import (
	"github.com/spf13/cobra"

	"github.com/dutrun/dutrun/internal/doctor"
	"github.com/dutrun/dutrun/internal/output"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose common issues",
		Long: `Run diagnostic checks to identify environment issues.

Checks performed:
  - Serial ports present on this machine
  - Configuration readability
  - State directory writability
  - Pseudo-terminal support (needed by 'dutrun sim')`,
		Example: `  dutrun doctor`,
		Args:    noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())

			out.Println("dutrun Doctor")
			out.Println("=============")
			out.Println()

			runner := doctor.New()
			results := runner.Run(cmd.Context())

			renderDoctorResults(out, results)

			return nil
		},
	}
}

// renderDoctorResults prints check results in aligned columns followed by a
// pass/fail/warning summary line.
func renderDoctorResults(out *output.Writer, results []doctor.Result) {
	maxNameLen := 0
	for _, r := range results {
		if len(r.Name) > maxNameLen {
			maxNameLen = len(r.Name)
		}
	}

	for _, r := range results {
		padding := maxNameLen - len(r.Name) + 4

		switch r.Status {
		case doctor.StatusPass:
			out.Success("%-*s%s", len(r.Name)+padding, r.Name, r.Message)
		case doctor.StatusWarn:
			out.Warning("%-*s%s", len(r.Name)+padding, r.Name, r.Message)
		case doctor.StatusFail:
			out.Failure("%-*s%s", len(r.Name)+padding, r.Name, r.Message)
		default:
			out.Print("%s %-*s%s\n", r.Status.Symbol(), len(r.Name)+padding, r.Name, r.Message)
		}

		if r.Detail != "" {
			out.Muted("    %s", r.Detail)
		}
	}

	passed, failed, warnings := doctor.Summary(results)
	out.Println()
	out.Print("%d passed", passed)
	if failed > 0 {
		out.Print(", %d failed", failed)
	}
	if warnings > 0 {
		out.Print(", %d warning(s)", warnings)
	}
	out.Println()
}
