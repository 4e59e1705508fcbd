package main

import (
	"github.com/spf13/cobra"

	"github.com/dutrun/dutrun/internal/output"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <script>",
		Short: "Validate a test script",
		Long: `Parse and validate a test script without touching any hardware.

Prints the resolved configuration: start/end prompts, effective timeouts
(including defaults), and the user prompts in their match order.`,
		Example: `  dutrun check blink-test.json
  dutrun check blink-test.json --json`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())

			s, err := loadScript(args[0])
			if err != nil {
				return err
			}

			if out.JSON {
				return out.PrintJSON(s)
			}

			out.Success("Script is valid: %s", args[0])
			out.Println()
			out.Print("  start prompt:    %q\n", s.StartPrompt)
			out.Print("  start response:  %q\n", s.StartResponse)
			out.Print("  start timeout:   %ds\n", s.StartTimeout)
			out.Print("  end prompt:      %q\n", s.EndPrompt)
			out.Print("  idle timeout:    %ds\n", s.IdleTimeout)

			if len(s.UserPrompts) == 0 {
				out.Muted("  no user prompts")
				return nil
			}

			out.Print("  user prompts (in match order):\n")
			for i, up := range s.UserPrompts {
				out.Print("    %d. %s: %q -> %q\n", i+1, up.Name, up.Prompt, up.Response)
			}

			return nil
		},
	}
}
