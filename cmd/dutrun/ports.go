package main

import (
	"github.com/spf13/cobra"

	clierrors "github.com/dutrun/dutrun/internal/errors"
	"github.com/dutrun/dutrun/internal/output"
	"github.com/dutrun/dutrun/internal/seriallink"
)

func newPortsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List serial ports on this machine",
		Long: `Enumerate the serial ports present on this machine, with USB vendor,
product, and serial-number details where available.`,
		Example: `  dutrun ports
  dutrun ports --json`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())

			spin := out.Spinner("Scanning serial ports")
			spin.Start()

			ports, err := seriallink.List()
			if err != nil {
				spin.StopWithFailure("")
				return clierrors.Wrap(clierrors.ExitScript, "Failed to enumerate serial ports", err)
			}

			spin.Stop()

			if out.JSON {
				return out.PrintJSON(ports)
			}

			if len(ports) == 0 {
				out.Warning("No serial ports found")
				return nil
			}

			for _, p := range ports {
				if p.IsUSB {
					detail := p.VID + ":" + p.PID
					if p.Product != "" {
						detail = p.Product + ", " + detail
					}
					if p.SerialNumber != "" {
						detail += ", sn " + p.SerialNumber
					}
					out.Print("%s  (USB: %s)\n", p.Name, detail)
				} else {
					out.Print("%s\n", p.Name)
				}
			}

			return nil
		},
	}
}
