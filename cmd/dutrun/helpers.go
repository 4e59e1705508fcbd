package main

import (
	"os"

	clierrors "github.com/dutrun/dutrun/internal/errors"
	"github.com/dutrun/dutrun/internal/output"
	"github.com/dutrun/dutrun/internal/prompt"
	"github.com/dutrun/dutrun/internal/script"
	"github.com/dutrun/dutrun/internal/seriallink"
)

// loadScript reads and validates a test script, mapping failures onto the
// CLIError exit-code scheme (script-level errors, exit 2).
func loadScript(path string) (*script.Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, clierrors.ScriptUnreadable(path, err)
	}

	s, err := script.Parse(data)
	if err != nil {
		return nil, clierrors.ScriptInvalid(path, err)
	}

	return s, nil
}

// selectPort interactively picks a serial port when none was given on the
// command line.
func selectPort(out *output.Writer) (string, error) {
	p := prompt.New(out)
	if !p.CanPrompt() {
		return "", clierrors.CannotPrompt("the serial port")
	}

	ports, err := seriallink.List()
	if err != nil {
		return "", clierrors.Wrap(clierrors.ExitScript, "Failed to enumerate serial ports", err)
	}

	if len(ports) == 0 {
		return "", clierrors.NoPortsFound()
	}

	options := make([]string, len(ports))
	for i, pi := range ports {
		label := pi.Name
		if pi.Product != "" {
			label += " (" + pi.Product + ")"
		}
		options[i] = label
	}

	idx, err := p.Select("Select a serial port:", options)
	if err != nil {
		return "", clierrors.Wrap(clierrors.ExitScript, "Port selection failed", err)
	}

	return ports[idx].Name, nil
}
