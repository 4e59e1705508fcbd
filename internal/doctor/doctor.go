// Package doctor provides diagnostic checks for dutrun health.
//
// This package implements a check framework that validates:
//   - Serial ports present on the machine
//   - Configuration file readability
//   - State directory writability
//   - Pseudo-terminal support (needed by 'dutrun sim')
package doctor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/creack/pty"

	"github.com/dutrun/dutrun/internal/config"
	"github.com/dutrun/dutrun/internal/paths"
	"github.com/dutrun/dutrun/internal/seriallink"
)

// Status represents the result of a diagnostic check.
type Status int

const (
	// StatusPass indicates the check passed.
	StatusPass Status = iota
	// StatusWarn indicates a non-critical issue.
	StatusWarn
	// StatusFail indicates a critical failure.
	StatusFail
)

// Symbol returns a plain-text marker for the status.
func (s Status) Symbol() string {
	switch s {
	case StatusPass:
		return "ok"
	case StatusWarn:
		return "warn"
	case StatusFail:
		return "fail"
	default:
		return "?"
	}
}

// Result holds the outcome of a single check.
type Result struct {
	Name    string
	Status  Status
	Message string
	Detail  string // Optional additional detail
}

// Check is a diagnostic check function.
type Check func(ctx context.Context) Result

// Runner executes diagnostic checks.
type Runner struct {
	checks []namedCheck
}

type namedCheck struct {
	name  string
	check Check
}

// New creates a new diagnostic runner with the default checks registered.
func New() *Runner {
	r := &Runner{}

	r.AddCheck("Serial Ports", checkSerialPorts)
	r.AddCheck("Configuration", checkConfiguration)
	r.AddCheck("State Directory", checkStateDir)
	r.AddCheck("PTY Support", checkPTY)

	return r
}

// AddCheck registers a diagnostic check.
func (r *Runner) AddCheck(name string, check Check) {
	r.checks = append(r.checks, namedCheck{name: name, check: check})
}

// Run executes all registered checks and returns the results.
func (r *Runner) Run(ctx context.Context) []Result {
	results := make([]Result, 0, len(r.checks))

	for _, nc := range r.checks {
		result := nc.check(ctx)
		result.Name = nc.name
		results = append(results, result)
	}

	return results
}

// Summary counts passed, failed, and warning results.
func Summary(results []Result) (passed, failed, warnings int) {
	for _, r := range results {
		switch r.Status {
		case StatusPass:
			passed++
		case StatusFail:
			failed++
		case StatusWarn:
			warnings++
		}
	}

	return passed, failed, warnings
}

func checkSerialPorts(_ context.Context) Result {
	ports, err := seriallink.List()
	if err != nil {
		return Result{Status: StatusFail, Message: "enumeration failed", Detail: err.Error()}
	}

	if len(ports) == 0 {
		return Result{
			Status:  StatusWarn,
			Message: "no serial ports found",
			Detail:  "connect the DUT, or use 'dutrun sim' to test without hardware",
		}
	}

	return Result{
		Status:  StatusPass,
		Message: fmt.Sprintf("%d port(s) found", len(ports)),
		Detail:  ports[0].Name,
	}
}

func checkConfiguration(_ context.Context) Result {
	cfg := config.Load()

	return Result{
		Status: StatusPass,
		Message: fmt.Sprintf("baud %d, %d run(s), poll %s",
			cfg.BaudRate(), cfg.Runs(), cfg.PollInterval()),
	}
}

func checkStateDir(_ context.Context) Result {
	stateDir, err := paths.StateRoot()
	if err != nil {
		return Result{Status: StatusFail, Message: "cannot resolve state directory", Detail: err.Error()}
	}

	if err := os.MkdirAll(stateDir, 0o700); err != nil {
		return Result{Status: StatusFail, Message: "state directory not writable", Detail: err.Error()}
	}

	probe := filepath.Join(stateDir, ".doctor-probe")
	if err := os.WriteFile(probe, nil, 0o600); err != nil {
		return Result{Status: StatusFail, Message: "state directory not writable", Detail: err.Error()}
	}
	_ = os.Remove(probe)

	return Result{Status: StatusPass, Message: stateDir}
}

func checkPTY(_ context.Context) Result {
	master, tty, err := pty.Open()
	if err != nil {
		return Result{
			Status:  StatusWarn,
			Message: "pty allocation failed",
			Detail:  "'dutrun sim' will not work: " + err.Error(),
		}
	}

	_ = master.Close()
	_ = tty.Close()

	return Result{Status: StatusPass, Message: "pty pair allocated"}
}
