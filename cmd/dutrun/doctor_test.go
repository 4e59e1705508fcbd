package main

import (
	"testing"

	"github.com/dutrun/dutrun/internal/doctor"
	"github.com/dutrun/dutrun/internal/testutil"
)

// renderDoctorOutput reproduces the doctor command's output with the given
// results, so golden tests can run without real checks.
func renderDoctorOutput(t *testing.T, results []doctor.Result) string {
	t.Helper()

	out, buf := testWriter()

	out.Println("dutrun Doctor")
	out.Println("=============")
	out.Println()

	renderDoctorResults(out, results)

	return buf.String()
}

func TestDoctorOutput_AllPass_Golden(t *testing.T) {
	results := []doctor.Result{
		{Name: "Serial Ports", Status: doctor.StatusPass, Message: "2 port(s) found", Detail: "/dev/ttyUSB0"},
		{Name: "Configuration", Status: doctor.StatusPass, Message: "baud 9600, 1 run(s), poll 50ms"},
		{Name: "State Directory", Status: doctor.StatusPass, Message: "/home/op/.local/state/dutrun"},
		{Name: "PTY Support", Status: doctor.StatusPass, Message: "pty pair allocated"},
	}

	got := renderDoctorOutput(t, results)
	testutil.AssertGolden(t, got, "doctor_all_pass.golden")
}

func TestDoctorOutput_Mixed_Golden(t *testing.T) {
	results := []doctor.Result{
		{Name: "Serial Ports", Status: doctor.StatusWarn, Message: "no serial ports found", Detail: "connect the DUT, or use 'dutrun sim' to test without hardware"},
		{Name: "Configuration", Status: doctor.StatusPass, Message: "baud 9600, 1 run(s), poll 50ms"},
		{Name: "State Directory", Status: doctor.StatusFail, Message: "state directory not writable", Detail: "mkdir /nope: permission denied"},
		{Name: "PTY Support", Status: doctor.StatusWarn, Message: "pty allocation failed", Detail: "'dutrun sim' will not work: open /dev/ptmx: no such file"},
	}

	got := renderDoctorOutput(t, results)
	testutil.AssertGolden(t, got, "doctor_mixed.golden")
}
