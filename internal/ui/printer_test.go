package ui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestPrinter() (*Printer, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return NewPrinter(&out, &errOut), &out, &errOut
}

func TestPrinterMessages(t *testing.T) {
	tests := []struct {
		name    string
		print   func(p *Printer)
		wantOut string
		wantErr string
	}{
		{
			name:    "progress",
			print:   func(p *Printer) { p.Progress("Installing", "yday") },
			wantOut: "Installing yday...\n",
		},
		{
			name:    "compiling",
			print:   func(p *Printer) { p.Compiling("yday", "Bazel") },
			wantOut: "Compiling yday with Bazel...\n",
		},
		{
			name:  "already installed",
			print: func(p *Printer) { p.AlreadyInstalled("yday", "/home/u/.pget/bin/yday") },
			wantOut: "yday is already installed at /home/u/.pget/bin/yday\n" +
				"Use 'pget upgrade yday' to update to the latest version.\n",
		},
		{
			name:    "installed",
			print:   func(p *Printer) { p.Deployed("yday", "/r/yday", false, false) },
			wantOut: "Successfully installed yday to /r/yday\n",
		},
		{
			name:    "compiled",
			print:   func(p *Printer) { p.Deployed("yday", "/r/yday", true, false) },
			wantOut: "Successfully compiled and installed yday to /r/yday\n",
		},
		{
			name:    "upgraded",
			print:   func(p *Printer) { p.Deployed("yday", "/r/yday", false, true) },
			wantOut: "Successfully upgraded yday to /r/yday\n",
		},
		{
			name:    "compiled upgrade",
			print:   func(p *Printer) { p.Deployed("yday", "/r/yday", true, true) },
			wantOut: "Successfully compiled and upgraded yday to /r/yday\n",
		},
		{
			name:    "no candidate",
			print:   func(p *Printer) { p.NoCandidate("ghost-app") },
			wantErr: "ERROR: The application ghost-app has no candidate.\n",
		},
		{
			name:    "compile failed",
			print:   func(p *Printer) { p.CompileFailed("yday", "Bazel", "ERROR: build failed\n\n") },
			wantErr: "ERROR: Failed to compile yday with Bazel.\nERROR: build failed\n",
		},
		{
			name:    "compile failed without output",
			print:   func(p *Printer) { p.CompileFailed("yday", "Bazel", "") },
			wantErr: "ERROR: Failed to compile yday with Bazel.\n",
		},
		{
			name:    "not installed",
			print:   func(p *Printer) { p.NotInstalled("yday") },
			wantOut: "yday is not installed. Use 'pget install yday' to install it.\n",
		},
		{
			name:    "removed",
			print:   func(p *Printer) { p.Removed("yday", false) },
			wantOut: "Successfully removed yday\n",
		},
		{
			name:    "removed with sidecar",
			print:   func(p *Printer) { p.Removed("pget", true) },
			wantOut: "Successfully removed pget\nRemoved pget files directory\n",
		},
		{
			name:    "remove missing",
			print:   func(p *Printer) { p.RemoveMissing("yday") },
			wantErr: "WARNING: The application yday is not installed.\n",
		},
		{
			name:    "list empty",
			print:   func(p *Printer) { p.Installed(nil) },
			wantOut: "No applications installed.\n",
		},
		{
			name:    "list",
			print:   func(p *Printer) { p.Installed([]string{"a", "b"}) },
			wantOut: "Installed applications:\n  a\n  b\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, out, errOut := newTestPrinter()
			tt.print(p)
			assert.Equal(t, tt.wantOut, out.String())
			assert.Equal(t, tt.wantErr, errOut.String())
		})
	}
}
