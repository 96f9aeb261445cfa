package ui

import (
	"fmt"
	"io"
	"strings"
)

// Printer writes messages to an output and an error stream.
type Printer struct {
	out, err       io.Writer
	outSty, errSty Styles
}

// NewPrinter returns a Printer writing normal output to out and errors and
// warnings to errOut.
func NewPrinter(out, errOut io.Writer) *Printer {
	return &Printer{
		out:    out,
		err:    errOut,
		outSty: NewStyles(out),
		errSty: NewStyles(errOut),
	}
}

func (p *Printer) line(w io.Writer, s string) {
	fmt.Fprintln(w, s)
}

// Progress announces an operation: "Installing yday...".
func (p *Printer) Progress(verb, name string) {
	p.line(p.out, fmt.Sprintf("%s %s...", verb, name))
}

// Compiling announces a build: "Compiling yday with Bazel...".
func (p *Printer) Compiling(name, tool string) {
	p.line(p.out, fmt.Sprintf("Compiling %s with %s...", name, tool))
}

// Success prints a styled success line.
func (p *Printer) Success(format string, args ...any) {
	p.line(p.out, p.outSty.Success.Render(fmt.Sprintf(format, args...)))
}

// Info prints a plain line.
func (p *Printer) Info(format string, args ...any) {
	p.line(p.out, fmt.Sprintf(format, args...))
}

// Warning prints "WARNING: ..." to the error stream.
func (p *Printer) Warning(format string, args ...any) {
	p.line(p.err, p.errSty.Warning.Render("WARNING: "+fmt.Sprintf(format, args...)))
}

// Error prints "ERROR: ..." to the error stream.
func (p *Printer) Error(format string, args ...any) {
	p.line(p.err, p.errSty.Error.Render("ERROR: "+fmt.Sprintf(format, args...)))
}

// Diagnostics copies tool output to the error stream verbatim.
func (p *Printer) Diagnostics(text string) {
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return
	}
	p.line(p.err, text)
}

// Command styles a shell command for inline use.
func (p *Printer) Command(cmd string) string {
	return p.outSty.Command.Render(cmd)
}

// AlreadyInstalled reports an existing entry and how to update it.
func (p *Printer) AlreadyInstalled(name, path string) {
	p.Info("%s is already installed at %s", name, path)
	p.Info("Use '%s' to update to the latest version.", p.Command("pget upgrade "+name))
}

// Deployed reports a finished install or upgrade.
func (p *Printer) Deployed(name, path string, compiled, upgrade bool) {
	verb := "installed"
	if upgrade {
		verb = "upgraded"
	}
	if compiled {
		p.Success("Successfully compiled and %s %s to %s", verb, name, path)
		return
	}
	p.Success("Successfully %s %s to %s", verb, name, path)
}

// NoCandidate reports that name could not be fetched or has no package.
func (p *Printer) NoCandidate(name string) {
	p.Error("The application %s has no candidate.", name)
}

// CompileFailed reports a failed build followed by the tool's output.
func (p *Printer) CompileFailed(name, tool, diagnostics string) {
	p.Error("Failed to compile %s with %s.", name, tool)
	p.Diagnostics(diagnostics)
}

// NotInstalled reports an upgrade of a missing entry.
func (p *Printer) NotInstalled(name string) {
	p.Info("%s is not installed. Use '%s' to install it.", name, p.Command("pget install "+name))
}

// Removed reports a removal; sidecar is true when the files directory went too.
func (p *Printer) Removed(name string, sidecar bool) {
	p.Success("Successfully removed %s", name)
	if sidecar {
		p.Info("Removed %s files directory", name)
	}
}

// RemoveMissing warns that there was nothing to remove.
func (p *Printer) RemoveMissing(name string) {
	p.Warning("The application %s is not installed.", name)
}

// Installed lists entry names, or the empty-state message.
func (p *Printer) Installed(names []string) {
	if len(names) == 0 {
		p.Info("No applications installed.")
		return
	}
	p.line(p.out, p.outSty.Heading.Render("Installed applications:"))
	for _, name := range names {
		p.Info("  %s", name)
	}
}
