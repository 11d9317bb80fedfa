// Package cliexec wraps invocations of the OpenClaw CLI. All consumers go
// through the Runner interface so the bootstrap flow can be exercised in
// tests without a real binary. Output handling matches what the desktop
// shell renders: stdout and stderr are combined, trimmed, and clipped to a
// fixed budget with a truncation marker.
package cliexec

import (
	"os/exec"
	"runtime"
	"strings"
)

// OutputBudget is the maximum number of bytes of subprocess output kept for
// logs and error details.
const OutputBudget = 1200

// Runner executes a binary with an argument vector and reports whether it
// exited zero together with its shaped combined output. The error is
// reserved for failures to launch the process at all; a non-zero exit is
// ok=false with a nil error.
type Runner interface {
	Run(binary string, args ...string) (ok bool, output string, err error)
}

// ExecRunner is the production Runner backed by os/exec.
type ExecRunner struct{}

// Run executes the binary and captures its combined output.
func (ExecRunner) Run(binary string, args ...string) (bool, string, error) {
	cmd := exec.Command(binary, args...)
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	if err != nil {
		if _, exited := err.(*exec.ExitError); !exited {
			return false, "", err
		}
	}
	return err == nil, SummarizeOutput(stdout.String(), stderr.String()), nil
}

// RunInteractive runs the binary under a pseudo-terminal wrapper so commands
// that refuse to emit OAuth URLs without a TTY still produce output. On
// Unix this uses `script -q /dev/null`; elsewhere, or when script is not
// usable, it falls back to a plain invocation.
func (r ExecRunner) RunInteractive(binary string, args ...string) (bool, string, error) {
	if runtime.GOOS != "windows" {
		wrapped := append([]string{"-q", "/dev/null", binary}, args...)
		cmd := exec.Command("script", wrapped...)
		var stdout, stderr strings.Builder
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
		err := cmd.Run()
		if err == nil {
			return true, NormalizeInteractiveOutput(SummarizeOutput(stdout.String(), stderr.String())), nil
		}
		if _, exited := err.(*exec.ExitError); exited {
			return false, NormalizeInteractiveOutput(SummarizeOutput(stdout.String(), stderr.String())), nil
		}
		// script itself missing; fall through to a direct run.
	}
	return r.Run(binary, args...)
}

// SummarizeOutput combines stdout and stderr, trims surrounding whitespace,
// and clips the result to OutputBudget bytes.
func SummarizeOutput(stdout, stderr string) string {
	combined := stdout
	if stderr != "" {
		if combined != "" {
			combined += "\n"
		}
		combined += stderr
	}
	return Clip(strings.TrimSpace(combined))
}

// Clip truncates text to OutputBudget bytes, appending a marker when
// anything was dropped.
func Clip(text string) string {
	if len(text) > OutputBudget {
		return text[:OutputBudget] + "...(truncated)"
	}
	return text
}

// StripANSI removes ANSI escape sequences, carriage returns, and other
// control characters (except newline and tab) from terminal output.
func StripANSI(text string) string {
	var out strings.Builder
	out.Grow(len(text))
	bytes := []byte(text)
	i := 0
	for i < len(bytes) {
		b := bytes[i]
		if b == 0x1b {
			i++
			if i < len(bytes) && bytes[i] == '[' {
				i++
			}
			for i < len(bytes) {
				c := bytes[i]
				i++
				if c >= '@' && c <= '~' {
					break
				}
			}
			continue
		}
		if b == '\r' {
			i++
			continue
		}
		if b < 0x20 && b != '\n' && b != '\t' {
			i++
			continue
		}
		out.WriteByte(b)
		i++
	}
	return out.String()
}

// NormalizeInteractiveOutput cleans up output captured through a TTY
// wrapper. Spinner-heavy commands render one character per line once ANSI
// cursor movement is stripped; when most lines are single characters the
// lines are merged back together before clipping.
func NormalizeInteractiveOutput(raw string) string {
	stripped := StripANSI(raw)
	lines := nonEmptyLines(stripped)
	if len(lines) == 0 {
		return ""
	}

	singles := 0
	for _, line := range lines {
		if len([]rune(line)) == 1 {
			singles++
		}
	}
	if len(lines) > 40 && singles*100/len(lines) >= 65 {
		lines = nonEmptyLines(strings.Join(lines, ""))
	}

	return Clip(strings.Join(lines, "\n"))
}

func nonEmptyLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}
