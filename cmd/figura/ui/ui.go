// Package ui provides the terminal output helpers of the figura CLI.
package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
)

var (
	out   io.Writer = os.Stdout
	in    io.Reader = os.Stdin
	quiet bool
)

// Init applies the color and quiet settings.
func Init(noColor, q bool) {
	if noColor {
		color.NoColor = true
	}
	quiet = q
}

// Spinner wraps a spinner for indeterminate work.
type Spinner struct {
	spinner *spinner.Spinner
}

// NewSpinner creates a spinner with the given message.
func NewSpinner(message string) *Spinner {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + message
	s.Writer = os.Stderr
	return &Spinner{spinner: s}
}

// Start starts the animation unless output is quiet.
func (s *Spinner) Start() {
	if !quiet {
		s.spinner.Start()
	}
}

// Stop stops the animation and clears the line.
func (s *Spinner) Stop() {
	s.spinner.Stop()
}

// ProgressBar wraps a progress bar for counted work.
type ProgressBar struct {
	bar *progressbar.ProgressBar
}

// NewProgressBar creates a bar with the given total and description.
func NewProgressBar(total int, description string) *ProgressBar {
	w := io.Writer(os.Stderr)
	if quiet {
		w = io.Discard
	}
	bar := progressbar.NewOptions(
		total,
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(w),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("figures"),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(w, "\n")
		}),
		progressbar.OptionSetRenderBlankState(true),
	)
	return &ProgressBar{bar: bar}
}

// Set moves the bar to current.
func (p *ProgressBar) Set(current int) {
	_ = p.bar.Set(current)
}

// Finish completes the bar.
func (p *ProgressBar) Finish() {
	_ = p.bar.Finish()
}

// Section prints a bold heading.
func Section(title string) {
	color.New(color.Bold).Fprintln(out, title)
}

// Success displays a success message.
func Success(format string, args ...any) {
	fmt.Fprintf(out, "%s %s\n", color.GreenString("✓"), fmt.Sprintf(format, args...))
}

// Warning displays a warning message.
func Warning(format string, args ...any) {
	fmt.Fprintf(out, "%s %s\n", color.YellowString("⚠"), fmt.Sprintf(format, args...))
}

// Info displays an informational message.
func Info(format string, args ...any) {
	fmt.Fprintf(out, "%s %s\n", color.CyanString("ℹ"), fmt.Sprintf(format, args...))
}

// Row prints a label and value aligned in two columns.
func Row(label string, value any) {
	fmt.Fprintf(out, "  %-22s %v\n", color.New(color.Faint).Sprint(label), value)
}

// Interactive reports whether stdin is a terminal a prompt can be
// answered from.
func Interactive() bool {
	f, ok := in.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

// Confirm asks a yes/no question. Anything but y or yes declines.
func Confirm(message string) (bool, error) {
	fmt.Fprintf(out, "%s %s [y/N]: ", color.CyanString("?"), message)
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && answer == "" {
		return false, err
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes", nil
}
