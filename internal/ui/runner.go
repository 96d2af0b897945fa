package ui

import (
	"fmt"
	"io"
	"os"
	"time"
)

// RunnerConfig describes a command run: its banner and the steps it reports.
type RunnerConfig struct {
	Title           string    // Command title (e.g., "Connect")
	Command         string    // Full command (e.g., "earctl status")
	Params          []Param   // Parameters to display in header
	Steps           []string  // Step names, in order
	Troubleshooting []string  // Tips shown when the operation fails
	// TipsFor, when set, picks tips for a specific error; a nil result
	// falls back to Troubleshooting.
	TipsFor func(error) []string
	Quiet           bool      // Print nothing; used for JSON output
	Output          io.Writer // Output writer (default: os.Stdout)
}

// Runner prints a header, step progress and a result box around one
// operation.
type Runner struct {
	config   RunnerConfig
	progress *Progress
	out      io.Writer
	width    int
}

// NewRunner creates a runner
func NewRunner(config RunnerConfig) *Runner {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.Quiet {
		config.Output = io.Discard
	}
	width := GetTerminalWidth()
	return &Runner{
		config:   config,
		progress: NewProgress(config.Steps...).SetWidth(width),
		out:      config.Output,
		width:    width,
	}
}

// Operation does the work and returns the details for the success box.
type Operation func(onStep StepCallback) ([]Param, error)

// Run prints the header, runs op and prints the outcome. op's error is
// returned unchanged.
func (r *Runner) Run(op Operation) error {
	start := time.Now()

	header := NewHeader(r.config.Title, r.config.Command, r.config.Params...).SetWidth(r.width)
	_, _ = fmt.Fprintln(r.out, header.Render())
	_, _ = fmt.Fprintln(r.out)

	details, err := op(r.onStep)
	duration := time.Since(start).Round(time.Millisecond)
	_, _ = fmt.Fprintln(r.out)

	if err != nil {
		tips := r.config.Troubleshooting
		if r.config.TipsFor != nil {
			if t := r.config.TipsFor(err); t != nil {
				tips = t
			}
		}
		result := NewFailureResult(r.config.Title+" failed", err, tips).SetWidth(r.width)
		_, _ = fmt.Fprintln(r.out, result.Render())
		return err
	}

	result := NewSuccessResult(r.config.Title+" complete", details...).SetWidth(r.width)
	result.AddDetail("Duration", duration.String())
	_, _ = fmt.Fprintln(r.out, result.Render())
	return nil
}

func (r *Runner) onStep(stepNumber int, status StepStatus, message string) {
	r.progress.UpdateStep(stepNumber, status, message)
	if stepNumber < 1 || stepNumber > r.progress.Total() {
		return
	}
	line := r.progress.renderStepLine(r.progress.Steps[stepNumber-1])
	if status == StepRunning {
		// overwritten when the step finishes
		_, _ = fmt.Fprint(r.out, line+"\r")
		return
	}
	_, _ = fmt.Fprintln(r.out, line)
}
