package progress

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/trebuchet-org/profile-factory/internal/domain"
	"github.com/trebuchet-org/profile-factory/internal/usecase"
)

// SpinnerProgressReporter shows in-flight steps on a spinner and prints a line per completed step.
// Events arrive from several goroutines.
type SpinnerProgressReporter struct {
	mu       sync.Mutex
	spinner  *spinner.Spinner
	out      io.Writer
	inflight map[string]inflightStep
}

type inflightStep struct {
	label string
	start time.Time
}

// NewSpinnerProgressReporter creates a new spinner-based progress reporter
func NewSpinnerProgressReporter() *SpinnerProgressReporter {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.HideCursor = false

	return &SpinnerProgressReporter{
		spinner:  s,
		out:      os.Stderr,
		inflight: make(map[string]inflightStep),
	}
}

// OnEvent updates the spinner for a deployment event
func (r *SpinnerProgressReporter) OnEvent(ctx context.Context, event domain.DeploymentEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := stepKey(event)
	switch event.Status {
	case domain.StatusPending:
		r.inflight[key] = inflightStep{label: describe(event), start: time.Now()}
	case domain.StatusComplete:
		step, ok := r.inflight[key]
		delete(r.inflight, key)
		duration := ""
		if ok {
			duration = fmt.Sprintf(" (%s)", time.Since(step.start).Round(time.Millisecond))
		}
		r.println(color.New(color.FgGreen), fmt.Sprintf("✓ %s%s", completed(event), duration))
	}
	r.refresh()
}

// Info prints an info message
func (r *SpinnerProgressReporter) Info(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.println(color.New(color.FgCyan), message)
}

// Error prints an error message
func (r *SpinnerProgressReporter) Error(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.println(color.New(color.FgRed), message)
}

// Stop halts the spinner, e.g. when the run is over
func (r *SpinnerProgressReporter) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.spinner.Active() {
		r.spinner.Stop()
	}
}

// println prints above the spinner. Caller holds mu.
func (r *SpinnerProgressReporter) println(c *color.Color, line string) {
	wasActive := r.spinner.Active()
	if wasActive {
		r.spinner.Stop()
	}
	c.Fprintln(r.out, line)
	if wasActive {
		r.spinner.Start()
	}
}

// refresh shows the in-flight steps on the spinner. Caller holds mu.
func (r *SpinnerProgressReporter) refresh() {
	if len(r.inflight) == 0 {
		if r.spinner.Active() {
			r.spinner.Stop()
		}
		return
	}
	labels := make([]string, 0, len(r.inflight))
	for _, step := range r.inflight {
		labels = append(labels, step.label)
	}
	sort.Strings(labels)
	r.spinner.Suffix = " " + color.New(color.FgYellow).Sprint(strings.Join(labels, " · "))
	if !r.spinner.Active() {
		r.spinner.Start()
	}
}

// stepKey pairs Pending and Complete events. Uploads carry no transaction
// and run one at a time.
func stepKey(e domain.DeploymentEvent) string {
	if e.Transaction != nil {
		return e.Transaction.Hash.Hex()
	}
	return e.StepKey()
}

func describe(e domain.DeploymentEvent) string {
	switch e.Kind {
	case domain.EventMetadataUpload:
		return "uploading metadata"
	case domain.EventBaseContractDeployment:
		return fmt.Sprintf("deploying %s base contract", e.ContractName)
	case domain.EventProxyDeployment:
		if e.FunctionName == domain.FunctionInitialize {
			return fmt.Sprintf("initializing %s", e.ContractName)
		}
		return fmt.Sprintf("deploying %s proxy", e.ContractName)
	case domain.EventContractDeployment:
		return fmt.Sprintf("deploying %s", e.ContractName)
	}
	return fmt.Sprintf("%s.%s", e.ContractName, e.FunctionName)
}

func completed(e domain.DeploymentEvent) string {
	switch {
	case e.Kind == domain.EventMetadataUpload:
		return "uploaded " + e.URL
	case e.Kind == domain.EventTransaction:
		return fmt.Sprintf("%s.%s confirmed", e.ContractName, e.FunctionName)
	}
	if addr, ok := e.ContractAddress(); ok {
		return fmt.Sprintf("%s at %s", describe(e), addr.Hex())
	}
	return describe(e)
}

var _ usecase.ProgressSink = (*SpinnerProgressReporter)(nil)
