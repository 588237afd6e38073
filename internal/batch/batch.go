// Package batch runs one reconciliation pass: load the input file, fold it
// through the reconciler, then write the deduplicated leads and the changelog
// concurrently.
package batch

import (
	"context"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/agentstation/leadrecon/internal/leadfile"
	"github.com/agentstation/leadrecon/pkg/changelog"
	"github.com/agentstation/leadrecon/pkg/constants"
	"github.com/agentstation/leadrecon/pkg/errors"
	"github.com/agentstation/leadrecon/pkg/logging"
	"github.com/agentstation/leadrecon/pkg/reconciler"
	"github.com/agentstation/leadrecon/pkg/save"
)

// Outputs names the two destinations of a run.
type Outputs struct {
	Deduplicated string
	Changelog    string
}

// Paths returns the destinations in write order.
func (o Outputs) Paths() []string {
	return []string{o.Deduplicated, o.Changelog}
}

// OutputsIn places both outputs in dir under their fixed names.
func OutputsIn(dir string) Outputs {
	return Outputs{
		Deduplicated: filepath.Join(dir, constants.DedupedFileName),
		Changelog:    filepath.Join(dir, constants.ChangelogFileName),
	}
}

// ExecutableDir returns the directory holding the running binary.
func ExecutableDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", errors.WrapIO("resolve", "executable", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe), nil
}

// Report describes a finished run.
type Report struct {
	Input   string
	Outputs Outputs
	Result  *reconciler.Result

	// Written lists the destinations that were saved successfully.
	Written []string
}

// Runner executes batch runs.
type Runner struct {
	reconciler reconciler.Reconciler
	outputs    Outputs
}

// NewRunner creates a runner writing to outputs.
func NewRunner(r reconciler.Reconciler, outputs Outputs) *Runner {
	return &Runner{reconciler: r, outputs: outputs}
}

// Run loads input, reconciles it and writes both outputs.
//
// Load and usage errors abort before anything is written. The two writes are
// independent: a failure in one never stops the other, and the returned
// *errors.WriteError lists every destination that could not be saved. The
// report is returned even when writes fail.
func (r *Runner) Run(ctx context.Context, input string) (*Report, error) {
	ctx = logging.WithInput(ctx, input)
	logger := logging.FromContext(ctx)

	list, err := leadfile.Load(input)
	if err != nil {
		return nil, err
	}
	logger.Debug().Int("leads", len(list)).Msg("Loaded input")

	result, err := r.reconciler.Reconcile(logging.WithOperation(ctx, "reconcile"), list)
	if err != nil {
		return nil, err
	}

	report := &Report{Input: input, Outputs: r.outputs, Result: result}
	err = r.write(logging.WithOperation(ctx, "write"), report)
	return report, err
}

// write saves both outputs concurrently and waits for both.
func (r *Runner) write(ctx context.Context, report *Report) error {
	logger := logging.FromContext(ctx)
	records := report.Result.Records

	tasks := []struct {
		path string
		save func() error
	}{
		{r.outputs.Deduplicated, func() error {
			return save.Leads(records.Current(), save.WithPath(r.outputs.Deduplicated))
		}},
		{r.outputs.Changelog, func() error {
			return save.Text(changelog.Render(records), save.WithPath(r.outputs.Changelog))
		}},
	}

	// No shared context: one failed write must not cancel the other.
	var g errgroup.Group
	failures := make([]error, len(tasks))
	for i, task := range tasks {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				failures[i] = err
				return err
			}
			failures[i] = task.save()
			return failures[i]
		})
	}
	_ = g.Wait()

	writeErr := &errors.WriteError{}
	for i, task := range tasks {
		if failures[i] != nil {
			logger.Error().Err(failures[i]).Str("path", task.path).Msg("Output write failed")
			writeErr.Add(task.path, failures[i])
			continue
		}
		logger.Info().Str("path", task.path).Msg("Output written")
		report.Written = append(report.Written, task.path)
	}
	return writeErr.ErrOrNil()
}
