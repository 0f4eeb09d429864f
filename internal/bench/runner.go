package bench

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/nxadm/tail"
)

// TruffleError is returned when the truffle test process fails. Output
// holds what truffle printed, which usually contains the compiler error.
type TruffleError struct {
	Err    error
	Output string
}

func (e *TruffleError) Error() string {
	return fmt.Sprintf("truffle test failed: %v", e.Err)
}

func (e *TruffleError) Unwrap() error {
	return e.Err
}

// Runner executes `truffle test` inside a Workspace.
type Runner struct {
	Workspace Workspace

	// Command overrides the truffle invocation; the first element is the
	// program. Empty means node_modules/.bin/truffle test, or truffle from
	// PATH when the workspace has no local install.
	Command []string
}

func (r *Runner) command(ctx context.Context) *exec.Cmd {
	argv := r.Command
	if len(argv) == 0 {
		bin := r.Workspace.TruffleBin()
		if _, err := os.Stat(bin); err != nil {
			if path, lookErr := exec.LookPath("truffle"); lookErr == nil {
				bin = path
			}
		}
		argv = []string{bin, "test"}
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = r.Workspace.Root
	cmd.Env = append(os.Environ(), "OUTPUT_FILE_PATH="+r.Workspace.ResultsFile())
	return cmd
}

// Run executes the test process with its stdout going to the workspace's
// truffle output file, follows that file at debug level while the process
// runs and returns the decoded results.
func (r *Runner) Run(ctx context.Context) (*Results, error) {
	outPath := r.Workspace.TruffleOutput()
	out, err := os.Create(outPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create truffle output file: %w", err)
	}
	defer out.Close()

	var stderr bytes.Buffer
	cmd := r.command(ctx)
	cmd.Stdout = out
	cmd.Stderr = &stderr

	follower, err := tail.TailFile(outPath, tail.Config{
		Follow:    true,
		MustExist: true,
		Poll:      true,
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to follow truffle output: %w", err)
	}
	followed := make(chan struct{})
	go func() {
		defer close(followed)
		for line := range follower.Lines {
			if line.Err != nil {
				slog.Debug("Truffle output read error", "error", line.Err)
				continue
			}
			slog.Debug("truffle", "line", line.Text)
		}
	}()

	slog.Debug("Starting truffle", "cmd", strings.Join(cmd.Args, " "), "dir", cmd.Dir)
	runErr := cmd.Run()

	_ = follower.StopAtEOF()
	<-followed
	follower.Cleanup()

	if runErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		output, _ := os.ReadFile(outPath)
		return nil, &TruffleError{
			Err:    runErr,
			Output: strings.TrimSpace(string(output) + "\n" + stderr.String()),
		}
	}

	results, err := ReadResults(r.Workspace.ResultsFile())
	if err != nil {
		return nil, errors.Join(errors.New("truffle test produced no usable results"), err)
	}
	return results, nil
}
