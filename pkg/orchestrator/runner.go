package orchestrator

//go:generate mockgen -destination=../mocks/runner_mock.go -package=mocks github.com/poltergeist/cmakext/pkg/orchestrator Runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/poltergeist/cmakext/pkg/utils"
)

// Command is one external tool invocation
type Command struct {
	// Extension is the descriptor name the command belongs to
	Extension string
	Argv      []string
	Dir       string
}

// String renders the command line
func (c Command) String() string {
	return strings.Join(c.Argv, " ")
}

// Runner executes commands and reports their exit code.
// A non-nil error means the process could not be run at all.
type Runner interface {
	Run(ctx context.Context, cmd Command) (int, error)
}

// ExecRunner runs commands with os/exec, mirroring output to Output and to a
// per-extension log file under LogDir
type ExecRunner struct {
	Output io.Writer
	LogDir string
}

var _ Runner = (*ExecRunner)(nil)

// Run executes the command and waits for it to exit
func (r *ExecRunner) Run(ctx context.Context, cmd Command) (int, error) {
	if len(cmd.Argv) == 0 {
		return -1, errors.New("empty command")
	}

	logFile, err := r.prepareLogFile(cmd.Extension)
	if err != nil && r.Output != nil {
		fmt.Fprintf(r.Output, "warning: %v\n", err)
	}
	defer func() {
		if logFile != nil {
			logFile.Close()
		}
	}()

	started := time.Now()
	r.logToFile(logFile, fmt.Sprintf("\n=== %s at %s ===\n$ %s\n(in %s)\n",
		cmd.Extension, started.Format("2006-01-02 15:04:05"), cmd, cmd.Dir))

	c := exec.CommandContext(ctx, cmd.Argv[0], cmd.Argv[1:]...)
	c.Dir = cmd.Dir

	var writers []io.Writer
	if r.Output != nil {
		writers = append(writers, r.Output)
	}
	if logFile != nil {
		writers = append(writers, logFile)
	}
	if len(writers) > 0 {
		out := io.MultiWriter(writers...)
		c.Stdout = out
		c.Stderr = out
	}

	err = c.Run()
	duration := time.Since(started)
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			r.logToFile(logFile, fmt.Sprintf("=== exited with %d after %s ===\n", exitErr.ExitCode(), duration))
			return exitErr.ExitCode(), nil
		}
		r.logToFile(logFile, fmt.Sprintf("=== could not start: %v ===\n", err))
		return -1, err
	}

	r.logToFile(logFile, fmt.Sprintf("=== succeeded after %s ===\n", duration))
	return 0, nil
}

func (r *ExecRunner) prepareLogFile(extension string) (*os.File, error) {
	if r.LogDir == "" || extension == "" {
		return nil, nil
	}
	if err := utils.EnsureDirectory(r.LogDir); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	logPath := filepath.Join(r.LogDir, extension+".log")
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return logFile, nil
}

func (r *ExecRunner) logToFile(f *os.File, msg string) {
	if f != nil {
		f.WriteString(msg)
	}
}
