package orchestrator

import (
	"errors"
	"fmt"
	"strings"
)

// Phase names one of the two external tool invocations
type Phase string

const (
	PhaseConfigure Phase = "configure"
	PhaseBuild     Phase = "build"
	PhaseInstall   Phase = "install"
)

var (
	// ErrConfigureFailed is matched by every configure-phase ExternalToolError
	ErrConfigureFailed = errors.New("configure failed")
	// ErrBuildFailed is matched by every build-phase ExternalToolError
	ErrBuildFailed = errors.New("build failed")
	// ErrInstallFailed wraps failures copying a prebuilt artifact
	ErrInstallFailed = errors.New("install failed")
)

// ExternalToolError reports a tool invocation that did not exit cleanly.
// ExitCode is -1 when the process could not be started at all.
type ExternalToolError struct {
	Extension string
	Phase     Phase
	ExitCode  int
	Argv      []string
	Dir       string
	Err       error
}

func (e *ExternalToolError) Error() string {
	msg := fmt.Sprintf("%s of %s failed", e.Phase, e.Extension)
	if e.ExitCode >= 0 {
		msg += fmt.Sprintf(" with exit code %d", e.ExitCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg + fmt.Sprintf(" (command: %s, dir: %s)", strings.Join(e.Argv, " "), e.Dir)
}

// Unwrap exposes the phase sentinel and the underlying cause
func (e *ExternalToolError) Unwrap() []error {
	errs := []error{e.phaseErr()}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func (e *ExternalToolError) phaseErr() error {
	switch e.Phase {
	case PhaseConfigure:
		return ErrConfigureFailed
	case PhaseBuild:
		return ErrBuildFailed
	default:
		return ErrInstallFailed
	}
}
