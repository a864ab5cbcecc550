// Package orchestrator drives the external build tool through the configure
// and build phases for each declared extension.
package orchestrator

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	pcontext "github.com/poltergeist/cmakext/pkg/context"
	"github.com/poltergeist/cmakext/pkg/env"
	"github.com/poltergeist/cmakext/pkg/extension"
	"github.com/poltergeist/cmakext/pkg/host"
	"github.com/poltergeist/cmakext/pkg/logger"
	"github.com/poltergeist/cmakext/pkg/platform"
	"github.com/poltergeist/cmakext/pkg/state"
	"github.com/poltergeist/cmakext/pkg/utils"
)

const (
	// DefaultTool is the build-system executable
	DefaultTool = "cmake"
	// DefaultInterpreterVar is the cache variable receiving the host executable
	DefaultInterpreterVar = "PYTHON_EXECUTABLE"
)

// Orchestrator configures and builds extensions one at a time
type Orchestrator struct {
	host           host.Host
	env            env.Snapshot
	runner         Runner
	logger         logger.Logger
	tracker        *state.Tracker
	tool           string
	interpreterVar string
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithRunner replaces the process runner
func WithRunner(r Runner) Option {
	return func(o *Orchestrator) { o.runner = r }
}

// WithLogger sets the logger
func WithLogger(log logger.Logger) Option {
	return func(o *Orchestrator) { o.logger = log }
}

// WithTracker records phase transitions in t
func WithTracker(t *state.Tracker) Option {
	return func(o *Orchestrator) { o.tracker = t }
}

// WithTool overrides the build-system executable
func WithTool(tool string) Option {
	return func(o *Orchestrator) {
		if tool != "" {
			o.tool = tool
		}
	}
}

// WithInterpreterVar overrides the cache variable that receives the executable
func WithInterpreterVar(name string) Option {
	return func(o *Orchestrator) {
		if name != "" {
			o.interpreterVar = name
		}
	}
}

// New creates an orchestrator for one run
func New(h host.Host, snap env.Snapshot, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		host:           h,
		env:            snap,
		tool:           DefaultTool,
		interpreterVar: DefaultInterpreterVar,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.runner == nil {
		o.runner = &ExecRunner{}
	}
	if o.logger == nil {
		o.logger = logger.NewNopLogger()
	}
	if o.tracker == nil {
		o.tracker = state.NewTracker(pcontext.GenerateRunID())
	}
	return o
}

// Tracker returns the state tracker of this run
func (o *Orchestrator) Tracker() *state.Tracker {
	return o.tracker
}

// Run processes descriptors in declaration order and stops at the first error
func (o *Orchestrator) Run(ctx context.Context, descriptors []extension.Descriptor) error {
	ctx = pcontext.EnrichContext(ctx)
	log := logger.WithContext(ctx, o.logger)

	o.tracker.Reset()
	for _, d := range descriptors {
		o.tracker.Declare(d.Name())
	}

	log.Info(fmt.Sprintf("Building %d extension(s)", len(descriptors)))
	for _, d := range descriptors {
		if err := o.BuildExtension(ctx, d); err != nil {
			return err
		}
	}
	log.Success(fmt.Sprintf("All extensions processed in %s", pcontext.GetDuration(ctx).Round(time.Millisecond)))
	return nil
}

// BuildExtension produces the artifact for a single descriptor
func (o *Orchestrator) BuildExtension(ctx context.Context, d extension.Descriptor) error {
	ctx = pcontext.WithExtension(ctx, d.Name())
	o.tracker.Declare(d.Name())

	switch d.Kind() {
	case extension.KindPrebuilt:
		return o.Install(ctx, d)
	case extension.KindCMake:
		cfg, err := NewBuildConfig(d, o.host, o.env)
		if err != nil {
			// CMake extensions only fail from a running phase
			o.transition(o.extLogger(ctx, d), d.Name(), state.StatusConfiguring)
			o.fail(d.Name(), err)
			return err
		}
		if err := o.Configure(ctx, d, cfg); err != nil {
			return err
		}
		if cfg.DryRun {
			o.extLogger(ctx, d).Info("Dry run, skipping build")
			return nil
		}
		return o.Build(ctx, d, cfg)
	default:
		err := fmt.Errorf("unknown extension kind %q for %s", d.Kind(), d.Name())
		o.fail(d.Name(), err)
		return err
	}
}

// ConfigureArgs assembles the configure command line for d
func (o *Orchestrator) ConfigureArgs(d extension.Descriptor, cfg BuildConfig) ([]string, error) {
	flags, err := platform.Resolve(cfg.Facts())
	if err != nil {
		return nil, err
	}

	projectDir, err := filepath.Abs(d.ProjectDir())
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project directory %s: %w", d.ProjectDir(), err)
	}

	argv := []string{
		o.tool,
		projectDir,
		"-DCMAKE_LIBRARY_OUTPUT_DIRECTORY=" + cfg.OutputDir,
		"-D" + o.interpreterVar + "=" + cfg.Executable,
		"-DCMAKE_BUILD_TYPE=" + cfg.BuildType,
	}
	argv = append(argv, cfg.ExtraArgs...)
	argv = append(argv, d.Definitions()...)
	argv = append(argv, flags.Configure...)
	return argv, nil
}

// BuildArgs assembles the build command line for d
func (o *Orchestrator) BuildArgs(d extension.Descriptor, cfg BuildConfig) ([]string, error) {
	flags, err := platform.Resolve(cfg.Facts())
	if err != nil {
		return nil, err
	}

	argv := []string{o.tool, "--build", "."}
	argv = append(argv, flags.Build...)
	if d.Target() != "" {
		argv = append(argv, "--target="+d.Target())
	}
	return argv, nil
}

// Configure runs the configure phase in the descriptor's work directory
func (o *Orchestrator) Configure(ctx context.Context, d extension.Descriptor, cfg BuildConfig) error {
	ctx = pcontext.WithPhase(ctx, string(PhaseConfigure))
	log := o.extLogger(ctx, d)
	o.tracker.Declare(d.Name())
	o.transition(log, d.Name(), state.StatusConfiguring)
	o.tracker.Annotate(d.Name(), cfg.WorkDir, cfg.Artifact, cfg.DryRun)

	argv, err := o.ConfigureArgs(d, cfg)
	if err != nil {
		o.fail(d.Name(), err)
		return err
	}

	for _, dir := range []string{cfg.WorkDir, cfg.OutputDir} {
		if err := utils.EnsureDirectory(dir); err != nil {
			err = fmt.Errorf("failed to create %s: %w", dir, err)
			o.fail(d.Name(), err)
			return err
		}
	}

	if err := o.exec(ctx, log, d, PhaseConfigure, argv, cfg.WorkDir); err != nil {
		return err
	}
	o.transition(log, d.Name(), state.StatusConfigured)
	return nil
}

// Build runs the build phase in the descriptor's work directory
func (o *Orchestrator) Build(ctx context.Context, d extension.Descriptor, cfg BuildConfig) error {
	ctx = pcontext.WithPhase(ctx, string(PhaseBuild))
	log := o.extLogger(ctx, d)
	o.transition(log, d.Name(), state.StatusBuilding)

	argv, err := o.BuildArgs(d, cfg)
	if err != nil {
		o.fail(d.Name(), err)
		return err
	}

	if err := o.exec(ctx, log, d, PhaseBuild, argv, cfg.WorkDir); err != nil {
		return err
	}
	o.transition(log, d.Name(), state.StatusBuilt)
	log.Success("Built " + cfg.Artifact)
	return nil
}

// Install copies a prebuilt artifact to the location the host expects
func (o *Orchestrator) Install(ctx context.Context, d extension.Descriptor) error {
	ctx = pcontext.WithPhase(ctx, string(PhaseInstall))
	log := o.extLogger(ctx, d)

	dst, err := o.host.ExtensionPath(d.Name())
	if err != nil {
		err = fmt.Errorf("failed to resolve artifact path for %s: %w", d.Name(), err)
		o.fail(d.Name(), err)
		return err
	}
	o.tracker.Annotate(d.Name(), "", dst, o.host.DryRun())

	if o.host.DryRun() {
		log.Info(fmt.Sprintf("Dry run, would copy %s to %s", d.Source(), dst))
		o.transition(log, d.Name(), state.StatusInstalled)
		return nil
	}

	if err := utils.CopyFile(d.Source(), dst); err != nil {
		toolErr := &ExternalToolError{
			Extension: d.Name(),
			Phase:     PhaseInstall,
			ExitCode:  -1,
			Argv:      []string{"copy", d.Source(), dst},
			Err:       err,
		}
		o.fail(d.Name(), toolErr)
		return toolErr
	}

	o.transition(log, d.Name(), state.StatusInstalled)
	log.Success("Installed " + dst)
	return nil
}

func (o *Orchestrator) exec(ctx context.Context, log logger.Logger, d extension.Descriptor, phase Phase, argv []string, dir string) error {
	cmd := Command{Extension: d.Name(), Argv: argv, Dir: dir}
	log.Info(fmt.Sprintf("Running %s", phase))
	log.Debug("Command", logger.WithField("argv", cmd.String()), logger.WithField("dir", dir))

	started := time.Now()
	code, err := o.runner.Run(ctx, cmd)
	if err == nil && code == 0 {
		log.Debug(fmt.Sprintf("%s finished in %s", phase, time.Since(started).Round(time.Millisecond)))
		return nil
	}

	if err != nil {
		code = -1
	}
	toolErr := &ExternalToolError{
		Extension: d.Name(),
		Phase:     phase,
		ExitCode:  code,
		Argv:      argv,
		Dir:       dir,
		Err:       err,
	}
	log.Error(toolErr.Error())
	o.fail(d.Name(), toolErr)
	return toolErr
}

func (o *Orchestrator) extLogger(ctx context.Context, d extension.Descriptor) logger.Logger {
	return logger.WithContext(ctx, o.logger).WithExtension(d.Name())
}

func (o *Orchestrator) transition(log logger.Logger, name string, to state.Status) {
	if err := o.tracker.Transition(name, to); err != nil {
		log.Warn(err.Error())
	}
}

func (o *Orchestrator) fail(name string, cause error) {
	// Already failed or never started; the error itself still propagates.
	_ = o.tracker.Fail(name, cause)
}
