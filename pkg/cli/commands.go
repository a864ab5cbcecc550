package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/spf13/cobra"

	"github.com/poltergeist/cmakext/pkg/analyzers"
	"github.com/poltergeist/cmakext/pkg/config"
	pcontext "github.com/poltergeist/cmakext/pkg/context"
	"github.com/poltergeist/cmakext/pkg/env"
	"github.com/poltergeist/cmakext/pkg/extension"
	"github.com/poltergeist/cmakext/pkg/host"
	"github.com/poltergeist/cmakext/pkg/logger"
	"github.com/poltergeist/cmakext/pkg/notifier"
	"github.com/poltergeist/cmakext/pkg/orchestrator"
	"github.com/poltergeist/cmakext/pkg/platform"
	"github.com/poltergeist/cmakext/pkg/state"
)

func (c *CLI) newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [extension...]",
		Short: "Configure and build extensions",
		Long: `Configure and build the declared extensions in declaration order.
With arguments, only the named extensions are built. The run stops at the
first failure.`,
		PreRunE: c.bindFlags,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBuild(cmd.Context(), args)
		},
	}

	flags := cmd.Flags()
	addHostFlags(cmd)
	flags.Bool("dry-run", false, "configure only, skip the build phase")
	flags.String("report", "", "write a JSON run report to this file")
	flags.Bool("notify", false, "show a desktop notification when the run ends")

	return cmd
}

func (c *CLI) newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List declared extensions",
		Long:  `List all extensions declared in the configuration file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runList()
		},
	}
}

func (c *CLI) newTargetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "targets [extension...]",
		Short: "Show the CMake targets of each extension's project",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runTargets(args)
		},
	}
}

func (c *CLI) newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration without building",
		Long: `Validate the configuration file, check that every project directory
declares the requested targets and that the platform flags can be resolved.`,
		PreRunE: c.bindFlags,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runValidate()
		},
	}
	addHostFlags(cmd)
	return cmd
}

func (c *CLI) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(c.output, "cmakext v%s\n", c.config.Version)
		},
	}
}

// addHostFlags registers the flags that override host settings
func addHostFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.Bool("debug", false, "build the Debug configuration (default from DEBUG)")
	flags.String("jobs", "", "parallel build jobs, a number or 'auto'")
	flags.String("build-temp", "", "directory for build trees")
	flags.String("output-dir", "", "root directory for built extensions")
	flags.String("platform", "", "platform name, e.g. win-amd64 or linux-x86_64")
	flags.String("compiler", "", "compiler family (msvc, unix, mingw32)")
	flags.String("tool", "", "build-system executable (default cmake)")
	flags.String("executable", "", "interpreter passed to the project (default python3 from PATH)")
}

// bindFlags binds the running command's flags so only its values are seen
func (c *CLI) bindFlags(cmd *cobra.Command, args []string) error {
	return c.viper.BindPFlags(cmd.Flags())
}

func (c *CLI) runBuild(ctx context.Context, names []string) error {
	cfg, all, err := c.loadProject()
	if err != nil {
		return err
	}
	descriptors, err := selectDescriptors(all, names)
	if err != nil {
		return err
	}
	settings, err := c.hostSettings(cfg)
	if err != nil {
		return err
	}
	settings.Dry = c.viper.GetBool("dry-run")
	snap, err := c.snapshot()
	if err != nil {
		return err
	}

	if ctx == nil {
		ctx = context.Background()
	}
	runID := pcontext.GenerateRunID()
	ctx = pcontext.WithRunID(ctx, runID)
	tracker := state.NewTracker(runID)

	o := orchestrator.New(settings, snap,
		orchestrator.WithRunner(c.runner(settings)),
		orchestrator.WithLogger(c.logger),
		orchestrator.WithTracker(tracker),
		orchestrator.WithTool(c.tool(cfg)),
		orchestrator.WithInterpreterVar(cfg.InterpreterVar),
	)

	started := time.Now()
	runErr := o.Run(ctx, descriptors)

	if report := c.viper.GetString("report"); report != "" {
		if err := tracker.WriteReport(report); err != nil {
			c.logger.Warn("Failed to write run report", logger.WithField("error", err))
		} else {
			c.logger.Info("Run report written", logger.WithField("file", report))
		}
	}

	n := c.notifier(cfg)
	if runErr != nil {
		n.NotifyRunFailure(failedExtension(tracker), runErr)
		return runErr
	}
	n.NotifyRunSuccess(len(descriptors), time.Since(started))

	if settings.Dry {
		c.console.Success(fmt.Sprintf("Configured %d extension(s) (dry run)", len(descriptors)))
	} else {
		c.console.Success(fmt.Sprintf("Built %d extension(s)", len(descriptors)))
	}
	return nil
}

func (c *CLI) runList() error {
	_, descriptors, err := c.loadProject()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(c.output, 0, 0, 2, ' ', 0)
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintln(w, bold("NAME\tKIND\tPROJECT\tTARGET\tBUILD ARGS"))

	for _, d := range descriptors {
		project, target := d.ProjectDir(), d.Target()
		if d.Kind() == extension.KindPrebuilt {
			project = d.Source()
		}
		if project == "" {
			project = "-"
		}
		if target == "" {
			target = "-"
		}
		args := strings.Join(d.Definitions(), " ")
		if args == "" {
			args = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", d.Name(), d.Kind(), project, target, args)
	}

	return w.Flush()
}

func (c *CLI) runTargets(names []string) error {
	_, all, err := c.loadProject()
	if err != nil {
		return err
	}
	descriptors, err := selectDescriptors(all, names)
	if err != nil {
		return err
	}

	var failed int
	for _, d := range descriptors {
		if d.Kind() != extension.KindCMake {
			continue
		}

		fmt.Fprintf(c.output, "%s (%s)\n", color.CyanString(d.Name()), d.ProjectDir())
		targets, err := analyzers.NewCMakeAnalyzer(d.ProjectDir()).FindTargets(nil)
		if err != nil {
			c.console.Error(err.Error())
			failed++
			continue
		}

		sort.Slice(targets, func(i, j int) bool { return targets[i].Name < targets[j].Name })
		for _, t := range targets {
			marker := " "
			if t.Name == d.Target() {
				marker = "*"
			}
			fmt.Fprintf(c.output, "  %s %-24s %s\n", marker, t.Name, t.Type)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d project(s) could not be analyzed", failed)
	}
	return nil
}

func (c *CLI) runValidate() error {
	cfg, descriptors, err := c.loadProject()
	if err != nil {
		return err
	}
	settings, err := c.hostSettings(cfg)
	if err != nil {
		return err
	}
	snap, err := c.snapshot()
	if err != nil {
		return err
	}

	var problems []string
	if snap.Generator != "" {
		if err := analyzers.ValidateGenerator(snap.Generator); err != nil {
			problems = append(problems, err.Error())
		}
	}

	for _, d := range descriptors {
		if err := analyzers.ValidateDescriptor(d); err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", d.Name(), err))
			continue
		}
		if d.Kind() != extension.KindCMake {
			continue
		}

		bc, err := orchestrator.NewBuildConfig(d, settings, snap)
		if err == nil {
			_, err = platform.Resolve(bc.Facts())
		}
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", d.Name(), err))
		}
	}

	for _, p := range problems {
		c.console.Error(p)
	}
	if len(problems) > 0 {
		return fmt.Errorf("%d problem(s) found", len(problems))
	}

	c.console.Success(fmt.Sprintf("Configuration is valid (%d extension(s))", len(descriptors)))
	return nil
}

// hostSettings layers defaults, the project file and flags
func (c *CLI) hostSettings(cfg *config.ProjectConfig) (*host.Settings, error) {
	s := host.DefaultSettings()

	override := func(dst *string, fileValue, key string) {
		if fileValue != "" {
			*dst = fileValue
		}
		if v := c.viper.GetString(key); v != "" {
			*dst = v
		}
	}
	override(&s.TempDir, cfg.BuildTemp, "build-temp")
	override(&s.OutputDir, cfg.OutputDir, "output-dir")
	override(&s.Platform, cfg.Platform, "platform")
	override(&s.Exe, cfg.Executable, "executable")
	if cfg.Suffix != "" {
		s.Suffix = cfg.Suffix
	}

	compiler := string(s.Compiler)
	override(&compiler, cfg.Compiler, "compiler")
	s.Compiler = platform.Compiler(compiler)

	if c.viper.IsSet("debug") {
		debug := c.viper.GetBool("debug")
		s.DebugBuild = &debug
	}

	jobs, err := parseJobs(c.viper.GetString("jobs"))
	if err != nil {
		return nil, err
	}
	s.Jobs = jobs

	return s, nil
}

// parseJobs accepts a job count or "auto" for the logical CPU count
func parseJobs(value string) (int, error) {
	switch value {
	case "", "0":
		return 0, nil
	case "auto":
		n, err := cpu.Counts(true)
		if err != nil {
			return 0, fmt.Errorf("failed to count CPUs: %w", err)
		}
		return n, nil
	}

	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid --jobs value %q: want a positive number or 'auto'", value)
	}
	return n, nil
}

func (c *CLI) snapshot() (env.Snapshot, error) {
	if c.config.Environment != nil {
		return c.config.Environment(), nil
	}
	return env.Capture()
}

func (c *CLI) runner(settings *host.Settings) orchestrator.Runner {
	if c.config.Runner != nil {
		return c.config.Runner
	}
	return &orchestrator.ExecRunner{
		Output: c.output,
		LogDir: filepath.Join(settings.TempDir, "logs"),
	}
}

func (c *CLI) tool(cfg *config.ProjectConfig) string {
	if t := c.viper.GetString("tool"); t != "" {
		return t
	}
	return cfg.Tool
}

func (c *CLI) notifier(cfg *config.ProjectConfig) *notifier.BuildNotifier {
	enabled := c.viper.GetBool("notify") || cfg.NotificationsEnabled()
	n := notifier.New(notifier.Config{Enabled: enabled, Beep: true}, c.logger)
	if c.config.Notify != nil {
		n.WithSender(c.config.Notify)
	}
	return n
}

// failedExtension names the extension that stopped the run
func failedExtension(tracker *state.Tracker) string {
	for _, st := range tracker.Snapshot().Extensions {
		if st.Status == state.StatusFailed {
			return st.Name
		}
	}
	return "build"
}
