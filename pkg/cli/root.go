// Package cli provides the command-line interface for cmakext
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/poltergeist/cmakext/pkg/config"
	"github.com/poltergeist/cmakext/pkg/extension"
	"github.com/poltergeist/cmakext/pkg/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes the environment variables that mirror CLI flags
const EnvPrefix = "CMAKEXT"

// CLI encapsulates the command-line interface and makes it testable
// by eliminating global state.
type CLI struct {
	config   *Config
	rootCmd  *cobra.Command
	viper    *viper.Viper
	logger   logger.Logger
	console  *logger.ConsoleLogger
	output   io.Writer
	errorOut io.Writer
}

// NewCLI creates a new CLI instance with the given configuration
func NewCLI(cfg *Config) *CLI {
	return NewCLIWithOutput(cfg, os.Stdout, os.Stderr)
}

// NewCLIWithOutput creates a CLI with custom output writers (for testing)
func NewCLIWithOutput(cfg *Config, output, errorOut io.Writer) *CLI {
	if cfg == nil {
		cfg = NewConfig()
	}

	cli := &CLI{
		config:   cfg,
		viper:    viper.New(),
		output:   output,
		errorOut: errorOut,
		console:  logger.NewConsoleLogger(output, errorOut),
		logger:   logger.NewNopLogger(),
	}

	cli.setupCommands()
	return cli
}

// Execute runs the CLI with the given arguments
func (c *CLI) Execute(args []string) error {
	return c.ExecuteContext(context.Background(), args)
}

// ExecuteContext runs the CLI with context support
func (c *CLI) ExecuteContext(ctx context.Context, args []string) error {
	c.rootCmd.SetArgs(args)
	return c.rootCmd.ExecuteContext(ctx)
}

func (c *CLI) setupCommands() {
	c.rootCmd = &cobra.Command{
		Use:   "cmakext",
		Short: "Build native extensions with CMake",
		Long: `cmakext configures and builds native extension modules with CMake and
places each artifact where the packaging tool expects it.

Extensions are declared in cmakext.config.json (or .yaml).`,

		PersistentPreRunE: c.initializeConfig,
		SilenceUsage:      true,
		SilenceErrors:     true,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}
	c.rootCmd.SetOut(c.output)
	c.rootCmd.SetErr(c.errorOut)

	c.setupFlags()

	c.rootCmd.Version = c.config.Version
	c.rootCmd.SetVersionTemplate("cmakext v{{.Version}}\n")

	c.rootCmd.AddCommand(c.newBuildCmd())
	c.rootCmd.AddCommand(c.newListCmd())
	c.rootCmd.AddCommand(c.newTargetsCmd())
	c.rootCmd.AddCommand(c.newValidateCmd())
	c.rootCmd.AddCommand(c.newInitCmd())
	c.rootCmd.AddCommand(c.newVersionCmd())
}

func (c *CLI) setupFlags() {
	flags := c.rootCmd.PersistentFlags()

	flags.StringVar(&c.config.ConfigFile, "config", "", "config file (default: cmakext.config.json)")
	flags.StringP("verbosity", "v", c.config.Verbosity, "log level (debug, info, warn, error)")
	flags.String("log-file", c.config.LogFile, "also write the log to this file")

	_ = c.viper.BindPFlag("verbosity", flags.Lookup("verbosity"))
	_ = c.viper.BindPFlag("log-file", flags.Lookup("log-file"))
}

func (c *CLI) initializeConfig(cmd *cobra.Command, args []string) error {
	c.viper.SetEnvPrefix(EnvPrefix)
	c.viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.viper.AutomaticEnv()

	c.config.Verbosity = c.viper.GetString("verbosity")
	c.config.LogFile = c.viper.GetString("log-file")
	c.logger = c.newLogger(c.config.Verbosity, c.config.LogFile)
	return nil
}

func (c *CLI) newLogger(level, file string) logger.Logger {
	if c.errorOut == os.Stderr {
		return logger.CreateLogger(file, level)
	}
	return logger.CreateLoggerWithOutput(level, c.errorOut)
}

// loadProject reads the project file and declares its extensions
func (c *CLI) loadProject() (*config.ProjectConfig, []extension.Descriptor, error) {
	path := c.config.ConfigFile
	if path == "" {
		found, err := config.Find(".")
		if err != nil {
			return nil, nil, fmt.Errorf("%w (run 'cmakext init' to create one)", err)
		}
		path = found
	}

	manager := config.NewManager()
	cfg, err := manager.LoadConfig(path)
	if err != nil {
		return nil, nil, err
	}
	c.logger.Debug("Using config file", logger.WithField("file", path))

	// A file-level log level applies unless the flag or environment set one
	if cfg.Logging != nil {
		level := c.config.Verbosity
		if !c.viper.IsSet("verbosity") && cfg.Logging.Level != "" {
			level = cfg.Logging.Level
		}
		c.logger = c.newLogger(level, c.logFile(cfg))
	}

	descriptors, err := config.Descriptors(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, descriptors, nil
}

func (c *CLI) logFile(cfg *config.ProjectConfig) string {
	if c.config.LogFile != "" || cfg.Logging == nil {
		return c.config.LogFile
	}
	return cfg.Logging.File
}

// selectDescriptors keeps the named descriptors, in declaration order
func selectDescriptors(all []extension.Descriptor, names []string) ([]extension.Descriptor, error) {
	if len(names) == 0 {
		return all, nil
	}

	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}

	var selected []extension.Descriptor
	for _, d := range all {
		if wanted[d.Name()] {
			selected = append(selected, d)
			delete(wanted, d.Name())
		}
	}
	for _, n := range names {
		if wanted[n] {
			return nil, fmt.Errorf("unknown extension: %s", n)
		}
	}
	return selected, nil
}
