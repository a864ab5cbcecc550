package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/poltergeist/cmakext/pkg/analyzers"
	"github.com/poltergeist/cmakext/pkg/config"
	"github.com/spf13/cobra"
)

func (c *CLI) newInitCmd() *cobra.Command {
	var (
		force      bool
		pkg        string
		projectDir string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a cmakext configuration",
		Long: `Create cmakext.config.json in the current directory. Module targets
found in the project's CMakeLists.txt become extension entries.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInit(projectDir, pkg, force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite existing configuration")
	cmd.Flags().StringVarP(&pkg, "package", "p", "", "package prefix for extension names")
	cmd.Flags().StringVar(&projectDir, "project", ".", "directory containing CMakeLists.txt")

	return cmd
}

func (c *CLI) runInit(projectDir, pkg string, force bool) error {
	configPath := c.config.ConfigFile
	if configPath == "" {
		configPath = config.DefaultFileNames[0]
	}

	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration already exists. Use --force to overwrite")
	}

	manager := config.NewManager()
	cfg := manager.GetDefaultConfig(qualify(pkg, "ext"))

	targets, err := analyzers.NewCMakeAnalyzer(projectDir).FindTargets(nil)
	modules := analyzers.ModuleTargets(targets)
	switch {
	case err != nil:
		c.console.Info(fmt.Sprintf("No CMake project found in %s, using a placeholder extension", projectDir))
	case len(modules) == 0:
		c.console.Info("No module targets found, using a placeholder extension")
	default:
		cfg.Extensions = extensionsFor(projectDir, pkg, modules)
		c.console.Info(fmt.Sprintf("Found %d module target(s)", len(modules)))
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if dir := filepath.Dir(configPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	c.console.Success(fmt.Sprintf("Created configuration at %s", configPath))
	return nil
}

// extensionsFor declares module targets that share one project directory
func extensionsFor(projectDir, pkg string, targets []string) []config.ExtensionConfig {
	dir := projectDir
	if len(targets) == 1 {
		return []config.ExtensionConfig{{
			Name:       qualify(pkg, targets[0]),
			ProjectDir: &dir,
			Target:     targets[0],
		}}
	}

	names := make([]string, 0, len(targets))
	for _, t := range targets {
		names = append(names, qualify(pkg, t))
	}
	return []config.ExtensionConfig{{Names: names, ProjectDir: &dir}}
}

func qualify(pkg, name string) string {
	if pkg == "" {
		return name
	}
	return pkg + "." + name
}
