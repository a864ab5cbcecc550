// Package config handles loading and validation of the project file
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/poltergeist/cmakext/pkg/extension"
	"github.com/poltergeist/cmakext/pkg/platform"
	"gopkg.in/yaml.v3"
)

// CurrentVersion is the only supported project file version
const CurrentVersion = "1.0"

// DefaultFileNames are looked up in order when no path is given
var DefaultFileNames = []string{
	"cmakext.config.json",
	"cmakext.config.yaml",
	"cmakext.config.yml",
}

// ErrNotFound is returned by Find when no project file exists
var ErrNotFound = errors.New("no cmakext config file found")

// ProjectConfig is the content of cmakext.config.json
type ProjectConfig struct {
	Version string `json:"version"`
	// Tool is the build-system executable, "cmake" when empty
	Tool string `json:"tool,omitempty"`
	// Executable is the interpreter passed to the project on configure
	Executable string `json:"executable,omitempty"`
	// InterpreterVar receives the executable path on configure
	InterpreterVar string              `json:"interpreterVar,omitempty"`
	BuildTemp      string              `json:"buildTemp,omitempty"`
	OutputDir      string              `json:"outputDir,omitempty"`
	Platform       string              `json:"platform,omitempty"`
	Compiler       string              `json:"compiler,omitempty"`
	Suffix         string              `json:"suffix,omitempty"`
	Extensions     []ExtensionConfig   `json:"extensions"`
	Logging        *LoggingConfig      `json:"logging,omitempty"`
	Notifications  *NotificationConfig `json:"notifications,omitempty"`
}

// ExtensionConfig declares one extension, or several sharing a project
// directory when Names is used
type ExtensionConfig struct {
	Name  string   `json:"name,omitempty"`
	Names []string `json:"names,omitempty"`
	// ProjectDir is a pointer so an explicit "" can be told apart from unset
	ProjectDir *string           `json:"projectDir,omitempty"`
	Target     string            `json:"target,omitempty"`
	BuildArgs  map[string]string `json:"buildArgs,omitempty"`
	// Prebuilt names an existing artifact; such entries are copied, not built
	Prebuilt string `json:"prebuilt,omitempty"`
}

// LoggingConfig controls the run log
type LoggingConfig struct {
	File  string `json:"file,omitempty"`
	Level string `json:"level,omitempty"`
}

// NotificationConfig controls desktop notifications
type NotificationConfig struct {
	Enabled *bool `json:"enabled,omitempty"`
}

// Manager handles configuration operations
type Manager struct {
	configPath string
}

// NewManager creates a new configuration manager
func NewManager() *Manager {
	return &Manager{}
}

// Path returns the file the last successful LoadConfig read
func (m *Manager) Path() string {
	return m.configPath
}

// Find returns the first default project file present in dir
func Find(dir string) (string, error) {
	for _, name := range DefaultFileNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", ErrNotFound
}

// LoadConfig loads configuration from a file
func (m *Manager) LoadConfig(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if err := m.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	m.configPath = path
	return cfg, nil
}

// Parse decodes JSON, falling back to YAML
func Parse(data []byte) (*ProjectConfig, error) {
	var cfg ProjectConfig

	if err := json.Unmarshal(data, &cfg); err == nil {
		return &cfg, nil
	}

	// YAML goes through JSON so only the json tags need maintaining
	var yamlData map[string]interface{}
	if err := yaml.Unmarshal(data, &yamlData); err != nil {
		return nil, fmt.Errorf("failed to parse config as JSON or YAML: %w", err)
	}
	jsonData, err := json.Marshal(yamlData)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := json.Unmarshal(jsonData, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", describeTypeError(err))
	}
	return &cfg, nil
}

// describeTypeError names the offending field of a decode error
func describeTypeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return fmt.Errorf("field %q must be a %s, got %s (quote it in YAML)", typeErr.Field, typeErr.Type, typeErr.Value)
	}
	return err
}

// ValidateConfig validates a configuration
func (m *Manager) ValidateConfig(cfg *ProjectConfig) error {
	if cfg.Version != CurrentVersion {
		return fmt.Errorf("unsupported config version: %s", cfg.Version)
	}

	switch platform.Compiler(cfg.Compiler) {
	case "", platform.CompilerMSVC, platform.CompilerUnix, platform.CompilerMinGW32:
	default:
		return fmt.Errorf("invalid compiler: %s", cfg.Compiler)
	}

	if cfg.Logging != nil {
		switch cfg.Logging.Level {
		case "", "debug", "info", "warn", "error":
		default:
			return fmt.Errorf("invalid log level: %s", cfg.Logging.Level)
		}
	}

	if len(cfg.Extensions) == 0 {
		return fmt.Errorf("no extensions defined")
	}

	for i, ext := range cfg.Extensions {
		if err := validateExtension(ext); err != nil {
			return fmt.Errorf("extension %d: %w", i, err)
		}
	}

	descriptors, err := Descriptors(cfg)
	if err != nil {
		return err
	}
	names := make(map[string]bool, len(descriptors))
	for _, d := range descriptors {
		if names[d.Name()] {
			return fmt.Errorf("duplicate extension name: %s", d.Name())
		}
		names[d.Name()] = true
	}
	return nil
}

func validateExtension(ext ExtensionConfig) error {
	if ext.Name != "" && len(ext.Names) > 0 {
		return fmt.Errorf("name and names are mutually exclusive")
	}
	if ext.Name == "" && len(ext.Names) == 0 {
		return fmt.Errorf("missing name")
	}
	if ext.Prebuilt != "" {
		if len(ext.Names) > 0 || ext.ProjectDir != nil || ext.Target != "" || len(ext.BuildArgs) > 0 {
			return fmt.Errorf("prebuilt extension %s only accepts a name", ext.Name)
		}
	}
	return nil
}

// Descriptors declares every configured extension in file order
func Descriptors(cfg *ProjectConfig) ([]extension.Descriptor, error) {
	var descriptors []extension.Descriptor
	for _, ext := range cfg.Extensions {
		if ext.Prebuilt != "" {
			d, err := extension.DeclarePrebuilt(ext.Name, ext.Prebuilt)
			if err != nil {
				return nil, err
			}
			descriptors = append(descriptors, d)
			continue
		}

		var opts []extension.Option
		if len(ext.BuildArgs) > 0 {
			opts = append(opts, extension.WithBuildArgs(ext.BuildArgs))
		}
		if ext.ProjectDir != nil {
			opts = append(opts, extension.WithProjectDir(*ext.ProjectDir))
		}
		if ext.Target != "" {
			opts = append(opts, extension.WithTarget(ext.Target))
		}

		if len(ext.Names) > 0 {
			ds, err := extension.DeclareMany(ext.Names, opts...)
			if err != nil {
				return nil, err
			}
			descriptors = append(descriptors, ds...)
			continue
		}

		d, err := extension.Declare(ext.Name, opts...)
		if err != nil {
			return nil, err
		}
		descriptors = append(descriptors, d)
	}
	return descriptors, nil
}

// GetDefaultConfig returns a starter configuration for one extension
func (m *Manager) GetDefaultConfig(name string) *ProjectConfig {
	enabled := true

	return &ProjectConfig{
		Version:    CurrentVersion,
		BuildTemp:  filepath.Join("build", "temp"),
		OutputDir:  filepath.Join("build", "lib"),
		Extensions: []ExtensionConfig{{Name: name}},
		Logging: &LoggingConfig{
			Level: "info",
		},
		Notifications: &NotificationConfig{
			Enabled: &enabled,
		},
	}
}

// NotificationsEnabled reports whether notifications are on; they default to off
func (c *ProjectConfig) NotificationsEnabled() bool {
	return c.Notifications != nil && c.Notifications.Enabled != nil && *c.Notifications.Enabled
}
