package config_test

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/poltergeist/cmakext/pkg/config"
	"github.com/poltergeist/cmakext/pkg/extension"
	"gopkg.in/yaml.v3"
)

func TestLoadConfig_JSON(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "cmakext.config.json")

	testConfig := map[string]interface{}{
		"version":  "1.0",
		"compiler": "unix",
		"extensions": []map[string]interface{}{
			{
				"name":      "pkg.fast",
				"buildArgs": map[string]string{"USE_SIMD": "ON"},
			},
			{
				"names":      []string{"pkg.a", "pkg.b"},
				"projectDir": "native",
			},
		},
	}

	data, _ := json.Marshal(testConfig)
	os.WriteFile(configPath, data, 0644)

	manager := config.NewManager()
	cfg, err := manager.LoadConfig(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Version != "1.0" {
		t.Errorf("expected version 1.0, got %s", cfg.Version)
	}
	if len(cfg.Extensions) != 2 {
		t.Errorf("expected 2 extension entries, got %d", len(cfg.Extensions))
	}
	if manager.Path() != configPath {
		t.Errorf("Path() = %q", manager.Path())
	}
}

func TestLoadConfig_YAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "cmakext.config.yaml")

	testConfig := map[string]interface{}{
		"version": "1.0",
		"extensions": []map[string]interface{}{
			{"name": "ext", "projectDir": ""},
			{"name": "vendored", "prebuilt": "vendor/libvendored.so"},
		},
		"logging": map[string]string{"level": "debug"},
	}

	data, _ := yaml.Marshal(testConfig)
	os.WriteFile(configPath, data, 0644)

	manager := config.NewManager()
	cfg, err := manager.LoadConfig(configPath)
	if err != nil {
		t.Fatalf("failed to load YAML config: %v", err)
	}

	if cfg.Extensions[0].ProjectDir == nil || *cfg.Extensions[0].ProjectDir != "" {
		t.Error("explicit empty projectDir should be kept")
	}
	if cfg.Extensions[1].Prebuilt != "vendor/libvendored.so" {
		t.Errorf("prebuilt = %q", cfg.Extensions[1].Prebuilt)
	}
	if cfg.Logging == nil || cfg.Logging.Level != "debug" {
		t.Error("logging section not loaded")
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	tmpDir := t.TempDir()
	manager := config.NewManager()

	if _, err := manager.LoadConfig(filepath.Join(tmpDir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(tmpDir, "bad.json")
	os.WriteFile(bad, []byte("{not: [valid"), 0644)
	if _, err := manager.LoadConfig(bad); err == nil {
		t.Error("expected parse error")
	}
}

func TestParse_UnquotedYAMLVersion(t *testing.T) {
	_, err := config.Parse([]byte("version: 1.0\nextensions:\n  - name: pkg.fast\n"))
	if err == nil {
		t.Fatal("expected error for numeric version")
	}
	if !strings.Contains(err.Error(), `"version"`) || !strings.Contains(err.Error(), "quote") {
		t.Errorf("error should name the field and suggest quoting: %v", err)
	}

	cfg, err := config.Parse([]byte("version: \"1.0\"\nexecutable: /usr/bin/python3\nextensions:\n  - name: pkg.fast\n"))
	if err != nil {
		t.Fatalf("quoted version rejected: %v", err)
	}
	if cfg.Executable != "/usr/bin/python3" {
		t.Errorf("Executable = %q", cfg.Executable)
	}
}

func TestValidateConfig(t *testing.T) {
	manager := config.NewManager()
	empty := ""

	tests := []struct {
		name    string
		config  *config.ProjectConfig
		wantErr bool
		errMsg  string
	}{
		{
			name: "valid config",
			config: &config.ProjectConfig{
				Version:    "1.0",
				Extensions: []config.ExtensionConfig{{Name: "pkg.ext"}},
			},
		},
		{
			name: "invalid version",
			config: &config.ProjectConfig{
				Version:    "2.0",
				Extensions: []config.ExtensionConfig{{Name: "pkg.ext"}},
			},
			wantErr: true,
			errMsg:  "unsupported config version",
		},
		{
			name: "invalid compiler",
			config: &config.ProjectConfig{
				Version:    "1.0",
				Compiler:   "tcc",
				Extensions: []config.ExtensionConfig{{Name: "pkg.ext"}},
			},
			wantErr: true,
			errMsg:  "invalid compiler",
		},
		{
			name: "invalid log level",
			config: &config.ProjectConfig{
				Version:    "1.0",
				Logging:    &config.LoggingConfig{Level: "loud"},
				Extensions: []config.ExtensionConfig{{Name: "pkg.ext"}},
			},
			wantErr: true,
			errMsg:  "invalid log level",
		},
		{
			name:    "no extensions",
			config:  &config.ProjectConfig{Version: "1.0"},
			wantErr: true,
			errMsg:  "no extensions defined",
		},
		{
			name: "duplicate names",
			config: &config.ProjectConfig{
				Version: "1.0",
				Extensions: []config.ExtensionConfig{
					{Name: "pkg.ext"},
					{Names: []string{"pkg.other", "pkg.ext"}},
				},
			},
			wantErr: true,
			errMsg:  "duplicate extension name: pkg.ext",
		},
		{
			name: "missing name",
			config: &config.ProjectConfig{
				Version:    "1.0",
				Extensions: []config.ExtensionConfig{{Target: "ext"}},
			},
			wantErr: true,
			errMsg:  "missing name",
		},
		{
			name: "name and names",
			config: &config.ProjectConfig{
				Version:    "1.0",
				Extensions: []config.ExtensionConfig{{Name: "a", Names: []string{"b"}}},
			},
			wantErr: true,
			errMsg:  "mutually exclusive",
		},
		{
			name: "prebuilt with project dir",
			config: &config.ProjectConfig{
				Version:    "1.0",
				Extensions: []config.ExtensionConfig{{Name: "a", Prebuilt: "liba.so", ProjectDir: &empty}},
			},
			wantErr: true,
			errMsg:  "only accepts a name",
		},
		{
			name: "invalid dotted name",
			config: &config.ProjectConfig{
				Version:    "1.0",
				Extensions: []config.ExtensionConfig{{Name: "pkg..ext"}},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := manager.ValidateConfig(tt.config)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && tt.errMsg != "" && !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("expected error containing '%s', got '%s'", tt.errMsg, err.Error())
			}
		})
	}
}

func TestValidateConfig_TargetConflictIsDescriptorError(t *testing.T) {
	cfg := &config.ProjectConfig{
		Version:    "1.0",
		Extensions: []config.ExtensionConfig{{Names: []string{"a.x", "a.y"}, Target: "all"}},
	}
	err := config.NewManager().ValidateConfig(cfg)
	if !errors.Is(err, extension.ErrTargetConflict) {
		t.Errorf("expected ErrTargetConflict, got %v", err)
	}
}

func TestDescriptors(t *testing.T) {
	native := "native"
	cfg := &config.ProjectConfig{
		Version: "1.0",
		Extensions: []config.ExtensionConfig{
			{Name: "pkg.sub.fast", BuildArgs: map[string]string{"OPT": "3"}},
			{Name: "pkg.whole", ProjectDir: &native},
			{Names: []string{"pkg.a", "pkg.b"}, ProjectDir: &native},
			{Name: "pkg.vendored", Prebuilt: "vendor/libv.so"},
		},
	}

	ds, err := config.Descriptors(cfg)
	if err != nil {
		t.Fatalf("Descriptors() error = %v", err)
	}
	if len(ds) != 5 {
		t.Fatalf("expected 5 descriptors, got %d", len(ds))
	}

	checks := []struct {
		name, dir, target string
		kind              extension.Kind
	}{
		{"pkg.sub.fast", "pkg/sub", "fast", extension.KindCMake},
		{"pkg.whole", "native", "", extension.KindCMake},
		{"pkg.a", "native", "a", extension.KindCMake},
		{"pkg.b", "native", "b", extension.KindCMake},
		{"pkg.vendored", "", "", extension.KindPrebuilt},
	}
	for i, c := range checks {
		d := ds[i]
		if d.Name() != c.name || d.ProjectDir() != c.dir || d.Target() != c.target || d.Kind() != c.kind {
			t.Errorf("descriptor %d = %s (%s, %q, %s), want %+v", i, d.Name(), d.ProjectDir(), d.Target(), d.Kind(), c)
		}
	}
	if defs := ds[0].Definitions(); len(defs) != 1 || defs[0] != "-DOPT=3" {
		t.Errorf("definitions = %v", defs)
	}
}

func TestFind(t *testing.T) {
	dir := t.TempDir()
	if _, err := config.Find(dir); !errors.Is(err, config.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	yamlPath := filepath.Join(dir, "cmakext.config.yaml")
	os.WriteFile(yamlPath, []byte("version: \"1.0\"\n"), 0644)
	if got, err := config.Find(dir); err != nil || got != yamlPath {
		t.Errorf("Find() = %q, %v", got, err)
	}

	jsonPath := filepath.Join(dir, "cmakext.config.json")
	os.WriteFile(jsonPath, []byte("{}"), 0644)
	if got, _ := config.Find(dir); got != jsonPath {
		t.Errorf("JSON should win, got %q", got)
	}
}

func TestGetDefaultConfig(t *testing.T) {
	manager := config.NewManager()
	cfg := manager.GetDefaultConfig("pkg.ext")

	if err := manager.ValidateConfig(cfg); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
	if !cfg.NotificationsEnabled() {
		t.Error("default config enables notifications")
	}
	if (&config.ProjectConfig{}).NotificationsEnabled() {
		t.Error("notifications default to off")
	}
}
