package analyzers_test

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/poltergeist/cmakext/pkg/analyzers"
	"github.com/poltergeist/cmakext/pkg/extension"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

func TestCMakeAnalyzer_AnalyzeProject_BasicProject(t *testing.T) {
	tempDir := t.TempDir()
	analyzer := analyzers.NewCMakeAnalyzer(tempDir)

	writeFile(t, filepath.Join(tempDir, "CMakeLists.txt"), `cmake_minimum_required(VERSION 3.10)
project(TestProject VERSION 1.0.0)

add_executable(myapp main.cpp)
add_library(mylib STATIC lib.cpp)
# add_library(commented SHARED x.cpp)
ADD_LIBRARY(fast MODULE fast.cpp)`)

	project, err := analyzer.AnalyzeProject(nil)
	if err != nil {
		t.Fatalf("Failed to analyze project: %v", err)
	}

	if project.Name != "TestProject" {
		t.Errorf("Expected project name 'TestProject', got '%s'", project.Name)
	}
	if project.Version != "1.0.0" {
		t.Errorf("Expected project version '1.0.0', got '%s'", project.Version)
	}

	want := map[string]string{
		"myapp": analyzers.TargetExecutable,
		"mylib": analyzers.TargetStatic,
		"fast":  analyzers.TargetModule,
	}
	if len(project.Targets) != len(want) {
		t.Fatalf("Expected %d targets, got %+v", len(want), project.Targets)
	}
	for _, target := range project.Targets {
		if want[target.Name] != target.Type {
			t.Errorf("target %s has type %s, want %s", target.Name, target.Type, want[target.Name])
		}
	}
}

func TestCMakeAnalyzer_BindingHelpers(t *testing.T) {
	tempDir := t.TempDir()
	writeFile(t, filepath.Join(tempDir, "CMakeLists.txt"), `project(ext_project)
pybind11_add_module(_core src/core.cpp)
python_add_library(_speedups MODULE WITH_SOABI src/speedups.c)
nanobind_add_module(${PROJECT_NAME} src/nb.cpp)
add_library(helpers SHARED helpers.cpp)
add_custom_target(docs)`)

	targets, err := analyzers.NewCMakeAnalyzer(tempDir).FindTargets(nil)
	if err != nil {
		t.Fatal(err)
	}

	got := analyzers.ModuleTargets(targets)
	want := []string{"_core", "_speedups", "ext_project", "helpers"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ModuleTargets() = %v, want %v", got, want)
	}
}

func TestCMakeAnalyzer_Subdirectories(t *testing.T) {
	tempDir := t.TempDir()
	writeFile(t, filepath.Join(tempDir, "CMakeLists.txt"), "project(Root)\nadd_subdirectory(src)\n")
	writeFile(t, filepath.Join(tempDir, "src", "CMakeLists.txt"), "add_library(inner MODULE inner.cpp)\n")
	writeFile(t, filepath.Join(tempDir, "build", "CMakeLists.txt"), "add_library(ignored MODULE x.cpp)\n")
	writeFile(t, filepath.Join(tempDir, "CMakeTemp_src", "CMakeLists.txt"), "add_library(stale MODULE x.cpp)\n")

	analyzer := analyzers.NewCMakeAnalyzer(tempDir)

	targets, err := analyzer.FindTargets(nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(targets) != 1 || targets[0].Name != "inner" || targets[0].Directory != "src" {
		t.Errorf("unexpected targets: %+v", targets)
	}

	targets, err = analyzer.FindTargets(&analyzers.AnalysisOptions{RecursiveSearch: false})
	if err != nil {
		t.Fatal(err)
	}
	if len(targets) != 0 {
		t.Errorf("non-recursive search should only read the root file, got %+v", targets)
	}
}

func TestCMakeAnalyzer_NoProjectFile(t *testing.T) {
	_, err := analyzers.NewCMakeAnalyzer(t.TempDir()).AnalyzeProject(nil)
	if !errors.Is(err, analyzers.ErrNoProjectFile) {
		t.Errorf("expected ErrNoProjectFile, got %v", err)
	}
}

func TestValidateDescriptor(t *testing.T) {
	root := t.TempDir()
	projectDir := filepath.Join(root, "native")
	writeFile(t, filepath.Join(projectDir, "CMakeLists.txt"), "project(N)\npybind11_add_module(fast fast.cpp)\n")
	artifact := filepath.Join(root, "libv.so")
	writeFile(t, artifact, "bin")

	declare := func(name string, opts ...extension.Option) extension.Descriptor {
		d, err := extension.Declare(name, opts...)
		if err != nil {
			t.Fatal(err)
		}
		return d
	}
	prebuilt := func(source string) extension.Descriptor {
		d, err := extension.DeclarePrebuilt("pkg.v", source)
		if err != nil {
			t.Fatal(err)
		}
		return d
	}

	tests := []struct {
		name    string
		d       extension.Descriptor
		wantErr error
		fails   bool
	}{
		{"declared target", declare("pkg.fast", extension.WithProjectDir(projectDir), extension.WithTarget("fast")), nil, false},
		{"default target", declare("pkg.whole", extension.WithProjectDir(projectDir)), nil, false},
		{"missing target", declare("pkg.slow", extension.WithProjectDir(projectDir), extension.WithTarget("slow")), analyzers.ErrTargetNotFound, true},
		{"missing project", declare("pkg.x", extension.WithProjectDir(filepath.Join(root, "nope"))), analyzers.ErrNoProjectFile, true},
		{"prebuilt present", prebuilt(artifact), nil, false},
		{"prebuilt missing", prebuilt(filepath.Join(root, "missing.so")), nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := analyzers.ValidateDescriptor(tt.d)
			if (err != nil) != tt.fails {
				t.Fatalf("ValidateDescriptor() error = %v, fails %v", err, tt.fails)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateGenerator(t *testing.T) {
	valid := []string{"Ninja", "Ninja Multi-Config", "Unix Makefiles", "Visual Studio 17 2022", "NMake Makefiles", "Xcode"}
	for _, g := range valid {
		if err := analyzers.ValidateGenerator(g); err != nil {
			t.Errorf("ValidateGenerator(%q) = %v", g, err)
		}
	}
	if err := analyzers.ValidateGenerator("Borland Makefiles"); err == nil {
		t.Error("expected error for unknown generator")
	}
}
