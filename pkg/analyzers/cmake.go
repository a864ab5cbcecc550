// Package analyzers inspects CMake projects without running CMake
package analyzers

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/poltergeist/cmakext/pkg/extension"
)

// Target kinds reported by the analyzer
const (
	TargetExecutable = "EXECUTABLE"
	TargetStatic     = "STATIC_LIBRARY"
	TargetShared     = "SHARED_LIBRARY"
	TargetModule     = "MODULE_LIBRARY"
	TargetInterface  = "INTERFACE_LIBRARY"
	TargetObject     = "OBJECT_LIBRARY"
	TargetCustom     = "CUSTOM"
)

var (
	// ErrNoProjectFile means the directory holds no CMakeLists.txt
	ErrNoProjectFile = errors.New("CMakeLists.txt not found")
	// ErrTargetNotFound means an explicit target is not declared by the project
	ErrTargetNotFound = errors.New("target not declared in project")
)

var (
	projectNameRegex = regexp.MustCompile(`(?i)^\s*project\s*\(\s*([^)\s]+)`)
	versionRegex     = regexp.MustCompile(`VERSION\s+([0-9.]+)`)
	targetRegex      = regexp.MustCompile(`(?i)^\s*(add_executable|add_library|add_custom_target|pybind11_add_module|nanobind_add_module|python_add_library)\s*\(\s*([^)\s]+)(?:\s+(STATIC|SHARED|MODULE|INTERFACE|OBJECT))?`)
)

// CMakeAnalyzer analyzes the CMake project of one extension
type CMakeAnalyzer struct {
	projectRoot string
}

// NewCMakeAnalyzer creates a new CMake analyzer
func NewCMakeAnalyzer(projectRoot string) *CMakeAnalyzer {
	return &CMakeAnalyzer{
		projectRoot: projectRoot,
	}
}

// CMakeTarget represents a discovered CMake target
type CMakeTarget struct {
	Name      string
	Type      string
	Directory string
}

// CMakeProject represents a CMake project analysis
type CMakeProject struct {
	Name    string
	Version string
	Targets []CMakeTarget
}

// AnalysisOptions configures CMake analysis
type AnalysisOptions struct {
	// RecursiveSearch also reads CMakeLists.txt files in subdirectories
	RecursiveSearch bool
}

// DefaultAnalysisOptions returns default analysis options
func DefaultAnalysisOptions() *AnalysisOptions {
	return &AnalysisOptions{
		RecursiveSearch: true,
	}
}

// AnalyzeProject analyzes a CMake project
func (a *CMakeAnalyzer) AnalyzeProject(options *AnalysisOptions) (*CMakeProject, error) {
	if options == nil {
		options = DefaultAnalysisOptions()
	}

	mainCMakeFile := filepath.Join(a.projectRoot, "CMakeLists.txt")
	if _, err := os.Stat(mainCMakeFile); err != nil {
		return nil, fmt.Errorf("%w in %s", ErrNoProjectFile, a.projectRoot)
	}

	project := &CMakeProject{}
	if err := a.analyzeMainCMakeFile(mainCMakeFile, project); err != nil {
		return nil, fmt.Errorf("failed to analyze main CMakeLists.txt: %w", err)
	}

	cmakeFiles, err := a.findCMakeFiles(options.RecursiveSearch)
	if err != nil {
		return nil, fmt.Errorf("failed to find CMake files: %w", err)
	}

	for _, cmakeFile := range cmakeFiles {
		if err := a.analyzeCMakeFile(cmakeFile, project); err != nil {
			// Unreadable subdirectories do not hide the other targets
			continue
		}
	}

	return project, nil
}

// FindTargets discovers CMake targets in the project
func (a *CMakeAnalyzer) FindTargets(options *AnalysisOptions) ([]CMakeTarget, error) {
	project, err := a.AnalyzeProject(options)
	if err != nil {
		return nil, err
	}

	return project.Targets, nil
}

// HasTarget reports whether the project declares name
func (a *CMakeAnalyzer) HasTarget(name string) (bool, error) {
	targets, err := a.FindTargets(nil)
	if err != nil {
		return false, err
	}
	for _, t := range targets {
		if t.Name == name {
			return true, nil
		}
	}
	return false, nil
}

// ValidateDescriptor checks that d's project exists and declares its target.
// Prebuilt descriptors only need their source artifact.
func ValidateDescriptor(d extension.Descriptor) error {
	if d.Kind() == extension.KindPrebuilt {
		if info, err := os.Stat(d.Source()); err != nil || info.IsDir() {
			return fmt.Errorf("prebuilt artifact %s not found", d.Source())
		}
		return nil
	}

	a := NewCMakeAnalyzer(d.ProjectDir())
	if d.Target() == "" {
		_, err := a.AnalyzeProject(&AnalysisOptions{})
		return err
	}

	found, err := a.HasTarget(d.Target())
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: %s in %s", ErrTargetNotFound, d.Target(), d.ProjectDir())
	}
	return nil
}

// ValidateGenerator checks a CMAKE_GENERATOR value against known generators
func ValidateGenerator(generator string) error {
	validGenerators := []string{
		"Unix Makefiles",
		"Ninja",
		"NMake Makefiles",
		"MinGW Makefiles",
		"MSYS Makefiles",
		"Watcom WMake",
		"Xcode",
		"Visual Studio",
	}

	for _, valid := range validGenerators {
		if strings.Contains(generator, valid) {
			return nil
		}
	}

	return fmt.Errorf("unsupported generator: %s", generator)
}

// ModuleTargets returns the names of targets that produce loadable modules
func ModuleTargets(targets []CMakeTarget) []string {
	var names []string
	for _, t := range targets {
		if t.Type == TargetModule || t.Type == TargetShared {
			names = append(names, t.Name)
		}
	}
	sort.Strings(names)
	return names
}

func (a *CMakeAnalyzer) findCMakeFiles(recursive bool) ([]string, error) {
	var files []string

	if recursive {
		err := filepath.Walk(a.projectRoot, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			// Skip build trees and hidden directories
			if info.IsDir() && path != a.projectRoot &&
				(info.Name() == "build" || strings.HasPrefix(info.Name(), ".") || strings.HasPrefix(info.Name(), "CMakeTemp_")) {
				return filepath.SkipDir
			}

			if !info.IsDir() && info.Name() == "CMakeLists.txt" {
				files = append(files, path)
			}
			return nil
		})
		return files, err
	}

	cmakeFile := filepath.Join(a.projectRoot, "CMakeLists.txt")
	if _, err := os.Stat(cmakeFile); err == nil {
		files = append(files, cmakeFile)
	}

	return files, nil
}

func (a *CMakeAnalyzer) analyzeMainCMakeFile(path string, project *CMakeProject) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "#") {
			continue
		}

		if matches := projectNameRegex.FindStringSubmatch(line); len(matches) > 1 {
			project.Name = matches[1]
			if versionMatches := versionRegex.FindStringSubmatch(line); len(versionMatches) > 1 {
				project.Version = versionMatches[1]
			}
			break
		}
	}

	return scanner.Err()
}

func (a *CMakeAnalyzer) analyzeCMakeFile(path string, project *CMakeProject) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	dir := filepath.Dir(path)
	relDir, _ := filepath.Rel(a.projectRoot, dir)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "#") {
			continue
		}

		matches := targetRegex.FindStringSubmatch(line)
		if len(matches) < 3 {
			continue
		}

		name := strings.ReplaceAll(matches[2], "${PROJECT_NAME}", project.Name)
		project.Targets = append(project.Targets, CMakeTarget{
			Name:      name,
			Type:      targetType(strings.ToLower(matches[1]), strings.ToUpper(matches[3])),
			Directory: relDir,
		})
	}

	return scanner.Err()
}

func targetType(command, libType string) string {
	switch command {
	case "add_executable":
		return TargetExecutable
	case "add_custom_target":
		return TargetCustom
	case "pybind11_add_module", "nanobind_add_module", "python_add_library":
		if libType == "" || libType == "MODULE" {
			return TargetModule
		}
	}

	switch libType {
	case "SHARED":
		return TargetShared
	case "MODULE":
		return TargetModule
	case "INTERFACE":
		return TargetInterface
	case "OBJECT":
		return TargetObject
	default:
		return TargetStatic
	}
}
