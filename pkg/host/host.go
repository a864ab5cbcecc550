// Package host describes what the packaging tool supplies to a build
package host

//go:generate mockgen -destination=../mocks/host_mock.go -package=mocks github.com/poltergeist/cmakext/pkg/host Host

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/poltergeist/cmakext/pkg/platform"
)

// Host is the contract the packaging tool fulfils for the orchestrator
type Host interface {
	// ExtensionPath returns where the artifact for a dotted name must end up
	ExtensionPath(name string) (string, error)
	// Debug returns the declared debug intent, or nil when undeclared
	Debug() *bool
	DryRun() bool
	// Parallel returns the requested job count, 0 when unset
	Parallel() int
	// Executable is passed to the project as the interpreter path
	Executable() string
	BuildTemp() string
	PlatformName() string
	CompilerType() platform.Compiler
}

// Settings is a Host backed by plain values
type Settings struct {
	OutputDir  string
	TempDir    string
	DebugBuild *bool
	Dry        bool
	Jobs       int
	Exe        string
	Platform   string
	Compiler   platform.Compiler
	// Suffix is appended to the last name segment, e.g. ".so" or ".pyd"
	Suffix string
}

var _ Host = (*Settings)(nil)

// DefaultSettings returns settings for the running machine
func DefaultSettings() *Settings {
	return &Settings{
		OutputDir: filepath.Join("build", "lib"),
		TempDir:   filepath.Join("build", "temp"),
		Exe:       DefaultExecutable(),
		Platform:  PlatformName(runtime.GOOS, runtime.GOARCH),
		Compiler:  DefaultCompiler(runtime.GOOS),
		Suffix:    DefaultSuffix(runtime.GOOS),
	}
}

// ExtensionPath maps "pkg.sub.ext" to <OutputDir>/pkg/sub/ext<Suffix>
func (s *Settings) ExtensionPath(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("extension name is empty")
	}
	parts := strings.Split(name, ".")
	parts[len(parts)-1] += s.Suffix
	return filepath.Join(append([]string{s.OutputDir}, parts...)...), nil
}

func (s *Settings) Debug() *bool                    { return s.DebugBuild }
func (s *Settings) DryRun() bool                    { return s.Dry }
func (s *Settings) Parallel() int                   { return s.Jobs }
func (s *Settings) Executable() string              { return s.Exe }
func (s *Settings) BuildTemp() string               { return s.TempDir }
func (s *Settings) PlatformName() string            { return s.Platform }
func (s *Settings) CompilerType() platform.Compiler { return s.Compiler }

// DefaultExecutable finds a Python interpreter on PATH, python3 first
func DefaultExecutable() string {
	for _, name := range []string{"python3", "python"} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	return "python3"
}

// PlatformName returns the packaging-style platform tag for a GOOS/GOARCH pair
func PlatformName(goos, goarch string) string {
	switch goos {
	case "windows":
		switch goarch {
		case "386":
			return "win32"
		case "amd64":
			return "win-amd64"
		case "arm":
			return "win-arm32"
		case "arm64":
			return "win-arm64"
		}
		return "win-" + goarch
	case "darwin":
		if goarch == "amd64" {
			return "macosx-x86_64"
		}
		return "macosx-" + goarch
	default:
		switch goarch {
		case "amd64":
			return goos + "-x86_64"
		case "386":
			return goos + "-i686"
		case "arm64":
			return goos + "-aarch64"
		}
		return goos + "-" + goarch
	}
}

// DefaultCompiler returns the compiler family normally used on goos
func DefaultCompiler(goos string) platform.Compiler {
	if goos == "windows" {
		return platform.CompilerMSVC
	}
	return platform.CompilerUnix
}

// DefaultSuffix returns the loadable module suffix for goos
func DefaultSuffix(goos string) string {
	if goos == "windows" {
		return ".pyd"
	}
	return ".so"
}
