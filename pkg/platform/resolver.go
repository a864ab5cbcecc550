// Package platform maps host platform and compiler facts to CMake flags.
//
// Resolve is a pure function: everything it needs is carried by Facts, which
// the orchestrator assembles once per extension from the host settings and
// the environment snapshot.
package platform

import (
	"fmt"
	"strings"
)

// Compiler identifies the host compiler family
type Compiler string

const (
	CompilerMSVC    Compiler = "msvc"
	CompilerUnix    Compiler = "unix"
	CompilerMinGW32 Compiler = "mingw32"
)

// Build types understood by CMAKE_BUILD_TYPE and --config
const (
	BuildTypeDebug   = "Debug"
	BuildTypeRelease = "Release"
)

// NinjaGenerator auto-parallelizes and ships as a standalone binary
const NinjaGenerator = "Ninja"

// Generators whose names mark them as single-configuration
var singleConfigGenerators = []string{"NMake", "Ninja"}

// Backward-compatible generator names that already carry an architecture
var archQualifiers = []string{"ARM", "Win64"}

var architectures = map[string]string{
	"win32":     "Win32",
	"win-amd64": "x64",
	"win64":     "x64",
	"amd64":     "x64",
	"win-arm32": "ARM",
	"arm32":     "ARM",
	"win-arm64": "ARM64",
	"arm64":     "ARM64",
}

// Facts is everything the resolver needs to know about one build
type Facts struct {
	Platform         string
	Compiler         Compiler
	HostOS           string
	Generator        string
	NinjaAvailable   bool
	BuildType        string
	OutputDir        string
	Architectures    []string
	ParallelLevelSet bool
	Jobs             int
}

// Flags are the resolved additions to the configure and build command lines
type Flags struct {
	Configure []string
	Build     []string
}

// Architecture returns the -A value for a platform name
func Architecture(platform string) (string, error) {
	arch, ok := architectures[platform]
	if !ok {
		return "", &ConfigurationError{Platform: platform, Err: ErrUnsupportedPlatform}
	}
	return arch, nil
}

// IsSingleConfig reports whether the generator builds one configuration per tree
func IsSingleConfig(generator string) bool {
	return containsAny(generator, singleConfigGenerators)
}

// HasArchQualifier reports whether the generator name embeds an architecture
func HasArchQualifier(generator string) bool {
	return containsAny(generator, archQualifiers)
}

// Resolve computes the platform specific flags for one build
func Resolve(f Facts) (Flags, error) {
	var flags Flags

	if f.Compiler == CompilerMSVC {
		if err := resolveMSVC(f, &flags); err != nil {
			return Flags{}, err
		}
	} else {
		switch {
		case f.Generator != "":
			flags.Configure = append(flags.Configure, "-G"+f.Generator)
		case f.NinjaAvailable:
			flags.Configure = append(flags.Configure, "-G"+NinjaGenerator)
		}
	}

	if f.HostOS == "darwin" && len(f.Architectures) > 0 {
		flags.Configure = append(flags.Configure,
			"-DCMAKE_OSX_ARCHITECTURES="+strings.Join(f.Architectures, ";"))
	}

	if !f.ParallelLevelSet && f.Jobs > 0 {
		flags.Build = append(flags.Build, fmt.Sprintf("-j%d", f.Jobs))
	}

	return flags, nil
}

func resolveMSVC(f Facts, flags *Flags) error {
	if f.Generator != "" {
		flags.Configure = append(flags.Configure, "-G"+f.Generator)
	}

	singleConfig := IsSingleConfig(f.Generator)
	embedsArch := HasArchQualifier(f.Generator)

	switch {
	case !singleConfig && !embedsArch:
		arch, err := Architecture(f.Platform)
		if err != nil {
			return err
		}
		flags.Configure = append(flags.Configure, "-A", arch)
	case embedsArch:
		if err := checkEmbeddedArch(f.Platform, f.Generator); err != nil {
			return err
		}
	}

	if !singleConfig {
		buildType := f.BuildType
		if buildType == "" {
			buildType = BuildTypeRelease
		}
		flags.Configure = append(flags.Configure, fmt.Sprintf(
			"-DCMAKE_LIBRARY_OUTPUT_DIRECTORY_%s=%s", strings.ToUpper(buildType), f.OutputDir))
		flags.Build = append(flags.Build, "--config", buildType)
	}

	return nil
}

// checkEmbeddedArch rejects generators like "Visual Studio 15 2017 Win64"
// paired with a platform of a different architecture. Platforms without a
// mapping are left to the generator.
func checkEmbeddedArch(platform, generator string) error {
	arch, ok := architectures[platform]
	if !ok {
		return nil
	}

	mismatch := false
	if strings.Contains(generator, "Win64") && arch != "x64" {
		mismatch = true
	}
	if strings.Contains(generator, "ARM") && !strings.HasPrefix(arch, "ARM") {
		mismatch = true
	}
	if mismatch {
		return &ConfigurationError{Platform: platform, Generator: generator, Err: ErrGeneratorMismatch}
	}
	return nil
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
