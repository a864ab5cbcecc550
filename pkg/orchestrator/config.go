package orchestrator

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"

	"github.com/poltergeist/cmakext/pkg/env"
	"github.com/poltergeist/cmakext/pkg/extension"
	"github.com/poltergeist/cmakext/pkg/host"
	"github.com/poltergeist/cmakext/pkg/platform"
	"github.com/poltergeist/cmakext/pkg/utils"
)

const workDirPrefix = "CMakeTemp_"

// BuildConfig is everything needed to configure and build one descriptor.
// It is computed fresh for every descriptor and never cached.
type BuildConfig struct {
	Artifact         string
	OutputDir        string
	BuildType        string
	Generator        string
	Platform         string
	Compiler         platform.Compiler
	Jobs             int
	ExtraArgs        []string
	Architectures    []string
	ParallelLevelSet bool
	NinjaAvailable   bool
	HostOS           string
	Executable       string
	DryRun           bool
	WorkDir          string
}

// NewBuildConfig derives the build settings for d from the host and the
// environment snapshot. Debug intent declared by the host wins over DEBUG.
func NewBuildConfig(d extension.Descriptor, h host.Host, snap env.Snapshot) (BuildConfig, error) {
	artifact, err := h.ExtensionPath(d.Name())
	if err != nil {
		return BuildConfig{}, fmt.Errorf("failed to resolve artifact path for %s: %w", d.Name(), err)
	}
	artifact, err = filepath.Abs(artifact)
	if err != nil {
		return BuildConfig{}, fmt.Errorf("failed to resolve artifact path for %s: %w", d.Name(), err)
	}

	debug := snap.Debug
	if declared := h.Debug(); declared != nil {
		debug = *declared
	}
	buildType := platform.BuildTypeRelease
	if debug {
		buildType = platform.BuildTypeDebug
	}

	return BuildConfig{
		Artifact:         artifact,
		OutputDir:        filepath.Dir(artifact),
		BuildType:        buildType,
		Generator:        snap.Generator,
		Platform:         h.PlatformName(),
		Compiler:         h.CompilerType(),
		Jobs:             h.Parallel(),
		ExtraArgs:        append([]string(nil), snap.ExtraArgs...),
		Architectures:    append([]string(nil), snap.Architectures...),
		ParallelLevelSet: snap.ParallelLevelSet,
		NinjaAvailable:   snap.NinjaAvailable,
		HostOS:           snap.HostOS,
		Executable:       h.Executable(),
		DryRun:           h.DryRun(),
		WorkDir:          WorkDir(h.BuildTemp(), d.ProjectDir()),
	}, nil
}

// Facts converts the config into resolver input
func (c BuildConfig) Facts() platform.Facts {
	return platform.Facts{
		Platform:         c.Platform,
		Compiler:         c.Compiler,
		HostOS:           c.HostOS,
		Generator:        c.Generator,
		NinjaAvailable:   c.NinjaAvailable,
		BuildType:        c.BuildType,
		OutputDir:        c.OutputDir,
		Architectures:    c.Architectures,
		ParallelLevelSet: c.ParallelLevelSet,
		Jobs:             c.Jobs,
	}
}

// WorkDir returns the build tree for a project directory. Descriptors that
// share a project directory share the build tree and its cache. The hash
// suffix keeps directories that sanitize alike ("a-b", "a_b", "a/b") apart.
func WorkDir(buildTemp, projectDir string) string {
	clean := filepath.Clean(projectDir)
	sum := sha256.Sum256([]byte(clean))
	name := workDirPrefix + utils.SanitizeName(clean) + "_" + hex.EncodeToString(sum[:4])
	return filepath.Join(buildTemp, name)
}
