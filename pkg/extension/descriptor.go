// Package extension provides the declarative model of native modules
package extension

import (
	"path"
	"sort"
	"strings"
)

// Kind selects how a descriptor is turned into an artifact
type Kind string

const (
	// KindCMake extensions are configured and built by the external tool
	KindCMake Kind = "cmake"
	// KindPrebuilt extensions already exist on disk and are only installed
	KindPrebuilt Kind = "prebuilt"
)

// Descriptor describes one native module. Descriptors are immutable once
// declared; use the Declare functions to create them.
type Descriptor struct {
	name       string
	kind       Kind
	projectDir string
	buildArgs  map[string]string
	target     string
	source     string
}

// Option customises a declaration
type Option func(*declaration)

type declaration struct {
	buildArgs     map[string]string
	projectDir    string
	hasProjectDir bool
	target        string
}

// WithBuildArgs sets the -D definitions passed to the configure phase
func WithBuildArgs(args map[string]string) Option {
	return func(d *declaration) {
		d.buildArgs = args
	}
}

// WithProjectDir overrides the directory holding CMakeLists.txt.
// An explicit project directory disables target inference.
func WithProjectDir(dir string) Option {
	return func(d *declaration) {
		d.projectDir = dir
		d.hasProjectDir = true
	}
}

// WithTarget names the build-system target explicitly
func WithTarget(target string) Option {
	return func(d *declaration) {
		d.target = target
	}
}

// Declare creates a build-orchestrated descriptor.
//
// For "pkg.sub.ext" without options the project directory is "pkg/sub" and
// the target is "ext". The project directory is not checked here; a missing
// CMakeLists.txt surfaces as a configure failure.
func Declare(name string, opts ...Option) (Descriptor, error) {
	var decl declaration
	for _, opt := range opts {
		opt(&decl)
	}
	return declare(name, decl)
}

// DeclareMany creates one descriptor per name, all sharing the same build
// arguments and project directory. Each name is a separate target of the
// shared project, so the last segment is always used as the target.
func DeclareMany(names []string, opts ...Option) ([]Descriptor, error) {
	var decl declaration
	for _, opt := range opts {
		opt(&decl)
	}
	if decl.target != "" && len(names) > 1 {
		return nil, &DescriptorError{Name: strings.Join(names, ","), Err: ErrTargetConflict}
	}

	descriptors := make([]Descriptor, 0, len(names))
	for _, name := range names {
		d, err := declare(name, decl)
		if err != nil {
			return nil, err
		}
		if d.target == "" {
			d.target = lastSegment(name)
		}
		descriptors = append(descriptors, d)
	}
	return descriptors, nil
}

// DeclarePrebuilt creates a descriptor for an artifact that needs no build.
func DeclarePrebuilt(name, source string) (Descriptor, error) {
	if _, err := splitName(name); err != nil {
		return Descriptor{}, err
	}
	if source == "" {
		return Descriptor{}, &DescriptorError{Name: name, Err: ErrMissingSource}
	}
	return Descriptor{
		name:   name,
		kind:   KindPrebuilt,
		source: source,
	}, nil
}

func declare(name string, decl declaration) (Descriptor, error) {
	parts, err := splitName(name)
	if err != nil {
		return Descriptor{}, err
	}

	d := Descriptor{
		name:      name,
		kind:      KindCMake,
		buildArgs: copyArgs(decl.buildArgs),
		target:    decl.target,
	}

	if decl.hasProjectDir {
		d.projectDir = decl.projectDir
		if d.projectDir == "" {
			d.projectDir = "."
		}
	} else {
		d.projectDir = DefaultProjectDir(parts)
		if d.target == "" {
			d.target = parts[len(parts)-1]
		}
	}

	return d, nil
}

// DefaultProjectDir joins all but the last name segment as a slash path
func DefaultProjectDir(parts []string) string {
	if len(parts) <= 1 {
		return "."
	}
	return path.Join(parts[:len(parts)-1]...)
}

func splitName(name string) ([]string, error) {
	if name == "" {
		return nil, &DescriptorError{Err: ErrEmptyName}
	}
	parts := strings.Split(name, ".")
	for _, p := range parts {
		if p == "" {
			return nil, &DescriptorError{Name: name, Err: ErrInvalidName}
		}
	}
	return parts, nil
}

func lastSegment(name string) string {
	return name[strings.LastIndex(name, ".")+1:]
}

func copyArgs(args map[string]string) map[string]string {
	if len(args) == 0 {
		return nil
	}
	out := make(map[string]string, len(args))
	for k, v := range args {
		out[k] = v
	}
	return out
}

// Name returns the dotted module path
func (d Descriptor) Name() string { return d.name }

// Kind returns how the descriptor is produced
func (d Descriptor) Kind() Kind { return d.kind }

// ProjectDir returns the directory containing the project file
func (d Descriptor) ProjectDir() string { return d.projectDir }

// Target returns the explicit build target, or "" for the project default
func (d Descriptor) Target() string { return d.target }

// Source returns the artifact path of a prebuilt descriptor
func (d Descriptor) Source() string { return d.source }

// BuildArgs returns a copy of the per-extension definitions
func (d Descriptor) BuildArgs() map[string]string { return copyArgs(d.buildArgs) }

// Definitions renders the build args as -DKEY=VALUE flags in key order
func (d Descriptor) Definitions() []string {
	keys := make([]string, 0, len(d.buildArgs))
	for k := range d.buildArgs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	defs := make([]string, 0, len(keys))
	for _, k := range keys {
		defs = append(defs, "-D"+k+"="+d.buildArgs[k])
	}
	return defs
}

// String implements fmt.Stringer
func (d Descriptor) String() string {
	if d.kind == KindPrebuilt {
		return d.name + " (prebuilt " + d.source + ")"
	}
	if d.target == "" {
		return d.name + " (" + d.projectDir + ")"
	}
	return d.name + " (" + d.projectDir + ":" + d.target + ")"
}
