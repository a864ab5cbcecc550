package extension_test

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/poltergeist/cmakext/pkg/extension"
	"pgregory.net/rapid"
)

func TestDeclare_Defaults(t *testing.T) {
	tests := []struct {
		name       string
		extName    string
		opts       []extension.Option
		projectDir string
		target     string
	}{
		{
			name:       "nested package",
			extName:    "pkg.sub.ext",
			projectDir: "pkg/sub",
			target:     "ext",
		},
		{
			name:       "single segment",
			extName:    "ext",
			projectDir: ".",
			target:     "ext",
		},
		{
			name:       "explicit project dir suppresses target",
			extName:    "pkg.ext",
			opts:       []extension.Option{extension.WithProjectDir("native")},
			projectDir: "native",
			target:     "",
		},
		{
			name:       "explicit target",
			extName:    "pkg.ext",
			opts:       []extension.Option{extension.WithTarget("_ext")},
			projectDir: "pkg",
			target:     "_ext",
		},
		{
			name:    "explicit project dir and target",
			extName: "pkg.ext",
			opts: []extension.Option{
				extension.WithProjectDir("native"),
				extension.WithTarget("core"),
			},
			projectDir: "native",
			target:     "core",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := extension.Declare(tt.extName, tt.opts...)
			if err != nil {
				t.Fatalf("Declare() error = %v", err)
			}
			if d.ProjectDir() != tt.projectDir {
				t.Errorf("ProjectDir() = %q, want %q", d.ProjectDir(), tt.projectDir)
			}
			if d.Target() != tt.target {
				t.Errorf("Target() = %q, want %q", d.Target(), tt.target)
			}
			if d.Kind() != extension.KindCMake {
				t.Errorf("Kind() = %q, want cmake", d.Kind())
			}
		})
	}
}

func TestDeclare_InvalidNames(t *testing.T) {
	tests := []struct {
		name    string
		extName string
		want    error
	}{
		{"empty", "", extension.ErrEmptyName},
		{"leading dot", ".ext", extension.ErrInvalidName},
		{"trailing dot", "pkg.", extension.ErrInvalidName},
		{"double dot", "pkg..ext", extension.ErrInvalidName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := extension.Declare(tt.extName)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Declare(%q) error = %v, want %v", tt.extName, err, tt.want)
			}
			var derr *extension.DescriptorError
			if !errors.As(err, &derr) {
				t.Fatalf("expected DescriptorError, got %T", err)
			}
		})
	}
}

func TestDeclareMany_SharedProjectDir(t *testing.T) {
	ds, err := extension.DeclareMany([]string{"a.x", "a.y"}, extension.WithProjectDir("a"))
	if err != nil {
		t.Fatalf("DeclareMany() error = %v", err)
	}
	if len(ds) != 2 {
		t.Fatalf("expected 2 descriptors, got %d", len(ds))
	}
	want := []string{"x", "y"}
	for i, d := range ds {
		if d.ProjectDir() != "a" {
			t.Errorf("%s: ProjectDir() = %q, want a", d.Name(), d.ProjectDir())
		}
		if d.Target() != want[i] {
			t.Errorf("%s: Target() = %q, want %q", d.Name(), d.Target(), want[i])
		}
	}
}

func TestDeclareMany_DefaultProjectDir(t *testing.T) {
	ds, err := extension.DeclareMany([]string{"a.x", "a.y"})
	if err != nil {
		t.Fatalf("DeclareMany() error = %v", err)
	}
	want := []string{"x", "y"}
	for i, d := range ds {
		if d.ProjectDir() != "a" {
			t.Errorf("%s: ProjectDir() = %q, want a", d.Name(), d.ProjectDir())
		}
		if d.Target() != want[i] {
			t.Errorf("%s: Target() = %q, want %q", d.Name(), d.Target(), want[i])
		}
	}
}

func TestDeclareMany_RejectsSharedTarget(t *testing.T) {
	_, err := extension.DeclareMany([]string{"a.x", "a.y"}, extension.WithTarget("t"))
	if !errors.Is(err, extension.ErrTargetConflict) {
		t.Fatalf("expected ErrTargetConflict, got %v", err)
	}
}

func TestDeclareMany_StopsOnInvalidName(t *testing.T) {
	ds, err := extension.DeclareMany([]string{"a.x", ""})
	if !errors.Is(err, extension.ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
	if ds != nil {
		t.Errorf("expected no descriptors on error, got %v", ds)
	}
}

func TestDescriptor_BuildArgsAreCopied(t *testing.T) {
	args := map[string]string{"pybind11_DIR": "/opt/pybind11"}
	d, err := extension.Declare("pkg.ext", extension.WithBuildArgs(args))
	if err != nil {
		t.Fatal(err)
	}

	args["pybind11_DIR"] = "/changed"
	if got := d.BuildArgs()["pybind11_DIR"]; got != "/opt/pybind11" {
		t.Errorf("descriptor saw caller mutation: %q", got)
	}

	got := d.BuildArgs()
	got["extra"] = "1"
	if _, ok := d.BuildArgs()["extra"]; ok {
		t.Error("descriptor saw mutation of returned map")
	}
}

func TestDescriptor_Definitions(t *testing.T) {
	d, err := extension.Declare("pkg.ext", extension.WithBuildArgs(map[string]string{
		"ZLIB": "ON",
		"ABI":  "3",
	}))
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"-DABI=3", "-DZLIB=ON"}
	if got := d.Definitions(); !reflect.DeepEqual(got, want) {
		t.Errorf("Definitions() = %v, want %v", got, want)
	}
}

func TestDeclarePrebuilt(t *testing.T) {
	d, err := extension.DeclarePrebuilt("pkg.fast", "vendor/fast.so")
	if err != nil {
		t.Fatal(err)
	}
	if d.Kind() != extension.KindPrebuilt {
		t.Errorf("Kind() = %q, want prebuilt", d.Kind())
	}
	if d.Source() != "vendor/fast.so" {
		t.Errorf("Source() = %q", d.Source())
	}

	if _, err := extension.DeclarePrebuilt("pkg.fast", ""); !errors.Is(err, extension.ErrMissingSource) {
		t.Errorf("expected ErrMissingSource, got %v", err)
	}
}

func TestDeclare_DefaultingProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		segments := rapid.SliceOfN(rapid.StringMatching(`[a-z][a-z0-9_]{0,7}`), 1, 5).Draw(t, "segments")
		name := strings.Join(segments, ".")

		d, err := extension.Declare(name)
		if err != nil {
			t.Fatalf("Declare(%q) error = %v", name, err)
		}

		last := segments[len(segments)-1]
		if d.Target() != last {
			t.Fatalf("Target() = %q, want %q", d.Target(), last)
		}

		wantDir := "."
		if len(segments) > 1 {
			wantDir = strings.Join(segments[:len(segments)-1], "/")
		}
		if d.ProjectDir() != wantDir {
			t.Fatalf("ProjectDir() = %q, want %q", d.ProjectDir(), wantDir)
		}
	})
}
