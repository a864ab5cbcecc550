// Package env captures the build-related environment once per run
package env

import (
	"fmt"
	"os/exec"
	"regexp"
	"runtime"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// Keys under which the snapshot values are looked up
const (
	KeyGenerator     = "generator"
	KeyExtraArgs     = "cmake_args"
	KeyArchFlags     = "archflags"
	KeyParallelLevel = "parallel_level"
	KeyDebug         = "debug"
)

var archFlagRegex = regexp.MustCompile(`-arch (\S+)`)

// Snapshot is the environment as seen at the start of an orchestration run.
// It is passed by value; nothing re-reads the process environment later.
type Snapshot struct {
	Generator        string
	ExtraArgs        []string
	Architectures    []string
	ParallelLevelSet bool
	Debug            bool
	NinjaAvailable   bool
	HostOS           string
}

// NewViper returns a viper instance bound to the standard CMake variables
func NewViper() *viper.Viper {
	v := viper.New()
	// BindEnv only fails without a key argument
	_ = v.BindEnv(KeyGenerator, "CMAKE_GENERATOR")
	_ = v.BindEnv(KeyExtraArgs, "CMAKE_ARGS")
	_ = v.BindEnv(KeyArchFlags, "ARCHFLAGS")
	_ = v.BindEnv(KeyParallelLevel, "CMAKE_BUILD_PARALLEL_LEVEL")
	_ = v.BindEnv(KeyDebug, "DEBUG")
	v.AllowEmptyEnv(true)
	return v
}

// Capture reads the process environment and probes for ninja
func Capture() (Snapshot, error) {
	_, err := exec.LookPath("ninja")
	return FromViper(NewViper(), err == nil, runtime.GOOS)
}

// FromViper builds a snapshot from any viper source.
// DEBUG must be an integer when present.
func FromViper(v *viper.Viper, ninjaAvailable bool, hostOS string) (Snapshot, error) {
	debug, err := parseDebug(v.GetString(KeyDebug))
	if err != nil {
		return Snapshot{}, err
	}

	return Snapshot{
		Generator:        v.GetString(KeyGenerator),
		ExtraArgs:        splitArgs(v.GetString(KeyExtraArgs)),
		Architectures:    ParseArchFlags(v.GetString(KeyArchFlags)),
		ParallelLevelSet: v.IsSet(KeyParallelLevel),
		Debug:            debug,
		NinjaAvailable:   ninjaAvailable,
		HostOS:           hostOS,
	}, nil
}

func parseDebug(value string) (bool, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return false, nil
	}
	n, err := cast.ToIntE(value)
	if err != nil {
		return false, fmt.Errorf("invalid DEBUG value %q: want an integer", value)
	}
	return n != 0, nil
}

// splitArgs splits CMAKE_ARGS on whitespace, dropping empty items
func splitArgs(s string) []string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// ParseArchFlags extracts the architectures from "-arch x86_64 -arch arm64"
func ParseArchFlags(flags string) []string {
	matches := archFlagRegex.FindAllStringSubmatch(flags, -1)
	if len(matches) == 0 {
		return nil
	}
	archs := make([]string, 0, len(matches))
	for _, m := range matches {
		archs = append(archs, m[1])
	}
	return archs
}
