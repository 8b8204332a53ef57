// Package env reads the build-hook environment an invocation is driven by.
package env

import (
	"fmt"
	"os"
)

// Names maps every input of an invocation to the environment variable that
// carries it. The zero value of a field disables that input.
type Names struct {
	Target       string `yaml:"target"`
	Host         string `yaml:"host"`
	Arch         string `yaml:"arch"`
	Vendor       string `yaml:"vendor"`
	OS           string `yaml:"os"`
	Endian       string `yaml:"endian"`
	PointerWidth string `yaml:"pointer_width"`
	OutDir       string `yaml:"out_dir"`
	ManifestDir  string `yaml:"manifest_dir"`
}

// DefaultNames returns the variable names exported by cargo to build scripts.
func DefaultNames() Names {
	return Names{
		Target:       "TARGET",
		Host:         "HOST",
		Arch:         "CARGO_CFG_TARGET_ARCH",
		Vendor:       "CARGO_CFG_TARGET_VENDOR",
		OS:           "CARGO_CFG_TARGET_OS",
		Endian:       "CARGO_CFG_TARGET_ENDIAN",
		PointerWidth: "CARGO_CFG_TARGET_POINTER_WIDTH",
		OutDir:       "OUT_DIR",
		ManifestDir:  "CARGO_MANIFEST_DIR",
	}
}

// Merge returns n with every empty field taken from defaults.
func (n Names) Merge(defaults Names) Names {
	pick := func(v, def string) string {
		if v != "" {
			return v
		}
		return def
	}
	return Names{
		Target:       pick(n.Target, defaults.Target),
		Host:         pick(n.Host, defaults.Host),
		Arch:         pick(n.Arch, defaults.Arch),
		Vendor:       pick(n.Vendor, defaults.Vendor),
		OS:           pick(n.OS, defaults.OS),
		Endian:       pick(n.Endian, defaults.Endian),
		PointerWidth: pick(n.PointerWidth, defaults.PointerWidth),
		OutDir:       pick(n.OutDir, defaults.OutDir),
		ManifestDir:  pick(n.ManifestDir, defaults.ManifestDir),
	}
}

// LookupFunc has the signature of os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// FromMap returns a LookupFunc backed by m.
func FromMap(m map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

// MissingError reports a required variable that is unset or empty.
type MissingError struct {
	Key string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("required environment variable %s is not set", e.Key)
}

// Vars is a snapshot of the build environment. Optional inputs are left
// empty when their variable is unset.
type Vars struct {
	Target       string
	Host         string
	Arch         string
	Vendor       string
	OS           string
	Endian       string
	PointerWidth string
	OutDir       string
	ManifestDir  string

	lookup LookupFunc
}

// Load reads the variables named by names through lookup. A nil lookup
// means os.LookupEnv. TARGET, HOST, the target arch and os, and the output
// directory are required.
func Load(names Names, lookup LookupFunc) (*Vars, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	v := &Vars{lookup: lookup}

	required := []struct {
		key string
		dst *string
	}{
		{names.Target, &v.Target},
		{names.Host, &v.Host},
		{names.Arch, &v.Arch},
		{names.OS, &v.OS},
		{names.OutDir, &v.OutDir},
	}
	for _, r := range required {
		val, ok := lookup(r.key)
		if !ok || val == "" {
			return nil, &MissingError{Key: r.key}
		}
		*r.dst = val
	}

	optional := []struct {
		key string
		dst *string
	}{
		{names.Vendor, &v.Vendor},
		{names.Endian, &v.Endian},
		{names.PointerWidth, &v.PointerWidth},
		{names.ManifestDir, &v.ManifestDir},
	}
	for _, o := range optional {
		if o.key == "" {
			continue
		}
		*o.dst, _ = lookup(o.key)
	}
	return v, nil
}

// Lookup reads an arbitrary variable from the same source Load used.
func (v *Vars) Lookup(key string) (string, bool) {
	if v.lookup == nil {
		return os.LookupEnv(key)
	}
	return v.lookup(key)
}

// IsCross reports whether the target differs from the build host.
func (v *Vars) IsCross() bool {
	return v.Target != v.Host
}

// WorkDir returns the workspace root: the manifest directory when the hook
// exports one, the current directory otherwise. A nil lookup means
// os.LookupEnv.
func WorkDir(names Names, lookup LookupFunc) (string, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if names.ManifestDir != "" {
		if dir, ok := lookup(names.ManifestDir); ok && dir != "" {
			return dir, nil
		}
	}
	return os.Getwd()
}
