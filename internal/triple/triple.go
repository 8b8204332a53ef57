// Package triple derives the canonical target triple and the cross-compiler
// prefix of an invocation from its build environment.
package triple

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goplus/pjbuild/internal/env"
)

const defaultVendor = "unknown"

// Triple identifies a platform as arch-vendor-os-env.
type Triple struct {
	Arch   string
	Vendor string
	OS     string
	Env    string
}

// String returns the canonical form, e.g. "x86_64-unknown-linux-gnu".
func (t Triple) String() string {
	vendor := t.Vendor
	if vendor == "" {
		vendor = defaultVendor
	}
	s := t.Arch + "-" + vendor + "-" + t.OS
	if t.Env != "" {
		s += "-" + t.Env
	}
	return s
}

// Suffix is the decoration pjproject appends to its library names.
func (t Triple) Suffix() string {
	return "-" + t.String()
}

// Resolve builds the target triple from vars. The env field is the last
// component of the raw target name: the cfg env variable is empty on
// targets such as arm-unknown-linux-gnueabihf, whose ABI pjproject's
// configure still encodes in its library names.
func Resolve(vars *env.Vars) (Triple, error) {
	if vars.Target == "" {
		return Triple{}, &env.MissingError{Key: "TARGET"}
	}
	if vars.Arch == "" || vars.OS == "" {
		return Triple{}, fmt.Errorf("incomplete target description for %s", vars.Target)
	}
	vendor := vars.Vendor
	if vendor == "" {
		vendor = defaultVendor
	}
	parts := strings.Split(vars.Target, "-")
	return Triple{
		Arch:   vars.Arch,
		Vendor: vendor,
		OS:     vars.OS,
		Env:    parts[len(parts)-1],
	}, nil
}

// compilerSuffixes are stripped from a compiler path to obtain its prefix.
var compilerSuffixes = []string{"-gcc", "-clang", "-cc"}

// CompilerPrefix strips the compiler suffix from cc, keeping the directory:
// "/opt/x/bin/arm-linux-gnueabihf-gcc-12" becomes "/opt/x/bin/arm-linux-gnueabihf".
// cc is returned unchanged when it carries none of the known suffixes.
func CompilerPrefix(cc string) string {
	dir, base := filepath.Split(cc)
	for _, suffix := range compilerSuffixes {
		if i := strings.LastIndex(base, suffix); i > 0 {
			return dir + base[:i]
		}
	}
	return cc
}

// Platform is everything the native drivers need to know about the
// target and the build host.
type Platform struct {
	Target       Triple
	Host         string
	Cross        bool
	Compiler     string
	Prefix       string // Compiler without its suffix; meaningful when Cross
	PointerWidth int
}

// NewPlatform resolves the target triple and compiler of vars.
func NewPlatform(vars *env.Vars) (*Platform, error) {
	t, err := Resolve(vars)
	if err != nil {
		return nil, err
	}
	if vars.Host == "" {
		return nil, &env.MissingError{Key: "HOST"}
	}
	p := &Platform{
		Target: t,
		Host:   vars.Host,
		Cross:  vars.IsCross(),
	}
	p.Compiler = compiler(vars, t, p.Cross)
	p.Prefix = CompilerPrefix(p.Compiler)
	if vars.PointerWidth != "" {
		if n, err := strconv.Atoi(vars.PointerWidth); err == nil {
			p.PointerWidth = n
		}
	}
	return p, nil
}

// HostAlias is the configure-style name of the cross toolchain, e.g.
// "arm-linux-gnueabihf". Empty when building natively.
func (p *Platform) HostAlias() string {
	if !p.Cross {
		return ""
	}
	return filepath.Base(p.Prefix)
}

// compiler finds the C compiler for the target the way cc-rs does: a
// target-specific variable first, then the target/host generic one, then CC.
func compiler(vars *env.Vars, t Triple, cross bool) string {
	keys := []string{
		"CC_" + vars.Target,
		"CC_" + strings.ReplaceAll(vars.Target, "-", "_"),
	}
	if cross {
		keys = append(keys, "TARGET_CC")
	} else {
		keys = append(keys, "HOST_CC")
	}
	keys = append(keys, "CC")
	for _, k := range keys {
		if cc, ok := vars.Lookup(k); ok && cc != "" {
			return cc
		}
	}
	if cross {
		return gnuPrefix(t) + "-gcc"
	}
	return "cc"
}

// gnuPrefix maps a triple to the prefix GNU cross toolchains are installed under.
func gnuPrefix(t Triple) string {
	switch {
	case t.OS == "windows" && t.Env == "gnu":
		if t.Arch == "x86" {
			return "i686-w64-mingw32"
		}
		return t.Arch + "-w64-mingw32"
	case t.OS == "android":
		if t.Arch == "arm" {
			return "arm-linux-androideabi"
		}
		return t.Arch + "-linux-android"
	case t.OS == "none" || t.OS == "":
		return t.Arch + "-none-" + t.Env
	}
	return t.Arch + "-" + t.OS + "-" + t.Env
}
