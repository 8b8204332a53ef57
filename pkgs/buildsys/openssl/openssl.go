// Package openssl drives OpenSSL's own Configure + make build.
package openssl

import (
	"os"
	"path/filepath"

	"github.com/goplus/pjbuild/internal/triple"
	"github.com/goplus/pjbuild/pkgs/buildsys"
)

// OpenSSL wraps the clean/Configure/make cycle of an OpenSSL tree.
type OpenSSL struct {
	SourceDir string
	target    string
	env       map[string]string
}

var _ buildsys.BuildSystem = (*OpenSSL)(nil)

// New returns an OpenSSL for the tree at sourceDir.
func New(sourceDir string) *OpenSSL {
	return &OpenSSL{SourceDir: sourceDir, env: map[string]string{}}
}

// ConfigureTarget forces the Configure platform name (e.g. "linux-generic32").
func (o *OpenSSL) ConfigureTarget(name string) {
	o.target = name
}

func (o *OpenSSL) Env(key, value string) {
	if o.env == nil {
		o.env = map[string]string{}
	}
	o.env[key] = value
}

// DefaultTarget picks the Configure platform for p.
func DefaultTarget(p *triple.Platform) string {
	t := p.Target
	switch t.OS {
	case "linux", "android":
		switch t.Arch {
		case "x86_64":
			return "linux-x86_64"
		case "aarch64":
			return "linux-aarch64"
		case "arm":
			return "linux-armv4"
		case "x86":
			return "linux-elf"
		case "mips", "mipsel":
			return "linux-mips32"
		case "mips64", "mips64el":
			return "linux64-mips64"
		case "powerpc64", "powerpc64le":
			return "linux-ppc64"
		case "riscv64":
			return "linux64-riscv64"
		}
	case "macos":
		if t.Arch == "aarch64" {
			return "darwin64-arm64-cc"
		}
		return "darwin64-x86_64-cc"
	}
	if p.PointerWidth == 64 {
		return "linux-generic64"
	}
	return "linux-generic32"
}

// ConfigureArgs returns the arguments of ./Configure. The prefix is empty
// for native builds so that a stale cross prefix never leaks in.
func (o *OpenSSL) ConfigureArgs(p *triple.Platform) []string {
	prefix := ""
	if p.Cross {
		prefix = p.Prefix + "-"
	}
	target := o.target
	if target == "" {
		target = DefaultTarget(p)
	}
	return []string{"--cross-compile-prefix=" + prefix, target}
}

// Steps cleans, configures and builds. make clean is skipped in a tree that
// has never been configured: it has no Makefile and nothing to clean.
// This departs from always running make clean, which fails on a fresh tree.
func (o *OpenSSL) Steps(p *triple.Platform) ([]buildsys.Step, error) {
	mk := buildsys.MakeProgram()
	var steps []buildsys.Step
	if _, err := os.Stat(filepath.Join(o.SourceDir, "Makefile")); err == nil {
		steps = append(steps, buildsys.Step{Name: "clean", Dir: o.SourceDir, Bin: mk, Args: []string{"clean"}, Env: o.env})
	}
	steps = append(steps,
		buildsys.Step{Name: "configure", Dir: o.SourceDir, Bin: "./Configure", Args: o.ConfigureArgs(p), Env: o.env},
		buildsys.Step{Name: "build", Dir: o.SourceDir, Bin: mk, Env: o.env},
	)
	return steps, nil
}
