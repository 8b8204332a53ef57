// Package bindgen produces the Rust FFI bindings of pjproject by invoking
// the external bindgen tool.
package bindgen

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/qiniu/x/log"
	"golang.org/x/mod/semver"

	"github.com/goplus/pjbuild/pkgs/buildsys"
)

// OutputFile is the name of the generated bindings in the output directory.
const OutputFile = "bindings.rs"

// wrapperFile includes every header of Headers; bindgen takes a single input.
const wrapperFile = "pj_wrapper.h"

// Headers are the pjproject headers bindings are generated from, relative to
// the pjproject tree. Order matters: config_site.h must come first.
var Headers = []string{
	"pjlib/include/pj/config_site.h",
	"pjsip/include/pjsua-lib/pjsua.h",
	"pjsip/include/pjsua-lib/pjsua_internal.h",
	"pjsip/include/pjsip.h",
	"pjsip/include/pjsip_ua.h",
	"pjnath/include/pjnath.h",
	"pjmedia/include/pjmedia.h",
	"pjmedia/include/pjmedia_audiodev.h",
	"pjmedia/include/pjmedia-codec.h",
	"pjlib-util/include/pjlib-util.h",
	"pjlib/include/pjlib.h",
}

// IncludeDirs are passed to clang so the headers resolve each other.
var IncludeDirs = []string{
	"pjlib/include",
	"pjlib-util/include",
	"pjnath/include",
	"pjmedia/include",
	"pjsip/include",
}

// SymbolPatterns restrict generated types, variables and functions to
// pjproject's own symbols.
var SymbolPatterns = []string{"pj.*", "PJ.*"}

// allowlistSince is the first bindgen release with --allowlist-* flags.
const allowlistSince = "v0.58.0"

// Runner runs bindgen; buildsys.Exec implements it.
type Runner interface {
	buildsys.Runner
	Output(ctx context.Context, s buildsys.Step) ([]byte, error)
}

// Generator runs bindgen over a pjproject tree.
type Generator struct {
	Program   string // bindgen executable
	SourceDir string // pjproject tree
	Output    string // file name inside the output directory
	runner    Runner
}

// New returns a Generator for the pjproject tree at sourceDir.
func New(sourceDir string, r Runner) *Generator {
	return &Generator{
		Program:   "bindgen",
		SourceDir: sourceDir,
		Output:    OutputFile,
		runner:    r,
	}
}

// Exists reports whether bindings were already generated in outDir.
func (g *Generator) Exists(outDir string) bool {
	_, err := os.Stat(filepath.Join(outDir, g.Output))
	return err == nil
}

// GenerateIfAbsent generates the bindings into outDir unless they already
// exist there. generated reports whether bindgen ran.
func (g *Generator) GenerateIfAbsent(ctx context.Context, outDir string) (generated bool, err error) {
	if g.Exists(outDir) {
		log.Debugf("bindgen: %s already present in %s", g.Output, outDir)
		return false, nil
	}
	for _, h := range Headers {
		if _, err := os.Stat(filepath.Join(g.SourceDir, h)); err != nil {
			return false, fmt.Errorf("bindgen: header %s: %w", h, err)
		}
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return false, err
	}
	wrapper := filepath.Join(outDir, wrapperFile)
	if err := os.WriteFile(wrapper, g.wrapper(), 0o644); err != nil {
		return false, err
	}

	legacy, err := g.legacy(ctx)
	if err != nil {
		return false, err
	}

	out := filepath.Join(outDir, g.Output)
	tmp := out + ".tmp"
	step := buildsys.Step{
		Name: "bindgen",
		Dir:  outDir,
		Bin:  g.Program,
		Args: g.Args(wrapper, tmp, legacy),
	}
	if err := buildsys.Run(ctx, g.runner, "bindings", []buildsys.Step{step}); err != nil {
		os.Remove(tmp)
		return false, err
	}
	if err := os.Rename(tmp, out); err != nil {
		os.Remove(tmp)
		return false, err
	}
	log.Infof("bindgen: generated %s", out)
	return true, nil
}

// Args returns the bindgen command line. legacy selects the --whitelist-*
// spelling of bindgen releases before 0.58.
func (g *Generator) Args(wrapper, out string, legacy bool) []string {
	list := "--allowlist-"
	if legacy {
		list = "--whitelist-"
	}
	args := []string{
		wrapper,
		"-o", out,
		"--default-enum-style=consts",
		"--no-layout-tests",
	}
	for _, kind := range []string{"type", "var", "function"} {
		for _, pat := range SymbolPatterns {
			args = append(args, list+kind, pat)
		}
	}
	args = append(args, "--")
	for _, dir := range IncludeDirs {
		args = append(args, "-I"+filepath.Join(g.SourceDir, dir))
	}
	return args
}

func (g *Generator) wrapper() []byte {
	var b bytes.Buffer
	for _, h := range Headers {
		fmt.Fprintf(&b, "#include \"%s\"\n", filepath.ToSlash(filepath.Join(g.SourceDir, h)))
	}
	return b.Bytes()
}

// legacy reports whether the installed bindgen predates --allowlist-*.
// A version string that cannot be parsed is treated as current.
func (g *Generator) legacy(ctx context.Context) (bool, error) {
	out, err := g.runner.Output(ctx, buildsys.Step{Name: "version", Bin: g.Program, Args: []string{"--version"}})
	if err != nil {
		return false, fmt.Errorf("bindgen: probing %s --version: %w", g.Program, err)
	}
	v, ok := ParseVersion(out)
	if !ok {
		log.Warnf("bindgen: cannot parse version from %q", strings.TrimSpace(string(out)))
		return false, nil
	}
	log.Debugf("bindgen: version %s", v)
	return semver.Compare(v, allowlistSince) < 0, nil
}

// ParseVersion extracts a semver from `bindgen --version` output such as
// "bindgen 0.69.4".
func ParseVersion(out []byte) (string, bool) {
	for _, field := range strings.Fields(string(out)) {
		v := "v" + strings.TrimPrefix(field, "v")
		if semver.IsValid(v) {
			return semver.Canonical(v), true
		}
	}
	return "", false
}
