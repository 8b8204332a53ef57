package autotools

import (
	"github.com/goplus/pjbuild/internal/triple"
	"github.com/goplus/pjbuild/pkgs/buildsys"
)

// AutoTools drives pjproject's autoconf build: aconfigure, make dep, make.
type AutoTools struct {
	SourceDir string
	script    string
	disabled  []string
	env       map[string]string
}

var _ buildsys.BuildSystem = (*AutoTools)(nil)

// New creates an AutoTools for the tree at sourceDir with video and the
// WebRTC media backend disabled.
func New(sourceDir string) *AutoTools {
	return &AutoTools{
		SourceDir: sourceDir,
		script:    "aconfigure",
		disabled:  []string{"video", "libwebrtc"},
		env:       map[string]string{},
	}
}

// Script overrides the configure script name.
func (a *AutoTools) Script(name string) {
	a.script = name
}

// Disable adds --disable-<feature> flags to the configure step.
func (a *AutoTools) Disable(features ...string) {
	a.disabled = append(a.disabled, features...)
}

func (a *AutoTools) Env(key, value string) {
	if a.env == nil {
		a.env = map[string]string{}
	}
	a.env[key] = value
}

// ConfigureArgs returns the arguments passed to sh after the script name.
// --target and --host are only given when cross-compiling.
func (a *AutoTools) ConfigureArgs(p *triple.Platform) []string {
	args := []string{a.script}
	if p.Cross {
		alias := p.HostAlias()
		args = append(args, "--target="+alias, "--host="+alias)
	}
	for _, f := range a.disabled {
		args = append(args, "--disable-"+f)
	}
	return args
}

func (a *AutoTools) Steps(p *triple.Platform) ([]buildsys.Step, error) {
	mk := buildsys.MakeProgram()
	return []buildsys.Step{
		{Name: "configure", Dir: a.SourceDir, Bin: "sh", Args: a.ConfigureArgs(p), Env: a.env},
		{Name: "dep", Dir: a.SourceDir, Bin: mk, Args: []string{"dep"}, Env: a.env},
		{Name: "build", Dir: a.SourceDir, Bin: mk, Env: a.env},
	}, nil
}
