// Package build runs one pjbuild invocation: it decides which native
// components must be rebuilt for the current target, drives their build
// systems, and emits link directives and bindings.
package build

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/qiniu/x/log"

	"github.com/goplus/pjbuild/internal/bindgen"
	"github.com/goplus/pjbuild/internal/components"
	"github.com/goplus/pjbuild/internal/env"
	"github.com/goplus/pjbuild/internal/link"
	"github.com/goplus/pjbuild/internal/pjconfig"
	"github.com/goplus/pjbuild/internal/probe"
	"github.com/goplus/pjbuild/internal/source"
	"github.com/goplus/pjbuild/internal/triple"
	"github.com/goplus/pjbuild/pkgs/buildsys"
)

// LockFile is the advisory lock taken on the workspace during Run.
const LockFile = ".pjbuild.lock"

// Options configures a Builder. Zero values select defaults where one
// exists.
type Options struct {
	Catalog *components.Catalog
	State   StateStore                      // defaults to FileState at DefaultStateFile
	Runner  buildsys.Runner                 // defaults to a quiet buildsys.Exec
	Systems map[string]buildsys.BuildSystem // build system per component name
	Sources map[string]source.Origin        // where a missing tree comes from, per component name
	Git     *source.Git                     // client for git origins without one
	Bindgen *bindgen.Generator              // nil disables binding generation
	Stdout  io.Writer                       // link directives; defaults to os.Stdout
	Format  link.Format                     // defaults to link.Cargo
	Link    link.Options
	NoLock  bool
}

// Builder orchestrates the native build of a workspace.
type Builder struct {
	root string
	opts Options
	prob *probe.Probe
}

// Result summarizes a successful Run.
type Result struct {
	Triple            triple.Triple
	Rebuilt           []string // component names, in build order
	Directives        []link.Directive
	BindingsGenerated bool
}

// New returns a Builder for the workspace at root.
func New(root string, opts Options) *Builder {
	if opts.State == nil {
		opts.State = &FileState{Path: filepath.Join(root, DefaultStateFile)}
	}
	if opts.Runner == nil {
		opts.Runner = buildsys.NewExec(false)
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Format == "" {
		opts.Format = link.Cargo
	}
	return &Builder{
		root: root,
		opts: opts,
		prob: probe.New(root, opts.Catalog),
	}
}

// LoadEnv reads the build environment, reporting absent variables as
// ErrMissingEnvironment.
func LoadEnv(names env.Names, lookup env.LookupFunc) (*env.Vars, error) {
	vars, err := env.Load(names, lookup)
	if err != nil {
		return nil, wrap(ErrMissingEnvironment, "", "", err)
	}
	return vars, nil
}

// Platform resolves the target of vars.
func (b *Builder) Platform(vars *env.Vars) (*triple.Platform, error) {
	p, err := triple.NewPlatform(vars)
	if err != nil {
		return nil, wrap(ErrMissingEnvironment, "", "resolve target", err)
	}
	return p, nil
}

// Run performs one full invocation. The TLS component is rebuilt when the
// target differs from the stored one or its artifacts are incomplete; the
// SIP stack only when its artifacts are incomplete. The stored target is
// updated only when every build succeeded and its artifacts are present.
func (b *Builder) Run(ctx context.Context, vars *env.Vars) (*Result, error) {
	p, err := b.Platform(vars)
	if err != nil {
		return nil, err
	}
	cur := p.Target.String()

	if !b.opts.NoLock {
		unlock, err := lockWorkspace(filepath.Join(b.root, LockFile))
		if err != nil {
			return nil, wrap(ErrStateIO, "", "lock workspace", err)
		}
		defer unlock()
	}

	if err := b.ensureSources(ctx); err != nil {
		return nil, err
	}

	prev, ok, err := b.opts.State.Read()
	if err != nil {
		return nil, wrap(ErrStateIO, "", "read state", err)
	}

	res := &Result{Triple: p.Target}

	var reason string
	switch {
	case !ok:
		reason = "no recorded target"
	case prev != cur:
		reason = "target changed from " + prev
	default:
		if reason, err = b.needsBuild(components.TLS, p.Target); err != nil {
			return nil, err
		}
	}
	if reason != "" {
		log.Infof("%s: %s, rebuilding for %s", components.TLS, reason, cur)
		if err := b.rebuild(ctx, components.TLS, p); err != nil {
			return nil, err
		}
		res.Rebuilt = append(res.Rebuilt, components.TLS)
	}

	if err := b.WriteHeader(vars); err != nil {
		return nil, err
	}

	if reason, err = b.needsBuild(components.SIP, p.Target); err != nil {
		return nil, err
	}
	if reason != "" {
		log.Infof("%s: %s, rebuilding for %s", components.SIP, reason, cur)
		if err := b.rebuild(ctx, components.SIP, p); err != nil {
			return nil, err
		}
		res.Rebuilt = append(res.Rebuilt, components.SIP)
	}

	if err := b.opts.State.Write(cur); err != nil {
		return nil, wrap(ErrStateIO, "", "write state", err)
	}

	res.Directives, err = b.Plan(p.Target)
	if err != nil {
		return nil, err
	}

	res.BindingsGenerated, err = b.Bindings(ctx, vars)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// WriteHeader writes the platform config header into the SIP tree.
func (b *Builder) WriteHeader(vars *env.Vars) error {
	e, err := pjconfig.ParseEndian(vars.Endian)
	if err != nil {
		return wrap(ErrConfigHeader, components.SIP, "endianness", err)
	}
	sip, ok := b.opts.Catalog.Lookup(components.SIP)
	if !ok {
		return wrap(ErrConfigHeader, components.SIP, "", fmt.Errorf("component %s not in catalog", components.SIP))
	}
	path := filepath.Join(components.Resolve(b.root, sip.Dir), pjconfig.HeaderPath)
	if err := pjconfig.WriteHeader(path, e); err != nil {
		return wrap(ErrConfigHeader, components.SIP, "write "+pjconfig.HeaderPath, err)
	}
	log.Debugf("%s: wrote %s (%s endian)", components.SIP, path, e)
	return nil
}

// Plan computes the link directives for t and writes them to the
// configured output.
func (b *Builder) Plan(t triple.Triple) ([]link.Directive, error) {
	directives := link.Plan(b.opts.Catalog, b.root, t)
	if err := link.Write(b.opts.Stdout, b.opts.Format, directives, b.opts.Link); err != nil {
		return nil, fmt.Errorf("writing link directives: %w", err)
	}
	return directives, nil
}

// Bindings generates the bindings into the output directory of vars unless
// they exist. It reports whether the generator ran.
func (b *Builder) Bindings(ctx context.Context, vars *env.Vars) (bool, error) {
	if b.opts.Bindgen == nil {
		return false, nil
	}
	generated, err := b.opts.Bindgen.GenerateIfAbsent(ctx, vars.OutDir)
	if err != nil {
		return false, wrapStep(ErrBindingGeneration, "bindings", err)
	}
	return generated, nil
}

// ComponentStatus reports whether a component is built for a target.
type ComponentStatus struct {
	Name     string
	Complete bool
	Missing  string // first missing artifact when incomplete
}

// Status describes the workspace without changing it.
type Status struct {
	Stored     string // empty when no target was recorded
	Current    triple.Triple
	Components []ComponentStatus
}

// Status reports the recorded target and the completeness of every
// component for the target of vars.
func (b *Builder) Status(vars *env.Vars) (*Status, error) {
	p, err := b.Platform(vars)
	if err != nil {
		return nil, err
	}
	stored, _, err := b.opts.State.Read()
	if err != nil {
		return nil, wrap(ErrStateIO, "", "read state", err)
	}
	st := &Status{Stored: stored, Current: p.Target}
	for _, comp := range b.opts.Catalog.Components {
		path, missing, err := b.prob.Missing(comp.Name, p.Target)
		if err != nil {
			return nil, err
		}
		st.Components = append(st.Components, ComponentStatus{
			Name:     comp.Name,
			Complete: !missing,
			Missing:  path,
		})
	}
	return st, nil
}

func (b *Builder) ensureSources(ctx context.Context) error {
	for _, comp := range b.opts.Catalog.Components {
		dir := components.Resolve(b.root, comp.Dir)
		o := b.opts.Sources[comp.Name]
		if o.Client == nil {
			o.Client = b.opts.Git
		}
		if err := source.Ensure(ctx, dir, o); err != nil {
			return wrap(ErrSourceTree, comp.Name, "", err)
		}
	}
	return nil
}

// needsBuild returns why the component must be built for t, or "" when
// its artifacts are complete.
func (b *Builder) needsBuild(name string, t triple.Triple) (string, error) {
	path, missing, err := b.prob.Missing(name, t)
	if err != nil {
		return "", fmt.Errorf("probe: %w", err)
	}
	if !missing {
		log.Debugf("%s: artifacts complete for %s", name, t)
		return "", nil
	}
	return path + " is missing", nil
}

// rebuild runs every step of the component's build system, then checks
// that the build produced the whole artifact set.
func (b *Builder) rebuild(ctx context.Context, name string, p *triple.Platform) error {
	sys, ok := b.opts.Systems[name]
	if !ok {
		return wrap(ErrExternalBuild, name, "", fmt.Errorf("no build system for %s", name))
	}
	steps, err := sys.Steps(p)
	if err != nil {
		return wrap(ErrExternalBuild, name, "plan", err)
	}
	if err := buildsys.Run(ctx, b.opts.Runner, name, steps); err != nil {
		return wrapStep(ErrExternalBuild, name, err)
	}

	path, missing, err := b.prob.Missing(name, p.Target)
	if err != nil {
		return wrap(ErrArtifactMissing, name, "", err)
	}
	if missing {
		return wrap(ErrArtifactMissing, name, "", fmt.Errorf("%s was not produced", path))
	}
	return nil
}

// wrapStep keeps the failing step of a *buildsys.StepError in the
// returned error.
func wrapStep(kind error, component string, err error) error {
	var se *buildsys.StepError
	if errors.As(err, &se) {
		return wrap(kind, se.Component, se.Step, err)
	}
	return wrap(kind, component, "", err)
}
