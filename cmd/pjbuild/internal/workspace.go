package internal

import (
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/goplus/pjbuild/internal/bindgen"
	"github.com/goplus/pjbuild/internal/build"
	"github.com/goplus/pjbuild/internal/components"
	"github.com/goplus/pjbuild/internal/config"
	"github.com/goplus/pjbuild/internal/env"
	"github.com/goplus/pjbuild/internal/link"
	"github.com/goplus/pjbuild/internal/source"
	"github.com/goplus/pjbuild/pkgs/buildsys"
	"github.com/goplus/pjbuild/pkgs/buildsys/autotools"
	"github.com/goplus/pjbuild/pkgs/buildsys/openssl"
)

// linkFlags override the link section of the config.
type linkFlags struct {
	format string
	pkg    string
	tag    string
}

func (f *linkFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.format, "format", "", "Link directive format: cargo, cgo or flags")
	cmd.Flags().StringVar(&f.pkg, "package", "", "Package clause of the cgo format")
	cmd.Flags().StringVar(&f.tag, "tag", "", "Build constraint of the cgo format")
}

// workspace is a loaded workspace root and its configuration.
type workspace struct {
	root string
	cfg  *config.Config
}

func openWorkspace() (*workspace, error) {
	root := workspaceDir
	if root == "" {
		var err error
		if root, err = env.WorkDir(env.DefaultNames(), nil); err != nil {
			return nil, err
		}
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(root, configFile)
	if err != nil {
		return nil, err
	}
	return &workspace{root: root, cfg: cfg}, nil
}

// env reads the build environment with the configured variable names.
func (w *workspace) env() (*env.Vars, error) {
	return build.LoadEnv(w.cfg.Env, nil)
}

// builder wires the configured trees, build systems and output format.
func (w *workspace) builder(stdout io.Writer, lf *linkFlags) (*build.Builder, error) {
	cfg := w.cfg
	opts := link.Options{Package: cfg.Link.Package, BuildTag: cfg.Link.BuildTag}
	format := cfg.Link.Format
	if lf != nil {
		if lf.format != "" {
			format = lf.format
		}
		if lf.pkg != "" {
			opts.Package = lf.pkg
		}
		if lf.tag != "" {
			opts.BuildTag = lf.tag
		}
	}
	f, err := link.ParseFormat(format)
	if err != nil {
		return nil, err
	}

	tlsDir := components.Resolve(w.root, cfg.TLS.Dir)
	sipDir := components.Resolve(w.root, cfg.SIP.Dir)
	runner := buildsys.NewExec(verbose)

	tls := openssl.New(tlsDir)
	if cfg.TLS.ConfigureTarget != "" {
		tls.ConfigureTarget(cfg.TLS.ConfigureTarget)
	}
	sip := autotools.New(sipDir)
	for k, v := range cfg.TLS.BuildEnv {
		tls.Env(k, v)
	}
	for k, v := range cfg.SIP.BuildEnv {
		sip.Env(k, v)
	}

	gen := bindgen.New(sipDir, runner)
	gen.Program = cfg.Bindgen.Program
	gen.Output = cfg.Bindgen.Output

	return build.New(w.root, build.Options{
		Catalog: components.Default(cfg.TLS.Dir, cfg.SIP.Dir),
		State:   &build.FileState{Path: config.Path(w.root, cfg.StateFile)},
		Runner:  runner,
		Systems: map[string]buildsys.BuildSystem{
			components.TLS: tls,
			components.SIP: sip,
		},
		Sources: map[string]source.Origin{
			components.TLS: w.origin(cfg.TLS.Tree),
			components.SIP: w.origin(cfg.SIP),
		},
		Git:     source.NewGit(source.WithGitPath(cfg.Git.Program)),
		Bindgen: gen,
		Stdout:  stdout,
		Format:  f,
		Link:    opts,
	}), nil
}

func (w *workspace) origin(t config.Tree) source.Origin {
	return source.Origin{
		Archive: config.Path(w.root, t.Archive),
		Git:     t.Git,
		Ref:     t.Ref,
	}
}
