package source

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/qiniu/x/log"
)

// Git fetches source trees with the git command line.
type Git struct {
	program string
}

// GitOption configures Git.
type GitOption func(*Git)

// WithGitPath sets a custom git executable path.
func WithGitPath(path string) GitOption {
	return func(g *Git) {
		g.program = path
	}
}

// NewGit returns a Git using the git found in PATH unless overridden.
func NewGit(opts ...GitOption) *Git {
	g := &Git{program: "git"}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Sync makes dir a shallow checkout of ref from remote. ref can be a
// branch, tag or commit. dir must exist.
func (g *Git) Sync(ctx context.Context, remote, ref, dir string) error {
	if _, err := os.Stat(filepath.Join(dir, ".git")); os.IsNotExist(err) {
		if err := g.run(ctx, dir, "init", "--quiet"); err != nil {
			return fmt.Errorf("init: %w", err)
		}
	}
	if err := g.run(ctx, dir, "fetch", "--depth", "1", remote, ref); err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	if err := g.run(ctx, dir, "checkout", "--quiet", "FETCH_HEAD"); err != nil {
		return fmt.Errorf("checkout %s: %w", ref, err)
	}
	return nil
}

// Head returns the commit checked out in dir.
func (g *Git) Head(ctx context.Context, dir string) (string, error) {
	out, err := g.output(ctx, dir, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (g *Git) run(ctx context.Context, dir string, args ...string) error {
	_, err := g.output(ctx, dir, args...)
	return err
}

func (g *Git) output(ctx context.Context, dir string, args ...string) (string, error) {
	log.Debugf("source: %s %s (in %s)", g.program, strings.Join(args, " "), dir)
	cmd := exec.CommandContext(ctx, g.program, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%s", msg)
		}
		return "", err
	}
	return stdout.String(), nil
}
