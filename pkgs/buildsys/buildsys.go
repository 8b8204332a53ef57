package buildsys

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"sort"
	"strings"

	"github.com/qiniu/x/log"

	"github.com/goplus/pjbuild/internal/triple"
)

// BuildSystem captures what pjbuild needs from a native build helper
// (OpenSSL's Configure, pjproject's autoconf, etc): the ordered recipe that
// rebuilds the whole component for a platform.
type BuildSystem interface {
	// Steps returns the commands to run, in order.
	Steps(p *triple.Platform) ([]Step, error)
}

// Step is a single external command of a recipe.
type Step struct {
	Name string            // short identity used in errors, e.g. "configure"
	Dir  string            // working directory
	Bin  string            // program to spawn
	Args []string          // program arguments
	Env  map[string]string // overrides on top of the process environment
}

func (s Step) String() string {
	return strings.Join(append([]string{s.Bin}, s.Args...), " ")
}

// Runner spawns the command of a step and waits for it to exit.
type Runner interface {
	Run(ctx context.Context, s Step) error
}

// Exec is the Runner that starts real child processes.
type Exec struct {
	Stdout io.Writer
	Stderr io.Writer
}

// NewExec returns an Exec that streams child output to stderr when verbose
// and discards it otherwise. Stdout of the orchestrator is reserved for
// link directives, so children never write to it.
func NewExec(verbose bool) *Exec {
	if verbose {
		return &Exec{Stdout: os.Stderr, Stderr: os.Stderr}
	}
	return &Exec{Stdout: io.Discard, Stderr: io.Discard}
}

func (e *Exec) Run(ctx context.Context, s Step) error {
	cmd := exec.CommandContext(ctx, s.Bin, s.Args...)
	cmd.Dir = s.Dir
	cmd.Stdout = e.Stdout
	cmd.Stderr = e.Stderr
	if len(s.Env) > 0 {
		cmd.Env = mergeEnv(os.Environ(), s.Env)
	}
	return cmd.Run()
}

// Output runs s and returns its standard output.
func (e *Exec) Output(ctx context.Context, s Step) ([]byte, error) {
	cmd := exec.CommandContext(ctx, s.Bin, s.Args...)
	cmd.Dir = s.Dir
	cmd.Stderr = e.Stderr
	if len(s.Env) > 0 {
		cmd.Env = mergeEnv(os.Environ(), s.Env)
	}
	return cmd.Output()
}

// StepError reports a step that could not be spawned or exited non-zero.
type StepError struct {
	Component string
	Step      string
	Command   string
	ExitCode  int // -1 when the process never ran to completion
	Err       error
}

func (e *StepError) Error() string {
	if e.ExitCode > 0 {
		return fmt.Sprintf("%s: step %s (%s) exited with status %d", e.Component, e.Step, e.Command, e.ExitCode)
	}
	return fmt.Sprintf("%s: step %s (%s) failed: %v", e.Component, e.Step, e.Command, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Run executes steps one at a time, stopping at the first failure, which is
// returned as a *StepError naming component and step.
func Run(ctx context.Context, r Runner, component string, steps []Step) error {
	for _, s := range steps {
		log.Debugf("%s: %s: %s (in %s)", component, s.Name, s, s.Dir)
		if err := r.Run(ctx, s); err != nil {
			code := -1
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				code = exitErr.ExitCode()
			}
			return &StepError{
				Component: component,
				Step:      s.Name,
				Command:   s.String(),
				ExitCode:  code,
				Err:       err,
			}
		}
	}
	return nil
}

// MakeProgram returns the make to drive native builds with: $MAKE when set,
// gmake on the BSDs whose make is not GNU make, make elsewhere.
func MakeProgram() string {
	if m := os.Getenv("MAKE"); m != "" {
		return m
	}
	switch runtime.GOOS {
	case "freebsd", "openbsd", "netbsd", "dragonfly":
		return "gmake"
	}
	return "make"
}

func mergeEnv(base []string, override map[string]string) []string {
	envMap := make(map[string]string, len(base))
	for _, kv := range base {
		if k, v, ok := strings.Cut(kv, "="); ok {
			envMap[k] = v
		}
	}
	for k, v := range override {
		envMap[k] = v
	}
	keys := make([]string, 0, len(envMap))
	for k := range envMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+envMap[k])
	}
	return out
}
