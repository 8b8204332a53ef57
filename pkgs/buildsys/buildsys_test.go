package buildsys

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
)

type fakeRunner struct {
	ran    []string
	failAt string
	err    error
}

func (f *fakeRunner) Run(ctx context.Context, s Step) error {
	f.ran = append(f.ran, s.Name)
	if s.Name == f.failAt {
		return f.err
	}
	return nil
}

func TestRunStopsAtFirstFailure(t *testing.T) {
	boom := errors.New("boom")
	r := &fakeRunner{failAt: "dep", err: boom}
	steps := []Step{
		{Name: "configure", Bin: "sh", Args: []string{"aconfigure"}},
		{Name: "dep", Bin: "make", Args: []string{"dep"}},
		{Name: "build", Bin: "make"},
	}
	err := Run(context.Background(), r, "sip-stack", steps)

	var stepErr *StepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("Run() error = %v, want *StepError", err)
	}
	if stepErr.Component != "sip-stack" || stepErr.Step != "dep" {
		t.Errorf("StepError = %+v", stepErr)
	}
	if stepErr.Command != "make dep" {
		t.Errorf("Command = %q", stepErr.Command)
	}
	if !errors.Is(err, boom) {
		t.Error("StepError does not unwrap to the runner error")
	}
	if got := strings.Join(r.ran, " "); got != "configure dep" {
		t.Errorf("ran %q, want %q", got, "configure dep")
	}
}

func TestRunAllSteps(t *testing.T) {
	r := &fakeRunner{}
	steps := []Step{{Name: "a"}, {Name: "b"}, {Name: "c"}}
	if err := Run(context.Background(), r, "tls", steps); err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(r.ran, " "); got != "a b c" {
		t.Errorf("ran %q", got)
	}
}

func TestExecExitStatus(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not found in PATH")
	}
	e := NewExec(false)
	err := Run(context.Background(), e, "tls", []Step{
		{Name: "configure", Bin: "sh", Args: []string{"-c", "exit 3"}, Dir: t.TempDir()},
	})
	var stepErr *StepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("Run() error = %v, want *StepError", err)
	}
	if stepErr.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", stepErr.ExitCode)
	}
	if !strings.Contains(stepErr.Error(), "status 3") {
		t.Errorf("Error() = %q", stepErr.Error())
	}
}

func TestExecSpawnFailure(t *testing.T) {
	err := Run(context.Background(), NewExec(false), "tls", []Step{
		{Name: "configure", Bin: "/nonexistent/Configure", Dir: t.TempDir()},
	})
	var stepErr *StepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("Run() error = %v, want *StepError", err)
	}
	if stepErr.ExitCode != -1 {
		t.Errorf("ExitCode = %d, want -1", stepErr.ExitCode)
	}
}

func TestExecEnv(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not found in PATH")
	}
	var out strings.Builder
	e := &Exec{Stdout: &out, Stderr: &out}
	err := e.Run(context.Background(), Step{
		Name: "env",
		Bin:  "sh",
		Args: []string{"-c", "printf %s \"$PJBUILD_TEST\""},
		Env:  map[string]string{"PJBUILD_TEST": "VAL"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if out.String() != "VAL" {
		t.Errorf("child saw %q, want VAL", out.String())
	}
}

func TestMakeProgram(t *testing.T) {
	t.Setenv("MAKE", "/usr/local/bin/gmake")
	if got := MakeProgram(); got != "/usr/local/bin/gmake" {
		t.Errorf("MakeProgram() = %q", got)
	}
}

func TestMergeEnv(t *testing.T) {
	base := []string{"A=1", "B=2", "C=3"}
	got := mergeEnv(base, map[string]string{"B": "X", "D": "4"})
	if want := "A=1 B=X C=3 D=4"; strings.Join(got, " ") != want {
		t.Errorf("mergeEnv() = %v, want %s", got, want)
	}
}
