package internal

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func setTargetEnv(t *testing.T, outDir string) {
	t.Helper()
	for k, v := range map[string]string{
		"TARGET":                  "x86_64-unknown-linux-gnu",
		"HOST":                    "x86_64-unknown-linux-gnu",
		"CARGO_CFG_TARGET_ARCH":   "x86_64",
		"CARGO_CFG_TARGET_VENDOR": "unknown",
		"CARGO_CFG_TARGET_OS":     "linux",
		"CARGO_CFG_TARGET_ENDIAN": "little",
		"OUT_DIR":                 outDir,
	} {
		t.Setenv(k, v)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
		workspaceDir, configFile, verbose = "", "", false
		planLink = linkFlags{}
		buildLink = linkFlags{}
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestPlanFlags(t *testing.T) {
	ws := t.TempDir()
	setTargetEnv(t, filepath.Join(ws, "out"))

	out, err := execute(t, "plan", "-C", ws, "--format", "flags")
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if !strings.HasPrefix(out, "-L"+filepath.Join(ws, "openssl")) {
		t.Errorf("output does not start with the openssl search path:\n%s", out)
	}
	if !strings.Contains(out, "-lpjsua-x86_64-unknown-linux-gnu") || !strings.HasSuffix(strings.TrimSpace(out), "-lasound") {
		t.Errorf("unexpected flags:\n%s", out)
	}
}

func TestPlanConfigFormat(t *testing.T) {
	ws := t.TempDir()
	setTargetEnv(t, filepath.Join(ws, "out"))
	cfg := "link:\n  format: cgo\n  package: pjsua\n"
	if err := os.WriteFile(filepath.Join(ws, "pjbuild.yaml"), []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "plan", "-C", ws)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if !strings.Contains(out, "package pjsua\n") || !strings.Contains(out, "#cgo LDFLAGS:") {
		t.Errorf("not a cgo file:\n%s", out)
	}
}

func TestStatusFreshWorkspace(t *testing.T) {
	ws := t.TempDir()
	setTargetEnv(t, filepath.Join(ws, "out"))

	out, err := execute(t, "status", "-C", ws)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	for _, want := range []string{
		"recorded target: (none)",
		"current target:  x86_64-unknown-linux-gnu",
		"tls        missing",
		"sip-stack  missing",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q:\n%s", want, out)
		}
	}
}

func TestMissingTarget(t *testing.T) {
	ws := t.TempDir()
	setTargetEnv(t, filepath.Join(ws, "out"))
	t.Setenv("TARGET", "")

	_, err := execute(t, "status", "-C", ws)
	if err == nil || !strings.Contains(err.Error(), "TARGET") {
		t.Errorf("err = %v, want missing TARGET", err)
	}
}
