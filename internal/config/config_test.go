package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir(), "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TLS.Dir != "openssl" || cfg.SIP.Dir != "pjproject" {
		t.Errorf("trees = %q, %q", cfg.TLS.Dir, cfg.SIP.Dir)
	}
	if cfg.Env.Target != "TARGET" {
		t.Errorf("Env.Target = %q", cfg.Env.Target)
	}
	if cfg.Link.Format != "cargo" {
		t.Errorf("Link.Format = %q", cfg.Link.Format)
	}
}

func TestLoadExplicitMissingFile(t *testing.T) {
	if _, err := Load(t.TempDir(), filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for a missing explicit config")
	}
}

func TestLoadOverrides(t *testing.T) {
	root := t.TempDir()
	data := `
state_file: build/last-target
tls:
  dir: vendor/openssl
  archive: openssl-3.0.13.tar.xz
  configure_target: linux-generic32
sip:
  dir: vendor/pjproject
  git: https://github.com/pjsip/pjproject
  ref: 2.14.1
  build_env:
    CFLAGS: -fPIC
git:
  program: /opt/git/bin/git
link:
  format: cgo
  package: pjsua
env:
  target: MY_TARGET
`
	if err := os.WriteFile(filepath.Join(root, FileName), []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(root, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.StateFile != "build/last-target" {
		t.Errorf("StateFile = %q", cfg.StateFile)
	}
	if cfg.TLS.Dir != "vendor/openssl" || cfg.TLS.Archive != "openssl-3.0.13.tar.xz" || cfg.TLS.ConfigureTarget != "linux-generic32" {
		t.Errorf("TLS = %+v", cfg.TLS)
	}
	if cfg.SIP.Git != "https://github.com/pjsip/pjproject" || cfg.SIP.Ref != "2.14.1" || cfg.SIP.BuildEnv["CFLAGS"] != "-fPIC" {
		t.Errorf("SIP = %+v", cfg.SIP)
	}
	if cfg.Git.Program != "/opt/git/bin/git" {
		t.Errorf("Git.Program = %q", cfg.Git.Program)
	}
	if cfg.Bindgen.Program != "bindgen" {
		t.Errorf("Bindgen.Program = %q, want default", cfg.Bindgen.Program)
	}
	if cfg.Link.Format != "cgo" || cfg.Link.Package != "pjsua" {
		t.Errorf("Link = %+v", cfg.Link)
	}
	if cfg.Env.Target != "MY_TARGET" || cfg.Env.Host != "HOST" {
		t.Errorf("Env = %+v", cfg.Env)
	}
}

func TestLoadInvalid(t *testing.T) {
	for name, data := range map[string]string{
		"syntax":     "tls: [",
		"same trees": "tls:\n  dir: src\nsip:\n  dir: src/\n",
		"no state":   "state_file: \"\"\n",
	} {
		t.Run(name, func(t *testing.T) {
			root := t.TempDir()
			if err := os.WriteFile(filepath.Join(root, FileName), []byte(data), 0o644); err != nil {
				t.Fatal(err)
			}
			_, err := Load(root, "")
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), FileName) {
				t.Errorf("error %q does not name the file", err)
			}
		})
	}
}

func TestPath(t *testing.T) {
	if got := Path("/ws", "openssl"); got != filepath.Join("/ws", "openssl") {
		t.Errorf("Path(relative) = %q", got)
	}
	if got := Path("/ws", "/abs/openssl"); got != "/abs/openssl" {
		t.Errorf("Path(absolute) = %q", got)
	}
}
