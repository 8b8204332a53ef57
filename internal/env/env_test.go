package env

import (
	"errors"
	"os"
	"testing"
)

func cargoEnv() map[string]string {
	return map[string]string{
		"TARGET":                  "x86_64-unknown-linux-gnu",
		"HOST":                    "x86_64-unknown-linux-gnu",
		"CARGO_CFG_TARGET_ARCH":   "x86_64",
		"CARGO_CFG_TARGET_VENDOR": "unknown",
		"CARGO_CFG_TARGET_OS":     "linux",
		"CARGO_CFG_TARGET_ENDIAN": "little",
		"OUT_DIR":                 "/tmp/out",
	}
}

func TestLoad(t *testing.T) {
	v, err := Load(DefaultNames(), FromMap(cargoEnv()))
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if v.Target != "x86_64-unknown-linux-gnu" {
		t.Errorf("Target = %q", v.Target)
	}
	if v.Arch != "x86_64" || v.OS != "linux" || v.Vendor != "unknown" {
		t.Errorf("unexpected arch/os/vendor: %q %q %q", v.Arch, v.OS, v.Vendor)
	}
	if v.Endian != "little" {
		t.Errorf("Endian = %q, want little", v.Endian)
	}
	if v.PointerWidth != "" {
		t.Errorf("PointerWidth = %q, want empty", v.PointerWidth)
	}
	if v.IsCross() {
		t.Error("IsCross() = true for identical target and host")
	}
}

func TestLoadMissing(t *testing.T) {
	for _, key := range []string{"TARGET", "HOST", "CARGO_CFG_TARGET_ARCH", "CARGO_CFG_TARGET_OS", "OUT_DIR"} {
		t.Run(key, func(t *testing.T) {
			m := cargoEnv()
			delete(m, key)
			_, err := Load(DefaultNames(), FromMap(m))
			var missing *MissingError
			if !errors.As(err, &missing) {
				t.Fatalf("Load() error = %v, want *MissingError", err)
			}
			if missing.Key != key {
				t.Errorf("missing key = %q, want %q", missing.Key, key)
			}
		})
	}

	t.Run("empty value", func(t *testing.T) {
		m := cargoEnv()
		m["TARGET"] = ""
		if _, err := Load(DefaultNames(), FromMap(m)); err == nil {
			t.Fatal("expected error for empty TARGET")
		}
	})

	t.Run("vendor is optional", func(t *testing.T) {
		m := cargoEnv()
		delete(m, "CARGO_CFG_TARGET_VENDOR")
		v, err := Load(DefaultNames(), FromMap(m))
		if err != nil {
			t.Fatalf("Load() returned error: %v", err)
		}
		if v.Vendor != "" {
			t.Errorf("Vendor = %q, want empty", v.Vendor)
		}
	})
}

func TestLoadFromProcess(t *testing.T) {
	for k, v := range cargoEnv() {
		t.Setenv(k, v)
	}
	t.Setenv("CC", "/usr/bin/cc")

	v, err := Load(DefaultNames(), nil)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cc, ok := v.Lookup("CC"); !ok || cc != "/usr/bin/cc" {
		t.Errorf("Lookup(CC) = %q, %v", cc, ok)
	}
}

func TestNamesMerge(t *testing.T) {
	n := Names{Target: "MY_TARGET"}.Merge(DefaultNames())
	if n.Target != "MY_TARGET" {
		t.Errorf("Target = %q, want MY_TARGET", n.Target)
	}
	if n.Host != "HOST" {
		t.Errorf("Host = %q, want HOST", n.Host)
	}
}

func TestWorkDir(t *testing.T) {
	dir, err := WorkDir(DefaultNames(), FromMap(map[string]string{"CARGO_MANIFEST_DIR": "/src/pjsua-sys"}))
	if err != nil {
		t.Fatal(err)
	}
	if dir != "/src/pjsua-sys" {
		t.Errorf("WorkDir() = %q", dir)
	}

	cwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	dir, err = WorkDir(DefaultNames(), FromMap(nil))
	if err != nil {
		t.Fatal(err)
	}
	if dir != cwd {
		t.Errorf("WorkDir() without manifest dir = %q, want %q", dir, cwd)
	}
}
