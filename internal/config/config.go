// Package config loads the optional pjbuild.yaml of a workspace.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/goplus/pjbuild/internal/env"
)

// FileName is looked up in the workspace root when no path is given.
const FileName = "pjbuild.yaml"

// Tree configures one external source tree.
type Tree struct {
	Dir     string `yaml:"dir"`
	Archive string `yaml:"archive,omitempty"` // .tar.xz unpacked when Dir is missing
	Git     string `yaml:"git,omitempty"`     // remote fetched when Dir is missing
	Ref     string `yaml:"ref,omitempty"`

	// BuildEnv is added to the environment of every build step.
	BuildEnv map[string]string `yaml:"build_env,omitempty"`
}

// TLS configures the OpenSSL component.
type TLS struct {
	Tree            `yaml:",inline"`
	ConfigureTarget string `yaml:"configure_target,omitempty"`
}

// Bindgen configures binding generation.
type Bindgen struct {
	Program string `yaml:"program"`
	Output  string `yaml:"output"`
}

// Git configures fetching of git source origins.
type Git struct {
	Program string `yaml:"program"`
}

// Link configures how link directives are printed.
type Link struct {
	Format   string `yaml:"format"`
	Package  string `yaml:"package,omitempty"`
	BuildTag string `yaml:"build_tag,omitempty"`
}

// Config holds pjbuild configuration.
type Config struct {
	StateFile string    `yaml:"state_file"`
	TLS       TLS       `yaml:"tls"`
	SIP       Tree      `yaml:"sip"`
	Bindgen   Bindgen   `yaml:"bindgen"`
	Git       Git       `yaml:"git"`
	Link      Link      `yaml:"link"`
	Env       env.Names `yaml:"env"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		StateFile: ".pjbuild-target",
		TLS:       TLS{Tree: Tree{Dir: "openssl"}},
		SIP:       Tree{Dir: "pjproject"},
		Bindgen:   Bindgen{Program: "bindgen", Output: "bindings.rs"},
		Git:       Git{Program: "git"},
		Link:      Link{Format: "cargo"},
		Env:       env.DefaultNames(),
	}
}

// Load reads the configuration at path, or FileName inside root when path
// is empty. A missing file yields Default. Fields left out of the file keep
// their default values.
func Load(root, path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = filepath.Join(root, FileName)
	}
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.Env = cfg.Env.Merge(env.DefaultNames())
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects configurations the orchestrator cannot run with.
func (c *Config) Validate() error {
	if c.StateFile == "" {
		return fmt.Errorf("state_file must not be empty")
	}
	if c.TLS.Dir == "" || c.SIP.Dir == "" {
		return fmt.Errorf("tls.dir and sip.dir must not be empty")
	}
	if filepath.Clean(c.TLS.Dir) == filepath.Clean(c.SIP.Dir) {
		return fmt.Errorf("tls and sip trees must differ")
	}
	if c.Bindgen.Program == "" || c.Bindgen.Output == "" {
		return fmt.Errorf("bindgen.program and bindgen.output must not be empty")
	}
	if c.Git.Program == "" {
		return fmt.Errorf("git.program must not be empty")
	}
	return nil
}

// Path resolves p against root unless it is absolute.
func Path(root, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}
