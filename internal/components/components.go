// Package components is the table of native libraries pjbuild knows about:
// which components build them, where their artifacts land, and the order
// they must be handed to the linker in.
package components

import (
	"fmt"
	"path/filepath"

	"github.com/goplus/pjbuild/internal/triple"
)

// Names of the built components.
const (
	TLS = "tls"
	SIP = "sip-stack"
)

// LinkKind selects how a library is linked.
type LinkKind int

const (
	Static LinkKind = iota
	Dylib
)

func (k LinkKind) String() string {
	if k == Dylib {
		return "dylib"
	}
	return "static"
}

// Library is one native library, as both an expected artifact and a link input.
type Library struct {
	Name      string   // link name, without lib prefix and decoration
	Dir       string   // directory inside the component tree
	Kind      LinkKind // Dylib libraries are provided by the host, never built
	Decorated bool     // file and link names carry the target triple suffix
	Deps      []string // libraries that must come earlier in link order
}

// LinkName returns the name passed to the linker for target t.
func (l Library) LinkName(t triple.Triple) string {
	if l.Decorated {
		return l.Name + t.Suffix()
	}
	return l.Name
}

// FileName returns the static archive name for target t.
func (l Library) FileName(t triple.Triple) string {
	return "lib" + l.LinkName(t) + ".a"
}

// Component is a native project built as a whole by its own build system.
type Component struct {
	Name      string
	Dir       string // tree directory, relative to the workspace root or absolute
	Libraries []Library
}

// Artifacts returns the ordered artifact set of c for target t, rooted at root.
func (c *Component) Artifacts(root string, t triple.Triple) []string {
	paths := make([]string, 0, len(c.Libraries))
	for _, lib := range c.Libraries {
		if lib.Kind != Static {
			continue
		}
		paths = append(paths, filepath.Join(Resolve(root, c.Dir), lib.Dir, lib.FileName(t)))
	}
	return paths
}

// Resolve joins dir to root unless dir is already absolute.
func Resolve(root, dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(root, dir)
}

// Catalog lists every library in link order: System first, then each
// component's libraries in declaration order.
type Catalog struct {
	System     []Library
	Components []*Component
}

// Lookup returns the component named name.
func (c *Catalog) Lookup(name string) (*Component, bool) {
	for _, comp := range c.Components {
		if comp.Name == name {
			return comp, true
		}
	}
	return nil, false
}

// Entry is a library together with the directory holding it.
type Entry struct {
	Library
	Component string // empty for system libraries
	SearchDir string // relative to the workspace root unless the tree is absolute; empty for system libraries
}

// Entries flattens the catalog in link order.
func (c *Catalog) Entries() []Entry {
	var out []Entry
	for _, lib := range c.System {
		out = append(out, Entry{Library: lib})
	}
	for _, comp := range c.Components {
		for _, lib := range comp.Libraries {
			out = append(out, Entry{
				Library:   lib,
				Component: comp.Name,
				SearchDir: filepath.Join(comp.Dir, lib.Dir),
			})
		}
	}
	return out
}

// Validate checks that library names are unique and that every declared
// dependency is ranked before its dependent.
func (c *Catalog) Validate() error {
	rank := make(map[string]int)
	for i, e := range c.Entries() {
		if _, dup := rank[e.Name]; dup {
			return fmt.Errorf("library %s declared twice", e.Name)
		}
		for _, dep := range e.Deps {
			if _, ok := rank[dep]; !ok {
				return fmt.Errorf("library %s: dependency %s is unknown or ranked after it", e.Name, dep)
			}
		}
		rank[e.Name] = i
	}
	return nil
}

// Default returns the OpenSSL + pjproject catalog with the trees at tlsDir
// and sipDir. Video and the WebRTC media backend are disabled at configure
// time, so yuv, webrtc and pjmedia-videodev are absent.
func Default(tlsDir, sipDir string) *Catalog {
	pj := func(name, dir string, deps ...string) Library {
		return Library{Name: name, Dir: dir, Decorated: true, Deps: deps}
	}
	const (
		thirdParty = "third_party/lib"
		pjlib      = "pjlib/lib"
		pjlibUtil  = "pjlib-util/lib"
		pjnath     = "pjnath/lib"
		pjmedia    = "pjmedia/lib"
		pjsip      = "pjsip/lib"
	)
	return &Catalog{
		System: []Library{
			{Name: "asound", Kind: Dylib},
		},
		Components: []*Component{
			{
				Name: TLS,
				Dir:  tlsDir,
				Libraries: []Library{
					{Name: "crypto"},
					{Name: "ssl", Deps: []string{"crypto"}},
				},
			},
			{
				Name: SIP,
				Dir:  sipDir,
				Libraries: []Library{
					pj("gsmcodec", thirdParty),
					pj("ilbccodec", thirdParty),
					pj("speex", thirdParty),
					pj("g7221codec", thirdParty),
					pj("resample", thirdParty),
					pj("srtp", thirdParty),
					pj("pj", pjlib, "ssl", "crypto"),
					pj("pjlib-util", pjlibUtil, "pj"),
					pj("pjnath", pjnath, "pj", "pjlib-util"),
					pj("pjmedia", pjmedia, "pj", "pjlib-util", "pjnath", "srtp", "resample"),
					pj("pjmedia-codec", pjmedia, "pjmedia", "gsmcodec", "ilbccodec", "speex", "g7221codec"),
					pj("pjmedia-audiodev", pjmedia, "pjmedia", "asound"),
					pj("pjsdp", pjmedia, "pj", "pjlib-util"),
					pj("pjsip", pjsip, "pj", "pjlib-util"),
					pj("pjsip-simple", pjsip, "pjsip"),
					pj("pjsip-ua", pjsip, "pjsip", "pjsip-simple", "pjmedia", "pjsdp"),
					pj("pjsua", pjsip, "pjsip-ua", "pjsip-simple", "pjsip", "pjmedia",
						"pjmedia-codec", "pjmedia-audiodev", "pjsdp", "pjnath", "pjlib-util", "pj"),
				},
			},
		},
	}
}
