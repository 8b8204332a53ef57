// Package link turns the component catalog into the ordered directives the
// downstream linker consumes on every invocation.
package link

import (
	"bufio"
	"fmt"
	"io"
	"slices"

	"github.com/goplus/pjbuild/internal/components"
	"github.com/goplus/pjbuild/internal/triple"
)

// Directive is one library to link, with the directory to search it in.
type Directive struct {
	SearchPath string // absolute; empty for host libraries
	Library    string
	Kind       components.LinkKind
}

// Plan returns the directives for every library of catalog in catalog order,
// with search paths rooted at root and pjproject names decorated for t.
// The result depends only on its arguments.
func Plan(catalog *components.Catalog, root string, t triple.Triple) []Directive {
	entries := catalog.Entries()
	out := make([]Directive, 0, len(entries))
	for _, e := range entries {
		d := Directive{Library: e.LinkName(t), Kind: e.Kind}
		if e.SearchDir != "" {
			d.SearchPath = components.Resolve(root, e.SearchDir)
		}
		out = append(out, d)
	}
	return out
}

// Format selects how directives are rendered.
type Format string

const (
	// Cargo prints cargo:rustc-link-* lines; rustc takes libraries in
	// dependency-first order.
	Cargo Format = "cargo"
	// Cgo prints a Go file with #cgo LDFLAGS lines for a left-to-right
	// static linker: libraries come dependents first.
	Cgo Format = "cgo"
	// Flags prints plain linker flags, one per line, in cgo order.
	Flags Format = "flags"
)

// ParseFormat validates a format name. An empty name means Cargo.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case "":
		return Cargo, nil
	case Cargo, Cgo, Flags:
		return f, nil
	}
	return "", fmt.Errorf("unknown link directive format %q", s)
}

// Options tune Write.
type Options struct {
	Package  string // package clause of the cgo file
	BuildTag string // optional //go:build constraint of the cgo file
}

// Write renders directives to w in format f.
func Write(w io.Writer, f Format, directives []Directive, opts Options) error {
	bw := bufio.NewWriter(w)
	switch f {
	case Cargo, "":
		writeCargo(bw, directives)
	case Cgo:
		if err := writeCgo(bw, directives, opts); err != nil {
			return err
		}
	case Flags:
		for _, flag := range LinkerFlags(directives) {
			fmt.Fprintln(bw, flag)
		}
	default:
		return fmt.Errorf("unknown link directive format %q", f)
	}
	return bw.Flush()
}

func writeCargo(w io.Writer, directives []Directive) {
	seen := make(map[string]bool)
	for _, d := range directives {
		if d.SearchPath != "" && !seen[d.SearchPath] {
			seen[d.SearchPath] = true
			fmt.Fprintf(w, "cargo:rustc-link-search=native=%s\n", d.SearchPath)
		}
		fmt.Fprintf(w, "cargo:rustc-link-lib=%s=%s\n", d.Kind, d.Library)
	}
}

// LinkerFlags returns -L and -l flags for a left-to-right linker: search paths in
// first-use order, then static libraries dependents first, then host
// libraries.
func LinkerFlags(directives []Directive) []string {
	var search, static, dynamic []string
	seen := make(map[string]bool)
	for _, d := range directives {
		if d.SearchPath != "" && !seen[d.SearchPath] {
			seen[d.SearchPath] = true
			search = append(search, "-L"+d.SearchPath)
		}
		if d.Kind == components.Dylib {
			dynamic = append(dynamic, "-l"+d.Library)
			continue
		}
		static = append(static, "-l"+d.Library)
	}
	slices.Reverse(static)
	out := make([]string, 0, len(search)+len(static)+len(dynamic))
	out = append(out, search...)
	out = append(out, static...)
	return append(out, dynamic...)
}

func writeCgo(w io.Writer, directives []Directive, opts Options) error {
	if opts.Package == "" {
		return fmt.Errorf("cgo output needs a package name")
	}
	fmt.Fprintln(w, "// Code generated by pjbuild. DO NOT EDIT.")
	fmt.Fprintln(w)
	if opts.BuildTag != "" {
		fmt.Fprintf(w, "//go:build %s\n\n", opts.BuildTag)
	}
	fmt.Fprintf(w, "package %s\n\n", opts.Package)
	fmt.Fprintln(w, "/*")
	for _, flag := range LinkerFlags(directives) {
		fmt.Fprintf(w, "#cgo LDFLAGS: %s\n", flag)
	}
	fmt.Fprintln(w, "*/")
	fmt.Fprintln(w, `import "C"`)
	return nil
}
