// Package probe decides whether a component's static libraries are already
// built for a target.
package probe

import (
	"fmt"
	"os"

	"github.com/goplus/pjbuild/internal/components"
	"github.com/goplus/pjbuild/internal/triple"
)

// Probe checks artifact presence under a workspace root. Presence is the
// only signal: an archive left half-written by an interrupted external
// build passes the check.
type Probe struct {
	root    string
	catalog *components.Catalog
	stat    func(string) (os.FileInfo, error)
}

// New returns a Probe over the artifacts of catalog rooted at root.
func New(root string, catalog *components.Catalog) *Probe {
	return &Probe{root: root, catalog: catalog, stat: os.Stat}
}

// Missing returns the first artifact of component that does not exist for
// t. ok is false when the artifact set is complete.
func (p *Probe) Missing(component string, t triple.Triple) (path string, ok bool, err error) {
	comp, found := p.catalog.Lookup(component)
	if !found {
		return "", false, fmt.Errorf("unknown component %q", component)
	}
	for _, path := range comp.Artifacts(p.root, t) {
		if _, err := p.stat(path); err != nil {
			return path, true, nil
		}
	}
	return "", false, nil
}

// IsComplete reports whether every artifact of component exists for t.
// Unknown components are never complete.
func (p *Probe) IsComplete(component string, t triple.Triple) bool {
	_, missing, err := p.Missing(component, t)
	return err == nil && !missing
}
