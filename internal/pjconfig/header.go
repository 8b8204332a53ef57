// Package pjconfig generates pjlib's config_site.h, which pjproject's
// build reads before compiling anything.
package pjconfig

import (
	"fmt"
	"os"
	"path/filepath"
)

// HeaderPath is the location of config_site.h inside the pjproject tree.
const HeaderPath = "pjlib/include/pj/config_site.h"

// Endian is the target byte order.
type Endian int

const (
	Little Endian = iota
	Big
)

func (e Endian) String() string {
	if e == Big {
		return "big"
	}
	return "little"
}

// ParseEndian parses the hook's endianness value. An empty value means little.
func ParseEndian(s string) (Endian, error) {
	switch s {
	case "", "little":
		return Little, nil
	case "big":
		return Big, nil
	}
	return Little, fmt.Errorf("invalid target endianness %q", s)
}

// Header returns the config_site.h content for e: exactly one pair of
// mutually exclusive byte-order defines.
func Header(e Endian) []byte {
	little, big := 1, 0
	if e == Big {
		little, big = 0, 1
	}
	return []byte(fmt.Sprintf("#define PJ_IS_LITTLE_ENDIAN %d\n#define PJ_IS_BIG_ENDIAN %d\n", little, big))
}

// WriteHeader writes the header for e to path, replacing any previous content.
func WriteHeader(path string, e Endian) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, Header(e), 0o644)
}
