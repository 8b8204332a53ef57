package build

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Match them with errors.Is.
var (
	ErrMissingEnvironment = errors.New("missing build environment")
	ErrStateIO            = errors.New("build state I/O failure")
	ErrExternalBuild      = errors.New("external build failed")
	ErrArtifactMissing    = errors.New("artifact missing after build")
	ErrBindingGeneration  = errors.New("binding generation failed")
	ErrConfigHeader       = errors.New("config header write failed")
	ErrSourceTree         = errors.New("source tree unavailable")
)

// Error is a failure of one orchestration step.
type Error struct {
	Kind      error
	Component string // empty when no component is involved
	Step      string
	Err       error
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Kind.Error())
	if e.Component != "" {
		fmt.Fprintf(&sb, ": %s", e.Component)
	}
	if e.Step != "" {
		fmt.Fprintf(&sb, " (%s)", e.Step)
	}
	if e.Err != nil {
		fmt.Fprintf(&sb, ": %v", e.Err)
	}
	return sb.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the kind of e.
func (e *Error) Is(target error) bool {
	return e.Kind == target
}

func wrap(kind error, component, step string, err error) error {
	return &Error{Kind: kind, Component: component, Step: step, Err: err}
}
