//go:build !unix

package build

func lockWorkspace(path string) (unlock func(), err error) {
	return func() {}, nil
}
