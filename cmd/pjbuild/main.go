package main

import "github.com/goplus/pjbuild/cmd/pjbuild/internal"

func main() {
	internal.Execute()
}
