package main

import (
	"fmt"
	"os"
)

// version 构建时通过 -ldflags 注入。
var version = "dev"

func main() {
	root := newRootCmd()
	root.Version = version
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
