package main

import (
	"os"
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		outputError(os.Stderr, err)
		os.Exit(1)
	}
}
