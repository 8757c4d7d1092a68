package main

import (
	"os"

	"github.com/conneroisu/pkgshape/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
