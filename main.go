package main

import (
	"os"

	"github.com/pixelfit/pixelfit/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
