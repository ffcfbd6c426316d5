package main

import (
	"os"

	"github.com/sweet-meenu/urbanpulse-sub000/internal/cli"
)

func main() {
	if err := cli.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
