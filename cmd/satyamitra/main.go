package main

import (
	"os"

	"github.com/ppiankov/satyamitra/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
