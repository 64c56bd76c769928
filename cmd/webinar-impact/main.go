package main

import (
	"os"

	"github.com/webinar-impact/webinar-impact/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
