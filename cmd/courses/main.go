package main

import (
	"os"

	"github.com/Adithya-Monish-Kumar-K/course-search/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
