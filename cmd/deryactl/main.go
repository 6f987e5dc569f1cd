package main

import (
	"os"

	"github.com/muhammedkisla/deryailetisim/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
