package main

import (
	"os"

	"github.com/MrEthical07/goEstate/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
