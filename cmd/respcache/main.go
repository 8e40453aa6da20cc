package main

import (
	"os"

	"github.com/dshills/respcache/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
