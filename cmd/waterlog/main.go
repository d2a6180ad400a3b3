package main

import (
	"os"

	"github.com/dmitrijs2005/waterlog/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
