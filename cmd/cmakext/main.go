package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/poltergeist/cmakext/pkg/cli"
)

// Version is overridden by ldflags
var Version = "dev"

func main() {
	cfg := cli.NewConfig()
	cfg.Version = Version

	if err := cli.NewCLI(cfg).Execute(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("error:"), err)
		os.Exit(1)
	}
}
