package main

import (
	"github.com/alecthomas/kong"

	"github.com/arclens/glassctl/internal/cli"
)

func main() {
	var root cli.CLI
	ctx := kong.Parse(&root,
		kong.Name("glassctl"),
		kong.Description("Pairing and device control for G1 glasses"),
		kong.UsageOnError(),
	)
	err := ctx.Run(&root)
	ctx.FatalIfErrorf(err)
}
