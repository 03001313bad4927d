package main

import (
	"github.com/alecthomas/kong"

	"github.com/alescoulie/sitegen/cmd/sitegen/commands"
)

func main() {
	cli := commands.CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("sitegen"),
		kong.Description("Static site generator for a personal blog: posts, projects and pages rendered to HTML."),
		kong.UsageOnError(),
	)
	err := ctx.Run(&commands.Global{}, &cli)
	ctx.FatalIfErrorf(err)
}
