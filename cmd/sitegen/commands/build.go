package commands

import (
	"fmt"

	"github.com/alescoulie/sitegen/internal/site"
)

// BuildCmd implements the 'build' command, the default when no command is
// given.
type BuildCmd struct {
	Force bool `short:"f" help:"Rebuild even when inputs are unchanged"`
	Sync  bool `negatable:"" default:"true" help:"Sync the content repository before building (when one is configured)"`
}

func (b *BuildCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	gen := site.NewGenerator(cfg, site.Options{Force: b.Force, SyncContent: b.Sync})
	report, buildErr := gen.Build(ctx)
	publishBuildEvent(ctx, cfg, report)
	if buildErr != nil {
		return buildErr
	}

	fmt.Println(report.Summary())
	return nil
}
