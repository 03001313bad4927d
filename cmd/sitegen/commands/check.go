package commands

import (
	"fmt"
	"os"

	"github.com/alescoulie/sitegen/internal/linkcheck"
)

// CheckCmd verifies internal links in an already generated site. Unlike the
// in-build verification stage, broken links here always fail the command.
type CheckCmd struct{}

func (c *CheckCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	out := cfg.Paths.OutputRoot()
	if _, err := os.Stat(out); err != nil {
		return fmt.Errorf("output directory %s not found, run a build first", out)
	}

	res, err := linkcheck.CheckDir(out, cfg.Links.Ignore)
	if err != nil {
		return fmt.Errorf("check links: %w", err)
	}

	fmt.Printf("Checked %d pages, %d links (%d internal, %d external)\n",
		res.Pages, res.Links, res.Internal, res.External)
	if len(res.Broken) > 0 {
		for _, b := range res.Broken {
			fmt.Println("  broken:", b.String())
		}
		return fmt.Errorf("%d broken link(s)", len(res.Broken))
	}
	fmt.Println("No broken links")
	return nil
}
