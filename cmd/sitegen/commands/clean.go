package commands

import (
	"fmt"
	"os"
)

// CleanCmd removes generated output. The state directory (build cache,
// reports, content checkout) survives unless --state is given.
type CleanCmd struct {
	State bool `help:"Also remove the state directory (build cache, reports, content checkout)"`
}

func (c *CleanCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}

	out := cfg.Paths.OutputRoot()
	for _, dir := range []string{out, out + ".prev", out + "_stage"} {
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("remove %s: %w", dir, err)
		}
	}
	fmt.Println("Removed", out)

	if c.State {
		state := cfg.Paths.StateRoot()
		if err := os.RemoveAll(state); err != nil {
			return fmt.Errorf("remove %s: %w", state, err)
		}
		fmt.Println("Removed", state)
	}
	return nil
}
