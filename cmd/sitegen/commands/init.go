package commands

import (
	"fmt"

	"github.com/alescoulie/sitegen/internal/config"
)

// InitCmd writes a starter configuration file with the default layout and
// commented optional sections.
type InitCmd struct {
	Force bool `help:"Overwrite an existing configuration file"`
}

func (i *InitCmd) Run(_ *Global, root *CLI) error {
	path := root.Config
	if path == "" {
		path = "sitegen.yaml"
	}
	if err := config.Init(path, i.Force); err != nil {
		return err
	}
	fmt.Println("Wrote", path)
	return nil
}
