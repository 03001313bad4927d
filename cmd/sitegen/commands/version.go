package commands

import (
	"fmt"

	"github.com/alescoulie/sitegen/internal/version"
)

// VersionCmd prints version information.
type VersionCmd struct{}

func (v *VersionCmd) Run(_ *Global, _ *CLI) error {
	fmt.Printf("sitegen %s (commit %s, built %s)\n", version.Version, version.GitCommit, version.BuildTime)
	return nil
}
