package commands

import (
	"errors"
	"fmt"

	"github.com/alescoulie/sitegen/internal/fetch"
)

// FetchCmd syncs the content repository checkout without building.
type FetchCmd struct{}

func (f *FetchCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	client := fetch.NewClient(cfg.Content, cfg.Paths.StateRoot())
	if !client.Configured() {
		return errors.New("no content repository configured (set content.repository)")
	}

	ctx, cancel := signalContext()
	defer cancel()

	dir, changed, err := client.Sync(ctx)
	if err != nil {
		return fmt.Errorf("sync content: %w", err)
	}
	if changed {
		fmt.Printf("Content updated: %s (%s)\n", dir, client.Head())
	} else {
		fmt.Printf("Content already up to date: %s (%s)\n", dir, client.Head())
	}
	return nil
}
