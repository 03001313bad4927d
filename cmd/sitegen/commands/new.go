package commands

import (
	"fmt"

	"github.com/alescoulie/sitegen/internal/scaffold"
)

// NewCmd groups the scaffolding subcommands.
type NewCmd struct {
	Post    NewPostCmd    `cmd:"" help:"Scaffold a post directory under the posts root"`
	Project NewProjectCmd `cmd:"" help:"Scaffold a project directory under the projects root"`
	Page    NewPageCmd    `cmd:"" help:"Scaffold a markdown page under the pages root"`
}

// NewPostCmd creates a post skeleton: metadata, document stub and an assets
// directory.
type NewPostCmd struct {
	Name string `arg:"" help:"Directory name for the new post, e.g. my-first-post"`
}

func (n *NewPostCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	dir, err := scaffold.New(cfg).Post(n.Name)
	if err != nil {
		return err
	}
	fmt.Println("Created post:", dir)
	return nil
}

// NewProjectCmd creates a project skeleton.
type NewProjectCmd struct {
	Name string `arg:"" help:"Directory name for the new project"`
}

func (n *NewProjectCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	dir, err := scaffold.New(cfg).Project(n.Name)
	if err != nil {
		return err
	}
	fmt.Println("Created project:", dir)
	return nil
}

// NewPageCmd creates a markdown page with front matter.
type NewPageCmd struct {
	Name string `arg:"" help:"File name for the new page without extension, e.g. about-me"`
}

func (n *NewPageCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	path, err := scaffold.New(cfg).Page(n.Name)
	if err != nil {
		return err
	}
	fmt.Println("Created page:", path)
	return nil
}
