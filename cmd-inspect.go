package main

import (
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"github.com/urfave/cli/v2"

	"github.com/rpcpool/anchorbind/bindings"
	"github.com/rpcpool/anchorbind/idl"
)

func newCmd_Inspect() *cli.Command {
	var verbose bool
	return &cli.Command{
		Name:        "inspect",
		Usage:       "Print the bindings of an Anchor IDL file.",
		Description: "Print every account and instruction binding of an IDL: name, discriminator and field layout, in declaration order.",
		ArgsUsage:   "<idl.json>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "verbose",
				Usage:       "dump the full field specs",
				Destination: &verbose,
			},
		},
		Action: func(c *cli.Context) error {
			idlPath := c.Args().First()
			if idlPath == "" {
				return fmt.Errorf("missing IDL path")
			}
			doc, err := idl.ParseFile(idlPath)
			if err != nil {
				return err
			}
			table, err := bindings.Build(doc)
			if err != nil {
				return err
			}

			fmt.Printf("program: %s", doc.ProgramName())
			if doc.Address != "" {
				fmt.Printf(" (%s)", doc.Address)
			}
			fmt.Println()

			for _, category := range []bindings.Category{bindings.CategoryAccount, bindings.CategoryInstruction} {
				bs := table.Bindings(category)
				fmt.Printf("\n%ss (%d):\n", category, len(bs))
				for _, b := range bs {
					fmt.Printf("  %s  discriminator=%v\n", b.Name(), b.Discriminator())
					for _, f := range b.Fields() {
						fmt.Printf("    %s: %s\n", f.Name, f.Type)
					}
					if verbose {
						spew.Dump(b.Fields())
					}
				}
			}
			return nil
		},
	}
}
