package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"

	"github.com/rpcpool/anchorbind/bindings"
	"github.com/rpcpool/anchorbind/codegen"
	"github.com/rpcpool/anchorbind/idl"
)

func newCmd_Generate() *cli.Command {
	var configPath string
	var packageName string
	var outPath string
	var concurrency int
	return &cli.Command{
		Name:        "generate",
		Usage:       "Generate Go bindings from Anchor IDL files.",
		Description: "Generate Go bindings from Anchor IDL files. Either pass IDL paths as arguments, or use --config to generate for multiple programs at once.",
		ArgsUsage:   "<idl.json> [<idl.json> ...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Usage:       "config file (JSON or YAML) listing the programs to generate",
				Destination: &configPath,
			},
			&cli.StringFlag{
				Name:        "package",
				Usage:       "generated package name (single-IDL mode only; defaults to the program name)",
				Destination: &packageName,
			},
			&cli.StringFlag{
				Name:        "out",
				Usage:       "output file path (single-IDL mode only; defaults to <package>.gen.go next to the IDL)",
				Destination: &outPath,
			},
			&cli.IntFlag{
				Name:        "concurrency",
				Usage:       "how many programs to process in parallel",
				Value:       4,
				Destination: &concurrency,
			},
		},
		Action: func(c *cli.Context) error {
			programs, err := collectPrograms(c.Args().Slice(), configPath, packageName, outPath)
			if err != nil {
				return err
			}

			wg := new(errgroup.Group)
			wg.SetLimit(concurrency)
			for _, prog := range programs {
				prog := prog
				wg.Go(func() error {
					if c.Context.Err() != nil {
						return c.Context.Err()
					}
					return generateProgram(prog)
				})
			}
			return wg.Wait()
		},
	}
}

// collectPrograms merges the CLI arguments and the optional config file
// into one program list.
func collectPrograms(args []string, configPath, packageName, outPath string) ([]ProgramConfig, error) {
	var programs []ProgramConfig
	if configPath != "" {
		config, err := loadConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		if err := config.Validate(); err != nil {
			return nil, err
		}
		programs = append(programs, config.Programs...)
	}
	for _, arg := range args {
		programs = append(programs, ProgramConfig{IDL: arg})
	}
	if len(programs) == 0 {
		return nil, fmt.Errorf("nothing to generate: pass IDL paths or --config")
	}
	if packageName != "" || outPath != "" {
		if len(programs) != 1 {
			return nil, fmt.Errorf("--package and --out only apply when generating a single IDL")
		}
		programs[0].Package = packageName
		programs[0].Out = outPath
	}
	return programs, nil
}

func generateProgram(prog ProgramConfig) error {
	doc, err := idl.ParseFile(prog.IDL)
	if err != nil {
		return fmt.Errorf("%s: %w", prog.IDL, err)
	}
	table, err := bindings.Build(doc)
	if err != nil {
		return fmt.Errorf("%s: %w", prog.IDL, err)
	}

	src, err := codegen.Generate(doc, table, codegen.Options{PackageName: prog.Package})
	if err != nil {
		return fmt.Errorf("%s: %w", prog.IDL, err)
	}

	out := prog.Out
	if out == "" {
		pkg := prog.Package
		if pkg == "" {
			pkg = strings.ToLower(strings.ReplaceAll(doc.ProgramName(), "-", "_"))
		}
		out = filepath.Join(filepath.Dir(prog.IDL), pkg+".gen.go")
	}
	if err := os.WriteFile(out, src, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}
	klog.Infof(
		"%s: generated %s (%s, %d accounts, %d instructions)",
		prog.IDL,
		out,
		humanize.Bytes(uint64(len(src))),
		len(table.Bindings(bindings.CategoryAccount)),
		len(table.Bindings(bindings.CategoryInstruction)),
	)
	return nil
}
