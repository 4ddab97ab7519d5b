package main

import (
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/urfave/cli/v2"
	"k8s.io/klog/v2"
)

func newCmd_Watch() *cli.Command {
	var configPath string
	return &cli.Command{
		Name:        "watch",
		Usage:       "Watch IDL files and regenerate bindings on change.",
		Description: "Run an initial generation, then watch the IDL files (arguments or --config entries) and regenerate whichever program's IDL changed.",
		ArgsUsage:   "<idl.json> [<idl.json> ...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Usage:       "config file (JSON or YAML) listing the programs to generate",
				Destination: &configPath,
			},
		},
		Action: func(c *cli.Context) error {
			programs, err := collectPrograms(c.Args().Slice(), configPath, "", "")
			if err != nil {
				return err
			}

			byPath := make(map[string]ProgramConfig, len(programs))
			for _, prog := range programs {
				abs, err := filepath.Abs(prog.IDL)
				if err != nil {
					return err
				}
				byPath[abs] = prog
				if err := generateProgram(prog); err != nil {
					// Keep watching; a broken IDL is exactly what the
					// next save is going to fix.
					klog.Errorf("initial generation failed: %s", err)
				}
			}

			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				return fmt.Errorf("failed to create watcher: %w", err)
			}
			defer watcher.Close()

			// Watch the parent directories: editors replace files on
			// save, which drops inode-level watches.
			dirs := make(map[string]struct{})
			for abs := range byPath {
				dirs[filepath.Dir(abs)] = struct{}{}
			}
			for dir := range dirs {
				if err := watcher.Add(dir); err != nil {
					return fmt.Errorf("failed to watch %s: %w", dir, err)
				}
			}
			klog.Infof("watching %d IDL file(s)", len(byPath))

			for {
				select {
				case <-c.Context.Done():
					return nil
				case event, ok := <-watcher.Events:
					if !ok {
						return nil
					}
					if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
						continue
					}
					abs, err := filepath.Abs(event.Name)
					if err != nil {
						continue
					}
					prog, ok := byPath[abs]
					if !ok {
						continue
					}
					klog.V(2).Infof("%s changed", prog.IDL)
					if err := generateProgram(prog); err != nil {
						klog.Errorf("regeneration failed: %s", err)
					}
				case err, ok := <-watcher.Errors:
					if !ok {
						return nil
					}
					klog.Errorf("watch error: %s", err)
				}
			}
		},
	}
}
