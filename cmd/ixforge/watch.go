package main

import (
	"io/fs"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

const watchDebounce = 500 * time.Millisecond

func newWatchCmd(a *app) *cobra.Command {
	var specGlob string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-validate the migration whenever a spec file changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.watch(cmd, specGlob)
		},
	}
	cmd.Flags().StringVar(&specGlob, "spec", "", "glob of TOML spec files (required)")
	_ = cmd.MarkFlagRequired("spec")
	return cmd
}

func (a *app) watch(cmd *cobra.Command, specGlob string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	base, pattern := doublestar.SplitPattern(filepath.ToSlash(specGlob))
	if err := addWatchDirs(watcher, filepath.FromSlash(base)); err != nil {
		return err
	}

	// Initial run so the operator sees the current state immediately.
	if err := a.validate(cmd, specGlob); err != nil {
		a.log.Errorf("validate: %v", err)
	}

	var (
		timer *time.Timer
		fire  = make(chan struct{}, 1)
	)
	for {
		select {
		case <-cmd.Context().Done():
			return cmd.Context().Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			rel, err := filepath.Rel(filepath.FromSlash(base), event.Name)
			if err != nil {
				continue
			}
			match, _ := doublestar.Match(pattern, filepath.ToSlash(rel))
			if !match {
				// New directories need watching so nested spec files are seen.
				if event.Op.Has(fsnotify.Create) {
					_ = addWatchDirs(watcher, event.Name)
				}
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(watchDebounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			a.log.Errorf("watch: %v", err)
		case <-fire:
			a.log.Info("spec change detected")
			if err := a.validate(cmd, specGlob); err != nil {
				a.log.Errorf("validate: %v", err)
			}
		}
	}
}

// addWatchDirs registers root and every directory beneath it.
func addWatchDirs(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}
