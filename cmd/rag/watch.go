package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDocuments calls onChange with the sorted set of files created or
// written under root. A file is reported once no event for it has arrived
// for the debounce window, so a file still being copied is held back until
// its writes settle. It returns when ctx is done.
func watchDocuments(ctx context.Context, root string, debounce time.Duration, errOut io.Writer, onChange func([]string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := addWatchDirs(watcher, root); err != nil {
		return fmt.Errorf("add watch dirs: %w", err)
	}

	// armed tracks whether timer is due for the earliest pending deadline.
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	armed := false
	lastEvent := make(map[string]time.Time)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if shouldIgnoreEvent(event) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = addWatchDirs(watcher, event.Name)
					continue
				}
			}
			lastEvent[event.Name] = time.Now()
			if !armed {
				timer.Reset(debounce)
				armed = true
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(errOut, "watch error: %v\n", err)
		case now := <-timer.C:
			armed = false
			var settled []string
			var wait time.Duration
			for path, at := range lastEvent {
				if quiet := now.Sub(at); quiet >= debounce {
					settled = append(settled, path)
				} else if rest := debounce - quiet; wait == 0 || rest < wait {
					wait = rest
				}
			}
			if wait > 0 {
				timer.Reset(wait)
				armed = true
			}
			if len(settled) == 0 {
				continue
			}
			slices.Sort(settled)
			for _, path := range settled {
				delete(lastEvent, path)
			}
			onChange(settled)
		}
	}
}

func addWatchDirs(watcher *fsnotify.Watcher, root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}

		if info.IsDir() {
			base := filepath.Base(path)
			if strings.HasPrefix(base, ".") && path != root {
				return filepath.SkipDir
			}
			return watcher.Add(path)
		}
		return nil
	})
}

// shouldIgnoreEvent drops everything but creates and writes, plus hidden
// and temporary files such as partial downloads.
func shouldIgnoreEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return true
	}

	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, ".tmp") || strings.HasSuffix(base, "~") {
		return true
	}

	return false
}
