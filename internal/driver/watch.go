package driver

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/hayroll-dev/hayroll/internal/compilecommand"
	"github.com/hayroll-dev/hayroll/internal/logging"
)

// watchDebounce coalesces a burst of saves (e.g. an editor's write-then-
// rename) into one re-run, the same interval the teacher's own
// eventDebouncer defaults to for a single file's edit.
const watchDebounce = 300 * time.Millisecond

// Watch re-runs Run once immediately, then again every time a .c/.h file
// under opts.ProjectDir changes, until ctx is cancelled. It never returns an
// error for a failed re-run (that run's Summary already records the
// failures and is logged); it only returns an error if the watcher itself
// cannot be set up, or ctx is cancelled.
//
// This is a supplemented convenience with no spec.md CLI surface entry: the
// teacher's own internal/indexing/watcher.go drives incremental re-indexing
// the same way (recursive fsnotify.Watcher + single-timer debounce), scaled
// down here to whole-pipeline re-runs since Hayroll has no incremental mode.
func Watch(ctx context.Context, commands []compilecommand.Command, opts Options, log *logging.Logger) error {
	if log == nil {
		log = logging.Default()
	}
	log = log.With("watch")

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := addWatchDirs(watcher, opts.ProjectDir); err != nil {
		return err
	}

	run := func() {
		log.Infof("running pipeline for %d unit(s)", len(commands))
		summary, err := Run(ctx, commands, opts, log)
		if err != nil {
			log.Errorf("run failed: %v", err)
			return
		}
		if !summary.OK() {
			log.Errorf("%d unit(s) failed", len(summary.Failures))
		} else {
			log.Infof("run succeeded")
		}
	}
	run()

	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	schedule := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(watchDebounce, run)
	}

	for {
		select {
		case <-ctx.Done():
			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			mu.Unlock()
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !watchRelevant(event) {
				continue
			}
			if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
				if event.Op&fsnotify.Create != 0 {
					_ = watcher.Add(event.Name)
				}
				continue
			}
			if !isSourceFile(event.Name) {
				continue
			}
			log.Debugf("change detected: %s", event.Name)
			schedule()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Errorf("watcher error: %v", err)
		}
	}
}

func watchRelevant(event fsnotify.Event) bool {
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0
}

func isSourceFile(path string) bool {
	switch filepath.Ext(path) {
	case ".c", ".h":
		return true
	default:
		return false
	}
}

func addWatchDirs(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if d.Name() != "." && len(d.Name()) > 1 && d.Name()[0] == '.' {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return nil
		}
		return nil
	})
}
