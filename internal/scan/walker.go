package scan

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Entry is one filesystem entry yielded by the walk. DirEntry is kept so
// callers can stat lazily (only the ctime filter needs file info).
type Entry struct {
	Path string
	Info fs.DirEntry
}

// frame is one open directory listing on the traversal stack.
type frame struct {
	dir     string
	entries []fs.DirEntry
	next    int
}

// Walker lazily enumerates files under root, descending only into
// subdirectories accepted by Accepts. Next is safe for concurrent use:
// the single step that advances the traversal is serialized, and each
// entry is delivered to exactly one caller.
type Walker struct {
	root   string
	years  []string
	months []string
	logger *slog.Logger

	mu      sync.Mutex
	stack   []frame
	started bool
	done    bool
}

func NewWalker(root string, years, months []string, logger *slog.Logger) *Walker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Walker{
		root:   root,
		years:  years,
		months: months,
		logger: logger,
	}
}

// Next returns the next file entry, or ok=false when the walk is
// exhausted. Directories are never yielded: accepted ones are descended
// into, everything else is pruned. An unreadable directory ends that
// branch; an unreadable root ends the walk.
func (w *Walker) Next() (Entry, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.done {
		return Entry{}, false
	}
	if !w.started {
		w.started = true
		if !w.push(w.root) {
			w.done = true
			return Entry{}, false
		}
	}

	for len(w.stack) > 0 {
		top := &w.stack[len(w.stack)-1]
		if top.next >= len(top.entries) {
			w.stack = w.stack[:len(w.stack)-1]
			continue
		}
		e := top.entries[top.next]
		top.next++

		path := filepath.Join(top.dir, e.Name())
		if e.IsDir() {
			if Accepts(e.Name(), w.years, w.months) {
				w.push(path)
			}
			continue
		}
		return Entry{Path: path, Info: e}, true
	}

	w.done = true
	return Entry{}, false
}

func (w *Walker) push(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		w.logger.Warn("unreadable directory, ending branch", "dir", dir, "error", err)
		return false
	}
	w.stack = append(w.stack, frame{dir: dir, entries: entries})
	return true
}
