// Package errlog keeps the run-scoped ledger of unparseable files. Every
// classified failure is appended as "<path> <reason>"; at startup all prior
// ledgers are read back so known-bad files are never re-attempted.
package errlog

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Ledger appends (path, reason) lines to one log file per run. The file is
// named from the run's start timestamp and created lazily on first write;
// a run with no failures leaves no file behind.
type Ledger struct {
	dir  string
	path string

	mu sync.Mutex
	f  *os.File
}

func NewLedger(dir string) *Ledger {
	ts := time.Now().Format("2006-01-02_15-04-05")
	return &Ledger{
		dir:  dir,
		path: filepath.Join(dir, fmt.Sprintf("errlog_%s.log", ts)),
	}
}

// Path returns the ledger file location for this run.
func (l *Ledger) Path() string {
	return l.path
}

// Write appends one line for a failed file. Writes from concurrent workers
// are serialized so lines never interleave.
func (l *Ledger) Write(path, reason string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.f == nil {
		if err := os.MkdirAll(l.dir, 0o755); err != nil {
			return err
		}
		f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		l.f = f
	}
	_, err := fmt.Fprintf(l.f, "%s %s\n", path, reason)
	return err
}

// Close flushes and closes the underlying file, if one was created.
func (l *Ledger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return nil
	}
	err := l.f.Close()
	l.f = nil
	return err
}

// LoadSkipSet reads every line of every prior run's ledger in dir and
// returns the set of first-column paths. A missing directory is an empty
// set, not an error.
func LoadSkipSet(dir string) (map[string]struct{}, error) {
	paths := make(map[string]struct{})

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return paths, nil
		}
		return nil, err
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		f, err := os.Open(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		sc := bufio.NewScanner(f)
		for sc.Scan() {
			fields := strings.Fields(sc.Text())
			if len(fields) > 0 {
				paths[fields[0]] = struct{}{}
			}
		}
		err = sc.Err()
		_ = f.Close()
		if err != nil {
			return nil, err
		}
	}
	return paths, nil
}
