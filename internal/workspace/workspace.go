// Package workspace loads framework source trees into the index and keeps
// the index current as files change. A workspace owns one Index; roots are
// scanned with glob filters and parsed in parallel, and the watcher feeds
// incremental updates through the same replace path.
package workspace

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"github.com/petrel-ls/petrel/internal/config"
	"github.com/petrel-ls/petrel/internal/debug"
	"github.com/petrel-ls/petrel/internal/errors"
	"github.com/petrel-ls/petrel/internal/index"
	"github.com/petrel-ls/petrel/internal/parse"
)

// manifestNames mark a directory as a module root. The module name is the
// directory's base name and qualifies every record id declared inside it.
var manifestNames = []string{"__manifest__.py", "__openerp__.py"}

// Workspace ties an index to the source roots it was built from.
type Workspace struct {
	cfg   *config.Config
	index *index.Index

	// parsers pools one tree-sitter parser per worker; a Parser is not
	// safe for concurrent use.
	parsers sync.Pool

	mu      sync.RWMutex
	hashes  map[string]uint64 // file path -> content hash at last parse
	modules map[string]string // module dir -> module name
	roots   []string
}

// New creates an empty workspace with a fresh index.
func New(cfg *config.Config) *Workspace {
	return &Workspace{
		cfg:   cfg,
		index: index.New(cfg.Index.ShardCount),
		parsers: sync.Pool{
			New: func() any { return parse.NewParser() },
		},
		hashes:  make(map[string]uint64),
		modules: make(map[string]string),
	}
}

// Index returns the workspace's index.
func (w *Workspace) Index() *index.Index { return w.index }

// Roots returns the roots added so far.
func (w *Workspace) Roots() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]string(nil), w.roots...)
}

// AddRoot scans root for modules and indexes every matching file under it.
// Files are parsed in parallel; per-file failures are collected and
// returned together rather than aborting the scan.
func (w *Workspace) AddRoot(ctx context.Context, root string) error {
	root, err := filepath.Abs(root)
	if err != nil {
		return errors.NewScanError("resolve", root, "", err)
	}

	w.mu.Lock()
	w.roots = append(w.roots, root)
	w.mu.Unlock()

	files, err := w.scan(root)
	if err != nil {
		return err
	}
	debug.LogIndex("scanning %s: %d files\n", root, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(w.cfg.EffectiveWorkers())

	var errMu sync.Mutex
	var fileErrs []error

	for _, path := range files {
		path := path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := w.loadFile(path); err != nil {
				errMu.Lock()
				fileErrs = append(fileErrs, err)
				errMu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if merr := errors.NewMultiError(fileErrs); merr != nil {
		return merr
	}
	return nil
}

// scan walks root collecting indexable files that pass the include and
// exclude globs, registering module directories along the way.
func (w *Workspace) scan(root string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// unreadable subtrees are skipped, not fatal
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			// doublestar's ** matches zero segments, so a pattern like
			// **/node_modules/** prunes the directory itself
			if path != root && w.excluded(rel) {
				return filepath.SkipDir
			}
			if name, ok := moduleManifest(path); ok {
				w.mu.Lock()
				w.modules[path] = name
				w.mu.Unlock()
			}
			return nil
		}

		if !parse.Indexable(path) || w.excluded(rel) || !w.included(rel) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, errors.NewScanError("walk", root, "", err)
	}
	return files, nil
}

func (w *Workspace) included(rel string) bool {
	for _, pattern := range w.cfg.Index.Include {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

func (w *Workspace) excluded(rel string) bool {
	for _, pattern := range w.cfg.Index.Exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// moduleManifest reports whether dir is a module root.
func moduleManifest(dir string) (string, bool) {
	for _, name := range manifestNames {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return filepath.Base(dir), true
		}
	}
	return "", false
}

// ModuleFor resolves the module owning path by walking up to the nearest
// registered module directory. Files outside any module get an empty
// module and unqualified ids.
func (w *Workspace) ModuleFor(path string) string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	dir := filepath.Dir(path)
	for {
		if name, ok := w.modules[dir]; ok {
			return name
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadFile parses path and appends its entities to the index. Unchanged
// content (same hash as the last parse) is a no-op.
func (w *Workspace) loadFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return errors.NewScanError("stat", "", path, err)
	}
	if info.Size() > w.cfg.Index.MaxFileSize {
		debug.LogIndex("skipping oversized file %s (%d bytes)\n", path, info.Size())
		return nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return errors.NewScanError("read", "", path, err)
	}

	parser := w.parsers.Get().(*parse.Parser)
	defer w.parsers.Put(parser)

	f, err := parser.ParseFile(path, w.ModuleFor(path), content)
	if err != nil {
		return err
	}

	w.mu.Lock()
	if w.hashes[path] == f.Hash {
		w.mu.Unlock()
		return nil
	}
	w.hashes[path] = f.Hash
	w.mu.Unlock()

	w.apply(f)
	return nil
}

// apply appends a parse result to the index. Record ids, model names and
// component names are interned inside the appends.
func (w *Workspace) apply(f *parse.File) {
	if len(f.Records) > 0 {
		w.index.Records.Append(nil, sliceSeq(f.Records))
	}
	if len(f.Models) > 0 {
		w.index.Models.Append(sliceSeq(f.Models))
	}
	if len(f.Components) > 0 {
		w.index.Components.Append(sliceSeq(f.Components))
	}
	debug.LogIndex("indexed %s: %d records, %d models, %d components\n",
		f.Path, len(f.Records), len(f.Models), len(f.Components))
}

func sliceSeq[T any](s []T) func(yield func(T) bool) {
	return func(yield func(T) bool) {
		for _, v := range s {
			if !yield(v) {
				return
			}
		}
	}
}

// ReplaceFile reindexes path after a change: the file's old entities are
// removed and the fresh parse inserted. Content hashing makes touch-only
// events cheap.
func (w *Workspace) ReplaceFile(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			w.RemoveFile(path)
			return nil
		}
		return errors.NewScanError("read", "", path, err)
	}

	parser := w.parsers.Get().(*parse.Parser)
	defer w.parsers.Put(parser)

	f, err := parser.ParseFile(path, w.ModuleFor(path), content)
	if err != nil {
		return err
	}

	w.mu.Lock()
	if w.hashes[path] == f.Hash {
		w.mu.Unlock()
		debug.LogIndex("unchanged %s, skipping reindex\n", path)
		return nil
	}
	w.hashes[path] = f.Hash
	w.mu.Unlock()

	// remove-then-reinsert: entities dropped from the file disappear,
	// surviving ones come back with fresh locations
	w.index.RemoveByPath(path)
	w.apply(f)
	return nil
}

// RemoveFile scrubs every entity declared in path from the index and
// returns the number removed.
func (w *Workspace) RemoveFile(path string) int {
	w.mu.Lock()
	delete(w.hashes, path)
	w.mu.Unlock()
	n := w.index.RemoveByPath(path)
	if n > 0 {
		debug.LogIndex("removed %s: %d entities\n", path, n)
	}
	return n
}
