package ic

import (
	"crypto/sha256"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/sjc5/kit/pkg/typed"
)

/*
DirAssets exposes a build output directory as an AssetSet. Names are
slash-separated paths relative to Root, enumerated in lexical walk order.
Files matching any of the Ignore glob patterns (doublestar syntax, relative
to Root) are not enumerated. Unreadable subdirectories are skipped; a
missing or unreadable Root is reported by Err.
*/
type DirAssets struct {
	Root   string
	Ignore []string

	written typed.SyncMap[string, string]

	mu      sync.Mutex
	walkErr error
}

func NewDirAssets(root string, ignore ...string) *DirAssets {
	return &DirAssets{Root: filepath.Clean(root), Ignore: ignore}
}

func (d *DirAssets) Names() []string {
	var names []string
	err := filepath.WalkDir(d.Root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if path != d.Root && entry != nil && entry.IsDir() {
				return filepath.SkipDir
			}
			return err
		}
		if entry.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(d.Root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if matchAny(d.Ignore, rel) {
			return nil
		}
		names = append(names, rel)
		return nil
	})

	d.mu.Lock()
	d.walkErr = err
	d.mu.Unlock()

	if err != nil {
		return nil
	}
	return names
}

// Err reports why the last Names call could not enumerate Root, if it
// could not.
func (d *DirAssets) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.walkErr != nil {
		return fmt.Errorf("error reading %s: %w", d.Root, d.walkErr)
	}
	return nil
}

func (d *DirAssets) Read(name string) ([]byte, bool) {
	b, err := os.ReadFile(d.path(name))
	if err != nil {
		return nil, false
	}
	return b, true
}

func (d *DirAssets) Replace(name string, content []byte) error {
	p := d.path(name)
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return fmt.Errorf("error creating directory: %w", err)
	}
	if err := os.WriteFile(p, content, 0644); err != nil {
		return fmt.Errorf("error writing file: %w", err)
	}
	d.written.Store(name, contentHash(content))
	return nil
}

// Written returns the names replaced through this set, sorted.
func (d *DirAssets) Written() []string {
	var names []string
	d.written.Range(func(k, _ string) bool {
		names = append(names, k)
		return true
	})
	sort.Strings(names)
	return names
}

// WroteContent reports whether content is exactly what this set last wrote
// to name. Watch mode uses it to skip events caused by its own writes.
func (d *DirAssets) WroteContent(name string, content []byte) bool {
	hash, ok := d.written.Load(name)
	return ok && hash == contentHash(content)
}

func (d *DirAssets) path(name string) string {
	return filepath.Join(d.Root, filepath.FromSlash(name))
}

func contentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return fmt.Sprintf("%x", sum[:])[:12]
}
