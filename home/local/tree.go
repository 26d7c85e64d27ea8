package local

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/mwantia/webdesk/data"
	"github.com/mwantia/webdesk/home"
)

// LocalTree stores homes on the local filesystem below a root directory.
type LocalTree struct {
	mu   sync.RWMutex
	root string
}

var _ home.Tree = (*LocalTree)(nil)

// NewLocalTree creates a tree rooted at root; Open creates the directory if missing.
func NewLocalTree(root string) *LocalTree {
	return &LocalTree{
		root: filepath.Clean(root),
	}
}

// Name returns the identifier name defined for this tree
func (*LocalTree) Name() string {
	return "local"
}

func (lt *LocalTree) Open(_ context.Context) error {
	return os.MkdirAll(lt.root, 0o755)
}

func (lt *LocalTree) Close(_ context.Context) error {
	return nil
}

func (lt *LocalTree) resolvePath(p string) (string, string, error) {
	clean, err := home.CleanPath(p)
	if err != nil {
		return "", "", err
	}
	return clean, filepath.Join(lt.root, filepath.FromSlash(clean)), nil
}

func (lt *LocalTree) Stat(_ context.Context, p string) (*data.Entry, error) {
	clean, full, err := lt.resolvePath(p)
	if err != nil {
		return nil, err
	}

	lt.mu.RLock()
	defer lt.mu.RUnlock()

	info, err := os.Stat(full)
	if err != nil {
		return nil, mapError(err)
	}
	return toEntry(clean, info), nil
}

func (lt *LocalTree) List(_ context.Context, p string) ([]*data.Entry, error) {
	clean, full, err := lt.resolvePath(p)
	if err != nil {
		return nil, err
	}

	lt.mu.RLock()
	defer lt.mu.RUnlock()

	info, err := os.Stat(full)
	if err != nil {
		return nil, mapError(err)
	}
	if !info.IsDir() {
		return nil, data.ErrNotDirectory
	}

	dirEntries, err := os.ReadDir(full)
	if err != nil {
		return nil, mapError(err)
	}

	entries := make([]*data.Entry, 0, len(dirEntries))
	for _, dirEntry := range dirEntries {
		info, err := dirEntry.Info()
		if err != nil {
			continue
		}
		child, _ := home.Join(clean, dirEntry.Name())
		entries = append(entries, toEntry(child, info))
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})
	return entries, nil
}

func (lt *LocalTree) MakeDir(_ context.Context, p string) error {
	clean, full, err := lt.resolvePath(p)
	if err != nil {
		return err
	}
	if clean == "/" {
		return data.ErrExist
	}

	lt.mu.Lock()
	defer lt.mu.Unlock()

	if err := lt.checkParent(full); err != nil {
		return err
	}
	if err := os.Mkdir(full, 0o755); err != nil {
		return mapError(err)
	}
	return nil
}

func (lt *LocalTree) Remove(_ context.Context, p string, recursive bool) error {
	clean, full, err := lt.resolvePath(p)
	if err != nil {
		return err
	}
	if clean == "/" {
		return data.ErrInvalidPath
	}

	lt.mu.Lock()
	defer lt.mu.Unlock()

	info, err := os.Stat(full)
	if err != nil {
		return mapError(err)
	}

	if info.IsDir() && !recursive {
		children, err := os.ReadDir(full)
		if err != nil {
			return mapError(err)
		}
		if len(children) > 0 {
			return data.ErrDirectoryNotEmpty
		}
	}

	if recursive {
		return mapError(os.RemoveAll(full))
	}
	return mapError(os.Remove(full))
}

func (lt *LocalTree) ReadFile(_ context.Context, p string) ([]byte, error) {
	_, full, err := lt.resolvePath(p)
	if err != nil {
		return nil, err
	}

	lt.mu.RLock()
	defer lt.mu.RUnlock()

	info, err := os.Stat(full)
	if err != nil {
		return nil, mapError(err)
	}
	if info.IsDir() {
		return nil, data.ErrIsDirectory
	}

	content, err := os.ReadFile(full)
	return content, mapError(err)
}

func (lt *LocalTree) WriteFile(_ context.Context, p string, content []byte) error {
	clean, full, err := lt.resolvePath(p)
	if err != nil {
		return err
	}
	if clean == "/" {
		return data.ErrIsDirectory
	}

	lt.mu.Lock()
	defer lt.mu.Unlock()

	if err := lt.checkParent(full); err != nil {
		return err
	}
	if info, err := os.Stat(full); err == nil && info.IsDir() {
		return data.ErrIsDirectory
	}
	return mapError(os.WriteFile(full, content, 0o644))
}

func (lt *LocalTree) Usage(_ context.Context, p string) (int64, error) {
	_, full, err := lt.resolvePath(p)
	if err != nil {
		return 0, err
	}

	lt.mu.RLock()
	defer lt.mu.RUnlock()

	var total int64
	err = filepath.WalkDir(full, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	if err != nil {
		return 0, mapError(err)
	}
	return total, nil
}

// checkParent requires the parent of full to be an existing directory. Callers hold mu.
func (lt *LocalTree) checkParent(full string) error {
	info, err := os.Stat(filepath.Dir(full))
	if err != nil {
		return mapError(err)
	}
	if !info.IsDir() {
		return data.ErrNotDirectory
	}
	return nil
}

func toEntry(p string, info fs.FileInfo) *data.Entry {
	mode := data.FileMode(info.Mode().Perm())
	size := info.Size()
	if info.IsDir() {
		mode |= data.ModeDir
		size = 0
	}
	return data.NewEntry(p, mode, size, info.ModTime())
}

func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, fs.ErrNotExist):
		return data.ErrNotExist
	case errors.Is(err, fs.ErrExist):
		return data.ErrExist
	case errors.Is(err, fs.ErrPermission):
		return data.ErrPermission
	default:
		return err
	}
}
