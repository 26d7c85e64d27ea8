package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/mwantia/webdesk/data"
	"github.com/mwantia/webdesk/home"
	"github.com/tidwall/btree"
)

// MemoryTree is a thread-safe in-memory tree. Entries are kept in a B-tree ordered by
// path so a directory's descendants form one contiguous key range.
type MemoryTree struct {
	mu    sync.RWMutex
	nodes *btree.Map[string, *node]
}

type node struct {
	mode    data.FileMode
	content []byte
	modTime time.Time
}

var _ home.Tree = (*MemoryTree)(nil)

func NewMemoryTree() *MemoryTree {
	mt := &MemoryTree{
		nodes: btree.NewMap[string, *node](0),
	}
	mt.nodes.Set("/", &node{mode: data.DefaultDirMode, modTime: time.Now()})
	return mt
}

// Name returns the identifier name defined for this tree
func (*MemoryTree) Name() string {
	return "memory"
}

func (mt *MemoryTree) Open(_ context.Context) error {
	return nil
}

func (mt *MemoryTree) Close(_ context.Context) error {
	return nil
}

func (mt *MemoryTree) entry(p string, n *node) *data.Entry {
	return data.NewEntry(p, n.mode, int64(len(n.content)), n.modTime)
}

func (mt *MemoryTree) Stat(_ context.Context, p string) (*data.Entry, error) {
	p, err := home.CleanPath(p)
	if err != nil {
		return nil, err
	}

	mt.mu.RLock()
	defer mt.mu.RUnlock()

	n, ok := mt.nodes.Get(p)
	if !ok {
		return nil, data.ErrNotExist
	}
	return mt.entry(p, n), nil
}

func (mt *MemoryTree) List(_ context.Context, p string) ([]*data.Entry, error) {
	p, err := home.CleanPath(p)
	if err != nil {
		return nil, err
	}

	mt.mu.RLock()
	defer mt.mu.RUnlock()

	n, ok := mt.nodes.Get(p)
	if !ok {
		return nil, data.ErrNotExist
	}
	if !n.mode.IsDir() {
		return nil, data.ErrNotDirectory
	}

	entries := make([]*data.Entry, 0)
	mt.descendants(p, func(key string, child *node) bool {
		if !strings.Contains(key[len(prefixOf(p)):], "/") {
			entries = append(entries, mt.entry(key, child))
		}
		return true
	})
	return entries, nil
}

func (mt *MemoryTree) MakeDir(_ context.Context, p string) error {
	p, err := home.CleanPath(p)
	if err != nil {
		return err
	}

	mt.mu.Lock()
	defer mt.mu.Unlock()

	if err := mt.checkParent(p); err != nil {
		return err
	}
	if _, exists := mt.nodes.Get(p); exists {
		return data.ErrExist
	}

	mt.nodes.Set(p, &node{mode: data.DefaultDirMode, modTime: time.Now()})
	return nil
}

func (mt *MemoryTree) Remove(_ context.Context, p string, recursive bool) error {
	p, err := home.CleanPath(p)
	if err != nil {
		return err
	}
	if p == "/" {
		return data.ErrInvalidPath
	}

	mt.mu.Lock()
	defer mt.mu.Unlock()

	n, ok := mt.nodes.Get(p)
	if !ok {
		return data.ErrNotExist
	}

	if n.mode.IsDir() {
		var children []string
		mt.descendants(p, func(key string, _ *node) bool {
			children = append(children, key)
			return true
		})
		if len(children) > 0 && !recursive {
			return data.ErrDirectoryNotEmpty
		}
		for _, key := range children {
			mt.nodes.Delete(key)
		}
	}

	mt.nodes.Delete(p)
	return nil
}

func (mt *MemoryTree) ReadFile(_ context.Context, p string) ([]byte, error) {
	p, err := home.CleanPath(p)
	if err != nil {
		return nil, err
	}

	mt.mu.RLock()
	defer mt.mu.RUnlock()

	n, ok := mt.nodes.Get(p)
	if !ok {
		return nil, data.ErrNotExist
	}
	if n.mode.IsDir() {
		return nil, data.ErrIsDirectory
	}

	content := make([]byte, len(n.content))
	copy(content, n.content)
	return content, nil
}

func (mt *MemoryTree) WriteFile(_ context.Context, p string, content []byte) error {
	p, err := home.CleanPath(p)
	if err != nil {
		return err
	}

	mt.mu.Lock()
	defer mt.mu.Unlock()

	if err := mt.checkParent(p); err != nil {
		return err
	}
	if existing, ok := mt.nodes.Get(p); ok && existing.mode.IsDir() {
		return data.ErrIsDirectory
	}

	buf := make([]byte, len(content))
	copy(buf, content)
	mt.nodes.Set(p, &node{mode: data.DefaultFileMode, content: buf, modTime: time.Now()})
	return nil
}

func (mt *MemoryTree) Usage(_ context.Context, p string) (int64, error) {
	p, err := home.CleanPath(p)
	if err != nil {
		return 0, err
	}

	mt.mu.RLock()
	defer mt.mu.RUnlock()

	n, ok := mt.nodes.Get(p)
	if !ok {
		return 0, data.ErrNotExist
	}
	if !n.mode.IsDir() {
		return int64(len(n.content)), nil
	}

	var total int64
	mt.descendants(p, func(_ string, child *node) bool {
		total += int64(len(child.content))
		return true
	})
	return total, nil
}

// checkParent requires the parent of p to exist as a directory. Callers hold mu.
func (mt *MemoryTree) checkParent(p string) error {
	if p == "/" {
		return data.ErrExist
	}
	parent, ok := mt.nodes.Get(home.Parent(p))
	if !ok {
		return data.ErrNotExist
	}
	if !parent.mode.IsDir() {
		return data.ErrNotDirectory
	}
	return nil
}

// descendants visits every key strictly below the directory p. Callers hold mu.
func (mt *MemoryTree) descendants(p string, iter func(key string, n *node) bool) {
	prefix := prefixOf(p)
	mt.nodes.Ascend(prefix, func(key string, n *node) bool {
		if !strings.HasPrefix(key, prefix) {
			return false
		}
		if key == p {
			return true
		}
		return iter(key, n)
	})
}

func prefixOf(p string) string {
	if p == "/" {
		return "/"
	}
	return p + "/"
}
