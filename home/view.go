package home

import (
	"context"
	"errors"
	"strings"

	"github.com/mwantia/webdesk/data"
)

// View is one user's window into a Tree. Paths given to and returned from a View are
// relative to the user's home, which appears as "/".
type View struct {
	tree  Tree
	root  string
	quota int64
}

// NewView scopes tree to userID. A quota of zero or less disables the size limit.
func NewView(tree Tree, userID string, quota int64) *View {
	return &View{
		tree:  tree,
		root:  Root(userID),
		quota: quota,
	}
}

func (v *View) resolve(p string) (string, error) {
	return Join(v.root, p)
}

// display converts a tree path back into a home-relative path.
func (v *View) display(entry *data.Entry) *data.Entry {
	rel := strings.TrimPrefix(entry.Path, v.root)
	if rel == "" {
		rel = "/"
	}
	out := *entry
	out.Path = rel
	if rel == "/" {
		out.Name = "/"
	}
	return &out
}

func (v *View) List(ctx context.Context, p string) ([]*data.Entry, error) {
	full, err := v.resolve(p)
	if err != nil {
		return nil, err
	}

	entries, err := v.tree.List(ctx, full)
	if err != nil {
		return nil, err
	}

	out := make([]*data.Entry, 0, len(entries))
	for _, entry := range entries {
		out = append(out, v.display(entry))
	}
	return out, nil
}

func (v *View) Stat(ctx context.Context, p string) (*data.Entry, error) {
	full, err := v.resolve(p)
	if err != nil {
		return nil, err
	}

	entry, err := v.tree.Stat(ctx, full)
	if err != nil {
		return nil, err
	}
	return v.display(entry), nil
}

func (v *View) MakeDir(ctx context.Context, p string, parents bool) error {
	full, err := v.resolve(p)
	if err != nil {
		return err
	}
	if full == v.root {
		return data.ErrExist
	}
	if !parents {
		return v.tree.MakeDir(ctx, full)
	}

	var missing []string
	for dir := full; dir != v.root; dir = Parent(dir) {
		entry, err := v.tree.Stat(ctx, dir)
		if err == nil {
			if !entry.IsDir() {
				return data.ErrNotDirectory
			}
			break
		}
		if !errors.Is(err, data.ErrNotExist) {
			return err
		}
		missing = append(missing, dir)
	}

	for i := len(missing) - 1; i >= 0; i-- {
		if err := v.tree.MakeDir(ctx, missing[i]); err != nil && !errors.Is(err, data.ErrExist) {
			return err
		}
	}
	return nil
}

func (v *View) Remove(ctx context.Context, p string, recursive bool) error {
	full, err := v.resolve(p)
	if err != nil {
		return err
	}
	if full == v.root {
		return data.ErrInvalidPath
	}
	return v.tree.Remove(ctx, full, recursive)
}

func (v *View) ReadFile(ctx context.Context, p string) ([]byte, error) {
	full, err := v.resolve(p)
	if err != nil {
		return nil, err
	}
	return v.tree.ReadFile(ctx, full)
}

// WriteFile stores content at p unless it would exceed the quota.
func (v *View) WriteFile(ctx context.Context, p string, content []byte) error {
	full, err := v.resolve(p)
	if err != nil {
		return err
	}
	if full == v.root {
		return data.ErrIsDirectory
	}

	if v.quota > 0 {
		used, err := v.tree.Usage(ctx, v.root)
		if err != nil {
			return err
		}
		if existing, err := v.tree.Stat(ctx, full); err == nil && !existing.IsDir() {
			used -= existing.Size
		}
		if used+int64(len(content)) > v.quota {
			return data.ErrQuotaExceeded
		}
	}
	return v.tree.WriteFile(ctx, full, content)
}

// Usage reports the consumed bytes of the home against the quota.
func (v *View) Usage(ctx context.Context) (data.Usage, error) {
	used, err := v.tree.Usage(ctx, v.root)
	if err != nil {
		return data.Usage{}, err
	}
	return data.Usage{Used: used, Total: v.quota}, nil
}
