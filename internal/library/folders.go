package library

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

// Folder is a candidate subject directory.
type Folder struct {
	Name string
	Path string
}

// ListOptions controls which sub-folders List returns.
type ListOptions struct {
	// IgnoreFile names a gitignore-syntax file inside the root. Missing files
	// are fine.
	IgnoreFile    string
	IncludeHidden bool
}

// List returns the immediate sub-directories of root, sorted by name.
func List(root string, opts ListOptions) ([]Folder, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read library %s: %w", root, err)
	}
	filter, err := newFilter(root, opts)
	if err != nil {
		return nil, err
	}

	folders := make([]Folder, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if filter.skip(entry.Name()) {
			continue
		}
		folders = append(folders, Folder{Name: entry.Name(), Path: filepath.Join(root, entry.Name())})
	}
	sort.Slice(folders, func(i, j int) bool { return folders[i].Name < folders[j].Name })
	return folders, nil
}

type filter struct {
	includeHidden bool
	ignore        *ignore.GitIgnore
}

func newFilter(root string, opts ListOptions) (*filter, error) {
	f := &filter{includeHidden: opts.IncludeHidden}
	name := strings.TrimSpace(opts.IgnoreFile)
	if name == "" {
		return f, nil
	}
	gi, err := ignore.CompileIgnoreFile(filepath.Join(root, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return f, nil
		}
		return nil, fmt.Errorf("load ignore file: %w", err)
	}
	f.ignore = gi
	return f, nil
}

func (f *filter) skip(name string) bool {
	if !f.includeHidden && strings.HasPrefix(name, ".") {
		return true
	}
	if f.ignore == nil {
		return false
	}
	return f.ignore.MatchesPath(name) || f.ignore.MatchesPath(name+"/")
}
