package client

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// Bookmark is a saved server address and username.
type Bookmark struct {
	Name     string `yaml:"name"`
	Addr     string `yaml:"addr"`
	Username string `yaml:"username"`
	LastUsed int64  `yaml:"last_used,omitempty"`
}

// BookmarkStore holds bookmarks backed by a YAML file.
type BookmarkStore struct {
	path      string
	Bookmarks []Bookmark `yaml:"bookmarks"`
}

// NewBookmarkStore creates a store at path, or servers.yaml next to the
// executable when path is empty.
func NewBookmarkStore(path string) *BookmarkStore {
	if path == "" {
		path = besideExecutable("servers.yaml")
	}
	return &BookmarkStore{path: path}
}

// Load reads bookmarks from disk. A missing file is an empty store.
func (bs *BookmarkStore) Load() error {
	data, err := os.ReadFile(bs.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			bs.Bookmarks = nil
			return nil
		}
		return fmt.Errorf("client: read bookmarks: %w", err)
	}
	if err := yaml.Unmarshal(data, bs); err != nil {
		return fmt.Errorf("client: parse bookmarks: %w", err)
	}
	return nil
}

// Save writes bookmarks to disk.
func (bs *BookmarkStore) Save() error {
	data, err := yaml.Marshal(bs)
	if err != nil {
		return err
	}
	return os.WriteFile(bs.path, data, 0o600)
}

// Put adds or replaces the bookmark with b's name. Returns true if it was new.
func (bs *BookmarkStore) Put(b Bookmark) bool {
	i := slices.IndexFunc(bs.Bookmarks, func(e Bookmark) bool { return e.Name == b.Name })
	if i >= 0 {
		bs.Bookmarks[i] = b
		return false
	}
	bs.Bookmarks = append(bs.Bookmarks, b)
	return true
}

// Touch updates LastUsed for the named bookmark.
func (bs *BookmarkStore) Touch(name string, ts int64) bool {
	for i := range bs.Bookmarks {
		if bs.Bookmarks[i].Name == name {
			bs.Bookmarks[i].LastUsed = ts
			return true
		}
	}
	return false
}

// Find returns the named bookmark, or nil.
func (bs *BookmarkStore) Find(name string) *Bookmark {
	for _, b := range bs.Bookmarks {
		if b.Name == name {
			return &b
		}
	}
	return nil
}
