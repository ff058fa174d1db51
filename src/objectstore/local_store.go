package objectstore

import (
	"context"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LocalStore serves a bucket mirrored on the local file system, as produced
// by "gsutil rsync" or "aws s3 sync".
type LocalStore struct {
	root string
}

// NewLocalStore ...
func NewLocalStore(root string) (*LocalStore, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}
	return &LocalStore{root: root}, nil
}

// List implements Store. Only the directory named by prefix is listed, which
// is all stream layouts need.
func (s *LocalStore) List(ctx context.Context, prefix, startAfter string, limit int) ([]string, error) {
	dir := prefix
	base := ""
	if !strings.HasSuffix(prefix, "/") {
		dir, base = splitPrefix(prefix)
	}

	entries, err := ioutil.ReadDir(filepath.Join(s.root, filepath.FromSlash(dir)))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	keys := []string{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), base) {
			continue
		}
		key := JoinKey(dir, e.Name())
		if key > startAfter {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	return applyLimit(keys, limit), ctx.Err()
}

// Get implements Store.
func (s *LocalStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.Contains(key, "..") {
		return nil, fmt.Errorf("invalid key %q", key)
	}
	data, err := ioutil.ReadFile(filepath.Join(s.root, filepath.FromSlash(key)))
	if os.IsNotExist(err) {
		return nil, notFound(key)
	}
	return data, err
}

func splitPrefix(prefix string) (string, string) {
	i := strings.LastIndex(prefix, "/")
	if i < 0 {
		return "", prefix
	}
	return prefix[:i+1], prefix[i+1:]
}
