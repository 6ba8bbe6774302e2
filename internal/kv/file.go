package kv

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
)

const fileExt = ".kv"

// File keeps one file per key inside dir. A lock file serialises writers
// across processes, so the panel and the CLI can share a data directory.
type File struct {
	dir   string
	quota int
	lock  *flock.Flock
}

func NewFile(dir string, quota int) (*File, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("kv: create dir: %w", err)
	}
	return &File{dir: dir, quota: quota, lock: flock.New(filepath.Join(dir, ".lock"))}, nil
}

func (f *File) path(key string) string {
	return filepath.Join(f.dir, hex.EncodeToString([]byte(key))+fileExt)
}

func (f *File) Get(key string) (string, bool, error) {
	if err := f.lock.RLock(); err != nil {
		return "", false, fmt.Errorf("kv: lock: %w", err)
	}
	defer f.lock.Unlock()

	data, err := os.ReadFile(f.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return string(data), true, nil
}

func (f *File) Set(key, value string) error {
	if err := f.lock.Lock(); err != nil {
		return fmt.Errorf("kv: lock: %w", err)
	}
	defer f.lock.Unlock()

	used, err := f.usage(key)
	if err != nil {
		return err
	}
	if err := checkQuota(key, used+entrySize(key, value), f.quota); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(f.dir, ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), f.path(key))
}

// usage sums the size of every entry except key.
func (f *File) usage(except string) (int, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, fileExt) {
			continue
		}
		raw, err := hex.DecodeString(strings.TrimSuffix(name, fileExt))
		if err != nil || string(raw) == except {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return 0, err
		}
		total += len(raw) + int(info.Size())
	}
	return total, nil
}
