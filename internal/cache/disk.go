package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mcb/internal/models"
	"github.com/desertthunder/mcb/internal/shared"
	"github.com/gofrs/flock"
)

const lockSuffix = ".lock"

// Disk is a key-addressed row-set store rooted at a directory.
type Disk struct {
	dir     string
	enabled atomic.Bool
	logger  *log.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a cache rooted at dir. The directory is created on first write.
func New(dir string, enabled bool, logger *log.Logger) *Disk {
	if logger == nil {
		logger = shared.NopLogger()
	}
	d := &Disk{
		dir:    dir,
		logger: shared.WithLogger(logger, "component", "cache"),
		locks:  make(map[string]*sync.Mutex),
	}
	d.enabled.Store(enabled)
	return d
}

// Dir returns the cache directory.
func (d *Disk) Dir() string { return d.dir }

// Enabled reports whether reads and writes are honoured.
func (d *Disk) Enabled() bool { return d.enabled.Load() }

// SetEnabled toggles the cache. Existing entries are kept when disabling.
func (d *Disk) SetEnabled(on bool) { d.enabled.Store(on) }

// Path returns the file holding key.
func (d *Disk) Path(key string) (string, error) {
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	return filepath.Join(d.dir, key), nil
}

// Write encodes rows and atomically replaces the entry for key.
//
// A disabled cache makes Write a no-op. Readers never observe a partially written entry.
func (d *Disk) Write(key string, rows models.RowSet) error {
	path, err := d.Path(key)
	if err != nil {
		return err
	}
	if !d.Enabled() {
		d.logger.Debug("cache disabled, skipping write", "key", key)
		return nil
	}

	unlock, err := d.lock(key)
	if err != nil {
		d.logger.Warn("could not lock cache entry", "key", key, "error", err)
		return err
	}
	defer unlock()

	if err := writeAtomic(path, Encode(rows)); err != nil {
		d.logger.Warn("could not write cache entry", "key", key, "error", err)
		return err
	}

	d.logger.Debug("cache written", "key", key, "rows", len(rows))
	return nil
}

// Read returns the row-set stored for key.
//
// Absent entries and a disabled cache return [shared.ErrCacheNotFound]; undecodable entries return
// [shared.ErrCacheCorrupt] and are left for the caller to clear.
func (d *Disk) Read(key string) (models.RowSet, error) {
	path, err := d.Path(key)
	if err != nil {
		return nil, err
	}
	if !d.Enabled() {
		return nil, fmt.Errorf("%w: %w", shared.ErrCacheNotFound, shared.ErrCacheDisabled)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", shared.ErrCacheNotFound, key)
		}
		return nil, fmt.Errorf("failed to read cache entry %s: %w", key, err)
	}

	rows, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("cache entry %s: %w", key, err)
	}
	return rows, nil
}

// Clear removes the entry for key. Removing an absent entry is not an error.
func (d *Disk) Clear(key string) error {
	path, err := d.Path(key)
	if err != nil {
		return err
	}

	unlock, err := d.lock(key)
	if err != nil {
		return err
	}
	defer unlock()

	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove cache entry %s: %w", key, err)
	}
	d.logger.Debug("cache cleared", "key", key)
	return nil
}

// ClearAll removes every entry.
func (d *Disk) ClearAll() error {
	keys, err := d.Keys()
	if err != nil {
		return err
	}
	var errs []error
	for _, key := range keys {
		errs = append(errs, d.Clear(key))
	}
	return errors.Join(errs...)
}

// Keys lists the stored entries in lexical order. A missing directory has no keys.
func (d *Disk) Keys() ([]string, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list cache directory: %w", err)
	}

	var keys []string
	for _, entry := range entries {
		if entry.IsDir() || ValidateKey(entry.Name()) != nil {
			continue
		}
		keys = append(keys, entry.Name())
	}
	sort.Strings(keys)
	return keys, nil
}

// ValidateKey rejects keys that are empty, contain a path separator, start with a dot or end in the lock suffix.
func ValidateKey(key string) error {
	switch {
	case strings.TrimSpace(key) == "":
		return fmt.Errorf("%w: empty", shared.ErrInvalidKey)
	case strings.ContainsAny(key, `/\`) || strings.ContainsRune(key, 0):
		return fmt.Errorf("%w: %q contains a path separator", shared.ErrInvalidKey, key)
	case strings.HasPrefix(key, "."):
		return fmt.Errorf("%w: %q starts with a dot", shared.ErrInvalidKey, key)
	case strings.HasSuffix(key, lockSuffix):
		return fmt.Errorf("%w: %q is reserved", shared.ErrInvalidKey, key)
	}
	return nil
}

// lock takes the in-process and the file lock for key.
func (d *Disk) lock(key string) (func(), error) {
	d.mu.Lock()
	m, ok := d.locks[key]
	if !ok {
		m = &sync.Mutex{}
		d.locks[key] = m
	}
	d.mu.Unlock()

	m.Lock()
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		m.Unlock()
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	fl := flock.New(filepath.Join(d.dir, key+lockSuffix))
	if err := fl.Lock(); err != nil {
		m.Unlock()
		return nil, fmt.Errorf("failed to lock %s: %w", key, err)
	}

	return func() {
		_ = fl.Unlock()
		m.Unlock()
	}, nil
}

// writeAtomic writes data to a temp file next to path and renames it into place.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
