package profile

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
)

// NVStore is the abstract non-volatile blob. Stage buffers the next record;
// Commit makes it durable. Nothing staged is visible to Load until Commit
// returns nil.
type NVStore interface {
	Load() ([]byte, error)
	Stage(rec []byte) error
	Commit() error
}

var ErrNothingStaged = errors.New("nvstore: nothing staged")

// ---- file-backed ----

// FileStore keeps the record in one file, replaced atomically on Commit.
type FileStore struct {
	path   string
	staged []byte
}

func NewFileStore(path string) *FileStore { return &FileStore{path: path} }

func (f *FileStore) Load() ([]byte, error) {
	b, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return b, err
}

func (f *FileStore) Stage(rec []byte) error {
	f.staged = append(f.staged[:0], rec...)
	return nil
}

func (f *FileStore) Commit() error {
	if f.staged == nil {
		return ErrNothingStaged
	}
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".nv-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(f.staged); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return err
	}
	if err := syncDir(dir); err != nil {
		return err
	}
	f.staged = nil
	return nil
}

// syncDir flushes the directory entry so the rename survives power loss.
func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	if err := d.Sync(); err != nil {
		d.Close()
		return err
	}
	return d.Close()
}

// ---- in-memory ----

// MemStore is an NVStore held in memory. FailCommit makes every Commit
// fail with ErrCommitFailed.
type MemStore struct {
	mu         sync.Mutex
	committed  []byte
	staged     []byte
	commits    int
	FailCommit bool
}

var ErrCommitFailed = errors.New("nvstore: commit failed")

func (m *MemStore) Load() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.committed...), nil
}

func (m *MemStore) Stage(rec []byte) error {
	m.mu.Lock()
	m.staged = append([]byte(nil), rec...)
	m.mu.Unlock()
	return nil
}

func (m *MemStore) Commit() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailCommit {
		return ErrCommitFailed
	}
	if m.staged == nil {
		return ErrNothingStaged
	}
	m.committed, m.staged = m.staged, nil
	m.commits++
	return nil
}

// Commits counts successful commits.
func (m *MemStore) Commits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.commits
}

// Raw replaces the committed bytes directly.
func (m *MemStore) Raw(rec []byte) {
	m.mu.Lock()
	m.committed = append([]byte(nil), rec...)
	m.mu.Unlock()
}
