package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"luabundle/internal/asset"
	"luabundle/internal/project"
)

// Current schema version - increment when Payload format changes
const schemaVersion uint16 = 1

// DiskCache хранит разобранные ассеты (матрицы) по ключу содержимого.
// Thread-safe for concurrent access.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// Payload is one cached asset module.
type Payload struct {
	// Schema version for safe invalidation when format changes
	Schema uint16 `msgpack:"schema"`
	Kind   uint8  `msgpack:"kind"` // project.ModuleKind
	Params string `msgpack:"params"`

	// Одна матрица для растра и глифа, по кадру на файл для набора
	Frames []asset.Matrix `msgpack:"frames"`
	Names  []string       `msgpack:"names,omitempty"`
}

// Key builds the cache key: sha256(kind || params || content).
func Key(kind project.ModuleKind, params string, content project.Digest) project.Digest {
	h := sha256.New()
	_, _ = h.Write([]byte{byte(kind)})
	_, _ = h.Write([]byte(params))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write(content[:])
	var out project.Digest
	copy(out[:], h.Sum(nil))
	return out
}

// DefaultDir returns $XDG_CACHE_HOME/<app> (or ~/.cache/<app>).
func DefaultDir(app string) (string, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".cache")
	}
	return filepath.Join(base, app), nil
}

// Open initializes and returns a disk cache at the standard location.
func Open(app string) (*DiskCache, error) {
	dir, err := DefaultDir(app)
	if err != nil {
		return nil, err
	}
	return OpenAt(dir)
}

// OpenAt initializes a disk cache rooted at dir.
func OpenAt(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

// Dir returns the cache root.
func (c *DiskCache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

func (c *DiskCache) pathFor(key project.Digest) string {
	return filepath.Join(c.dir, "assets", hex.EncodeToString(key[:])+".mp")
}

// Put serializes and writes a payload to the disk cache.
func (c *DiskCache) Put(key project.Digest, payload *Payload) (err error) {
	if c == nil || payload == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err = os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()

	payload.Schema = schemaVersion
	if err = msgpack.NewEncoder(f).Encode(payload); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	// Атомарная замена
	return os.Rename(f.Name(), p)
}

// Get reads a payload. Missing, corrupt or outdated entries are a miss.
func (c *DiskCache) Get(key project.Digest) (*Payload, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	// #nosec G304 -- path is derived from the digest
	f, err := os.Open(c.pathFor(key))
	if err != nil {
		return nil, false
	}
	defer f.Close()

	var out Payload
	if err := msgpack.NewDecoder(f).Decode(&out); err != nil {
		return nil, false
	}
	if out.Schema != schemaVersion || len(out.Frames) == 0 {
		return nil, false
	}
	for _, m := range out.Frames {
		if !m.Valid() {
			return nil, false
		}
	}
	return &out, true
}

// DropAll removes every cached entry.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	// переименуем каталог и удалим, чтобы параллельные Get не видели половину
	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return os.RemoveAll(old)
}
