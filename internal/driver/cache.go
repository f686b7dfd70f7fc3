package driver

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/zeebo/blake3"

	"idiomlint/internal/diag"
	"idiomlint/internal/source"
)

// Current schema version - increment when CachedFile changes shape or any
// rule changes what it reports.
const cacheSchemaVersion uint16 = 1

// Key identifies one cached file result.
type Key [32]byte

func (k Key) String() string { return hex.EncodeToString(k[:]) }

// CacheKey hashes everything a file's diagnostics depend on: the schema,
// the interchange bytes, the source text and the rule selection.
func CacheKey(raw, text []byte, fingerprint [32]byte) Key {
	h := blake3.New()
	var buf [8]byte
	binary.LittleEndian.PutUint16(buf[:2], cacheSchemaVersion)
	_, _ = h.Write(buf[:2])
	for _, part := range [][]byte{raw, text} {
		binary.LittleEndian.PutUint64(buf[:], uint64(len(part)))
		_, _ = h.Write(buf[:])
		_, _ = h.Write(part)
	}
	_, _ = h.Write(fingerprint[:])
	var k Key
	copy(k[:], h.Sum(nil))
	return k
}

// DiskCache stores per-file diagnostics on disk. Safe for concurrent use.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// CachedFile is the on-disk payload. Spans keep only offsets; the file is
// rebound when the payload is loaded.
type CachedFile struct {
	Schema      uint16
	Diagnostics []cachedDiag
}

type cachedSpan struct {
	Start uint32
	End   uint32
}

type cachedNote struct {
	Span cachedSpan
	Msg  string
}

type cachedEdit struct {
	Span    cachedSpan
	NewText string
}

type cachedFix struct {
	Title         string
	Kind          uint8
	Applicability uint8
	Edits         []cachedEdit
}

type cachedDiag struct {
	Severity uint8
	Code     uint16
	Origin   uint16
	Message  string
	Primary  cachedSpan
	Notes    []cachedNote
	Fixes    []cachedFix
}

// OpenDiskCache initializes a cache under the user cache directory.
func OpenDiskCache(app string) (*DiskCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		dir, err := os.UserCacheDir()
		if err != nil {
			return nil, err
		}
		base = dir
	}
	return NewDiskCache(filepath.Join(base, app))
}

// NewDiskCache uses dir as the cache root.
func NewDiskCache(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
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

func (c *DiskCache) pathFor(key Key) string {
	s := key.String()
	return filepath.Join(c.dir, "files", s[:2], s+".mp")
}

// Put writes the diagnostics of one file.
func (c *DiskCache) Put(key Key, ds []diag.Diagnostic) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() {
		// after a successful rename the temp name is gone
		if rmErr := os.Remove(tmp); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) && err == nil {
			err = rmErr
		}
	}()

	payload := CachedFile{Schema: cacheSchemaVersion, Diagnostics: toCached(ds)}
	if err = msgpack.NewEncoder(f).Encode(&payload); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	err = os.Rename(tmp, p)
	return err
}

// Get loads the diagnostics stored under key and binds them to file. A
// payload from another schema is a miss.
func (c *DiskCache) Get(key Key, file source.FileID) ([]diag.Diagnostic, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close()

	var payload CachedFile
	if err := msgpack.NewDecoder(f).Decode(&payload); err != nil {
		return nil, false, fmt.Errorf("decode cache entry %s: %w", key, err)
	}
	if payload.Schema != cacheSchemaVersion {
		return nil, false, nil
	}
	return fromCached(payload.Diagnostics, file), true, nil
}

// DropAll removes every entry.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return os.RemoveAll(filepath.Join(c.dir, "files"))
}

func cspan(sp source.Span) cachedSpan { return cachedSpan{Start: sp.Start, End: sp.End} }

func (s cachedSpan) bind(file source.FileID) source.Span {
	return source.Span{File: file, Start: s.Start, End: s.End}
}

func toCached(ds []diag.Diagnostic) []cachedDiag {
	out := make([]cachedDiag, 0, len(ds))
	for i := range ds {
		d := &ds[i]
		cd := cachedDiag{
			Severity: uint8(d.Severity),
			Code:     uint16(d.Code),
			Origin:   uint16(d.Origin),
			Message:  d.Message,
			Primary:  cspan(d.Primary),
		}
		for _, n := range d.Notes {
			cd.Notes = append(cd.Notes, cachedNote{Span: cspan(n.Span), Msg: n.Msg})
		}
		for _, fx := range d.Fixes {
			cf := cachedFix{Title: fx.Title, Kind: uint8(fx.Kind), Applicability: uint8(fx.Applicability)}
			for _, e := range fx.Edits {
				cf.Edits = append(cf.Edits, cachedEdit{Span: cspan(e.Span), NewText: e.NewText})
			}
			cd.Fixes = append(cd.Fixes, cf)
		}
		out = append(out, cd)
	}
	return out
}

func fromCached(cds []cachedDiag, file source.FileID) []diag.Diagnostic {
	out := make([]diag.Diagnostic, 0, len(cds))
	for _, cd := range cds {
		d := diag.Diagnostic{
			Severity: diag.Severity(cd.Severity),
			Code:     diag.Code(cd.Code),
			Origin:   diag.Code(cd.Origin),
			Message:  cd.Message,
			Primary:  cd.Primary.bind(file),
		}
		for _, n := range cd.Notes {
			d.Notes = append(d.Notes, diag.Note{Span: n.Span.bind(file), Msg: n.Msg})
		}
		for _, cf := range cd.Fixes {
			fx := diag.Fix{Title: cf.Title, Kind: diag.FixKind(cf.Kind), Applicability: diag.FixApplicability(cf.Applicability)}
			for _, e := range cf.Edits {
				fx.Edits = append(fx.Edits, diag.FixEdit{Span: e.Span.bind(file), NewText: e.NewText})
			}
			d.Fixes = append(d.Fixes, fx)
		}
		out = append(out, d)
	}
	return out
}
