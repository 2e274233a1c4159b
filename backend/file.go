package backend

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
)

func init() {
	Register("file", newFileBackend(defaultFileRoot()))
}

func defaultFileRoot() string {
	dir := os.Getenv("DURABLE_REF_FILE_ROOT")
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "durable-ref")
	}
	return dir
}

const (
	defaultShardPrefixLen = 2
	defaultDirPerm        = 0o750
	defaultFilePerm       = 0o640
)

var hexHashPrefix = regexp.MustCompile(`^[0-9a-f]{40}\.`)

// fileBackend stores bytes under a root directory, keyed by the inner
// URI's authority+path. Like the teacher's disk cache, entries whose
// final path segment begins with a 40-hex-digit content hash are sharded
// into a two-character prefix subdirectory, keeping any one directory
// from accumulating unbounded entries as content accumulates.
//
// fileBackend implements ConditionalWriter (via a sidecar ".version"
// file written alongside the data file) but not AtomicSwapper, so Atomic
// references over "file" exercise the generic CAS loop.
type fileBackend struct {
	root           string
	shardPrefixLen int

	// versionMu serializes the read-version/write-version pair so two
	// concurrent WriteIfVersion calls can't interleave their version
	// file reads and writes. A real multi-process deployment would need
	// file locking instead; this backend is meant for single-process use
	// and tests.
	versionMu sync.Mutex
}

func newFileBackend(root string) *fileBackend {
	return &fileBackend{root: root, shardPrefixLen: defaultShardPrefixLen}
}

// NewFile returns a file backend rooted at dir, for tests and callers
// that want an isolated root rather than the Default registry's shared
// temp directory.
func NewFile(dir string) *fileBackend {
	return newFileBackend(dir)
}

func (f *fileBackend) path(inner string) (string, error) {
	if inner == "" {
		return "", errors.New("backend: file: empty inner uri")
	}
	trimmed := strings.TrimPrefix(inner, "file://")
	trimmed = strings.TrimPrefix(trimmed, "/")
	if trimmed == "" || strings.Contains(trimmed, "..") {
		return "", fmt.Errorf("backend: file: invalid path %q", inner)
	}

	last := trimmed
	if idx := strings.LastIndex(trimmed, "/"); idx >= 0 {
		last = trimmed[idx+1:]
	}
	if f.shardPrefixLen > 0 && hexHashPrefix.MatchString(last) {
		dir := filepath.Dir(trimmed)
		shard := last[:f.shardPrefixLen]
		return filepath.Join(f.root, dir, shard, last), nil
	}
	return filepath.Join(f.root, trimmed), nil
}

func (f *fileBackend) versionPath(p string) string {
	return p + ".version"
}

func (f *fileBackend) Read(_ context.Context, inner string, _ Opts) ([]byte, bool, error) {
	p, err := f.path(inner)
	if err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(p) //nolint:gosec // path is derived from a validated, sandboxed inner URI
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (f *fileBackend) Write(_ context.Context, inner string, data []byte, _ Opts) error {
	p, err := f.path(inner)
	if err != nil {
		return err
	}
	// Bump the sidecar version like WriteIfVersion does, so a key written
	// here never reads back as version 0 ("must not exist").
	f.versionMu.Lock()
	defer f.versionMu.Unlock()
	version, err := f.readVersionFile(f.versionPath(p))
	if err != nil {
		return err
	}
	if err := f.writeAtomic(p, data); err != nil {
		return err
	}
	return f.writeAtomic(f.versionPath(p), []byte(fmt.Sprintf("%d", version+1)))
}

func (f *fileBackend) writeAtomic(p string, data []byte) error {
	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, defaultDirPerm); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "durable-ref-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Chmod(tmpPath, defaultFilePerm); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, p); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

func (f *fileBackend) Delete(_ context.Context, inner string, _ Opts) error {
	p, err := f.path(inner)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	os.Remove(f.versionPath(p))
	return nil
}

func (f *fileBackend) ReadVersion(ctx context.Context, inner string, opts Opts) ([]byte, uint64, bool, error) {
	f.versionMu.Lock()
	defer f.versionMu.Unlock()
	return f.readVersionLocked(inner, opts)
}

func (f *fileBackend) readVersionLocked(inner string, _ Opts) ([]byte, uint64, bool, error) {
	p, err := f.path(inner)
	if err != nil {
		return nil, 0, false, err
	}
	data, err := os.ReadFile(p) //nolint:gosec // path is derived from a validated, sandboxed inner URI
	if errors.Is(err, os.ErrNotExist) {
		return nil, 0, false, nil
	}
	if err != nil {
		return nil, 0, false, err
	}
	version, _ := f.readVersionFile(f.versionPath(p))
	return data, version, true, nil
}

func (f *fileBackend) readVersionFile(vp string) (uint64, error) {
	raw, err := os.ReadFile(vp) //nolint:gosec // path derived from a validated, sandboxed inner URI
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var v uint64
	_, err = fmt.Sscanf(string(raw), "%d", &v)
	return v, err
}

func (f *fileBackend) WriteIfVersion(_ context.Context, inner string, data []byte, expectVersion uint64, opts Opts) (uint64, error) {
	f.versionMu.Lock()
	defer f.versionMu.Unlock()

	_, current, ok, err := f.readVersionLocked(inner, opts)
	if err != nil {
		return 0, err
	}
	if !ok {
		current = 0
	}
	if current != expectVersion {
		return current, ErrVersionConflict
	}

	p, err := f.path(inner)
	if err != nil {
		return 0, err
	}
	if err := f.writeAtomic(p, data); err != nil {
		return 0, err
	}
	newVersion := current + 1
	if err := f.writeAtomic(f.versionPath(p), []byte(fmt.Sprintf("%d", newVersion))); err != nil {
		return 0, err
	}
	return newVersion, nil
}
