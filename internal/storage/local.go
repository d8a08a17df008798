package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"studydocs/internal/model"
)

// localStorage keeps blobs as files under a managed root directory.
type localStorage struct {
	root string
}

// NewLocal creates a filesystem backend rooted at root, creating the directory if needed.
func NewLocal(root string) (Storage, error) {
	if root == "" {
		return nil, fmt.Errorf("local storage root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &localStorage{root: abs}, nil
}

func (l *localStorage) Kind() model.BackendKind { return model.BackendLocal }

// resolve maps a key to a path inside the root and rejects keys that would escape it.
func (l *localStorage) resolve(key string) (string, bool) {
	if key == "" || filepath.IsAbs(key) {
		return "", false
	}
	p := filepath.Join(l.root, filepath.Clean(filepath.FromSlash(key)))
	rel, err := filepath.Rel(l.root, p)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return p, true
}

// Put writes to a temporary file next to the destination and renames it into place once the
// file is fully written and closed, so readers never observe a partial blob.
func (l *localStorage) Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error) {
	dst, ok := l.resolve(key)
	if !ok {
		return ObjectInfo{}, newError("put", key, ErrFatal, errors.New("key outside storage root"))
	}
	if err := ctx.Err(); err != nil {
		return ObjectInfo{}, newError("put", key, ErrFatal, err)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return ObjectInfo{}, newError("put", key, ErrFatal, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*.part")
	if err != nil {
		return ObjectInfo{}, newError("put", key, ErrFatal, err)
	}
	tmpName := tmp.Name()

	n, copyErr := io.Copy(tmp, r)
	closeErr := tmp.Close()
	if copyErr == nil {
		copyErr = closeErr
	}
	if copyErr == nil && opt.Size >= 0 && n != opt.Size {
		copyErr = fmt.Errorf("short write: wrote %d of %d bytes", n, opt.Size)
	}
	if copyErr == nil {
		copyErr = os.Rename(tmpName, dst)
	}
	if copyErr != nil {
		_ = os.Remove(tmpName)
		return ObjectInfo{}, newError("put", key, ErrFatal, copyErr)
	}

	return ObjectInfo{
		Key:          filepath.ToSlash(key),
		Size:         n,
		ContentType:  opt.ContentType,
		LastModified: time.Now(),
		Metadata:     opt.Metadata,
	}, nil
}

func (l *localStorage) Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error) {
	p, ok := l.resolve(key)
	if !ok {
		return nil, ObjectInfo{}, newError("get", key, ErrObjectNotFound, nil)
	}
	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ObjectInfo{}, newError("get", key, ErrObjectNotFound, err)
		}
		return nil, ObjectInfo{}, newError("get", key, ErrFatal, err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, ObjectInfo{}, newError("get", key, ErrFatal, err)
	}
	if st.IsDir() {
		f.Close()
		return nil, ObjectInfo{}, newError("get", key, ErrObjectNotFound, nil)
	}
	return f, ObjectInfo{Key: key, Size: st.Size(), LastModified: st.ModTime()}, nil
}

func (l *localStorage) Delete(ctx context.Context, key string) error {
	p, ok := l.resolve(key)
	if !ok {
		return nil
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return newError("delete", key, ErrFatal, err)
	}
	return nil
}

func (l *localStorage) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	return "", newError("presign", key, ErrUnsupported, nil)
}
