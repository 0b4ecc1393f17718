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
)

// Disk stores objects as plain files below a root directory.
type Disk struct {
	root string
}

// NewDisk creates the root directory if needed and returns a disk backend over it.
func NewDisk(dir string) (*Disk, error) {
	if dir == "" {
		return nil, fmt.Errorf("upload dir is required")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve upload dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Disk{root: abs}, nil
}

var _ Storage = (*Disk)(nil)

// Root returns the absolute upload directory.
func (d *Disk) Root() string { return d.root }

func (d *Disk) resolve(key string) (string, error) {
	p := filepath.Join(d.root, filepath.FromSlash(key))
	rel, err := filepath.Rel(d.root, p)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrPathEscapes
	}
	return p, nil
}

// Put writes r to the file for key, replacing any previous content.
func (d *Disk) Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error) {
	p, err := d.resolve(key)
	if err != nil {
		return ObjectInfo{}, err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return ObjectInfo{}, err
	}

	f, err := os.Create(p)
	if err != nil {
		return ObjectInfo{}, err
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && opt.Size >= 0 && n != opt.Size {
		err = fmt.Errorf("short write: wrote %d of %d bytes", n, opt.Size)
	}
	if err != nil {
		_ = os.Remove(p)
		return ObjectInfo{}, err
	}

	return d.Stat(ctx, key)
}

// Get opens the file for key.
func (d *Disk) Get(_ context.Context, key string) (io.ReadSeekCloser, ObjectInfo, error) {
	p, err := d.resolve(key)
	if err != nil {
		return nil, ObjectInfo{}, err
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, ObjectInfo{}, mapFSErr(err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, ObjectInfo{}, err
	}
	if st.IsDir() {
		f.Close()
		return nil, ObjectInfo{}, ErrObjectNotFound
	}
	return f, infoOf(key, st), nil
}

// Stat returns size and modification time of the file for key.
func (d *Disk) Stat(_ context.Context, key string) (ObjectInfo, error) {
	p, err := d.resolve(key)
	if err != nil {
		return ObjectInfo{}, err
	}
	st, err := os.Stat(p)
	if err != nil {
		return ObjectInfo{}, mapFSErr(err)
	}
	if st.IsDir() {
		return ObjectInfo{}, ErrObjectNotFound
	}
	return infoOf(key, st), nil
}

// Delete removes the file for key.
func (d *Disk) Delete(_ context.Context, key string) error {
	p, err := d.resolve(key)
	if err != nil {
		return err
	}
	st, err := os.Stat(p)
	if err != nil {
		return mapFSErr(err)
	}
	if st.IsDir() {
		return ErrObjectNotFound
	}
	return os.Remove(p)
}

// List walks the root and returns every regular file.
func (d *Disk) List(ctx context.Context) ([]ObjectInfo, error) {
	items := make([]ObjectInfo, 0)
	err := filepath.WalkDir(d.root, func(p string, e fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if e.IsDir() || !e.Type().IsRegular() {
			return nil
		}
		st, err := e.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(d.root, p)
		if err != nil {
			return err
		}
		items = append(items, infoOf(filepath.ToSlash(rel), st))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func infoOf(key string, st fs.FileInfo) ObjectInfo {
	return ObjectInfo{
		Key:          key,
		Size:         st.Size(),
		LastModified: st.ModTime(),
	}
}

func mapFSErr(err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return ErrObjectNotFound
	}
	return err
}
