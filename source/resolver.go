package source

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var (
	// ErrNotFound indicates the reference does not resolve to a file.
	ErrNotFound = errors.New("source file not found")

	// ErrInvalidRef indicates a reference that escapes the storage root.
	ErrInvalidRef = errors.New("invalid source reference")
)

// File describes a resolved document source.
type File struct {
	Path       string // local filesystem path, readable by extractors
	Name       string // display name for search metadata
	MIME       string // content type, drives extractor selection
	UploadedAt time.Time
}

// Resolver turns an opaque sourceRef into a readable file description.
// Implementations must be safe for concurrent use.
type Resolver interface {
	Resolve(ctx context.Context, sourceRef string) (*File, error)
}

// DirResolver resolves references as paths relative to a storage root
// directory. The MIME type is derived from the file extension and the
// upload time from the file's modification time.
type DirResolver struct {
	root string
}

var _ Resolver = (*DirResolver)(nil)

// NewDirResolver creates a resolver rooted at dir.
func NewDirResolver(dir string) *DirResolver {
	return &DirResolver{root: dir}
}

// Resolve maps sourceRef to a file under the storage root.
func (r *DirResolver) Resolve(ctx context.Context, sourceRef string) (*File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	clean := filepath.Clean(sourceRef)
	if clean == "" || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRef, sourceRef)
	}

	path := filepath.Join(r.root, clean)
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %q", ErrNotFound, sourceRef)
		}
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %q is a directory", ErrInvalidRef, sourceRef)
	}

	return &File{
		Path:       path,
		Name:       filepath.Base(clean),
		MIME:       TypeByName(clean),
		UploadedAt: info.ModTime().UTC(),
	}, nil
}

// TypeByName guesses a MIME type from a file name.
// Unknown extensions map to application/octet-stream.
func TypeByName(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".md", ".markdown":
		return "text/markdown"
	case ".txt", ".log":
		return "text/plain"
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "application/octet-stream"
}

// StaticResolver serves a fixed set of files, keyed by sourceRef.
// It exists for tests and seeding.
type StaticResolver struct {
	files map[string]*File
	err   error
}

var _ Resolver = (*StaticResolver)(nil)

// NewStaticResolver creates an empty static resolver.
func NewStaticResolver() *StaticResolver {
	return &StaticResolver{files: make(map[string]*File)}
}

// Add registers a file under the given reference.
func (r *StaticResolver) Add(sourceRef string, file *File) *StaticResolver {
	r.files[sourceRef] = file
	return r
}

// FailWith makes every Resolve call return err.
func (r *StaticResolver) FailWith(err error) *StaticResolver {
	r.err = err
	return r
}

// Resolve returns the registered file or ErrNotFound.
func (r *StaticResolver) Resolve(_ context.Context, sourceRef string) (*File, error) {
	if r.err != nil {
		return nil, r.err
	}
	if f, ok := r.files[sourceRef]; ok {
		return f, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrNotFound, sourceRef)
}
