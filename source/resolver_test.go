package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirResolver_Resolve(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "report.md"), []byte("# Report"), 0644))

	r := NewDirResolver(root)
	file, err := r.Resolve(context.Background(), "report.md")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "report.md"), file.Path)
	assert.Equal(t, "report.md", file.Name)
	assert.Equal(t, "text/markdown", file.MIME)
	assert.False(t, file.UploadedAt.IsZero())
}

func TestDirResolver_Subdirectory(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "uploads"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "uploads", "notes.txt"), []byte("notes"), 0644))

	file, err := NewDirResolver(root).Resolve(context.Background(), "uploads/notes.txt")
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", file.Name)
	assert.Equal(t, "text/plain", file.MIME)
}

func TestDirResolver_NotFound(t *testing.T) {
	_, err := NewDirResolver(t.TempDir()).Resolve(context.Background(), "missing.txt")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDirResolver_RejectsEscapes(t *testing.T) {
	r := NewDirResolver(t.TempDir())

	for _, ref := range []string{"../etc/passwd", "/etc/passwd"} {
		_, err := r.Resolve(context.Background(), ref)
		assert.ErrorIs(t, err, ErrInvalidRef, "ref %q", ref)
	}
}

func TestTypeByName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{name: "a.md", want: "text/markdown"},
		{name: "b.txt", want: "text/plain"},
		{name: "c.pdf", want: "application/pdf"},
		{name: "d.unknownext", want: "application/octet-stream"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, TypeByName(tt.name), "file %q", tt.name)
	}
}

func TestStaticResolver(t *testing.T) {
	r := NewStaticResolver().Add("doc-1", &File{Path: "/tmp/doc1.txt", Name: "doc1.txt", MIME: "text/plain"})

	file, err := r.Resolve(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "doc1.txt", file.Name)

	_, err = r.Resolve(context.Background(), "doc-2")
	assert.ErrorIs(t, err, ErrNotFound)
}
