package storage

import (
	"testing"
	"time"

	"github.com/inkwell-systems/scriba/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalID(t *testing.T) {
	tests := []struct {
		name string
		id   core.ID
	}{
		{"zero ID", core.ID(0)},
		{"small ID", core.ID(42)},
		{"large ID", core.ID(18446744073709551615)}, // max uint64
		{"content-based ID", core.IDFromContent("test content")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalID(tt.id)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalID(data)
			require.NoError(t, err)
			assert.Equal(t, tt.id, decoded)
		})
	}
}

func TestUnmarshalID_Invalid(t *testing.T) {
	_, err := UnmarshalID([]byte{})
	assert.Error(t, err)
}

func TestMarshalUnmarshalDocument(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	doc := &core.Document{
		Id:           core.ID(7),
		SourceRef:    "uploads/report.pdf",
		Status:       core.StatusCompleted,
		RetryCount:   2,
		ErrorMessage: "previous attempt: connection refused",
		ChunkCount:   14,
		IndexedAt:    now,
		EnqueuedAt:   now.Add(-time.Hour),
		UpdatedAt:    now,
	}

	decoded, err := UnmarshalDocument(MarshalDocument(doc))
	require.NoError(t, err)
	assert.Equal(t, doc, decoded)
}

func TestMarshalUnmarshalDocument_ZeroTimes(t *testing.T) {
	doc := &core.Document{
		Id:        core.ID(1),
		SourceRef: "notes.txt",
		Status:    core.StatusPending,
	}

	decoded, err := UnmarshalDocument(MarshalDocument(doc))
	require.NoError(t, err)
	assert.True(t, decoded.IndexedAt.IsZero())
	assert.True(t, decoded.EnqueuedAt.IsZero())
	assert.Equal(t, core.StatusPending, decoded.Status)
}

func TestMarshalUnmarshalIndexEntry(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	entry := &core.IndexEntry{
		Id:     core.EntryID(7, 3),
		Vector: []float32{0.1, -0.5, 0.9},
		Text:   "the third chunk of the document",
		Metadata: core.EntryMetadata{
			DocumentId:  core.ID(7),
			SourceRef:   "uploads/report.pdf",
			Filename:    "report.pdf",
			UploadDate:  now,
			ChunkIndex:  3,
			TotalChunks: 14,
		},
	}

	decoded, err := UnmarshalIndexEntry(MarshalIndexEntry(entry))
	require.NoError(t, err)
	assert.Equal(t, entry, decoded)
}

func TestUnmarshalDocument_Truncated(t *testing.T) {
	data := MarshalDocument(&core.Document{Id: 9, SourceRef: "a.txt", Status: core.StatusPending})

	_, err := UnmarshalDocument(data[:len(data)-3])
	assert.Error(t, err)
}
