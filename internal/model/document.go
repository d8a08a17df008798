package model

import "time"

// BackendKind tags which blob backend variant holds a stored object.
type BackendKind string

const (
	BackendRemote BackendKind = "remote"
	BackendLocal  BackendKind = "local"
)

// Valid reports whether k is a known backend variant.
func (k BackendKind) Valid() bool {
	return k == BackendRemote || k == BackendLocal
}

// StorageLocation locates a blob: Remote(key) or Local(path relative to the storage root).
// The key is opaque to every layer above the blob backend.
type StorageLocation struct {
	Backend BackendKind `json:"-"`
	Key     string      `json:"-"`
}

// Document is the metadata record of a stored file.
// The json tags describe the API view; Location never leaves the server.
//
// Location is write-once: a document is never re-pointed at another blob, only deleted.
type Document struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Location    StorageLocation `json:"-"`
	MediaKind   string          `json:"type"`
	ContentType string          `json:"content_type"`
	Size        int64           `json:"size"`
	OwnerID     string          `json:"student_id"`
	UploadedBy  string          `json:"uploaded_by"`
	CreatedAt   time.Time       `json:"created_at"`
}
