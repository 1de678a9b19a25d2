// Package storage persists generated documents to the CRM content library.
// This is the authoritative copy; the local filesystem copy is best effort.
package storage

import "context"

// ContentStore uploads document bytes and attaches them to CRM records.
type ContentStore interface {
	// Upload stores the document and returns the content document id.
	Upload(ctx context.Context, fileName string, data []byte) (string, error)
	// Link attaches previously uploaded content to a record.
	Link(ctx context.Context, contentID, recordID string) error
}

// UploadError describes a failed remote sync. When ContentID is set the bytes
// reached the content library but could not be attached to the record, so the
// upload is orphaned and the id is needed for manual cleanup.
type UploadError struct {
	ContentID string
	Err       error
}

func (e *UploadError) Error() string {
	if e.Orphaned() {
		return "remote link failed, content " + e.ContentID + " orphaned: " + e.Err.Error()
	}
	return "remote upload failed: " + e.Err.Error()
}

func (e *UploadError) Unwrap() error { return e.Err }

// Orphaned reports whether content was created but left unattached.
func (e *UploadError) Orphaned() bool { return e.ContentID != "" }
