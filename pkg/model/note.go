package model

import (
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// CourseID identifies a logical study session scoping notes, chat history,
// and quizzes.
type CourseID string

// NoteID is assigned by the backend on upload confirmation. The client never
// generates one.
type NoteID string

// LocalKey correlates a pending upload with its server-confirmed note.
type LocalKey string

// NewLocalKey generates a new unique LocalKey
func NewLocalKey() LocalKey {
	return LocalKey(uuid.New().String())
}

// Note is a user-uploaded document confirmed by the backend.
type Note struct {
	ID       NoteID
	Name     string
	Selected bool
}

type UploadStatus string

const (
	UploadPending UploadStatus = "pending"
	UploadFailed  UploadStatus = "failed"
)

// PendingUpload exists only between file selection and server acknowledgment.
// It is replaced 1:1 by a Note on success or removed on failure, and is never
// selectable for chat context.
type PendingUpload struct {
	LocalKey LocalKey
	File     FileHandle
	Status   UploadStatus
}

// FileHandle is an opaque reference to a local file chosen for upload.
type FileHandle struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// NewFileHandle creates a FileHandle backed by a file on disk.
func NewFileHandle(path string) FileHandle {
	return FileHandle{
		Name: filepath.Base(path),
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}
}
