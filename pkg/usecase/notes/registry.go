package notes

import (
	"context"
	"slices"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/studymate-dev/studymate/pkg/adapter"
	"github.com/studymate-dev/studymate/pkg/model"
)

// Registry is the source of truth for the current course's notes: confirmed
// records, pending uploads, and the selection flags that scope chat context.
// Renames and deletions mutate local state only after the backend
// acknowledges; there is no optimistic update.
type Registry struct {
	mu      sync.Mutex
	backend adapter.Backend

	notes   []*model.Note
	pending []*model.PendingUpload
}

// NewRegistry creates an empty registry for a course.
func NewRegistry(backend adapter.Backend) *Registry {
	return &Registry{backend: backend}
}

// AddPending registers a batch of files awaiting upload and returns their
// correlation keys. Pending entries are never selectable.
func (r *Registry) AddPending(files []model.FileHandle) []model.LocalKey {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := make([]model.LocalKey, 0, len(files))
	for _, f := range files {
		key := model.NewLocalKey()
		r.pending = append(r.pending, &model.PendingUpload{
			LocalKey: key,
			File:     f,
			Status:   model.UploadPending,
		})
		keys = append(keys, key)
	}
	return keys
}

// Confirm replaces the pending entries for a batch with server-confirmed
// notes. Confirmation pairs keys with notes in response order; pendings left
// unmatched when the server confirmed fewer files are discarded silently.
// A confirmed note whose id is already present replaces the old record.
func (r *Registry) Confirm(keys []model.LocalKey, confirmed []*model.Note) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.dropPendingLocked(keys)
	for _, note := range confirmed {
		if existing := r.lookupLocked(note.ID); existing != nil {
			existing.Name = note.Name
			continue
		}
		r.notes = append(r.notes, &model.Note{ID: note.ID, Name: note.Name, Selected: note.Selected})
	}
}

// DropPending removes pending entries without backend involvement, used when
// an upload batch fails.
func (r *Registry) DropPending(keys []model.LocalKey) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dropPendingLocked(keys)
}

func (r *Registry) dropPendingLocked(keys []model.LocalKey) {
	drop := make(map[model.LocalKey]bool, len(keys))
	for _, k := range keys {
		drop[k] = true
	}
	r.pending = slices.DeleteFunc(r.pending, func(p *model.PendingUpload) bool {
		return drop[p.LocalKey]
	})
}

// Rename updates a note's name after the backend acknowledges the change.
func (r *Registry) Rename(ctx context.Context, id model.NoteID, newName string) error {
	r.mu.Lock()
	note := r.lookupLocked(id)
	r.mu.Unlock()
	if note == nil {
		return goerr.Wrap(model.ErrNotFound, "unknown note", goerr.V("note_id", id))
	}

	if err := r.backend.RenameNote(ctx, id, newName); err != nil {
		return goerr.Wrap(err, "failed to rename note", goerr.V("note_id", id))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if note := r.lookupLocked(id); note != nil {
		note.Name = newName
	}
	return nil
}

// Remove deletes a note after the backend acknowledges the deletion.
func (r *Registry) Remove(ctx context.Context, id model.NoteID) error {
	r.mu.Lock()
	note := r.lookupLocked(id)
	r.mu.Unlock()
	if note == nil {
		return goerr.Wrap(model.ErrNotFound, "unknown note", goerr.V("note_id", id))
	}

	if err := r.backend.DeleteNote(ctx, id); err != nil {
		return goerr.Wrap(err, "failed to delete note", goerr.V("note_id", id))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = slices.DeleteFunc(r.notes, func(n *model.Note) bool {
		return n.ID == id
	})
	return nil
}

// Toggle sets a note's selection flag for chat context scoping.
func (r *Registry) Toggle(id model.NoteID, selected bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	note := r.lookupLocked(id)
	if note == nil {
		return goerr.Wrap(model.ErrNotFound, "unknown note", goerr.V("note_id", id))
	}
	note.Selected = selected
	return nil
}

// SelectedIDs returns the ids of currently selected notes.
func (r *Registry) SelectedIDs() []model.NoteID {
	r.mu.Lock()
	defer r.mu.Unlock()

	var ids []model.NoteID
	for _, n := range r.notes {
		if n.Selected {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

// Notes returns a snapshot of the confirmed notes in registration order.
func (r *Registry) Notes() []*model.Note {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*model.Note, 0, len(r.notes))
	for _, n := range r.notes {
		c := *n
		out = append(out, &c)
	}
	return out
}

// Pending returns a snapshot of the pending uploads.
func (r *Registry) Pending() []*model.PendingUpload {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*model.PendingUpload, 0, len(r.pending))
	for _, p := range r.pending {
		c := *p
		out = append(out, &c)
	}
	return out
}

// LoadFrom overwrites the registry with server-persisted notes. Used once by
// history sync at startup; pending entries are cleared as well.
func (r *Registry) LoadFrom(persisted []*model.Note) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.notes = make([]*model.Note, 0, len(persisted))
	for _, n := range persisted {
		c := *n
		r.notes = append(r.notes, &c)
	}
	r.pending = nil
}

func (r *Registry) lookupLocked(id model.NoteID) *model.Note {
	for _, n := range r.notes {
		if n.ID == id {
			return n
		}
	}
	return nil
}
