package history

import (
	"context"
	"sync"

	"github.com/studymate-dev/studymate/pkg/adapter"
	"github.com/studymate-dev/studymate/pkg/model"
	"github.com/studymate-dev/studymate/pkg/usecase/chat"
	"github.com/studymate-dev/studymate/pkg/usecase/notes"
	"github.com/studymate-dev/studymate/pkg/utils/logging"
)

// Syncer rehydrates the note registry and the transcript from the server
// once per process. A failed sync is cold-start semantics: both collections
// stay empty, the condition is logged, and no error reaches the user.
type Syncer struct {
	backend adapter.Backend
	once    sync.Once
}

// NewSyncer creates a Syncer for the given backend.
func NewSyncer(backend adapter.Backend) *Syncer {
	return &Syncer{backend: backend}
}

// Result reports what the sync restored.
type Result struct {
	Notes   []*model.Note
	Records []model.ChatRecord
}

// Sync fetches persisted state for the course and feeds the registry and
// the log. Repeated calls are no-ops returning an empty result.
func (s *Syncer) Sync(ctx context.Context, courseID model.CourseID, registry *notes.Registry, log *chat.Log) *Result {
	res := &Result{}
	s.once.Do(func() {
		out, err := s.backend.History(ctx, courseID)
		if err != nil {
			logging.From(ctx).Warn("history sync failed, starting cold",
				"course_id", courseID, "error", err)
			return
		}
		if !out.HasHistory {
			return
		}

		registry.LoadFrom(out.Notes)
		log.LoadFrom(out.Records)
		res.Notes = out.Notes
		res.Records = out.Records
	})
	return res
}
