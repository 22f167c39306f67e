package notes

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/studymate-dev/studymate/pkg/adapter"
	"github.com/studymate-dev/studymate/pkg/model"
)

// Coordinator converts a batch of selected files into exactly one backend
// request and fans the result back into the registry. Concurrent batches are
// tracked independently through their local keys; there is no cancellation.
type Coordinator struct {
	backend  adapter.Backend
	registry *Registry
}

// NewCoordinator creates an upload coordinator bound to a registry.
func NewCoordinator(backend adapter.Backend, registry *Registry) *Coordinator {
	return &Coordinator{backend: backend, registry: registry}
}

// Submit uploads the batch in a single multipart request. The batch is
// all-or-nothing: on success every file yields a confirmed note in
// submission order; on failure all pending entries for the batch are
// removed and the error is surfaced to the caller.
func (c *Coordinator) Submit(ctx context.Context, courseID model.CourseID, files []model.FileHandle) ([]*model.Note, error) {
	if len(files) == 0 {
		return nil, nil
	}

	keys := c.registry.AddPending(files)

	confirmed, err := c.backend.Upload(ctx, courseID, files)
	if err != nil {
		c.registry.DropPending(keys)
		return nil, goerr.Wrap(err, "upload batch failed",
			goerr.V("course_id", courseID),
			goerr.V("count", len(files)))
	}

	c.registry.Confirm(keys, confirmed)
	return confirmed, nil
}
