package adapter

import (
	"context"

	"github.com/studymate-dev/studymate/pkg/model"
)

// ChatInput is a message to the tutor, scoped by the currently selected
// notes. Difficulty and Topic are only set on quiz question fetches.
type ChatInput struct {
	Message    string
	CourseID   model.CourseID
	NoteIDs    []model.NoteID
	Difficulty model.Difficulty
	Topic      string
}

// ChatOutput is the tutor's reply: plain text, or a quiz payload when the
// backend flags the response as a quiz.
type ChatOutput struct {
	Text   string
	Quiz   *model.QuizPayload
	IsQuiz bool
}

// HistoryOutput is the persisted state for a course.
type HistoryOutput struct {
	HasHistory bool
	Notes      []*model.Note
	Records    []model.ChatRecord
}

// QuizSessionInfo is returned when the backend opens a quiz session.
type QuizSessionInfo struct {
	ID   model.SessionID
	Name string
}

// SubmitInput records one answered question. Delivery is best-effort; the
// caller must not block progression on it.
type SubmitInput struct {
	SessionID  model.SessionID
	Question   string
	Selected   string
	Correct    bool
	Difficulty model.Difficulty
}

// StatsOutput is the mastery dashboard data for a course.
type StatsOutput struct {
	HasData        bool
	Mastery        float64
	WeakArea       string
	Recommendation string
}

// Backend is the interface for the study-assistant HTTP service.
type Backend interface {
	// Chat sends a message and returns the tutor's reply
	Chat(ctx context.Context, input *ChatInput) (*ChatOutput, error)

	// Upload sends one multipart request for the whole batch and returns
	// the confirmed notes in submission order
	Upload(ctx context.Context, courseID model.CourseID, files []model.FileHandle) ([]*model.Note, error)

	// History retrieves persisted notes and transcript for a course
	History(ctx context.Context, courseID model.CourseID) (*HistoryOutput, error)

	// RenameNote renames a note on the server
	RenameNote(ctx context.Context, id model.NoteID, newName string) error

	// DeleteNote deletes a note on the server
	DeleteNote(ctx context.Context, id model.NoteID) error

	// StartQuizSession opens a quiz session and returns its identity
	StartQuizSession(ctx context.Context, courseID model.CourseID, topic string) (*QuizSessionInfo, error)

	// SubmitAnswer records an answered question (fire-and-forget channel)
	SubmitAnswer(ctx context.Context, input *SubmitInput) error

	// Stats retrieves the mastery dashboard for a course
	Stats(ctx context.Context, courseID model.CourseID) (*StatsOutput, error)
}
