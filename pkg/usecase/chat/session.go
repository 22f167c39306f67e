package chat

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/studymate-dev/studymate/pkg/adapter"
	"github.com/studymate-dev/studymate/pkg/model"
	"github.com/studymate-dev/studymate/pkg/usecase/notes"
)

// Session is the chat-send path: it appends the user turn, asks the tutor
// with the currently selected notes as context, and appends the reply.
type Session struct {
	backend  adapter.Backend
	log      *Log
	registry *notes.Registry
	courseID model.CourseID
}

// NewInput contains parameters for creating a chat session
type NewInput struct {
	Backend  adapter.Backend
	Log      *Log
	Registry *notes.Registry
	CourseID model.CourseID
}

func New(input NewInput) *Session {
	return &Session{
		backend:  input.Backend,
		log:      input.Log,
		registry: input.Registry,
		courseID: input.CourseID,
	}
}

// Send delivers a user message and appends the bot's reply to the log. On
// failure the user turn stays in the transcript and the error surfaces to
// the caller; nothing else changes.
func (s *Session) Send(ctx context.Context, message string) (model.Turn, error) {
	s.log.Append(model.TextTurn(model.RoleUser, message))

	out, err := s.backend.Chat(ctx, &adapter.ChatInput{
		Message:  message,
		CourseID: s.courseID,
		NoteIDs:  s.registry.SelectedIDs(),
	})
	if err != nil {
		return model.Turn{}, goerr.Wrap(err, "failed to send message")
	}

	var turn model.Turn
	if out.IsQuiz && out.Quiz != nil {
		turn = model.QuizTurn(out.Quiz)
	} else {
		turn = model.TextTurn(model.RoleBot, out.Text)
	}
	s.log.Append(turn)
	return turn, nil
}
