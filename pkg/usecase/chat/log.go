package chat

import (
	"encoding/json"
	"iter"
	"slices"
	"strings"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/goerr/v2"
	"github.com/studymate-dev/studymate/pkg/model"
)

// QuizMarker prefixes persisted transcript entries that carry a quiz payload
// as JSON. Entries without the marker are plain text.
const QuizMarker = "[quiz]"

// parseFailureNote annotates a turn whose quiz payload could not be restored.
const parseFailureNote = " (quiz could not be restored)"

// Log is the append-only chat transcript and the single rendering source for
// it. Turns are never reordered or deleted; rehydration replaces the whole
// sequence atomically.
type Log struct {
	mu     sync.Mutex
	turns  []model.Turn
	notify func(model.Turn)
}

// NewLog creates an empty transcript.
func NewLog() *Log {
	return &Log{}
}

// OnAppend registers the render notification callback. At most one callback
// is held; a later registration replaces the earlier one.
func (l *Log) OnAppend(fn func(model.Turn)) {
	l.mu.Lock()
	l.notify = fn
	l.mu.Unlock()
}

// Append adds a turn to the end of the transcript and notifies the renderer.
func (l *Log) Append(turn model.Turn) {
	l.mu.Lock()
	l.turns = append(l.turns, turn)
	notify := l.notify
	l.mu.Unlock()

	if notify != nil {
		notify(turn)
	}
}

// LoadFrom replaces the whole transcript with decoded persisted records.
// Calling it twice with the same input yields the same sequence. A record
// with an unreadable quiz payload degrades to annotated text instead of
// failing the rehydration.
func (l *Log) LoadFrom(records []model.ChatRecord) {
	turns := make([]model.Turn, 0, len(records))
	for _, rec := range records {
		turns = append(turns, decodeRecord(rec))
	}

	l.mu.Lock()
	l.turns = turns
	l.mu.Unlock()
}

// Len returns the number of turns in the transcript.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.turns)
}

// Render yields the turns in append order. It is a pure projection over a
// snapshot; mutations during iteration do not affect the yielded sequence.
func (l *Log) Render() iter.Seq[model.Turn] {
	l.mu.Lock()
	turns := slices.Clone(l.turns)
	l.mu.Unlock()

	return func(yield func(model.Turn) bool) {
		for _, t := range turns {
			if !yield(t) {
				return
			}
		}
	}
}

func decodeRecord(rec model.ChatRecord) model.Turn {
	role := model.RoleBot
	if rec.IsUser {
		role = model.RoleUser
	}

	if !strings.HasPrefix(rec.Text, QuizMarker) {
		return model.TextTurn(role, rec.Text)
	}

	body := strings.TrimSpace(strings.TrimPrefix(rec.Text, QuizMarker))
	quiz, err := decodeQuizPayload([]byte(body))
	if err != nil {
		return model.TextTurn(role, body+parseFailureNote)
	}
	return model.QuizTurn(quiz)
}

var quizSchema = sync.OnceValues(func() (*jsonschema.Resolved, error) {
	schema := &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"question": {Type: "string"},
			"options":  {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
			"answer":   {Type: "string"},
		},
		Required: []string{"question", "options", "answer"},
	}
	return schema.Resolve(nil)
})

func decodeQuizPayload(data []byte) (*model.QuizPayload, error) {
	resolved, err := quizSchema()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to resolve quiz schema")
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, goerr.Wrap(model.ErrParse, "quiz payload is not JSON", goerr.V("error", err))
	}
	if err := resolved.Validate(raw); err != nil {
		return nil, goerr.Wrap(model.ErrParse, "quiz payload rejected by schema", goerr.V("error", err))
	}

	var quiz model.QuizPayload
	if err := json.Unmarshal(data, &quiz); err != nil {
		return nil, goerr.Wrap(model.ErrParse, "quiz payload does not match shape", goerr.V("error", err))
	}
	return &quiz, nil
}
