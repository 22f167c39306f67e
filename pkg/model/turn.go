package model

// Role indicates which side of the conversation produced a turn.
type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// Turn is one message in the chat transcript: plain text, or an interactive
// quiz when Quiz is non-nil. Turns are append-only; rehydration replaces the
// whole sequence atomically.
type Turn struct {
	Role Role
	Text string
	Quiz *QuizPayload
}

// IsQuiz reports whether the turn carries an interactive quiz.
func (t Turn) IsQuiz() bool {
	return t.Quiz != nil
}

// TextTurn creates a plain text turn.
func TextTurn(role Role, text string) Turn {
	return Turn{Role: role, Text: text}
}

// QuizTurn creates an interactive quiz turn. Quiz turns are always presented
// by the bot side.
func QuizTurn(quiz *QuizPayload) Turn {
	return Turn{Role: RoleBot, Quiz: quiz}
}

// QuizPayload is one generated multiple-choice question. Answer is the
// backend-supplied correct answer text; exactly one option matches it by
// substring containment per the backend contract.
type QuizPayload struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   string   `json:"answer"`
}

// ChatRecord is a persisted transcript entry as returned by the history
// endpoint. Quiz turns are stored as text carrying a structured marker.
type ChatRecord struct {
	Text   string `json:"text"`
	IsUser bool   `json:"is_user"`
}
