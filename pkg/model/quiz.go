package model

import "github.com/m-mizutani/goerr/v2"

var ErrInvalidDifficulty = goerr.New("invalid difficulty")

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Validate checks if the difficulty is valid
func (d Difficulty) Validate() error {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return nil
	default:
		return goerr.Wrap(ErrInvalidDifficulty, "unknown difficulty", goerr.V("difficulty", d))
	}
}

// SessionID identifies a quiz session. It is supplied by the backend at
// session creation and stays set for the whole active lifetime.
type SessionID string

// QuizSession is a bounded run of Total adaptively generated questions.
// Current counts fetched questions and never exceeds Total.
type QuizSession struct {
	ID         SessionID
	CourseID   CourseID
	Total      int
	Current    int
	Difficulty Difficulty
	Topic      string
	Active     bool
	Score      int
}
